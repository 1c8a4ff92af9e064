// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/multikonnect/cartwatch/internal/application/services"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/logging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/performance"
	"github.com/multikonnect/cartwatch/internal/presentation/http/middleware"
)

// CartHandlers contains the abandoned cart tracking and conversion handlers
type CartHandlers struct {
	trackingService   *services.TrackingService
	conversionService *services.ConversionService
	authService       *services.AuthService
	logger            *logging.ChanneledLogger
	perfTracker       *performance.Tracker
}

// NewCartHandlers creates cart handlers with injected dependencies
func NewCartHandlers(trackingService *services.TrackingService, conversionService *services.ConversionService, authService *services.AuthService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *CartHandlers {
	return &CartHandlers{
		trackingService:   trackingService,
		conversionService: conversionService,
		authService:       authService,
		logger:            logger,
		perfTracker:       perfTracker,
	}
}

// ConvertedRequest represents the body of a conversion marking request
type ConvertedRequest struct {
	OrderID *string `json:"order_id,omitempty"`
}

// PostTrack handles POST /api/v1/abandoned-carts - persists a cart snapshot
// and returns its recovery token.
func (h *CartHandlers) PostTrack(c *gin.Context) {
	sessionID, exists := middleware.GetSessionID(c)
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("track_cart_request")
	defer marker.Complete()
	h.logger.Tracking().Debug("Received cart tracking request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req services.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Tracking().Error("Tracking request JSON binding failed", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	identity := h.authService.IdentityFromAuthHeader(c.GetHeader("Authorization"))

	result := h.trackingService.ProcessTrackRequest(&req, sessionID, identity)
	if !result.Success {
		h.logger.Tracking().Error("Cart tracking failed",
			"sessionId", sessionID,
			"error", result.Error,
			"duration", time.Since(start))
		marker.SetSuccess(false)

		switch result.Error {
		case "cart is empty":
			c.JSON(http.StatusBadRequest, gin.H{"error": result.Error})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error})
		}
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for PostTrack request", "duration", marker.Duration, "success", true)

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"recovery_token": result.RecoveryToken,
		},
	})
}

// PostConverted handles POST /api/v1/abandoned-carts/:token/converted -
// associates a recovery token with a completed order.
func (h *CartHandlers) PostConverted(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recovery token required"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("mark_converted_request")
	defer marker.Complete()

	// The body is optional; an order id is a nice-to-have for attribution.
	var req ConvertedRequest
	_ = c.ShouldBindJSON(&req)

	result := h.conversionService.MarkConverted(token, req.OrderID)
	if !result.Success {
		marker.SetSuccess(false)
		if result.NotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found or expired"})
			return
		}
		h.logger.Tracking().Error("Conversion marking failed",
			"token", token,
			"error", result.Error,
			"duration", time.Since(start))
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error})
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for PostConverted request", "duration", marker.Duration, "success", true)

	c.JSON(http.StatusOK, gin.H{"status": "converted"})
}

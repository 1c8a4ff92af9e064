package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/multikonnect/cartwatch/internal/application/services"
	"github.com/multikonnect/cartwatch/internal/domain/cart"
	"github.com/multikonnect/cartwatch/internal/infrastructure/messaging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/logging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/performance"
)

// SysOpHandlers serves the ops dashboard: login, recovery metrics, log level
// control and the live activity feed.
type SysOpHandlers struct {
	authService *services.AuthService
	repo        cart.AbandonedCartRepository
	activityHub *messaging.ActivityHub
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewSysOpHandlers creates sysop handlers with injected dependencies
func NewSysOpHandlers(authService *services.AuthService, repo cart.AbandonedCartRepository, activityHub *messaging.ActivityHub, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SysOpHandlers {
	return &SysOpHandlers{
		authService: authService,
		repo:        repo,
		activityHub: activityHub,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// LoginRequest is the sysop login payload
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// PostLogin handles POST /api/sysop/login
func (h *SysOpHandlers) PostLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
		return
	}

	token, ok := h.authService.LoginSysOp(req.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// GetAuthCheck handles GET /api/sysop/auth - validates the bearer token.
func (h *SysOpHandlers) GetAuthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}

// AuthMiddleware guards sysop routes with the sysop JWT. WebSocket clients
// cannot set headers, so a token query parameter is accepted as well.
func (h *SysOpHandlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if token := c.Query("token"); token != "" {
				authHeader = "Bearer " + token
			}
		}
		if !h.authService.ValidateSysOpToken(authHeader) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// GetMetrics handles GET /api/sysop/metrics - recovery funnel counts plus
// request performance aggregates.
func (h *SysOpHandlers) GetMetrics(c *gin.Context) {
	marker := h.perfTracker.StartOperation("sysop_metrics_request")
	defer marker.Complete()

	metrics, err := h.repo.GetMetrics()
	if err != nil {
		marker.SetSuccess(false)
		h.logger.System().Error("Failed to load cart metrics", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load metrics"})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{
		"carts":       metrics,
		"performance": h.perfTracker.GetStats(),
		"liveClients": h.activityHub.ClientCount(),
	})
}

// GetLogLevels handles GET /api/sysop/logs/levels
func (h *SysOpHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": h.logger.GetChannelLevels()})
}

// LogLevelRequest sets the level for one logging channel
type LogLevelRequest struct {
	Channel string `json:"channel" binding:"required"`
	Level   string `json:"level" binding:"required"`
}

// PostLogLevel handles POST /api/sysop/logs/levels - adjusts a channel's
// verbosity at runtime.
func (h *SysOpHandlers) PostLogLevel(c *gin.Context) {
	var req LogLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel and level required"})
		return
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(req.Level)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid log level"})
		return
	}

	if err := h.logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.System().Info("Log level changed", "channel", req.Channel, "level", req.Level)
	c.JSON(http.StatusOK, gin.H{"levels": h.logger.GetChannelLevels()})
}

// GetActivityFeed handles GET /api/sysop/activity/live - upgrades to a WebSocket
// that streams every tracking event across all sessions.
func (h *SysOpHandlers) GetActivityFeed(c *gin.Context) {
	if err := h.activityHub.HandleConnection(c.Writer, c.Request); err != nil {
		// Upgrade failures already wrote the response.
		return
	}
}

package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/multikonnect/cartwatch/internal/application/services"
	"github.com/multikonnect/cartwatch/internal/infrastructure/messaging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/logging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/performance"
	"github.com/multikonnect/cartwatch/internal/presentation/http/middleware"
	"github.com/multikonnect/cartwatch/pkg/config"
)

// RecoveryHandlers serves token resolution and the per-session SSE feed.
type RecoveryHandlers struct {
	recoveryService *services.RecoveryService
	broadcaster     *messaging.SSEBroadcaster
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewRecoveryHandlers creates recovery handlers with injected dependencies
func NewRecoveryHandlers(recoveryService *services.RecoveryService, broadcaster *messaging.SSEBroadcaster, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *RecoveryHandlers {
	return &RecoveryHandlers{
		recoveryService: recoveryService,
		broadcaster:     broadcaster,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// GetRecover handles GET /api/v1/abandoned-carts/recover/:token - resolves a
// recovery token into the stored cart snapshot and its discount code.
func (h *RecoveryHandlers) GetRecover(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recovery token required"})
		return
	}

	marker := h.perfTracker.StartOperation("recover_cart_request")
	defer marker.Complete()

	result := h.recoveryService.Resolve(token)
	if !result.Success {
		marker.SetSuccess(false)
		if result.NotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found or expired"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error})
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for GetRecover request", "duration", marker.Duration, "success", true)

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data": gin.H{
			"cart_data":     result.Snapshot,
			"discount_code": result.DiscountCode,
		},
	})
}

// GetSSE handles GET /api/v1/carts/sse - streams cart lifecycle events for
// the caller's session.
func (h *RecoveryHandlers) GetSSE(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		sessionID = c.GetHeader(middleware.SessionHeader)
	}
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required"})
		return
	}

	if h.broadcaster.SessionConnectionCount(sessionID) >= config.MaxSSEConnections {
		h.logger.SSE().Warn("SSE connection limit reached", "sessionId", sessionID)
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many connections for session"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	messageChan := h.broadcaster.AddClient(sessionID)
	defer h.broadcaster.RemoveClient(messageChan, sessionID)

	// Initial event confirms the subscription before any cart activity.
	c.SSEvent("connected", fmt.Sprintf(`{"sessionId":%q}`, sessionID))
	c.Writer.Flush()

	heartbeat := time.NewTicker(time.Duration(config.SSEHeartbeatIntervalSeconds) * time.Second)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case message, ok := <-messageChan:
			if !ok {
				return false
			}
			_, err := fmt.Fprint(w, message)
			return err == nil
		case <-heartbeat.C:
			_, err := fmt.Fprint(w, ": heartbeat\n\n")
			return err == nil
		}
	})
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/logging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/persistence/database"
	"github.com/multikonnect/cartwatch/pkg/config"
)

// DBHandlers exposes database connectivity status for health checks.
type DBHandlers struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewDBHandlers creates database handlers with injected dependencies
func NewDBHandlers(db *database.DB, logger *logging.ChanneledLogger) *DBHandlers {
	return &DBHandlers{db: db, logger: logger}
}

// GetStatus handles GET /api/v1/db/status - pings the database connection.
func (h *DBHandlers) GetStatus(c *gin.Context) {
	start := time.Now()

	if err := h.db.Ping(); err != nil {
		h.logger.Database().Error("Database ping failed", "error", err.Error())
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "connected",
		"driver":   config.DBDriver,
		"pingTime": time.Since(start).String(),
	})
}

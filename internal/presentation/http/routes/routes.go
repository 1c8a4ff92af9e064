// Package routes registers all HTTP routes on the gin engine.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/multikonnect/cartwatch/internal/application/container"
	"github.com/multikonnect/cartwatch/internal/presentation/http/handlers"
	"github.com/multikonnect/cartwatch/internal/presentation/http/middleware"
)

// Setup builds the gin engine with all middleware and routes registered.
func Setup(c *container.Container) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())

	cartHandlers := handlers.NewCartHandlers(c.TrackingService, c.ConversionService, c.AuthService, c.Logger, c.PerfTracker)
	recoveryHandlers := handlers.NewRecoveryHandlers(c.RecoveryService, c.Broadcaster, c.Logger, c.PerfTracker)
	sysOpHandlers := handlers.NewSysOpHandlers(c.AuthService, c.CartRepo, c.ActivityHub, c.Logger, c.PerfTracker)
	dbHandlers := handlers.NewDBHandlers(c.DB, c.Logger)

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		carts := v1.Group("/abandoned-carts")
		{
			carts.POST("", middleware.SessionMiddleware(), cartHandlers.PostTrack)
			carts.GET("/recover/:token", recoveryHandlers.GetRecover)
			carts.POST("/:token/converted", cartHandlers.PostConverted)
		}

		v1.GET("/carts/sse", recoveryHandlers.GetSSE)
		v1.GET("/db/status", dbHandlers.GetStatus)
	}

	sysop := router.Group("/api/sysop")
	{
		sysop.POST("/login", sysOpHandlers.PostLogin)

		guarded := sysop.Group("")
		guarded.Use(sysOpHandlers.AuthMiddleware())
		{
			guarded.GET("/auth", sysOpHandlers.GetAuthCheck)
			guarded.GET("/metrics", sysOpHandlers.GetMetrics)
			guarded.GET("/logs/levels", sysOpHandlers.GetLogLevels)
			guarded.POST("/logs/levels", sysOpHandlers.PostLogLevel)
			guarded.GET("/activity/live", sysOpHandlers.GetActivityFeed)
		}
	}

	return router
}

// Package startup handles application initialization and graceful shutdown.
package startup

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/multikonnect/cartwatch/internal/application/container"
	"github.com/multikonnect/cartwatch/internal/infrastructure/email"
	"github.com/multikonnect/cartwatch/internal/infrastructure/media"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/logging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/performance"
	"github.com/multikonnect/cartwatch/internal/infrastructure/persistence/database"
	"github.com/multikonnect/cartwatch/internal/presentation/http/routes"
	"github.com/multikonnect/cartwatch/internal/presentation/http/server"
	"github.com/multikonnect/cartwatch/pkg/config"
)

const shutdownGracePeriod = 10 * time.Second

// Initialize boots the full application: logging, database, dependency
// container, background workers and the HTTP server. It blocks until a
// shutdown signal arrives.
func Initialize() error {
	logger, err := logging.NewChanneledLogger(nil)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()

	logger.Startup().Info("Starting cartwatch",
		"port", config.Port,
		"dbDriver", config.DBDriver)

	db, err := database.NewConnectionWithLogger(config.DBDriver, config.DBPath, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		return fmt.Errorf("failed to ensure database schema: %w", err)
	}

	// Email is optional: without a provider the reminder worker only expires
	// stale carts.
	emailService, err := email.NewService()
	if err != nil {
		logger.Startup().Warn("Email service disabled", "reason", err.Error())
		emailService = nil
	}

	var thumbnails *media.ThumbnailGenerator
	if config.MediaBaseURL != "" {
		thumbnails = media.NewThumbnailGenerator(config.MediaPath, config.MediaBaseURL)
	}

	perfTracker := performance.NewTracker()
	appContainer := container.New(db, emailService, thumbnails, logger, perfTracker)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	go appContainer.ReminderService.Start(workerCtx)

	httpServer := server.New(routes.Setup(appContainer), logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		logger.Shutdown().Info("Shutdown signal received", "signal", sig.String())
	}

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Shutdown().Info("Shutdown complete")
	return nil
}

// Package container wires application dependencies together.
package container

import (
	"github.com/multikonnect/cartwatch/internal/application/services"
	domaincart "github.com/multikonnect/cartwatch/internal/domain/cart"
	"github.com/multikonnect/cartwatch/internal/infrastructure/email"
	"github.com/multikonnect/cartwatch/internal/infrastructure/media"
	"github.com/multikonnect/cartwatch/internal/infrastructure/messaging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/logging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/performance"
	cartrepo "github.com/multikonnect/cartwatch/internal/infrastructure/persistence/cart"
	"github.com/multikonnect/cartwatch/internal/infrastructure/persistence/database"
)

// Container holds every shared dependency of the application.
type Container struct {
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker

	DB       *database.DB
	CartRepo domaincart.AbandonedCartRepository

	Broadcaster *messaging.SSEBroadcaster
	ActivityHub *messaging.ActivityHub

	TrackingService   *services.TrackingService
	RecoveryService   *services.RecoveryService
	ConversionService *services.ConversionService
	ReminderService   *services.ReminderService
	AuthService       *services.AuthService
}

// New builds the dependency graph on top of an established database
// connection. emailService may be nil when no provider is configured.
func New(db *database.DB, emailService email.Service, thumbnails *media.ThumbnailGenerator, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *Container {
	repo := cartrepo.NewSQLAbandonedCartRepository(db)
	broadcaster := messaging.NewSSEBroadcaster(logger)
	activityHub := messaging.NewActivityHub(logger)

	return &Container{
		Logger:      logger,
		PerfTracker: perfTracker,

		DB:       db,
		CartRepo: repo,

		Broadcaster: broadcaster,
		ActivityHub: activityHub,

		TrackingService:   services.NewTrackingService(repo, broadcaster, activityHub, logger),
		RecoveryService:   services.NewRecoveryService(repo, broadcaster, activityHub, logger),
		ConversionService: services.NewConversionService(repo, broadcaster, activityHub, logger),
		ReminderService:   services.NewReminderService(repo, emailService, thumbnails, logger),
		AuthService:       services.NewAuthService(logger),
	}
}

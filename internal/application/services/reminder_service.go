package services

import (
	"context"
	"fmt"
	"time"

	"github.com/multikonnect/cartwatch/internal/domain/cart"
	"github.com/multikonnect/cartwatch/internal/infrastructure/email"
	"github.com/multikonnect/cartwatch/internal/infrastructure/email/templates"
	"github.com/multikonnect/cartwatch/internal/infrastructure/media"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/logging"
	"github.com/multikonnect/cartwatch/pkg/config"
)

const emailThumbnailWidth = 64

// ReminderService runs the background recovery reminder pipeline: it scans
// for idle carts, assigns the discount code, and sends the recovery email.
type ReminderService struct {
	repo          cart.AbandonedCartRepository
	emailService  email.Service
	thumbnails    *media.ThumbnailGenerator
	logger        *logging.ChanneledLogger
	reminderDelay time.Duration
	tokenTTL      time.Duration
	interval      time.Duration
	discountCode  string
	storefrontURL string
}

// NewReminderService creates a new reminder service. emailService may be nil
// when no email provider is configured; the pipeline then only expires stale
// carts.
func NewReminderService(repo cart.AbandonedCartRepository, emailService email.Service, thumbnails *media.ThumbnailGenerator, logger *logging.ChanneledLogger) *ReminderService {
	return &ReminderService{
		repo:          repo,
		emailService:  emailService,
		thumbnails:    thumbnails,
		logger:        logger,
		reminderDelay: config.ReminderDelay,
		tokenTTL:      config.RecoveryTokenTTL,
		interval:      config.ReminderInterval,
		discountCode:  config.DiscountCode,
		storefrontURL: config.StorefrontURL,
	}
}

// Start begins the reminder worker routine, using the configured interval.
func (s *ReminderService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Reminder().Info("Reminder worker started",
		"interval", s.interval,
		"reminderDelay", s.reminderDelay,
		"emailEnabled", s.emailService != nil)

	for {
		select {
		case <-ctx.Done():
			s.logger.Reminder().Info("Reminder worker stopping")
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce performs a single reminder sweep: expire stale carts, then send
// due reminders.
func (s *ReminderService) RunOnce() {
	start := time.Now()
	now := start.UTC()

	expired, err := s.repo.ExpireOlderThan(now.Add(-s.tokenTTL))
	if err != nil {
		s.logger.Reminder().Error("Expiry sweep failed", "error", err.Error())
	} else if expired > 0 {
		s.logger.Reminder().Info("Expired stale carts", "count", expired)
	}

	if s.emailService == nil {
		return
	}

	due, err := s.repo.FindDueForReminder(now.Add(-s.reminderDelay))
	if err != nil {
		s.logger.Reminder().Error("Failed to find carts due for reminder", "error", err.Error())
		return
	}

	sent := 0
	for _, record := range due {
		if err := s.sendReminder(record); err != nil {
			s.logger.Reminder().Error("Failed to send reminder",
				"token", record.Token,
				"error", err.Error())
			continue
		}
		sent++
	}

	if sent > 0 {
		s.logger.Reminder().Info("Reminder sweep completed",
			"due", len(due),
			"sent", sent,
			"duration", time.Since(start))
	}
}

// sendReminder assigns the discount code, sends the email, and stamps the
// record. The stamp is written first so a slow email provider cannot cause
// duplicate sends on overlapping sweeps.
func (s *ReminderService) sendReminder(record *cart.AbandonedCart) error {
	now := time.Now().UTC()
	record.ReminderSentAt = &now
	record.UpdatedAt = now
	if record.DiscountCode == nil && s.discountCode != "" {
		code := s.discountCode
		record.DiscountCode = &code
	}
	if err := s.repo.Update(record); err != nil {
		return fmt.Errorf("failed to stamp reminder: %w", err)
	}

	items := make([]templates.RecoveryItem, 0, len(record.Snapshot.Items))
	for _, line := range record.Snapshot.Items {
		item := templates.RecoveryItem{
			Name:     line.Name,
			Quantity: line.Quantity,
			Price:    line.Price,
		}
		if s.thumbnails != nil {
			item.ThumbnailURL = s.thumbnails.ThumbnailURL(line.Image, emailThumbnailWidth)
		}
		items = append(items, item)
	}

	discountCode := ""
	if record.DiscountCode != nil {
		discountCode = *record.DiscountCode
	}

	recoveryURL := fmt.Sprintf("%s/cart/recover/%s", s.storefrontURL, record.Token)
	return s.emailService.SendCartRecoveryEmail(*record.Email, "", recoveryURL, discountCode, items, record.Snapshot.Total)
}

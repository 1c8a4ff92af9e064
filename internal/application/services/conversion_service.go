package services

import (
	"time"

	"github.com/multikonnect/cartwatch/internal/domain/cart"
	"github.com/multikonnect/cartwatch/internal/infrastructure/messaging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/logging"
)

// ConversionService marks tracked carts as converted so recovery reminders
// stop firing for them.
type ConversionService struct {
	repo        cart.AbandonedCartRepository
	broadcaster *messaging.SSEBroadcaster
	activityHub *messaging.ActivityHub
	logger      *logging.ChanneledLogger
}

// NewConversionService creates a new conversion service
func NewConversionService(repo cart.AbandonedCartRepository, broadcaster *messaging.SSEBroadcaster, activityHub *messaging.ActivityHub, logger *logging.ChanneledLogger) *ConversionService {
	return &ConversionService{
		repo:        repo,
		broadcaster: broadcaster,
		activityHub: activityHub,
		logger:      logger,
	}
}

// ConversionResult holds the result of a conversion marking
type ConversionResult struct {
	NotFound bool   `json:"-"`
	Success  bool   `json:"-"`
	Error    string `json:"-"`
}

// MarkConverted associates a recovery token with a completed order. Marking
// an already converted cart again is a no-op success, so order-placement
// retries stay idempotent.
func (s *ConversionService) MarkConverted(token string, orderID *string) *ConversionResult {
	record, err := s.repo.FindByToken(token)
	if err != nil {
		s.logger.Tracking().Error("Failed to look up cart for conversion", "token", token, "error", err.Error())
		return &ConversionResult{Success: false, Error: "failed to look up cart"}
	}
	if record == nil {
		return &ConversionResult{Success: false, NotFound: true}
	}

	if record.IsConverted() {
		return &ConversionResult{Success: true}
	}

	now := time.Now().UTC()
	record.Status = cart.StatusConverted
	record.ConvertedAt = &now
	record.UpdatedAt = now
	if orderID != nil && *orderID != "" {
		record.OrderID = orderID
	}

	if err := s.repo.Update(record); err != nil {
		s.logger.Tracking().Error("Failed to mark cart converted", "token", token, "error", err.Error())
		return &ConversionResult{Success: false, Error: "failed to mark cart converted"}
	}

	event := messaging.CartEvent{
		Type:      "cart_converted",
		SessionID: record.SessionID,
		Token:     record.Token,
		ItemCount: record.Snapshot.ItemCount,
		Total:     record.Snapshot.Total,
	}
	s.broadcaster.BroadcastToSession(record.SessionID, event)
	s.activityHub.Publish(event)

	s.logger.Tracking().Info("Cart marked converted",
		"token", token,
		"orderId", record.OrderID,
		"total", record.Snapshot.Total)

	return &ConversionResult{Success: true}
}

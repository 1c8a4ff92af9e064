package services

import (
	"time"

	"github.com/multikonnect/cartwatch/internal/domain/cart"
	"github.com/multikonnect/cartwatch/internal/infrastructure/messaging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/logging"
	"github.com/multikonnect/cartwatch/pkg/config"
)

// RecoveryService resolves recovery tokens back into cart snapshots.
type RecoveryService struct {
	repo        cart.AbandonedCartRepository
	broadcaster *messaging.SSEBroadcaster
	activityHub *messaging.ActivityHub
	logger      *logging.ChanneledLogger
	tokenTTL    time.Duration
}

// NewRecoveryService creates a new recovery service
func NewRecoveryService(repo cart.AbandonedCartRepository, broadcaster *messaging.SSEBroadcaster, activityHub *messaging.ActivityHub, logger *logging.ChanneledLogger) *RecoveryService {
	return &RecoveryService{
		repo:        repo,
		broadcaster: broadcaster,
		activityHub: activityHub,
		logger:      logger,
		tokenTTL:    config.RecoveryTokenTTL,
	}
}

// RecoveryResult holds the result of a token resolution
type RecoveryResult struct {
	Snapshot     cart.Snapshot `json:"cartData"`
	DiscountCode string        `json:"discountCode,omitempty"`
	NotFound     bool          `json:"-"`
	Success      bool          `json:"-"`
	Error        string        `json:"-"`
}

// Resolve fetches the cart snapshot for a recovery token. Unknown, converted
// and expired tokens all resolve to NotFound: from the shopper's perspective
// the cart is simply gone.
func (s *RecoveryService) Resolve(token string) *RecoveryResult {
	record, err := s.repo.FindByToken(token)
	if err != nil {
		s.logger.Recovery().Error("Failed to look up recovery token", "token", token, "error", err.Error())
		return &RecoveryResult{Success: false, Error: "failed to look up recovery token"}
	}

	now := time.Now().UTC()
	if record == nil || record.IsConverted() || record.IsExpiredAt(now, s.tokenTTL) {
		s.logger.Recovery().Info("Recovery token not resolvable", "token", token, "found", record != nil)
		return &RecoveryResult{Success: false, NotFound: true}
	}

	record.RecoveredAt = &now
	record.UpdatedAt = now
	if err := s.repo.Update(record); err != nil {
		// The shopper still gets their cart back; only the recovery audit
		// stamp is lost.
		s.logger.Recovery().Warn("Failed to stamp recovery time", "token", token, "error", err.Error())
	}

	event := messaging.CartEvent{
		Type:      "cart_recovered",
		SessionID: record.SessionID,
		Token:     record.Token,
		ItemCount: record.Snapshot.ItemCount,
		Total:     record.Snapshot.Total,
	}
	s.broadcaster.BroadcastToSession(record.SessionID, event)
	s.activityHub.Publish(event)

	result := &RecoveryResult{
		Snapshot: record.Snapshot,
		Success:  true,
	}
	if record.DiscountCode != nil {
		result.DiscountCode = *record.DiscountCode
	}

	s.logger.Recovery().Info("Recovery token resolved",
		"token", token,
		"itemCount", record.Snapshot.ItemCount,
		"hasDiscount", record.DiscountCode != nil)

	return result
}

// Package services provides application-level orchestration services
package services

import (
	"time"

	"github.com/multikonnect/cartwatch/internal/domain/cart"
	"github.com/multikonnect/cartwatch/internal/infrastructure/messaging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/logging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/security"
)

// TrackingService handles abandoned cart snapshot ingestion and token issue.
type TrackingService struct {
	repo        cart.AbandonedCartRepository
	broadcaster *messaging.SSEBroadcaster
	activityHub *messaging.ActivityHub
	logger      *logging.ChanneledLogger
}

// NewTrackingService creates a new tracking service
func NewTrackingService(repo cart.AbandonedCartRepository, broadcaster *messaging.SSEBroadcaster, activityHub *messaging.ActivityHub, logger *logging.ChanneledLogger) *TrackingService {
	return &TrackingService{
		repo:        repo,
		broadcaster: broadcaster,
		activityHub: activityHub,
		logger:      logger,
	}
}

// CartPayload is the wire shape of a tracked cart.
type CartPayload struct {
	Items []cart.LineItem `json:"items"`
	Total float64         `json:"total"`
}

// TrackRequest represents the structure for cart tracking requests
type TrackRequest struct {
	CartData CartPayload `json:"cart_data"`
	Email    *string     `json:"email,omitempty"`
	Phone    *string     `json:"phone,omitempty"`
}

// TrackingResult holds the result of a tracking operation
type TrackingResult struct {
	RecoveryToken string `json:"recoveryToken,omitempty"`
	Created       bool   `json:"created"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
}

// ProcessTrackRequest upserts the abandoned cart record for a session and
// returns its recovery token. A session keeps one active record: repeated
// tracking calls update the snapshot in place and the token stays stable.
func (s *TrackingService) ProcessTrackRequest(req *TrackRequest, sessionID string, identity security.Identity) *TrackingResult {
	snapshot := cart.NewSnapshot(req.CartData.Items, req.CartData.Total)
	if snapshot.IsEmpty() {
		// Empty carts are not tracked; the client short-circuits before
		// calling, so an empty payload here is a misbehaving caller.
		return &TrackingResult{Success: false, Error: "cart is empty"}
	}

	now := time.Now().UTC()

	existing, err := s.repo.FindActiveBySessionID(sessionID)
	if err != nil {
		s.logger.Tracking().Error("Failed to look up active cart", "sessionId", sessionID, "error", err.Error())
		return &TrackingResult{Success: false, Error: "failed to look up cart"}
	}

	record := existing
	created := false
	if record == nil {
		record = &cart.AbandonedCart{
			Token:     security.GenerateULID(),
			SessionID: sessionID,
			Status:    cart.StatusActive,
			CreatedAt: now,
		}
		created = true
	}

	record.Snapshot = snapshot
	record.UpdatedAt = now
	applyIdentity(record, req, identity)

	if created {
		err = s.repo.Create(record)
	} else {
		err = s.repo.Update(record)
	}
	if err != nil {
		s.logger.Tracking().Error("Failed to persist cart snapshot",
			"sessionId", sessionID,
			"token", record.Token,
			"created", created,
			"error", err.Error())
		return &TrackingResult{Success: false, Error: "failed to persist cart"}
	}

	event := messaging.CartEvent{
		Type:      "cart_tracked",
		SessionID: sessionID,
		Token:     record.Token,
		ItemCount: snapshot.ItemCount,
		Total:     snapshot.Total,
	}
	s.broadcaster.BroadcastToSession(sessionID, event)
	s.activityHub.Publish(event)

	s.logger.Tracking().Info("Cart snapshot tracked",
		"sessionId", sessionID,
		"token", record.Token,
		"itemCount", snapshot.ItemCount,
		"total", snapshot.Total,
		"created", created,
		"identified", identity.UserID != "" || req.Email != nil)

	return &TrackingResult{
		RecoveryToken: record.Token,
		Created:       created,
		Success:       true,
	}
}

// applyIdentity attaches identity fields from the bearer token and request
// body. Bearer claims win over body fields; existing values are kept when the
// request carries none, so an authenticated visit is not forgotten by a later
// anonymous update in the same session.
func applyIdentity(record *cart.AbandonedCart, req *TrackRequest, identity security.Identity) {
	if identity.UserID != "" {
		record.UserID = &identity.UserID
	}
	if identity.Email != "" {
		record.Email = &identity.Email
	} else if req.Email != nil && *req.Email != "" {
		record.Email = req.Email
	}
	if identity.Phone != "" {
		record.Phone = &identity.Phone
	} else if req.Phone != nil && *req.Phone != "" {
		record.Phone = req.Phone
	}
}

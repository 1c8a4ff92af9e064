package cart

import "time"

// Abandoned cart lifecycle statuses.
const (
	StatusActive    = "active"
	StatusConverted = "converted"
	StatusExpired   = "expired"
)

// AbandonedCart is the persisted record of a tracked cart. One active record
// exists per session; the recovery token is its primary key.
type AbandonedCart struct {
	Token          string     `json:"recoveryToken"`
	SessionID      string     `json:"sessionId"`
	UserID         *string    `json:"userId,omitempty"`
	Email          *string    `json:"email,omitempty"`
	Phone          *string    `json:"phone,omitempty"`
	Snapshot       Snapshot   `json:"cartData"`
	DiscountCode   *string    `json:"discountCode,omitempty"`
	Status         string     `json:"status"`
	OrderID        *string    `json:"orderId,omitempty"`
	ReminderSentAt *time.Time `json:"reminderSentAt,omitempty"`
	RecoveredAt    *time.Time `json:"recoveredAt,omitempty"`
	ConvertedAt    *time.Time `json:"convertedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// IsConverted reports whether the cart already resulted in an order.
func (a *AbandonedCart) IsConverted() bool {
	return a.Status == StatusConverted
}

// IsExpiredAt reports whether the cart is past its recovery window at the
// given instant.
func (a *AbandonedCart) IsExpiredAt(now time.Time, ttl time.Duration) bool {
	return a.Status == StatusExpired || now.Sub(a.UpdatedAt) > ttl
}

// Metrics aggregates abandoned cart counts for the ops surface.
type Metrics struct {
	Active        int     `json:"active"`
	Converted     int     `json:"converted"`
	Expired       int     `json:"expired"`
	RemindersSent int     `json:"remindersSent"`
	RecoveryRate  float64 `json:"recoveryRate"`
}

// AbandonedCartRepository defines the operations for persisting abandoned
// cart records.
type AbandonedCartRepository interface {
	FindByToken(token string) (*AbandonedCart, error)
	FindActiveBySessionID(sessionID string) (*AbandonedCart, error)
	Create(record *AbandonedCart) error
	Update(record *AbandonedCart) error
	FindDueForReminder(idleSince time.Time) ([]*AbandonedCart, error)
	ExpireOlderThan(cutoff time.Time) (int64, error)
	GetMetrics() (*Metrics, error)
}

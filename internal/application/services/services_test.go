package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/multikonnect/cartwatch/internal/domain/cart"
	"github.com/multikonnect/cartwatch/internal/infrastructure/messaging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/logging"
	"github.com/multikonnect/cartwatch/internal/infrastructure/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo is an in-memory AbandonedCartRepository keyed by token.
type fakeRepo struct {
	records map[string]*cart.AbandonedCart
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]*cart.AbandonedCart)}
}

func (r *fakeRepo) FindByToken(token string) (*cart.AbandonedCart, error) {
	record, ok := r.records[token]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (r *fakeRepo) FindActiveBySessionID(sessionID string) (*cart.AbandonedCart, error) {
	for _, record := range r.records {
		if record.SessionID == sessionID && record.Status == cart.StatusActive {
			clone := *record
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) Create(record *cart.AbandonedCart) error {
	clone := *record
	r.records[record.Token] = &clone
	return nil
}

func (r *fakeRepo) Update(record *cart.AbandonedCart) error {
	clone := *record
	r.records[record.Token] = &clone
	return nil
}

func (r *fakeRepo) FindDueForReminder(idleSince time.Time) ([]*cart.AbandonedCart, error) {
	var due []*cart.AbandonedCart
	for _, record := range r.records {
		if record.Status == cart.StatusActive && record.ReminderSentAt == nil &&
			record.Email != nil && record.UpdatedAt.Before(idleSince) {
			clone := *record
			due = append(due, &clone)
		}
	}
	return due, nil
}

func (r *fakeRepo) ExpireOlderThan(cutoff time.Time) (int64, error) {
	var count int64
	for _, record := range r.records {
		if record.Status == cart.StatusActive && record.UpdatedAt.Before(cutoff) {
			record.Status = cart.StatusExpired
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) GetMetrics() (*cart.Metrics, error) {
	m := &cart.Metrics{}
	for _, record := range r.records {
		switch record.Status {
		case cart.StatusActive:
			m.Active++
		case cart.StatusConverted:
			m.Converted++
		case cart.StatusExpired:
			m.Expired++
		}
	}
	return m, nil
}

func newTestLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: true,
		JSONFormat:      false,
		DefaultLevel:    slog.Level(12), // above error: quiet in tests
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	require.NoError(t, err)
	return logger
}

func testSnapshotRequest(quantity int) *TrackRequest {
	return &TrackRequest{
		CartData: CartPayload{
			Items: []cart.LineItem{
				{ProductID: "p1", Name: "Widget", Price: 10, Quantity: quantity},
			},
		},
	}
}

func newTestServices(t *testing.T) (*TrackingService, *RecoveryService, *ConversionService, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	logger := newTestLogger(t)
	broadcaster := messaging.NewSSEBroadcaster(logger)
	hub := messaging.NewActivityHub(logger)

	tracking := NewTrackingService(repo, broadcaster, hub, logger)
	recovery := NewRecoveryService(repo, broadcaster, hub, logger)
	conversion := NewConversionService(repo, broadcaster, hub, logger)
	return tracking, recovery, conversion, repo
}

func TestProcessTrackRequestCreatesRecord(t *testing.T) {
	tracking, _, _, repo := newTestServices(t)

	result := tracking.ProcessTrackRequest(testSnapshotRequest(2), "sess_1_abc", security.Identity{})
	require.True(t, result.Success)
	assert.True(t, result.Created)
	assert.NotEmpty(t, result.RecoveryToken)

	stored := repo.records[result.RecoveryToken]
	require.NotNil(t, stored)
	assert.Equal(t, cart.StatusActive, stored.Status)
	assert.Equal(t, 1, stored.Snapshot.ItemCount)
	assert.Equal(t, 20.0, stored.Snapshot.Total)
}

func TestProcessTrackRequestKeepsTokenStable(t *testing.T) {
	tracking, _, _, _ := newTestServices(t)

	first := tracking.ProcessTrackRequest(testSnapshotRequest(1), "sess_1_abc", security.Identity{})
	require.True(t, first.Success)

	second := tracking.ProcessTrackRequest(testSnapshotRequest(5), "sess_1_abc", security.Identity{})
	require.True(t, second.Success)

	assert.False(t, second.Created)
	assert.Equal(t, first.RecoveryToken, second.RecoveryToken)
}

func TestProcessTrackRequestRejectsEmptyCart(t *testing.T) {
	tracking, _, _, repo := newTestServices(t)

	result := tracking.ProcessTrackRequest(&TrackRequest{}, "sess_1_abc", security.Identity{})
	assert.False(t, result.Success)
	assert.Equal(t, "cart is empty", result.Error)
	assert.Empty(t, repo.records)
}

func TestProcessTrackRequestBearerIdentityWins(t *testing.T) {
	tracking, _, _, repo := newTestServices(t)

	req := testSnapshotRequest(1)
	bodyEmail := "body@example.com"
	req.Email = &bodyEmail

	result := tracking.ProcessTrackRequest(req, "sess_1_abc", security.Identity{
		UserID: "u42",
		Email:  "claims@example.com",
	})
	require.True(t, result.Success)

	stored := repo.records[result.RecoveryToken]
	require.NotNil(t, stored.Email)
	assert.Equal(t, "claims@example.com", *stored.Email)
	require.NotNil(t, stored.UserID)
	assert.Equal(t, "u42", *stored.UserID)
}

func TestProcessTrackRequestKeepsEarlierIdentity(t *testing.T) {
	tracking, _, _, repo := newTestServices(t)

	req := testSnapshotRequest(1)
	email := "shopper@example.com"
	req.Email = &email
	first := tracking.ProcessTrackRequest(req, "sess_1_abc", security.Identity{})
	require.True(t, first.Success)

	// A later anonymous update must not erase the captured email.
	second := tracking.ProcessTrackRequest(testSnapshotRequest(3), "sess_1_abc", security.Identity{})
	require.True(t, second.Success)

	stored := repo.records[second.RecoveryToken]
	require.NotNil(t, stored.Email)
	assert.Equal(t, "shopper@example.com", *stored.Email)
}

func TestResolveReturnsSnapshot(t *testing.T) {
	tracking, recovery, _, repo := newTestServices(t)

	tracked := tracking.ProcessTrackRequest(testSnapshotRequest(3), "sess_1_abc", security.Identity{})
	require.True(t, tracked.Success)

	code := "COMEBACK10"
	record := repo.records[tracked.RecoveryToken]
	record.DiscountCode = &code

	result := recovery.Resolve(tracked.RecoveryToken)
	require.True(t, result.Success)
	assert.Equal(t, "COMEBACK10", result.DiscountCode)
	assert.Equal(t, 1, result.Snapshot.ItemCount)
	assert.Equal(t, 30.0, result.Snapshot.Total)

	// Resolution stamps the recovery time.
	assert.NotNil(t, repo.records[tracked.RecoveryToken].RecoveredAt)
}

func TestResolveUnknownTokenNotFound(t *testing.T) {
	_, recovery, _, _ := newTestServices(t)

	result := recovery.Resolve("missing")
	assert.False(t, result.Success)
	assert.True(t, result.NotFound)
}

func TestResolveConvertedTokenNotFound(t *testing.T) {
	tracking, recovery, conversion, _ := newTestServices(t)

	tracked := tracking.ProcessTrackRequest(testSnapshotRequest(1), "sess_1_abc", security.Identity{})
	require.True(t, tracked.Success)
	require.True(t, conversion.MarkConverted(tracked.RecoveryToken, nil).Success)

	result := recovery.Resolve(tracked.RecoveryToken)
	assert.True(t, result.NotFound)
}

func TestResolveExpiredTokenNotFound(t *testing.T) {
	tracking, recovery, _, repo := newTestServices(t)

	tracked := tracking.ProcessTrackRequest(testSnapshotRequest(1), "sess_1_abc", security.Identity{})
	require.True(t, tracked.Success)

	record := repo.records[tracked.RecoveryToken]
	record.UpdatedAt = time.Now().UTC().Add(-31 * 24 * time.Hour)

	result := recovery.Resolve(tracked.RecoveryToken)
	assert.True(t, result.NotFound)
}

func TestMarkConvertedStampsRecord(t *testing.T) {
	tracking, _, conversion, repo := newTestServices(t)

	tracked := tracking.ProcessTrackRequest(testSnapshotRequest(1), "sess_1_abc", security.Identity{})
	require.True(t, tracked.Success)

	orderID := "order-42"
	result := conversion.MarkConverted(tracked.RecoveryToken, &orderID)
	require.True(t, result.Success)

	stored := repo.records[tracked.RecoveryToken]
	assert.Equal(t, cart.StatusConverted, stored.Status)
	assert.NotNil(t, stored.ConvertedAt)
	require.NotNil(t, stored.OrderID)
	assert.Equal(t, "order-42", *stored.OrderID)
}

func TestMarkConvertedIdempotent(t *testing.T) {
	tracking, _, conversion, repo := newTestServices(t)

	tracked := tracking.ProcessTrackRequest(testSnapshotRequest(1), "sess_1_abc", security.Identity{})
	require.True(t, tracked.Success)

	orderID := "order-42"
	require.True(t, conversion.MarkConverted(tracked.RecoveryToken, &orderID).Success)
	firstConvertedAt := repo.records[tracked.RecoveryToken].ConvertedAt

	// Retrying the same conversion succeeds without touching the record.
	other := "order-99"
	require.True(t, conversion.MarkConverted(tracked.RecoveryToken, &other).Success)
	assert.Equal(t, firstConvertedAt, repo.records[tracked.RecoveryToken].ConvertedAt)
	assert.Equal(t, "order-42", *repo.records[tracked.RecoveryToken].OrderID)
}

func TestMarkConvertedUnknownToken(t *testing.T) {
	_, _, conversion, _ := newTestServices(t)

	result := conversion.MarkConverted("missing", nil)
	assert.False(t, result.Success)
	assert.True(t, result.NotFound)
}

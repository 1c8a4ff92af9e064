package cart

import (
	"testing"
	"time"

	domaincart "github.com/multikonnect/cartwatch/internal/domain/cart"
	"github.com/multikonnect/cartwatch/internal/infrastructure/persistence/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *SQLAbandonedCartRepository {
	t.Helper()

	db, err := database.NewConnection("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.EnsureSchema())
	return NewSQLAbandonedCartRepository(db)
}

func strPtr(v string) *string { return &v }

func newActiveRecord(token, sessionID string) *domaincart.AbandonedCart {
	now := time.Now().UTC().Truncate(time.Second)
	return &domaincart.AbandonedCart{
		Token:     token,
		SessionID: sessionID,
		Snapshot: domaincart.NewSnapshot([]domaincart.LineItem{
			{ProductID: "p1", Name: "Widget", Price: 19.99, Quantity: 2, Color: "black"},
		}, 0),
		Status:    domaincart.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndFindByToken(t *testing.T) {
	repo := newTestRepository(t)

	record := newActiveRecord("tok1", "sess_1_abc")
	record.Email = strPtr("shopper@example.com")
	require.NoError(t, repo.Create(record))

	found, err := repo.FindByToken("tok1")
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, "tok1", found.Token)
	assert.Equal(t, "sess_1_abc", found.SessionID)
	assert.Equal(t, domaincart.StatusActive, found.Status)
	require.NotNil(t, found.Email)
	assert.Equal(t, "shopper@example.com", *found.Email)
	require.Len(t, found.Snapshot.Items, 1)
	assert.Equal(t, "black", found.Snapshot.Items[0].Color)
	assert.True(t, record.Snapshot.Equal(found.Snapshot))
	assert.Nil(t, found.ReminderSentAt)
}

func TestFindByTokenMissing(t *testing.T) {
	repo := newTestRepository(t)

	found, err := repo.FindByToken("nope")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindActiveBySessionID(t *testing.T) {
	repo := newTestRepository(t)

	record := newActiveRecord("tok1", "sess_1_abc")
	require.NoError(t, repo.Create(record))

	converted := newActiveRecord("tok2", "sess_2_def")
	converted.Status = domaincart.StatusConverted
	require.NoError(t, repo.Create(converted))

	found, err := repo.FindActiveBySessionID("sess_1_abc")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "tok1", found.Token)

	// A converted record is not an active cart.
	found, err = repo.FindActiveBySessionID("sess_2_def")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestUpdateReplacesSnapshot(t *testing.T) {
	repo := newTestRepository(t)

	record := newActiveRecord("tok1", "sess_1_abc")
	require.NoError(t, repo.Create(record))

	record.Snapshot = domaincart.NewSnapshot([]domaincart.LineItem{
		{ProductID: "p1", Name: "Widget", Price: 19.99, Quantity: 5},
		{ProductID: "p2", Name: "Gadget", Price: 4.99, Quantity: 1},
	}, 0)
	record.DiscountCode = strPtr("COMEBACK10")
	record.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Update(record))

	found, err := repo.FindByToken("tok1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Len(t, found.Snapshot.Items, 2)
	require.NotNil(t, found.DiscountCode)
	assert.Equal(t, "COMEBACK10", *found.DiscountCode)
}

func TestFindDueForReminder(t *testing.T) {
	repo := newTestRepository(t)
	old := time.Now().UTC().Add(-6 * time.Hour).Truncate(time.Second)

	// Idle cart with an email: due.
	due := newActiveRecord("tok-due", "sess_due")
	due.Email = strPtr("due@example.com")
	due.CreatedAt = old
	due.UpdatedAt = old
	require.NoError(t, repo.Create(due))

	// Idle but anonymous: nobody to email.
	anon := newActiveRecord("tok-anon", "sess_anon")
	anon.CreatedAt = old
	anon.UpdatedAt = old
	require.NoError(t, repo.Create(anon))

	// Recent activity: not due yet.
	fresh := newActiveRecord("tok-fresh", "sess_fresh")
	fresh.Email = strPtr("fresh@example.com")
	require.NoError(t, repo.Create(fresh))

	// Already reminded.
	reminded := newActiveRecord("tok-reminded", "sess_reminded")
	reminded.Email = strPtr("reminded@example.com")
	reminded.CreatedAt = old
	reminded.UpdatedAt = old
	sentAt := old.Add(time.Hour)
	reminded.ReminderSentAt = &sentAt
	require.NoError(t, repo.Create(reminded))

	found, err := repo.FindDueForReminder(time.Now().UTC().Add(-4 * time.Hour))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "tok-due", found[0].Token)
}

func TestExpireOlderThan(t *testing.T) {
	repo := newTestRepository(t)
	old := time.Now().UTC().Add(-40 * 24 * time.Hour).Truncate(time.Second)

	stale := newActiveRecord("tok-stale", "sess_stale")
	stale.CreatedAt = old
	stale.UpdatedAt = old
	require.NoError(t, repo.Create(stale))

	fresh := newActiveRecord("tok-fresh", "sess_fresh")
	require.NoError(t, repo.Create(fresh))

	count, err := repo.ExpireOlderThan(time.Now().UTC().Add(-30 * 24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	found, err := repo.FindByToken("tok-stale")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, domaincart.StatusExpired, found.Status)

	found, err = repo.FindByToken("tok-fresh")
	require.NoError(t, err)
	assert.Equal(t, domaincart.StatusActive, found.Status)
}

func TestGetMetrics(t *testing.T) {
	repo := newTestRepository(t)

	active := newActiveRecord("tok-a", "sess_a")
	require.NoError(t, repo.Create(active))

	converted := newActiveRecord("tok-c", "sess_c")
	converted.Status = domaincart.StatusConverted
	require.NoError(t, repo.Create(converted))

	expired := newActiveRecord("tok-e", "sess_e")
	expired.Status = domaincart.StatusExpired
	sentAt := time.Now().UTC()
	expired.ReminderSentAt = &sentAt
	require.NoError(t, repo.Create(expired))

	metrics, err := repo.GetMetrics()
	require.NoError(t, err)

	assert.Equal(t, 1, metrics.Active)
	assert.Equal(t, 1, metrics.Converted)
	assert.Equal(t, 1, metrics.Expired)
	assert.Equal(t, 1, metrics.RemindersSent)
	assert.InDelta(t, 1.0/3.0, metrics.RecoveryRate, 0.001)
}

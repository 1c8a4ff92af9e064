package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSnapshotDerivesTotal(t *testing.T) {
	snap := NewSnapshot([]LineItem{
		{ProductID: "p1", Name: "Widget", Price: 10, Quantity: 2},
		{ProductID: "p2", Name: "Gadget", Price: 5, Quantity: 1},
	}, 0)

	assert.Equal(t, 25.0, snap.Total)
	assert.Equal(t, 2, snap.ItemCount)
}

func TestNewSnapshotKeepsExplicitTotal(t *testing.T) {
	snap := NewSnapshot([]LineItem{
		{ProductID: "p1", Name: "Widget", Price: 10, Quantity: 2},
	}, 18.50)

	assert.Equal(t, 18.50, snap.Total)
}

func TestNewSnapshotCopiesItems(t *testing.T) {
	items := []LineItem{{ProductID: "p1", Name: "Widget", Price: 10, Quantity: 1}}
	snap := NewSnapshot(items, 0)

	items[0].Quantity = 99
	assert.Equal(t, 1, snap.Items[0].Quantity)
}

func TestSnapshotEqual(t *testing.T) {
	a := NewSnapshot([]LineItem{
		{ProductID: "p1", Name: "Phone", Price: 500, Quantity: 1, Color: "black", Storage: "256GB"},
	}, 0)
	b := NewSnapshot([]LineItem{
		{ProductID: "p1", Name: "Phone", Price: 500, Quantity: 1, Color: "black", Storage: "256GB"},
	}, 0)
	assert.True(t, a.Equal(b))

	// A variant difference is a real change.
	c := NewSnapshot([]LineItem{
		{ProductID: "p1", Name: "Phone", Price: 500, Quantity: 1, Color: "silver", Storage: "256GB"},
	}, 0)
	assert.False(t, a.Equal(c))

	assert.True(t, Snapshot{}.Equal(Snapshot{}))
	assert.False(t, a.Equal(Snapshot{}))
}

func TestIsExpiredAt(t *testing.T) {
	now := time.Now().UTC()
	ttl := 30 * 24 * time.Hour

	fresh := &AbandonedCart{Status: StatusActive, UpdatedAt: now.Add(-time.Hour)}
	assert.False(t, fresh.IsExpiredAt(now, ttl))

	stale := &AbandonedCart{Status: StatusActive, UpdatedAt: now.Add(-ttl - time.Minute)}
	assert.True(t, stale.IsExpiredAt(now, ttl))

	// Explicitly expired records stay expired regardless of timestamps.
	marked := &AbandonedCart{Status: StatusExpired, UpdatedAt: now}
	assert.True(t, marked.IsExpiredAt(now, ttl))
}

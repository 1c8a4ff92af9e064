package cartclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/multikonnect/cartwatch/pkg/cartstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecoveryServer(t *testing.T, known string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/abandoned-carts/recover/{token}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("token") != known {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"Cart not found or expired"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": 200,
			"data": {
				"cart_data": {
					"items": [
						{"productId": "p1", "name": "Widget", "price": 10, "quantity": 2},
						{"productId": "p2", "name": "Gadget", "price": 5, "quantity": 1}
					],
					"total": 25,
					"itemCount": 2
				},
				"discount_code": "COMEBACK10"
			}
		}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newRecoveryClient(srv *httptest.Server) *SyncClient {
	return NewSyncClient(srv.URL, NewSessionProvider(NewMemoryStore()))
}

func TestResolveReturnsSnapshotAndDiscount(t *testing.T) {
	srv := newRecoveryServer(t, "tok123")
	client := newRecoveryClient(srv)
	durable := NewMemoryStore()

	recovered, err := client.Resolve(context.Background(), "tok123", durable)
	require.NoError(t, err)

	assert.Equal(t, "COMEBACK10", recovered.DiscountCode)
	assert.Equal(t, 2, recovered.Snapshot.ItemCount)
	assert.Len(t, recovered.Snapshot.Items, 2)

	// The token is persisted so conversion can reference the same cart.
	token, ok := durable.Get(RecoveryTokenKey)
	require.True(t, ok)
	assert.Equal(t, "tok123", token)
}

func TestResolveUnknownToken(t *testing.T) {
	srv := newRecoveryServer(t, "tok123")
	client := newRecoveryClient(srv)

	_, err := client.Resolve(context.Background(), "missing", NewMemoryStore())
	assert.ErrorIs(t, err, ErrCartNotFound)

	_, err = client.Resolve(context.Background(), "", NewMemoryStore())
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestRestoreReplacesExistingCart(t *testing.T) {
	srv := newRecoveryServer(t, "tok123")
	client := newRecoveryClient(srv)

	store := cartstate.NewStore()
	// Whatever the shopper added before clicking the link is discarded.
	store.AddItem(cartstate.Item{ProductID: "stale", Name: "Old thing", Price: 99, Quantity: 4})

	recovered, err := client.Restore(context.Background(), "tok123", store, NewMemoryStore())
	require.NoError(t, err)

	snap := store.Snapshot()
	assert.Equal(t, 2, snap.ItemCount)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, "p1", snap.Items[0].ProductID)
	assert.Equal(t, "p2", snap.Items[1].ProductID)
	assert.Equal(t, recovered.Snapshot.Total, snap.Total)
}

func TestRestoreUnknownTokenLeavesStoreUntouched(t *testing.T) {
	srv := newRecoveryServer(t, "tok123")
	client := newRecoveryClient(srv)

	store := cartstate.NewStore()
	store.AddItem(cartstate.Item{ProductID: "keep", Name: "Keep me", Price: 7, Quantity: 1})

	_, err := client.Restore(context.Background(), "missing", store, NewMemoryStore())
	require.ErrorIs(t, err, ErrCartNotFound)

	snap := store.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "keep", snap.Items[0].ProductID)
}

func TestRestoreRepeatedDoesNotDuplicate(t *testing.T) {
	srv := newRecoveryServer(t, "tok123")
	client := newRecoveryClient(srv)
	store := cartstate.NewStore()

	_, err := client.Restore(context.Background(), "tok123", store, NewMemoryStore())
	require.NoError(t, err)
	_, err = client.Restore(context.Background(), "tok123", store, NewMemoryStore())
	require.NoError(t, err)

	snap := store.Snapshot()
	assert.Equal(t, 2, snap.ItemCount)
	assert.Len(t, snap.Items, 2)
}

func TestMarkConvertedClearsToken(t *testing.T) {
	var convertedPath string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/abandoned-carts/{token}/converted", func(w http.ResponseWriter, r *http.Request) {
		convertedPath = r.URL.Path
		w.Write([]byte(`{"status":"converted"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewSyncClient(srv.URL, NewSessionProvider(NewMemoryStore()))
	durable := NewMemoryStore()
	require.NoError(t, durable.Set(RecoveryTokenKey, "tok123"))
	tracker := NewTracker(client, durable)
	defer tracker.Dispose()

	require.NoError(t, client.MarkConverted(context.Background(), "order-42", tracker))

	assert.Equal(t, "/api/v1/abandoned-carts/tok123/converted", convertedPath)
	_, ok := durable.Get(RecoveryTokenKey)
	assert.False(t, ok)
}

func TestMarkConvertedReArmsTrackerGuard(t *testing.T) {
	var trackCount atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/abandoned-carts", func(w http.ResponseWriter, r *http.Request) {
		trackCount.Add(1)
		w.Write([]byte(`{"data":{"recovery_token":"tok123"}}`))
	})
	mux.HandleFunc("POST /api/v1/abandoned-carts/{token}/converted", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"converted"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewSyncClient(srv.URL, NewSessionProvider(NewMemoryStore()))
	tracker := NewTracker(client, NewMemoryStore(), WithDebounceWindow(10*time.Millisecond))
	defer tracker.Dispose()

	snapshot := cartstate.Snapshot{
		Items:     []cartstate.Item{{ProductID: "p1", Name: "Widget", Price: 10, Quantity: 1}},
		Total:     10,
		ItemCount: 1,
	}
	tracker.CartChanged(snapshot)
	waitFor(t, 2*time.Second, func() bool { return trackCount.Load() == 1 })

	require.NoError(t, client.MarkConverted(context.Background(), "order-1", tracker))

	// The same cart contents after conversion are a fresh abandonment, not a
	// suppressed duplicate.
	tracker.CartChanged(snapshot)
	waitFor(t, 2*time.Second, func() bool { return trackCount.Load() == 2 })
}

func TestMarkConvertedWithoutTokenIsNoOp(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewSyncClient(srv.URL, NewSessionProvider(NewMemoryStore()))
	tracker := NewTracker(client, NewMemoryStore())
	defer tracker.Dispose()

	require.NoError(t, client.MarkConverted(context.Background(), "", tracker))
	assert.False(t, called)
}

package cartclient

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/multikonnect/cartwatch/pkg/cartstate"
)

// DefaultDebounceWindow is how long the tracker waits after the last cart
// change before syncing a snapshot.
const DefaultDebounceWindow = 2000 * time.Millisecond

// Tracker watches cart changes, debounces them, and syncs the settled
// snapshot to the tracking service. Each Tracker owns its timer and in-flight
// request state, so independent carts can be tracked side by side.
type Tracker struct {
	client  *SyncClient
	durable Store
	contact Contact
	logger  *slog.Logger
	window  time.Duration

	mu         sync.Mutex
	timer      *time.Timer
	pending    cartstate.Snapshot
	hasPending bool
	lastSynced *cartstate.Snapshot
	cancelSync context.CancelFunc
	syncGen    uint64
	watchStop  func()
	disposed   bool
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithDebounceWindow overrides the debounce window.
func WithDebounceWindow(window time.Duration) TrackerOption {
	return func(t *Tracker) { t.window = window }
}

// WithContact attaches shopper contact details to every sync.
func WithContact(contact Contact) TrackerOption {
	return func(t *Tracker) { t.contact = contact }
}

// WithLogger injects a telemetry logger. Without one the tracker is silent.
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) { t.logger = logger }
}

// NewTracker creates a tracker. durable is where the recovery token is kept
// between sessions.
func NewTracker(client *SyncClient, durable Store, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		client:  client,
		durable: durable,
		window:  DefaultDebounceWindow,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.New(discardHandler{})
	}
	return t
}

// Watch subscribes the tracker to a cart store so every mutation feeds
// CartChanged. Dispose ends the subscription.
func (t *Tracker) Watch(store *cartstate.Store) {
	ch := store.Subscribe()
	done := make(chan struct{})

	t.mu.Lock()
	t.watchStop = func() {
		store.Unsubscribe(ch)
		close(done)
	}
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-done:
				return
			case snapshot, ok := <-ch:
				if !ok {
					return
				}
				t.CartChanged(snapshot)
			}
		}
	}()
}

// CartChanged records a cart mutation and restarts the debounce window.
// An empty cart is never synced: the pending work is dropped instead, and
// any previously stored state is cleared.
func (t *Tracker) CartChanged(snapshot cartstate.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disposed {
		return
	}

	// An empty cart has nothing to recover: drop pending work and clear all
	// tracking state, including the stored recovery token.
	if snapshot.IsEmpty() {
		t.clearLocked()
		t.logger.Debug("cart emptied, tracking state cleared")
		return
	}

	// Every change restarts the window, including one matching the last
	// synced state: it must still cancel a pending emission queued for an
	// older snapshot. The duplicate check runs in flush, against the state
	// actually about to be sent.
	t.pending = snapshot
	t.hasPending = true

	t.stopTimerLocked()
	t.timer = time.AfterFunc(t.window, t.flush)
	t.logger.Debug("cart change queued", "itemCount", snapshot.ItemCount, "window", t.window)
}

// flush runs when the debounce window elapses with no further changes.
func (t *Tracker) flush() {
	t.mu.Lock()
	if t.disposed || !t.hasPending {
		t.mu.Unlock()
		return
	}
	snapshot := t.pending
	t.hasPending = false

	// A still-running sync is stale the moment a newer snapshot settles.
	if t.cancelSync != nil {
		t.cancelSync()
		t.cancelSync = nil
	}
	t.syncGen++

	if t.lastSynced != nil && t.lastSynced.Equal(snapshot) {
		t.mu.Unlock()
		t.logger.Debug("cart unchanged since last sync, skipping")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancelSync = cancel
	gen := t.syncGen
	contact := t.contact
	t.mu.Unlock()

	token, err := t.client.TrackCart(ctx, snapshot, contact)
	cancel()

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen == t.syncGen {
		t.cancelSync = nil
	}

	if t.disposed || gen != t.syncGen {
		// Disposed, or a newer sync superseded this one while in flight.
		return
	}
	if err != nil {
		if ctx.Err() != nil {
			t.logger.Debug("cart sync aborted by newer change")
			return
		}
		t.logger.Warn("cart sync failed", "error", err)
		return
	}

	t.lastSynced = &snapshot
	if err := t.durable.Set(RecoveryTokenKey, token); err != nil {
		t.logger.Warn("failed to persist recovery token", "error", err)
	}
	t.logger.Info("cart synced", "itemCount", snapshot.ItemCount, "recoveryToken", token)
}

// ResetGuard forgets the last synced snapshot so the next change always
// syncs, even if it matches what the service already has.
func (t *Tracker) ResetGuard() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSynced = nil
}

// RecoveryToken returns the stored recovery token, if any.
func (t *Tracker) RecoveryToken() (string, bool) {
	return t.durable.Get(RecoveryTokenKey)
}

// ClearTracking drops all tracking state: pending work, the last-synced
// guard and the stored recovery token.
func (t *Tracker) ClearTracking() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clearLocked()
	t.logger.Debug("tracking state cleared")
}

func (t *Tracker) clearLocked() {
	t.stopTimerLocked()
	t.hasPending = false
	t.lastSynced = nil
	if err := t.durable.Delete(RecoveryTokenKey); err != nil {
		t.logger.Warn("failed to clear recovery token", "error", err)
	}
}

// Dispose stops the tracker: the debounce timer, any in-flight sync and the
// store subscription. The tracker ignores further changes.
func (t *Tracker) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disposed {
		return
	}
	t.disposed = true

	t.stopTimerLocked()
	t.hasPending = false
	if t.cancelSync != nil {
		t.cancelSync()
		t.cancelSync = nil
	}
	if t.watchStop != nil {
		t.watchStop()
		t.watchStop = nil
	}
	t.logger.Debug("tracker disposed")
}

func (t *Tracker) stopTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// discardHandler drops every record; used when no logger is injected.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

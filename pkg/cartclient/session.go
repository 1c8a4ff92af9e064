package cartclient

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"
)

const sessionRandomLength = 9

// SessionProvider hands out a session identifier that stays stable for the
// lifetime of its backing store. The id is generated lazily on first use.
type SessionProvider struct {
	mu    sync.Mutex
	store Store
}

// NewSessionProvider creates a provider over a session-scoped store.
func NewSessionProvider(store Store) *SessionProvider {
	return &SessionProvider{store: store}
}

// SessionID returns the current session id, generating and persisting one if
// none exists yet.
func (p *SessionProvider) SessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.store.Get(SessionIDKey); ok && id != "" {
		return id
	}

	id := newSessionID()
	// Persisting may fail on an exotic store; the id is still valid for this
	// process.
	_ = p.store.Set(SessionIDKey, id)
	return id
}

// newSessionID builds an id of the form sess_<epoch-ms>_<random-base36>.
func newSessionID() string {
	randomPart := make([]byte, 0, sessionRandomLength)
	for len(randomPart) < sessionRandomLength {
		randomPart = strconv.AppendInt(randomPart, int64(rand.Intn(36)), 36)
	}
	return fmt.Sprintf("sess_%d_%s", time.Now().UnixMilli(), randomPart)
}

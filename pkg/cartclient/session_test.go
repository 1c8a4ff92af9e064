package cartclient

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionIDPattern = regexp.MustCompile(`^sess_\d{13}_[0-9a-z]{9}$`)

func TestSessionIDFormat(t *testing.T) {
	provider := NewSessionProvider(NewMemoryStore())
	id := provider.SessionID()
	assert.Regexp(t, sessionIDPattern, id)
}

func TestSessionIDStableWithinStore(t *testing.T) {
	store := NewMemoryStore()
	provider := NewSessionProvider(store)

	first := provider.SessionID()
	second := provider.SessionID()
	assert.Equal(t, first, second)

	// A new provider over the same store sees the same id.
	other := NewSessionProvider(store)
	assert.Equal(t, first, other.SessionID())
}

func TestSessionIDFreshPerStore(t *testing.T) {
	a := NewSessionProvider(NewMemoryStore()).SessionID()
	b := NewSessionProvider(NewMemoryStore()).SessionID()
	require.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

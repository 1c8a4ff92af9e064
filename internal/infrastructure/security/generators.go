// Package security provides token generation and JWT utilities
package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateULID generates a new ULID string. Recovery tokens are ULIDs:
// opaque, URL-safe, and sortable by creation time.
func GenerateULID() string {
	return ulid.Make().String()
}

// GenerateSecureToken generates a cryptographically secure random token
// suitable for URLs.
func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

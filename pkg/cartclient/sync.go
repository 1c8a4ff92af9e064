package cartclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/multikonnect/cartwatch/pkg/cartstate"
)

// SessionHeader is the header carrying the session identifier on every call
// to the tracking service.
const SessionHeader = "X-MultiKonnect-Session-ID"

const defaultSyncTimeout = 10 * time.Second

// TokenSupplier returns the shopper's bearer token, or "" when anonymous.
// Supplying identity is optional; tracking works either way.
type TokenSupplier func() string

// SyncClient talks to the abandoned cart REST API.
type SyncClient struct {
	baseURL     string
	httpClient  *http.Client
	sessions    *SessionProvider
	bearerToken TokenSupplier
}

// SyncOption configures a SyncClient.
type SyncOption func(*SyncClient)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) SyncOption {
	return func(c *SyncClient) { c.httpClient = client }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) SyncOption {
	return func(c *SyncClient) { c.httpClient.Timeout = timeout }
}

// WithBearerToken registers a supplier for the shopper's auth token.
func WithBearerToken(supplier TokenSupplier) SyncOption {
	return func(c *SyncClient) { c.bearerToken = supplier }
}

// NewSyncClient creates a client for the tracking service at baseURL.
func NewSyncClient(baseURL string, sessions *SessionProvider, opts ...SyncOption) *SyncClient {
	c := &SyncClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultSyncTimeout},
		sessions:   sessions,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type trackPayload struct {
	CartData cartstate.Snapshot `json:"cart_data"`
	Email    string             `json:"email,omitempty"`
	Phone    string             `json:"phone,omitempty"`
}

type trackResponse struct {
	Data struct {
		RecoveryToken string `json:"recovery_token"`
	} `json:"data"`
}

// Contact optionally identifies the shopper for recovery emails.
type Contact struct {
	Email string
	Phone string
}

// TrackCart posts a cart snapshot and returns its recovery token.
func (c *SyncClient) TrackCart(ctx context.Context, snapshot cartstate.Snapshot, contact Contact) (string, error) {
	payload := trackPayload{
		CartData: snapshot,
		Email:    contact.Email,
		Phone:    contact.Phone,
	}

	var resp trackResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/abandoned-carts", payload, &resp); err != nil {
		return "", err
	}
	if resp.Data.RecoveryToken == "" {
		return "", fmt.Errorf("tracking response missing recovery token")
	}
	return resp.Data.RecoveryToken, nil
}

func (c *SyncClient) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SessionHeader, c.sessions.SessionID())
	if c.bearerToken != nil {
		if token := c.bearerToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrCartNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

package cartclient

import (
	"context"
	"net/http"
)

type convertedPayload struct {
	OrderID string `json:"order_id,omitempty"`
}

// MarkConverted reports a completed checkout for the stored recovery token.
// The token is cleared afterwards and the tracker's change guard is reset so
// a fresh cart starts a new tracking cycle. A missing token is a no-op.
func (c *SyncClient) MarkConverted(ctx context.Context, orderID string, tracker *Tracker) error {
	token, ok := tracker.RecoveryToken()
	if !ok || token == "" {
		return nil
	}

	var body interface{}
	if orderID != "" {
		body = convertedPayload{OrderID: orderID}
	}

	err := c.doJSON(ctx, http.MethodPost, "/api/v1/abandoned-carts/"+token+"/converted", body, nil)
	if err != nil && err != ErrCartNotFound {
		return err
	}

	// Whether the service still knew the cart or not, local tracking state
	// for it is finished.
	tracker.ClearTracking()
	tracker.ResetGuard()
	return nil
}

package cartclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/multikonnect/cartwatch/pkg/cartstate"
)

// ErrCartNotFound is returned when a recovery token does not resolve to a
// live cart: unknown, already converted, or expired.
var ErrCartNotFound = errors.New("Cart not found or expired")

// RecoveredCart is a resolved recovery token: the stored snapshot plus the
// discount code assigned by the reminder pipeline, if any.
type RecoveredCart struct {
	Snapshot     cartstate.Snapshot
	DiscountCode string
}

type recoverResponse struct {
	Status int `json:"status"`
	Data   struct {
		CartData     cartstate.Snapshot `json:"cart_data"`
		DiscountCode string             `json:"discount_code"`
	} `json:"data"`
}

// Resolve fetches the cart behind a recovery token and persists the token so
// later tracking and conversion calls reference the same cart.
func (c *SyncClient) Resolve(ctx context.Context, token string, durable Store) (*RecoveredCart, error) {
	if token == "" {
		return nil, ErrCartNotFound
	}

	var resp recoverResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/abandoned-carts/recover/"+token, nil, &resp); err != nil {
		return nil, err
	}

	if durable != nil {
		_ = durable.Set(RecoveryTokenKey, token)
	}

	return &RecoveredCart{
		Snapshot:     resp.Data.CartData,
		DiscountCode: resp.Data.DiscountCode,
	}, nil
}

// Restore resolves a token and loads the recovered cart into the store. The
// store contents are replaced, not merged: whatever the shopper had before
// clicking the recovery link is gone, and each recovered line is replayed
// into the fresh cart.
func (c *SyncClient) Restore(ctx context.Context, token string, store *cartstate.Store, durable Store) (*RecoveredCart, error) {
	recovered, err := c.Resolve(ctx, token, durable)
	if err != nil {
		return nil, err
	}

	store.Replace(nil)
	for _, item := range recovered.Snapshot.Items {
		store.AddItem(item)
	}

	return recovered, nil
}

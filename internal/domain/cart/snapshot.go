// Package cart defines the cart snapshot value types and the abandoned cart
// entity with its repository interface. Snapshots are immutable values: every
// observed cart mutation produces a fresh snapshot used for comparison and as
// the tracking payload.
package cart

// LineItem is a single cart line with optional variant attributes.
type LineItem struct {
	ProductID   string  `json:"productId"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Image       string  `json:"image,omitempty"`
	Color       string  `json:"color,omitempty"`
	Size        string  `json:"size,omitempty"`
	Storage     string  `json:"storage,omitempty"`
	RAM         string  `json:"ram,omitempty"`
	BatteryLife string  `json:"batteryLife,omitempty"`
}

// Snapshot is an immutable capture of cart contents at a point in time.
type Snapshot struct {
	Items     []LineItem `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
}

// NewSnapshot builds a snapshot from line items. When total is zero it is
// derived as the sum of price times quantity. The items slice is copied so the
// snapshot cannot be mutated through the caller's slice.
func NewSnapshot(items []LineItem, total float64) Snapshot {
	copied := make([]LineItem, len(items))
	copy(copied, items)

	if total == 0 {
		for _, item := range copied {
			total += item.Price * float64(item.Quantity)
		}
	}

	return Snapshot{
		Items:     copied,
		Total:     total,
		ItemCount: len(copied),
	}
}

// IsEmpty reports whether the snapshot holds no line items.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Equal reports deep value equality between two snapshots. It is the
// idempotence guard for tracking: value-equal snapshots must not trigger a
// second network call.
func (s Snapshot) Equal(other Snapshot) bool {
	if s.Total != other.Total || s.ItemCount != other.ItemCount || len(s.Items) != len(other.Items) {
		return false
	}
	for i := range s.Items {
		if s.Items[i] != other.Items[i] {
			return false
		}
	}
	return true
}

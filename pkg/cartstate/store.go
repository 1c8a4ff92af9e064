// Package cartstate provides an in-process reactive cart store. Mutations
// produce immutable snapshots that are fanned out to subscribers, which lets
// a tracker observe every cart change without polling.
package cartstate

import (
	"sync"
)

// Item is a single cart line.
type Item struct {
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

// Snapshot is an immutable view of the cart at one point in time. ItemCount
// is the number of cart lines, not the summed quantity.
type Snapshot struct {
	Items     []Item  `json:"items"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"itemCount"`
}

// IsEmpty reports whether the snapshot holds no items.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Equal reports deep value equality between two snapshots.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.Items) != len(other.Items) || s.Total != other.Total || s.ItemCount != other.ItemCount {
		return false
	}
	for i := range s.Items {
		if s.Items[i] != other.Items[i] {
			return false
		}
	}
	return true
}

// Store holds the cart and notifies subscribers on every mutation.
type Store struct {
	mu          sync.Mutex
	items       []Item
	subscribers []chan Snapshot
}

// NewStore creates an empty cart store.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns the current cart state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	items := make([]Item, len(s.items))
	copy(items, s.items)

	snap := Snapshot{Items: items, ItemCount: len(items)}
	for _, item := range items {
		snap.Total += item.Price * float64(item.Quantity)
	}
	return snap
}

// AddItem adds an item, merging quantity into an identical existing line.
func (s *Store) AddItem(item Item) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	merged := false
	for i := range s.items {
		if sameLine(s.items[i], item) {
			s.items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, item)
	}

	return s.notifyLocked()
}

// UpdateQuantity sets the quantity of a line; zero or negative removes it.
func (s *Store) UpdateQuantity(productID string, quantity int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID != productID {
			continue
		}
		if quantity <= 0 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		} else {
			s.items[i].Quantity = quantity
		}
		break
	}

	return s.notifyLocked()
}

// RemoveItem removes every line for a product.
func (s *Store) RemoveItem(productID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, item := range s.items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.items = kept

	return s.notifyLocked()
}

// Replace swaps the entire cart contents for the given items. Restoring a
// recovered cart is a replace followed by notification, never an append.
func (s *Store) Replace(items []Item) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]Item, len(items))
	copy(s.items, items)

	return s.notifyLocked()
}

// Clear empties the cart.
func (s *Store) Clear() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return s.notifyLocked()
}

// Subscribe returns a channel receiving a snapshot after every mutation.
// Slow subscribers miss intermediate states but always observe the latest
// one eventually.
func (s *Store) Subscribe() <-chan Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 16)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *Store) Unsubscribe(ch <-chan Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

func (s *Store) notifyLocked() Snapshot {
	snap := s.snapshotLocked()
	for _, sub := range s.subscribers {
		select {
		case sub <- snap:
		default:
			// Drain one stale snapshot so the latest always lands.
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- snap:
			default:
			}
		}
	}
	return snap
}

func sameLine(a, b Item) bool {
	return a.ProductID == b.ProductID &&
		a.Color == b.Color &&
		a.Size == b.Size &&
		a.Storage == b.Storage &&
		a.RAM == b.RAM
}

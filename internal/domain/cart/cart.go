// Package cart holds the client-side shopping cart: which products the
// shopper wants and in what quantity. The cart never stores prices; the
// authoritative charge is always recomputed server-side from the catalog.
package cart

import (
	"maps"
	"sync"
)

// Items maps product ID to desired quantity. A present key implies a
// quantity of at least 1; reducing an item to zero removes the key.
// Keys may reference products that no longer exist in the catalog;
// staleness is tolerated here and validated at checkout.
type Items map[string]int

// Store is an in-memory cart for a single shopping session. It is a pure
// state holder: no validation against the catalog, no network. State is
// created empty, mutated by product pages, and discarded with the session.
//
// Typical callers run on a single goroutine, but overlapping asynchronous
// product loads can resolve out of order; they must use Update so each
// write is a function of the previous state rather than of a stale read.
type Store struct {
	mu    sync.Mutex
	items Items
}

// NewStore returns an empty cart.
func NewStore() *Store {
	return &Store{items: make(Items)}
}

// Items returns a copy of the current cart state.
func (s *Store) Items() Items {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.items)
}

// Replace swaps the whole cart state for the given map.
func (s *Store) Replace(items Items) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = normalize(maps.Clone(items))
}

// Update applies fn to a copy of the previous state and stores the result.
// Two Update calls racing from out-of-order fetches both take effect; a
// read-modify-Replace sequence in their place could lose one of them.
func (s *Store) Update(fn func(Items) Items) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = normalize(fn(maps.Clone(s.items)))
}

// Set stores the desired quantity for one product. A quantity of zero or
// less removes the entry instead of keeping a zero-quantity row.
func (s *Store) Set(id string, qty int) {
	s.Update(func(items Items) Items {
		if qty <= 0 {
			delete(items, id)
		} else {
			items[id] = qty
		}
		return items
	})
}

// Count returns the total quantity across all items, for the cart indicator.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, qty := range s.items {
		n += qty
	}
	return n
}

// normalize drops non-positive entries so the "present implies >= 1"
// invariant holds regardless of what an update function returned.
func normalize(items Items) Items {
	if items == nil {
		return make(Items)
	}
	for id, qty := range items {
		if qty <= 0 {
			delete(items, id)
		}
	}
	return items
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"tradewatch/internal/domain"
)

// Compile-time interface check.
var _ OrderStore = (*MemoryOrderStore)(nil)

// MemoryOrderStore is an in-memory OrderStore. Optimizer candidates use one
// each so sweep runs never share a log; tests use it to avoid disk.
type MemoryOrderStore struct {
	mu     sync.Mutex
	orders []domain.Order
	nextID int64
}

// NewMemoryOrderStore creates an empty in-memory order store.
func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{nextID: 1}
}

// Append records the order and returns its assigned id.
func (s *MemoryOrderStore) Append(_ context.Context, order *domain.Order) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	order.ID = s.nextID
	s.nextID++
	s.orders = append(s.orders, *order)
	return order.ID, nil
}

// List returns matching orders newest first.
func (s *MemoryOrderStore) List(_ context.Context, filter OrderFilter) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var out []domain.Order
	for i := len(s.orders) - 1; i >= 0 && len(out) < limit; i-- {
		o := s.orders[i]
		if filter.Exchange != "" && o.Exchange != filter.Exchange {
			continue
		}
		if filter.Symbol != "" && o.Symbol != filter.Symbol {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// ListChronological returns orders with the given status oldest first. The
// backing slice is already in insertion order; a stable sort by CreatedAt
// preserves that order for ties.
func (s *MemoryOrderStore) ListChronological(_ context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ClearAll removes every order.
func (s *MemoryOrderStore) ClearAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.orders))
	s.orders = nil
	return n, nil
}

// Package memstore keeps orders in process memory. Everything is lost on restart.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/gsanchezm/OmniPizza/internal/domain"
)

type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
	// byUser indexes order ids per identity in insertion order.
	byUser map[string][]string
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[string]domain.Order),
		byUser: make(map[string][]string),
	}
}

func (s *OrderStore) Put(ctx context.Context, order domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return domain.ErrDuplicateOrderID
	}
	s.orders[order.ID] = order.Clone()
	s.byUser[order.Username] = append(s.byUser[order.Username], order.ID)
	return nil
}

func (s *OrderStore) Get(ctx context.Context, orderID string) (domain.Order, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, false, nil
	}
	return o.Clone(), true, nil
}

// ListByIdentity returns the identity's orders oldest first.
func (s *OrderStore) ListByIdentity(ctx context.Context, username string) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[username]
	out := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.orders[id].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *OrderStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders), nil
}

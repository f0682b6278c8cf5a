package usecase

import (
	"context"

	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/gsanchezm/OmniPizza/internal/interfaces"
)

// OrderService reads orders on behalf of their owner.
type OrderService struct {
	store  interfaces.OrderStore
	faults *FaultInjector
}

func NewOrderService(store interfaces.OrderStore, faults *FaultInjector) *OrderService {
	return &OrderService{store: store, faults: faults}
}

// Get returns one order. Orders of other identities fail with AccessDenied.
func (s *OrderService) Get(ctx context.Context, session domain.Session, orderID string) (domain.Order, error) {
	if err := s.faults.Delay(ctx, session.Behavior); err != nil {
		return domain.Order{}, err
	}
	order, ok, err := s.store.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !ok {
		return domain.Order{}, domain.Errorf(domain.KindNotFound, "Order %s not found", orderID)
	}
	if order.Username != session.Username {
		return domain.Order{}, domain.Errorf(domain.KindAccessDenied, "Access denied")
	}
	return order, nil
}

// List returns the caller's orders, oldest first.
func (s *OrderService) List(ctx context.Context, session domain.Session) ([]domain.Order, error) {
	if err := s.faults.Delay(ctx, session.Behavior); err != nil {
		return nil, err
	}
	return s.store.ListByIdentity(ctx, session.Username)
}

// Count is the number of orders created since start, across identities.
func (s *OrderService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

package usecase

import "github.com/gsanchezm/OmniPizza/internal/domain"

// CatalogStore is the immutable product list, in authoring order.
type CatalogStore struct {
	items []domain.CatalogItem
	byID  map[string]int
}

func NewCatalogStore(items []domain.CatalogItem) *CatalogStore {
	s := &CatalogStore{items: items, byID: make(map[string]int, len(items))}
	for i, it := range items {
		s.byID[it.ID] = i
	}
	return s
}

func (s *CatalogStore) All() []domain.CatalogItem {
	return s.items
}

func (s *CatalogStore) Get(id string) (domain.CatalogItem, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.CatalogItem{}, false
	}
	return s.items[i], true
}

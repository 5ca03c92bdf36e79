package service

import (
	"context"
	"fmt"

	"github.com/rentpoint/backend/internal/domain"
	"github.com/rentpoint/backend/internal/repo"
)

// ItemService implements inventory management for physical units. It never
// touches the availability flag directly — that belongs to the allocator
// paths inside the session transactions.
type ItemService struct {
	types repo.ItemTypeRepo
	items repo.ItemRepo
}

// NewItemService constructs an ItemService. It holds the item type repo too
// because creating an item requires verifying the type exists.
func NewItemService(types repo.ItemTypeRepo, items repo.ItemRepo) *ItemService {
	return &ItemService{types: types, items: items}
}

// Create registers a new available unit of the given type.
// Returns domain.ErrNotFound when the item type does not exist.
func (s *ItemService) Create(ctx context.Context, typeID int64) (domain.Item, error) {
	if _, err := s.types.GetByID(ctx, typeID); err != nil {
		return domain.Item{}, fmt.Errorf("service.ItemService.Create: %w", err)
	}

	item, err := s.items.Create(ctx, typeID)
	if err != nil {
		return domain.Item{}, fmt.Errorf("service.ItemService.Create: %w", err)
	}
	return item, nil
}

// GetByID returns a single item by ID.
func (s *ItemService) GetByID(ctx context.Context, id int64) (domain.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return domain.Item{}, fmt.Errorf("service.ItemService.GetByID: %w", err)
	}
	return item, nil
}

// List returns items matching the filter, ordered by id.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ItemService) List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	items, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service.ItemService.List: %w", err)
	}
	if items == nil {
		return []domain.Item{}, nil
	}
	return items, nil
}

// Delete removes an item from inventory.
func (s *ItemService) Delete(ctx context.Context, id int64) error {
	if err := s.items.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.ItemService.Delete: %w", err)
	}
	return nil
}

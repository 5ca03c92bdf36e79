package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rentpoint/backend/internal/domain"
	"github.com/rentpoint/backend/internal/repo"
)

// ItemTypeService implements inventory management for item categories.
type ItemTypeService struct {
	types repo.ItemTypeRepo
}

// NewItemTypeService constructs an ItemTypeService backed by the provided repo.
func NewItemTypeService(types repo.ItemTypeRepo) *ItemTypeService {
	return &ItemTypeService{types: types}
}

// Create validates and persists a new item type.
// Returns domain.ErrValidation when the name is empty.
func (s *ItemTypeService) Create(ctx context.Context, name string) (domain.ItemType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ItemType{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	t, err := s.types.Create(ctx, name)
	if err != nil {
		return domain.ItemType{}, fmt.Errorf("service.ItemTypeService.Create: %w", err)
	}
	return t, nil
}

// GetByID returns a single item type by ID.
func (s *ItemTypeService) GetByID(ctx context.Context, id int64) (domain.ItemType, error) {
	t, err := s.types.GetByID(ctx, id)
	if err != nil {
		return domain.ItemType{}, fmt.Errorf("service.ItemTypeService.GetByID: %w", err)
	}
	return t, nil
}

// List returns all item types ordered by id.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ItemTypeService) List(ctx context.Context) ([]domain.ItemType, error) {
	types, err := s.types.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ItemTypeService.List: %w", err)
	}
	if types == nil {
		return []domain.ItemType{}, nil
	}
	return types, nil
}

// Delete removes an item type (and its items, via cascade).
func (s *ItemTypeService) Delete(ctx context.Context, id int64) error {
	if err := s.types.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.ItemTypeService.Delete: %w", err)
	}
	return nil
}

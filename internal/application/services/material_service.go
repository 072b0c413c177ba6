package services

import (
	"context"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/internal/infrastructure/persistence"
	"github.com/fieldgrid/backend/pkg/errors"
	"github.com/fieldgrid/backend/pkg/utils"
)

// MaterialService manages the material inventory list.
type MaterialService struct {
	items *persistence.MaterialRepository
}

// NewMaterialService creates a new MaterialService
func NewMaterialService(items *persistence.MaterialRepository) *MaterialService {
	return &MaterialService{items: items}
}

// ListItems retrieves material items, optionally filtered by category
func (s *MaterialService) ListItems(ctx context.Context, category string) ([]*models.MaterialItem, error) {
	return s.items.List(ctx, category)
}

// GetItem retrieves one item, failing with NotFound when absent
func (s *MaterialService) GetItem(ctx context.Context, id string) (*models.MaterialItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.NewNotFoundError("Material item", id)
	}
	return item, nil
}

// CreateItem adds an inventory item
func (s *MaterialService) CreateItem(ctx context.Context, item *models.MaterialItem, actorID string) (*models.MaterialItem, error) {
	if item.Name == "" {
		return nil, errors.NewValidationError("name", "is required")
	}
	item.ID = utils.GenerateID()
	item.CreatedBy = actorID
	if err := s.items.Insert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem rewrites an inventory item
func (s *MaterialService) UpdateItem(ctx context.Context, item *models.MaterialItem) (*models.MaterialItem, error) {
	if _, err := s.GetItem(ctx, item.ID); err != nil {
		return nil, err
	}
	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an inventory item
func (s *MaterialService) DeleteItem(ctx context.Context, id string) error {
	return s.items.Delete(ctx, id)
}

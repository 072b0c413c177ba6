package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/fieldgrid/backend/pkg/errors"
)

// MaterialRepository handles database operations for the material
// inventory.
type MaterialRepository struct {
	db *sql.DB
}

// NewMaterialRepository creates a new MaterialRepository
func NewMaterialRepository(db *sql.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// List retrieves items, optionally narrowed to one category. Missing
// tables surface as SchemaDriftError so the route can render a
// needs-setup state.
func (r *MaterialRepository) List(ctx context.Context, category string) ([]*models.MaterialItem, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", materialColumns(), constants.TableMaterialItem)
	var args []interface{}
	if category != "" {
		query += fmt.Sprintf(" WHERE %s = ?", constants.FieldCategory)
		args = append(args, category)
	}
	query += fmt.Sprintf(" ORDER BY %s ASC", constants.FieldName)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapSchemaDrift(constants.TableMaterialItem, err)
	}
	defer rows.Close()

	var items []*models.MaterialItem
	for rows.Next() {
		item, err := scanMaterialItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan material item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetByID retrieves one item. Returns nil, nil when absent.
func (r *MaterialRepository) GetByID(ctx context.Context, id string) (*models.MaterialItem, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = ? LIMIT 1
	`, materialColumns(), constants.TableMaterialItem, constants.FieldID)

	item, err := scanMaterialItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load material item: %w", err)
	}
	return item, nil
}

// Insert creates an item
func (r *MaterialRepository) Insert(ctx context.Context, item *models.MaterialItem) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, constants.TableMaterialItem,
		constants.FieldID, constants.FieldName, constants.FieldCategory, constants.FieldUnit,
		constants.FieldQuantity, constants.FieldLocation, constants.FieldNotes, constants.FieldCreatedBy)

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.Name, item.Category, item.Unit,
		item.Quantity, item.Location, item.Notes, item.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to insert material item: %w", err)
	}
	return nil
}

// Update rewrites an item in place
func (r *MaterialRepository) Update(ctx context.Context, item *models.MaterialItem) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = CURRENT_TIMESTAMP
		WHERE %s = ?
	`, constants.TableMaterialItem,
		constants.FieldName, constants.FieldCategory, constants.FieldUnit,
		constants.FieldQuantity, constants.FieldLocation, constants.FieldNotes,
		constants.FieldUpdatedAt, constants.FieldID)

	result, err := r.db.ExecContext(ctx, query,
		item.Name, item.Category, item.Unit, item.Quantity, item.Location, item.Notes, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update material item: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NewNotFoundError("Material item", item.ID)
	}
	return nil
}

// Delete removes an item
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableMaterialItem, constants.FieldID)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete material item: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NewNotFoundError("Material item", id)
	}
	return nil
}

func materialColumns() string {
	return strings.Join([]string{
		constants.FieldID, constants.FieldName, constants.FieldCategory, constants.FieldUnit,
		constants.FieldQuantity, constants.FieldLocation, constants.FieldNotes,
		constants.FieldCreatedBy, constants.FieldCreatedAt, constants.FieldUpdatedAt,
	}, ", ")
}

func scanMaterialItem(s scanner) (*models.MaterialItem, error) {
	var item models.MaterialItem
	var category, unit, location, notes sql.NullString

	err := s.Scan(&item.ID, &item.Name, &category, &unit, &item.Quantity,
		&location, &notes, &item.CreatedBy, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	item.Category = category.String
	item.Unit = unit.String
	item.Location = location.String
	item.Notes = notes.String
	return &item, nil
}

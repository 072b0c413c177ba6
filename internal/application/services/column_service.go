package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/internal/infrastructure/persistence"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/fieldgrid/backend/pkg/errors"
	"github.com/fieldgrid/backend/pkg/utils"
)

// ColumnService manages column definitions on sheets.
type ColumnService struct {
	tx      *persistence.TransactionManager
	sheets  *persistence.SheetRepository
	columns *persistence.ColumnRepository
	history *persistence.HistoryRepository
}

// NewColumnService creates a new ColumnService
func NewColumnService(tx *persistence.TransactionManager, sheets *persistence.SheetRepository,
	columns *persistence.ColumnRepository, history *persistence.HistoryRepository) *ColumnService {
	return &ColumnService{tx: tx, sheets: sheets, columns: columns, history: history}
}

// ColumnSpec carries the caller-supplied fields for a new column.
type ColumnSpec struct {
	Name            string          `json:"name" binding:"required"`
	Type            string          `json:"type" binding:"required"`
	Width           *int            `json:"width,omitempty"`
	IsRequired      bool            `json:"is_required"`
	IsUnique        bool            `json:"is_unique"`
	DefaultValue    *string         `json:"default_value,omitempty"`
	ValidationRules json.RawMessage `json:"validation_rules,omitempty"`
	FormatOptions   json.RawMessage `json:"format_options,omitempty"`
}

// AddColumn appends a column at the next free position. Positions of other
// columns are never renormalized.
func (s *ColumnService) AddColumn(ctx context.Context, sheetID string, spec ColumnSpec, actorID string) (*models.Column, error) {
	if !constants.IsValidColumnType(spec.Type) {
		return nil, errors.NewValidationError("type", fmt.Sprintf("unknown column type %q", spec.Type))
	}

	sheet, err := s.sheets.GetByID(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet == nil {
		return nil, errors.NewNotFoundError("Sheet", sheetID)
	}

	maxPos, err := s.columns.MaxPosition(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	width := constants.DefaultColumnWidth
	if spec.Width != nil {
		width = *spec.Width
	}

	col := &models.Column{
		ID:              utils.GenerateID(),
		SheetID:         sheetID,
		Name:            spec.Name,
		Type:            spec.Type,
		Position:        maxPos + 1,
		Width:           width,
		IsRequired:      spec.IsRequired,
		IsUnique:        spec.IsUnique,
		DefaultValue:    spec.DefaultValue,
		ValidationRules: spec.ValidationRules,
		FormatOptions:   spec.FormatOptions,
	}

	if err := s.columns.Insert(ctx, nil, col); err != nil {
		return nil, err
	}

	s.logHistory(ctx, sheetID, actorID, constants.HistoryColumnAdded,
		fmt.Sprintf("added column %q (%s) at position %d", col.Name, col.Type, col.Position))

	return col, nil
}

// ListColumns retrieves a sheet's columns in render order
func (s *ColumnService) ListColumns(ctx context.Context, sheetID string) ([]*models.Column, error) {
	return s.columns.ListBySheet(ctx, sheetID)
}

// ColumnPlan is the outcome of diffing an existing column set against a
// desired one.
type ColumnPlan struct {
	Deletes []string         // column ids present in existing but not desired
	Updates []*models.Column // desired columns matching an existing id
	Inserts []*models.Column // desired columns with no existing id
}

// ReconcileColumns computes the full diff-and-apply plan by identity.
// Desired columns without an id are treated as inserts and assigned one.
func ReconcileColumns(existing, desired []*models.Column) ColumnPlan {
	existingByID := make(map[string]*models.Column, len(existing))
	for _, col := range existing {
		existingByID[col.ID] = col
	}

	var plan ColumnPlan
	desiredIDs := make(map[string]bool, len(desired))
	for _, col := range desired {
		if col.ID != "" {
			desiredIDs[col.ID] = true
		}
		if col.ID != "" && existingByID[col.ID] != nil {
			plan.Updates = append(plan.Updates, col)
			continue
		}
		if col.ID == "" {
			col.ID = utils.GenerateID()
		}
		plan.Inserts = append(plan.Inserts, col)
	}

	for _, col := range existing {
		if !desiredIDs[col.ID] {
			plan.Deletes = append(plan.Deletes, col.ID)
		}
	}

	return plan
}

// UpdateColumns reconciles the sheet's columns against the complete
// desired set: missing columns are deleted (cascading to their cells),
// matching ones updated in place, new ones inserted. This is a full
// diff-and-apply, not a patch.
func (s *ColumnService) UpdateColumns(ctx context.Context, sheetID string, desired []*models.Column, actorID string) ([]*models.Column, error) {
	sheet, err := s.sheets.GetByID(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet == nil {
		return nil, errors.NewNotFoundError("Sheet", sheetID)
	}

	for _, col := range desired {
		if !constants.IsValidColumnType(col.Type) {
			return nil, errors.NewValidationError("type", fmt.Sprintf("unknown column type %q", col.Type))
		}
		col.SheetID = sheetID
		if col.Width <= 0 {
			col.Width = constants.DefaultColumnWidth
		}
	}

	existing, err := s.columns.ListBySheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	plan := ReconcileColumns(existing, desired)

	err = s.tx.WithTransaction(func(tx *sql.Tx) error {
		for _, columnID := range plan.Deletes {
			if err := s.columns.Delete(ctx, tx, columnID); err != nil {
				return err
			}
		}
		for _, col := range plan.Updates {
			if err := s.columns.Update(ctx, tx, col); err != nil {
				return err
			}
		}
		for _, col := range plan.Inserts {
			if err := s.columns.Insert(ctx, tx, col); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logHistory(ctx, sheetID, actorID, constants.HistoryColumnsSynced,
		fmt.Sprintf("synced columns: %d deleted, %d updated, %d added",
			len(plan.Deletes), len(plan.Updates), len(plan.Inserts)))

	return s.columns.ListBySheet(ctx, sheetID)
}

func (s *ColumnService) logHistory(ctx context.Context, sheetID, actorID, action, details string) {
	entry := &models.HistoryEntry{
		ID:      utils.GenerateID(),
		SheetID: sheetID,
		ActorID: actorID,
		Action:  action,
		Details: details,
	}
	if err := s.history.Insert(ctx, entry); err != nil {
		log.Printf("⚠️ Failed to log sheet history (%s): %v", action, err)
	}
}

package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/internal/infrastructure/persistence"
	"github.com/fieldgrid/backend/pkg/celltypes"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/fieldgrid/backend/pkg/errors"
	"github.com/fieldgrid/backend/pkg/utils"
)

// CellService writes cell values. Every write runs the raw value through
// the column type's coercion; invalid input is stored anyway, flagged
// with a validation status, so user input is never silently dropped.
type CellService struct {
	tx      *persistence.TransactionManager
	columns *persistence.ColumnRepository
	rows    *persistence.RowRepository
	cells   *persistence.CellRepository
}

// NewCellService creates a new CellService
func NewCellService(tx *persistence.TransactionManager, columns *persistence.ColumnRepository,
	rows *persistence.RowRepository, cells *persistence.CellRepository) *CellService {
	return &CellService{tx: tx, columns: columns, rows: rows, cells: cells}
}

// UpdateCellRequest carries one cell write. ExpectedVersion, when set,
// turns the write into a compare-and-swap against the stored version.
type UpdateCellRequest struct {
	RowID           string      `json:"row_id" binding:"required"`
	ColumnID        string      `json:"column_id" binding:"required"`
	Value           interface{} `json:"value"`
	FormattedValue  *string     `json:"formatted_value,omitempty"`
	ExpectedVersion *int        `json:"expected_version,omitempty"`
}

// UpdateCell upserts the cell at (row, column): inserts when the pair has
// never been written, updates in place otherwise. Returns Conflict when
// an expected version no longer matches.
func (s *CellService) UpdateCell(ctx context.Context, sheetID string, req UpdateCellRequest) (*models.Cell, error) {
	row, err := s.rows.GetByID(ctx, req.RowID)
	if err != nil {
		return nil, err
	}
	if row == nil || row.SheetID != sheetID || row.IsDeleted {
		return nil, errors.NewNotFoundError("Row", req.RowID)
	}

	col, err := s.columns.GetByID(ctx, req.ColumnID)
	if err != nil {
		return nil, err
	}
	if col == nil || col.SheetID != sheetID {
		return nil, errors.NewNotFoundError("Column", req.ColumnID)
	}

	var updated *models.Cell
	err = s.tx.WithTransaction(func(tx *sql.Tx) error {
		cell, err := s.writeCell(ctx, tx, col, req)
		if err != nil {
			return err
		}
		updated = cell
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// BulkUpdateCells applies every update or none. All targets are resolved
// and coerced against the same column snapshot, then written in one
// transaction; the first failure rolls back the whole batch.
func (s *CellService) BulkUpdateCells(ctx context.Context, sheetID string, updates []models.CellUpdate) ([]*models.Cell, error) {
	if len(updates) == 0 {
		return []*models.Cell{}, nil
	}

	cols, err := s.columns.ListBySheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	colByID := make(map[string]*models.Column, len(cols))
	for _, col := range cols {
		colByID[col.ID] = col
	}

	rowSeen := make(map[string]bool)
	for _, u := range updates {
		if colByID[u.ColumnID] == nil {
			return nil, errors.NewNotFoundError("Column", u.ColumnID)
		}
		if rowSeen[u.RowID] {
			continue
		}
		row, err := s.rows.GetByID(ctx, u.RowID)
		if err != nil {
			return nil, err
		}
		if row == nil || row.SheetID != sheetID || row.IsDeleted {
			return nil, errors.NewNotFoundError("Row", u.RowID)
		}
		rowSeen[u.RowID] = true
	}

	// Bulk writes contend on the (row, column) unique index, retry deadlocks
	var results []*models.Cell
	err = s.tx.WithRetry(func(tx *sql.Tx) error {
		results = make([]*models.Cell, 0, len(updates))
		for _, u := range updates {
			cell, err := s.writeCell(ctx, tx, colByID[u.ColumnID], UpdateCellRequest{
				RowID:          u.RowID,
				ColumnID:       u.ColumnID,
				Value:          u.Value,
				FormattedValue: u.FormattedValue,
			})
			if err != nil {
				return fmt.Errorf("cell (%s, %s): %w", u.RowID, u.ColumnID, err)
			}
			results = append(results, cell)
		}
		return nil
	}, constants.CellBulkMaxRetries)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetRowCells retrieves all cells of one row
func (s *CellService) GetRowCells(ctx context.Context, rowID string) ([]*models.Cell, error) {
	return s.cells.ListByRow(ctx, rowID)
}

func (s *CellService) writeCell(ctx context.Context, tx *sql.Tx, col *models.Column, req UpdateCellRequest) (*models.Cell, error) {
	coerced := CoerceForColumn(col, req.Value)

	existing, err := s.cells.GetByRowColumn(ctx, tx, req.RowID, req.ColumnID)
	if err != nil {
		return nil, err
	}

	cell := existing
	if cell == nil {
		if req.ExpectedVersion != nil {
			return nil, errors.NewConflictError("Cell", "version",
				fmt.Sprintf("%d", *req.ExpectedVersion))
		}
		cell = &models.Cell{
			ID:       utils.GenerateID(),
			RowID:    req.RowID,
			ColumnID: req.ColumnID,
			Version:  1,
		}
		applyCoercion(cell, coerced, req.FormattedValue)
		if err := s.cells.Insert(ctx, tx, cell); err != nil {
			return nil, err
		}
		return cell, nil
	}

	applyCoercion(cell, coerced, req.FormattedValue)
	ok, err := s.cells.UpdateValue(ctx, tx, cell, req.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewConflictError("Cell", "version",
			fmt.Sprintf("%d", cell.Version))
	}
	cell.Version++
	return cell, nil
}

// CoerceForColumn runs a raw value through the column type's plugin, then
// layers the column-level checks on top: required emptiness turns a valid
// result invalid, a failing rule expression turns it into a warning.
func CoerceForColumn(col *models.Column, raw interface{}) celltypes.Result {
	rules := col.Rules()

	plugin, ok := celltypes.GetRegistry().Get(col.Type)
	if !ok {
		// Unknown type, store the raw string untouched
		return celltypes.Result{
			Value:  sql.NullString{String: utils.ToString(raw), Valid: raw != nil},
			Status: constants.ValidationValid,
		}
	}

	result := plugin.Coerce(raw, celltypes.Options{Choices: rules.Options})

	if col.IsRequired && (!result.Value.Valid || result.Value.String == "") {
		result.Status = constants.ValidationInvalid
		result.Message = "value is required"
		return result
	}

	if rules.Expression != "" && result.Status == constants.ValidationValid && result.Value.Valid {
		ok, err := celltypes.EvaluateRule(rules.Expression, result.Value.String)
		if err != nil {
			result.Status = constants.ValidationWarning
			result.Message = fmt.Sprintf("validation rule error: %v", err)
		} else if !ok {
			result.Status = constants.ValidationWarning
			result.Message = "value does not satisfy the column rule"
		}
	}

	return result
}

func applyCoercion(cell *models.Cell, coerced celltypes.Result, formatted *string) {
	if coerced.Value.Valid {
		v := coerced.Value.String
		cell.Value = &v
	} else {
		cell.Value = nil
	}
	cell.FormattedValue = formatted
	cell.ValidationStatus = coerced.Status
	if coerced.Message != "" {
		m := coerced.Message
		cell.ValidationMessage = &m
	} else {
		cell.ValidationMessage = nil
	}
}

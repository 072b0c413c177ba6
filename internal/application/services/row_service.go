package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/internal/infrastructure/persistence"
	"github.com/fieldgrid/backend/pkg/celltypes"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/fieldgrid/backend/pkg/errors"
	"github.com/fieldgrid/backend/pkg/utils"
)

// RowService manages row lifecycle: creation with per-column defaults,
// soft deletion, reads, and purging.
type RowService struct {
	tx      *persistence.TransactionManager
	sheets  *persistence.SheetRepository
	columns *persistence.ColumnRepository
	rows    *persistence.RowRepository
	cells   *persistence.CellRepository
	history *persistence.HistoryRepository
}

// NewRowService creates a new RowService
func NewRowService(tx *persistence.TransactionManager, sheets *persistence.SheetRepository,
	columns *persistence.ColumnRepository, rows *persistence.RowRepository,
	cells *persistence.CellRepository, history *persistence.HistoryRepository) *RowService {
	return &RowService{tx: tx, sheets: sheets, columns: columns, rows: rows, cells: cells, history: history}
}

// AddRow appends a row at the next free position and creates one cell per
// current column, each holding the column's default: an explicit
// default_value when present, the type-derived default otherwise.
func (s *RowService) AddRow(ctx context.Context, sheetID, actorID string) (*models.Row, error) {
	sheet, err := s.sheets.GetByID(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet == nil {
		return nil, errors.NewNotFoundError("Sheet", sheetID)
	}

	maxPos, err := s.rows.MaxPosition(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	cols, err := s.columns.ListBySheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	row := &models.Row{
		ID:       utils.GenerateID(),
		SheetID:  sheetID,
		Position: maxPos + 1,
		Metadata: metadataFor(actorID),
	}

	cells := DefaultCells(row.ID, cols)

	err = s.tx.WithTransaction(func(tx *sql.Tx) error {
		if err := s.rows.Insert(ctx, tx, row); err != nil {
			return err
		}
		return s.cells.BulkInsert(ctx, tx, cells)
	})
	if err != nil {
		return nil, err
	}

	row.Cells = make(map[string]*models.Cell, len(cells))
	for _, cell := range cells {
		row.Cells[cell.ColumnID] = cell
	}

	s.logHistory(ctx, sheetID, actorID, constants.HistoryRowAdded,
		fmt.Sprintf("added row at position %d with %d cells", row.Position, len(cells)))

	return row, nil
}

// DefaultCells builds the default cell per column for a new row. The
// number of cells always equals the number of columns passed in.
func DefaultCells(rowID string, cols []*models.Column) []*models.Cell {
	registry := celltypes.GetRegistry()

	cells := make([]*models.Cell, 0, len(cols))
	for _, col := range cols {
		var value *string
		if col.DefaultValue != nil {
			v := *col.DefaultValue
			value = &v
		} else if plugin, ok := registry.Get(col.Type); ok {
			if d := plugin.Default(); d.Valid {
				v := d.String
				value = &v
			}
		} else {
			empty := ""
			value = &empty
		}

		cells = append(cells, &models.Cell{
			ID:               utils.GenerateID(),
			RowID:            rowID,
			ColumnID:         col.ID,
			Value:            value,
			ValidationStatus: constants.ValidationValid,
		})
	}
	return cells
}

// DeleteRow soft-deletes a row. Its cells stay in storage until the
// reaper or an explicit purge removes them.
func (s *RowService) DeleteRow(ctx context.Context, rowID, actorID string) error {
	row, err := s.rows.GetByID(ctx, rowID)
	if err != nil {
		return err
	}
	if row == nil {
		return errors.NewNotFoundError("Row", rowID)
	}

	deleted, err := s.rows.SoftDelete(ctx, rowID)
	if err != nil {
		return err
	}
	if deleted {
		s.logHistory(ctx, row.SheetID, actorID, constants.HistoryRowDeleted,
			fmt.Sprintf("deleted row at position %d", row.Position))
	}
	return nil
}

// GetSheetRows retrieves the sheet's non-deleted rows with their cells
// keyed by column id. Columns created after a row exists simply have no
// entry until written.
func (s *RowService) GetSheetRows(ctx context.Context, sheetID string) ([]*models.Row, error) {
	sheet, err := s.sheets.GetByID(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet == nil {
		return nil, errors.NewNotFoundError("Sheet", sheetID)
	}

	rows, err := s.rows.ListBySheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	cells, err := s.cells.ListBySheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	byRow := make(map[string]map[string]*models.Cell, len(rows))
	for _, cell := range cells {
		if byRow[cell.RowID] == nil {
			byRow[cell.RowID] = make(map[string]*models.Cell)
		}
		byRow[cell.RowID][cell.ColumnID] = cell
	}

	for _, row := range rows {
		row.Cells = byRow[row.ID]
		if row.Cells == nil {
			row.Cells = map[string]*models.Cell{}
		}
	}
	return rows, nil
}

// PurgeDeletedRows hard-deletes rows soft-deleted before the cutoff,
// together with their cells. An empty sheetID sweeps every sheet.
func (s *RowService) PurgeDeletedRows(ctx context.Context, sheetID string, olderThan time.Time) (int64, error) {
	var purged int64
	err := s.tx.WithTransaction(func(tx *sql.Tx) error {
		var err error
		purged, err = s.rows.PurgeDeleted(ctx, tx, sheetID, olderThan)
		return err
	})
	return purged, err
}

func metadataFor(actorID string) []byte {
	return []byte(fmt.Sprintf(`{"created_by":%q}`, actorID))
}

func (s *RowService) logHistory(ctx context.Context, sheetID, actorID, action, details string) {
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

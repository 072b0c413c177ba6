package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
)

// CellRepository handles database operations for cells. At most one cell
// exists per (row, column) pair, enforced by a unique index.
type CellRepository struct {
	db *sql.DB
}

// NewCellRepository creates a new CellRepository
func NewCellRepository(db *sql.DB) *CellRepository {
	return &CellRepository{db: db}
}

// GetExecutor returns the transaction if present, or the DB connection
func (r *CellRepository) GetExecutor(tx *sql.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

// GetByRowColumn retrieves the cell at (row, column). Returns nil, nil
// when the cell has never been written.
func (r *CellRepository) GetByRowColumn(ctx context.Context, tx *sql.Tx, rowID, columnID string) (*models.Cell, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = ? AND %s = ? LIMIT 1
	`, cellColumns(), constants.TableCell, constants.FieldRowID, constants.FieldColumnID)

	exec := r.GetExecutor(tx)
	cell, err := scanCell(exec.QueryRowContext(ctx, query, rowID, columnID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cell: %w", err)
	}
	return cell, nil
}

// Insert creates a cell with version 1
func (r *CellRepository) Insert(ctx context.Context, tx *sql.Tx, cell *models.Cell) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)
	`, constants.TableCell,
		constants.FieldID, constants.FieldRowID, constants.FieldColumnID,
		constants.FieldValue, constants.FieldFormattedValue,
		constants.FieldValidationStatus, constants.FieldValidationMessage,
		constants.FieldVersion)

	exec := r.GetExecutor(tx)
	_, err := exec.ExecContext(ctx, query,
		cell.ID, cell.RowID, cell.ColumnID, cell.Value, cell.FormattedValue,
		cell.ValidationStatus, cell.ValidationMessage)
	if err != nil {
		return fmt.Errorf("failed to insert cell: %w", err)
	}
	return nil
}

// UpdateValue rewrites a cell's value and bumps its version. When
// expectedVersion is non-nil the update is a compare-and-swap; the caller
// interprets zero rows affected as a version conflict.
func (r *CellRepository) UpdateValue(ctx context.Context, tx *sql.Tx, cell *models.Cell, expectedVersion *int) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = ?, %s = ?, %s = ?, %s = ?, %s = %s + 1
		WHERE %s = ?
	`, constants.TableCell,
		constants.FieldValue, constants.FieldFormattedValue,
		constants.FieldValidationStatus, constants.FieldValidationMessage,
		constants.FieldVersion, constants.FieldVersion,
		constants.FieldID)

	args := []interface{}{
		cell.Value, cell.FormattedValue, cell.ValidationStatus, cell.ValidationMessage, cell.ID,
	}
	if expectedVersion != nil {
		query += fmt.Sprintf(" AND %s = ?", constants.FieldVersion)
		args = append(args, *expectedVersion)
	}

	exec := r.GetExecutor(tx)
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update cell: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// BulkInsert creates cells in multi-row batches. Used for row creation
// defaults where no (row, column) pair can already exist.
func (r *CellRepository) BulkInsert(ctx context.Context, tx *sql.Tx, cells []*models.Cell) error {
	if len(cells) == 0 {
		return nil
	}

	exec := r.GetExecutor(tx)
	batchSize := constants.CellBulkBatchSize

	for i := 0; i < len(cells); i += batchSize {
		end := i + batchSize
		if end > len(cells) {
			end = len(cells)
		}
		batch := cells[i:end]

		placeholders := make([]string, len(batch))
		args := make([]interface{}, 0, len(batch)*7)
		for j, cell := range batch {
			placeholders[j] = "(?, ?, ?, ?, ?, ?, ?, 1)"
			args = append(args,
				cell.ID, cell.RowID, cell.ColumnID, cell.Value, cell.FormattedValue,
				cell.ValidationStatus, cell.ValidationMessage)
		}

		query := fmt.Sprintf(`
			INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
			VALUES %s
		`, constants.TableCell,
			constants.FieldID, constants.FieldRowID, constants.FieldColumnID,
			constants.FieldValue, constants.FieldFormattedValue,
			constants.FieldValidationStatus, constants.FieldValidationMessage,
			constants.FieldVersion,
			strings.Join(placeholders, ", "))

		if _, err := exec.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("bulk insert cells batch %d-%d failed: %w", i, end, err)
		}
	}

	return nil
}

// ListByRow retrieves all cells of one row
func (r *CellRepository) ListByRow(ctx context.Context, rowID string) ([]*models.Cell, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = ?
	`, cellColumns(), constants.TableCell, constants.FieldRowID)

	return r.queryCells(ctx, query, rowID)
}

// ListBySheet retrieves all cells of a sheet's non-deleted rows
func (r *CellRepository) ListBySheet(ctx context.Context, sheetID string) ([]*models.Cell, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s c
		JOIN %s r ON r.%s = c.%s
		WHERE r.%s = ? AND r.%s = 0
	`, cellColumnsPrefixed("c"), constants.TableCell,
		constants.TableRow, constants.FieldID, constants.FieldRowID,
		constants.FieldSheetID, constants.FieldIsDeleted)

	return r.queryCells(ctx, query, sheetID)
}

func (r *CellRepository) queryCells(ctx context.Context, query string, args ...interface{}) ([]*models.Cell, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cells: %w", err)
	}
	defer rows.Close()

	var cells []*models.Cell
	for rows.Next() {
		cell, err := scanCell(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		cells = append(cells, cell)
	}
	return cells, rows.Err()
}

func cellColumns() string {
	return strings.Join(cellColumnNames(""), ", ")
}

func cellColumnsPrefixed(alias string) string {
	return strings.Join(cellColumnNames(alias+"."), ", ")
}

func cellColumnNames(prefix string) []string {
	names := []string{
		constants.FieldID, constants.FieldRowID, constants.FieldColumnID,
		constants.FieldValue, constants.FieldFormattedValue,
		constants.FieldValidationStatus, constants.FieldValidationMessage,
		constants.FieldVersion,
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = prefix + n
	}
	return out
}

func scanCell(s scanner) (*models.Cell, error) {
	var cell models.Cell
	var value, formatted, message sql.NullString

	err := s.Scan(&cell.ID, &cell.RowID, &cell.ColumnID, &value, &formatted,
		&cell.ValidationStatus, &message, &cell.Version)
	if err != nil {
		return nil, err
	}

	if value.Valid {
		cell.Value = &value.String
	}
	if formatted.Valid {
		cell.FormattedValue = &formatted.String
	}
	if message.Valid {
		cell.ValidationMessage = &message.String
	}
	return &cell, nil
}

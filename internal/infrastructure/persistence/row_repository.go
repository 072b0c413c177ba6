package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
)

// RowRepository handles database operations for grid rows. Rows are soft
// deleted; physical removal happens only through PurgeDeleted.
type RowRepository struct {
	db *sql.DB
}

// NewRowRepository creates a new RowRepository
func NewRowRepository(db *sql.DB) *RowRepository {
	return &RowRepository{db: db}
}

// GetExecutor returns the transaction if present, or the DB connection
func (r *RowRepository) GetExecutor(tx *sql.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

// Insert creates a row
func (r *RowRepository) Insert(ctx context.Context, tx *sql.Tx, row *models.Row) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES (?, ?, ?, ?, ?)
	`, constants.TableRow,
		constants.FieldID, constants.FieldSheetID, constants.FieldPosition,
		constants.FieldIsDeleted, constants.FieldMetadata)

	exec := r.GetExecutor(tx)
	_, err := exec.ExecContext(ctx, query,
		row.ID, row.SheetID, row.Position, row.IsDeleted, nullableJSON(row.Metadata))
	if err != nil {
		return fmt.Errorf("failed to insert row: %w", err)
	}
	return nil
}

// GetByID retrieves a row by id regardless of its deleted flag.
// Returns nil, nil when absent.
func (r *RowRepository) GetByID(ctx context.Context, id string) (*models.Row, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = ? LIMIT 1
	`, rowColumns(), constants.TableRow, constants.FieldID)

	row, err := scanRow(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load row: %w", err)
	}
	return row, nil
}

// ListBySheet retrieves non-deleted rows ordered by position
func (r *RowRepository) ListBySheet(ctx context.Context, sheetID string) ([]*models.Row, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = ? AND %s = 0 ORDER BY %s ASC
	`, rowColumns(), constants.TableRow,
		constants.FieldSheetID, constants.FieldIsDeleted, constants.FieldPosition)

	rows, err := r.db.QueryContext(ctx, query, sheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}
	defer rows.Close()

	var result []*models.Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// MaxPosition returns the highest position among non-deleted rows on a
// sheet, or -1 when there are none.
func (r *RowRepository) MaxPosition(ctx context.Context, sheetID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(%s), -1) FROM %s WHERE %s = ? AND %s = 0
	`, constants.FieldPosition, constants.TableRow, constants.FieldSheetID, constants.FieldIsDeleted)

	var max int
	if err := r.db.QueryRowContext(ctx, query, sheetID).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to read max row position: %w", err)
	}
	return max, nil
}

// SoftDelete marks a row deleted. Its cells are left in place.
func (r *RowRepository) SoftDelete(ctx context.Context, rowID string) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = 1, %s = CURRENT_TIMESTAMP WHERE %s = ? AND %s = 0
	`, constants.TableRow,
		constants.FieldIsDeleted, constants.FieldDeletedAt,
		constants.FieldID, constants.FieldIsDeleted)

	result, err := r.db.ExecContext(ctx, query, rowID)
	if err != nil {
		return false, fmt.Errorf("failed to soft delete row: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// PurgeDeleted hard-deletes soft-deleted rows older than the cutoff, cells
// first. When sheetID is empty every sheet is swept. Returns the number of
// rows removed. Must run inside a transaction.
func (r *RowRepository) PurgeDeleted(ctx context.Context, tx *sql.Tx, sheetID string, olderThan time.Time) (int64, error) {
	where := fmt.Sprintf("r.%s = 1 AND r.%s <= ?", constants.FieldIsDeleted, constants.FieldDeletedAt)
	args := []interface{}{olderThan}
	if sheetID != "" {
		where += fmt.Sprintf(" AND r.%s = ?", constants.FieldSheetID)
		args = append(args, sheetID)
	}

	cellQuery := fmt.Sprintf(`
		DELETE c FROM %s c
		JOIN %s r ON r.%s = c.%s
		WHERE %s
	`, constants.TableCell, constants.TableRow, constants.FieldID, constants.FieldRowID, where)

	if _, err := tx.ExecContext(ctx, cellQuery, args...); err != nil {
		return 0, fmt.Errorf("failed to purge cells of deleted rows: %w", err)
	}

	rowQuery := fmt.Sprintf("DELETE r FROM %s r WHERE %s", constants.TableRow, where)
	result, err := tx.ExecContext(ctx, rowQuery, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to purge deleted rows: %w", err)
	}

	purged, _ := result.RowsAffected()
	return purged, nil
}

func rowColumns() string {
	return strings.Join([]string{
		constants.FieldID, constants.FieldSheetID, constants.FieldPosition,
		constants.FieldIsDeleted, constants.FieldDeletedAt, constants.FieldMetadata,
	}, ", ")
}

func scanRow(s scanner) (*models.Row, error) {
	var row models.Row
	var deletedAt sql.NullTime
	var metadata sql.NullString

	err := s.Scan(&row.ID, &row.SheetID, &row.Position, &row.IsDeleted, &deletedAt, &metadata)
	if err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		row.DeletedAt = &deletedAt.Time
	}
	if metadata.Valid {
		row.Metadata = json.RawMessage(metadata.String)
	}
	return &row, nil
}

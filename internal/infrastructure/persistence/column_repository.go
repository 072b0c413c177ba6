package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
)

// ColumnRepository handles database operations for column definitions.
type ColumnRepository struct {
	db *sql.DB
}

// NewColumnRepository creates a new ColumnRepository
func NewColumnRepository(db *sql.DB) *ColumnRepository {
	return &ColumnRepository{db: db}
}

// GetExecutor returns the transaction if present, or the DB connection
func (r *ColumnRepository) GetExecutor(tx *sql.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

// ListBySheet retrieves a sheet's columns ordered by position
func (r *ColumnRepository) ListBySheet(ctx context.Context, sheetID string) ([]*models.Column, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = ? ORDER BY %s ASC
	`, columnColumns(), constants.TableColumn, constants.FieldSheetID, constants.FieldPosition)

	rows, err := r.db.QueryContext(ctx, query, sheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer rows.Close()

	var cols []*models.Column
	for rows.Next() {
		col, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// GetByID retrieves a column by id. Returns nil, nil when absent.
func (r *ColumnRepository) GetByID(ctx context.Context, id string) (*models.Column, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = ? LIMIT 1
	`, columnColumns(), constants.TableColumn, constants.FieldID)

	col, err := scanColumn(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load column: %w", err)
	}
	return col, nil
}

// MaxPosition returns the highest column position on a sheet, or -1 when
// the sheet has no columns.
func (r *ColumnRepository) MaxPosition(ctx context.Context, sheetID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(%s), -1) FROM %s WHERE %s = ?
	`, constants.FieldPosition, constants.TableColumn, constants.FieldSheetID)

	var max int
	if err := r.db.QueryRowContext(ctx, query, sheetID).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to read max column position: %w", err)
	}
	return max, nil
}

// Insert creates a column definition
func (r *ColumnRepository) Insert(ctx context.Context, tx *sql.Tx, col *models.Column) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, constants.TableColumn,
		constants.FieldID, constants.FieldSheetID, constants.FieldName, constants.FieldColumnType,
		constants.FieldPosition, constants.FieldWidth, constants.FieldIsRequired, constants.FieldIsUnique,
		constants.FieldDefaultValue, constants.FieldValidationRules, constants.FieldFormatOptions)

	exec := r.GetExecutor(tx)
	_, err := exec.ExecContext(ctx, query,
		col.ID, col.SheetID, col.Name, col.Type, col.Position, col.Width,
		col.IsRequired, col.IsUnique, col.DefaultValue,
		nullableJSON(col.ValidationRules), nullableJSON(col.FormatOptions))
	if err != nil {
		return fmt.Errorf("failed to insert column: %w", err)
	}
	return nil
}

// Update rewrites a column definition in place
func (r *ColumnRepository) Update(ctx context.Context, tx *sql.Tx, col *models.Column) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ?
		WHERE %s = ?
	`, constants.TableColumn,
		constants.FieldName, constants.FieldColumnType, constants.FieldPosition, constants.FieldWidth,
		constants.FieldIsRequired, constants.FieldIsUnique, constants.FieldDefaultValue,
		constants.FieldValidationRules, constants.FieldFormatOptions,
		constants.FieldID)

	exec := r.GetExecutor(tx)
	_, err := exec.ExecContext(ctx, query,
		col.Name, col.Type, col.Position, col.Width, col.IsRequired, col.IsUnique,
		col.DefaultValue, nullableJSON(col.ValidationRules), nullableJSON(col.FormatOptions),
		col.ID)
	if err != nil {
		return fmt.Errorf("failed to update column: %w", err)
	}
	return nil
}

// Delete removes a column and cascades to its cells
func (r *ColumnRepository) Delete(ctx context.Context, tx *sql.Tx, columnID string) error {
	exec := r.GetExecutor(tx)

	cellQuery := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableCell, constants.FieldColumnID)
	if _, err := exec.ExecContext(ctx, cellQuery, columnID); err != nil {
		return fmt.Errorf("failed to delete cells for column %s: %w", columnID, err)
	}

	colQuery := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableColumn, constants.FieldID)
	if _, err := exec.ExecContext(ctx, colQuery, columnID); err != nil {
		return fmt.Errorf("failed to delete column %s: %w", columnID, err)
	}
	return nil
}

func columnColumns() string {
	return strings.Join([]string{
		constants.FieldID, constants.FieldSheetID, constants.FieldName, constants.FieldColumnType,
		constants.FieldPosition, constants.FieldWidth, constants.FieldIsRequired, constants.FieldIsUnique,
		constants.FieldDefaultValue, constants.FieldValidationRules, constants.FieldFormatOptions,
	}, ", ")
}

func scanColumn(s scanner) (*models.Column, error) {
	var col models.Column
	var defaultValue, validationRules, formatOptions sql.NullString

	err := s.Scan(&col.ID, &col.SheetID, &col.Name, &col.Type, &col.Position, &col.Width,
		&col.IsRequired, &col.IsUnique, &defaultValue, &validationRules, &formatOptions)
	if err != nil {
		return nil, err
	}

	if defaultValue.Valid {
		col.DefaultValue = &defaultValue.String
	}
	if validationRules.Valid {
		col.ValidationRules = json.RawMessage(validationRules.String)
	}
	if formatOptions.Valid {
		col.FormatOptions = json.RawMessage(formatOptions.String)
	}
	return &col, nil
}

func nullableJSON(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

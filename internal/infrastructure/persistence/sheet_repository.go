package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/fieldgrid/backend/pkg/errors"
)

// SheetRepository handles database operations for sheets, public links,
// and the precomputed stats view.
type SheetRepository struct {
	db *sql.DB
}

// NewSheetRepository creates a new SheetRepository
func NewSheetRepository(db *sql.DB) *SheetRepository {
	return &SheetRepository{db: db}
}

// GetExecutor returns the transaction if present, or the DB connection
func (r *SheetRepository) GetExecutor(tx *sql.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

// Insert creates a sheet row
func (r *SheetRepository) Insert(ctx context.Context, sheet *models.Sheet) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES (?, ?, ?, ?, ?, ?)
	`, constants.TableSheet,
		constants.FieldID, constants.FieldName, constants.FieldDescription,
		constants.FieldOwnerID, constants.FieldIsActive, constants.FieldSettings)

	settings := sql.NullString{}
	if len(sheet.Settings) > 0 {
		settings = sql.NullString{String: string(sheet.Settings), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		sheet.ID, sheet.Name, sheet.Description, sheet.OwnerID, sheet.IsActive, settings)
	if err != nil {
		return fmt.Errorf("failed to insert sheet: %w", err)
	}
	return nil
}

// GetByID retrieves a sheet by id. Returns nil, nil when absent.
func (r *SheetRepository) GetByID(ctx context.Context, id string) (*models.Sheet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = ? LIMIT 1
	`, sheetColumns(), constants.TableSheet, constants.FieldID)

	sheet, err := scanSheet(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sheet: %w", err)
	}
	return sheet, nil
}

// ListForUser retrieves active sheets the user owns or holds a grant on,
// newest first. Missing tables surface as SchemaDriftError so the list
// route can render a needs-setup state.
func (r *SheetRepository) ListForUser(ctx context.Context, userID string) ([]*models.Sheet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s s
		WHERE s.%s = 1 AND (
			s.%s = ?
			OR s.%s IN (SELECT %s FROM %s WHERE %s = ?)
		)
		ORDER BY s.%s DESC
	`, sheetColumns(), constants.TableSheet,
		constants.FieldIsActive,
		constants.FieldOwnerID,
		constants.FieldID, constants.FieldSheetID, constants.TableSheetGrant, constants.FieldUserID,
		constants.FieldCreatedAt)

	rows, err := r.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, errors.WrapSchemaDrift(constants.TableSheet, err)
	}
	defer rows.Close()

	var sheets []*models.Sheet
	for rows.Next() {
		sheet, err := scanSheet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sheet: %w", err)
		}
		sheets = append(sheets, sheet)
	}
	return sheets, rows.Err()
}

// Update renames a sheet and replaces its description/settings
func (r *SheetRepository) Update(ctx context.Context, sheet *models.Sheet) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = ?, %s = ?, %s = ?, %s = CURRENT_TIMESTAMP WHERE %s = ?
	`, constants.TableSheet,
		constants.FieldName, constants.FieldDescription, constants.FieldSettings,
		constants.FieldUpdatedAt, constants.FieldID)

	settings := sql.NullString{}
	if len(sheet.Settings) > 0 {
		settings = sql.NullString{String: string(sheet.Settings), Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query, sheet.Name, sheet.Description, settings, sheet.ID)
	if err != nil {
		return fmt.Errorf("failed to update sheet: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NewNotFoundError("Sheet", sheet.ID)
	}
	return nil
}

// Delete removes a sheet and everything hanging off it. Cells go first
// (they reference rows and columns), then rows, columns, links, history,
// grants, and finally the sheet itself. Must run inside a transaction.
func (r *SheetRepository) Delete(ctx context.Context, tx *sql.Tx, sheetID string) error {
	cellDelete := fmt.Sprintf(`
		DELETE c FROM %s c
		JOIN %s r ON r.%s = c.%s
		WHERE r.%s = ?
	`, constants.TableCell, constants.TableRow,
		constants.FieldID, constants.FieldRowID, constants.FieldSheetID)

	statements := []string{
		cellDelete,
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableRow, constants.FieldSheetID),
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableColumn, constants.FieldSheetID),
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableSheetLink, constants.FieldSheetID),
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableSheetHistory, constants.FieldSheetID),
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableSheetGrant, constants.FieldSheetID),
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableSheet, constants.FieldID),
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, sheetID); err != nil {
			return fmt.Errorf("failed to cascade delete sheet %s: %w", sheetID, err)
		}
	}
	return nil
}

// GetStats reads the precomputed stats view. Returns nil, nil on miss; the
// view is never synthesized from base tables here.
func (r *SheetRepository) GetStats(ctx context.Context, sheetID string) (*models.SheetStats, error) {
	query := fmt.Sprintf(`
		SELECT %s, row_count, column_count, cell_count
		FROM %s WHERE %s = ? LIMIT 1
	`, constants.FieldSheetID, constants.ViewSheetStats, constants.FieldSheetID)

	var stats models.SheetStats
	err := r.db.QueryRowContext(ctx, query, sheetID).Scan(
		&stats.SheetID, &stats.RowCount, &stats.ColumnCount, &stats.CellCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapSchemaDrift(constants.ViewSheetStats, err)
	}
	return &stats, nil
}

// InsertLink stores a public link record
func (r *SheetRepository) InsertLink(ctx context.Context, link *models.SheetLink) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, constants.TableSheetLink,
		constants.FieldID, constants.FieldSheetID, constants.FieldAccessKey, constants.FieldCreatedBy,
		constants.FieldCanView, constants.FieldCanEdit, constants.FieldCanDownload, constants.FieldExpiresAt)

	_, err := r.db.ExecContext(ctx, query,
		link.ID, link.SheetID, link.AccessKey, link.CreatedBy,
		link.CanView, link.CanEdit, link.CanDownload, link.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert sheet link: %w", err)
	}
	return nil
}

// GetLinkByKey retrieves a public link by its access key. Returns nil, nil
// when absent; expiry is checked by the caller.
func (r *SheetRepository) GetLinkByKey(ctx context.Context, accessKey string) (*models.SheetLink, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = ? LIMIT 1
	`, linkColumns(), constants.TableSheetLink, constants.FieldAccessKey)

	link, err := scanLink(r.db.QueryRowContext(ctx, query, accessKey))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sheet link: %w", err)
	}
	return link, nil
}

// ListLinks retrieves all public links for a sheet
func (r *SheetRepository) ListLinks(ctx context.Context, sheetID string) ([]*models.SheetLink, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = ? ORDER BY %s DESC
	`, linkColumns(), constants.TableSheetLink, constants.FieldSheetID, constants.FieldCreatedAt)

	rows, err := r.db.QueryContext(ctx, query, sheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheet links: %w", err)
	}
	defer rows.Close()

	var links []*models.SheetLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sheet link: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// DeleteLink removes a public link
func (r *SheetRepository) DeleteLink(ctx context.Context, linkID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableSheetLink, constants.FieldID)
	result, err := r.db.ExecContext(ctx, query, linkID)
	if err != nil {
		return fmt.Errorf("failed to delete sheet link: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NewNotFoundError("Sheet link", linkID)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func sheetColumns() string {
	return strings.Join([]string{
		constants.FieldID, constants.FieldName, constants.FieldDescription,
		constants.FieldOwnerID, constants.FieldIsActive, constants.FieldSettings,
		constants.FieldCreatedAt, constants.FieldUpdatedAt,
	}, ", ")
}

func scanSheet(s scanner) (*models.Sheet, error) {
	var sheet models.Sheet
	var description, settings sql.NullString

	err := s.Scan(&sheet.ID, &sheet.Name, &description, &sheet.OwnerID,
		&sheet.IsActive, &settings, &sheet.CreatedAt, &sheet.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		sheet.Description = &description.String
	}
	if settings.Valid {
		sheet.Settings = json.RawMessage(settings.String)
	}
	return &sheet, nil
}

func linkColumns() string {
	return strings.Join([]string{
		constants.FieldID, constants.FieldSheetID, constants.FieldAccessKey, constants.FieldCreatedBy,
		constants.FieldCanView, constants.FieldCanEdit, constants.FieldCanDownload,
		constants.FieldExpiresAt, constants.FieldCreatedAt,
	}, ", ")
}

func scanLink(s scanner) (*models.SheetLink, error) {
	var link models.SheetLink
	var expiresAt sql.NullTime

	err := s.Scan(&link.ID, &link.SheetID, &link.AccessKey, &link.CreatedBy,
		&link.CanView, &link.CanEdit, &link.CanDownload, &expiresAt, &link.CreatedAt)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		link.ExpiresAt = &expiresAt.Time
	}
	return &link, nil
}

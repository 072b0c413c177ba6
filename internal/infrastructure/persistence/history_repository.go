package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
)

// HistoryRepository handles database operations for sheet audit entries.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Insert appends one audit entry
func (r *HistoryRepository) Insert(ctx context.Context, entry *models.HistoryEntry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES (?, ?, ?, ?, ?)
	`, constants.TableSheetHistory,
		constants.FieldID, constants.FieldSheetID, constants.FieldActorID,
		constants.FieldAction, constants.FieldDetails)

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.SheetID, entry.ActorID, entry.Action, entry.Details)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// ListBySheet retrieves a sheet's audit trail, newest first
func (r *HistoryRepository) ListBySheet(ctx context.Context, sheetID string, limit int) ([]*models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = ? ORDER BY %s DESC LIMIT ?
	`, historyColumns(), constants.TableSheetHistory,
		constants.FieldSheetID, constants.FieldCreatedAt)

	rows, err := r.db.QueryContext(ctx, query, sheetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		var details sql.NullString
		if err := rows.Scan(&entry.ID, &entry.SheetID, &entry.ActorID,
			&entry.Action, &details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.Details = details.String
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func historyColumns() string {
	return strings.Join([]string{
		constants.FieldID, constants.FieldSheetID, constants.FieldActorID,
		constants.FieldAction, constants.FieldDetails, constants.FieldCreatedAt,
	}, ", ")
}

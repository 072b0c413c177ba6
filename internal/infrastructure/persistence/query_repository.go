package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/fieldgrid/backend/pkg/constants"
)

// QueryRepository runs the server-side search query for sheet data.
type QueryRepository struct {
	db *sql.DB
}

// NewQueryRepository creates a new QueryRepository
func NewQueryRepository(db *sql.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// SearchRowIDs returns the ids of non-deleted rows matching the free-text
// term (some cell contains it, case-insensitively) AND every per-column
// substring filter. Empty term and empty filters match all rows. The whole
// search is evaluated as a single query.
func (r *QueryRepository) SearchRowIDs(ctx context.Context, sheetID, term string, columnFilters map[string]string) ([]string, error) {
	var sb strings.Builder
	args := []interface{}{sheetID}

	fmt.Fprintf(&sb, "SELECT r.%s FROM %s r WHERE r.%s = ? AND r.%s = 0",
		constants.FieldID, constants.TableRow, constants.FieldSheetID, constants.FieldIsDeleted)

	if term != "" {
		fmt.Fprintf(&sb, ` AND EXISTS (
			SELECT 1 FROM %s c WHERE c.%s = r.%s AND LOWER(c.%s) LIKE ? ESCAPE '\\'
		)`, constants.TableCell, constants.FieldRowID, constants.FieldID, constants.FieldValue)
		args = append(args, likePattern(term))
	}

	// Deterministic filter order keeps the generated SQL stable for tests
	// and query plan caching.
	columnIDs := make([]string, 0, len(columnFilters))
	for columnID := range columnFilters {
		columnIDs = append(columnIDs, columnID)
	}
	sort.Strings(columnIDs)

	for _, columnID := range columnIDs {
		fmt.Fprintf(&sb, ` AND EXISTS (
			SELECT 1 FROM %s c WHERE c.%s = r.%s AND c.%s = ? AND LOWER(c.%s) LIKE ? ESCAPE '\\'
		)`, constants.TableCell, constants.FieldRowID, constants.FieldID,
			constants.FieldColumnID, constants.FieldValue)
		args = append(args, columnID, likePattern(columnFilters[columnID]))
	}

	fmt.Fprintf(&sb, " ORDER BY r.%s ASC", constants.FieldPosition)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search sheet data: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// likePattern lowercases the needle and escapes LIKE wildcards so user
// input is matched literally.
func likePattern(needle string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(needle))
	return "%" + escaped + "%"
}

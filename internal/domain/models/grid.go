package models

import (
	"encoding/json"
	"time"
)

// Sheet is a named container of typed columns and ordered rows.
type Sheet struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	OwnerID     string          `json:"owner_id"`
	IsActive    bool            `json:"is_active"`
	Settings    json.RawMessage `json:"settings,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Column is one typed column definition on a sheet. Position determines
// left-to-right render order; the store does not enforce uniqueness of
// positions, callers must avoid collisions.
type Column struct {
	ID              string          `json:"id"`
	SheetID         string          `json:"sheet_id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Position        int             `json:"position"`
	Width           int             `json:"width"`
	IsRequired      bool            `json:"is_required"`
	IsUnique        bool            `json:"is_unique"`
	DefaultValue    *string         `json:"default_value,omitempty"`
	ValidationRules json.RawMessage `json:"validation_rules,omitempty"`
	FormatOptions   json.RawMessage `json:"format_options,omitempty"`
}

// ValidationRules is the parsed form of a column's validation-rules bag.
type ValidationRules struct {
	// Options enumerates the allowed values for select columns.
	Options []string `json:"options,omitempty"`
	// Expression is an optional boolean rule evaluated against the
	// coerced cell value on write (`value` in scope).
	Expression string `json:"expression,omitempty"`
}

// Rules parses the column's validation-rules bag. A missing or malformed
// bag yields the zero value; validation is best-effort by design.
func (c *Column) Rules() ValidationRules {
	var rules ValidationRules
	if len(c.ValidationRules) > 0 {
		_ = json.Unmarshal(c.ValidationRules, &rules)
	}
	return rules
}

// Row is one ordered row on a sheet. A row's live cell set is exactly the
// sheet's columns at read time; columns added later read as absent until
// explicitly written.
type Row struct {
	ID        string          `json:"id"`
	SheetID   string          `json:"sheet_id"`
	Position  int             `json:"position"`
	IsDeleted bool            `json:"is_deleted"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`

	// Cells is keyed by column id. Populated on reads that join cells.
	Cells map[string]*Cell `json:"cells,omitempty"`
}

// Cell is the value at the intersection of one row and one column.
// At most one cell exists per (row, column) pair.
type Cell struct {
	ID                string  `json:"id"`
	RowID             string  `json:"row_id"`
	ColumnID          string  `json:"column_id"`
	Value             *string `json:"value"`
	FormattedValue    *string `json:"formatted_value,omitempty"`
	ValidationStatus  string  `json:"validation_status"`
	ValidationMessage *string `json:"validation_message,omitempty"`
	Version           int     `json:"version"`
}

// CellUpdate is one item of a bulk cell write.
type CellUpdate struct {
	RowID          string      `json:"row_id" binding:"required"`
	ColumnID       string      `json:"column_id" binding:"required"`
	Value          interface{} `json:"value"`
	FormattedValue *string     `json:"formatted_value,omitempty"`
}

// SheetLink is a public share link keyed by an opaque access key.
type SheetLink struct {
	ID          string     `json:"id"`
	SheetID     string     `json:"sheet_id"`
	AccessKey   string     `json:"access_key"`
	CreatedBy   string     `json:"created_by"`
	CanView     bool       `json:"can_view"`
	CanEdit     bool       `json:"can_edit"`
	CanDownload bool       `json:"can_download"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// HistoryEntry is one audit record for a sheet.
type HistoryEntry struct {
	ID        string    `json:"id"`
	SheetID   string    `json:"sheet_id"`
	ActorID   string    `json:"actor_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SheetStats is the precomputed per-sheet aggregate row.
type SheetStats struct {
	SheetID     string `json:"sheet_id"`
	RowCount    int64  `json:"row_count"`
	ColumnCount int64  `json:"column_count"`
	CellCount   int64  `json:"cell_count"`
}

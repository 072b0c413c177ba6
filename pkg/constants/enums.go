package constants

// Column types - the closed set of grid column types.
const (
	ColumnTypeText     = "text"
	ColumnTypeNumber   = "number"
	ColumnTypeDate     = "date"
	ColumnTypeCheckbox = "checkbox"
	ColumnTypeSelect   = "select"
	ColumnTypeEmail    = "email"
	ColumnTypeURL      = "url"
)

// ColumnTypes lists every valid column type, in declaration order.
var ColumnTypes = []string{
	ColumnTypeText,
	ColumnTypeNumber,
	ColumnTypeDate,
	ColumnTypeCheckbox,
	ColumnTypeSelect,
	ColumnTypeEmail,
	ColumnTypeURL,
}

// IsValidColumnType checks membership in the closed column-type set.
func IsValidColumnType(t string) bool {
	for _, ct := range ColumnTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// Cell validation statuses
const (
	ValidationValid   = "valid"
	ValidationInvalid = "invalid"
	ValidationWarning = "warning"
)

// Sheet grant levels - the closed permission set for sheets.
const (
	SheetLevelRead  = "read"
	SheetLevelWrite = "write"
	SheetLevelAdmin = "admin"
)

// SheetLevels lists the valid sheet permission levels.
var SheetLevels = []string{SheetLevelRead, SheetLevelWrite, SheetLevelAdmin}

// History actions recorded in grid_sheet_history.
const (
	HistorySheetCreated  = "sheet_created"
	HistorySheetUpdated  = "sheet_updated"
	HistoryColumnAdded   = "column_added"
	HistoryColumnsSynced = "columns_synced"
	HistoryRowAdded      = "row_added"
	HistoryRowDeleted    = "row_deleted"
	HistoryLinkCreated   = "link_created"
)

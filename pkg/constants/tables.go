package constants

// Table names used throughout the codebase for SQL generation.
const (
	// Grid tables
	TableSheet        = "grid_sheets"
	TableColumn       = "grid_columns"
	TableRow          = "grid_rows"
	TableCell         = "grid_cells"
	TableSheetLink    = "grid_sheet_links"
	TableSheetHistory = "grid_sheet_history"

	// Precomputed per-sheet aggregates (view over rows/columns/cells)
	ViewSheetStats = "grid_sheet_stats"

	// Permission grant tables, one per resource family
	TableSheetGrant      = "sheet_grants"
	TableFolderGrant     = "folder_grants"
	TableTrackerGrant    = "tracker_grants"
	TableSettlementGrant = "settlement_grants"

	// Security tables
	TableUser    = "users"
	TableSession = "sessions"

	// Inventory
	TableMaterialItem = "material_items"
)

package constants

// Default values applied when the caller does not specify one.
const (
	// DefaultColumnWidth is the pixel width hint for new columns.
	DefaultColumnWidth = 120

	// DefaultRowPurgeAfterDays is how long soft-deleted rows are kept
	// before the reaper hard-deletes them.
	DefaultRowPurgeAfterDays = 30

	// DefaultRowPurgeSchedule runs the reaper once a day at 03:00.
	DefaultRowPurgeSchedule = "0 3 * * *"

	// DefaultPort is the HTTP listen port.
	DefaultPort = "3001"

	// CellBulkBatchSize caps the number of rows per multi-row INSERT.
	CellBulkBatchSize = 100

	// CellBulkMaxRetries bounds deadlock retries for bulk cell writes.
	CellBulkMaxRetries = 3
)

// DefaultSheetColumn describes one column of the default set provisioned
// on sheet creation.
type DefaultSheetColumn struct {
	Name    string
	Type    string
	Options []string // select options, when Type is select
}

// DefaultSheetColumns is the fixed column set every new sheet starts with,
// provisioned at positions 0..8 in this order.
var DefaultSheetColumns = []DefaultSheetColumn{
	{Name: "Site ID", Type: ColumnTypeText},
	{Name: "Scenario", Type: ColumnTypeText},
	{Name: "MR Number", Type: ColumnTypeText},
	{Name: "IQF Number", Type: ColumnTypeText},
	{Name: "Status", Type: ColumnTypeSelect, Options: []string{"Pending", "Done", "Problem"}},
	{Name: "Date", Type: ColumnTypeDate},
	{Name: "Contractor", Type: ColumnTypeText},
	{Name: "Region", Type: ColumnTypeText},
	{Name: "Notes", Type: ColumnTypeText},
}

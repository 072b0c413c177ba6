package services

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/internal/infrastructure/persistence"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func newCellService(t *testing.T) (*CellService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	svc := NewCellService(persistence.NewTransactionManager(db),
		persistence.NewColumnRepository(db), persistence.NewRowRepository(db),
		persistence.NewCellRepository(db))
	return svc, mock, func() { db.Close() }
}

func columnRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "sheet_id", "name", "type", "position", "width",
		"is_required", "is_unique", "default_value", "validation_rules", "format_options"})
}

func cellRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "row_id", "column_id", "value", "formatted_value",
		"validation_status", "validation_message", "version"})
}

func TestBulkUpdateCellsRetriesDeadlock(t *testing.T) {
	svc, mock, done := newCellService(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM grid_columns WHERE sheet_id = ?")).
		WithArgs("sheet-1").
		WillReturnRows(columnRows().
			AddRow("col-1", "sheet-1", "Amount", constants.ColumnTypeNumber, 0, 150,
				false, false, nil, nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM grid_rows WHERE id = ?")).
		WithArgs("row-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "sheet_id", "position", "is_deleted", "deleted_at", "metadata"}).
			AddRow("row-1", "sheet-1", 0, false, nil, nil))

	// First attempt hits a deadlock and rolls back
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM grid_cells WHERE row_id = ? AND column_id = ?")).
		WithArgs("row-1", "col-1").
		WillReturnRows(cellRows())
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grid_cells")).
		WillReturnError(&mysql.MySQLError{
			Number:  1213,
			Message: "Deadlock found when trying to get lock; try restarting transaction",
		})
	mock.ExpectRollback()

	// Second attempt goes through cleanly
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM grid_cells WHERE row_id = ? AND column_id = ?")).
		WithArgs("row-1", "col-1").
		WillReturnRows(cellRows())
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grid_cells")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	cells, err := svc.BulkUpdateCells(context.Background(), "sheet-1", []models.CellUpdate{
		{RowID: "row-1", ColumnID: "col-1", Value: "42"},
	})
	assert.NoError(t, err)
	// The retried batch must not accumulate results from the failed attempt
	assert.Len(t, cells, 1)
	assert.Equal(t, 1, cells[0].Version)
	assert.Equal(t, "42", *cells[0].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoerceForColumnNumber(t *testing.T) {
	col := &models.Column{Type: constants.ColumnTypeNumber}

	r := CoerceForColumn(col, "12.50")
	assert.Equal(t, constants.ValidationValid, r.Status)
	assert.Equal(t, "12.5", r.Value.String)

	r = CoerceForColumn(col, "twelve")
	assert.Equal(t, constants.ValidationInvalid, r.Status)
	assert.Equal(t, "twelve", r.Value.String)
}

func TestCoerceForColumnRequired(t *testing.T) {
	col := &models.Column{Type: constants.ColumnTypeText, IsRequired: true}

	r := CoerceForColumn(col, "")
	assert.Equal(t, constants.ValidationInvalid, r.Status)
	assert.Equal(t, "value is required", r.Message)

	r = CoerceForColumn(col, "present")
	assert.Equal(t, constants.ValidationValid, r.Status)
}

func TestCoerceForColumnSelectOptions(t *testing.T) {
	rules, _ := json.Marshal(models.ValidationRules{Options: []string{"Pending", "Done"}})
	col := &models.Column{Type: constants.ColumnTypeSelect, ValidationRules: rules}

	r := CoerceForColumn(col, "Done")
	assert.Equal(t, constants.ValidationValid, r.Status)

	r = CoerceForColumn(col, "Maybe")
	assert.Equal(t, constants.ValidationInvalid, r.Status)
}

func TestCoerceForColumnRuleExpression(t *testing.T) {
	rules, _ := json.Marshal(models.ValidationRules{Expression: "value >= 0"})
	col := &models.Column{Type: constants.ColumnTypeNumber, ValidationRules: rules}

	r := CoerceForColumn(col, float64(5))
	assert.Equal(t, constants.ValidationValid, r.Status)

	// A failing business rule is a warning, not a type error
	r = CoerceForColumn(col, float64(-5))
	assert.Equal(t, constants.ValidationWarning, r.Status)
	assert.Equal(t, "-5", r.Value.String)
	assert.NotEmpty(t, r.Message)
}

func TestCoerceForColumnRuleSkippedForInvalidValue(t *testing.T) {
	rules, _ := json.Marshal(models.ValidationRules{Expression: "value >= 0"})
	col := &models.Column{Type: constants.ColumnTypeNumber, ValidationRules: rules}

	// The type error wins; the rule never runs
	r := CoerceForColumn(col, "abc")
	assert.Equal(t, constants.ValidationInvalid, r.Status)
}

func TestCoerceForColumnUnknownType(t *testing.T) {
	col := &models.Column{Type: "geo_point"}

	r := CoerceForColumn(col, "59.33,18.07")
	assert.Equal(t, constants.ValidationValid, r.Status)
	assert.Equal(t, "59.33,18.07", r.Value.String)
}

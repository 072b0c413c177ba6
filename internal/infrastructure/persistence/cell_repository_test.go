package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestGetCellByRowColumnMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCellRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(fmt.Sprintf("FROM %s WHERE %s = ? AND %s = ?",
		constants.TableCell, constants.FieldRowID, constants.FieldColumnID))).
		WithArgs("row-1", "col-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "row_id", "column_id", "value", "formatted_value",
			"validation_status", "validation_message", "version"}))

	cell, err := repo.GetByRowColumn(context.Background(), nil, "row-1", "col-1")
	assert.NoError(t, err)
	assert.Nil(t, cell)
}

func TestInsertCellStartsAtVersionOne(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCellRepository(db)

	cell := &models.Cell{
		ID:               "cell-1",
		RowID:            "row-1",
		ColumnID:         "col-1",
		Value:            strPtr("42"),
		ValidationStatus: constants.ValidationValid,
	}

	mock.ExpectExec(regexp.QuoteMeta("VALUES (?, ?, ?, ?, ?, ?, ?, 1)")).
		WithArgs("cell-1", "row-1", "col-1", "42", nil, constants.ValidationValid, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Insert(context.Background(), nil, cell)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCellValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCellRepository(db)

	cell := &models.Cell{
		ID:               "cell-1",
		RowID:            "row-1",
		ColumnID:         "col-1",
		Value:            strPtr("done"),
		ValidationStatus: constants.ValidationValid,
		Version:          3,
	}

	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("%s = %s + 1", constants.FieldVersion, constants.FieldVersion))).
		WithArgs("done", nil, constants.ValidationValid, nil, "cell-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateValue(context.Background(), nil, cell, nil)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateCellValueVersionConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCellRepository(db)

	cell := &models.Cell{
		ID:               "cell-1",
		Value:            strPtr("stale write"),
		ValidationStatus: constants.ValidationValid,
	}
	expected := 2

	// The stored version moved on, CAS matches nothing
	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("AND %s = ?", constants.FieldVersion))).
		WithArgs("stale write", nil, constants.ValidationValid, nil, "cell-1", expected).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateValue(context.Background(), nil, cell, &expected)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestBulkInsertCells(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCellRepository(db)

	cells := []*models.Cell{
		{ID: "c1", RowID: "r1", ColumnID: "colA", Value: strPtr(""), ValidationStatus: constants.ValidationValid},
		{ID: "c2", RowID: "r1", ColumnID: "colB", Value: strPtr("0"), ValidationStatus: constants.ValidationValid},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("(?, ?, ?, ?, ?, ?, ?, 1), (?, ?, ?, ?, ?, ?, ?, 1)")).
		WithArgs(
			"c1", "r1", "colA", "", nil, constants.ValidationValid, nil,
			"c2", "r1", "colB", "0", nil, constants.ValidationValid, nil).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.Begin()
	assert.NoError(t, err)

	err = repo.BulkInsert(context.Background(), tx, cells)
	assert.NoError(t, err)
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertNoCells(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCellRepository(db)
	assert.NoError(t, repo.BulkInsert(context.Background(), nil, nil))
}

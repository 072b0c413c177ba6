package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/stretchr/testify/assert"
)

func TestSoftDeleteRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRowRepository(db)

	query := fmt.Sprintf("UPDATE %s SET %s = 1, %s = CURRENT_TIMESTAMP WHERE %s = ? AND %s = 0",
		constants.TableRow, constants.FieldIsDeleted, constants.FieldDeletedAt,
		constants.FieldID, constants.FieldIsDeleted)

	// First delete flips the flag
	mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs("row-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.SoftDelete(context.Background(), "row-1")
	assert.NoError(t, err)
	assert.True(t, deleted)

	// Deleting an already-deleted row affects nothing
	mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs("row-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err = repo.SoftDelete(context.Background(), "row-1")
	assert.NoError(t, err)
	assert.False(t, deleted)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaxRowPositionEmptySheet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRowRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(position), -1)")).
		WithArgs("sheet-1").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(-1))

	max, err := repo.MaxPosition(context.Background(), "sheet-1")
	assert.NoError(t, err)
	assert.Equal(t, -1, max)
}

func TestGetRowByIDMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRowRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(fmt.Sprintf("FROM %s WHERE %s = ?", constants.TableRow, constants.FieldID))).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "sheet_id", "position", "is_deleted", "deleted_at", "metadata"}))

	row, err := repo.GetByID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, row)
}

func TestPurgeDeletedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRowRepository(db)
	cutoff := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	// Cells go first, then the rows themselves
	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("DELETE c FROM %s c", constants.TableCell))).
		WithArgs(cutoff, "sheet-1").
		WillReturnResult(sqlmock.NewResult(0, 6))
	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("DELETE r FROM %s r", constants.TableRow))).
		WithArgs(cutoff, "sheet-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.Begin()
	assert.NoError(t, err)

	purged, err := repo.PurgeDeleted(context.Background(), tx, "sheet-1", cutoff)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeDeletedRowsAllSheets(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRowRepository(db)
	cutoff := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE c FROM")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE r FROM")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := db.Begin()
	assert.NoError(t, err)

	purged, err := repo.PurgeDeleted(context.Background(), tx, "", cutoff)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), purged)

	assert.NoError(t, tx.Commit())
}

package persistence

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestSearchRowIDsNoCriteria(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewQueryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT r.id FROM grid_rows r WHERE r.sheet_id = ? AND r.is_deleted = 0")).
		WithArgs("sheet-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("row-1").AddRow("row-2"))

	ids, err := repo.SearchRowIDs(context.Background(), "sheet-1", "", nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{"row-1", "row-2"}, ids)
}

func TestSearchRowIDsTermAndFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewQueryRepository(db)

	// Term pattern first, then filters in sorted column-id order
	mock.ExpectQuery(regexp.QuoteMeta("LIKE ? ESCAPE")).
		WithArgs("sheet-1", "%mr-104%", "col-a", "%done%", "col-b", "%north%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("row-7"))

	ids, err := repo.SearchRowIDs(context.Background(), "sheet-1", "MR-104", map[string]string{
		"col-b": "North",
		"col-a": "Done",
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"row-7"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%abc%", likePattern("abc"))
	assert.Equal(t, "%abc%", likePattern("ABC"))
	// LIKE wildcards in user input are matched literally
	assert.Equal(t, `%100\%%`, likePattern("100%"))
	assert.Equal(t, `%a\_b%`, likePattern("a_b"))
	assert.Equal(t, `%c:\\temp%`, likePattern(`c:\temp`))
}

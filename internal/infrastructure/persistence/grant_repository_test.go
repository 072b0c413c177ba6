package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/fieldgrid/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func sheetFamily() *models.GrantFamily {
	return &models.GrantFamily{
		Name:       "sheets",
		Table:      constants.TableSheetGrant,
		ResourceFK: constants.FieldSheetID,
		Shape:      models.ShapeLevel,
		Levels:     constants.SheetLevels,
	}
}

func folderFamily() *models.GrantFamily {
	return &models.GrantFamily{
		Name:       "folders",
		Table:      constants.TableFolderGrant,
		ResourceFK: constants.FieldFolderID,
		Shape:      models.ShapeFlags,
		Flags:      []string{constants.FieldCanView, constants.FieldCanEdit, constants.FieldCanDelete},
	}
}

func TestGrantExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewGrantRepository(db)

	query := "SELECT EXISTS(SELECT 1 FROM sheet_grants WHERE sheet_id = ? AND user_id = ?)"
	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("sheet-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), sheetFamily(), "sheet-1", "user-1")
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestInsertGrantLevelShape(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewGrantRepository(db)

	query := "INSERT INTO sheet_grants (id, sheet_id, user_id, granted_by, permission_level) VALUES (?, ?, ?, ?, ?)"
	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs("grant-1", "sheet-1", "user-1", "owner-1", constants.SheetLevelWrite).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Insert(context.Background(), sheetFamily(), &models.Grant{
		ID:         "grant-1",
		ResourceID: "sheet-1",
		UserID:     "user-1",
		Level:      constants.SheetLevelWrite,
		GrantedBy:  "owner-1",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertGrantFlagShape(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewGrantRepository(db)

	query := "INSERT INTO folder_grants (id, folder_id, user_id, granted_by, can_view, can_edit, can_delete) VALUES (?, ?, ?, ?, ?, ?, ?)"
	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs("grant-2", "folder-1", "user-1", "owner-1", true, true, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Insert(context.Background(), folderFamily(), &models.Grant{
		ID:         "grant-2",
		ResourceID: "folder-1",
		UserID:     "user-1",
		Flags:      map[string]bool{constants.FieldCanView: true, constants.FieldCanEdit: true},
		GrantedBy:  "owner-1",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateGrantMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewGrantRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sheet_grants SET permission_level = ? WHERE id = ?")).
		WithArgs(constants.SheetLevelAdmin, "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Zero rows triggers a re-read to tell "missing" from "no-op"
	mock.ExpectQuery(regexp.QuoteMeta("WHERE g.id = ?")).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "sheet_id", "user_id", "name", "email", "granted_by", "created_at", "permission_level"}))

	err = repo.Update(context.Background(), sheetFamily(), "gone", constants.SheetLevelAdmin, nil)
	assert.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestDeleteGrantNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewGrantRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM folder_grants WHERE id = ?")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Delete(context.Background(), folderFamily(), "gone")
	assert.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestListGrantsByResourceFlagShape(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewGrantRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE g.folder_id = ?")).
		WithArgs("folder-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "folder_id", "user_id", "name", "email", "granted_by", "created_at",
			"can_view", "can_edit", "can_delete"}).
			AddRow("grant-2", "folder-1", "user-1", "Dana", "dana@example.com", "owner-1", now, true, true, false))

	grants, err := repo.ListByResource(context.Background(), folderFamily(), "folder-1")
	assert.NoError(t, err)
	assert.Len(t, grants, 1)
	assert.Equal(t, "Dana", grants[0].UserName)
	assert.True(t, grants[0].Flags[constants.FieldCanView])
	assert.True(t, grants[0].Flags[constants.FieldCanEdit])
	assert.False(t, grants[0].Flags[constants.FieldCanDelete])
}

func TestListGrantsFlagsFromDriverValues(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewGrantRepository(db)

	// TINYINT flags arrive as int64 or raw bytes depending on the protocol
	mock.ExpectQuery(regexp.QuoteMeta("WHERE g.folder_id = ?")).
		WithArgs("folder-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "folder_id", "user_id", "name", "email", "granted_by", "created_at",
			"can_view", "can_edit", "can_delete"}).
			AddRow("grant-3", "folder-1", "user-2", "Sam", "sam@example.com", "owner-1", time.Now(),
				[]byte("1"), int64(1), int64(0)))

	grants, err := repo.ListByResource(context.Background(), folderFamily(), "folder-1")
	assert.NoError(t, err)
	assert.Len(t, grants, 1)
	assert.True(t, grants[0].Flags[constants.FieldCanView])
	assert.True(t, grants[0].Flags[constants.FieldCanEdit])
	assert.False(t, grants[0].Flags[constants.FieldCanDelete])
}

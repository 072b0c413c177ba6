package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fieldgrid/backend/internal/infrastructure/persistence"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/fieldgrid/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func newPermissionService(t *testing.T) (*PermissionService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	svc := NewPermissionService(persistence.NewGrantRepository(db), persistence.NewUserRepository(db))
	return svc, mock, func() { db.Close() }
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "password", "is_admin", "is_active", "created_at"})
}

func TestFamilyRegistry(t *testing.T) {
	svc, _, done := newPermissionService(t)
	defer done()

	for _, name := range []string{"sheets", "folders", "trackers", "settlement"} {
		fam, err := svc.Family(name)
		assert.NoError(t, err)
		assert.Equal(t, name, fam.Name)
	}

	_, err := svc.Family("widgets")
	assert.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestGrantLevelShape(t *testing.T) {
	svc, mock, done := newPermissionService(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("dana@example.com").
		WillReturnRows(userRows().AddRow("user-1", "Dana", "dana@example.com", "hash", false, true, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM sheet_grants")).
		WithArgs("sheet-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sheet_grants")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	grant, err := svc.Grant(context.Background(), "sheets", "sheet-1", GrantRequest{
		Email: "dana@example.com",
		Level: constants.SheetLevelWrite,
	}, "owner-1")
	assert.NoError(t, err)
	assert.Equal(t, "user-1", grant.UserID)
	assert.Equal(t, constants.SheetLevelWrite, grant.Level)
	assert.Equal(t, "Dana", grant.UserName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantUnknownUser(t *testing.T) {
	svc, mock, done := newPermissionService(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("nobody@example.com").
		WillReturnRows(userRows())

	_, err := svc.Grant(context.Background(), "sheets", "sheet-1", GrantRequest{
		Email: "nobody@example.com",
		Level: constants.SheetLevelRead,
	}, "owner-1")
	assert.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestGrantDuplicateIsConflict(t *testing.T) {
	svc, mock, done := newPermissionService(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("dana@example.com").
		WillReturnRows(userRows().AddRow("user-1", "Dana", "dana@example.com", "hash", false, true, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM sheet_grants")).
		WithArgs("sheet-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.Grant(context.Background(), "sheets", "sheet-1", GrantRequest{
		Email: "dana@example.com",
		Level: constants.SheetLevelRead,
	}, "owner-1")
	assert.Error(t, err)
	assert.True(t, errors.IsConflict(err))
}

func TestGrantInvalidLevel(t *testing.T) {
	svc, mock, done := newPermissionService(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("dana@example.com").
		WillReturnRows(userRows().AddRow("user-1", "Dana", "dana@example.com", "hash", false, true, time.Now()))

	_, err := svc.Grant(context.Background(), "sheets", "sheet-1", GrantRequest{
		Email: "dana@example.com",
		Level: "superuser",
	}, "owner-1")
	assert.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestGrantSettlementAcceptsCanDelete(t *testing.T) {
	svc, mock, done := newPermissionService(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("dana@example.com").
		WillReturnRows(userRows().AddRow("user-1", "Dana", "dana@example.com", "hash", false, true, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM settlement_grants")).
		WithArgs("tracker-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO settlement_grants")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Settlement trackers carry the full tracker flag set
	grant, err := svc.Grant(context.Background(), "settlement", "tracker-1", GrantRequest{
		Email: "dana@example.com",
		Flags: map[string]bool{constants.FieldCanView: true, constants.FieldCanDelete: true},
	}, "owner-1")
	assert.NoError(t, err)
	assert.True(t, grant.Flags[constants.FieldCanDelete])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantFlagShapeValidation(t *testing.T) {
	svc, mock, done := newPermissionService(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("dana@example.com").
		WillReturnRows(userRows().AddRow("user-1", "Dana", "dana@example.com", "hash", false, true, time.Now()))

	// Folders have no can_manage flag
	_, err := svc.Grant(context.Background(), "folders", "folder-1", GrantRequest{
		Email: "dana@example.com",
		Flags: map[string]bool{constants.FieldCanManage: true},
	}, "owner-1")
	assert.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

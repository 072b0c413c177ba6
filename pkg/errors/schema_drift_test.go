package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsMissingSchemaObjectByNumber(t *testing.T) {
	for _, number := range []uint16{1146, 1054, 1356} {
		err := &mysql.MySQLError{Number: number, Message: "boom"}
		assert.True(t, IsMissingSchemaObject(err), "error number %d", number)
	}

	assert.False(t, IsMissingSchemaObject(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, IsMissingSchemaObject(nil))
}

func TestIsMissingSchemaObjectByText(t *testing.T) {
	// Proxies sometimes rewrite driver errors into plain text
	assert.True(t, IsMissingSchemaObject(errors.New("Table 'fieldgrid.grid_cells' doesn't exist")))
	assert.True(t, IsMissingSchemaObject(errors.New("Unknown column 'version' in 'field list'")))
	assert.False(t, IsMissingSchemaObject(errors.New("connection refused")))
}

func TestWrapSchemaDrift(t *testing.T) {
	cause := &mysql.MySQLError{Number: 1146, Message: "Table 'fieldgrid.grid_rows' doesn't exist"}
	err := WrapSchemaDrift("grid_rows", cause)
	assert.True(t, IsSchemaDrift(err))
	assert.Contains(t, err.Error(), "grid_rows")

	// Wrapping survives further annotation
	wrapped := fmt.Errorf("failed to list rows: %w", err)
	assert.True(t, IsSchemaDrift(wrapped))

	// Unrelated errors pass through untouched
	other := errors.New("deadlock found")
	assert.Equal(t, other, WrapSchemaDrift("grid_rows", other))
	assert.False(t, IsSchemaDrift(other))

	assert.NoError(t, WrapSchemaDrift("grid_rows", nil))
}

func TestErrorTypeHelpers(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("Sheet", "s1")))
	assert.True(t, IsValidation(NewValidationError("name", "is required")))
	assert.True(t, IsConflict(NewConflictError("Cell", "version", "3")))
	assert.True(t, IsUnauthorized(NewUnauthorizedError("expired")))

	wrapped := fmt.Errorf("context: %w", NewNotFoundError("Row", "r1"))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))
}

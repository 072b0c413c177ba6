package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// SchemaDriftError means an expected table or column is missing from the
// database. Read routes that can render a "needs setup" state convert this
// to HTTP 200 with a tableExists:false flag instead of an error status.
type SchemaDriftError struct {
	Object string
	Cause  error
}

func (e *SchemaDriftError) Error() string {
	if e.Object != "" {
		return fmt.Sprintf("schema drift: %s does not exist", e.Object)
	}
	return "schema drift: expected table or column does not exist"
}

func (e *SchemaDriftError) HTTPStatus() int {
	return http.StatusInternalServerError
}

func (e *SchemaDriftError) Code() string {
	return "SCHEMA_DRIFT"
}

func (e *SchemaDriftError) Unwrap() error {
	return e.Cause
}

// NewSchemaDriftError creates a new SchemaDriftError
func NewSchemaDriftError(object string, cause error) *SchemaDriftError {
	return &SchemaDriftError{Object: object, Cause: cause}
}

// IsSchemaDrift checks if an error is (or wraps) a SchemaDriftError
func IsSchemaDrift(err error) bool {
	var drift *SchemaDriftError
	return errors.As(err, &drift)
}

// MySQL error numbers for missing schema objects:
// - 1146: table doesn't exist
// - 1054: unknown column
// - 1356: view references invalid table/column
const (
	mysqlErrNoSuchTable   = 1146
	mysqlErrBadFieldError = 1054
	mysqlErrViewInvalid   = 1356
)

// IsMissingSchemaObject reports whether a raw datastore error indicates a
// missing table, column, or view. Matches driver error numbers first, then
// falls back on message text for proxies that rewrite errors.
func IsMissingSchemaObject(err error) bool {
	if err == nil {
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlErrNoSuchTable, mysqlErrBadFieldError, mysqlErrViewInvalid:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "doesn't exist") ||
		strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "unknown column")
}

// WrapSchemaDrift converts missing-schema datastore errors into
// SchemaDriftError and passes everything else through unchanged.
func WrapSchemaDrift(object string, err error) error {
	if err == nil {
		return nil
	}
	if IsMissingSchemaObject(err) {
		return NewSchemaDriftError(object, err)
	}
	return err
}

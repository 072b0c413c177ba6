package celltypes

import (
	"testing"
	"time"

	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/stretchr/testify/assert"
)

func coerce(t *testing.T, typeName string, raw interface{}, opts Options) Result {
	t.Helper()
	plugin, ok := GetRegistry().Get(typeName)
	if !ok {
		t.Fatalf("column type %q not registered", typeName)
	}
	return plugin.Coerce(raw, opts)
}

func TestRegistryHasBuiltinTypes(t *testing.T) {
	for _, name := range constants.ColumnTypes {
		_, ok := GetRegistry().Get(name)
		assert.True(t, ok, "missing plugin for %q", name)
	}
}

func TestNumberCoerce(t *testing.T) {
	r := coerce(t, constants.ColumnTypeNumber, float64(42), Options{})
	assert.Equal(t, constants.ValidationValid, r.Status)
	assert.Equal(t, "42", r.Value.String)

	r = coerce(t, constants.ColumnTypeNumber, "3.50", Options{})
	assert.Equal(t, constants.ValidationValid, r.Status)
	assert.Equal(t, "3.5", r.Value.String)

	// Invalid input is kept, not dropped
	r = coerce(t, constants.ColumnTypeNumber, "12abc", Options{})
	assert.Equal(t, constants.ValidationInvalid, r.Status)
	assert.Equal(t, "12abc", r.Value.String)
	assert.NotEmpty(t, r.Message)
}

func TestNumberDefault(t *testing.T) {
	plugin, _ := GetRegistry().Get(constants.ColumnTypeNumber)
	d := plugin.Default()
	assert.True(t, d.Valid)
	assert.Equal(t, "0", d.String)
}

func TestDateCoerce(t *testing.T) {
	r := coerce(t, constants.ColumnTypeDate, "2026-08-31", Options{})
	assert.Equal(t, constants.ValidationValid, r.Status)
	assert.Equal(t, "2026-08-31", r.Value.String)

	// Timestamps are truncated to the date
	r = coerce(t, constants.ColumnTypeDate, "2026-08-31T14:05:00Z", Options{})
	assert.Equal(t, constants.ValidationValid, r.Status)
	assert.Equal(t, "2026-08-31", r.Value.String)

	r = coerce(t, constants.ColumnTypeDate, "31/08/2026", Options{})
	assert.Equal(t, constants.ValidationInvalid, r.Status)
	assert.Equal(t, "31/08/2026", r.Value.String)
}

func TestDateDefaultIsToday(t *testing.T) {
	plugin, _ := GetRegistry().Get(constants.ColumnTypeDate)
	d := plugin.Default()
	assert.True(t, d.Valid)
	assert.Equal(t, time.Now().Format("2006-01-02"), d.String)
}

func TestCheckboxCoerce(t *testing.T) {
	for _, truthy := range []interface{}{true, "true", "1", "yes", "ON"} {
		r := coerce(t, constants.ColumnTypeCheckbox, truthy, Options{})
		assert.Equal(t, constants.ValidationValid, r.Status)
		assert.Equal(t, "true", r.Value.String, "input %v", truthy)
	}
	for _, falsy := range []interface{}{false, "false", "0", "no", "", nil} {
		r := coerce(t, constants.ColumnTypeCheckbox, falsy, Options{})
		assert.Equal(t, constants.ValidationValid, r.Status)
		assert.Equal(t, "false", r.Value.String, "input %v", falsy)
	}

	r := coerce(t, constants.ColumnTypeCheckbox, "maybe", Options{})
	assert.Equal(t, constants.ValidationInvalid, r.Status)
}

func TestSelectCoerce(t *testing.T) {
	opts := Options{Choices: []string{"Pending", "Done", "Problem"}}

	r := coerce(t, constants.ColumnTypeSelect, "Done", opts)
	assert.Equal(t, constants.ValidationValid, r.Status)
	assert.Equal(t, "Done", r.Value.String)

	r = coerce(t, constants.ColumnTypeSelect, "Cancelled", opts)
	assert.Equal(t, constants.ValidationInvalid, r.Status)
	assert.Equal(t, "Cancelled", r.Value.String)

	// Empty clears the selection
	r = coerce(t, constants.ColumnTypeSelect, "", opts)
	assert.Equal(t, constants.ValidationValid, r.Status)
	assert.False(t, r.Value.Valid)

	// Without configured choices any value passes
	r = coerce(t, constants.ColumnTypeSelect, "anything", Options{})
	assert.Equal(t, constants.ValidationValid, r.Status)
}

func TestSelectDefaultIsNull(t *testing.T) {
	plugin, _ := GetRegistry().Get(constants.ColumnTypeSelect)
	assert.False(t, plugin.Default().Valid)
}

func TestEmailCoerce(t *testing.T) {
	r := coerce(t, constants.ColumnTypeEmail, "Crew.Lead@Example.COM", Options{})
	assert.Equal(t, constants.ValidationValid, r.Status)
	assert.Equal(t, "crew.lead@example.com", r.Value.String)

	r = coerce(t, constants.ColumnTypeEmail, "not-an-email", Options{})
	assert.Equal(t, constants.ValidationInvalid, r.Status)
}

func TestURLCoerce(t *testing.T) {
	r := coerce(t, constants.ColumnTypeURL, "https://example.com/report", Options{})
	assert.Equal(t, constants.ValidationValid, r.Status)

	r = coerce(t, constants.ColumnTypeURL, "ftp://example.com", Options{})
	assert.Equal(t, constants.ValidationInvalid, r.Status)

	r = coerce(t, constants.ColumnTypeURL, "no scheme", Options{})
	assert.Equal(t, constants.ValidationInvalid, r.Status)
}

func TestTextCoerceRendersJSONScalars(t *testing.T) {
	r := coerce(t, constants.ColumnTypeText, float64(7), Options{})
	assert.Equal(t, "7", r.Value.String)

	r = coerce(t, constants.ColumnTypeText, true, Options{})
	assert.Equal(t, "true", r.Value.String)

	r = coerce(t, constants.ColumnTypeText, nil, Options{})
	assert.Equal(t, "", r.Value.String)
	assert.True(t, r.Value.Valid)
}

func TestRegisterDuplicate(t *testing.T) {
	err := GetRegistry().Register(textPlugin{name: constants.ColumnTypeText})
	assert.Error(t, err)
}

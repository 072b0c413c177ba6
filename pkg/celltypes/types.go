package celltypes

import (
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fieldgrid/backend/pkg/constants"
)

func builtinPlugins() []Plugin {
	return []Plugin{
		textPlugin{name: constants.ColumnTypeText},
		numberPlugin{},
		datePlugin{},
		checkboxPlugin{},
		selectPlugin{},
		emailPlugin{},
		urlPlugin{},
	}
}

func valid(value string) Result {
	return Result{Value: sql.NullString{String: value, Valid: true}, Status: constants.ValidationValid}
}

func invalid(value, message string) Result {
	return Result{
		Value:   sql.NullString{String: value, Valid: true},
		Status:  constants.ValidationInvalid,
		Message: message,
	}
}

// rawString renders the incoming JSON value as a string. JSON numbers
// arrive as float64; render integers without a trailing ".0".
func rawString(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// textPlugin stores values as-is. It backs the text type and any future
// free-form types.
type textPlugin struct {
	name string
}

func (p textPlugin) Name() string             { return p.name }
func (p textPlugin) Default() sql.NullString { return sql.NullString{String: "", Valid: true} }
func (p textPlugin) Coerce(raw interface{}, _ Options) Result {
	return valid(rawString(raw))
}

type numberPlugin struct{}

func (numberPlugin) Name() string { return constants.ColumnTypeNumber }

func (numberPlugin) Default() sql.NullString {
	return sql.NullString{String: "0", Valid: true}
}

func (numberPlugin) Coerce(raw interface{}, _ Options) Result {
	s := strings.TrimSpace(rawString(raw))
	if s == "" {
		return valid("")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return invalid(s, "not a number")
	}
	return valid(strconv.FormatFloat(f, 'f', -1, 64))
}

type datePlugin struct{}

func (datePlugin) Name() string { return constants.ColumnTypeDate }

func (datePlugin) Default() sql.NullString {
	return sql.NullString{String: time.Now().Format("2006-01-02"), Valid: true}
}

func (datePlugin) Coerce(raw interface{}, _ Options) Result {
	s := strings.TrimSpace(rawString(raw))
	if s == "" {
		return valid("")
	}
	// Canonical form is date-only ISO. Accept full timestamps and truncate.
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return valid(t.Format("2006-01-02"))
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return valid(t.Format("2006-01-02"))
	}
	return invalid(s, "not a date (expected YYYY-MM-DD)")
}

type checkboxPlugin struct{}

func (checkboxPlugin) Name() string { return constants.ColumnTypeCheckbox }

func (checkboxPlugin) Default() sql.NullString {
	return sql.NullString{String: "false", Valid: true}
}

func (checkboxPlugin) Coerce(raw interface{}, _ Options) Result {
	switch v := raw.(type) {
	case bool:
		return valid(strconv.FormatBool(v))
	case nil:
		return valid("false")
	}
	s := strings.ToLower(strings.TrimSpace(rawString(raw)))
	switch s {
	case "true", "1", "yes", "on":
		return valid("true")
	case "false", "0", "no", "off", "":
		return valid("false")
	}
	return invalid(s, "not a boolean")
}

type selectPlugin struct{}

func (selectPlugin) Name() string { return constants.ColumnTypeSelect }

// Select columns default to null: no option is chosen.
func (selectPlugin) Default() sql.NullString {
	return sql.NullString{}
}

func (selectPlugin) Coerce(raw interface{}, opts Options) Result {
	s := strings.TrimSpace(rawString(raw))
	if s == "" {
		return Result{Value: sql.NullString{}, Status: constants.ValidationValid}
	}
	if len(opts.Choices) == 0 {
		return valid(s)
	}
	for _, choice := range opts.Choices {
		if choice == s {
			return valid(s)
		}
	}
	return invalid(s, fmt.Sprintf("%q is not one of the column options", s))
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type emailPlugin struct{}

func (emailPlugin) Name() string            { return constants.ColumnTypeEmail }
func (emailPlugin) Default() sql.NullString { return sql.NullString{String: "", Valid: true} }

func (emailPlugin) Coerce(raw interface{}, _ Options) Result {
	s := strings.TrimSpace(rawString(raw))
	if s == "" {
		return valid("")
	}
	if !emailRegex.MatchString(s) {
		return invalid(s, "not a valid email address")
	}
	return valid(strings.ToLower(s))
}

type urlPlugin struct{}

func (urlPlugin) Name() string            { return constants.ColumnTypeURL }
func (urlPlugin) Default() sql.NullString { return sql.NullString{String: "", Valid: true} }

func (urlPlugin) Coerce(raw interface{}, _ Options) Result {
	s := strings.TrimSpace(rawString(raw))
	if s == "" {
		return valid("")
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid(s, "not a valid http(s) URL")
	}
	return valid(s)
}

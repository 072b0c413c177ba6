package celltypes

import (
	"fmt"
	"strconv"

	"github.com/expr-lang/expr"
)

// EvaluateRule runs an optional validation expression from a column's
// validation-rules bag against a coerced cell value. The expression sees the
// canonical value as `value` (a float64 when it parses as a number, a string
// otherwise) and must return a boolean; true means the value passes.
//
// A failing rule downgrades the cell to warning status rather than invalid:
// the value is well-typed, it just breaks a business rule.
func EvaluateRule(source string, value string) (bool, error) {
	env := map[string]interface{}{
		"value": ruleValue(value),
	}

	program, err := expr.Compile(source, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("invalid validation expression: %w", err)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("validation expression failed: %w", err)
	}

	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("validation expression must return a boolean")
	}
	return ok, nil
}

func ruleValue(value string) interface{} {
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

package celltypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateRuleNumeric(t *testing.T) {
	ok, err := EvaluateRule("value >= 0 && value <= 100", "42")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvaluateRule("value >= 0 && value <= 100", "250")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateRuleString(t *testing.T) {
	ok, err := EvaluateRule(`value startsWith "MR-"`, "MR-104")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvaluateRule(`value startsWith "MR-"`, "104")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateRuleCompileError(t *testing.T) {
	_, err := EvaluateRule("value >=", "1")
	assert.Error(t, err)
}

func TestEvaluateRuleNonBoolean(t *testing.T) {
	_, err := EvaluateRule("value + 1", "1")
	assert.Error(t, err)
}

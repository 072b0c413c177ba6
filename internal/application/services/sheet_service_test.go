package services

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateAccessKey(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{13}-[0-9a-f]{16}$`)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		key := generateAccessKey()
		assert.Regexp(t, pattern, key)
		assert.False(t, seen[key], "access keys must not repeat")
		seen[key] = true
	}
}

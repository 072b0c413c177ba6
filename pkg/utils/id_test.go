package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateIDIsValidUUID(t *testing.T) {
	id := GenerateID()
	assert.NotEmpty(t, id)
	assert.True(t, IsValidUUID(id))
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("550e8400-e29b-41d4-a716-446655440000"))
	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("not-a-uuid"))
	assert.False(t, IsValidUUID("550e8400-e29b-41d4-a716-44665544zzzz"))
}

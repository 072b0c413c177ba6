package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Crew2024pass")
	assert.NoError(t, err)
	assert.NotEqual(t, "Crew2024pass", hash)

	assert.True(t, VerifyPassword("Crew2024pass", hash))
	assert.False(t, VerifyPassword("wrong-password", hash))
	assert.False(t, VerifyPassword("Crew2024pass", "not-a-bcrypt-hash"))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Crew2024pass", false},
		{"too short", "Ab1", true},
		{"no uppercase", "crew2024pass", true},
		{"no lowercase", "CREW2024PASS", true},
		{"no digit", "CrewFieldPass", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("crew@example.com"))
	assert.True(t, IsValidEmail("  dana.lead+site@field-grid.io  "))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("missing@tld"))
	assert.False(t, IsValidEmail(""))
}

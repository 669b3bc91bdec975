package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Sturdy1Password", false},
		{"too short", "Ab1", true},
		{"no uppercase", "alllower1", true},
		{"no lowercase", "ALLUPPER1", true},
		{"no digit", "NoDigitsHere", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("repair_fan-42"))
	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername("has space"))
	assert.Error(t, ValidateUsername("emoji😀name"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("customer@example.com"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(""))
}

func TestStruct(t *testing.T) {
	type payload struct {
		Name  string `validate:"required"`
		Email string `validate:"required,email"`
	}

	assert.NoError(t, Struct(payload{Name: "Jo", Email: "jo@example.com"}))

	err := Struct(payload{Email: "jo@example.com"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "required")

	err = Struct(payload{Name: "Jo", Email: "nope"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

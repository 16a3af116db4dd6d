package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrLookup", ErrLookup},
		{"ErrInvalidAddress", ErrInvalidAddress},
		{"ErrValidation", ErrValidation},
		{"ErrSnapshotIntegrity", ErrSnapshotIntegrity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Wrapping tests that wrapped errors keep their identity
func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("resolving scheme %q: %w", "ftp", ErrLookup)
	assert.True(t, errors.Is(wrapped, ErrLookup))
	assert.False(t, errors.Is(wrapped, ErrInvalidAddress))
	assert.Contains(t, wrapped.Error(), "lookup failed")
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Address: "examples:/a.md", Reason: "missing required 'Description' section"}
	assert.Equal(t, "validation failed for examples:/a.md: missing required 'Description' section", err.Error())
	assert.True(t, errors.Is(err, ErrValidation))

	anonymous := &ValidationError{Reason: "empty"}
	assert.Equal(t, "validation failed: empty", anonymous.Error())
}

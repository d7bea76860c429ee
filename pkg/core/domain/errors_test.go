package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidationError_Empty(t *testing.T) {
	assert.NoError(t, NewValidationError(nil))
	assert.NoError(t, NewValidationError([]FieldError{}))
}

func TestValidationError_MatchesKind(t *testing.T) {
	err := NewValidationError([]FieldError{{Field: "originalUrl", Message: "Invalid URL!"}})
	require.Error(t, err)

	wrapped := fmt.Errorf("shorten: %w", err)
	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.False(t, errors.Is(wrapped, ErrConflict))

	var ve *ValidationError
	require.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "originalUrl", ve.Fields[0].Field)
}

func TestValidationError_ByField(t *testing.T) {
	ve := &ValidationError{Fields: []FieldError{
		{Field: "password", Message: "password is a required field!"},
		{Field: "username", Message: "username must have 4-16 characters!"},
		{Field: "password", Message: "second"},
	}}

	got := ve.ByField()
	assert.Equal(t, []string{"password is a required field!", "second"}, got["password"])
	assert.Equal(t, []string{"username must have 4-16 characters!"}, got["username"])
	assert.Contains(t, ve.Error(), "username: username must have 4-16 characters!")
}

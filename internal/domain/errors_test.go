package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	err := NotFound("Booking not found")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Booking not found", err.Error())

	wrapped := fmt.Errorf("lookup: %w", Validation("name is required"))
	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.Equal(t, "name is required", Message(wrapped, "fallback"))
}

func TestMessageFallback(t *testing.T) {
	assert.Equal(t, "Internal server error", Message(errors.New("boom"), "Internal server error"))
	assert.Equal(t, "invalid status transition", (&Error{Kind: ErrInvalidTransition}).Error())
}

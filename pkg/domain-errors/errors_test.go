package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches wrapped domain error", func(t *testing.T) {
		base := New(CodeNotFound, "alert not found")
		err := fmt.Errorf("resolve: %w", base)
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("walks nested domain errors", func(t *testing.T) {
		inner := New(CodeInvariantViolation, "ring not closed")
		outer := Wrap(inner, CodeValidation, "invalid fence")
		assert.True(t, HasCode(outer, CodeValidation))
		assert.True(t, HasCode(outer, CodeInvariantViolation))
		assert.True(t, Is(outer, CodeValidation))
		assert.False(t, Is(outer, CodeInvariantViolation))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, HasCode(err, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(err))
	})
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternal, "noop"))

	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "location store unavailable")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "location store unavailable: connection refused", err.Error())
	assert.Equal(t, "location store unavailable", MessageOf(err))
}

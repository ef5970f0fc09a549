package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassOf(t *testing.T) {
	err := New(Targeting, "no element at (%d,%d)", 10, 20)
	assert.Equal(t, Targeting, ClassOf(err))
	assert.Equal(t, "targeting: no element at (10,20)", err.Error())

	wrapped := fmt.Errorf("step 3: %w", err)
	assert.Equal(t, Targeting, ClassOf(wrapped), "class survives wrapping")

	assert.Equal(t, Class(0), ClassOf(errors.New("plain")))
	assert.Equal(t, Class(0), ClassOf(nil))
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(Interaction, cause, "click at (5,5)")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, Interaction, ClassOf(err))
	assert.Contains(t, err.Error(), "interaction")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		class Class
		want  bool
	}{
		{Targeting, true},
		{Oracle, true},
		{Interaction, true},
		{Assertion, false},
		{Navigation, false},
	}
	for _, tt := range tests {
		t.Run(tt.class.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(New(tt.class, "boom")))
		})
	}

	assert.False(t, Retryable(errors.New("unclassified")))
	assert.False(t, Retryable(nil))
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "assertion", Assertion.String())
	assert.Equal(t, "navigation", Navigation.String())
	assert.Equal(t, "unknown", Class(99).String())
}

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNotFoundError_SelectsKind(t *testing.T) {
	tests := []struct {
		entity string
		want   Kind
	}{
		{"User", KindUserNotFound},
		{"Item", KindItemNotFound},
		{"Booking", KindBookingNotFound},
		{"Comment", KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.entity, func(t *testing.T) {
			err := NewNotFoundError(tt.entity, 42)
			assert.Equal(t, tt.want, err.Kind)
			assert.Contains(t, err.Error(), "42")
			assert.True(t, IsNotFound(err))
		})
	}
}

func TestKindOf_UnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", NewForbiddenError("nope"))
	assert.Equal(t, KindAccessDenied, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindAccessDenied))
	assert.False(t, IsNotFound(wrapped))
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, KindInternal))
}

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_MatchesKindAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("login: %w", NewError(ErrLoginFailed, "Login failed: connection refused", cause))

	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRegistrationFailed)
	assert.Equal(t, "login: Login failed: connection refused", err.Error())
}

func TestValidationError(t *testing.T) {
	t.Run("matches ErrValidationFailed", func(t *testing.T) {
		err := Invalid("phone", "is required")
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Equal(t, "phone: is required", err.Error())
	})

	t.Run("without field", func(t *testing.T) {
		err := Invalid("", "cart is empty")
		assert.Equal(t, "cart is empty", err.Error())
	})

	t.Run("extractable with errors.As", func(t *testing.T) {
		var verr *ValidationError
		wrapped := fmt.Errorf("decode: %w", Invalid("status", "unknown value %q", "lost"))
		if assert.ErrorAs(t, wrapped, &verr) {
			assert.Equal(t, "status", verr.Field)
		}
	})
}

func TestOrderStatus_Valid(t *testing.T) {
	for _, s := range []OrderStatus{"pending", "confirmed", "processing", "shipped", "delivered", "cancelled"} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, OrderStatus("refunded").Valid())
	assert.False(t, OrderStatus("").Valid())
}

package state

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vbonduro/drinkbudget/internal/domain"
)

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")

	assert.ErrorIs(t, &LoadError{Err: cause}, cause)
	assert.ErrorIs(t, &SaveError{Target: "item", Err: cause}, cause)
	assert.ErrorIs(t, &DeleteError{ItemID: "x", Err: cause}, cause)

	wrapped := fmt.Errorf("handler: %w", &SaveError{Target: "item", Err: domain.ErrUnauthorized})
	var saveErr *SaveError
	assert.True(t, errors.As(wrapped, &saveErr))
	assert.ErrorIs(t, wrapped, domain.ErrUnauthorized)
}

func TestUserMessage(t *testing.T) {
	invalidQuantity := domain.ItemValues{Name: "x", Category: domain.CategoryBeer}.Validate()
	invalidGuests := domain.ScalarValue{Field: domain.FieldGuestCount, Value: decimal.NewFromInt(-1)}.Validate()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unauthorized wins", &SaveError{Target: "item", Err: domain.ErrUnauthorized}, "You need to sign in to use this budget."},
		{"unauthorized load", &LoadError{Err: domain.ErrUnauthorized}, "You need to sign in to use this budget."},
		{"invalid item", &SaveError{Target: "item", Err: invalidQuantity}, "Please check the values: quantity must be at least 1."},
		{"invalid scalar", &SaveError{Target: "guest_count", Err: invalidGuests}, "Please check the values: guest count must not be negative."},
		{"not ready", &SaveError{Target: "item", Err: ErrNotReady}, "The budget has not been loaded yet."},
		{"superseded", &DeleteError{ItemID: "x", Err: ErrSuperseded}, "The budget was reloaded before the change finished. Please try again."},
		{"malformed", &LoadError{Err: domain.ErrMalformed}, "The saved budget could not be read."},
		{"load", &LoadError{Err: errors.New("timeout")}, "The budget could not be loaded. Please try again."},
		{"not found", &DeleteError{ItemID: "x", Err: domain.ErrNotFound}, "That item no longer exists."},
		{"delete", &DeleteError{ItemID: "x", Err: errors.New("io")}, "The item could not be deleted. Please try again."},
		{"save item", &SaveError{Target: "item", Err: errors.New("io")}, "The item could not be saved. Please try again."},
		{"save scalar", &SaveError{Target: "target_budget", Err: errors.New("io")}, "The budget could not be updated. Please try again."},
		{"other", errors.New("???"), "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

package state

import (
	"errors"
	"fmt"

	"github.com/vbonduro/drinkbudget/internal/domain"
)

var (
	// ErrNotReady is returned by mutations before a successful Load.
	ErrNotReady = errors.New("budget is not loaded")
	// ErrSuperseded is returned when Reset ran while a call was in flight.
	// The result of that call is discarded.
	ErrSuperseded = errors.New("budget was reset while the request was in flight")
)

type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("failed to load budget: %v", e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError reports a failed add, edit or scalar change. Target names what
// was being saved: "item" or a scalar field name.
type SaveError struct {
	Target string
	Err    error
}

func (e *SaveError) Error() string { return fmt.Sprintf("failed to save %s: %v", e.Target, e.Err) }

func (e *SaveError) Unwrap() error { return e.Err }

type DeleteError struct {
	ItemID string
	Err    error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("failed to delete item %s: %v", e.ItemID, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// UserMessage turns err into a sentence fit for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var fieldErr *domain.FieldError
	var loadErr *LoadError
	var saveErr *SaveError
	var deleteErr *DeleteError

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "You need to sign in to use this budget."
	case errors.As(err, &fieldErr):
		return "Please check the values: " + fieldErr.Detail + "."
	case errors.Is(err, ErrNotReady):
		return "The budget has not been loaded yet."
	case errors.Is(err, ErrSuperseded):
		return "The budget was reloaded before the change finished. Please try again."
	case errors.As(err, &loadErr):
		if errors.Is(err, domain.ErrMalformed) {
			return "The saved budget could not be read."
		}
		return "The budget could not be loaded. Please try again."
	case errors.Is(err, domain.ErrNotFound):
		return "That item no longer exists."
	case errors.As(err, &deleteErr):
		return "The item could not be deleted. Please try again."
	case errors.As(err, &saveErr):
		if saveErr.Target == "item" {
			return "The item could not be saved. Please try again."
		}
		return "The budget could not be updated. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

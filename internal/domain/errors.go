package domain

import "errors"

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
	ErrInvalidItem   = errors.New("invalid item")
	ErrInvalidScalar = errors.New("invalid budget field")
	ErrMalformed     = errors.New("malformed budget data")
	ErrDuplicateItem = errors.New("duplicate item id")
)

// FieldError is a validation failure on user input. Kind is ErrInvalidItem
// or ErrInvalidScalar; Detail is safe to show to the user.
type FieldError struct {
	Kind   error
	Detail string
}

func (e *FieldError) Error() string { return e.Kind.Error() + ": " + e.Detail }

func (e *FieldError) Unwrap() error { return e.Kind }

func invalid(kind error, detail string) error {
	return &FieldError{Kind: kind, Detail: detail}
}

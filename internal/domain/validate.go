package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the user-supplied fields. Errors wrap ErrInvalidItem.
func (v ItemValues) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return invalid(ErrInvalidItem, "name is required")
	}
	if err := validate.Struct(v); err != nil {
		return invalid(ErrInvalidItem, describe(err))
	}
	if v.UnitPrice.IsNegative() {
		return invalid(ErrInvalidItem, "unitPrice must not be negative")
	}
	return nil
}

// Validate checks the field name and its value range. Errors wrap ErrInvalidScalar.
func (v ScalarValue) Validate() error {
	switch v.Field {
	case FieldTargetBudget:
		if v.Value.IsNegative() {
			return invalid(ErrInvalidScalar, "target budget must not be negative")
		}
	case FieldGuestCount:
		if v.Value.IsNegative() {
			return invalid(ErrInvalidScalar, "guest count must not be negative")
		}
		if !v.Value.Equal(v.Value.Truncate(0)) {
			return invalid(ErrInvalidScalar, "guest count must be a whole number")
		}
	default:
		return invalid(ErrInvalidScalar, fmt.Sprintf("unknown field %q", v.Field))
	}
	return nil
}

// Validate checks a whole aggregate, as read back from persistence.
// Errors wrap ErrMalformed.
func (b *Budget) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: missing budget", ErrMalformed)
	}
	if !b.Currency.IsValid() {
		return fmt.Errorf("%w: unknown currency %q", ErrMalformed, b.Currency)
	}
	if b.TargetBudget.IsNegative() {
		return fmt.Errorf("%w: negative target budget", ErrMalformed)
	}
	if b.GuestCount < 0 {
		return fmt.Errorf("%w: negative guest count", ErrMalformed)
	}
	seen := make(map[string]struct{}, len(b.Items))
	for i, item := range b.Items {
		if item.ID == "" {
			return fmt.Errorf("%w: item %d has no id", ErrMalformed, i)
		}
		if _, ok := seen[item.ID]; ok {
			return fmt.Errorf("%w: %w %q", ErrMalformed, ErrDuplicateItem, item.ID)
		}
		seen[item.ID] = struct{}{}
		if err := item.Values().Validate(); err != nil {
			return fmt.Errorf("%w: item %q: %v", ErrMalformed, item.ID, err)
		}
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "max":
			if fe.Kind() == reflect.String {
				parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
			} else {
				parts = append(parts, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
			}
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

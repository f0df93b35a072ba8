package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategorySpirit       Category = "spirit"
	CategoryWine         Category = "wine"
	CategoryBeer         Category = "beer"
	CategoryNonAlcoholic Category = "non-alcoholic"
	CategoryOther        Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategorySpirit,
	CategoryWine,
	CategoryBeer,
	CategoryNonAlcoholic,
	CategoryOther,
}

func (c Category) IsValid() bool {
	switch c {
	case CategorySpirit, CategoryWine, CategoryBeer, CategoryNonAlcoholic, CategoryOther:
		return true
	default:
		return false
	}
}

// ParseCategory accepts any letter case and surrounding space.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrMalformed, s)
	}
	return c, nil
}

type Currency string

func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: unknown currency %q", ErrMalformed, s)
	}
	return c, nil
}

const (
	// CurrencyLocal is the event's local currency.
	CurrencyLocal Currency = "ARS"
	// CurrencyForeign is the foreign reference currency.
	CurrencyForeign Currency = "USD"
)

func (c Currency) IsValid() bool {
	return c == CurrencyLocal || c == CurrencyForeign
}

// LineItem is one purchasable beverage entry.
type LineItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    Category        `json:"category"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Purchased   bool            `json:"purchased"`
	Venue       string          `json:"venue"`
	Notes       string          `json:"notes"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// Subtotal is quantity × unit price.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Values returns the user-editable fields of the item.
func (li LineItem) Values() ItemValues {
	return ItemValues{
		Name:      li.Name,
		Category:  li.Category,
		Quantity:  li.Quantity,
		UnitPrice: li.UnitPrice,
		Purchased: li.Purchased,
		Venue:     li.Venue,
		Notes:     li.Notes,
	}
}

// WithValues overwrites every editable field, keeping the ID.
func (li LineItem) WithValues(v ItemValues, now time.Time) LineItem {
	return LineItem{
		ID:          li.ID,
		Name:        v.Name,
		Category:    v.Category,
		Quantity:    v.Quantity,
		UnitPrice:   v.UnitPrice,
		Purchased:   v.Purchased,
		Venue:       v.Venue,
		Notes:       v.Notes,
		LastUpdated: now,
	}
}

// ItemValues are the fields a user supplies when adding or editing an item.
type ItemValues struct {
	Name      string          `json:"name" validate:"required,max=200"`
	Category  Category        `json:"category" validate:"required,oneof=spirit wine beer non-alcoholic other"`
	Quantity  int             `json:"quantity" validate:"min=1,max=1000000"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Purchased bool            `json:"purchased"`
	Venue     string          `json:"venue" validate:"max=200"`
	Notes     string          `json:"notes" validate:"max=2000"`
}

// NewLineItem builds a fresh item from user values.
func NewLineItem(id string, v ItemValues, now time.Time) LineItem {
	return LineItem{ID: id}.WithValues(v, now)
}

// Budget is the aggregate: all line items of one event plus its scalar fields.
type Budget struct {
	ID           string          `json:"id"`
	Slug         string          `json:"slug,omitempty"`
	Owner        string          `json:"owner,omitempty"`
	Items        []LineItem      `json:"items"`
	TargetBudget decimal.Decimal `json:"targetBudget"`
	Currency     Currency        `json:"currency"`
	EventDate    *time.Time      `json:"eventDate,omitempty"`
	GuestCount   int             `json:"guestCount"`
}

// NewBudget returns a zeroed aggregate.
func NewBudget(id string, currency Currency) *Budget {
	return &Budget{
		ID:           id,
		Items:        []LineItem{},
		TargetBudget: decimal.Zero,
		Currency:     currency,
	}
}

type ScalarField string

const (
	FieldTargetBudget ScalarField = "target_budget"
	FieldGuestCount   ScalarField = "guest_count"
)

// ScalarValue is a change to one of the aggregate's independently editable
// scalars. Guest counts are carried as integral decimals.
type ScalarValue struct {
	Field ScalarField
	Value decimal.Decimal
}

// GuestCount returns the value as an int. Only meaningful after Validate.
func (v ScalarValue) GuestCount() int {
	return int(v.Value.IntPart())
}

// Package numinput cleans up numbers typed by a user before they reach the
// domain types.
package numinput

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmpty    = errors.New("value is required")
	ErrNegative = errors.New("value must not be negative")
)

var (
	decimalZeroPrefix = regexp.MustCompile(`^0[.,]`)
	leadingZeros      = regexp.MustCompile(`^0+(\d)`)
)

// Normalize drops leading zeros from raw. With allowDecimal, a "0." or "0,"
// prefix is kept so a fraction can still be typed.
func Normalize(raw string, allowDecimal bool) string {
	if raw == "" {
		return ""
	}
	if allowDecimal && decimalZeroPrefix.MatchString(raw) {
		return raw
	}
	return leadingZeros.ReplaceAllString(raw, "$1")
}

// ParseQuantity parses a whole, non-negative count.
func ParseQuantity(raw string) (int, error) {
	s := Normalize(strings.TrimSpace(raw), false)
	if s == "" {
		return 0, ErrEmpty
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", raw, err)
	}
	if n < 0 {
		return 0, ErrNegative
	}
	return n, nil
}

// ParseAmount parses a non-negative money amount. Both "," and "." are
// accepted as the decimal separator.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := Normalize(strings.TrimSpace(raw), true)
	if s == "" {
		return decimal.Zero, ErrEmpty
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegative
	}
	return d, nil
}

// Raw is a JSON value that may arrive either as a number or as a string.
type Raw string

func (r *Raw) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Raw(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected number or string: %w", err)
	}
	*r = Raw(n.String())
	return nil
}

func (r Raw) Quantity() (int, error) { return ParseQuantity(string(r)) }

func (r Raw) Amount() (decimal.Decimal, error) { return ParseAmount(string(r)) }

package numinput

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw          string
		allowDecimal bool
		want         string
	}{
		{"", false, ""},
		{"", true, ""},
		{"0", false, "0"},
		{"007", false, "7"},
		{"0012", true, "12"},
		{"0.5", true, "0.5"},
		{"0,5", true, "0,5"},
		{"0.5", false, "0.5"},
		{"000.5", true, "0.5"},
		{"120", false, "120"},
		{"abc", false, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw, tt.allowDecimal))
		})
	}
}

func TestParseQuantity(t *testing.T) {
	n, err := ParseQuantity("0003")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = ParseQuantity("")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ParseQuantity("-2")
	assert.ErrorIs(t, err, ErrNegative)

	_, err = ParseQuantity("1.5")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1500", "1500"},
		{"1500,75", "1500.75"},
		{"0,5", "0.5"},
		{"012.30", "12.3"},
		{" 7 ", "7"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}

	_, err := ParseAmount("-1")
	assert.ErrorIs(t, err, ErrNegative)

	_, err = ParseAmount("ten")
	assert.Error(t, err)
}

func TestRawUnmarshal(t *testing.T) {
	var body struct {
		Quantity Raw `json:"quantity"`
		Price    Raw `json:"price"`
		Missing  Raw `json:"missing"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"quantity": 4, "price": "12,50", "missing": null}`), &body))

	q, err := body.Quantity.Quantity()
	require.NoError(t, err)
	assert.Equal(t, 4, q)

	p, err := body.Price.Amount()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(p))

	assert.Equal(t, Raw(""), body.Missing)

	err = json.Unmarshal([]byte(`{"quantity": true}`), &body)
	assert.Error(t, err)
}

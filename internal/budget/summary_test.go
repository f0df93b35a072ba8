package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vbonduro/drinkbudget/internal/domain"
)

func TestNewBalance(t *testing.T) {
	savings := NewBalance(dec("40.00"), dec("100.00"))
	assert.Equal(t, StatusSavings, savings.Status)
	assert.Equal(t, "+", savings.Sign())
	assertDecimal(t, "60", savings.Magnitude())

	exceeded := NewBalance(dec("40.00"), dec("30.00"))
	assert.Equal(t, StatusExceeded, exceeded.Status)
	assert.Equal(t, "-", exceeded.Sign())
	assertDecimal(t, "10", exceeded.Magnitude())

	even := NewBalance(dec("40"), dec("40"))
	assert.Equal(t, StatusSavings, even.Status)
}

func TestSummarize(t *testing.T) {
	b := domain.NewBudget("b", domain.CurrencyLocal)
	b.TargetBudget = dec("100.00")
	b.GuestCount = 4
	b.Items = []domain.LineItem{
		item("a", 3, "10.00", true),
		item("b", 2, "5.00", false),
	}

	s := Summarize(b)
	assert.Equal(t, 5, s.TotalQuantity)
	assertDecimal(t, "40", s.TotalSpend)
	assertDecimal(t, "30", s.Actual)
	assertDecimal(t, "10", s.Pending)
	assertDecimal(t, "60", s.Balance.Remaining)
	assert.True(t, s.HasPerGuest)
	assert.Equal(t, "10.00", s.PerGuestDisplay())
	assert.Equal(t, domain.CurrencyLocal, s.Currency)
}

func TestSummarize_NoGuestsShowsPlaceholder(t *testing.T) {
	b := domain.NewBudget("b", domain.CurrencyForeign)
	b.Items = []domain.LineItem{item("a", 4, "10.00", false)}

	s := Summarize(b)
	assert.False(t, s.HasPerGuest)
	assert.Equal(t, PerGuestPlaceholder, s.PerGuestDisplay())
	assert.Equal(t, StatusExceeded, s.Balance.Status)
}

func TestSummarize_NilBudget(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.TotalQuantity)
	assert.Equal(t, PerGuestPlaceholder, s.PerGuestDisplay())
}

package budget

import (
	"github.com/shopspring/decimal"

	"github.com/vbonduro/drinkbudget/internal/domain"
)

type BalanceStatus string

const (
	StatusSavings  BalanceStatus = "savings"
	StatusExceeded BalanceStatus = "exceeded"
)

// Balance is the remaining budget split into an unsigned magnitude and a status.
type Balance struct {
	Remaining decimal.Decimal `json:"remaining"`
	Status    BalanceStatus   `json:"status"`
}

func NewBalance(total, target decimal.Decimal) Balance {
	remaining := RemainingBudget(total, target)
	status := StatusSavings
	if remaining.IsNegative() {
		status = StatusExceeded
	}
	return Balance{Remaining: remaining, Status: status}
}

func (b Balance) Magnitude() decimal.Decimal {
	return b.Remaining.Abs()
}

// Sign is "+" for savings (including zero) and "-" when exceeded.
func (b Balance) Sign() string {
	if b.Status == StatusExceeded {
		return "-"
	}
	return "+"
}

// PerGuestPlaceholder is shown when there are no guests to divide by.
const PerGuestPlaceholder = "—"

// Summary bundles every derived figure shown next to the item list.
type Summary struct {
	TotalQuantity int             `json:"totalQuantity"`
	TotalSpend    decimal.Decimal `json:"totalSpend"`
	Actual        decimal.Decimal `json:"actual"`
	Pending       decimal.Decimal `json:"pending"`
	TargetBudget  decimal.Decimal `json:"targetBudget"`
	Balance       Balance         `json:"balance"`
	GuestCount    int             `json:"guestCount"`
	PerGuest      decimal.Decimal `json:"perGuest"`
	HasPerGuest   bool            `json:"hasPerGuest"`
	Currency      domain.Currency `json:"currency"`
}

func Summarize(b *domain.Budget) Summary {
	if b == nil {
		return Summary{Balance: NewBalance(decimal.Zero, decimal.Zero)}
	}
	total := TotalSpend(b.Items)
	perGuest, ok := PerGuestCost(total, b.GuestCount)
	return Summary{
		TotalQuantity: TotalQuantity(b.Items),
		TotalSpend:    total,
		Actual:        TotalSpendActual(b.Items),
		Pending:       TotalSpendPending(b.Items),
		TargetBudget:  b.TargetBudget,
		Balance:       NewBalance(total, b.TargetBudget),
		GuestCount:    b.GuestCount,
		PerGuest:      perGuest,
		HasPerGuest:   ok,
		Currency:      b.Currency,
	}
}

func (s Summary) PerGuestDisplay() string {
	if !s.HasPerGuest {
		return PerGuestPlaceholder
	}
	return s.PerGuest.StringFixed(2)
}

// Package budget holds the derived-total calculations over a budget's line
// items. Every function is pure and leaves its input untouched.
package budget

import (
	"github.com/shopspring/decimal"

	"github.com/vbonduro/drinkbudget/internal/domain"
)

// TotalQuantity sums the quantity of every item.
func TotalQuantity(items []domain.LineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// TotalSpend sums quantity × unit price over every item.
func TotalSpend(items []domain.LineItem) decimal.Decimal {
	return sumWhere(items, func(domain.LineItem) bool { return true })
}

// TotalSpendActual only counts purchased items.
func TotalSpendActual(items []domain.LineItem) decimal.Decimal {
	return sumWhere(items, func(item domain.LineItem) bool { return item.Purchased })
}

// TotalSpendPending only counts items not yet purchased.
func TotalSpendPending(items []domain.LineItem) decimal.Decimal {
	return sumWhere(items, func(item domain.LineItem) bool { return !item.Purchased })
}

func sumWhere(items []domain.LineItem, keep func(domain.LineItem) bool) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if keep(item) {
			total = total.Add(item.Subtotal())
		}
	}
	return total
}

// RemainingBudget is target minus total. Negative means the target was exceeded.
func RemainingBudget(total, target decimal.Decimal) decimal.Decimal {
	return target.Sub(total)
}

// PerGuestCost divides total by guests. ok is false when there are no guests.
func PerGuestCost(total decimal.Decimal, guests int) (cost decimal.Decimal, ok bool) {
	if guests <= 0 {
		return decimal.Zero, false
	}
	return total.Div(decimal.NewFromInt(int64(guests))), true
}

// FilterByCategory returns the items of one category. The zero category
// matches everything. The result never aliases the input.
func FilterByCategory(items []domain.LineItem, category domain.Category) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		if category == "" || item.Category == category {
			out = append(out, item)
		}
	}
	return out
}

package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/drinkbudget/internal/db"
	"github.com/vbonduro/drinkbudget/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })
	return d
}

func TestBudgetStoreCreate(t *testing.T) {
	d := openTestDB(t)
	budgets := NewBudgetStore(d)
	ctx := context.Background()

	b, err := budgets.Create(ctx, "b1", "default", "ana@example.com", domain.CurrencyLocal)
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)
	assert.Equal(t, "default", b.Slug)
	assert.Equal(t, "ana@example.com", b.Owner)
	assert.Equal(t, domain.CurrencyLocal, b.Currency)
	assert.True(t, b.TargetBudget.IsZero())
	assert.Equal(t, 0, b.GuestCount)
	assert.Nil(t, b.EventDate)
	assert.Empty(t, b.Items)
}

func TestBudgetStoreCreate_ExistingRowWins(t *testing.T) {
	d := openTestDB(t)
	budgets := NewBudgetStore(d)
	ctx := context.Background()

	first, err := budgets.Create(ctx, "b1", "default", "ana@example.com", domain.CurrencyForeign)
	require.NoError(t, err)
	require.NoError(t, budgets.UpdateGuestCount(ctx, first.ID, 10))

	second, err := budgets.Create(ctx, "b2", "default", "ana@example.com", domain.CurrencyLocal)
	require.NoError(t, err)
	assert.Equal(t, "b1", second.ID)
	assert.Equal(t, domain.CurrencyForeign, second.Currency)
	assert.Equal(t, 10, second.GuestCount)

	other, err := budgets.Create(ctx, "b3", "default", "bob@example.com", domain.CurrencyLocal)
	require.NoError(t, err)
	assert.Equal(t, "b3", other.ID)
}

func TestBudgetStoreGet_NotFound(t *testing.T) {
	d := openTestDB(t)
	budgets := NewBudgetStore(d)
	ctx := context.Background()

	b, err := budgets.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = budgets.GetBySlugAndOwner(ctx, "default", "")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestBudgetStoreUpdateScalars(t *testing.T) {
	d := openTestDB(t)
	budgets := NewBudgetStore(d)
	ctx := context.Background()

	b, err := budgets.Create(ctx, "b1", "default", "", domain.CurrencyLocal)
	require.NoError(t, err)

	require.NoError(t, budgets.UpdateTargetBudget(ctx, b.ID, decimal.RequireFromString("150000.50")))
	require.NoError(t, budgets.UpdateGuestCount(ctx, b.ID, 35))

	got, err := budgets.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, decimal.RequireFromString("150000.50").Equal(got.TargetBudget))
	assert.Equal(t, 35, got.GuestCount)
	assert.Nil(t, got.EventDate)
}

func TestBudgetStoreUpdate_NotFound(t *testing.T) {
	d := openTestDB(t)
	budgets := NewBudgetStore(d)
	ctx := context.Background()

	err := budgets.UpdateTargetBudget(ctx, "nope", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = budgets.UpdateGuestCount(ctx, "nope", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBudgetStoreGet_UnknownCurrency(t *testing.T) {
	d := openTestDB(t)
	budgets := NewBudgetStore(d)
	ctx := context.Background()

	_, err := d.ExecContext(ctx, `INSERT INTO budgets (id, slug, owner, currency) VALUES ('b1', 'default', '', 'EUR')`)
	require.NoError(t, err)

	_, err = budgets.GetByID(ctx, "b1")
	assert.ErrorIs(t, err, domain.ErrMalformed)
}

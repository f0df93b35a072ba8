package remote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/drinkbudget/internal/db"
	"github.com/vbonduro/drinkbudget/internal/domain"
	"github.com/vbonduro/drinkbudget/internal/identity"
	"github.com/vbonduro/drinkbudget/internal/state"
	"github.com/vbonduro/drinkbudget/internal/store"
)

type fakeIdentity struct {
	current  *identity.Identity
	signOuts int
}

func (f *fakeIdentity) Current(ctx context.Context) (*identity.Identity, error) {
	return f.current, nil
}

func (f *fakeIdentity) SendLoginChallenge(ctx context.Context, address string) error {
	return nil
}

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	f.signOuts++
	f.current = nil
	return nil
}

func signedIn(address string) *fakeIdentity {
	return &fakeIdentity{current: &identity.Identity{Subject: address, Address: address, VerifiedAt: time.Now()}}
}

type failingItems struct {
	itemRepository
	err error
}

func (f failingItems) Create(ctx context.Context, budgetID, owner string, item domain.LineItem) (*domain.LineItem, error) {
	return nil, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type repos struct {
	budgets *store.BudgetStore
	items   *store.ItemStore
}

func openRepos(t *testing.T) repos {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "remote.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })
	return repos{budgets: store.NewBudgetStore(d), items: store.NewItemStore(d)}
}

func (r repos) adapter(ident identity.Provider, opts Options) *Adapter {
	return New(r.budgets, r.items, ident, opts, testLogger())
}

func gin() domain.ItemValues {
	return domain.ItemValues{
		Name:      "Gin",
		Category:  domain.CategorySpirit,
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("25000"),
		Venue:     "Duty free",
	}
}

func TestLoad_UnauthorizedWithoutIdentity(t *testing.T) {
	r := openRepos(t)
	a := r.adapter(&fakeIdentity{}, Options{RequireAuth: true})
	ctx := context.Background()

	_, err := a.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	current := domain.NewBudget("b1", domain.CurrencyLocal)
	_, err = a.InsertItem(ctx, current, domain.NewLineItem("i1", gin(), time.Now().UTC()))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, a.DeleteItem(ctx, current, "i1"), domain.ErrUnauthorized)
	assert.ErrorIs(t, a.SetScalar(ctx, current, domain.ScalarValue{Field: domain.FieldGuestCount, Value: decimal.NewFromInt(1)}), domain.ErrUnauthorized)

	b, err := r.budgets.GetBySlugAndOwner(ctx, "default", "")
	require.NoError(t, err)
	assert.Nil(t, b, "no row is created for an unauthorized caller")
}

func TestLoad_AnonymousWhenAuthNotRequired(t *testing.T) {
	r := openRepos(t)
	a := r.adapter(nil, Options{})
	ctx := context.Background()

	first, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", first.Owner)
	assert.Equal(t, "default", first.Slug)
	assert.Equal(t, domain.CurrencyLocal, first.Currency)
	assert.Empty(t, first.Items)

	second, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "created once, then reused")
}

func TestLoad_CreatesPerOwnerWithDefaults(t *testing.T) {
	r := openRepos(t)
	ctx := context.Background()

	ana := r.adapter(signedIn("Ana@Example.com"), Options{Slug: "casamiento", RequireAuth: true, DefaultCurrency: domain.CurrencyForeign})
	bob := r.adapter(signedIn("bob@example.com"), Options{Slug: "casamiento", RequireAuth: true})

	anaBudget, err := ana.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", anaBudget.Owner)
	assert.Equal(t, domain.CurrencyForeign, anaBudget.Currency)

	bobBudget, err := bob.Load(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, anaBudget.ID, bobBudget.ID)
	assert.Equal(t, domain.CurrencyLocal, bobBudget.Currency)
}

func TestAuthorize_AllowList(t *testing.T) {
	r := openRepos(t)
	ctx := context.Background()
	allow := identity.NewAllowList([]string{"ana@example.com"})

	eve := signedIn("eve@example.com")
	_, err := r.adapter(eve, Options{AllowList: allow}).Load(ctx)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, 1, eve.signOuts)
	assert.Nil(t, eve.current)

	ana := signedIn("ANA@example.com")
	owner, err := r.adapter(ana, Options{AllowList: allow}).Authorize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", owner)
	assert.Zero(t, ana.signOuts)
}

func TestAuthorize_AllowListImpliesAuth(t *testing.T) {
	r := openRepos(t)
	a := r.adapter(&fakeIdentity{}, Options{AllowList: identity.NewAllowList([]string{"ana@example.com"})})

	_, err := a.Authorize(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestItemRoundTrips(t *testing.T) {
	r := openRepos(t)
	a := r.adapter(signedIn("ana@example.com"), Options{RequireAuth: true})
	ctx := context.Background()

	current, err := a.Load(ctx)
	require.NoError(t, err)

	base := time.Date(2026, 2, 14, 20, 0, 0, 0, time.UTC)
	_, err = a.InsertItem(ctx, current, domain.NewLineItem("i1", gin(), base))
	require.NoError(t, err)
	second := gin()
	second.Name = "Tonic"
	second.Category = domain.CategoryNonAlcoholic
	_, err = a.InsertItem(ctx, current, domain.NewLineItem("i2", second, base.Add(time.Second)))
	require.NoError(t, err)

	reloaded, err := a.Load(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 2)
	assert.Equal(t, "i2", reloaded.Items[0].ID, "newest first")

	edited := reloaded.Items[1].WithValues(domain.ItemValues{
		Name: "Gin", Category: domain.CategorySpirit, Quantity: 3,
		UnitPrice: decimal.RequireFromString("24000"), Purchased: true,
	}, base.Add(time.Hour))
	saved, err := a.UpdateItem(ctx, reloaded, edited)
	require.NoError(t, err)
	assert.True(t, saved.Purchased)

	require.NoError(t, a.DeleteItem(ctx, reloaded, "i2"))
	require.NoError(t, a.SetScalar(ctx, reloaded, domain.ScalarValue{Field: domain.FieldTargetBudget, Value: decimal.NewFromInt(90000)}))
	require.NoError(t, a.SetScalar(ctx, reloaded, domain.ScalarValue{Field: domain.FieldGuestCount, Value: decimal.NewFromInt(6)}))

	final, err := a.Load(ctx)
	require.NoError(t, err)
	require.Len(t, final.Items, 1)
	assert.Equal(t, 3, final.Items[0].Quantity)
	assert.True(t, final.Items[0].Purchased)
	assert.True(t, decimal.NewFromInt(90000).Equal(final.TargetBudget))
	assert.Equal(t, 6, final.GuestCount)
}

func TestMutation_OwnerMismatch(t *testing.T) {
	r := openRepos(t)
	ident := signedIn("ana@example.com")
	a := r.adapter(ident, Options{RequireAuth: true})
	ctx := context.Background()

	anaBudget, err := a.Load(ctx)
	require.NoError(t, err)

	ident.current = &identity.Identity{Address: "bob@example.com"}
	_, err = a.InsertItem(ctx, anaBudget, domain.NewLineItem("i1", gin(), time.Now().UTC()))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	items, err := r.items.ListByBudgetID(ctx, anaBudget.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStoreOverRemote(t *testing.T) {
	r := openRepos(t)
	ident := signedIn("ana@example.com")
	a := r.adapter(ident, Options{RequireAuth: true})
	s := state.New(a, testLogger())
	ctx := context.Background()

	require.NoError(t, s.Load(ctx))
	added, err := s.AddItem(ctx, gin())
	require.NoError(t, err)
	require.NoError(t, s.SetScalarField(ctx, domain.FieldGuestCount, decimal.NewFromInt(10)))

	summary, ok := s.Summary()
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(5000).Equal(summary.PerGuest))

	// Signing out makes every further operation unauthorized.
	ident.current = nil
	err = s.DeleteItem(ctx, added.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Len(t, s.Budget().Items, 1)

	err = s.Load(ctx)
	var loadErr *state.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, state.StatusFailed, s.Status())
}

func TestStoreOverRemote_FailedInsertLeavesItems(t *testing.T) {
	r := openRepos(t)
	a := New(r.budgets, failingItems{itemRepository: r.items, err: errors.New("connection reset")},
		nil, Options{}, testLogger())
	s := state.New(a, testLogger())
	ctx := context.Background()

	require.NoError(t, s.Load(ctx))
	_, err := s.AddItem(ctx, gin())

	var saveErr *state.SaveError
	require.True(t, errors.As(err, &saveErr))
	assert.Empty(t, s.Budget().Items)
}

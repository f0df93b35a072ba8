// Package remote keeps the budget in row storage scoped to the signed-in
// identity. Every mutation is a single round trip, and the in-memory budget
// only changes after the row store confirms it.
package remote

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vbonduro/drinkbudget/internal/domain"
	"github.com/vbonduro/drinkbudget/internal/identity"
)

type budgetRepository interface {
	Create(ctx context.Context, id, slug, owner string, currency domain.Currency) (*domain.Budget, error)
	GetBySlugAndOwner(ctx context.Context, slug, owner string) (*domain.Budget, error)
	UpdateTargetBudget(ctx context.Context, id string, target decimal.Decimal) error
	UpdateGuestCount(ctx context.Context, id string, guests int) error
}

type itemRepository interface {
	Create(ctx context.Context, budgetID, owner string, item domain.LineItem) (*domain.LineItem, error)
	ListByBudgetID(ctx context.Context, budgetID string) ([]domain.LineItem, error)
	Update(ctx context.Context, budgetID string, item domain.LineItem) error
	Delete(ctx context.Context, budgetID, id string) error
}

type Options struct {
	// Slug names the budget within an owner's scope.
	Slug string
	// RequireAuth rejects every call made without a verified identity.
	RequireAuth bool
	// AllowList, when non-empty, limits which identities may sign in.
	// A non-empty list implies RequireAuth.
	AllowList identity.AllowList
	// DefaultCurrency is used when the budget row is first created.
	DefaultCurrency domain.Currency
}

type Adapter struct {
	budgets  budgetRepository
	items    itemRepository
	identity identity.Provider
	opts     Options
	logger   *slog.Logger
	newID    func() string
}

// New returns an adapter. ident may be nil only when authentication is not
// required, in which case every call uses the anonymous owner "".
func New(budgets budgetRepository, items itemRepository, ident identity.Provider, opts Options, logger *slog.Logger) *Adapter {
	if opts.Slug == "" {
		opts.Slug = "default"
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = domain.CurrencyLocal
	}
	if len(opts.AllowList) > 0 {
		opts.RequireAuth = true
	}
	return &Adapter{
		budgets:  budgets,
		items:    items,
		identity: ident,
		opts:     opts,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Authorize resolves the owner key for the current caller. It fails with
// domain.ErrUnauthorized when authentication is required and there is no
// verified identity, or when the identity is outside the allow-list. In the
// latter case the session is also signed out.
func (a *Adapter) Authorize(ctx context.Context) (owner string, err error) {
	var current *identity.Identity
	if a.identity != nil {
		current, err = a.identity.Current(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to read session: %w", err)
		}
	}

	if current == nil {
		if a.opts.RequireAuth {
			return "", domain.ErrUnauthorized
		}
		return "", nil
	}

	if !a.opts.AllowList.Allows(current.Address) {
		a.logger.WarnContext(ctx, "identity not on allow-list, signing out", "address", current.Address)
		if err := a.identity.SignOut(ctx); err != nil {
			a.logger.ErrorContext(ctx, "failed to sign out rejected identity", "error", err)
		}
		return "", fmt.Errorf("%w: %s is not allowed", domain.ErrUnauthorized, current.Address)
	}

	return identity.NormalizeAddress(current.Address), nil
}

// Load returns the caller's budget, creating the row on first access.
func (a *Adapter) Load(ctx context.Context) (*domain.Budget, error) {
	owner, err := a.Authorize(ctx)
	if err != nil {
		return nil, err
	}

	b, err := a.budgets.GetBySlugAndOwner(ctx, a.opts.Slug, owner)
	if err != nil {
		return nil, err
	}
	if b == nil {
		b, err = a.budgets.Create(ctx, a.newID(), a.opts.Slug, owner, a.opts.DefaultCurrency)
		if err != nil {
			return nil, err
		}
		a.logger.InfoContext(ctx, "created budget", "budget_id", b.ID, "slug", a.opts.Slug, "owner", owner)
	}

	items, err := a.items.ListByBudgetID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.Items = items
	return b, nil
}

func (a *Adapter) InsertItem(ctx context.Context, current *domain.Budget, item domain.LineItem) (domain.LineItem, error) {
	owner, err := a.authorizeFor(ctx, current)
	if err != nil {
		return domain.LineItem{}, err
	}
	created, err := a.items.Create(ctx, current.ID, owner, item)
	if err != nil {
		return domain.LineItem{}, err
	}
	return *created, nil
}

// UpdateItem writes every editable field of item. The returned item carries
// the confirmed timestamp.
func (a *Adapter) UpdateItem(ctx context.Context, current *domain.Budget, item domain.LineItem) (domain.LineItem, error) {
	if _, err := a.authorizeFor(ctx, current); err != nil {
		return domain.LineItem{}, err
	}
	if item.LastUpdated.IsZero() {
		item.LastUpdated = time.Now().UTC()
	}
	if err := a.items.Update(ctx, current.ID, item); err != nil {
		return domain.LineItem{}, err
	}
	return item, nil
}

func (a *Adapter) DeleteItem(ctx context.Context, current *domain.Budget, id string) error {
	if _, err := a.authorizeFor(ctx, current); err != nil {
		return err
	}
	return a.items.Delete(ctx, current.ID, id)
}

// SetScalar writes one scalar field without reading the row first; the last
// write wins.
func (a *Adapter) SetScalar(ctx context.Context, current *domain.Budget, value domain.ScalarValue) error {
	if _, err := a.authorizeFor(ctx, current); err != nil {
		return err
	}
	switch value.Field {
	case domain.FieldTargetBudget:
		return a.budgets.UpdateTargetBudget(ctx, current.ID, value.Value)
	case domain.FieldGuestCount:
		return a.budgets.UpdateGuestCount(ctx, current.ID, value.GuestCount())
	default:
		return fmt.Errorf("%w: unknown field %q", domain.ErrInvalidScalar, value.Field)
	}
}

// authorizeFor checks the caller and that current belongs to them, so a
// budget loaded under one session cannot be written under another.
func (a *Adapter) authorizeFor(ctx context.Context, current *domain.Budget) (string, error) {
	owner, err := a.Authorize(ctx)
	if err != nil {
		return "", err
	}
	if current == nil {
		return "", fmt.Errorf("no budget loaded: %w", domain.ErrNotFound)
	}
	if current.Owner != owner {
		a.logger.WarnContext(ctx, "budget owner mismatch", "budget_id", current.ID, "owner", owner)
		return "", fmt.Errorf("%w: budget belongs to another identity", domain.ErrUnauthorized)
	}
	return owner, nil
}

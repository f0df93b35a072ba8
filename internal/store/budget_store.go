package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vbonduro/drinkbudget/internal/domain"
)

type BudgetStore struct {
	db *sql.DB
}

func NewBudgetStore(db *sql.DB) *BudgetStore {
	return &BudgetStore{db: db}
}

// Create inserts a budget row with default scalars. When a row for
// (slug, owner) already exists it is left untouched and returned instead.
func (s *BudgetStore) Create(ctx context.Context, id, slug, owner string, currency domain.Currency) (*domain.Budget, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (id, slug, owner, currency) VALUES (?, ?, ?, ?)
		ON CONFLICT (slug, owner) DO NOTHING
	`, id, slug, owner, string(currency))
	if err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}

	b, err := s.GetBySlugAndOwner(ctx, slug, owner)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("budget %q vanished after insert: %w", slug, domain.ErrNotFound)
	}
	return b, nil
}

func (s *BudgetStore) GetByID(ctx context.Context, id string) (*domain.Budget, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, slug, owner, target_budget, currency, event_date, guest_count
		FROM budgets WHERE id = ?
	`, id))
}

func (s *BudgetStore) GetBySlugAndOwner(ctx context.Context, slug, owner string) (*domain.Budget, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, slug, owner, target_budget, currency, event_date, guest_count
		FROM budgets WHERE slug = ? AND owner = ?
	`, slug, owner))
}

func (s *BudgetStore) scanOne(row *sql.Row) (*domain.Budget, error) {
	var (
		b         domain.Budget
		currency  string
		eventDate sql.NullTime
	)
	err := row.Scan(&b.ID, &b.Slug, &b.Owner, &b.TargetBudget, &currency, &eventDate, &b.GuestCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}

	b.Currency, err = domain.ParseCurrency(currency)
	if err != nil {
		return nil, fmt.Errorf("budget %s: %w", b.ID, err)
	}
	if eventDate.Valid {
		d := eventDate.Time.UTC()
		b.EventDate = &d
	}
	b.Items = []domain.LineItem{}
	return &b, nil
}

func (s *BudgetStore) UpdateTargetBudget(ctx context.Context, id string, target decimal.Decimal) error {
	return s.updateField(ctx, id, "target budget", `UPDATE budgets SET target_budget = ? WHERE id = ?`, target)
}

func (s *BudgetStore) UpdateGuestCount(ctx context.Context, id string, guests int) error {
	return s.updateField(ctx, id, "guest count", `UPDATE budgets SET guest_count = ? WHERE id = ?`, guests)
}

func (s *BudgetStore) updateField(ctx context.Context, id, what, query string, value any) error {
	result, err := s.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("budget %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

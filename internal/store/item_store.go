package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/drinkbudget/internal/domain"
)

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

const itemColumns = `id, name, category, quantity, unit_price, purchased, venue, notes, updated_at`

// Create inserts item under budgetID. The item's LastUpdated doubles as its
// creation time for list ordering.
func (s *ItemStore) Create(ctx context.Context, budgetID, owner string, item domain.LineItem) (*domain.LineItem, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, budget_id, owner, name, category, quantity, unit_price, purchased, venue, notes, updated_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, budgetID, owner, item.Name, string(item.Category), item.Quantity, item.UnitPrice,
		item.Purchased, item.Venue, item.Notes, item.LastUpdated.UTC(), item.LastUpdated.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	created, err := s.GetByID(ctx, budgetID, item.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("item %s vanished after insert: %w", item.ID, domain.ErrNotFound)
	}
	return created, nil
}

func (s *ItemStore) GetByID(ctx context.Context, budgetID, id string) (*domain.LineItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM items WHERE budget_id = ? AND id = ?
	`, budgetID, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// ListByBudgetID returns the budget's items, newest first.
func (s *ItemStore) ListByBudgetID(ctx context.Context, budgetID string) ([]domain.LineItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE budget_id = ? ORDER BY created_at DESC, rowid DESC
	`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	items := []domain.LineItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// Update overwrites every editable column of the item.
func (s *ItemStore) Update(ctx context.Context, budgetID string, item domain.LineItem) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET name = ?, category = ?, quantity = ?, unit_price = ?, purchased = ?,
			venue = ?, notes = ?, updated_at = ?
		WHERE budget_id = ? AND id = ?
	`, item.Name, string(item.Category), item.Quantity, item.UnitPrice, item.Purchased,
		item.Venue, item.Notes, item.LastUpdated.UTC(), budgetID, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("item %s: %w", item.ID, domain.ErrNotFound)
	}

	return nil
}

func (s *ItemStore) Delete(ctx context.Context, budgetID, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM items WHERE budget_id = ? AND id = ?
	`, budgetID, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.LineItem, error) {
	var (
		item     domain.LineItem
		category string
	)
	if err := row.Scan(&item.ID, &item.Name, &category, &item.Quantity, &item.UnitPrice,
		&item.Purchased, &item.Venue, &item.Notes, &item.LastUpdated); err != nil {
		return nil, err
	}

	c, err := domain.ParseCategory(category)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", item.ID, err)
	}
	item.Category = c
	item.LastUpdated = item.LastUpdated.UTC()
	return &item, nil
}

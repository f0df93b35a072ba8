// Package local keeps the whole budget as one JSON blob under a fixed key.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/vbonduro/drinkbudget/internal/blobstore"
	"github.com/vbonduro/drinkbudget/internal/domain"
)

type Backend struct {
	blobs    blobstore.BlobStore
	key      string
	currency domain.Currency
	logger   *slog.Logger
}

// New returns a backend that reads and writes key in blobs. currency is used
// for a budget that has never been saved.
func New(blobs blobstore.BlobStore, key string, currency domain.Currency, logger *slog.Logger) *Backend {
	return &Backend{blobs: blobs, key: key, currency: currency, logger: logger}
}

// Load returns the saved budget, or an empty one when nothing was saved yet.
// The empty budget is not written until the first mutation.
func (b *Backend) Load(ctx context.Context) (*domain.Budget, error) {
	data, ok, err := b.blobs.Get(ctx, b.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read budget: %w", err)
	}
	if !ok {
		b.logger.InfoContext(ctx, "no saved budget, starting empty", "key", b.key)
		return domain.NewBudget(b.key, b.currency), nil
	}

	var budget domain.Budget
	if err := json.Unmarshal(data, &budget); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformed, err)
	}
	budget.ID = b.key
	if budget.Items == nil {
		budget.Items = []domain.LineItem{}
	}
	if budget.Currency == "" {
		budget.Currency = b.currency
	}
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	return &budget, nil
}

func (b *Backend) InsertItem(ctx context.Context, current *domain.Budget, item domain.LineItem) (domain.LineItem, error) {
	next, err := current.WithItemAdded(item)
	if err != nil {
		return domain.LineItem{}, err
	}
	if err := b.save(ctx, next); err != nil {
		return domain.LineItem{}, err
	}
	return item, nil
}

func (b *Backend) UpdateItem(ctx context.Context, current *domain.Budget, item domain.LineItem) (domain.LineItem, error) {
	next, err := current.WithItemReplaced(item)
	if err != nil {
		return domain.LineItem{}, err
	}
	if err := b.save(ctx, next); err != nil {
		return domain.LineItem{}, err
	}
	return item, nil
}

func (b *Backend) DeleteItem(ctx context.Context, current *domain.Budget, id string) error {
	next, err := current.WithItemRemoved(id)
	if err != nil {
		return err
	}
	return b.save(ctx, next)
}

func (b *Backend) SetScalar(ctx context.Context, current *domain.Budget, value domain.ScalarValue) error {
	return b.save(ctx, current.WithScalar(value))
}

func (b *Backend) save(ctx context.Context, budget *domain.Budget) error {
	data, err := json.Marshal(budget)
	if err != nil {
		return fmt.Errorf("failed to encode budget: %w", err)
	}
	if err := b.blobs.Set(ctx, b.key, data); err != nil {
		return fmt.Errorf("failed to write budget: %w", err)
	}
	return nil
}

// Package state owns the in-memory budget. Every mutation goes through a
// Store operation, which persists through a Backend first and only then
// applies the confirmed change.
package state

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/vbonduro/drinkbudget/internal/budget"
	"github.com/vbonduro/drinkbudget/internal/domain"
)

type Status int

const (
	StatusUnloaded Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUnloaded:
		return "unloaded"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Backend persists the budget. Each call receives a private copy of the
// current budget and must not keep it.
type Backend interface {
	Load(ctx context.Context) (*domain.Budget, error)
	InsertItem(ctx context.Context, current *domain.Budget, item domain.LineItem) (domain.LineItem, error)
	UpdateItem(ctx context.Context, current *domain.Budget, item domain.LineItem) (domain.LineItem, error)
	DeleteItem(ctx context.Context, current *domain.Budget, id string) error
	SetScalar(ctx context.Context, current *domain.Budget, value domain.ScalarValue) error
}

// Snapshot is a consistent read of the store.
type Snapshot struct {
	Status Status
	Budget *domain.Budget
	Err    error
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

type Store struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
	loads   singleflight.Group

	mu         sync.RWMutex
	status     Status
	budget     *domain.Budget
	lastErr    error
	generation uint64

	subsMu  sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

func New(backend Backend, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
		subs:    map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the budget from the backend. Concurrent calls share one
// backend round trip. On failure the store moves to StatusFailed and keeps
// whatever budget it held before.
//
// The round trip is not tied to ctx: a caller whose ctx ends stops waiting
// and gets ctx.Err(), while the load completes and is applied for everyone
// else.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	gen := s.generation
	s.status = StatusLoading
	s.mu.Unlock()
	s.notify()

	detached := context.WithoutCancel(ctx)
	results := s.loads.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		return nil, s.load(detached, gen)
	})

	select {
	case res := <-results:
		if res.Shared {
			s.logger.DebugContext(ctx, "budget load coalesced")
		}
		return res.Err
	case <-ctx.Done():
		s.logger.InfoContext(ctx, "caller stopped waiting for budget load", "error", ctx.Err())
		return ctx.Err()
	}
}

func (s *Store) load(ctx context.Context, gen uint64) error {
	loaded, err := s.backend.Load(ctx)
	if err == nil {
		err = loaded.Validate()
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.logger.InfoContext(ctx, "discarding budget loaded before reset")
		return ErrSuperseded
	}
	if err != nil {
		loadErr := &LoadError{Err: err}
		s.status = StatusFailed
		s.lastErr = loadErr
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "failed to load budget", "error", err)
		s.notify()
		return loadErr
	}
	s.budget = loaded.Clone()
	s.status = StatusReady
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "budget loaded", "budget_id", loaded.ID, "items", len(loaded.Items))
	s.notify()
	return nil
}

// Reset drops the budget and returns to StatusUnloaded. Loads and mutations
// still in flight are discarded when they finish.
func (s *Store) Reset() {
	s.mu.Lock()
	s.generation++
	s.budget = nil
	s.status = StatusUnloaded
	s.lastErr = nil
	s.mu.Unlock()
	s.notify()
}

// Replace swaps the in-memory budget without persisting it.
func (s *Store) Replace(b *domain.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.generation++
	s.budget = b.Clone()
	s.status = StatusReady
	s.lastErr = nil
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Store) AddItem(ctx context.Context, values domain.ItemValues) (domain.LineItem, error) {
	if err := values.Validate(); err != nil {
		return domain.LineItem{}, &SaveError{Target: "item", Err: err}
	}
	current, gen, err := s.ready()
	if err != nil {
		return domain.LineItem{}, &SaveError{Target: "item", Err: err}
	}

	item := domain.NewLineItem(s.newID(), values, s.now().UTC())
	saved, err := s.backend.InsertItem(ctx, current, item)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to add item", "item_id", item.ID, "error", err)
		return domain.LineItem{}, &SaveError{Target: "item", Err: err}
	}

	err = s.apply(gen, func(b *domain.Budget) (*domain.Budget, error) {
		return b.WithItemAdded(saved)
	})
	if err != nil {
		return domain.LineItem{}, &SaveError{Target: "item", Err: err}
	}
	s.logger.InfoContext(ctx, "item added", "item_id", saved.ID)
	return saved, nil
}

func (s *Store) UpdateItem(ctx context.Context, id string, values domain.ItemValues) (domain.LineItem, error) {
	if err := values.Validate(); err != nil {
		return domain.LineItem{}, &SaveError{Target: "item", Err: err}
	}
	current, gen, err := s.ready()
	if err != nil {
		return domain.LineItem{}, &SaveError{Target: "item", Err: err}
	}
	i := current.IndexOf(id)
	if i < 0 {
		return domain.LineItem{}, &SaveError{Target: "item", Err: domain.ErrNotFound}
	}

	item := current.Items[i].WithValues(values, s.now().UTC())
	saved, err := s.backend.UpdateItem(ctx, current, item)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update item", "item_id", id, "error", err)
		return domain.LineItem{}, &SaveError{Target: "item", Err: err}
	}

	err = s.apply(gen, func(b *domain.Budget) (*domain.Budget, error) {
		return b.WithItemReplaced(saved)
	})
	if err != nil {
		return domain.LineItem{}, &SaveError{Target: "item", Err: err}
	}
	s.logger.InfoContext(ctx, "item updated", "item_id", id)
	return saved, nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	current, gen, err := s.ready()
	if err != nil {
		return &DeleteError{ItemID: id, Err: err}
	}
	if current.IndexOf(id) < 0 {
		return &DeleteError{ItemID: id, Err: domain.ErrNotFound}
	}

	if err := s.backend.DeleteItem(ctx, current, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete item", "item_id", id, "error", err)
		return &DeleteError{ItemID: id, Err: err}
	}

	err = s.apply(gen, func(b *domain.Budget) (*domain.Budget, error) {
		if b.IndexOf(id) < 0 {
			return b, nil
		}
		return b.WithItemRemoved(id)
	})
	if err != nil {
		return &DeleteError{ItemID: id, Err: err}
	}
	s.logger.InfoContext(ctx, "item deleted", "item_id", id)
	return nil
}

// SetScalarField changes the target budget or the guest count. Concurrent
// writers are not detected: the last confirmed write wins.
func (s *Store) SetScalarField(ctx context.Context, field domain.ScalarField, value decimal.Decimal) error {
	v := domain.ScalarValue{Field: field, Value: value}
	if err := v.Validate(); err != nil {
		return &SaveError{Target: string(field), Err: err}
	}
	current, gen, err := s.ready()
	if err != nil {
		return &SaveError{Target: string(field), Err: err}
	}

	if err := s.backend.SetScalar(ctx, current, v); err != nil {
		s.logger.ErrorContext(ctx, "failed to set budget field", "field", field, "error", err)
		return &SaveError{Target: string(field), Err: err}
	}

	err = s.apply(gen, func(b *domain.Budget) (*domain.Budget, error) {
		return b.WithScalar(v), nil
	})
	if err != nil {
		return &SaveError{Target: string(field), Err: err}
	}
	s.logger.InfoContext(ctx, "budget field updated", "field", field, "value", value.String())
	return nil
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Status: s.status, Budget: s.budget.Clone(), Err: s.lastErr}
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Budget returns a copy of the current budget, or nil before the first load.
func (s *Store) Budget() *domain.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.budget.Clone()
}

// Summary computes the derived totals. ok is false when no budget is held.
func (s *Store) Summary() (summary budget.Summary, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.budget == nil {
		return budget.Summary{}, false
	}
	return budget.Summarize(s.budget), true
}

// Subscribe registers fn to run after every state change. The returned
// func removes it.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	if len(fns) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

// ready returns a private copy of the budget for a backend call.
func (s *Store) ready() (*domain.Budget, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status != StatusReady || s.budget == nil {
		return nil, 0, ErrNotReady
	}
	return s.budget.Clone(), s.generation, nil
}

// apply runs change against the latest budget, unless Reset or Replace ran
// since gen was read.
func (s *Store) apply(gen uint64, change func(*domain.Budget) (*domain.Budget, error)) error {
	s.mu.Lock()
	if s.generation != gen || s.budget == nil {
		s.mu.Unlock()
		return ErrSuperseded
	}
	next, err := change(s.budget)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.budget = next
	s.mu.Unlock()
	s.notify()
	return nil
}

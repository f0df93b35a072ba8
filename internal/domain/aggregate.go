package domain

import "fmt"

// Clone returns a deep copy of the aggregate.
func (b *Budget) Clone() *Budget {
	if b == nil {
		return nil
	}
	c := *b
	c.Items = make([]LineItem, len(b.Items))
	copy(c.Items, b.Items)
	if b.EventDate != nil {
		d := *b.EventDate
		c.EventDate = &d
	}
	return &c
}

// IndexOf returns the position of the item with the given id, or -1.
func (b *Budget) IndexOf(id string) int {
	for i := range b.Items {
		if b.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// WithItemAdded returns a copy with item prepended.
func (b *Budget) WithItemAdded(item LineItem) (*Budget, error) {
	if b.IndexOf(item.ID) >= 0 {
		return nil, fmt.Errorf("%w %q", ErrDuplicateItem, item.ID)
	}
	c := b.Clone()
	c.Items = append([]LineItem{item}, c.Items...)
	return c, nil
}

// WithItemReplaced returns a copy with the same-id item replaced in place.
func (b *Budget) WithItemReplaced(item LineItem) (*Budget, error) {
	i := b.IndexOf(item.ID)
	if i < 0 {
		return nil, fmt.Errorf("item %q: %w", item.ID, ErrNotFound)
	}
	c := b.Clone()
	c.Items[i] = item
	return c, nil
}

// WithItemRemoved returns a copy without the item. Removing an absent id is
// reported as ErrNotFound.
func (b *Budget) WithItemRemoved(id string) (*Budget, error) {
	i := b.IndexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("item %q: %w", id, ErrNotFound)
	}
	c := b.Clone()
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return c, nil
}

// WithScalar returns a copy with one scalar field changed. The value must
// already be validated.
func (b *Budget) WithScalar(v ScalarValue) *Budget {
	c := b.Clone()
	switch v.Field {
	case FieldTargetBudget:
		c.TargetBudget = v.Value
	case FieldGuestCount:
		c.GuestCount = v.GuestCount()
	}
	return c
}

package promo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seenimoa/coinscope/internal/payment"
	"github.com/seenimoa/coinscope/internal/store"
	"github.com/seenimoa/coinscope/pkg/utils"
)

// Collection manages the persisted promo list plus in-memory pending items
// awaiting payment confirmation. Pending items are not visible to the
// rotator and are lost on restart, matching the paid-listing flow: nothing
// is persisted until payment succeeds.
type Collection struct {
	mu        sync.Mutex
	st        *store.Store
	confirmer payment.Confirmer
	pending   map[string]Item // checkout reference → item
}

// NewCollection opens the promo collection backed by st. confirmer may be
// nil when the paid flow is disabled.
func NewCollection(st *store.Store, confirmer payment.Confirmer) *Collection {
	return &Collection{
		st:        st,
		confirmer: confirmer,
		pending:   make(map[string]Item),
	}
}

// List returns the persisted promo items, empty if absent or malformed.
func (c *Collection) List() []Item {
	items := []Item{}
	c.st.Load(store.KeyPromos, &items)
	return items
}

// Add validates and persists a new item. ID is assigned here. A
// non-privileged item with no end time gets the standard 24-hour window.
func (c *Collection) Add(it Item) (Item, error) {
	prepared, err := c.prepare(it)
	if err != nil {
		return Item{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	items := c.List()
	items = append(items, prepared)
	if err := c.st.Save(store.KeyPromos, items); err != nil {
		return prepared, err
	}
	return prepared, nil
}

// Update edits an item in place, matched by ID.
func (c *Collection) Update(it Item) (Item, error) {
	if err := Validate(it); err != nil {
		return Item{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	items := c.List()
	for i := range items {
		if items[i].ID == it.ID {
			it.Privileged = items[i].Privileged
			items[i] = it
			return it, c.st.Save(store.KeyPromos, items)
		}
	}
	return Item{}, &ErrNotFound{ID: it.ID}
}

// Remove deletes an item by ID.
func (c *Collection) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := c.List()
	for i := range items {
		if items[i].ID == id {
			items = append(items[:i], items[i+1:]...)
			return c.st.Save(store.KeyPromos, items)
		}
	}
	return &ErrNotFound{ID: id}
}

// BeginCheckout validates a paid item and holds it in memory under a fresh
// checkout reference. Nothing is persisted yet.
func (c *Collection) BeginCheckout(it Item) (ref string, err error) {
	it.Privileged = false
	prepared, err := c.prepare(it)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	ref = uuid.NewString()
	c.pending[ref] = prepared
	return ref, nil
}

// CompleteCheckout confirms payment for a pending item and, on success,
// persists it. A failed or unconfirmed payment leaves the item pending.
func (c *Collection) CompleteCheckout(ctx context.Context, ref string) (Item, error) {
	c.mu.Lock()
	it, ok := c.pending[ref]
	c.mu.Unlock()
	if !ok {
		return Item{}, fmt.Errorf("unknown checkout reference %q", ref)
	}

	if c.confirmer == nil {
		return Item{}, fmt.Errorf("payment confirmation unavailable")
	}
	receipt, err := c.confirmer.Confirm(ctx, ref)
	if err != nil {
		return Item{}, fmt.Errorf("confirm payment: %w", err)
	}
	if !receipt.Paid {
		return Item{}, fmt.Errorf("payment %q not completed: %s", ref, receipt.Status)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// The confirmer ran unlocked; a concurrent completion may have claimed
	// the reference in the meantime.
	if _, ok := c.pending[ref]; !ok {
		return Item{}, fmt.Errorf("unknown checkout reference %q", ref)
	}
	delete(c.pending, ref)
	items := c.List()
	items = append(items, it)
	if err := c.st.Save(store.KeyPromos, items); err != nil {
		return it, err
	}
	return it, nil
}

// prepare validates, assigns an ID, and applies the 24-hour default window
// for non-privileged items authored without an end time.
func (c *Collection) prepare(it Item) (Item, error) {
	if !it.Privileged && strings.TrimSpace(it.EndTime) == "" {
		if start, err := utils.ParseInstant(it.StartTime); err == nil {
			it.EndTime = utils.FormatInstant(start.Add(24 * time.Hour))
		}
	}
	if err := Validate(it); err != nil {
		return Item{}, err
	}
	it.ID = uuid.NewString()
	if it.SizeClass == "" {
		it.SizeClass = SizeBanner
	}
	return it, nil
}

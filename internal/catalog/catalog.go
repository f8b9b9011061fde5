// Package catalog implements the SKU catalog.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fairyhunter13/vending-machine-service/internal/model"
	"github.com/fairyhunter13/vending-machine-service/internal/money"
)

// Catalog maps SKU identifiers to catalog entries. Sequence numbers come
// from an explicit monotonically increasing counter, so they are never
// reused even after a removal.
type Catalog struct {
	mu      sync.RWMutex
	items   map[string]*model.SKU
	bySeq   map[uint64]string
	nextSeq uint64
}

// New creates an empty Catalog.
func New() *Catalog {
	return &Catalog{
		items: make(map[string]*model.SKU),
		bySeq: make(map[uint64]string),
	}
}

// Add inserts a new catalog entry. The identifier must be unique and
// non-empty, the price non-negative.
func (c *Catalog) Add(id string, price money.Amount, count uint32, description string) error {
	if id == "" {
		return fmt.Errorf("%w: empty sku identifier", model.ErrInvalidInput)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: negative price %s for %q", model.ErrInvalidInput, price, id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; ok {
		return fmt.Errorf("%w: sku %q", model.ErrExists, id)
	}
	c.nextSeq++
	c.items[id] = &model.SKU{
		ID:          id,
		Price:       price,
		Count:       count,
		Sequence:    c.nextSeq,
		Description: description,
	}
	c.bySeq[c.nextSeq] = id
	return nil
}

// Remove deletes a catalog entry. Its sequence number is retired, not
// recycled.
func (c *Catalog) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.items[id]
	if !ok {
		return fmt.Errorf("%w: sku %q", model.ErrNotFound, id)
	}
	delete(c.bySeq, s.Sequence)
	delete(c.items, id)
	return nil
}

// UpdateCount sets the remaining stock count of an entry.
func (c *Catalog) UpdateCount(id string, count uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.items[id]
	if !ok {
		return fmt.Errorf("%w: sku %q", model.ErrNotFound, id)
	}
	s.Count = count
	return nil
}

// UpdatePrice sets the price of an entry.
func (c *Catalog) UpdatePrice(id string, price money.Amount) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: negative price %s for %q", model.ErrInvalidInput, price, id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.items[id]
	if !ok {
		return fmt.Errorf("%w: sku %q", model.ErrNotFound, id)
	}
	s.Price = price
	return nil
}

// UpdateDescription sets the description of an entry.
func (c *Catalog) UpdateDescription(id, description string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.items[id]
	if !ok {
		return fmt.Errorf("%w: sku %q", model.ErrNotFound, id)
	}
	s.Description = description
	return nil
}

// Get returns a copy of the entry for id.
func (c *Catalog) Get(id string) (model.SKU, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.items[id]
	if !ok {
		return model.SKU{}, false
	}
	return *s, true
}

// HasAvailable reports whether id exists with remaining stock.
func (c *Catalog) HasAvailable(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.items[id]
	return ok && s.Count > 0
}

// PriceOf returns the price of an entry, or ErrNotFound. Absence is a
// distinct signal, never a zero price that looks valid.
func (c *Catalog) PriceOf(id string) (money.Amount, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.items[id]
	if !ok {
		return 0, fmt.Errorf("%w: sku %q", model.ErrNotFound, id)
	}
	return s.Price, nil
}

// NameForSequence resolves a sequence number back to an identifier.
func (c *Catalog) NameForSequence(n uint64) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.bySeq[n]
	if !ok {
		return "", fmt.Errorf("%w: sequence %d", model.ErrNotFound, n)
	}
	return id, nil
}

// CanPurchase checks whether tendered covers the price of id. An unknown
// identifier fails with ErrNotFound, distinct from mere insufficiency.
func (c *Catalog) CanPurchase(id string, tendered money.Amount) (model.Quote, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.items[id]
	if !ok {
		return model.Quote{}, fmt.Errorf("%w: sku %q", model.ErrNotFound, id)
	}
	q := model.Quote{Price: s.Price}
	if s.Price <= tendered {
		q.Sufficient = true
	} else {
		q.Shortfall = s.Price - tendered
	}
	return q, nil
}

// TakeOne atomically checks stock and decrements it by one. It is the
// check-then-act step of a purchase.
func (c *Catalog) TakeOne(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.items[id]
	if !ok {
		return fmt.Errorf("%w: sku %q", model.ErrNotFound, id)
	}
	if s.Count == 0 {
		return fmt.Errorf("%w: sku %q", model.ErrOutOfStock, id)
	}
	s.Count--
	return nil
}

// ReturnOne is the compensating action for TakeOne when a later purchase
// step fails.
func (c *Catalog) ReturnOne(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.items[id]
	if !ok {
		return fmt.Errorf("%w: sku %q", model.ErrNotFound, id)
	}
	s.Count++
	return nil
}

// List returns copies of all entries in insertion (sequence) order.
func (c *Catalog) List() []model.SKU {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.SKU, 0, len(c.items))
	for _, s := range c.items {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

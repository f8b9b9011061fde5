package ledger

import (
	"sync"

	"github.com/fairyhunter13/vending-machine-service/internal/model"
	"github.com/fairyhunter13/vending-machine-service/internal/money"
)

// SKUSales aggregates completed purchases for one SKU. Revenue is what
// the machine kept: paid minus change.
type SKUSales struct {
	Units   uint64       `json:"units"`
	Revenue money.Amount `json:"revenue"`
}

type skuState struct {
	sales        SKUSales
	lastSequence uint64
}

// Book is the in-memory sales ledger the worker pool writes into.
// Recording is idempotent on the event sequence, so a redelivered event
// is never counted twice.
type Book struct {
	mu         sync.RWMutex
	perSKU     map[string]skuState
	totalUnits uint64
	totalRev   money.Amount
}

// NewBook creates an empty Book.
func NewBook() *Book {
	return &Book{perSKU: make(map[string]skuState)}
}

// Record applies one sale event to the ledger.
func (b *Book) Record(ev model.SaleEvent) {
	if ev.SKU == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.perSKU[ev.SKU]
	if ev.Sequence <= st.lastSequence {
		return
	}
	kept := ev.Paid - ev.Change
	st.sales.Units++
	st.sales.Revenue += kept
	st.lastSequence = ev.Sequence
	b.perSKU[ev.SKU] = st
	b.totalUnits++
	b.totalRev += kept
}

// Get returns the aggregate for one SKU.
func (b *Book) Get(sku string) (SKUSales, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	st, ok := b.perSKU[sku]
	if !ok {
		return SKUSales{}, false
	}
	return st.sales, true
}

// Totals returns units sold and revenue kept across all SKUs.
func (b *Book) Totals() (units uint64, revenue money.Amount) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.totalUnits, b.totalRev
}

// Snapshot returns a copy of all per-SKU aggregates.
func (b *Book) Snapshot() map[string]SKUSales {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]SKUSales, len(b.perSKU))
	for sku, st := range b.perSKU {
		out[sku] = st.sales
	}
	return out
}

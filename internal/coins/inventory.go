// Package coins implements the machine's coin inventory and the greedy
// change-rendering algorithm.
package coins

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fairyhunter13/vending-machine-service/internal/model"
	"github.com/fairyhunter13/vending-machine-service/internal/money"
)

// Inventory tracks the denominations the machine accepts and the physical
// coins it holds per denomination. A denomination removed from the
// accepted set keeps its residual stock; deposits and withdrawals stay
// possible so an operator can empty it out.
type Inventory struct {
	mu       sync.RWMutex
	accepted map[model.Denomination]struct{}
	stock    map[model.Denomination]uint32
}

// New creates an Inventory that accepts the given denominations.
// Non-positive denominations are ignored.
func New(denoms ...model.Denomination) *Inventory {
	inv := &Inventory{
		accepted: make(map[model.Denomination]struct{}, len(denoms)),
		stock:    make(map[model.Denomination]uint32),
	}
	for _, d := range denoms {
		if d.Value() > 0 {
			inv.accepted[d] = struct{}{}
		}
	}
	return inv
}

// IsAccepted reports whether the machine recognizes d as valid currency.
func (inv *Inventory) IsAccepted(d model.Denomination) bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	_, ok := inv.accepted[d]
	return ok
}

// AddDenomination inserts d into the accepted set. It returns false if d
// is already accepted or not a positive value.
func (inv *Inventory) AddDenomination(d model.Denomination) bool {
	if d.Value() <= 0 {
		return false
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if _, ok := inv.accepted[d]; ok {
		return false
	}
	inv.accepted[d] = struct{}{}
	return true
}

// RemoveDenomination removes d from the accepted set, returning false if
// it was not accepted. Residual stock of d is retained.
func (inv *Inventory) RemoveDenomination(d model.Denomination) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if _, ok := inv.accepted[d]; !ok {
		return false
	}
	delete(inv.accepted, d)
	return true
}

// Accepted returns the accepted denominations in ascending value order.
func (inv *Inventory) Accepted() []model.Denomination {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.acceptedAscLocked()
}

func (inv *Inventory) acceptedAscLocked() []model.Denomination {
	out := make([]model.Denomination, 0, len(inv.accepted))
	for d := range inv.accepted {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Deposit adds count coins of denomination d and returns the new stock
// level for d. The count must be positive.
func (inv *Inventory) Deposit(d model.Denomination, count uint32) (uint32, error) {
	if d.Value() <= 0 || count == 0 {
		return 0, fmt.Errorf("%w: deposit of %d x %s", model.ErrInvalidInput, count, d)
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.stock[d] += count
	return inv.stock[d], nil
}

// DepositBucket deposits every entry of the bucket and returns the
// physically rounded total value deposited. Entries with a zero count are
// rejected before any mutation, so a failed call deposits nothing.
func (inv *Inventory) DepositBucket(b model.CoinBucket) (money.Amount, error) {
	for d, n := range b {
		if d.Value() <= 0 || n == 0 {
			return 0, fmt.Errorf("%w: deposit of %d x %s", model.ErrInvalidInput, n, d)
		}
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	var total money.Amount
	for d, n := range b {
		inv.stock[d] += n
		total += d.Value().Times(n)
	}
	return total.Physical(), nil
}

// Withdraw removes count coins of denomination d and returns the new
// stock level. The stock is never allowed to go negative.
func (inv *Inventory) Withdraw(d model.Denomination, count uint32) (uint32, error) {
	if count == 0 {
		return 0, fmt.Errorf("%w: withdraw of 0 x %s", model.ErrInvalidInput, d)
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	have := inv.stock[d]
	if count > have {
		return have, fmt.Errorf("%w: want %d x %s, have %d", model.ErrInsufficientStock, count, d, have)
	}
	inv.stock[d] = have - count
	return inv.stock[d], nil
}

// WithdrawBucket removes every entry of the bucket all-or-nothing: if any
// denomination lacks stock, nothing is withdrawn.
func (inv *Inventory) WithdrawBucket(b model.CoinBucket) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for d, n := range b {
		if n == 0 {
			return fmt.Errorf("%w: withdraw of 0 x %s", model.ErrInvalidInput, d)
		}
		if n > inv.stock[d] {
			return fmt.Errorf("%w: want %d x %s, have %d", model.ErrInsufficientStock, n, d, inv.stock[d])
		}
	}
	for d, n := range b {
		inv.stock[d] -= n
	}
	return nil
}

// Count returns the stock level for one denomination.
func (inv *Inventory) Count(d model.Denomination) uint32 {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.stock[d]
}

// Counts returns a snapshot of all non-zero stock levels.
func (inv *Inventory) Counts() model.CoinBucket {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make(model.CoinBucket, len(inv.stock))
	for d, n := range inv.stock {
		if n > 0 {
			out[d] = n
		}
	}
	return out
}

// RenderChange dispenses exactly amount from stock using the greedy
// highest-denomination-first algorithm over accepted denominations.
//
// The plan is computed against the live stock under the inventory lock
// and committed only when the amount is satisfied exactly, so a failed
// render leaves the stock untouched and a concurrent purchase can never
// consume the same coins mid-computation.
func (inv *Inventory) RenderChange(amount money.Amount) (model.CoinBucket, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: negative change %s", model.ErrInvalidInput, amount)
	}
	bucket := make(model.CoinBucket)
	if amount == 0 {
		return bucket, nil
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	denoms := inv.acceptedAscLocked()
	remaining := amount
	for i := len(denoms) - 1; i >= 0 && remaining > 0; i-- {
		d := denoms[i]
		avail := inv.stock[d]
		for remaining > 0 && avail > 0 && d.Value() <= remaining {
			avail--
			remaining -= d.Value()
			bucket[d]++
		}
	}
	if remaining != 0 {
		return nil, fmt.Errorf("%w: %s short of %s", model.ErrChangeUnavailable, remaining, amount)
	}
	for d, n := range bucket {
		inv.stock[d] -= n
	}
	return bucket, nil
}

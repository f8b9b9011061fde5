// Package model defines domain types used by the vending machine.
package model

import (
	"time"

	"github.com/fairyhunter13/vending-machine-service/internal/money"
)

// Denomination is a single coin face value the machine can handle.
type Denomination money.Amount

// Value returns the monetary value of one coin of this denomination.
func (d Denomination) Value() money.Amount { return money.Amount(d) }

// String renders the face value, e.g. "0.5", "1", "10".
func (d Denomination) String() string { return money.Amount(d).String() }

// MarshalText lets denominations serve as JSON map keys.
func (d Denomination) MarshalText() ([]byte, error) {
	return money.Amount(d).MarshalText()
}

// UnmarshalText parses a denomination from a JSON map key or value.
func (d *Denomination) UnmarshalText(b []byte) error {
	var a money.Amount
	if err := a.UnmarshalText(b); err != nil {
		return err
	}
	*d = Denomination(a)
	return nil
}

// CoinBucket maps denominations to coin counts. It represents either
// inserted payment or dispensed change.
type CoinBucket map[Denomination]uint32

// Value returns the raw (unrounded) monetary value of the bucket.
func (b CoinBucket) Value() money.Amount {
	var total money.Amount
	for d, n := range b {
		total += d.Value().Times(n)
	}
	return total
}

// Clone returns an independent copy of the bucket.
func (b CoinBucket) Clone() CoinBucket {
	out := make(CoinBucket, len(b))
	for d, n := range b {
		out[d] = n
	}
	return out
}

// SKU is a purchasable catalog entry.
type SKU struct {
	ID          string       `json:"id"`
	Price       money.Amount `json:"price"`
	Count       uint32       `json:"count"`
	Sequence    uint64       `json:"sequence"`
	Description string       `json:"description"`
}

// Quote is the answer to an affordability check against a catalog entry.
type Quote struct {
	Price      money.Amount `json:"price"`
	Shortfall  money.Amount `json:"shortfall"`
	Sufficient bool         `json:"sufficient"`
}

// Receipt is the outcome of a successful purchase. It is owned by the
// caller and never retained by the machine.
type Receipt struct {
	TransactionID string       `json:"transaction_id"`
	Sequence      uint64       `json:"sequence"`
	SKU           string       `json:"sku"`
	Paid          money.Amount `json:"paid"`
	Change        money.Amount `json:"change"`
	ChangeCoins   CoinBucket   `json:"change_coins"`
}

// SaleEvent records a completed purchase for the sales ledger.
type SaleEvent struct {
	Sequence uint64       `json:"sequence"`
	SKU      string       `json:"sku"`
	Paid     money.Amount `json:"paid"`
	Change   money.Amount `json:"change"`
	At       time.Time    `json:"at"`
}

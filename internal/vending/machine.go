// Package vending implements the purchase transaction that ties the SKU
// catalog to the coin inventory.
package vending

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/vending-machine-service/internal/catalog"
	"github.com/fairyhunter13/vending-machine-service/internal/coins"
	"github.com/fairyhunter13/vending-machine-service/internal/ledger"
	"github.com/fairyhunter13/vending-machine-service/internal/model"
	"github.com/fairyhunter13/vending-machine-service/internal/money"
	"github.com/fairyhunter13/vending-machine-service/internal/obs"
)

// SalesRecorder receives completed purchases, typically a ledger.Manager.
type SalesRecorder interface {
	Record(ev model.SaleEvent) bool
}

// Machine is one vending machine: a catalog, a coin inventory, and the
// transaction logic between them.
//
// Purchases are serialized by mu; a physical machine handles one buyer at
// a time. Administrative mutation of the catalog and the inventory stays
// safe concurrently through their own locks. Within a purchase the lock
// order is catalog before inventory.
type Machine struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	coins   *coins.Inventory
	seq     ledger.Sequencer
	sales   SalesRecorder
}

// New creates a Machine. sales may be nil when no ledger is attached.
func New(cat *catalog.Catalog, inv *coins.Inventory, sales SalesRecorder) *Machine {
	return &Machine{catalog: cat, coins: inv, sales: sales}
}

// Catalog exposes the machine's catalog for queries and admin mutation.
func (m *Machine) Catalog() *catalog.Catalog { return m.catalog }

// Coins exposes the machine's coin inventory for queries and admin
// mutation.
func (m *Machine) Coins() *coins.Inventory { return m.coins }

// Quote answers whether tendered would cover the price of id.
func (m *Machine) Quote(id string, tendered money.Amount) (model.Quote, error) {
	return m.catalog.CanPurchase(id, tendered)
}

// Purchase runs one buying transaction: validate the SKU and the
// inserted coins, take payment, and dispense exact change.
//
// Validation strictly precedes mutation. Nothing is deposited until the
// SKU is known to exist with stock, every inserted denomination is
// accepted, and the rounded payment covers the price. When change cannot
// be rendered after the deposit, the deposit is refunded and the
// reserved unit returned, so a failed purchase of any kind leaves
// catalog and inventory exactly as they were.
func (m *Machine) Purchase(id string, inserted model.CoinBucket) (model.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	price, err := m.catalog.PriceOf(id)
	if err != nil {
		return model.Receipt{}, err
	}
	if !m.catalog.HasAvailable(id) {
		return model.Receipt{}, fmt.Errorf("%w: sku %q", model.ErrOutOfStock, id)
	}
	if len(inserted) == 0 {
		return model.Receipt{}, &model.InsufficientPaymentError{Shortfall: price}
	}
	for d, n := range inserted {
		if n == 0 {
			return model.Receipt{}, fmt.Errorf("%w: zero count for denomination %s", model.ErrInvalidInput, d)
		}
		if !m.coins.IsAccepted(d) {
			return model.Receipt{}, fmt.Errorf("%w: %s", model.ErrUnacceptedDenomination, d)
		}
	}

	paid := inserted.Value().Physical()
	if paid < price {
		return model.Receipt{}, &model.InsufficientPaymentError{Shortfall: price - paid}
	}

	if err := m.catalog.TakeOne(id); err != nil {
		return model.Receipt{}, err
	}
	if _, err := m.coins.DepositBucket(inserted); err != nil {
		_ = m.catalog.ReturnOne(id)
		return model.Receipt{}, err
	}

	change := (paid - price).Physical()
	changeCoins, err := m.coins.RenderChange(change)
	if err != nil {
		// Refund the deposit and put the unit back; the buyer keeps
		// their coins instead of overpaying.
		_ = m.coins.WithdrawBucket(inserted)
		_ = m.catalog.ReturnOne(id)
		return model.Receipt{}, err
	}

	rcpt := model.Receipt{
		TransactionID: uuid.NewString(),
		Sequence:      m.seq.Next(),
		SKU:           id,
		Paid:          paid,
		Change:        change,
		ChangeCoins:   changeCoins,
	}
	if m.sales != nil {
		m.sales.Record(model.SaleEvent{
			Sequence: rcpt.Sequence,
			SKU:      id,
			Paid:     paid,
			Change:   change,
			At:       time.Now().UTC(),
		})
	}
	obs.Logger.Info("purchase_completed",
		"transaction_id", rcpt.TransactionID,
		"sequence", rcpt.Sequence,
		"sku", id,
		"paid", paid.String(),
		"change", change.String(),
	)
	return rcpt, nil
}

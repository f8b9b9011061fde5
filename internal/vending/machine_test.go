package vending

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/fairyhunter13/vending-machine-service/internal/catalog"
	"github.com/fairyhunter13/vending-machine-service/internal/coins"
	"github.com/fairyhunter13/vending-machine-service/internal/model"
	"github.com/fairyhunter13/vending-machine-service/internal/money"
	"github.com/fairyhunter13/vending-machine-service/internal/obs"
)

func d(s string) model.Denomination {
	return model.Denomination(money.MustParse(s))
}

type captureRecorder struct {
	mu  sync.Mutex
	evs []model.SaleEvent
}

func (c *captureRecorder) Record(ev model.SaleEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evs = append(c.evs, ev)
	return true
}

func (c *captureRecorder) events() []model.SaleEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.SaleEvent(nil), c.evs...)
}

func newMachine(t *testing.T, coinFloat uint32) (*Machine, *captureRecorder) {
	t.Helper()
	obs.InitLogger()
	inv := coins.New(d("1"), d("2"), d("5"), d("10"))
	for _, dn := range inv.Accepted() {
		if coinFloat > 0 {
			if _, err := inv.Deposit(dn, coinFloat); err != nil {
				t.Fatalf("float: %v", err)
			}
		}
	}
	cat := catalog.New()
	if err := cat.Add("Coke", money.MustParse("12.5"), 1000, "Coke Bottle"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := cat.Add("Sprite", money.MustParse("11"), 1000, "Sprite Bottle"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rec := &captureRecorder{}
	return New(cat, inv, rec), rec
}

func snapshot(m *Machine) (model.CoinBucket, []model.SKU) {
	return m.Coins().Counts(), m.Catalog().List()
}

func TestPurchaseSuccess(t *testing.T) {
	m, rec := newMachine(t, 10)
	inserted := model.CoinBucket{d("1"): 2, d("2"): 4, d("5"): 1, d("10"): 5}
	rcpt, err := m.Purchase("Coke", inserted)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if rcpt.Paid != money.MustParse("65") {
		t.Fatalf("paid = %s, want 65", rcpt.Paid)
	}
	// 65 - 12.5 = 52.5 raw; the physical rule lifts it to 53.
	if rcpt.Change != money.MustParse("53") {
		t.Fatalf("change = %s, want 53", rcpt.Change)
	}
	wantCoins := model.CoinBucket{d("10"): 5, d("2"): 1, d("1"): 1}
	if !reflect.DeepEqual(rcpt.ChangeCoins, wantCoins) {
		t.Fatalf("change coins = %v, want %v", rcpt.ChangeCoins, wantCoins)
	}
	if rcpt.TransactionID == "" || rcpt.Sequence != 1 {
		t.Fatalf("unexpected receipt identity: %+v", rcpt)
	}
	sku, _ := m.Catalog().Get("Coke")
	if sku.Count != 999 {
		t.Fatalf("stock = %d, want 999", sku.Count)
	}
	evs := rec.events()
	if len(evs) != 1 || evs[0].SKU != "Coke" || evs[0].Paid != rcpt.Paid || evs[0].Change != rcpt.Change {
		t.Fatalf("unexpected sale events: %+v", evs)
	}
}

func TestPurchaseExactPaymentNoChange(t *testing.T) {
	m, _ := newMachine(t, 10)
	rcpt, err := m.Purchase("Sprite", model.CoinBucket{d("10"): 1, d("1"): 1})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if rcpt.Change != 0 || len(rcpt.ChangeCoins) != 0 {
		t.Fatalf("expected no change, got %s %v", rcpt.Change, rcpt.ChangeCoins)
	}
}

func TestPurchaseFailuresLeaveStateUntouched(t *testing.T) {
	m, rec := newMachine(t, 10)
	if err := m.Catalog().Add("Empty", money.MustParse("5"), 0, "sold out"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	coinsBefore, catBefore := snapshot(m)

	cases := []struct {
		name     string
		sku      string
		inserted model.CoinBucket
		want     error
	}{
		{"unknown sku", "nope", model.CoinBucket{d("10"): 2}, model.ErrNotFound},
		{"out of stock", "Empty", model.CoinBucket{d("10"): 1}, model.ErrOutOfStock},
		{"unaccepted denomination", "Coke", model.CoinBucket{d("3"): 5}, model.ErrUnacceptedDenomination},
		{"zero count coin", "Coke", model.CoinBucket{d("10"): 0}, model.ErrInvalidInput},
		{"insufficient payment", "Coke", model.CoinBucket{d("10"): 1}, model.ErrInsufficientPayment},
		{"no coins", "Coke", nil, model.ErrInsufficientPayment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Purchase(tc.sku, tc.inserted)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			coinsAfter, catAfter := snapshot(m)
			if !reflect.DeepEqual(coinsBefore, coinsAfter) {
				t.Fatalf("coin stock changed: %v -> %v", coinsBefore, coinsAfter)
			}
			if !reflect.DeepEqual(catBefore, catAfter) {
				t.Fatalf("catalog changed: %v -> %v", catBefore, catAfter)
			}
		})
	}
	if len(rec.events()) != 0 {
		t.Fatalf("failed purchases must not reach the ledger")
	}
}

func TestPurchaseShortfallReported(t *testing.T) {
	m, _ := newMachine(t, 10)
	_, err := m.Purchase("Coke", model.CoinBucket{d("10"): 1})
	var short *model.InsufficientPaymentError
	if !errors.As(err, &short) {
		t.Fatalf("expected InsufficientPaymentError, got %v", err)
	}
	if short.Shortfall != money.MustParse("2.5") {
		t.Fatalf("shortfall = %s, want 2.5", short.Shortfall)
	}
}

// When exact change cannot be rendered, the deposit is refunded and the
// reserved unit returned.
func TestPurchaseChangeUnavailableRollsBack(t *testing.T) {
	m, rec := newMachine(t, 0)
	coinsBefore, catBefore := snapshot(m)
	// Paid 20, price 12.5, change 8; the only stock after deposit is two
	// 10s, so 8 is unrepresentable.
	_, err := m.Purchase("Coke", model.CoinBucket{d("10"): 2})
	if !errors.Is(err, model.ErrChangeUnavailable) {
		t.Fatalf("expected ErrChangeUnavailable, got %v", err)
	}
	coinsAfter, catAfter := snapshot(m)
	if !reflect.DeepEqual(coinsBefore, coinsAfter) {
		t.Fatalf("deposit not refunded: %v -> %v", coinsBefore, coinsAfter)
	}
	if !reflect.DeepEqual(catBefore, catAfter) {
		t.Fatalf("reserved unit not returned: %v -> %v", catBefore, catAfter)
	}
	if len(rec.events()) != 0 {
		t.Fatalf("rolled-back purchase must not reach the ledger")
	}
}

func TestQuote(t *testing.T) {
	m, _ := newMachine(t, 0)
	q, err := m.Quote("Coke", money.MustParse("11"))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.Sufficient || q.Shortfall != money.MustParse("1.5") {
		t.Fatalf("unexpected quote: %+v", q)
	}
	if _, err := m.Quote("nope", money.MustParse("100")); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// Two buyers racing for the last unit: exactly one succeeds.
func TestConcurrentLastUnit(t *testing.T) {
	m, _ := newMachine(t, 10)
	if err := m.Catalog().Add("Last", money.MustParse("10"), 1, "final unit"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Purchase("Last", model.CoinBucket{d("10"): 1})
			results <- err
		}()
	}
	wg.Wait()
	close(results)
	var successes, outOfStock int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, model.ErrOutOfStock):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || outOfStock != 1 {
		t.Fatalf("successes=%d outOfStock=%d, want 1 and 1", successes, outOfStock)
	}
	sku, _ := m.Catalog().Get("Last")
	if sku.Count != 0 {
		t.Fatalf("final count = %d, want 0", sku.Count)
	}
}

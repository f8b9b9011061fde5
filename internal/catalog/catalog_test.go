package catalog

import (
	"errors"
	"testing"

	"github.com/fairyhunter13/vending-machine-service/internal/model"
	"github.com/fairyhunter13/vending-machine-service/internal/money"
)

func TestAddAndDuplicate(t *testing.T) {
	c := New()
	if err := c.Add("Coke", money.MustParse("12.5"), 1000, "Coke Bottle"); err != nil {
		t.Fatalf("add: %v", err)
	}
	err := c.Add("Coke", money.MustParse("9"), 10, "duplicate")
	if !errors.Is(err, model.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if err := c.Add("", money.MustParse("1"), 1, "x"); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty id, got %v", err)
	}
	s, ok := c.Get("Coke")
	if !ok || s.Price != money.MustParse("12.5") || s.Count != 1000 {
		t.Fatalf("unexpected entry: %+v", s)
	}
}

func TestSequenceNumbersMonotonic(t *testing.T) {
	c := New()
	for i, id := range []string{"a", "b", "c"} {
		if err := c.Add(id, money.MustParse("1"), 1, ""); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
		s, _ := c.Get(id)
		if s.Sequence != uint64(i+1) {
			t.Fatalf("sequence of %s = %d, want %d", id, s.Sequence, i+1)
		}
	}
	// Removal retires its sequence number; the next insert keeps counting.
	if err := c.Remove("b"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := c.Add("d", money.MustParse("1"), 1, ""); err != nil {
		t.Fatalf("add d: %v", err)
	}
	s, _ := c.Get("d")
	if s.Sequence != 4 {
		t.Fatalf("sequence of d = %d, want 4", s.Sequence)
	}
	if _, err := c.NameForSequence(2); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected retired sequence to be NotFound, got %v", err)
	}
}

func TestNameForSequence(t *testing.T) {
	c := New()
	_ = c.Add("Sprite", money.MustParse("11"), 5, "Sprite Bottle")
	id, err := c.NameForSequence(1)
	if err != nil || id != "Sprite" {
		t.Fatalf("NameForSequence(1) = %q, %v", id, err)
	}
	if _, err := c.NameForSequence(99); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdates(t *testing.T) {
	c := New()
	_ = c.Add("Coke", money.MustParse("12.5"), 10, "bottle")
	if err := c.UpdateCount("Coke", 7); err != nil {
		t.Fatalf("count: %v", err)
	}
	if err := c.UpdatePrice("Coke", money.MustParse("13")); err != nil {
		t.Fatalf("price: %v", err)
	}
	if err := c.UpdateDescription("Coke", "chilled"); err != nil {
		t.Fatalf("description: %v", err)
	}
	s, _ := c.Get("Coke")
	if s.Count != 7 || s.Price != money.MustParse("13") || s.Description != "chilled" {
		t.Fatalf("unexpected entry after updates: %+v", s)
	}
	for _, err := range []error{
		c.UpdateCount("nope", 1),
		c.UpdatePrice("nope", money.MustParse("1")),
		c.UpdateDescription("nope", "x"),
	} {
		if !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
}

func TestHasAvailable(t *testing.T) {
	c := New()
	_ = c.Add("Coke", money.MustParse("12.5"), 1, "")
	if !c.HasAvailable("Coke") {
		t.Fatalf("expected available")
	}
	_ = c.UpdateCount("Coke", 0)
	if c.HasAvailable("Coke") {
		t.Fatalf("expected unavailable at zero count")
	}
	if c.HasAvailable("nope") {
		t.Fatalf("expected unavailable for unknown id")
	}
}

// An unknown SKU is a distinct failure, not just "insufficient".
func TestCanPurchaseDistinguishesNotFound(t *testing.T) {
	c := New()
	_ = c.Add("Coke", money.MustParse("12.5"), 1, "")
	q, err := c.CanPurchase("Coke", money.MustParse("11"))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.Sufficient || q.Shortfall != money.MustParse("1.5") {
		t.Fatalf("unexpected quote: %+v", q)
	}
	q, err = c.CanPurchase("Coke", money.MustParse("12.5"))
	if err != nil || !q.Sufficient || q.Shortfall != 0 {
		t.Fatalf("unexpected quote at exact price: %+v, %v", q, err)
	}
	if _, err := c.CanPurchase("nope", money.MustParse("100")); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPriceOf(t *testing.T) {
	c := New()
	_ = c.Add("Free", 0, 1, "zero-priced but real")
	p, err := c.PriceOf("Free")
	if err != nil || p != 0 {
		t.Fatalf("PriceOf(Free) = %s, %v", p, err)
	}
	if _, err := c.PriceOf("nope"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTakeOneReturnOne(t *testing.T) {
	c := New()
	_ = c.Add("Coke", money.MustParse("12.5"), 1, "")
	if err := c.TakeOne("Coke"); err != nil {
		t.Fatalf("take: %v", err)
	}
	if err := c.TakeOne("Coke"); !errors.Is(err, model.ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	if err := c.ReturnOne("Coke"); err != nil {
		t.Fatalf("return: %v", err)
	}
	if err := c.TakeOne("Coke"); err != nil {
		t.Fatalf("take after return: %v", err)
	}
	if err := c.TakeOne("nope"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListOrder(t *testing.T) {
	c := New()
	for _, id := range []string{"z", "a", "m"} {
		_ = c.Add(id, money.MustParse("1"), 1, "")
	}
	out := c.List()
	if len(out) != 3 || out[0].ID != "z" || out[1].ID != "a" || out[2].ID != "m" {
		t.Fatalf("unexpected list order: %+v", out)
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d", c.Len())
	}
}

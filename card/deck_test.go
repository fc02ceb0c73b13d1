package card

import (
	"math/rand"
	"testing"
)

func TestDeckResetGivesAll52(t *testing.T) {
	var d Deck
	d.Reset()
	if d.Remaining() != 52 {
		t.Fatalf("expected 52 remaining after reset, got %d", d.Remaining())
	}
}

func TestDeckDealAndBurnReduceRemaining(t *testing.T) {
	var d Deck
	d.Reset()
	if !d.Burn() {
		t.Fatalf("burn should succeed on a full deck")
	}
	if d.Remaining() != 51 {
		t.Fatalf("expected 51 remaining after burn, got %d", d.Remaining())
	}
	cards, ok := d.Deal(3)
	if !ok || len(cards) != 3 {
		t.Fatalf("expected to deal 3 cards, got %d ok=%v", len(cards), ok)
	}
	if d.Remaining() != 48 {
		t.Fatalf("expected 48 remaining after dealing 3, got %d", d.Remaining())
	}
}

func TestDeckDealUnderflowFails(t *testing.T) {
	var d Deck
	d.Reset()
	d.Deal(52)
	if _, ok := d.Deal(1); ok {
		t.Fatalf("expected deal from empty deck to fail")
	}
}

func TestDeckShufflePermutesCards(t *testing.T) {
	var d Deck
	d.Reset()
	before := d.Order()
	d.Shuffle(rand.New(rand.NewSource(1)))
	after := d.Order()
	if len(before) != len(after) {
		t.Fatalf("shuffle changed deck size")
	}
	same := true
	for i := range before {
		if before[i] != after[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("shuffle did not change card order (seed 1 should permute)")
	}
	seen := make(map[Card]bool, len(after))
	for _, c := range after {
		seen[c] = true
	}
	if len(seen) != 52 {
		t.Fatalf("shuffle lost or duplicated cards")
	}
}

func TestDeckLoadRestoresOrder(t *testing.T) {
	var d Deck
	d.Reset()
	d.Shuffle(rand.New(rand.NewSource(42)))
	order := d.Order()

	var d2 Deck
	d2.Load(order)
	if d2.Remaining() != len(order) {
		t.Fatalf("load did not restore remaining count")
	}
	cards, _ := d2.Deal(1)
	if cards[0] != order[0] {
		t.Fatalf("load did not preserve dealing order")
	}
}

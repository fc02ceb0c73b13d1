package handeval

import (
	"testing"

	"github.com/feltstack/holdem/card"
)

func c(s card.Suit, r int) card.Card { return card.New(s, r) }

func TestRoyalFlushBeatsLowerStraightFlush(t *testing.T) {
	royal, err := Evaluate([]card.Card{
		c(card.Spade, 1), c(card.Spade, 13), c(card.Spade, 12), c(card.Spade, 11), c(card.Spade, 10),
	})
	if err != nil {
		t.Fatal(err)
	}
	if royal.Category != StraightFlush {
		t.Fatalf("expected straight flush category, got %v", royal.Category)
	}

	lower, err := Evaluate([]card.Card{
		c(card.Heart, 13), c(card.Heart, 12), c(card.Heart, 11), c(card.Heart, 10), c(card.Heart, 9),
	})
	if err != nil {
		t.Fatal(err)
	}
	if Compare(royal, lower) <= 0 {
		t.Fatalf("expected royal flush to beat king-high straight flush")
	}
}

func TestWheelStraightIsLowestStraight(t *testing.T) {
	wheel, err := Evaluate([]card.Card{
		c(card.Spade, 1), c(card.Heart, 2), c(card.Club, 3), c(card.Diamond, 4), c(card.Spade, 5),
	})
	if err != nil {
		t.Fatal(err)
	}
	if wheel.Category != Straight || wheel.Tiebreakers[0] != 5 {
		t.Fatalf("expected wheel straight with top=5, got %v %v", wheel.Category, wheel.Tiebreakers)
	}

	sixHigh, err := Evaluate([]card.Card{
		c(card.Spade, 2), c(card.Heart, 3), c(card.Club, 4), c(card.Diamond, 5), c(card.Spade, 6),
	})
	if err != nil {
		t.Fatal(err)
	}
	if Compare(sixHigh, wheel) <= 0 {
		t.Fatalf("expected 6-high straight to beat the wheel")
	}
}

func TestBestOfSevenPicksStrongestFive(t *testing.T) {
	// Board gives a flush; hole cards give a pair that shouldn't be chosen
	// over the flush.
	cards := []card.Card{
		c(card.Heart, 2), c(card.Heart, 9), // hole cards
		c(card.Heart, 4), c(card.Heart, 6), c(card.Heart, 11), c(card.Club, 2), c(card.Spade, 9),
	}
	res, err := Evaluate(cards)
	if err != nil {
		t.Fatal(err)
	}
	if res.Category != Flush {
		t.Fatalf("expected flush from best-of-seven, got %v", res.Category)
	}
}

func TestFullHouseBeatsFlush(t *testing.T) {
	fh, _ := Evaluate([]card.Card{
		c(card.Spade, 5), c(card.Heart, 5), c(card.Club, 5), c(card.Diamond, 9), c(card.Spade, 9),
	})
	fl, _ := Evaluate([]card.Card{
		c(card.Club, 2), c(card.Club, 5), c(card.Club, 8), c(card.Club, 11), c(card.Club, 13),
	})
	if fh.Category != FullHouse || fl.Category != Flush {
		t.Fatalf("category mismatch: %v %v", fh.Category, fl.Category)
	}
	if Compare(fh, fl) <= 0 {
		t.Fatalf("expected full house to beat flush")
	}
}

func TestExactTieComparesEqual(t *testing.T) {
	a, _ := Evaluate([]card.Card{
		c(card.Spade, 10), c(card.Heart, 9), c(card.Club, 6), c(card.Diamond, 4), c(card.Spade, 2),
	})
	b, _ := Evaluate([]card.Card{
		c(card.Heart, 10), c(card.Club, 9), c(card.Diamond, 6), c(card.Spade, 4), c(card.Heart, 2),
	})
	if Compare(a, b) != 0 {
		t.Fatalf("expected exact tie between suit-swapped identical-value hands")
	}
}

func TestTwoPairOrdersHighPairFirst(t *testing.T) {
	res, err := Evaluate([]card.Card{
		c(card.Spade, 3), c(card.Heart, 3), c(card.Club, 9), c(card.Diamond, 9), c(card.Spade, 13),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Category != TwoPair {
		t.Fatalf("expected two pair, got %v", res.Category)
	}
	if res.Tiebreakers[0] != 9 || res.Tiebreakers[1] != 3 || res.Tiebreakers[2] != 13 {
		t.Fatalf("unexpected tiebreakers: %v", res.Tiebreakers)
	}
}

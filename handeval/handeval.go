// Package handeval ranks poker hands. It evaluates the best five-card
// hand out of five to seven input cards and produces a (category,
// tiebreakers) pair that totally orders hands except for exact ties
// (split pots).
package handeval

import (
	"fmt"
	"sort"

	"github.com/feltstack/holdem/card"
)

// Category is a poker hand category, ordered weakest to strongest.
type Category int

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfKind
	Straight
	Flush
	FullHouse
	FourOfKind
	StraightFlush
)

func (c Category) String() string {
	switch c {
	case HighCard:
		return "high card"
	case OnePair:
		return "one pair"
	case TwoPair:
		return "two pair"
	case ThreeOfKind:
		return "three of a kind"
	case Straight:
		return "straight"
	case Flush:
		return "flush"
	case FullHouse:
		return "full house"
	case FourOfKind:
		return "four of a kind"
	case StraightFlush:
		return "straight flush"
	}
	return "unknown"
}

// Result is the outcome of evaluating one 5-card hand: a category plus
// descending-priority tiebreakers, and the five cards that produced it.
type Result struct {
	Category    Category
	Tiebreakers []int
	Best        [5]card.Card
}

// Evaluate finds the best 5-card hand among all C(n,5) subsets of the
// given cards (n must be at least 5; Texas Hold'em calls this with 5,
// 6, or 7 cards).
func Evaluate(cards []card.Card) (Result, error) {
	if len(cards) < 5 {
		return Result{}, fmt.Errorf("handeval: need at least 5 cards, got %d", len(cards))
	}

	var best Result
	haveBest := false

	forEachFiveSubset(len(cards), func(idx [5]int) {
		five := [5]card.Card{cards[idx[0]], cards[idx[1]], cards[idx[2]], cards[idx[3]], cards[idx[4]]}
		res := rank5(five)
		if !haveBest || Compare(res, best) > 0 {
			best = res
			haveBest = true
		}
	})
	return best, nil
}

// Compare returns >0 if a beats b, <0 if b beats a, 0 on an exact tie
// (split pot).
func Compare(a, b Result) int {
	if a.Category != b.Category {
		if a.Category > b.Category {
			return 1
		}
		return -1
	}
	n := len(a.Tiebreakers)
	if len(b.Tiebreakers) < n {
		n = len(b.Tiebreakers)
	}
	for i := 0; i < n; i++ {
		if a.Tiebreakers[i] != b.Tiebreakers[i] {
			if a.Tiebreakers[i] > b.Tiebreakers[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

func forEachFiveSubset(n int, fn func(idx [5]int)) {
	var idx [5]int
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						idx[0], idx[1], idx[2], idx[3], idx[4] = a, b, c, d, e
						fn(idx)
					}
				}
			}
		}
	}
}

// rank5 classifies a single 5-card hand.
func rank5(cards [5]card.Card) Result {
	values := make([]int, 5)
	for i, c := range cards {
		values[i] = c.Value()
	}
	sort.Sort(sort.Reverse(sort.IntSlice(values)))

	flush := true
	suit0 := cards[0].Suit()
	for _, c := range cards {
		if c.Suit() != suit0 {
			flush = false
			break
		}
	}

	straightTop, isStraight := straightTop(values)

	counts := map[int]int{}
	for _, v := range values {
		counts[v]++
	}
	type vc struct{ value, count int }
	byCount := make([]vc, 0, len(counts))
	for v, c := range counts {
		byCount = append(byCount, vc{v, c})
	}
	sort.Slice(byCount, func(i, j int) bool {
		if byCount[i].count != byCount[j].count {
			return byCount[i].count > byCount[j].count
		}
		return byCount[i].value > byCount[j].value
	})

	switch {
	case flush && isStraight:
		return Result{Category: StraightFlush, Tiebreakers: []int{straightTop}, Best: cards}
	case byCount[0].count == 4:
		kicker := byCount[1].value
		return Result{Category: FourOfKind, Tiebreakers: []int{byCount[0].value, kicker}, Best: cards}
	case byCount[0].count == 3 && byCount[1].count == 2:
		return Result{Category: FullHouse, Tiebreakers: []int{byCount[0].value, byCount[1].value}, Best: cards}
	case flush:
		return Result{Category: Flush, Tiebreakers: append([]int(nil), values...), Best: cards}
	case isStraight:
		return Result{Category: Straight, Tiebreakers: []int{straightTop}, Best: cards}
	case byCount[0].count == 3:
		kickers := []int{byCount[1].value, byCount[2].value}
		sort.Sort(sort.Reverse(sort.IntSlice(kickers)))
		return Result{Category: ThreeOfKind, Tiebreakers: append([]int{byCount[0].value}, kickers...), Best: cards}
	case byCount[0].count == 2 && byCount[1].count == 2:
		hi, lo := byCount[0].value, byCount[1].value
		if lo > hi {
			hi, lo = lo, hi
		}
		return Result{Category: TwoPair, Tiebreakers: []int{hi, lo, byCount[2].value}, Best: cards}
	case byCount[0].count == 2:
		kickers := []int{byCount[1].value, byCount[2].value, byCount[3].value}
		sort.Sort(sort.Reverse(sort.IntSlice(kickers)))
		return Result{Category: OnePair, Tiebreakers: append([]int{byCount[0].value}, kickers...), Best: cards}
	default:
		return Result{Category: HighCard, Tiebreakers: append([]int(nil), values...), Best: cards}
	}
}

// straightTop reports the top card of a straight among five descending,
// possibly-duplicate values, treating ace-low (wheel, A-2-3-4-5) as a
// straight with top=5.
func straightTop(descValues []int) (int, bool) {
	uniq := make([]int, 0, 5)
	seen := map[int]bool{}
	for _, v := range descValues {
		if !seen[v] {
			seen[v] = true
			uniq = append(uniq, v)
		}
	}
	if len(uniq) == 5 {
		if uniq[0]-uniq[4] == 4 {
			return uniq[0], true
		}
		// wheel: A,5,4,3,2 -> uniq = [14,5,4,3,2]
		if uniq[0] == 14 && uniq[1] == 5 && uniq[2] == 4 && uniq[3] == 3 && uniq[4] == 2 {
			return 5, true
		}
	}
	return 0, false
}

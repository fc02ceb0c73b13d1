package poker

import "sort"

// sidePot is one layer of the pot: an amount and the seats still
// eligible to win it (folded contributors stay in the amount but drop
// out of eligibility).
type sidePot struct {
	Amount    int64
	Eligible  map[int]bool
}

// potManager accumulates side pots street by street. calcPotsFromBets
// is called once per completed betting round, after which seats reset
// their current-round bet to zero for the next street; the manager's
// pots keep growing (and merging equal-eligibility layers) across the
// whole hand.
type potManager struct {
	pots []sidePot
}

func (pm *potManager) reset() {
	pm.pots = nil
}

func (pm *potManager) total() int64 {
	var t int64
	for _, p := range pm.pots {
		t += p.Amount
	}
	return t
}

// calcPotsFromBets folds the current-round bets of the given seats
// (indexed as passed in) into the running side-pot ledger. Seats with
// a zero current-round bet are ignored.
func (pm *potManager) calcPotsFromBets(seats map[int]*Seat) {
	type contributor struct {
		idx int
		bet int64
	}
	var contributors []contributor
	for idx, s := range seats {
		if s.currentRoundBet > 0 {
			contributors = append(contributors, contributor{idx, s.currentRoundBet})
		}
	}
	if len(contributors) == 0 {
		return
	}
	sort.Slice(contributors, func(i, j int) bool { return contributors[i].bet < contributors[j].bet })

	var accountedFor int64
	for i, c := range contributors {
		layer := c.bet - accountedFor
		if layer <= 0 {
			continue
		}
		np := sidePot{Eligible: map[int]bool{}}
		for j := i; j < len(contributors); j++ {
			other := contributors[j]
			contribution := layer
			if remaining := other.bet - accountedFor; remaining < contribution {
				contribution = remaining
			}
			np.Amount += contribution
			if s := seats[other.idx]; !s.folded {
				np.Eligible[other.idx] = true
			}
		}
		if len(pm.pots) > 0 {
			last := &pm.pots[len(pm.pots)-1]
			if sameEligibility(last.Eligible, np.Eligible) {
				last.Amount += np.Amount
				accountedFor += layer
				continue
			}
		}
		pm.pots = append(pm.pots, np)
		accountedFor += layer
	}
}

func sameEligibility(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

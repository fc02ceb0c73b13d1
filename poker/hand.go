package poker

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/feltstack/holdem/card"
	"github.com/feltstack/holdem/handeval"
)

// Hand is the authoritative state machine for one deal: blinds through
// showdown. It owns the deck, the seats, the running side pots, and
// the betting-round bookkeeping (current actor, bet to match, last
// raise size, who still owes an action). All mutation goes through
// AdmitSeat, RemoveSeat, StartHand, Act, and Tick — there is no other
// way to change state, which is what lets ToBytes/FromBytes be a total
// round trip.
type Hand struct {
	cfg Config
	rng *rand.Rand

	seats    []*Seat // index = seat id; nil = empty
	maxSeats int

	deck      card.Deck
	community []card.Card

	stage Stage

	dealerIdx     int
	smallBlindIdx int
	bigBlindIdx   int
	currentSeat   int

	currentBetToMatch int64
	lastAggressorIdx  int
	lastRaiseSize     int64
	actedThisRound    map[int]bool

	noShowdown bool
	handNumber uint64

	pot potManager

	actionDeadline time.Time
	lastResult     *SettlementResult

	// pendingSitOut holds seats admitted mid-hand that did not qualify
	// under the blind-position join rule (§4.3.8); StartHand consults
	// it once, for the very next hand, then clears it.
	pendingSitOut map[int]bool
}

func newRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// New creates an empty table of the given size; seats are added with
// AdmitSeat.
func New(cfg Config, maxSeats int, seed int64) (*Hand, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if maxSeats < 2 {
		return nil, fmt.Errorf("poker: maxSeats must be at least 2")
	}
	h := &Hand{
		cfg:              cfg,
		rng:              rand.New(rand.NewSource(seed)),
		seats:            make([]*Seat, maxSeats),
		maxSeats:         maxSeats,
		stage:            StageWaiting,
		dealerIdx:        InvalidSeat,
		currentSeat:      InvalidSeat,
		lastAggressorIdx: InvalidSeat,
	}
	h.deck.Reset()
	return h, nil
}

func (h *Hand) Stage() Stage                { return h.stage }
func (h *Hand) CommunityCards() []card.Card  { return append([]card.Card(nil), h.community...) }
func (h *Hand) CurrentSeat() int             { return h.currentSeat }
func (h *Hand) CurrentBetToMatch() int64     { return h.currentBetToMatch }
func (h *Hand) DealerIdx() int               { return h.dealerIdx }
func (h *Hand) Pot() int64                   { return h.pot.total() + h.streetBets() }
func (h *Hand) ActionDeadline() time.Time    { return h.actionDeadline }
func (h *Hand) LastResult() *SettlementResult { return h.lastResult }
func (h *Hand) MaxSeats() int                { return h.maxSeats }

// streetBets sums every seat's bet on the current street, which Pot
// adds to the chips already collected into side pots.
func (h *Hand) streetBets() int64 {
	var total int64
	for _, s := range h.seats {
		if s != nil {
			total += s.currentRoundBet
		}
	}
	return total
}

// Seat returns the seat at idx, or nil if the index is out of range or
// empty.
func (h *Hand) Seat(idx int) *Seat {
	if idx < 0 || idx >= len(h.seats) {
		return nil
	}
	return h.seats[idx]
}

// AdmitSeat seats userID at idx with the given starting stack. A seat
// admitted between hands plays from the next StartHand. A mid-hand join
// never plays the hand in progress; it plays from the next StartHand
// only if idx is the seat that will post big blind after the dealer
// rotates for that hand, and otherwise it sits out that next hand too.
func (h *Hand) AdmitSeat(idx int, userID string, stack int64) error {
	if idx < 0 || idx >= len(h.seats) {
		return fmt.Errorf("poker: seat index %d out of range", idx)
	}
	if h.seats[idx] != nil {
		return ErrAlreadySeated
	}
	h.seats[idx] = NewSeat(userID, stack)
	if h.stage == StageWaiting || h.stage == StageComplete {
		return nil
	}
	// A mid-hand join never plays the hand in progress (it has no hole
	// cards); the only question is whether it sits out the *next* hand
	// too, which StartHand consults via pendingSitOut before it
	// recomputes every seat's sittingIn flag from its stack.
	h.seats[idx].sittingIn = false
	if idx != h.nextBigBlindIdx() {
		if h.pendingSitOut == nil {
			h.pendingSitOut = map[int]bool{}
		}
		h.pendingSitOut[idx] = true
	}
	return nil
}

// RemoveSeat vacates idx, failing if a hand is in progress and the
// seat is still active in it.
func (h *Hand) RemoveSeat(idx int) error {
	s := h.Seat(idx)
	if s == nil {
		return ErrSeatEmpty
	}
	if h.stage != StageWaiting && h.stage != StageComplete && s.activeInHand() && !s.folded {
		return &ActionError{Reason: "cannot remove a seat that is live in the current hand"}
	}
	h.seats[idx] = nil
	return nil
}

// nextBigBlindIdx computes, relative to the current dealer, the seat
// index that will post big blind in the *next* hand, used by the
// mid-hand join rule (§4.3.8).
func (h *Hand) nextBigBlindIdx() int {
	occupied := h.occupiedIdxSorted()
	if len(occupied) == 0 {
		return InvalidSeat
	}
	nextDealer := h.rotateFrom(h.dealerIdx, occupied)
	if len(occupied) == 2 {
		// heads-up next hand: dealer is SB, other seat is BB.
		for _, i := range occupied {
			if i != nextDealer {
				return i
			}
		}
	}
	sb := h.rotateFrom(nextDealer, occupied)
	bb := h.rotateFrom(sb, occupied)
	return bb
}

func (h *Hand) occupiedIdxSorted() []int {
	var out []int
	for i, s := range h.seats {
		if s != nil {
			out = append(out, i)
		}
	}
	return out
}

// rotateFrom returns the next index after from in the sorted ring of
// candidates (candidates must be sorted ascending).
func (h *Hand) rotateFrom(from int, candidates []int) int {
	if len(candidates) == 0 {
		return InvalidSeat
	}
	if from == InvalidSeat {
		return candidates[0]
	}
	for i, c := range candidates {
		if c == from {
			return candidates[(i+1)%len(candidates)]
		}
	}
	// from is not itself a candidate (e.g. vacated seat): find the
	// first candidate greater than it, wrapping.
	for _, c := range candidates {
		if c > from {
			return c
		}
	}
	return candidates[0]
}

// StartHand begins a new hand: antes, dealer rotation, blinds, hole
// cards, and the first betting round (§4.3.1).
func (h *Hand) StartHand() error {
	h.lastResult = nil
	h.noShowdown = false
	h.community = nil
	h.actedThisRound = map[int]bool{}
	h.lastAggressorIdx = InvalidSeat
	h.lastRaiseSize = 0
	h.pot.reset()
	h.deck.Reset()
	h.deck.Shuffle(h.rng)

	for i, s := range h.seats {
		if s == nil {
			continue
		}
		s.ResetForNewHand()
		s.sittingIn = s.stack > 0 && !h.pendingSitOut[i]
	}
	h.pendingSitOut = nil

	participating := h.occupiedIdxSorted()
	var active []int
	for _, idx := range participating {
		if h.seats[idx].sittingIn {
			active = append(active, idx)
		}
	}
	if len(active) < 2 {
		return ErrInsufficientSeats
	}

	if h.cfg.Ante > 0 {
		for _, idx := range active {
			h.seats[idx].Bet(h.cfg.Ante)
		}
		h.rolloverAntesIntoPot(active)
	}

	h.handNumber++
	h.dealerIdx = h.rotateFrom(h.dealerIdx, active)

	if len(active) == 2 {
		h.smallBlindIdx = h.dealerIdx
		h.bigBlindIdx = h.rotateFrom(h.dealerIdx, active)
	} else {
		h.smallBlindIdx = h.rotateFrom(h.dealerIdx, active)
		h.bigBlindIdx = h.rotateFrom(h.smallBlindIdx, active)
	}

	h.seats[h.smallBlindIdx].Bet(h.cfg.SmallBlind)
	h.seats[h.bigBlindIdx].Bet(h.cfg.BigBlind)
	// Blind posters are not pre-marked as having acted: the big blind
	// must still be given the chance to act (check or raise) once
	// action comes back around, even though its forced bet already
	// matches currentBetToMatch.

	// Deal two hole cards, round-robin starting at small blind.
	for round := 0; round < 2; round++ {
		idx := h.smallBlindIdx
		for {
			dealt, ok := h.deck.Deal(1)
			if !ok {
				return &InvariantError{Reason: "deck underflow dealing hole cards"}
			}
			h.seats[idx].DealHoleCards(dealt[0])
			idx = h.rotateFrom(idx, active)
			if idx == h.smallBlindIdx {
				break
			}
		}
	}

	h.currentBetToMatch = h.cfg.BigBlind
	h.lastRaiseSize = h.cfg.BigBlind
	h.stage = StagePreflop

	if len(active) == 2 {
		h.currentSeat = h.smallBlindIdx
	} else {
		h.currentSeat = h.rotateFrom(h.bigBlindIdx, active)
	}
	h.armDeadline()

	if h.countActiveAndAble(active) <= 1 {
		_, err := h.collectAndAdvance(active)
		return err
	}
	return nil
}

func (h *Hand) rolloverAntesIntoPot(active []int) {
	seatMap := map[int]*Seat{}
	for _, idx := range active {
		seatMap[idx] = h.seats[idx]
	}
	h.pot.calcPotsFromBets(seatMap)
	for _, idx := range active {
		h.seats[idx].ResetForNewStreet()
	}
}

func (h *Hand) armDeadline() {
	if h.cfg.ActionTimeout > 0 {
		h.actionDeadline = time.Now().Add(time.Duration(h.cfg.ActionTimeout) * time.Second)
	} else {
		h.actionDeadline = time.Time{}
	}
}

func (h *Hand) activeSeatIdxs() []int {
	var out []int
	for i, s := range h.seats {
		if s.activeInHand() {
			out = append(out, i)
		}
	}
	return out
}

func (h *Hand) countActiveAndAble(idxs []int) int {
	n := 0
	for _, i := range idxs {
		if h.seats[i].canAct() {
			n++
		}
	}
	return n
}

func (h *Hand) nonFoldedCount() int {
	n := 0
	for _, s := range h.seats {
		if s.activeInHand() && !s.folded {
			n++
		}
	}
	return n
}

// Act applies action kind with the given amount for the seat at
// seatIdx (§4.3.2). amount is ignored for fold/check/call/all-in.
func (h *Hand) Act(seatIdx int, kind ActionKind, amount int64) (*SettlementResult, error) {
	if !h.actionDeadline.IsZero() && time.Now().After(h.actionDeadline) {
		return nil, ErrActionDeadlinePassed
	}
	return h.act(seatIdx, kind, amount)
}

// act applies the action without checking the deadline; Tick uses it
// directly to resolve an already-elapsed deadline through the same
// admission code path (§4.3.5).
func (h *Hand) act(seatIdx int, kind ActionKind, amount int64) (*SettlementResult, error) {
	if h.stage == StageWaiting || h.stage == StageShowdown || h.stage == StageComplete {
		return nil, ErrHandNotRunning
	}
	s := h.Seat(seatIdx)
	if s == nil {
		return nil, ErrSeatEmpty
	}
	if seatIdx != h.currentSeat {
		return nil, ErrNotYourTurn
	}
	if !s.canAct() {
		return nil, &ActionError{Reason: "seat cannot act (folded, all-in, or not dealt in)"}
	}

	priorMatch := h.currentBetToMatch

	switch kind {
	case ActionFold:
		s.Fold()
		delete(h.actedThisRound, seatIdx)
		for i := range h.pot.pots {
			delete(h.pot.pots[i].Eligible, seatIdx)
		}

	case ActionCheck:
		if s.currentRoundBet < h.currentBetToMatch {
			return nil, &ActionError{Reason: "cannot check, a bet is outstanding"}
		}
		h.actedThisRound[seatIdx] = true

	case ActionCall:
		if h.currentBetToMatch <= s.currentRoundBet {
			return nil, &ActionError{Reason: "nothing to call"}
		}
		diff := h.currentBetToMatch - s.currentRoundBet
		s.Bet(diff)
		h.actedThisRound[seatIdx] = true

	case ActionBet:
		if h.currentBetToMatch != 0 {
			return nil, &ActionError{Reason: "a bet is already outstanding, use raise"}
		}
		if amount <= 0 {
			return nil, &ActionError{Reason: "bet amount must be positive"}
		}
		if amount < h.cfg.BigBlind && amount < s.stack {
			return nil, &ActionError{Reason: fmt.Sprintf("minimum bet is $%d", h.cfg.BigBlind)}
		}
		s.Bet(amount)
		h.currentBetToMatch = s.currentRoundBet
		h.lastRaiseSize = s.currentRoundBet
		h.lastAggressorIdx = seatIdx
		h.actedThisRound = map[int]bool{seatIdx: true}

	case ActionRaise:
		if h.currentBetToMatch == 0 {
			return nil, &ActionError{Reason: "no bet to raise, use bet"}
		}
		minRaise := h.lastRaiseSize
		if h.cfg.BigBlind > minRaise {
			minRaise = h.cfg.BigBlind
		}
		if amount <= 0 {
			return nil, &ActionError{Reason: "raise amount must be positive"}
		}
		diff := h.currentBetToMatch - s.currentRoundBet
		if amount < minRaise && diff+amount < s.stack {
			return nil, &ActionError{Reason: fmt.Sprintf("minimum raise is $%d", minRaise)}
		}
		s.Bet(diff + amount)
		h.applyRaiseBookkeeping(seatIdx, priorMatch)

	case ActionAllIn:
		s.Bet(s.stack)
		if s.currentRoundBet > h.currentBetToMatch {
			h.applyRaiseBookkeeping(seatIdx, priorMatch)
		} else {
			h.actedThisRound[seatIdx] = true
		}

	default:
		return nil, &ActionError{Reason: "unknown action"}
	}

	if kind == ActionFold && h.nonFoldedCount() <= 1 {
		h.noShowdown = true
		return h.settle()
	}

	return h.afterAction()
}

// applyRaiseBookkeeping updates currentBetToMatch after a wager that
// exceeds the prior bet to match, applying reopen bookkeeping only
// when the increment meets the minimum-raise requirement (an
// under-minimum all-in is a call-equivalent that still bumps the
// amount to match, per §4.3.2).
func (h *Hand) applyRaiseBookkeeping(seatIdx int, priorMatch int64) {
	s := h.seats[seatIdx]
	newMatch := s.currentRoundBet
	increment := newMatch - priorMatch
	minRaise := h.lastRaiseSize
	if h.cfg.BigBlind > minRaise {
		minRaise = h.cfg.BigBlind
	}
	h.currentBetToMatch = newMatch
	if !s.allIn || increment >= minRaise || priorMatch == 0 {
		h.lastRaiseSize = increment
		h.lastAggressorIdx = seatIdx
		h.actedThisRound = map[int]bool{seatIdx: true}
		return
	}
	h.actedThisRound[seatIdx] = true
}

// afterAction implements round completion (§4.3.3) and, when the
// round has ended, street advancement (§4.3.4).
func (h *Hand) afterAction() (*SettlementResult, error) {
	active := h.activeSeatIdxs()
	if h.nonFoldedCount() <= 1 {
		h.noShowdown = true
		return h.settle()
	}

	ableIdxs := make([]int, 0, len(active))
	for _, i := range active {
		if h.seats[i].canAct() {
			ableIdxs = append(ableIdxs, i)
		}
	}

	if len(ableIdxs) == 0 {
		return h.collectAndAdvance(active)
	}

	allActed := true
	for _, i := range ableIdxs {
		if !h.actedThisRound[i] || h.seats[i].currentRoundBet != h.currentBetToMatch {
			allActed = false
			break
		}
	}
	if allActed {
		return h.collectAndAdvance(active)
	}

	h.currentSeat = h.rotateFrom(h.currentSeat, ableIdxs)
	h.armDeadline()
	return nil, nil
}

// collectAndAdvance folds current-round bets into the running side
// pots and moves the hand to the next street, or straight through to
// showdown if at most one seat can still act.
func (h *Hand) collectAndAdvance(active []int) (*SettlementResult, error) {
	seatMap := map[int]*Seat{}
	for _, i := range active {
		seatMap[i] = h.seats[i]
	}
	h.pot.calcPotsFromBets(seatMap)
	for _, i := range active {
		h.seats[i].ResetForNewStreet()
	}
	h.currentBetToMatch = 0
	h.lastAggressorIdx = InvalidSeat
	h.lastRaiseSize = 0
	h.actedThisRound = map[int]bool{}

	ableCount := h.countActiveAndAble(active)
	if ableCount <= 1 || h.stage == StageRiver {
		return h.dealRemainingAndShowdown()
	}

	h.stage++
	if err := h.dealStreet(); err != nil {
		return nil, err
	}

	var ableIdxs []int
	for _, i := range active {
		if h.seats[i].canAct() {
			ableIdxs = append(ableIdxs, i)
		}
	}
	if len(ableIdxs) == 0 {
		return h.dealRemainingAndShowdown()
	}
	h.currentSeat = firstAtOrAfter(h.smallBlindIdx, ableIdxs)
	h.armDeadline()
	return nil, nil
}

// firstAtOrAfter returns from itself if it is in the sorted candidates
// slice, otherwise the next candidate after it (wrapping).
func firstAtOrAfter(from int, candidates []int) int {
	for _, c := range candidates {
		if c == from {
			return from
		}
	}
	for _, c := range candidates {
		if c > from {
			return c
		}
	}
	return candidates[0]
}

func (h *Hand) dealStreet() error {
	n := streetDeal[h.stage]
	if n == 0 {
		return nil
	}
	if !h.deck.Burn() {
		return &InvariantError{Reason: "deck underflow on burn"}
	}
	dealt, ok := h.deck.Deal(n)
	if !ok {
		return &InvariantError{Reason: "deck underflow dealing community cards"}
	}
	h.community = append(h.community, dealt...)
	return nil
}

func (h *Hand) dealRemainingAndShowdown() (*SettlementResult, error) {
	for len(h.community) < 5 {
		stage := StageFlop
		if len(h.community) == 3 {
			stage = StageTurn
		} else if len(h.community) == 4 {
			stage = StageRiver
		}
		h.stage = stage
		if err := h.dealStreet(); err != nil {
			return nil, err
		}
	}
	h.stage = StageShowdown
	h.currentSeat = InvalidSeat
	return h.settle()
}

// Tick resolves an elapsed action deadline: auto-check if legal,
// otherwise auto-fold (§4.3.5). It is a no-op if no deadline has
// passed.
func (h *Hand) Tick(now time.Time) (*SettlementResult, error) {
	if h.stage == StageWaiting || h.stage == StageShowdown || h.stage == StageComplete {
		return nil, nil
	}
	if h.actionDeadline.IsZero() || now.Before(h.actionDeadline) {
		return nil, nil
	}
	s := h.Seat(h.currentSeat)
	if s == nil {
		return nil, &InvariantError{Reason: "deadline fired with no current seat"}
	}
	if s.currentRoundBet >= h.currentBetToMatch {
		return h.act(h.currentSeat, ActionCheck, 0)
	}
	return h.act(h.currentSeat, ActionFold, 0)
}

// settle evaluates showdown (or awards the pot outright when only one
// seat remains) and moves the hand to complete (§4.3.6).
func (h *Hand) settle() (*SettlementResult, error) {
	active := h.activeSeatIdxs()
	seatMap := map[int]*Seat{}
	for _, i := range active {
		seatMap[i] = h.seats[i]
	}
	h.pot.calcPotsFromBets(seatMap)
	for _, i := range active {
		h.seats[i].ResetForNewStreet()
	}

	var result *SettlementResult
	var err error
	if h.noShowdown {
		result, err = h.settleNoShowdown()
	} else {
		result, err = h.settleShowdown()
	}
	if err != nil {
		return nil, err
	}
	h.stage = StageComplete
	h.currentSeat = InvalidSeat
	h.lastResult = result
	return result, nil
}

func (h *Hand) settleNoShowdown() (*SettlementResult, error) {
	var winner = InvalidSeat
	for _, s := range h.activeSeatIdxs() {
		if !h.seats[s].folded {
			winner = s
			break
		}
	}
	if winner == InvalidSeat {
		return nil, &InvariantError{Reason: "no surviving seat to award the pot to"}
	}
	total := h.pot.total()
	h.seats[winner].AddChips(total)
	res := &SettlementResult{
		PlayerResults: []ShowdownSeatResult{{SeatIdx: winner, IsWinner: true, WinAmount: total}},
		PotResults:    []PotResult{{Amount: total, Winners: []int{winner}, WinAmounts: []int64{total}}},
	}
	return res, nil
}

func (h *Hand) settleShowdown() (*SettlementResult, error) {
	results := map[int]*ShowdownSeatResult{}
	for _, idx := range h.activeSeatIdxs() {
		s := h.seats[idx]
		if s.folded {
			continue
		}
		all := append(append([]card.Card(nil), s.holeCards...), h.community...)
		eval, err := handeval.Evaluate(all)
		if err != nil {
			return nil, &InvariantError{Reason: err.Error()}
		}
		results[idx] = &ShowdownSeatResult{
			SeatIdx:   idx,
			HoleCards: append([]card.Card(nil), s.holeCards...),
			Best:      eval.Best,
			Category:  eval.Category,
		}
	}

	out := &SettlementResult{}
	for _, p := range h.pot.pots {
		eligible := make([]int, 0, len(p.Eligible))
		for idx := range p.Eligible {
			eligible = append(eligible, idx)
		}
		sort.Ints(eligible)

		winners := bestOf(eligible, results)
		pr := PotResult{Amount: p.Amount, Winners: winners}
		if len(winners) == 0 || p.Amount <= 0 {
			out.PotResults = append(out.PotResults, pr)
			continue
		}
		share := p.Amount / int64(len(winners))
		remainder := p.Amount % int64(len(winners))
		for i, w := range winners {
			amt := share
			if i == 0 {
				amt += remainder
			}
			pr.WinAmounts = append(pr.WinAmounts, amt)
			h.seats[w].AddChips(amt)
			results[w].IsWinner = true
			results[w].WinAmount += amt
		}
		out.PotResults = append(out.PotResults, pr)
	}

	idxs := make([]int, 0, len(results))
	for idx := range results {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	for _, idx := range idxs {
		out.PlayerResults = append(out.PlayerResults, *results[idx])
	}
	return out, nil
}

// bestOf returns, among eligible seats with a showdown result, the
// seats whose hand ties for best (sorted ascending seat index: ties
// are reported in a deterministic order, and the integer-division
// remainder from a split pot is always credited to the lowest index).
func bestOf(eligible []int, results map[int]*ShowdownSeatResult) []int {
	var best []int
	var bestEval handeval.Result
	for _, idx := range eligible {
		r, ok := results[idx]
		if !ok {
			continue
		}
		cur := handeval.Result{Category: r.Category, Tiebreakers: tiebreakersOf(r)}
		if len(best) == 0 {
			best = []int{idx}
			bestEval = cur
			continue
		}
		cmp := handeval.Compare(cur, bestEval)
		switch {
		case cmp > 0:
			best = []int{idx}
			bestEval = cur
		case cmp == 0:
			best = append(best, idx)
		}
	}
	sort.Ints(best)
	return best
}

func tiebreakersOf(r *ShowdownSeatResult) []int {
	// Re-derive tiebreakers from the stored best-five via a fresh
	// evaluation; Best is already the winning 5-card combination so
	// this is exact, not a re-search.
	res, _ := handeval.Evaluate(r.Best[:])
	return res.Tiebreakers
}

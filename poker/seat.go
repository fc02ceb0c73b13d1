package poker

import "github.com/feltstack/holdem/card"

// Seat is one occupied chair at the table: a player identity plus the
// chip and hand-state fields the hand machine mutates turn by turn.
type Seat struct {
	UserID string
	stack  int64

	currentRoundBet int64 // chips put in during the current street
	totalHandBet    int64 // chips put in across the whole hand

	allIn     bool
	folded    bool
	sittingIn bool // false => posted out / stood up, not dealt in

	holeCards []card.Card
}

// NewSeat seats a user with the given starting stack.
func NewSeat(userID string, stack int64) *Seat {
	return &Seat{UserID: userID, stack: stack, sittingIn: true}
}

func (s *Seat) Stack() int64             { return s.stack }
func (s *Seat) CurrentRoundBet() int64   { return s.currentRoundBet }
func (s *Seat) AllIn() bool              { return s.allIn }
func (s *Seat) Folded() bool             { return s.folded }
func (s *Seat) SittingIn() bool          { return s.sittingIn }
func (s *Seat) HoleCards() []card.Card   { return s.holeCards }

// activeInHand reports whether this seat was dealt into the current
// hand and still holds chips or cards that matter to it.
func (s *Seat) activeInHand() bool {
	return s != nil && s.sittingIn && len(s.holeCards) > 0
}

// canAct reports whether this seat can still face a decision this
// hand: dealt in, not folded, and not already all-in.
func (s *Seat) canAct() bool {
	return s.activeInHand() && !s.folded && !s.allIn
}

func (s *Seat) DealHoleCards(cards ...card.Card) {
	s.holeCards = append(s.holeCards, cards...)
}

// Bet moves chips from the seat's stack into its current-round bet,
// capping at the seat's stack (forcing all-in) and returns the amount
// actually paid.
func (s *Seat) Bet(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	if amount >= s.stack {
		amount = s.stack
		s.allIn = true
	}
	s.stack -= amount
	s.currentRoundBet += amount
	s.totalHandBet += amount
	return amount
}

func (s *Seat) AddChips(amount int64) {
	s.stack += amount
}

func (s *Seat) Fold() {
	s.folded = true
}

// ResetForNewStreet clears the per-street bet counter once it has been
// folded into the pot, leaving stack/folded/allIn/cards untouched.
func (s *Seat) ResetForNewStreet() {
	s.currentRoundBet = 0
}

// ResetForNewHand clears everything that does not survive between
// hands except the stack and seating status.
func (s *Seat) ResetForNewHand() {
	s.currentRoundBet = 0
	s.totalHandBet = 0
	s.allIn = false
	s.folded = false
	s.holeCards = nil
}

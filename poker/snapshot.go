package poker

import (
	"time"

	"github.com/feltstack/holdem/card"
	"github.com/feltstack/holdem/handeval"
)

// ShowdownSeatResult is one seat's showdown outcome.
type ShowdownSeatResult struct {
	SeatIdx   int
	HoleCards []card.Card
	Best      [5]card.Card
	Category  handeval.Category
	IsWinner  bool
	WinAmount int64
}

// PotResult is one side pot's distribution.
type PotResult struct {
	Amount     int64
	Winners    []int
	WinAmounts []int64
}

// SettlementResult is the full outcome of a completed hand.
type SettlementResult struct {
	PlayerResults []ShowdownSeatResult
	PotResults    []PotResult
}

// PublicSeatView is what every other seat at the table is allowed to
// see about a given seat: chip counts and flags, never hole cards.
type PublicSeatView struct {
	SeatIdx         int
	UserID          string
	Stack           int64
	CurrentRoundBet int64
	Folded          bool
	AllIn           bool
	SittingIn       bool
	HoleCardCount   int
}

// PrivateSeatView additionally carries the seat's own hole cards; it
// is only ever sent to the matching client (§9, hole-card privacy).
type PrivateSeatView struct {
	PublicSeatView
	HoleCards []card.Card
}

// View is a full table snapshot personalized for one seat: every
// other seat is rendered as PublicSeatView, and (if viewerSeat is
// occupied) that seat is additionally exposed with its hole cards,
// which are empty when it was not dealt in.
type View struct {
	Stage             Stage
	CommunityCards     []card.Card
	Pot                int64
	CurrentSeat        int
	CurrentBetToMatch  int64
	DealerIdx          int
	SmallBlindIdx      int
	BigBlindIdx        int
	ActionDeadline     time.Time
	Seats              []*PublicSeatView // index-aligned with table seats, nil for empty
	Viewer             *PrivateSeatView  // nil if viewerSeat is not occupied
	LastResult         *SettlementResult
}

// Snapshot builds a View personalized for viewerSeat (pass InvalidSeat
// for a spectator view with no private hand).
func (h *Hand) Snapshot(viewerSeat int) View {
	v := View{
		Stage:             h.stage,
		CommunityCards:    h.CommunityCards(),
		Pot:               h.Pot(),
		CurrentSeat:       h.currentSeat,
		CurrentBetToMatch: h.currentBetToMatch,
		DealerIdx:         h.dealerIdx,
		SmallBlindIdx:      h.smallBlindIdx,
		BigBlindIdx:        h.bigBlindIdx,
		ActionDeadline:     h.actionDeadline,
		Seats:              make([]*PublicSeatView, len(h.seats)),
		LastResult:         h.lastResult,
	}
	for i, s := range h.seats {
		if s == nil {
			continue
		}
		pub := &PublicSeatView{
			SeatIdx:         i,
			UserID:          s.UserID,
			Stack:           s.stack,
			CurrentRoundBet: s.currentRoundBet,
			Folded:          s.folded,
			AllIn:           s.allIn,
			SittingIn:       s.sittingIn,
			HoleCardCount:   len(s.holeCards),
		}
		v.Seats[i] = pub
		if i == viewerSeat {
			v.Viewer = &PrivateSeatView{
				PublicSeatView: *pub,
				HoleCards:      append([]card.Card(nil), s.holeCards...),
			}
		}
	}
	return v
}

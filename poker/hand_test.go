package poker

import (
	"testing"
	"time"
)

func newHeadsUp(t *testing.T) *Hand {
	t.Helper()
	cfg := Config{SmallBlind: 10, BigBlind: 20, InitialStack: 1000}
	h, err := New(cfg, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.AdmitSeat(0, "A", 1000); err != nil {
		t.Fatal(err)
	}
	if err := h.AdmitSeat(1, "B", 1000); err != nil {
		t.Fatal(err)
	}
	return h
}

func TestHeadsUpCallCheckAdvancesToFlop(t *testing.T) {
	h := newHeadsUp(t)
	if err := h.StartHand(); err != nil {
		t.Fatal(err)
	}
	if h.dealerIdx != 0 || h.smallBlindIdx != 0 || h.bigBlindIdx != 1 {
		t.Fatalf("unexpected heads-up positions: dealer=%d sb=%d bb=%d", h.dealerIdx, h.smallBlindIdx, h.bigBlindIdx)
	}
	if h.Pot() != 30 || h.CurrentBetToMatch() != 20 || h.CurrentSeat() != 0 {
		t.Fatalf("unexpected preflop start: pot=%d match=%d cur=%d", h.Pot(), h.CurrentBetToMatch(), h.CurrentSeat())
	}

	if _, err := h.Act(0, ActionCall, 0); err != nil {
		t.Fatalf("A call failed: %v", err)
	}
	if h.Pot() != 40 || h.Seat(0).Stack() != 980 {
		t.Fatalf("unexpected state after call: pot=%d stackA=%d", h.Pot(), h.Seat(0).Stack())
	}
	if h.CurrentSeat() != 1 {
		t.Fatalf("expected B to act next, got seat %d", h.CurrentSeat())
	}

	if _, err := h.Act(1, ActionCheck, 0); err != nil {
		t.Fatalf("B check failed: %v", err)
	}
	if h.Stage() != StageFlop {
		t.Fatalf("expected flop, got %v", h.Stage())
	}
	if len(h.CommunityCards()) != 3 {
		t.Fatalf("expected 3 flop cards, got %d", len(h.CommunityCards()))
	}
	if h.CurrentSeat() != 0 {
		t.Fatalf("expected A to act first on the flop, got seat %d", h.CurrentSeat())
	}
}

func TestMinimumBetAndRaiseEnforcement(t *testing.T) {
	h := newHeadsUp(t)
	if err := h.StartHand(); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Act(0, ActionCall, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Act(1, ActionCheck, 0); err != nil {
		t.Fatal(err)
	}
	if h.Stage() != StageFlop {
		t.Fatalf("expected flop")
	}

	if _, err := h.Act(0, ActionBet, 10); err == nil {
		t.Fatalf("expected bet of 10 to be rejected (minimum is big blind)")
	}
	if _, err := h.Act(0, ActionBet, 20); err != nil {
		t.Fatalf("bet of 20 should be accepted: %v", err)
	}
	if _, err := h.Act(1, ActionRaise, 100); err != nil {
		t.Fatalf("raise of 100 should be accepted: %v", err)
	}
	if h.CurrentBetToMatch() != 120 {
		t.Fatalf("expected bet to match 120 after raise, got %d", h.CurrentBetToMatch())
	}
	if _, err := h.Act(0, ActionRaise, 50); err == nil {
		t.Fatalf("expected raise of 50 to be rejected (minimum is 100)")
	}
	if _, err := h.Act(0, ActionRaise, 100); err != nil {
		t.Fatalf("raise of 100 should be accepted: %v", err)
	}
}

func TestAllInFoldAwardsPotImmediately(t *testing.T) {
	cfg := Config{SmallBlind: 10, BigBlind: 20, InitialStack: 100}
	h, err := New(cfg, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.AdmitSeat(0, "A", 100); err != nil {
		t.Fatal(err)
	}
	if err := h.AdmitSeat(1, "B", 100); err != nil {
		t.Fatal(err)
	}
	if err := h.StartHand(); err != nil {
		t.Fatal(err)
	}

	if _, err := h.Act(0, ActionAllIn, 0); err != nil {
		t.Fatalf("A all-in failed: %v", err)
	}
	if !h.Seat(0).AllIn() || h.Seat(0).Stack() != 0 {
		t.Fatalf("expected A to be all-in with 0 stack")
	}

	res, err := h.Act(1, ActionFold, 0)
	if err != nil {
		t.Fatalf("B fold failed: %v", err)
	}
	if res == nil {
		t.Fatalf("expected the hand to end on B's fold")
	}
	if h.Stage() != StageComplete {
		t.Fatalf("expected hand complete, got %v", h.Stage())
	}
	if h.Seat(0).Stack() != 120 {
		t.Fatalf("expected A to collect the full 120 pot, got stack %d", h.Seat(0).Stack())
	}
	if h.Seat(1).Stack() != 80 {
		t.Fatalf("expected B to keep the 80 not contributed, got %d", h.Seat(1).Stack())
	}
}

func TestTimeoutAutoChecksWhenLegal(t *testing.T) {
	cfg := Config{SmallBlind: 10, BigBlind: 20, InitialStack: 1000, ActionTimeout: 1}
	h, err := New(cfg, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	h.AdmitSeat(0, "A", 1000)
	h.AdmitSeat(1, "B", 1000)
	if err := h.StartHand(); err != nil {
		t.Fatal(err)
	}
	h.Act(0, ActionCall, 0)
	if h.CurrentSeat() != 1 {
		t.Fatalf("expected B to act")
	}

	future := time.Now().Add(2 * time.Second)
	res, err := h.Tick(future)
	if err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	_ = res
	if h.Stage() != StageFlop {
		t.Fatalf("expected auto-check to advance to the flop, got %v", h.Stage())
	}
}

func TestTickIsNoOpBeforeDeadline(t *testing.T) {
	h := newHeadsUp(t)
	h.cfg.ActionTimeout = 30
	if err := h.StartHand(); err != nil {
		t.Fatal(err)
	}
	res, err := h.Tick(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if res != nil {
		t.Fatalf("expected no-op before deadline")
	}
	if h.Stage() != StagePreflop {
		t.Fatalf("expected stage unchanged")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	h := newHeadsUp(t)
	if err := h.StartHand(); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Act(0, ActionCall, 0); err != nil {
		t.Fatal(err)
	}

	data := h.ToBytes()
	restored, err := FromBytes(data, 99)
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}

	if restored.Stage() != h.Stage() || restored.CurrentSeat() != h.CurrentSeat() ||
		restored.CurrentBetToMatch() != h.CurrentBetToMatch() || restored.Pot() != h.Pot() {
		t.Fatalf("round trip mismatch: got stage=%v seat=%d match=%d pot=%d",
			restored.Stage(), restored.CurrentSeat(), restored.CurrentBetToMatch(), restored.Pot())
	}
	if restored.Seat(0).Stack() != h.Seat(0).Stack() || restored.Seat(1).Stack() != h.Seat(1).Stack() {
		t.Fatalf("round trip stack mismatch")
	}

	if _, err := restored.Act(1, ActionCheck, 0); err != nil {
		t.Fatalf("restored hand should admit the same next action: %v", err)
	}
	if restored.Stage() != StageFlop {
		t.Fatalf("expected restored hand to advance to flop")
	}
}

func TestMidHandJoinRuleParksNonQualifyingSeat(t *testing.T) {
	cfg := Config{SmallBlind: 10, BigBlind: 20, InitialStack: 1000}
	h, err := New(cfg, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	h.AdmitSeat(0, "A", 1000)
	h.AdmitSeat(1, "B", 1000)
	if err := h.StartHand(); err != nil {
		t.Fatal(err)
	}

	want := h.nextBigBlindIdx()
	other := 2
	if want == 2 {
		other = 3
	}
	if err := h.AdmitSeat(other, "late", 1000); err != nil {
		t.Fatal(err)
	}
	if h.Seat(other).activeInHand() {
		t.Fatalf("mid-hand joiner must not be active in the hand already in progress")
	}
	if !h.pendingSitOut[other] {
		t.Fatalf("non-qualifying joiner should be parked for the next hand too")
	}
}

func TestFoldedSeatCannotActAgain(t *testing.T) {
	h := newHeadsUp(t)
	if err := h.StartHand(); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Act(0, ActionFold, 0); err != nil {
		t.Fatal(err)
	}
	if h.Stage() != StageComplete {
		t.Fatalf("expected hand to complete on heads-up fold")
	}
	if h.Seat(1).Stack() != 1010 {
		t.Fatalf("expected B to win the 30 chip pot, got stack %d", h.Seat(1).Stack())
	}
	if _, err := h.Act(0, ActionCheck, 0); err == nil {
		t.Fatalf("expected a second action from the folded seat to be rejected")
	}
}

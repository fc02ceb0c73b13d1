package poker

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/feltstack/holdem/card"
)

// serializeVersion guards the wire schema; FromBytes rejects anything
// else outright rather than attempting to interpret it.
const serializeVersion byte = 1

// ToBytes encodes the full observable state of the hand: config,
// every seat (including hole cards), community cards, the running
// side pots, stage and betting-round bookkeeping, the remaining deck
// order, and the action deadline. It never relies on reflection; every
// field has a fixed position described here, so FromBytes is a total
// inverse for any state ToBytes can produce.
func (h *Hand) ToBytes() []byte {
	var buf bytes.Buffer
	buf.WriteByte(serializeVersion)

	writeInt64(&buf, h.cfg.SmallBlind)
	writeInt64(&buf, h.cfg.BigBlind)
	writeInt64(&buf, h.cfg.Ante)
	writeInt64(&buf, h.cfg.InitialStack)
	writeInt32(&buf, int32(h.cfg.ActionTimeout))

	writeInt32(&buf, int32(h.maxSeats))
	for _, s := range h.seats {
		if s == nil {
			buf.WriteByte(0)
			continue
		}
		buf.WriteByte(1)
		writeString(&buf, s.UserID)
		writeInt64(&buf, s.stack)
		writeInt64(&buf, s.currentRoundBet)
		writeInt64(&buf, s.totalHandBet)
		var flags byte
		if s.allIn {
			flags |= 1
		}
		if s.folded {
			flags |= 2
		}
		if s.sittingIn {
			flags |= 4
		}
		buf.WriteByte(flags)
		writeCards(&buf, s.holeCards)
	}

	writeCards(&buf, h.community)

	writeInt32(&buf, int32(len(h.pot.pots)))
	for _, p := range h.pot.pots {
		writeInt64(&buf, p.Amount)
		writeInt32(&buf, int32(len(p.Eligible)))
		for idx := range p.Eligible {
			writeInt32(&buf, int32(idx))
		}
	}

	buf.WriteByte(byte(h.stage))
	writeInt32(&buf, int32(h.currentSeat))
	writeInt32(&buf, int32(h.dealerIdx))
	writeInt32(&buf, int32(h.smallBlindIdx))
	writeInt32(&buf, int32(h.bigBlindIdx))
	writeInt64(&buf, h.currentBetToMatch)
	writeInt32(&buf, int32(h.lastAggressorIdx))
	writeInt64(&buf, h.lastRaiseSize)

	writeInt32(&buf, int32(len(h.actedThisRound)))
	for idx := range h.actedThisRound {
		writeInt32(&buf, int32(idx))
	}

	var deadlineMs int64
	if !h.actionDeadline.IsZero() {
		deadlineMs = h.actionDeadline.UnixMilli()
	}
	writeInt64(&buf, deadlineMs)

	var handFlags byte
	if h.noShowdown {
		handFlags |= 1
	}
	buf.WriteByte(handFlags)
	writeUint64(&buf, h.handNumber)

	writeInt32(&buf, int32(len(h.pendingSitOut)))
	for idx := range h.pendingSitOut {
		writeInt32(&buf, int32(idx))
	}

	order := h.deck.Order()
	writeInt32(&buf, int32(len(order)))
	for _, c := range order {
		buf.WriteByte(byte(c))
	}

	return buf.Bytes()
}

// FromBytes reconstructs a Hand from ToBytes output. The rng seed is
// not part of the serialized form (the deck order already captures
// all remaining randomness); a fresh rng is seeded from seed for any
// future shuffles (i.e. the next StartHand).
func FromBytes(data []byte, seed int64) (*Hand, error) {
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("poker: empty serialized hand")
	}
	if version != serializeVersion {
		return nil, fmt.Errorf("poker: unsupported serialization version %d", version)
	}

	cfg := Config{}
	cfg.SmallBlind = readInt64(r)
	cfg.BigBlind = readInt64(r)
	cfg.Ante = readInt64(r)
	cfg.InitialStack = readInt64(r)
	cfg.ActionTimeout = int(readInt32(r))

	maxSeats := int(readInt32(r))
	h := &Hand{
		cfg:      cfg,
		rng:      newRNG(seed),
		seats:    make([]*Seat, maxSeats),
		maxSeats: maxSeats,
	}

	for i := 0; i < maxSeats; i++ {
		occupied, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("poker: truncated seat table")
		}
		if occupied == 0 {
			continue
		}
		userID := readString(r)
		stack := readInt64(r)
		currentRoundBet := readInt64(r)
		totalHandBet := readInt64(r)
		flags, _ := r.ReadByte()
		hole := readCards(r)
		h.seats[i] = &Seat{
			UserID:          userID,
			stack:           stack,
			currentRoundBet: currentRoundBet,
			totalHandBet:    totalHandBet,
			allIn:           flags&1 != 0,
			folded:          flags&2 != 0,
			sittingIn:       flags&4 != 0,
			holeCards:       hole,
		}
	}

	h.community = readCards(r)

	numPots := int(readInt32(r))
	h.pot.pots = make([]sidePot, numPots)
	for i := 0; i < numPots; i++ {
		amount := readInt64(r)
		n := int(readInt32(r))
		eligible := make(map[int]bool, n)
		for j := 0; j < n; j++ {
			eligible[int(readInt32(r))] = true
		}
		h.pot.pots[i] = sidePot{Amount: amount, Eligible: eligible}
	}

	stageByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("poker: truncated stage")
	}
	h.stage = Stage(stageByte)
	h.currentSeat = int(readInt32(r))
	h.dealerIdx = int(readInt32(r))
	h.smallBlindIdx = int(readInt32(r))
	h.bigBlindIdx = int(readInt32(r))
	h.currentBetToMatch = readInt64(r)
	h.lastAggressorIdx = int(readInt32(r))
	h.lastRaiseSize = readInt64(r)

	numActed := int(readInt32(r))
	h.actedThisRound = make(map[int]bool, numActed)
	for i := 0; i < numActed; i++ {
		h.actedThisRound[int(readInt32(r))] = true
	}

	deadlineMs := readInt64(r)
	if deadlineMs != 0 {
		h.actionDeadline = time.UnixMilli(deadlineMs)
	}

	handFlags, _ := r.ReadByte()
	h.noShowdown = handFlags&1 != 0
	h.handNumber = readUint64(r)

	numPendingSitOut := int(readInt32(r))
	if numPendingSitOut > 0 {
		h.pendingSitOut = make(map[int]bool, numPendingSitOut)
		for i := 0; i < numPendingSitOut; i++ {
			h.pendingSitOut[int(readInt32(r))] = true
		}
	}

	deckLen := int(readInt32(r))
	order := make([]card.Card, deckLen)
	for i := 0; i < deckLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("poker: truncated deck order")
		}
		order[i] = card.Card(b)
	}
	h.deck.Load(order)

	if r.Len() != 0 {
		return nil, fmt.Errorf("poker: %d unexpected trailing bytes", r.Len())
	}
	return h, nil
}

func writeInt32(buf *bytes.Buffer, v int32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	buf.Write(tmp[:])
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	buf.Write(tmp[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeInt32(buf, int32(len(s)))
	buf.WriteString(s)
}

func writeCards(buf *bytes.Buffer, cards []card.Card) {
	buf.WriteByte(byte(len(cards)))
	for _, c := range cards {
		buf.WriteByte(byte(c))
	}
}

func readInt32(r *bytes.Reader) int32 {
	var tmp [4]byte
	_, _ = r.Read(tmp[:])
	return int32(binary.BigEndian.Uint32(tmp[:]))
}

func readInt64(r *bytes.Reader) int64 {
	var tmp [8]byte
	_, _ = r.Read(tmp[:])
	return int64(binary.BigEndian.Uint64(tmp[:]))
}

func readUint64(r *bytes.Reader) uint64 {
	var tmp [8]byte
	_, _ = r.Read(tmp[:])
	return binary.BigEndian.Uint64(tmp[:])
}

func readString(r *bytes.Reader) string {
	n := readInt32(r)
	buf := make([]byte, n)
	_, _ = r.Read(buf)
	return string(buf)
}

func readCards(r *bytes.Reader) []card.Card {
	n, err := r.ReadByte()
	if err != nil || n == 0 {
		return nil
	}
	out := make([]card.Card, n)
	for i := byte(0); i < n; i++ {
		b, _ := r.ReadByte()
		out[i] = card.Card(b)
	}
	return out
}

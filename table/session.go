// Package table implements the TableSession actor (§4.4): one logical
// poker table owning a Hand, a chat buffer, and its readiness sets.
// Every mutation — seating, connect/disconnect, actions, timeouts —
// is serialized through a single-writer event queue per table, so two
// goroutines never touch the same Hand concurrently (§5).
package table

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/feltstack/holdem/cache"
	"github.com/feltstack/holdem/poker"
)

const (
	foldHandInterval     = 3 * time.Second
	showdownHandInterval = 8 * time.Second
	tickInterval         = 500 * time.Millisecond
)

// DirectoryClient is the subset of the external Directory Service a
// table actor calls out to. The concrete HTTP-backed implementation
// lives in the directory package; table only depends on this
// interface so it never imports a transport concern.
type DirectoryClient interface {
	UnseatPlayer(ctx context.Context, tableID, userID string) error
	ReportPayoutIntent(ctx context.Context, tableID, userID string, amount int64) error
	RecordHandHistory(ctx context.Context, communityID, tableID string, result *poker.SettlementResult, final poker.View) error
}

// Config configures a new Session.
type Config struct {
	TableID        string
	CommunityID    string
	MaxSeats       int
	HandConfig     poker.Config
	ReconnectGrace time.Duration
	IdleTTL        time.Duration
	Seed           int64
}

type eventType int

const (
	evSeatPlayer eventType = iota
	evMarkConnected
	evMarkDisconnected
	evReconnect
	evSubmitAction
	evLeave
	evClose
)

type sessionEvent struct {
	typ         eventType
	userID      string
	displayName string
	seat        int
	buyIn       int64
	socketID    string
	kind        poker.ActionKind
	amount      int64
	response    chan error
}

// Session is one table's actor: the Hand, readiness sets, chat
// history, disconnect records, and the timers that drive them.
type Session struct {
	mu sync.Mutex

	id          string
	communityID string
	maxSeats    int

	hand *poker.Hand

	seatedUsers      map[string]int // userID -> seat index
	seatDisplayNames map[int]string
	connectedUsers   map[string]bool
	userSocket       map[string]string

	disconnects map[string]*DisconnectRecord
	chat        *ChatRingBuffer

	cache     cache.Gateway
	directory DirectoryClient
	broadcast Broadcaster
	onIdle    func(tableID string)

	reconnectGrace time.Duration
	idleTTL        time.Duration

	nextHandAt      time.Time
	emptySince      time.Time
	cleanupSignaled bool
	closed          bool

	events   chan sessionEvent
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a table actor and starts its mutation loop. broadcast
// delivers outbound events to individual sockets; cache and directory
// may be nil for tests that don't need persistence or external calls.
func New(cfg Config, broadcast Broadcaster, cacheGW cache.Gateway, directory DirectoryClient, onIdle func(string)) (*Session, error) {
	hand, err := poker.New(cfg.HandConfig, cfg.MaxSeats, cfg.Seed)
	if err != nil {
		return nil, err
	}
	grace := cfg.ReconnectGrace
	if grace <= 0 {
		grace = 60 * time.Second
	}
	s := &Session{
		id:               cfg.TableID,
		communityID:      cfg.CommunityID,
		maxSeats:         cfg.MaxSeats,
		hand:             hand,
		seatedUsers:      make(map[string]int),
		seatDisplayNames: make(map[int]string),
		connectedUsers:   make(map[string]bool),
		userSocket:       make(map[string]string),
		disconnects:      make(map[string]*DisconnectRecord),
		chat:             newChatRingBuffer(),
		cache:            cacheGW,
		directory:        directory,
		broadcast:        broadcast,
		onIdle:           onIdle,
		reconnectGrace:   grace,
		idleTTL:          cfg.IdleTTL,
		emptySince:       time.Now(),
		events:           make(chan sessionEvent, 256),
		done:             make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Restore creates a table actor whose Hand is rehydrated from
// previously serialized bytes (a cache hit on startup) rather than a
// fresh deal.
func Restore(cfg Config, data []byte, broadcast Broadcaster, cacheGW cache.Gateway, directory DirectoryClient, onIdle func(string)) (*Session, error) {
	hand, err := poker.FromBytes(data, cfg.Seed)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:               cfg.TableID,
		communityID:      cfg.CommunityID,
		maxSeats:         hand.MaxSeats(),
		hand:             hand,
		seatedUsers:      make(map[string]int),
		seatDisplayNames: make(map[int]string),
		connectedUsers:   make(map[string]bool),
		userSocket:       make(map[string]string),
		disconnects:      make(map[string]*DisconnectRecord),
		chat:             newChatRingBuffer(),
		cache:            cacheGW,
		directory:        directory,
		broadcast:        broadcast,
		onIdle:           onIdle,
		reconnectGrace:   cfg.ReconnectGrace,
		idleTTL:          cfg.IdleTTL,
		emptySince:       time.Now(),
		events:           make(chan sessionEvent, 256),
		done:             make(chan struct{}),
	}
	go s.run()
	return s, nil
}

func (s *Session) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case e := <-s.events:
			err := s.dispatch(e)
			if e.response != nil {
				e.response <- err
			}
		case now := <-ticker.C:
			s.mu.Lock()
			s.tickLocked(now)
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}

func (s *Session) submit(e sessionEvent) error {
	e.response = make(chan error, 1)
	select {
	case s.events <- e:
	case <-s.done:
		return ErrTableClosed
	}
	select {
	case err := <-e.response:
		return err
	case <-s.done:
		return ErrTableClosed
	}
}

func (s *Session) dispatch(e sessionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed && e.typ != evClose {
		return ErrTableClosed
	}
	switch e.typ {
	case evSeatPlayer:
		return s.handleSeatPlayerLocked(e.userID, e.displayName, e.seat, e.buyIn)
	case evMarkConnected:
		return s.handleMarkConnectedLocked(e.userID, e.socketID)
	case evMarkDisconnected:
		return s.handleMarkDisconnectedLocked(e.userID)
	case evReconnect:
		return s.handleReconnectLocked(e.userID, e.socketID)
	case evSubmitAction:
		return s.handleSubmitActionLocked(e.userID, e.kind, e.amount)
	case evLeave:
		return s.handleLeaveLocked(e.userID)
	case evClose:
		s.closeLocked()
		return nil
	default:
		return fmt.Errorf("table: unknown event type %d", e.typ)
	}
}

// SeatPlayer implements §4.4 seatPlayer.
func (s *Session) SeatPlayer(userID, displayName string, seat int, buyInChips int64) error {
	return s.submit(sessionEvent{typ: evSeatPlayer, userID: userID, displayName: displayName, seat: seat, buyIn: buyInChips})
}

// MarkConnected implements §4.4 markConnected.
func (s *Session) MarkConnected(userID, socketID string) error {
	return s.submit(sessionEvent{typ: evMarkConnected, userID: userID, socketID: socketID})
}

// MarkDisconnected implements §4.4 markDisconnected.
func (s *Session) MarkDisconnected(userID string) error {
	return s.submit(sessionEvent{typ: evMarkDisconnected, userID: userID})
}

// Reconnect implements §4.4 reconnect.
func (s *Session) Reconnect(userID, newSocketID string) error {
	return s.submit(sessionEvent{typ: evReconnect, userID: userID, socketID: newSocketID})
}

// SubmitAction implements §4.4 submitAction.
func (s *Session) SubmitAction(userID string, kind poker.ActionKind, amount int64) error {
	return s.submit(sessionEvent{typ: evSubmitAction, userID: userID, kind: kind, amount: amount})
}

// Leave implements §4.4 leave.
func (s *Session) Leave(userID string) error {
	return s.submit(sessionEvent{typ: evLeave, userID: userID})
}

// Chat records a chat message and fans it out to every connected
// seat; chat is not part of the admitted-action funnel (§4.7) since
// it never touches Hand state.
func (s *Session) Chat(userID, senderName, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := ChatMessage{ID: uuid.NewString(), SenderUserID: userID, SenderName: senderName, Text: text, Timestamp: time.Now()}
	s.chat.Add(msg)
	s.broadcastRoomAllLocked(OutboundEvent{Kind: EventChatMessage, Payload: ChatMessagePayload{Message: msg}})
}

// Stop shuts down the table actor.
func (s *Session) Stop() {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	_ = s.submit(sessionEvent{typ: evClose})
}

func (s *Session) closeLocked() {
	s.closed = true
	s.stopOnce.Do(func() { close(s.done) })
}

// Snapshot returns a personalized view for userID without routing
// through the event queue (read-only, safe under the same mutex the
// actor uses for mutation).
func (s *Session) Snapshot(userID string) poker.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat := poker.InvalidSeat
	if idx, ok := s.seatedUsers[userID]; ok {
		seat = idx
	}
	return s.hand.Snapshot(seat)
}

// IsIdleFor reports whether the table has had zero seated users for
// at least ttl.
func (s *Session) IsIdleFor(ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	if len(s.seatedUsers) > 0 {
		return false
	}
	if s.emptySince.IsZero() {
		return false
	}
	return time.Since(s.emptySince) >= ttl
}

// ID returns the table identifier.
func (s *Session) ID() string { return s.id }

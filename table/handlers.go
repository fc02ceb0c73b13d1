package table

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/feltstack/holdem/cache"
	"github.com/feltstack/holdem/poker"
)

func (s *Session) handleSeatPlayerLocked(userID, displayName string, seat int, buyInChips int64) error {
	if _, ok := s.seatedUsers[userID]; ok {
		return ErrAlreadySeated
	}
	if seat < 0 || seat >= s.maxSeats {
		return fmt.Errorf("table: seat index %d out of range", seat)
	}
	if len(s.seatedUsers) >= s.maxSeats {
		return ErrTableFull
	}
	if err := s.hand.AdmitSeat(seat, userID, buyInChips); err != nil {
		if err == poker.ErrAlreadySeated {
			return ErrSeatOccupied
		}
		return err
	}
	s.seatedUsers[userID] = seat
	s.seatDisplayNames[seat] = displayName
	s.updateEmptySinceLocked(time.Now())
	return nil
}

func (s *Session) handleMarkConnectedLocked(userID, socketID string) error {
	if s.connectedUsers[userID] && s.userSocket[userID] == socketID {
		return nil
	}
	s.connectedUsers[userID] = true
	s.userSocket[userID] = socketID
	delete(s.disconnects, userID)
	s.broadcast(userID, OutboundEvent{Kind: EventConnected, Payload: ConnectedPayload{SocketID: socketID, Message: "connected"}})
	if s.hand.Stage() == poker.StageWaiting && s.readyCountLocked() >= 2 {
		_ = s.startHandLocked()
	}
	s.sendStateToLocked(userID)
	return nil
}

func (s *Session) handleMarkDisconnectedLocked(userID string) error {
	if !s.connectedUsers[userID] {
		return nil
	}
	socketID := s.userSocket[userID]
	delete(s.connectedUsers, userID)
	var snap poker.View
	if seat, seated := s.seatedUsers[userID]; seated {
		snap = s.hand.Snapshot(seat)
	}
	s.disconnects[userID] = &DisconnectRecord{
		ID:             uuid.NewString(),
		UserID:         userID,
		TableID:        s.id,
		SocketIDAtDrop: socketID,
		Deadline:       time.Now().Add(s.reconnectGrace),
		Snapshot:       snap,
		ChatSnapshot:   s.chat.All(),
	}
	s.broadcastRoomExceptLocked(userID, OutboundEvent{
		Kind: EventPlayerDisconnected,
		Payload: PlayerDisconnectedPayload{
			Name:    s.displayNameLocked(userID),
			GraceMs: s.reconnectGrace.Milliseconds(),
		},
	})
	return nil
}

func (s *Session) handleReconnectLocked(userID, newSocketID string) error {
	rec, ok := s.disconnects[userID]
	if !ok {
		return ErrNoDisconnectRecord
	}
	delete(s.disconnects, userID)
	s.connectedUsers[userID] = true
	s.userSocket[userID] = newSocketID

	state := rec.Snapshot
	if seat, seated := s.seatedUsers[userID]; seated {
		state = s.hand.Snapshot(seat)
	}
	s.broadcast(userID, OutboundEvent{Kind: EventReconnected, Payload: ReconnectedPayload{TableID: s.id, State: state}})
	s.broadcast(userID, OutboundEvent{Kind: EventChatHistory, Payload: ChatHistoryPayload{Messages: s.chat.All()}})
	s.broadcastRoomExceptLocked(userID, OutboundEvent{
		Kind:    EventPlayerReconnected,
		Payload: PlayerReconnectedPayload{Name: s.displayNameLocked(userID)},
	})
	return nil
}

func (s *Session) handleSubmitActionLocked(userID string, kind poker.ActionKind, amount int64) error {
	seat, ok := s.seatedUsers[userID]
	if !ok {
		return ErrNotSeated
	}
	result, err := s.hand.Act(seat, kind, amount)
	if err != nil {
		s.broadcast(userID, OutboundEvent{Kind: EventActionError, Payload: ActionErrorPayload{Reason: err.Error()}})
		return err
	}
	s.persistLocked()
	s.broadcastStateToAllLocked()
	if result != nil {
		s.onHandCompleteLocked(result)
	}
	return nil
}

func (s *Session) handleLeaveLocked(userID string) error {
	seat, seated := s.seatedUsers[userID]
	if !seated {
		return nil
	}
	var payout int64
	if seatObj := s.hand.Seat(seat); seatObj != nil {
		payout = seatObj.Stack()
	}
	if err := s.hand.RemoveSeat(seat); err != nil {
		return err
	}
	delete(s.seatedUsers, userID)
	delete(s.seatDisplayNames, seat)
	delete(s.connectedUsers, userID)
	delete(s.userSocket, userID)
	delete(s.disconnects, userID)
	s.reportLeaveIntents(userID, payout)
	s.updateEmptySinceLocked(time.Now())
	if len(s.seatedUsers) == 0 {
		s.deleteCacheEntry()
	}
	return nil
}

func (s *Session) tickLocked(now time.Time) {
	if s.closed {
		return
	}
	stage := s.hand.Stage()
	if stage != poker.StageWaiting && stage != poker.StageComplete {
		prevSeat := s.hand.CurrentSeat()
		result, err := s.hand.Tick(now)
		if err != nil {
			log.Printf("table %s: tick error: %v", s.id, err)
		} else if result != nil || s.hand.CurrentSeat() != prevSeat {
			name := s.seatDisplayNames[prevSeat]
			s.broadcastRoomAllLocked(OutboundEvent{Kind: EventActionTimeout, Payload: ActionTimeoutPayload{SeatName: name}})
			s.persistLocked()
			s.broadcastStateToAllLocked()
			if result != nil {
				s.onHandCompleteLocked(result)
			}
		}
	}
	s.releaseExpiredDisconnectsLocked(now)
	if !s.nextHandAt.IsZero() && !now.Before(s.nextHandAt) {
		s.tryStartHandLocked()
	}
	s.maybeSignalIdleCleanupLocked(now)
}

func (s *Session) tryStartHandLocked() {
	s.nextHandAt = time.Time{}
	stage := s.hand.Stage()
	if stage != poker.StageWaiting && stage != poker.StageComplete {
		return
	}
	if s.readyCountLocked() < 2 {
		return
	}
	_ = s.startHandLocked()
}

func (s *Session) startHandLocked() error {
	if err := s.hand.StartHand(); err != nil {
		return err
	}
	s.persistLocked()
	s.broadcastStateToAllLocked()
	return nil
}

func (s *Session) onHandCompleteLocked(result *poker.SettlementResult) {
	delay := foldHandInterval
	if len(result.PlayerResults) >= 2 {
		delay = showdownHandInterval
	}
	s.nextHandAt = time.Now().Add(delay)

	if s.directory == nil {
		return
	}
	final := s.hand.Snapshot(poker.InvalidSeat)
	directory := s.directory
	communityID, tableID := s.communityID, s.id
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := directory.RecordHandHistory(ctx, communityID, tableID, result, final); err != nil {
			log.Printf("table %s: hand history emit suppressed: %v", tableID, err)
		}
	}()
}

func (s *Session) releaseExpiredDisconnectsLocked(now time.Time) {
	for userID, rec := range s.disconnects {
		if now.Before(rec.Deadline) {
			continue
		}
		seat, seated := s.seatedUsers[userID]
		if !seated {
			delete(s.disconnects, userID)
			continue
		}
		var payout int64
		if seatObj := s.hand.Seat(seat); seatObj != nil {
			payout = seatObj.Stack()
		}
		if err := s.hand.RemoveSeat(seat); err != nil {
			// Still live in the current hand; the seat is retried on a
			// later tick once the hand reaches a waiting/complete
			// boundary.
			continue
		}
		delete(s.disconnects, userID)
		delete(s.seatedUsers, userID)
		delete(s.seatDisplayNames, seat)
		delete(s.connectedUsers, userID)
		delete(s.userSocket, userID)
		s.reportLeaveIntents(userID, payout)
		s.updateEmptySinceLocked(now)
		if len(s.seatedUsers) == 0 {
			s.deleteCacheEntry()
		}
	}
}

func (s *Session) maybeSignalIdleCleanupLocked(now time.Time) {
	if s.idleTTL <= 0 || s.emptySince.IsZero() || s.cleanupSignaled {
		return
	}
	if now.Sub(s.emptySince) < s.idleTTL {
		return
	}
	s.cleanupSignaled = true
	if s.onIdle != nil {
		s.onIdle(s.id)
	}
}

func (s *Session) updateEmptySinceLocked(now time.Time) {
	if len(s.seatedUsers) == 0 {
		if s.emptySince.IsZero() {
			s.emptySince = now
		}
		return
	}
	s.emptySince = time.Time{}
	s.cleanupSignaled = false
}

func (s *Session) readyCountLocked() int {
	n := 0
	for userID := range s.seatedUsers {
		if s.connectedUsers[userID] {
			n++
		}
	}
	return n
}

func (s *Session) displayNameLocked(userID string) string {
	if seat, ok := s.seatedUsers[userID]; ok {
		if name, ok2 := s.seatDisplayNames[seat]; ok2 {
			return name
		}
	}
	return userID
}

func (s *Session) sendStateToLocked(userID string) {
	seat := poker.InvalidSeat
	if idx, ok := s.seatedUsers[userID]; ok {
		seat = idx
	}
	view := s.hand.Snapshot(seat)
	s.broadcast(userID, OutboundEvent{Kind: EventTableStateUpdate, Payload: TableStateUpdatePayload{State: view}})
}

func (s *Session) broadcastStateToAllLocked() {
	for userID := range s.connectedUsers {
		s.sendStateToLocked(userID)
	}
}

func (s *Session) broadcastRoomAllLocked(evt OutboundEvent) {
	for userID := range s.connectedUsers {
		s.broadcast(userID, evt)
	}
}

func (s *Session) broadcastRoomExceptLocked(except string, evt OutboundEvent) {
	for userID := range s.connectedUsers {
		if userID == except {
			continue
		}
		s.broadcast(userID, evt)
	}
}

func (s *Session) persistLocked() {
	if s.cache == nil {
		return
	}
	data := s.hand.ToBytes()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.Save(ctx, cache.HandKey(s.id), data); err != nil {
		log.Printf("table %s: cache save failed: %v", s.id, err)
	}
}

func (s *Session) deleteCacheEntry() {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, cache.HandKey(s.id)); err != nil {
		log.Printf("table %s: cache delete failed: %v", s.id, err)
	}
}

func (s *Session) reportLeaveIntents(userID string, payout int64) {
	if s.directory == nil {
		return
	}
	directory := s.directory
	tableID := s.id
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if payout > 0 {
			if err := directory.ReportPayoutIntent(ctx, tableID, userID, payout); err != nil {
				log.Printf("table %s: payout intent report failed for %s: %v", tableID, userID, err)
			}
		}
		if err := directory.UnseatPlayer(ctx, tableID, userID); err != nil {
			log.Printf("table %s: unseat report failed for %s: %v", tableID, userID, err)
		}
	}()
}

package table

import "github.com/feltstack/holdem/poker"

// OutboundKind names one of the outbound events of §4.6.
type OutboundKind string

const (
	EventConnected          OutboundKind = "connected"
	EventTableStateUpdate   OutboundKind = "table_state_update"
	EventActionError        OutboundKind = "action_error"
	EventChatMessage        OutboundKind = "chat_message"
	EventChatHistory        OutboundKind = "chat_history"
	EventPlayerDisconnected OutboundKind = "player_disconnected"
	EventPlayerReconnected  OutboundKind = "player_reconnected"
	EventReconnected        OutboundKind = "reconnected"
	EventActionTimeout      OutboundKind = "action_timeout"
	EventError              OutboundKind = "error"
)

// OutboundEvent is one message destined for a single client socket.
// The gateway package is responsible for encoding Payload to wire
// format (JSON); table never touches transport framing directly.
type OutboundEvent struct {
	Kind    OutboundKind
	Payload any
}

// Broadcaster delivers one outbound event to one user's current
// socket. The table actor never blocks its mutation loop on delivery
// succeeding; a Broadcaster that can't reach a dead socket should
// drop the message rather than error back into the actor.
type Broadcaster func(userID string, evt OutboundEvent)

type ConnectedPayload struct {
	SocketID string
	Message  string
}

type TableStateUpdatePayload struct {
	State poker.View
}

type ActionErrorPayload struct {
	Reason string
}

type ChatMessagePayload struct {
	Message ChatMessage
}

type ChatHistoryPayload struct {
	Messages []ChatMessage
}

type PlayerDisconnectedPayload struct {
	Name    string
	GraceMs int64
}

type PlayerReconnectedPayload struct {
	Name string
}

type ReconnectedPayload struct {
	TableID string
	State   poker.View
}

type ActionTimeoutPayload struct {
	SeatName string
}

type ErrorPayload struct {
	Message string
}

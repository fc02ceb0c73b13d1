package gateway

import (
	"encoding/json"

	"github.com/feltstack/holdem/table"
)

// inboundType names one of the inbound events of spec.md §4.6.
type inboundType string

const (
	inboundJoinTable  inboundType = "join_table"
	inboundAction     inboundType = "action"
	inboundChat       inboundType = "chat"
	inboundLeaveTable inboundType = "leave_table"
)

// inboundEnvelope is the wire shape of every client-to-server message:
// a type tag plus a type-specific payload, decoded in two passes so
// unknown types can still be reported back as a clean error event
// rather than a hard parse failure.
type inboundEnvelope struct {
	Type    inboundType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinTablePayload struct {
	CommunityID string `json:"communityId"`
}

type actionPayload struct {
	Kind   string `json:"kind"`
	Amount int64  `json:"amount"`
}

type chatPayload struct {
	Text    string `json:"text"`
	TableID string `json:"tableId,omitempty"`
}

// OutboundMessage is the wire shape of every server-to-client message,
// mirroring table.OutboundEvent one-to-one.
type OutboundMessage struct {
	Kind    table.OutboundKind `json:"type"`
	Payload any                `json:"payload"`
}

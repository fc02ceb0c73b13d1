package table

import (
	"time"

	"github.com/feltstack/holdem/poker"
)

// DisconnectRecord tracks a seated player who has dropped their
// socket: the snapshot and chat history it carries let reconnect
// restore the client transparently without replaying the hand.
type DisconnectRecord struct {
	ID             string
	UserID         string
	TableID        string
	SocketIDAtDrop string
	Deadline       time.Time
	Snapshot       poker.View
	ChatSnapshot   []ChatMessage
}

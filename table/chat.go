package table

import (
	"sync"
	"time"
)

// chatCapacity is the FIFO cap on a table's chat history (§3
// ChatRingBuffer).
const chatCapacity = 100

// ChatMessage is one entry in a table's chat history.
type ChatMessage struct {
	ID           string
	SenderUserID string
	SenderName   string
	Text         string
	Timestamp    time.Time
}

// ChatRingBuffer is a per-table FIFO capped at chatCapacity messages;
// it is only ever mutated by its owning table actor, so internal
// locking is a courtesy for Snapshot readers outside the actor
// goroutine (e.g. a reconnecting client building its own view).
type ChatRingBuffer struct {
	mu   sync.Mutex
	msgs []ChatMessage
}

func newChatRingBuffer() *ChatRingBuffer {
	return &ChatRingBuffer{msgs: make([]ChatMessage, 0, chatCapacity)}
}

// Add appends msg, evicting the oldest entry once at capacity.
func (c *ChatRingBuffer) Add(msg ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	if len(c.msgs) > chatCapacity {
		c.msgs = c.msgs[len(c.msgs)-chatCapacity:]
	}
}

// All returns a copy of the full chat history, oldest first.
func (c *ChatRingBuffer) All() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatMessage, len(c.msgs))
	copy(out, c.msgs)
	return out
}

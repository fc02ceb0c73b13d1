package table

import "errors"

// Capacity-kind errors (§7): reported to the HTTP/gateway boundary as
// 400s, never corrupt table state.
var (
	ErrSeatOccupied  = errors.New("table: seat is occupied")
	ErrTableFull     = errors.New("table: table is full")
	ErrAlreadySeated = errors.New("table: user is already seated at this table")
	ErrNotSeated     = errors.New("table: user is not seated at this table")
)

// ErrTableClosed is returned by any Session method once the table
// actor has stopped.
var ErrTableClosed = errors.New("table: session is closed")

// ErrNoDisconnectRecord is returned by Reconnect when the user has no
// pending disconnect record (nothing to resume).
var ErrNoDisconnectRecord = errors.New("table: no pending disconnect record for user")

package engine

import (
	"context"

	"hiscorekit/core"
)

// Store abstracts the ranked persistence for hiscore entries. All shared
// mutable state lives behind this boundary; implementations own the
// atomicity of ConditionalInsert.
type Store interface {
	// ConditionalInsert atomically stores the entry unless an entry with
	// the same name and an equal or better (lower) rank already exists
	// for the board. Implementations keep a bounded number of entries per
	// board, never fewer than the read window. Two concurrent inserts for
	// the same name must resolve to the better rank regardless of order.
	ConditionalInsert(ctx context.Context, board, name string, rank float64, rotations string) error

	// TopRange returns entries for the board ascending by rank, covering
	// the inclusive positions [start, stop].
	TopRange(ctx context.Context, board string, start, stop int) ([]core.RankedEntry, error)

	// OnReconnect registers a callback fired when the store reestablishes
	// connectivity after an outage. The returned func removes the
	// listener and is safe to call more than once.
	OnReconnect(fn func()) (remove func())
}

// Pusher delivers ranked windows to the single client channel a session
// is bound to. Delivery is best effort; a full or closed channel drops
// the push.
type Pusher interface {
	PushWindow(board string, rows []core.ScoreRow)
}

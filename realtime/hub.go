package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"hiscorekit/core"
)

// Hub fans ranked-window pushes out to the live subscribers of each
// board. Sessions broadcast through it when a new submission changes the
// window; the transport adapter owns each subscriber channel.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]*subscriber
	next int
}

type subscriber struct {
	board string
	ch    chan []core.ScoreRow
}

func NewHub() *Hub { return &Hub{subs: map[int]*subscriber{}} }

// Subscribe registers a channel for one board and returns its id.
func (h *Hub) Subscribe(board string, buffer int) (int, <-chan []core.ScoreRow) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	sub := &subscriber{board: board, ch: make(chan []core.ScoreRow, buffer)}
	h.subs[id] = sub
	return id, sub.ch
}

func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// Broadcast pushes a window to every subscriber of the board.
func (h *Hub) Broadcast(ctx context.Context, board string, rows []core.ScoreRow) {
	h.BroadcastExcept(ctx, board, 0, rows)
}

// BroadcastExcept pushes a window to every subscriber of the board other
// than the excluded id (the submitter already received a direct push).
func (h *Hub) BroadcastExcept(_ context.Context, board string, except int, rows []core.ScoreRow) {
	h.mu.RLock()
	// copy to avoid holding lock during send
	receivers := make([]chan []core.ScoreRow, 0, len(h.subs))
	for id, sub := range h.subs {
		if id == except || sub.board != board {
			continue
		}
		receivers = append(receivers, sub.ch)
	}
	h.mu.RUnlock()
	for _, ch := range receivers {
		select {
		case ch <- rows:
		default: /* drop if full */
		}
	}
}

// Subscribers reports how many channels are live for a board.
func (h *Hub) Subscribers(board string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, sub := range h.subs {
		if sub.board == board {
			n++
		}
	}
	return n
}

// MarshalJSON is a helper to convert windows to JSON bytes for WebSocket/SSE.
func MarshalJSON(rows []core.ScoreRow) []byte {
	b, _ := json.Marshal(rows)
	return b
}

package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"hiscorekit/core"
	"hiscorekit/realtime"
)

// Session is the per-client, per-board synchronizer. It validates
// submissions against the bound board, writes accepted entries to the
// store, and keeps the bound client and the board's other subscribers
// supplied with the current top window. Sessions hold no board state of
// their own; all shared mutable state lives in the store.
type Session struct {
	board  core.Board
	store  Store
	hub    *realtime.Hub
	bus    *EventBus
	push   Pusher
	hubID  int
	logger *slog.Logger
	now    func() time.Time

	mu              sync.Mutex
	closed          bool
	removeReconnect func()
}

const storeReadTimeout = 3 * time.Second

// SubmitResult handles one inbound solve claim. Invalid or overflowing
// results are dropped with a diagnostic and never reach storage. Valid
// results are written fire-and-forget: a failed write is logged and
// counted, never surfaced to the client. The current window is then
// pushed to the submitter and broadcast to the board's other
// subscribers, whether or not the write landed.
func (s *Session) SubmitResult(ctx context.Context, res core.SubmittedResult) {
	boardName := s.board.Name()

	if err := core.ValidateResult(s.board, res); err != nil {
		s.logger.Warn("dropping invalid hiscore submission",
			"board", boardName, "name", res.Name, "reason", err)
		s.bus.Publish(ctx, core.NewScoreRejected(boardName, res.Name, err.Error()))
		return
	}

	rank, err := core.EncodeRank(res.NRotations, s.now().UnixMilli())
	if err != nil {
		s.logger.Error("rank encoding capacity exhausted, dropping submission",
			"board", boardName, "name", res.Name, "error", err)
		s.bus.Publish(ctx, core.NewRankOverflow(boardName, res.Name))
		return
	}

	name := core.NormalizeName(res.Name)
	if err := s.store.ConditionalInsert(ctx, boardName, name, rank, core.EncodeRotations(res.Rotations)); err != nil {
		// Swallowed by design of the client contract: the submitter still
		// gets the latest known window below.
		s.logger.Error("hiscore write failed",
			"board", boardName, "name", name, "error", err)
		s.bus.Publish(ctx, core.NewStoreWriteFailed(boardName, name, err.Error()))
	} else {
		s.bus.Publish(ctx, core.NewScoreAccepted(boardName, name, res.NRotations, rank))
	}

	rows, ok := s.readWindow(ctx)
	if !ok {
		return
	}
	s.deliver(rows)
	s.hub.BroadcastExcept(ctx, boardName, s.hubID, rows)
	s.bus.Publish(ctx, core.NewWindowPushed(boardName, len(rows)))
}

// RequestTop pushes the current window to the bound client only.
func (s *Session) RequestTop(ctx context.Context) {
	if rows, ok := s.readWindow(ctx); ok {
		s.deliver(rows)
	}
}

// StoreReconnected re-pushes the window after the store signals renewed
// availability, since writes queued during the outage may have changed
// it unbeknownst to the client.
func (s *Session) StoreReconnected() {
	ctx, cancel := context.WithTimeout(context.Background(), storeReadTimeout)
	defer cancel()
	if rows, ok := s.readWindow(ctx); ok {
		s.deliver(rows)
	}
}

// Close releases the session's reconnect subscription. Idempotent; safe
// after partial setup and concurrently with in-flight store calls, whose
// late completions are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.removeReconnect != nil {
		s.removeReconnect()
		s.removeReconnect = nil
	}
}

func (s *Session) readWindow(ctx context.Context) ([]core.ScoreRow, bool) {
	entries, err := s.store.TopRange(ctx, s.board.Name(), 0, core.WindowSize-1)
	if err != nil {
		// Degrades to a stale or missing push, never to a session error.
		s.logger.Error("hiscore window read failed",
			"board", s.board.Name(), "error", err)
		return nil, false
	}
	return core.Window(entries), true
}

func (s *Session) deliver(rows []core.ScoreRow) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	s.push.PushWindow(s.board.Name(), rows)
}

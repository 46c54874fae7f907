package engine

import (
	"context"
	"log/slog"
	"time"

	"hiscorekit/core"
	"hiscorekit/realtime"
)

// HiscoreService wires the store, realtime hub, and event bus into a
// cohesive API. One service serves any number of boards and sessions.
type HiscoreService struct {
	store  Store
	hub    *realtime.Hub
	bus    *EventBus
	logger *slog.Logger
	now    func() time.Time
}

// Option tweaks service construction.
type Option func(*HiscoreService)

// WithClock replaces the wall clock used to stamp accepted submissions.
func WithClock(now func() time.Time) Option {
	return func(s *HiscoreService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewHiscoreService(store Store, hub *realtime.Hub, bus *EventBus, logger *slog.Logger, opts ...Option) *HiscoreService {
	if store == nil || hub == nil || bus == nil {
		panic("NewHiscoreService requires non-nil store, hub, and bus")
	}
	if logger == nil {
		logger = slog.Default()
	}
	svc := &HiscoreService{store: store, hub: hub, bus: bus, logger: logger, now: time.Now}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// NewSession binds a board to one client channel. hubID is the client's
// realtime subscription id, excluded from the session's own broadcasts.
// The session re-pushes the window to its client whenever the store
// reports a reconnect; Close releases that subscription.
func (g *HiscoreService) NewSession(board core.Board, push Pusher, hubID int) *Session {
	sess := &Session{
		board:  board,
		store:  g.store,
		hub:    g.hub,
		bus:    g.bus,
		push:   push,
		hubID:  hubID,
		logger: g.logger,
		now:    g.now,
	}
	sess.removeReconnect = g.store.OnReconnect(sess.StoreReconnected)
	return sess
}

// Top reads the current window for a board without a session, for pull
// surfaces like the HTTP API.
func (g *HiscoreService) Top(ctx context.Context, board string) ([]core.ScoreRow, error) {
	entries, err := g.store.TopRange(ctx, board, 0, core.WindowSize-1)
	if err != nil {
		return nil, err
	}
	return core.Window(entries), nil
}

// Subscribe convenience method.
func (g *HiscoreService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return g.bus.Subscribe(typ, handler)
}

func (g *HiscoreService) Publish(ctx context.Context, ev core.Event) {
	g.bus.Publish(ctx, ev)
}

func (g *HiscoreService) Hub() *realtime.Hub { return g.hub }

func (g *HiscoreService) Close() { g.bus.Close() }

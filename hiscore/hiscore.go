package hiscore

import (
	"context"
	"log/slog"
	"time"

	"hiscorekit/adapters/memory"
	"hiscorekit/analytics"
	"hiscorekit/core"
	"hiscorekit/engine"
	"hiscorekit/integrations/webhook"
	"hiscorekit/realtime"
)

// Option configures the hiscore service builder.
type Option func(*config)

type config struct {
	store    engine.Store
	mode     engine.DispatchMode
	hub      *realtime.Hub
	logger   *slog.Logger
	clock    func() time.Time
	webhooks []string
	hooks    []analytics.Hook
}

// WithStore sets the persistence adapter.
func WithStore(s engine.Store) Option { return func(c *config) { c.store = s } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithHub supplies the realtime hub used for window broadcasts.
func WithHub(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithClock replaces the wall clock used to stamp accepted submissions.
func WithClock(now func() time.Time) Option { return func(c *config) { c.clock = now } }

// WithWebhooks posts every domain event to the given HTTP endpoints.
func WithWebhooks(endpoints ...string) Option {
	return func(c *config) { c.webhooks = append(c.webhooks, endpoints...) }
}

// WithHooks registers analytics hooks for every domain event.
func WithHooks(hooks ...analytics.Hook) Option {
	return func(c *config) { c.hooks = append(c.hooks, hooks...) }
}

// allEventTypes lists every domain event for bridge subscriptions.
var allEventTypes = []core.EventType{
	core.EventScoreAccepted,
	core.EventScoreRejected,
	core.EventRankOverflow,
	core.EventStoreWriteFailed,
	core.EventWindowPushed,
}

// New builds a configured HiscoreService. Defaults:
//   - store: in-memory
//   - hub: fresh
//   - dispatch: async
func New(opts ...Option) *engine.HiscoreService {
	cfg := &config{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.store == nil {
		cfg.store = memory.New()
	}
	if cfg.hub == nil {
		cfg.hub = realtime.NewHub()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	bus := engine.NewEventBus(cfg.mode)
	var svcOpts []engine.Option
	if cfg.clock != nil {
		svcOpts = append(svcOpts, engine.WithClock(cfg.clock))
	}
	svc := engine.NewHiscoreService(cfg.store, cfg.hub, bus, cfg.logger, svcOpts...)

	if len(cfg.webhooks) > 0 {
		cfg.hooks = append(cfg.hooks, webhook.New(cfg.webhooks))
	}
	for _, hook := range cfg.hooks {
		h := hook
		for _, typ := range allEventTypes {
			bus.Subscribe(typ, func(_ context.Context, e core.Event) { h.OnEvent(e) })
		}
	}
	return svc
}

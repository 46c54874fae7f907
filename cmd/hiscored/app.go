package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	jsonfileAdapter "hiscorekit/adapters/jsonfile"
	mem "hiscorekit/adapters/memory"
	redisAdapter "hiscorekit/adapters/redis"
	sqlxAdapter "hiscorekit/adapters/sqlx"
	"hiscorekit/api/httpapi"
	"hiscorekit/config"
	"hiscorekit/core"
	"hiscorekit/engine"
	"hiscorekit/hiscore"
	"hiscorekit/realtime"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Hub     *realtime.Hub
	Boards  *core.Registry
	Service *engine.HiscoreService
	Handler http.Handler
	Server  *http.Server
}

func provideConfig(_ context.Context) (*config.Config, error) {
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideBoards(cfg *config.Config) *core.Registry {
	boards := core.NewRegistry()
	for _, name := range cfg.Boards {
		// The server checks shape, not puzzle semantics: a solver that
		// replays rotations against real board state plugs in through
		// core.NewBoard when embedding the engine.
		boards.Register(core.NewBoard(name, func(rotations []string) bool {
			return len(rotations) > 0
		}))
	}
	return boards
}

func provideStore(ctx context.Context, cfg *config.Config) (engine.Store, error) {
	return setupStorage(ctx, cfg)
}

func provideService(cfg *config.Config, hub *realtime.Hub, store engine.Store, logger *slog.Logger) *engine.HiscoreService {
	return hiscore.New(
		hiscore.WithHub(hub),
		hiscore.WithStore(store),
		hiscore.WithLogger(logger),
		hiscore.WithDispatchMode(engine.DispatchAsync),
		hiscore.WithWebhooks(cfg.Webhooks.Endpoints...),
	)
}

func provideHandler(svc *engine.HiscoreService, boards *core.Registry, cfg *config.Config, logger *slog.Logger) http.Handler {
	return httpapi.NewMux(svc, boards, httpapi.Options{
		PathPrefix:      cfg.Server.PathPrefix,
		AllowCORSOrigin: cfg.Server.CORSOrigin,
		Logger:          logger,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(ctx context.Context, cfg *config.Config) (engine.Store, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis)
	case "sql":
		store, err := sqlxAdapter.New(cfg.Storage.SQL)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "file":
		return jsonfileAdapter.New(cfg.Storage.File.Path)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}

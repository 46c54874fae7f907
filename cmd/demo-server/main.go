package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	mem "hiscorekit/adapters/memory"
	ws "hiscorekit/adapters/websocket"
	"hiscorekit/core"
	"hiscorekit/engine"
	"hiscorekit/hiscore"
)

func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(textHandler)
	slog.SetDefault(logger)

	store := mem.New()
	svc := hiscore.New(
		hiscore.WithStore(store),
		hiscore.WithLogger(logger),
		hiscore.WithDispatchMode(engine.DispatchAsync),
	)

	// The demo board accepts any claim whose rotation list is non-empty;
	// real deployments plug in a solver that replays the rotations.
	boards := core.NewRegistry(core.NewBoard("pocket", func(rotations []string) bool {
		return len(rotations) > 0
	}))

	http.Handle("/ws", ws.Handler(svc, boards, logger))
	http.HandleFunc("/boards/pocket/hiscores", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		rows, err := svc.Top(context.Background(), "pocket")
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if rows == nil {
			rows = []core.ScoreRow{}
		}
		writeJSON(w, map[string]any{"board": "pocket", "hiscores": rows})
	})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

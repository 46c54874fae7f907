package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	mem "hiscorekit/adapters/memory"
	"hiscorekit/core"
	"hiscorekit/engine"
	"hiscorekit/realtime"
)

func newTestService(t *testing.T) (*engine.HiscoreService, *core.Registry) {
	t.Helper()
	bus := engine.NewEventBus(engine.DispatchSync)
	t.Cleanup(bus.Close)
	svc := engine.NewHiscoreService(mem.New(), realtime.NewHub(), bus, slog.Default())
	boards := core.NewRegistry(core.NewBoard("pocket", func([]string) bool { return true }))
	return svc, boards
}

func seed(t *testing.T, svc *engine.HiscoreService, boards *core.Registry, name string, rotations []string) {
	t.Helper()
	board, _ := boards.Lookup("pocket")
	sess := svc.NewSession(board, nopPusher{}, 0)
	defer sess.Close()
	sess.SubmitResult(context.Background(), core.SubmittedResult{
		Name: name, Rotations: rotations, NRotations: len(rotations),
	})
}

type nopPusher struct{}

func (nopPusher) PushWindow(string, []core.ScoreRow) {}

func TestGetHiscores(t *testing.T) {
	svc, boards := newTestService(t)
	seed(t, svc, boards, "ann", []string{"R", "U", "F"})
	handler := NewMux(svc, boards, Options{PathPrefix: "/api"})

	req := httptest.NewRequest(http.MethodGet, "/api/boards/pocket/hiscores", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Board    string          `json:"board"`
		Hiscores []core.ScoreRow `json:"hiscores"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Board != "pocket" || len(resp.Hiscores) != 1 || resp.Hiscores[0].Name != "ann" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGetHiscoresEmptyBoard(t *testing.T) {
	svc, boards := newTestService(t)
	handler := NewMux(svc, boards, Options{PathPrefix: "/api"})

	req := httptest.NewRequest(http.MethodGet, "/api/boards/pocket/hiscores", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if rows, ok := resp["hiscores"].([]any); !ok || len(rows) != 0 {
		t.Fatalf("expected empty hiscores array, got %v", resp["hiscores"])
	}
}

func TestGetHiscoresUnknownBoard(t *testing.T) {
	svc, boards := newTestService(t)
	handler := NewMux(svc, boards, Options{PathPrefix: "/api"})

	req := httptest.NewRequest(http.MethodGet, "/api/boards/nonesuch/hiscores", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListBoards(t *testing.T) {
	svc, boards := newTestService(t)
	handler := NewMux(svc, boards, Options{PathPrefix: "/api"})

	req := httptest.NewRequest(http.MethodGet, "/api/boards", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Boards []string `json:"boards"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Boards) != 1 || resp.Boards[0] != "pocket" {
		t.Fatalf("unexpected boards: %v", resp.Boards)
	}
}

func TestPostToBoardsRejected(t *testing.T) {
	svc, boards := newTestService(t)
	handler := NewMux(svc, boards, Options{PathPrefix: "/api"})

	req := httptest.NewRequest(http.MethodPost, "/api/boards/pocket/hiscores", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	svc, boards := newTestService(t)
	handler := NewMux(svc, boards, Options{PathPrefix: "/api"})

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	svc, boards := newTestService(t)
	handler := NewMux(svc, boards, Options{PathPrefix: "/api", AllowCORSOrigin: "*"})

	req := httptest.NewRequest(http.MethodOptions, "/api/boards", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
}

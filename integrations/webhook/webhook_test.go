package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"hiscorekit/core"
)

func TestSink_OnEventPostsToEndpoints(t *testing.T) {
	var hits int32
	var lastBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		lastBody.Store(body)
	}))
	defer srv.Close()

	sink := New([]string{srv.URL})
	sink.OnEvent(core.NewScoreAccepted("pocket", "ann", 8, 8.5))

	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", hits)
	}
	var ev core.Event
	if err := json.Unmarshal(lastBody.Load().([]byte), &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != core.EventScoreAccepted || ev.Board != "pocket" || ev.Name != "ann" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestSink_NoEndpointsIsNoop(t *testing.T) {
	sink := New(nil)
	sink.OnEvent(core.NewScoreRejected("pocket", "ann", "rotation count mismatch"))
}

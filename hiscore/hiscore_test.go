package hiscore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hiscorekit/analytics"
	"hiscorekit/core"
	"hiscorekit/engine"
)

type windowRecorder struct {
	windows [][]core.ScoreRow
}

func (w *windowRecorder) PushWindow(_ string, rows []core.ScoreRow) {
	w.windows = append(w.windows, rows)
}

func testBoard() core.Board {
	return core.NewBoard("pocket", func([]string) bool { return true })
}

func TestNew_DefaultsServeSubmissions(t *testing.T) {
	svc := New(WithDispatchMode(engine.DispatchSync))
	defer svc.Close()

	rec := &windowRecorder{}
	sess := svc.NewSession(testBoard(), rec, 0)
	defer sess.Close()

	sess.SubmitResult(context.Background(), core.SubmittedResult{
		Name: "ann", Rotations: []string{"R", "U", "F"}, NRotations: 3,
	})

	if len(rec.windows) != 1 {
		t.Fatalf("expected 1 window push, got %d", len(rec.windows))
	}
	if len(rec.windows[0]) != 1 || rec.windows[0][0].Name != "ann" {
		t.Fatalf("unexpected window: %+v", rec.windows[0])
	}
}

func TestNew_HooksReceiveEvents(t *testing.T) {
	activity := analytics.NewBoardActivity()
	svc := New(WithDispatchMode(engine.DispatchSync), WithHooks(activity))
	defer svc.Close()

	rec := &windowRecorder{}
	sess := svc.NewSession(testBoard(), rec, 0)
	defer sess.Close()

	sess.SubmitResult(context.Background(), core.SubmittedResult{
		Name: "ann", Rotations: []string{"R", "U", "F"}, NRotations: 3,
	})
	sess.SubmitResult(context.Background(), core.SubmittedResult{
		Name: "", Rotations: []string{"R"}, NRotations: 1,
	})

	if got := activity.AcceptedFor("pocket"); got != 1 {
		t.Fatalf("accepted = %d, want 1", got)
	}
	if got := activity.RejectedFor(core.ErrEmptyName.Error()); got != 1 {
		t.Fatalf("rejected = %d, want 1", got)
	}
}

func TestNew_WebhooksDeliverEvents(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	svc := New(WithDispatchMode(engine.DispatchSync), WithWebhooks(srv.URL))
	defer svc.Close()

	rec := &windowRecorder{}
	sess := svc.NewSession(testBoard(), rec, 0)
	defer sess.Close()

	sess.SubmitResult(context.Background(), core.SubmittedResult{
		Name: "ann", Rotations: []string{"R", "U", "F"}, NRotations: 3,
	})

	// score_accepted + window_pushed
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("webhook hits = %d, want 2", got)
	}
}

func TestNew_WithClock(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	svc := New(WithDispatchMode(engine.DispatchSync), WithClock(func() time.Time { return fixed }))
	defer svc.Close()

	rec := &windowRecorder{}
	sess := svc.NewSession(testBoard(), rec, 0)
	defer sess.Close()

	sess.SubmitResult(context.Background(), core.SubmittedResult{
		Name: "ann", Rotations: []string{"R", "U", "F"}, NRotations: 3,
	})

	rows, err := svc.Top(context.Background(), "pocket")
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(rows) != 1 || rows[0].NRotations != 3 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

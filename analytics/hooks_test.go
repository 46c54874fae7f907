package analytics

import (
	"testing"
	"time"

	"hiscorekit/core"
)

func acceptedAt(board, name string, n int, ts time.Time) core.Event {
	ev := core.NewScoreAccepted(board, name, n, float64(n)+0.5)
	ev.Time = ts
	return ev
}

func TestActivePlayers_CountsDistinctNamesPerDay(t *testing.T) {
	ap := NewActivePlayers()
	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	ap.OnEvent(acceptedAt("pocket", "ann", 8, day1))
	ap.OnEvent(acceptedAt("pocket", "ann", 7, day1))
	ap.OnEvent(acceptedAt("pyramid", "bob", 9, day1))
	ap.OnEvent(acceptedAt("pocket", "cal", 6, day2))

	if got := ap.Count("2026-03-01"); got != 2 {
		t.Fatalf("day1 count = %d, want 2", got)
	}
	if got := ap.Count("2026-03-02"); got != 1 {
		t.Fatalf("day2 count = %d, want 1", got)
	}
}

func TestActivePlayers_IgnoresRejections(t *testing.T) {
	ap := NewActivePlayers()
	ap.OnEvent(core.NewScoreRejected("pocket", "ann", "empty name"))
	if got := ap.Count(time.Now().UTC().Format("2006-01-02")); got != 0 {
		t.Fatalf("count = %d, want 0", got)
	}
}

func TestBoardActivity_Aggregates(t *testing.T) {
	ba := NewBoardActivity()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	ba.OnEvent(acceptedAt("pocket", "ann", 8, ts))
	ba.OnEvent(acceptedAt("pocket", "bob", 6, ts))
	ba.OnEvent(acceptedAt("pyramid", "cal", 12, ts))
	ba.OnEvent(core.NewScoreRejected("pocket", "dee", "solution does not solve the board"))
	ba.OnEvent(core.NewScoreRejected("pocket", "", "empty name"))
	ba.OnEvent(core.NewRankOverflow("pocket", "ann"))
	ba.OnEvent(core.NewStoreWriteFailed("pocket", "bob", "connection refused"))

	if got := ba.AcceptedOn("2026-03-01"); got != 3 {
		t.Fatalf("accepted on day = %d, want 3", got)
	}
	if got := ba.AcceptedFor("pocket"); got != 2 {
		t.Fatalf("accepted for pocket = %d, want 2", got)
	}
	if got := ba.RejectedFor("empty name"); got != 1 {
		t.Fatalf("rejected for empty name = %d, want 1", got)
	}
	best, ok := ba.BestFor("pocket")
	if !ok || best != 6 {
		t.Fatalf("best for pocket = %d (%v), want 6", best, ok)
	}
	overflows, failures := ba.Failures()
	if overflows != 1 || failures != 1 {
		t.Fatalf("failures = (%d, %d), want (1, 1)", overflows, failures)
	}
	snap := ba.Snapshot()
	if snap["pyramid"] != 1 {
		t.Fatalf("snapshot pyramid = %d, want 1", snap["pyramid"])
	}
}

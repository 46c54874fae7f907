package analytics

import (
	"sync"

	"hiscorekit/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// ActivePlayers tracks distinct submitting names per day.
type ActivePlayers struct {
	mu   sync.Mutex
	days map[string]map[string]struct{}
}

func NewActivePlayers() *ActivePlayers {
	return &ActivePlayers{days: map[string]map[string]struct{}{}}
}

func (a *ActivePlayers) OnEvent(e core.Event) {
	if e.Type != core.EventScoreAccepted {
		return
	}
	day := e.Time.UTC().Format("2006-01-02")
	a.mu.Lock()
	defer a.mu.Unlock()
	m := a.days[day]
	if m == nil {
		m = map[string]struct{}{}
		a.days[day] = m
	}
	m[e.Name] = struct{}{}
}

func (a *ActivePlayers) Count(day string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.days[day])
}

// BoardActivity aggregates submission outcomes per board and per day.
type BoardActivity struct {
	mu sync.RWMutex

	acceptedByDay    map[string]int64
	acceptedByBoard  map[string]int64
	rejectedByReason map[string]int64
	bestByBoard      map[string]int

	overflows     int64
	writeFailures int64
}

func NewBoardActivity() *BoardActivity {
	return &BoardActivity{
		acceptedByDay:    map[string]int64{},
		acceptedByBoard:  map[string]int64{},
		rejectedByReason: map[string]int64{},
		bestByBoard:      map[string]int{},
	}
}

func (b *BoardActivity) OnEvent(e core.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch e.Type {
	case core.EventScoreAccepted:
		day := e.Time.UTC().Format("2006-01-02")
		b.acceptedByDay[day]++
		b.acceptedByBoard[e.Board]++
		n := core.DecodeRank(e.Rank)
		if best, ok := b.bestByBoard[e.Board]; !ok || n < best {
			b.bestByBoard[e.Board] = n
		}
	case core.EventScoreRejected:
		b.rejectedByReason[e.Reason]++
	case core.EventRankOverflow:
		b.overflows++
	case core.EventStoreWriteFailed:
		b.writeFailures++
	}
}

// AcceptedOn returns how many submissions landed on a day (UTC).
func (b *BoardActivity) AcceptedOn(day string) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.acceptedByDay[day]
}

// AcceptedFor returns how many submissions a board has taken.
func (b *BoardActivity) AcceptedFor(board string) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.acceptedByBoard[board]
}

// RejectedFor returns how many submissions were dropped for a reason.
func (b *BoardActivity) RejectedFor(reason string) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rejectedByReason[reason]
}

// BestFor returns the lowest accepted rotation count seen for a board.
func (b *BoardActivity) BestFor(board string) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.bestByBoard[board]
	return n, ok
}

// Failures returns the overflow and store-write failure counters.
func (b *BoardActivity) Failures() (overflows, writeFailures int64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.overflows, b.writeFailures
}

// Snapshot returns a point-in-time copy of the per-board accepted counts.
func (b *BoardActivity) Snapshot() map[string]int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]int64, len(b.acceptedByBoard))
	for board, n := range b.acceptedByBoard {
		out[board] = n
	}
	return out
}

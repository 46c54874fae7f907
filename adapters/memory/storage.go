package memory

import (
	"context"
	"sync"

	"hiscorekit/core"
	"hiscorekit/leaderboard"
)

// DefaultRetain bounds how many entries survive per board. Anything
// beyond the read window is an implementation choice; 50 leaves room for
// supersession churn without unbounded growth.
const DefaultRetain = 50

// Store is a concurrent in-memory ranked store, one skip list table per
// board. Suitable for tests and demos.
type Store struct {
	boards sync.Map // map[string]*leaderboard.SkipList
	retain int

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
}

func New() *Store {
	return &Store{retain: DefaultRetain, listeners: map[int]func(){}}
}

func (s *Store) table(board string) *leaderboard.SkipList {
	if v, ok := s.boards.Load(board); ok {
		return v.(*leaderboard.SkipList)
	}
	actual, _ := s.boards.LoadOrStore(board, leaderboard.NewSkipList())
	return actual.(*leaderboard.SkipList)
}

func (s *Store) ConditionalInsert(_ context.Context, board, name string, rank float64, rotations string) error {
	tbl := s.table(board)
	tbl.UpsertIfBetter(leaderboard.Entry{Name: name, Rank: rank, Rotations: rotations})
	tbl.TrimTo(s.retain)
	return nil
}

func (s *Store) TopRange(_ context.Context, board string, start, stop int) ([]core.RankedEntry, error) {
	if start < 0 || stop < start {
		return nil, nil
	}
	entries := s.table(board).TopN(stop + 1)
	if start >= len(entries) {
		return nil, nil
	}
	out := make([]core.RankedEntry, 0, len(entries)-start)
	for _, e := range entries[start:] {
		out = append(out, core.RankedEntry{Name: e.Name, Rank: e.Rank})
	}
	return out, nil
}

func (s *Store) OnReconnect(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// FireReconnect invokes every registered reconnect listener. The memory
// store never actually disconnects; this exists for tests and demos.
func (s *Store) FireReconnect() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Get looks up the stored entry for a name, for tests.
func (s *Store) Get(board, name string) (leaderboard.Entry, bool) {
	return s.table(board).Get(name)
}

package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"hiscorekit/core"
	"hiscorekit/leaderboard"
)

// DefaultRetain bounds how many entries survive per board.
const DefaultRetain = 50

type persistedEntry struct {
	Name      string  `json:"name"`
	Rank      float64 `json:"rank"`
	Rotations string  `json:"rotations"`
}

// Store persists every board's ranked entries to a single JSON file.
// Suitable for demos and small deployments.
type Store struct {
	path   string
	retain int

	mu     sync.Mutex
	tables map[string]*leaderboard.SkipList

	lmu       sync.Mutex
	listeners map[int]func()
	nextID    int
}

func New(path string) (*Store, error) {
	s := &Store{
		path:      path,
		retain:    DefaultRetain,
		tables:    map[string]*leaderboard.SkipList{},
		listeners: map[int]func(){},
	}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var raw map[string][]persistedEntry
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for board, entries := range raw {
		tbl := leaderboard.NewSkipList()
		for _, e := range entries {
			tbl.UpsertIfBetter(leaderboard.Entry{Name: e.Name, Rank: e.Rank, Rotations: e.Rotations})
		}
		s.tables[board] = tbl
	}
	return nil
}

func (s *Store) persist() error {
	raw := make(map[string][]persistedEntry, len(s.tables))
	for board, tbl := range s.tables {
		entries := tbl.TopN(s.retain)
		out := make([]persistedEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, persistedEntry{Name: e.Name, Rank: e.Rank, Rotations: e.Rotations})
		}
		raw[board] = out
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) table(board string) *leaderboard.SkipList {
	if tbl, ok := s.tables[board]; ok {
		return tbl
	}
	tbl := leaderboard.NewSkipList()
	s.tables[board] = tbl
	return tbl
}

// ConditionalInsert upserts best-rank-wins under the store mutex, so the
// write and the persist are indivisible with respect to other callers.
func (s *Store) ConditionalInsert(_ context.Context, board, name string, rank float64, rotations string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tbl := s.table(board)
	if !tbl.UpsertIfBetter(leaderboard.Entry{Name: name, Rank: rank, Rotations: rotations}) {
		return nil
	}
	tbl.TrimTo(s.retain)
	return s.persist()
}

func (s *Store) TopRange(_ context.Context, board string, start, stop int) ([]core.RankedEntry, error) {
	if start < 0 || stop < start {
		return nil, nil
	}
	s.mu.Lock()
	entries := s.table(board).TopN(stop + 1)
	s.mu.Unlock()
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
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

// FireReconnect invokes every registered reconnect listener.
func (s *Store) FireReconnect() {
	s.lmu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

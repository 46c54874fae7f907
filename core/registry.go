package core

import (
	"sort"
	"sync"
)

// Registry maps board names to their solve-checking capability. Transports
// consult it to bind inbound traffic to a known board.
type Registry struct {
	mu     sync.RWMutex
	boards map[string]Board
}

func NewRegistry(boards ...Board) *Registry {
	r := &Registry{boards: map[string]Board{}}
	for _, b := range boards {
		r.Register(b)
	}
	return r
}

func (r *Registry) Register(b Board) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boards[b.Name()] = b
}

func (r *Registry) Lookup(name string) (Board, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.boards[name]
	return b, ok
}

// Names returns the registered board names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.boards))
	for name := range r.boards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

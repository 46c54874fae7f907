package core

import (
	"errors"
	"strings"
)

const (
	// MaxNameLen is the longest player name persisted with an entry.
	// Longer names are truncated before storage.
	MaxNameLen = 8

	// WindowSize is the number of entries a top-window read returns.
	WindowSize = 7
)

// Board is the capability the synchronizer needs from a puzzle board:
// a stable identifier and an authoritative move-replay check. The core
// never inspects rotations beyond counting them.
type Board interface {
	Name() string
	IsSolvedBy(rotations []string) bool
}

type boardFunc struct {
	name  string
	solve func(rotations []string) bool
}

// NewBoard adapts a plain solve-check function to the Board interface.
func NewBoard(name string, solve func(rotations []string) bool) Board {
	return boardFunc{name: name, solve: solve}
}

func (b boardFunc) Name() string { return b.name }

func (b boardFunc) IsSolvedBy(rotations []string) bool { return b.solve(rotations) }

// SubmittedResult is one inbound solve claim. It is constructed from a
// transport message, validated once, and discarded.
type SubmittedResult struct {
	Name       string   `json:"name"`
	Rotations  []string `json:"rotations"`
	NRotations int      `json:"nRotations"`
}

// Validation failures. Each maps to a dropped submission; none is ever
// surfaced to a client.
var (
	ErrEmptyName             = errors.New("empty player name")
	ErrRotationCountMismatch = errors.New("rotation count does not match sequence length")
	ErrNotSolved             = errors.New("rotation sequence does not solve the board")
)

// ValidateResult checks a submission against the board that claims it.
// The move sequence is replayed through the board's own solver, so a
// fabricated nRotations or a non-solving sequence never reaches storage.
func ValidateResult(board Board, r SubmittedResult) error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if r.NRotations != len(r.Rotations) {
		return ErrRotationCountMismatch
	}
	if !board.IsSolvedBy(r.Rotations) {
		return ErrNotSolved
	}
	return nil
}

// NormalizeName strips surrounding whitespace and truncates to MaxNameLen
// runes.
func NormalizeName(name string) string {
	s := strings.TrimSpace(name)
	runes := []rune(s)
	if len(runes) > MaxNameLen {
		return string(runes[:MaxNameLen])
	}
	return s
}

// RankedEntry is one persisted row as read back from a store, in
// ascending rank order.
type RankedEntry struct {
	Name string
	Rank float64
}

// ScoreRow is one line of the client-facing window.
type ScoreRow struct {
	Name       string `json:"name"`
	NRotations int    `json:"nRotations"`
}

// Window converts store entries into the client-facing window, decoding
// each rank back to its move count. Order is preserved.
func Window(entries []RankedEntry) []ScoreRow {
	rows := make([]ScoreRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, ScoreRow{Name: e.Name, NRotations: DecodeRank(e.Rank)})
	}
	return rows
}

// EncodeRotations flattens a move sequence for storage. Moves are plain
// tokens ("R", "U'", "F2"), so a space join round-trips losslessly.
func EncodeRotations(rotations []string) string {
	return strings.Join(rotations, " ")
}

// DecodeRotations is the inverse of EncodeRotations.
func DecodeRotations(s string) []string {
	return strings.Fields(s)
}

package core

import "time"

// EventType enumerates internal domain events. These exist for
// operational visibility (logs, hooks, webhooks); they never alter the
// client-facing protocol.
type EventType string

const (
	EventScoreAccepted    EventType = "score_accepted"
	EventScoreRejected    EventType = "score_rejected"
	EventRankOverflow     EventType = "rank_overflow"
	EventStoreWriteFailed EventType = "store_write_failed"
	EventWindowPushed     EventType = "window_pushed"
)

// Event represents an immutable domain event.
type Event struct {
	Type       EventType `json:"type"`
	Time       time.Time `json:"time"`
	Board      string    `json:"board"`
	Name       string    `json:"name,omitempty"`
	NRotations int       `json:"n_rotations,omitempty"`
	Rank       float64   `json:"rank,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Rows       int       `json:"rows,omitempty"`
}

func NewScoreAccepted(board, name string, nRotations int, rank float64) Event {
	return Event{Type: EventScoreAccepted, Time: time.Now().UTC(), Board: board, Name: name, NRotations: nRotations, Rank: rank}
}

func NewScoreRejected(board, name, reason string) Event {
	return Event{Type: EventScoreRejected, Time: time.Now().UTC(), Board: board, Name: name, Reason: reason}
}

func NewRankOverflow(board, name string) Event {
	return Event{Type: EventRankOverflow, Time: time.Now().UTC(), Board: board, Name: name}
}

func NewStoreWriteFailed(board, name, reason string) Event {
	return Event{Type: EventStoreWriteFailed, Time: time.Now().UTC(), Board: board, Name: name, Reason: reason}
}

func NewWindowPushed(board string, rows int) Event {
	return Event{Type: EventWindowPushed, Time: time.Now().UTC(), Board: board, Rows: rows}
}

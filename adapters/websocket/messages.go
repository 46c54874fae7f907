package websocket

import (
	"encoding/json"

	"hiscorekit/core"
)

// Wire events. A client submits solves and requests windows; the server
// answers both, and unsolicited window updates, with EventWindow.
const (
	EventSubmit  = "hiscore-for"
	EventRequest = "request-hiscores-for"
	EventWindow  = "hiscores-for"
)

// ClientMessage is the inbound envelope. Payload is only present for
// EventSubmit, where it carries the submitted result.
type ClientMessage struct {
	Event   string          `json:"event"`
	Board   string          `json:"board"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage is the outbound envelope: the current top window for a board.
type ServerMessage struct {
	Event    string          `json:"event"`
	Board    string          `json:"board"`
	Hiscores []core.ScoreRow `json:"hiscores"`
}

func newWindowMessage(board string, rows []core.ScoreRow) ServerMessage {
	if rows == nil {
		rows = []core.ScoreRow{}
	}
	return ServerMessage{Event: EventWindow, Board: board, Hiscores: rows}
}

package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"hiscorekit/core"
)

// Window is one board's top list as pushed by the server.
type Window struct {
	Board    string          `json:"board"`
	Hiscores []core.ScoreRow `json:"hiscores"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// wire envelopes, mirroring the server's WebSocket protocol
type clientMessage struct {
	Event   string          `json:"event"`
	Board   string          `json:"board"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type serverMessage struct {
	Event    string          `json:"event"`
	Board    string          `json:"board"`
	Hiscores []core.ScoreRow `json:"hiscores"`
}

const (
	eventSubmit  = "hiscore-for"
	eventRequest = "request-hiscores-for"
	eventWindow  = "hiscores-for"
)

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyBoard is returned when a board name is empty.
var ErrEmptyBoard = errors.New("board name is required")

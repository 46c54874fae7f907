package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hiscorekit/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the hiscore HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// Boards lists the board names the server accepts submissions for.
func (c *Client) Boards(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/boards", nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Boards []string `json:"boards"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return body.Boards, nil
}

// GetHiscores pulls the current top window for a board.
func (c *Client) GetHiscores(ctx context.Context, board string) ([]core.ScoreRow, error) {
	if strings.TrimSpace(board) == "" {
		return nil, ErrEmptyBoard
	}
	u := fmt.Sprintf("%s/boards/%s/hiscores", c.baseURL, url.PathEscape(board))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body Window
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return body.Hiscores, nil
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return HealthStatus{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := decodeJSON(resp, &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// Stream is a live WebSocket session. Windows() emits every window the
// server pushes; Submit and RequestTop send protocol messages.
type Stream struct {
	conn    *websocket.Conn
	windows chan Window

	writeMu sync.Mutex
	once    sync.Once
}

// Connect opens the WebSocket stream. The windows channel closes when
// ctx is done or the connection drops.
func (c *Client) Connect(ctx context.Context) (*Stream, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	s := &Stream{conn: conn, windows: make(chan Window, 32)}
	go func() {
		defer close(s.windows)
		defer s.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var msg serverMessage
				if err := conn.ReadJSON(&msg); err != nil {
					return
				}
				if msg.Event != eventWindow {
					continue
				}
				select {
				case s.windows <- Window{Board: msg.Board, Hiscores: msg.Hiscores}:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return s, nil
}

// Windows returns the channel of server-pushed windows.
func (s *Stream) Windows() <-chan Window { return s.windows }

// Submit sends a solve claim for a board. The server answers with a
// window push on success and stays silent on rejection.
func (s *Stream) Submit(board, name string, rotations []string) error {
	if strings.TrimSpace(board) == "" {
		return ErrEmptyBoard
	}
	payload, err := json.Marshal(core.SubmittedResult{
		Name:       name,
		Rotations:  rotations,
		NRotations: len(rotations),
	})
	if err != nil {
		return err
	}
	return s.send(clientMessage{Event: eventSubmit, Board: board, Payload: payload})
}

// RequestTop asks for the board's current window.
func (s *Stream) RequestTop(board string) error {
	if strings.TrimSpace(board) == "" {
		return ErrEmptyBoard
	}
	return s.send(clientMessage{Event: eventRequest, Board: board})
}

func (s *Stream) send(msg clientMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(msg)
}

// Close shuts the stream down. Safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.once.Do(func() { err = s.conn.Close() })
	return err
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}

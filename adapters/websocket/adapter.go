package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/google/uuid"

	"hiscorekit/core"
	"hiscorekit/engine"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 64

	// Buffer of each hub subscription; overflow drops are recovered by the
	// next submission's push.
	hubBufferSize = 16
)

// Handler upgrades to WebSocket and serves the hiscore protocol: one
// connection can submit to and follow any number of registered boards.
func Handler(svc *engine.HiscoreService, boards *core.Registry, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	upgrader := gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := newClient(conn, svc, boards, logger)
		client.run()
	})
}

// binding ties one connection to one board: its session plus the hub
// subscription that feeds it other clients' window updates.
type binding struct {
	session *engine.Session
	hubID   int
	done    chan struct{}
}

type client struct {
	id     string
	conn   *gorillaws.Conn
	svc    *engine.HiscoreService
	boards *core.Registry
	logger *slog.Logger
	send   chan []byte
	done   chan struct{}

	mu       sync.Mutex
	closed   bool
	bindings map[string]*binding
}

func newClient(conn *gorillaws.Conn, svc *engine.HiscoreService, boards *core.Registry, logger *slog.Logger) *client {
	id := uuid.NewString()
	return &client{
		id:       id,
		conn:     conn,
		svc:      svc,
		boards:   boards,
		logger:   logger.With("conn", id),
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		bindings: map[string]*binding{},
	}
}

func (c *client) run() {
	go c.writePump()
	c.readPump()
}

// PushWindow queues a window message for the peer. Drops when the send
// buffer is full; the peer catches up on the next push.
func (c *client) PushWindow(board string, rows []core.ScoreRow) {
	data, err := json.Marshal(newWindowMessage(board, rows))
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, window dropped", "board", board)
	}
}

func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if gorillaws.IsUnexpectedCloseError(err, gorillaws.CloseGoingAway, gorillaws.CloseAbnormalClosure, gorillaws.CloseNormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(gorillaws.CloseMessage, []byte{})
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(gorillaws.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(gorillaws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("dropping malformed message", "error", err)
		return
	}

	switch msg.Event {
	case EventSubmit:
		var res core.SubmittedResult
		if err := json.Unmarshal(msg.Payload, &res); err != nil {
			c.logger.Warn("dropping malformed submission", "board", msg.Board, "error", err)
			return
		}
		if sess := c.bind(msg.Board); sess != nil {
			sess.SubmitResult(context.Background(), res)
		}
	case EventRequest:
		if sess := c.bind(msg.Board); sess != nil {
			sess.RequestTop(context.Background())
		}
	default:
		c.logger.Warn("dropping unknown event", "event", msg.Event)
	}
}

// bind returns the connection's session for a board, creating it on first
// use. The binding also subscribes to the board's hub channel so this
// client hears windows pushed by other submitters.
func (c *client) bind(boardName string) *engine.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if b, ok := c.bindings[boardName]; ok {
		return b.session
	}

	board, ok := c.boards.Lookup(boardName)
	if !ok {
		c.logger.Warn("dropping message for unknown board", "board", boardName)
		return nil
	}

	hubID, ch := c.svc.Hub().Subscribe(boardName, hubBufferSize)
	sess := c.svc.NewSession(board, c, hubID)
	b := &binding{session: sess, hubID: hubID, done: make(chan struct{})}
	c.bindings[boardName] = b

	go func() {
		for rows := range ch {
			c.PushWindow(boardName, rows)
		}
		close(b.done)
	}()
	return sess
}

// close tears down every binding exactly once and closes the connection.
func (c *client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	bindings := c.bindings
	c.bindings = nil
	close(c.done)
	c.mu.Unlock()

	for _, b := range bindings {
		b.session.Close()
		c.svc.Hub().Unsubscribe(b.hubID)
		<-b.done
	}
	_ = c.conn.Close()
}

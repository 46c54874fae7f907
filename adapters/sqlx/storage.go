package sqlx

import (
	"context"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"hiscorekit/core"
)

// Driver selects the SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds SQL connection configuration
type Config struct {
	Driver          Driver        `json:"driver"`
	DSN             string        `json:"dsn" env:"HISCORE_SQL_DSN"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

// DefaultConfig returns sensible defaults for the given driver
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		DSN:             "",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// DefaultRetain bounds how many entries survive per board.
const DefaultRetain = 50

// Store implements the engine.Store interface on a SQL database.
// Schema:
//
//	hiscore_entries(board, name, score, rotations, updated_at)
//	PRIMARY KEY (board, name)
//
// The column is named score rather than rank because RANK is reserved in
// MySQL 8.
type Store struct {
	db     *sqlx.DB
	driver Driver
	retain int

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
}

// New opens a connection pool and verifies connectivity.
func New(cfg Config) (*Store, error) {
	db, err := sqlx.Connect(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQL store: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return NewWithDB(db, cfg.Driver), nil
}

// NewWithDB creates a Store using an existing database handle (useful for testing)
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver, retain: DefaultRetain, listeners: map[int]func(){}}
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the hiscore table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	scoreType := "DOUBLE PRECISION"
	if s.driver == DriverMySQL {
		scoreType = "DOUBLE"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS hiscore_entries (
		board      VARCHAR(128) NOT NULL,
		name       VARCHAR(8)   NOT NULL,
		score      %s           NOT NULL,
		rotations  TEXT         NOT NULL,
		updated_at TIMESTAMP    NOT NULL,
		PRIMARY KEY (board, name)
	)`, scoreType)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure hiscore schema: %w", err)
	}
	return nil
}

const upsertPostgres = `INSERT INTO hiscore_entries (board, name, score, rotations, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (board, name) DO UPDATE
SET score = EXCLUDED.score, rotations = EXCLUDED.rotations, updated_at = EXCLUDED.updated_at
WHERE hiscore_entries.score > EXCLUDED.score`

// Assignment order matters: rotations and updated_at must compare the
// old score, so they are assigned before score itself.
const upsertMySQL = `INSERT INTO hiscore_entries (board, name, score, rotations, updated_at)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
rotations = IF(VALUES(score) < score, VALUES(rotations), rotations),
updated_at = IF(VALUES(score) < score, VALUES(updated_at), updated_at),
score = IF(VALUES(score) < score, VALUES(score), score)`

const trimQuery = `DELETE FROM hiscore_entries
WHERE board = ? AND name NOT IN (
	SELECT name FROM (
		SELECT name FROM hiscore_entries
		WHERE board = ?
		ORDER BY score ASC, name ASC
		LIMIT ?
	) AS keep
)`

// ConditionalInsert upserts the entry best-rank-wins inside a single
// transaction, then ages out rows beyond the retained bound. The upsert
// itself is a single statement, so concurrent submissions for the same
// name resolve to the better score regardless of order.
func (s *Store) ConditionalInsert(ctx context.Context, board, name string, rank float64, rotations string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin hiscore transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsert := upsertPostgres
	if s.driver == DriverMySQL {
		upsert = upsertMySQL
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, upsert, board, name, rank, rotations, now); err != nil {
		return fmt.Errorf("failed to upsert hiscore entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.db.Rebind(trimQuery), board, board, s.retain); err != nil {
		return fmt.Errorf("failed to trim hiscore entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit hiscore transaction: %w", err)
	}
	return nil
}

// TopRange returns entries ascending by score for the inclusive
// positions [start, stop].
func (s *Store) TopRange(ctx context.Context, board string, start, stop int) ([]core.RankedEntry, error) {
	if start < 0 || stop < start {
		return nil, nil
	}
	query := s.db.Rebind(`SELECT name, score FROM hiscore_entries
WHERE board = ?
ORDER BY score ASC, name ASC
LIMIT ? OFFSET ?`)

	var rows []struct {
		Name  string  `db:"name"`
		Score float64 `db:"score"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, board, stop-start+1, start); err != nil {
		return nil, fmt.Errorf("failed to read hiscore range: %w", err)
	}
	entries := make([]core.RankedEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, core.RankedEntry{Name: r.Name, Rank: r.Score})
	}
	return entries, nil
}

// OnReconnect registers a listener. database/sql reconnects
// transparently, so nothing fires these automatically; health-check
// wiring may call FireReconnect when it observes the store coming back.
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

// FireReconnect invokes every registered reconnect listener.
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

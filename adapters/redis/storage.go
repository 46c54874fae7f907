package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"hiscorekit/core"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// DefaultRetain bounds how many entries survive per board, comfortably
// above the 7-entry read window so supersession churn never starves it.
const DefaultRetain = 50

// Store implements the engine.Store interface on Redis.
// Data structure:
// - hiscores:{board}       -> ZSET, member = player name, score = rank
// - hiscores:{board}:moves -> HASH, field = player name, value = serialized rotations
type Store struct {
	client *redis.Client
	retain int

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
	down      atomic.Bool
}

// New creates a new Redis-backed ranked store with the provided configuration
func New(config Config) (*Store, error) {
	s := &Store{retain: DefaultRetain, listeners: map[int]func(){}}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		OnConnect:    s.handleConnect,
	})
	s.client = client

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return s, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client, retain: DefaultRetain, listeners: map[int]func(){}}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// boardKey generates the ZSET key for a board's ranked entries
func boardKey(board string) string {
	return fmt.Sprintf("hiscores:%s", board)
}

// movesKey generates the HASH key for a board's stored move sequences
func movesKey(board string) string {
	return fmt.Sprintf("hiscores:%s:moves", board)
}

// Lua script for the atomic conditional insert: keep-best-per-name plus
// bounded-size trim, indivisible with respect to concurrent submissions
// for the same board.
var conditionalInsertScript = redis.NewScript(`
	local current = redis.call('ZSCORE', KEYS[1], ARGV[1])
	if current and tonumber(current) <= tonumber(ARGV[2]) then
		return 0
	end

	redis.call('ZADD', KEYS[1], ARGV[2], ARGV[1])
	redis.call('HSET', KEYS[2], ARGV[1], ARGV[3])

	-- age out everything ranked beyond the retained bound
	local extra = redis.call('ZRANGE', KEYS[1], tonumber(ARGV[4]), -1)
	for _, victim in ipairs(extra) do
		redis.call('ZREM', KEYS[1], victim)
		redis.call('HDEL', KEYS[2], victim)
	end
	return 1
`)

// ConditionalInsert atomically stores the entry unless the same name
// already holds an equal or better (lower) rank for the board.
func (s *Store) ConditionalInsert(ctx context.Context, board, name string, rank float64, rotations string) error {
	keys := []string{boardKey(board), movesKey(board)}
	rankArg := strconv.FormatFloat(rank, 'f', -1, 64)
	err := conditionalInsertScript.Run(ctx, s.client, keys, name, rankArg, rotations, s.retain).Err()
	if err != nil {
		s.markDown(err)
		return fmt.Errorf("failed to insert hiscore entry: %w", err)
	}
	return nil
}

// TopRange returns entries ascending by rank for the inclusive positions
// [start, stop].
func (s *Store) TopRange(ctx context.Context, board string, start, stop int) ([]core.RankedEntry, error) {
	zs, err := s.client.ZRangeWithScores(ctx, boardKey(board), int64(start), int64(stop)).Result()
	if err != nil {
		s.markDown(err)
		return nil, fmt.Errorf("failed to read hiscore range: %w", err)
	}
	entries := make([]core.RankedEntry, 0, len(zs))
	for _, z := range zs {
		name, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, core.RankedEntry{Name: name, Rank: z.Score})
	}
	return entries, nil
}

// Moves returns the stored rotation sequence for a name, or "" when none
// is stored.
func (s *Store) Moves(ctx context.Context, board, name string) (string, error) {
	moves, err := s.client.HGet(ctx, movesKey(board), name).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		s.markDown(err)
		return "", fmt.Errorf("failed to read stored moves: %w", err)
	}
	return moves, nil
}

// OnReconnect registers a callback fired when connectivity to Redis is
// reestablished after a failure. The returned func removes the listener.
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

// handleConnect runs on every new connection the pool establishes. Only
// a connection following an observed failure counts as a reconnect;
// ordinary pool growth stays silent.
func (s *Store) handleConnect(context.Context, *redis.Conn) error {
	if s.down.CompareAndSwap(true, false) {
		s.notifyReconnect()
	}
	return nil
}

func (s *Store) markDown(err error) {
	if err == nil || errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
		return
	}
	s.down.Store(true)
}

func (s *Store) notifyReconnect() {
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

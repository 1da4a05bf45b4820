package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/tonnetz/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "tonnetz:session:"

// Store implements ports.SelectionStore using Redis.
// Selections are stored as JSON strings; a sorted set indexes live sessions by expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for sessions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Session values live under "s:" so no session ID can land on the index key.
func (s *Store) key(sessionID string) string {
	return s.prefix + "s:" + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the selection to Redis.
func (s *Store) Save(ctx context.Context, sessionID string, sel *domain.Selection) error {
	data, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("failed to marshal selection: %w", err)
	}

	// Score = expiry. Without a TTL use a far-future score so the entry is never pruned.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(sessionID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: sessionID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the selection from Redis.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Selection, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var sel domain.Selection
	if err := json.Unmarshal(val, &sel); err != nil {
		return nil, fmt.Errorf("failed to unmarshal selection: %w", err)
	}
	return &sel, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns live sessions, pruning index entries whose keys have expired.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	sessions, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

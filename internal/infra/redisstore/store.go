// Package redisstore keeps progress snapshots in Redis, one JSON value per
// user under "<prefix>progress:<user id>".
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/shawHuaZe/SingMaster/internal/domain"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "singmaster:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration // 0 keeps snapshots forever
}

// Store implements domain.ProgressStore on Redis.
type Store struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// Open connects to Redis and verifies the connection with a ping.
func Open(ctx context.Context, opts Options) (*Store, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("%w: missing redis addr", domain.ErrInvalidArgument)
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, opts.Prefix, opts.TTL), nil
}

// New wraps an existing client.
func New(rdb *goredis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Close releases the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) key(userID string) string {
	return s.prefix + "progress:" + userID
}

// LoadProgress returns the stored snapshot, or nil if none exists.
func (s *Store) LoadProgress(ctx context.Context, userID string) (*domain.ProgressState, error) {
	raw, err := s.rdb.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress %s: %w", userID, err)
	}
	var state domain.ProgressState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode progress %s: %w", userID, err)
	}
	return &state, nil
}

// SaveProgress overwrites the snapshot for state.Progress.UserID.
func (s *Store) SaveProgress(ctx context.Context, state domain.ProgressState) error {
	userID := state.Progress.UserID
	if userID == "" {
		return fmt.Errorf("%w: snapshot without user id", domain.ErrInvalidArgument)
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode progress %s: %w", userID, err)
	}
	if err := s.rdb.Set(ctx, s.key(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set progress %s: %w", userID, err)
	}
	return nil
}

// DeleteProgress removes the snapshot. Missing keys are not an error.
func (s *Store) DeleteProgress(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("del progress %s: %w", userID, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

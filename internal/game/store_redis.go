package game

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultSessionTTL = 24 * time.Hour

// redisStore persists session state as JSON values with a sliding TTL, so
// abandoned conversations expire instead of accumulating forever.
type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore dials redisURL (redis://...) and verifies connectivity.
// ttl <= 0 selects the 24h default.
func NewRedisStore(redisURL string, ttl time.Duration) (Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreWithClient(rdb, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client (used by tests).
func NewRedisStoreWithClient(rdb *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &redisStore{rdb: rdb, ttl: ttl}
}

func (s *redisStore) key(id string) string { return "banter:sess:" + strings.TrimSpace(id) }

func (s *redisStore) Get(ctx context.Context, id string) (*State, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}
	st.normalizeMaps()
	return &st, nil
}

func (s *redisStore) Put(ctx context.Context, id string, st *State) error {
	if st == nil {
		return nil
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(id), raw, s.ttl).Err()
}

func (s *redisStore) Clear(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.key(id)).Err()
}

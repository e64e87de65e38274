package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"car-catalog-api/internal/catalog"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultSnapshotKey = "catalog:cars"
	DefaultSnapshotTTL = 5 * time.Minute
)

// NewRedisClient parses a redis:// URL and checks the connection
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	slog.Info("Connected to Redis", "addr", opt.Addr, "db", opt.DB)

	return client, nil
}

// RedisSnapshot stores the serialized car list under a single key with a TTL
type RedisSnapshot struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisSnapshot(client *redis.Client, key string, ttl time.Duration) *RedisSnapshot {
	if key == "" {
		key = DefaultSnapshotKey
	}
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &RedisSnapshot{client: client, key: key, ttl: ttl}
}

// Get returns the cached list or ErrSnapshotMiss
func (s *RedisSnapshot) Get(ctx context.Context) ([]catalog.Item, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotMiss
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", s.key, err)
	}

	var items []catalog.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", s.key, err)
	}
	return items, nil
}

// Put replaces the snapshot and resets its TTL
func (s *RedisSnapshot) Put(ctx context.Context, items []catalog.Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", s.key, err)
	}
	return nil
}

// Invalidate drops the snapshot
func (s *RedisSnapshot) Invalidate(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", s.key, err)
	}
	return nil
}

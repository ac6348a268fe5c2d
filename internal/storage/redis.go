package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"productivity_agent/pkg"
)

const (
	// SessionTTL is the default lifetime of an archived session (40 minutes)
	SessionTTL    = 40 * time.Minute
	sessionPrefix = "session:"
)

// RedisArchiver stores session snapshots in Redis with a TTL
type RedisArchiver struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisArchiver connects to redisURL and verifies the connection
func NewRedisArchiver(ctx context.Context, redisURL string, ttl time.Duration) (*RedisArchiver, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = SessionTTL
	}

	return &RedisArchiver{
		client: client,
		ttl:    ttl,
	}, nil
}

// key generates a Redis key for the given session ID
func (r *RedisArchiver) key(sessionID string) string {
	return sessionPrefix + sessionID
}

// Archive stores the snapshot, replacing any previous one and resetting the TTL
func (r *RedisArchiver) Archive(ctx context.Context, sessionID string, export pkg.SessionExport) error {
	data, err := sonic.Marshal(export)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := r.client.Set(ctx, r.key(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session data: %w", err)
	}

	return nil
}

// Load reads the snapshot of a session
func (r *RedisArchiver) Load(ctx context.Context, sessionID string) (*pkg.SessionExport, error) {
	data, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to get session data: %w", err)
	}

	var export pkg.SessionExport
	if err := sonic.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	return &export, nil
}

// Delete removes the snapshot of a session
func (r *RedisArchiver) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// TTL gets the remaining lifetime of a snapshot
func (r *RedisArchiver) TTL(ctx context.Context, sessionID string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, r.key(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get TTL: %w", err)
	}
	return ttl, nil
}

// Close closes the Redis connection
func (r *RedisArchiver) Close() error {
	return r.client.Close()
}

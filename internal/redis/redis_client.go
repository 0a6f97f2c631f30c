package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const activeUsersKey = "active_users"

// RedisClient mirrors the display names of connected sessions for the
// introspection API. It is a best-effort presence mirror, never the
// authoritative state; the key is cleared on startup.
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(ctx context.Context, redisURL string) (*RedisClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// AddActiveUser records a session's display name in the presence hash.
// Keyed by session id because display names are not unique: two sessions
// named "alice" must not collapse into one entry.
func (r *RedisClient) AddActiveUser(ctx context.Context, sessionID, displayName string) error {
	return r.client.HSet(ctx, activeUsersKey, sessionID, displayName).Err()
}

// RemoveActiveUser drops one session's presence entry.
func (r *RedisClient) RemoveActiveUser(ctx context.Context, sessionID string) error {
	return r.client.HDel(ctx, activeUsersKey, sessionID).Err()
}

// GetActiveUsers retrieves the display names of all connected sessions.
func (r *RedisClient) GetActiveUsers(ctx context.Context) ([]string, error) {
	return r.client.HVals(ctx, activeUsersKey).Result()
}

// ClearActiveUsers drops the presence set. Called at startup so a previous
// process's leftovers never show up.
func (r *RedisClient) ClearActiveUsers(ctx context.Context) error {
	return r.client.Del(ctx, activeUsersKey).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a shared redis instance, so cache entries
// survive restarts and are shared across worker processes.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to redis using a connection URL and verifies the
// connection with a ping.
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Redis{client: client}, nil
}

// Get returns the payload for key when a live entry exists. Expiry is
// delegated to redis key TTLs.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// Set stores payload under key for the given TTL.
func (r *Redis) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, payload, ttl).Err()
}

// Ping verifies the backing connection; used by the health endpoint.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Store = (*Redis)(nil)

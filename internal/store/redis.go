package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "farescan:responses:"

// RedisStore keeps responses under one Redis key.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore connects to the Redis server at rawURL (redis://[:password@]host:port[/db])
// and stores responses under name. A zero ttl keeps them forever.
func NewRedisStore(ctx context.Context, rawURL, name string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, name, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, name string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    keyPrefix + name,
		ttl:    ttl,
	}
}

// Save replaces the stored bodies.
func (s *RedisStore) Save(ctx context.Context, bodies []string) error {
	data, err := encode(bodies)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save responses to Redis key %s: %w", s.key, err)
	}
	return nil
}

// Load reads the stored bodies.
func (s *RedisStore) Load(ctx context.Context) ([]string, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.key)
		}
		return nil, fmt.Errorf("failed to load responses from Redis key %s: %w", s.key, err)
	}
	return decode(data)
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds configuration for the Redis store
type RedisConfig struct {
	// Address is the Redis server address, e.g. "localhost:6379"
	Address string `yaml:"address"`

	Password string `yaml:"password"`

	// Database is the database number to use
	Database int `yaml:"database" validate:"gte=0"`

	// PoolSize is the maximum number of connections in the pool
	PoolSize int `yaml:"pool_size" validate:"gte=0"`

	MinIdleConns int           `yaml:"min_idle_conns" validate:"gte=0"`
	PoolTimeout  time.Duration `yaml:"pool_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	// Namespace prefixes every key
	Namespace string `yaml:"namespace"`
}

// RedisStore keeps records in Redis as JSON values expiring with their record
type RedisStore struct {
	client    redis.UniversalClient
	ttl       time.Duration
	namespace string
}

// NewRedisStore creates a Redis backed store. No connection is made until first use.
func NewRedisStore(cfg RedisConfig, ttl time.Duration) (*RedisStore, error) {
	if cfg.Address == "" {
		return nil, errors.New("store: Redis address is required")
	}

	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 10
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "openid:pending"
	}

	options := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}
	if cfg.PoolTimeout > 0 {
		options.PoolTimeout = cfg.PoolTimeout
	}
	if cfg.IdleTimeout > 0 {
		options.ConnMaxIdleTime = cfg.IdleTimeout
	}

	return NewRedisStoreWithClient(redis.NewClient(options), cfg.Namespace, ttl), nil
}

// NewRedisStoreWithClient creates a store on an existing client
func NewRedisStoreWithClient(client redis.UniversalClient, namespace string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		ttl:       ttl,
		namespace: namespace,
	}
}

func (s *RedisStore) key(handle uuid.UUID) string {
	if s.namespace == "" {
		return handle.String()
	}
	return fmt.Sprintf("%s:%s", s.namespace, handle)
}

// expiration returns the Redis TTL for a record; zero keeps the key forever
func (s *RedisStore) expiration(record Record, now time.Time) time.Duration {
	if !record.ExpiresAt.IsZero() {
		return record.ExpiresAt.Sub(now)
	}
	return s.ttl
}

// Save stores the record
func (s *RedisStore) Save(ctx context.Context, record Record) error {
	if err := validateHandle(record.Handle); err != nil {
		return err
	}

	now := time.Now()
	if record.Expired(now) {
		return ErrExpired
	}
	ttl := s.expiration(record, now)

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("store: failed to encode record: %w", err)
	}
	return s.client.Set(ctx, s.key(record.Handle), data, ttl).Err()
}

// Load returns the record for handle
func (s *RedisStore) Load(ctx context.Context, handle uuid.UUID) (Record, error) {
	if err := validateHandle(handle); err != nil {
		return Record{}, err
	}

	data, err := s.client.Get(ctx, s.key(handle)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("store: failed to decode record %s: %w", handle, err)
	}
	return record, nil
}

// Delete removes the record for handle
func (s *RedisStore) Delete(ctx context.Context, handle uuid.UUID) error {
	if err := validateHandle(handle); err != nil {
		return err
	}
	return s.client.Del(ctx, s.key(handle)).Err()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

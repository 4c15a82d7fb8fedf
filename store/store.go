// Package store keeps outbound OpenID messages between the redirect to the
// identity provider and the response coming back. Records are addressed by a
// random handle that the relying party carries in its return URL or session.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/santif/openid/message"
)

// Common store errors
var (
	// ErrNotFound is returned when no live record exists for a handle
	ErrNotFound = errors.New("store: record not found")

	// ErrInvalidHandle is returned for the zero handle
	ErrInvalidHandle = errors.New("store: invalid handle")

	// ErrUnsupportedType is returned by New for an unknown store type
	ErrUnsupportedType = errors.New("store: unsupported type")

	// ErrExpired is returned by Save for a record already past its expiry
	ErrExpired = errors.New("store: record already expired")
)

// Store types
const (
	TypeMemory   = "memory"
	TypeRedis    = "redis"
	TypePostgres = "postgres"
)

// Record is a stored outbound message
type Record struct {
	Handle      uuid.UUID `json:"handle"`
	Body        string    `json:"body"`
	Destination string    `json:"destination"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the record is past its expiry at now.
// A zero ExpiresAt never expires.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Store persists outbound message records
type Store interface {
	// Save stores the record, replacing any record with the same handle
	Save(ctx context.Context, record Record) error

	// Load returns the record for handle, or ErrNotFound
	Load(ctx context.Context, handle uuid.UUID) (Record, error)

	// Delete removes the record for handle; deleting a missing record is not an error
	Delete(ctx context.Context, handle uuid.UUID) error

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error

	// Close releases the backend connection
	Close() error
}

// Expirer is implemented by stores whose backend keeps expired records
// until they are removed explicitly
type Expirer interface {
	// DeleteExpired removes expired records and returns how many were removed
	DeleteExpired(ctx context.Context) (int64, error)
}

// DeleteExpired removes expired records from s when it is an Expirer.
// Stores whose backend expires records on its own report zero.
func DeleteExpired(ctx context.Context, s Store) (int64, error) {
	expirer, ok := s.(Expirer)
	if !ok {
		return 0, nil
	}
	return expirer.DeleteExpired(ctx)
}

// Config selects and configures a store backend
type Config struct {
	// Type is one of memory, redis or postgres
	Type string `yaml:"type" validate:"required,oneof=memory redis postgres"`

	// TTL bounds how long a record stays loadable
	TTL time.Duration `yaml:"ttl" validate:"min=0"`

	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// DefaultConfig returns an in-memory store keeping records for ten minutes
func DefaultConfig() Config {
	return Config{
		Type: TypeMemory,
		TTL:  10 * time.Minute,
	}
}

// New creates the store selected by cfg
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Type {
	case TypeMemory, "":
		return NewMemoryStore(cfg.TTL), nil
	case TypeRedis:
		return NewRedisStore(cfg.Redis, cfg.TTL)
	case TypePostgres:
		return NewPostgresStore(ctx, cfg.Postgres, cfg.TTL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, cfg.Type)
	}
}

// NewRecord builds a record for an outbound message under a fresh handle
func NewRecord(m *message.Message, now time.Time, ttl time.Duration) (Record, error) {
	destination, err := m.DestinationURL(false)
	if err != nil {
		return Record{}, err
	}

	record := Record{
		Handle:      uuid.New(),
		Body:        m.KeyValueForm(),
		Destination: destination,
		CreatedAt:   now.UTC(),
	}
	if ttl > 0 {
		record.ExpiresAt = record.CreatedAt.Add(ttl)
	}
	return record, nil
}

// Put stores an outbound message and returns its handle
func Put(ctx context.Context, s Store, m *message.Message, ttl time.Duration) (uuid.UUID, error) {
	record, err := NewRecord(m, time.Now(), ttl)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.Save(ctx, record); err != nil {
		return uuid.Nil, fmt.Errorf("failed to save message %s: %w", record.Handle, err)
	}
	return record.Handle, nil
}

// Restore loads a stored message and rebuilds it as an outbound message
func Restore(ctx context.Context, s Store, handle uuid.UUID, opts ...message.Option) (*message.Message, error) {
	record, err := s.Load(ctx, handle)
	if err != nil {
		return nil, err
	}

	params, err := message.ParseKeyValueForm(record.Body)
	if err != nil {
		return nil, fmt.Errorf("stored message %s: %w", handle, err)
	}

	return message.NewOutbound(record.Destination, params, opts...)
}

func validateHandle(handle uuid.UUID) error {
	if handle == uuid.Nil {
		return ErrInvalidHandle
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds configuration for the PostgreSQL store
type PostgresConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port" validate:"omitempty,min=1,max=65535"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	Database       string        `yaml:"database"`
	SSLMode        string        `yaml:"sslmode" validate:"omitempty,oneof=disable require verify-ca verify-full"`
	MaxConnections int           `yaml:"max_connections" validate:"gte=0"`
	ConnTimeout    time.Duration `yaml:"conn_timeout"`
	MaxIdleTime    time.Duration `yaml:"max_idle_time"`
	MaxLifetime    time.Duration `yaml:"max_lifetime"`

	// Table holds the records
	Table string `yaml:"table"`
}

// ConnString builds the connection URL, filling defaults for unset fields
func (c PostgresConfig) ConnString() string {
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// pgxPool is the subset of pgxpool.Pool used by the store
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore keeps records in a PostgreSQL table
type PostgresStore struct {
	pool  pgxPool
	ttl   time.Duration
	table string
}

const defaultTable = "openid_pending_messages"

// NewPostgresStore connects to PostgreSQL and creates the record table if needed
func NewPostgresStore(ctx context.Context, cfg PostgresConfig, ttl time.Duration) (*PostgresStore, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return nil, errors.New("store: PostgreSQL host and database are required")
	}

	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 10
	}
	if cfg.ConnTimeout <= 0 {
		cfg.ConnTimeout = 5 * time.Second
	}
	if cfg.MaxIdleTime <= 0 {
		cfg.MaxIdleTime = 5 * time.Minute
	}
	if cfg.MaxLifetime <= 0 {
		cfg.MaxLifetime = 30 * time.Minute
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.ConnTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := newPostgresStore(pool, cfg.Table, ttl)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func newPostgresStore(pool pgxPool, table string, ttl time.Duration) *PostgresStore {
	if table == "" {
		table = defaultTable
	}
	return &PostgresStore{pool: pool, ttl: ttl, table: table}
}

func (s *PostgresStore) tableName() string {
	return pgx.Identifier{s.table}.Sanitize()
}

// Migrate creates the record table if it does not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		handle UUID PRIMARY KEY,
		body TEXT NOT NULL,
		destination TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		expires_at TIMESTAMP WITH TIME ZONE
	);
	`, s.tableName())

	if _, err := s.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create %s table: %w", s.table, err)
	}
	return nil
}

// Save stores the record
func (s *PostgresStore) Save(ctx context.Context, record Record) error {
	if err := validateHandle(record.Handle); err != nil {
		return err
	}
	if record.Expired(time.Now()) {
		return ErrExpired
	}

	var expiresAt *time.Time
	switch {
	case !record.ExpiresAt.IsZero():
		expiresAt = &record.ExpiresAt
	case s.ttl > 0:
		t := record.CreatedAt.Add(s.ttl)
		expiresAt = &t
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (handle, body, destination, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (handle) DO UPDATE
	SET body = EXCLUDED.body, destination = EXCLUDED.destination,
		created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
	`, s.tableName())

	if _, err := s.pool.Exec(ctx, query, record.Handle.String(), record.Body, record.Destination, record.CreatedAt, expiresAt); err != nil {
		return fmt.Errorf("postgres exec error: %w", err)
	}
	return nil
}

// Load returns the live record for handle
func (s *PostgresStore) Load(ctx context.Context, handle uuid.UUID) (Record, error) {
	if err := validateHandle(handle); err != nil {
		return Record{}, err
	}

	query := fmt.Sprintf(`
	SELECT body, destination, created_at, expires_at
	FROM %s
	WHERE handle = $1 AND (expires_at IS NULL OR expires_at > NOW())
	`, s.tableName())

	record := Record{Handle: handle}
	var expiresAt *time.Time
	err := s.pool.QueryRow(ctx, query, handle.String()).Scan(&record.Body, &record.Destination, &record.CreatedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("postgres query error: %w", err)
	}
	if expiresAt != nil {
		record.ExpiresAt = *expiresAt
	}
	return record, nil
}

// Delete removes the record for handle
func (s *PostgresStore) Delete(ctx context.Context, handle uuid.UUID) error {
	if err := validateHandle(handle); err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE handle = $1`, s.tableName())
	if _, err := s.pool.Exec(ctx, query, handle.String()); err != nil {
		return fmt.Errorf("postgres exec error: %w", err)
	}
	return nil
}

// DeleteExpired removes expired records and returns how many were removed
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= NOW()`, s.tableName())
	tag, err := s.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("postgres exec error: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping verifies a connection to the database is still alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

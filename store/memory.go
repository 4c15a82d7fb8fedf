package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records in process memory.
// Expired records are dropped lazily on access and by DeleteExpired.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
// A positive ttl caps the lifetime of records saved without an expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		records: make(map[uuid.UUID]Record),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Save stores the record
func (s *MemoryStore) Save(ctx context.Context, record Record) error {
	if err := validateHandle(record.Handle); err != nil {
		return err
	}
	now := s.now()
	if record.Expired(now) {
		return ErrExpired
	}
	if record.ExpiresAt.IsZero() && s.ttl > 0 {
		record.ExpiresAt = now.Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Handle] = record
	return nil
}

// Load returns the live record for handle
func (s *MemoryStore) Load(ctx context.Context, handle uuid.UUID) (Record, error) {
	if err := validateHandle(handle); err != nil {
		return Record{}, err
	}

	s.mu.RLock()
	record, ok := s.records[handle]
	s.mu.RUnlock()

	if !ok {
		return Record{}, ErrNotFound
	}
	if record.Expired(s.now()) {
		s.mu.Lock()
		delete(s.records, handle)
		s.mu.Unlock()
		return Record{}, ErrNotFound
	}
	return record, nil
}

// Delete removes the record for handle
func (s *MemoryStore) Delete(ctx context.Context, handle uuid.UUID) error {
	if err := validateHandle(handle); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, handle)
	return nil
}

// DeleteExpired removes expired records and returns how many were removed
func (s *MemoryStore) DeleteExpired(ctx context.Context) (int64, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for handle, record := range s.records {
		if record.Expired(now) {
			delete(s.records, handle)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored records, expired or not
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close drops every record
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[uuid.UUID]Record)
	return nil
}

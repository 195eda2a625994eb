package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/aleksaelezovic/trigo-conceptnet/pkg/rdf"
)

// CountStore persists total counts keyed by pattern hash so they survive
// restarts.
type CountStore struct {
	storage Storage
	ttl     time.Duration
}

// NewCountStore creates a count store whose entries expire after ttl.
func NewCountStore(storage Storage, ttl time.Duration) *CountStore {
	return &CountStore{storage: storage, ttl: ttl}
}

// LoadCount returns the stored count for key, if any.
func (c *CountStore) LoadCount(key string) (int64, bool, error) {
	txn, err := c.storage.Begin(false)
	if err != nil {
		return 0, false, err
	}
	defer txn.Rollback() // #nosec G104 - read-only transaction

	value, err := txn.Get(TableCounts, []byte(key))
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load count: %w", err)
	}
	if len(value) != 8 {
		return 0, false, fmt.Errorf("failed to load count: corrupt value of %d bytes", len(value))
	}
	return rdf.DecodeInt64BigEndian(value), true, nil
}

// SaveCount stores count under key.
func (c *CountStore) SaveCount(key string, count int64) error {
	txn, err := c.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback() // #nosec G104 - no-op after commit

	if err := txn.Set(TableCounts, []byte(key), rdf.EncodeInt64BigEndian(count), c.ttl); err != nil {
		return fmt.Errorf("failed to save count: %w", err)
	}
	return txn.Commit()
}

// Close closes the underlying storage.
func (c *CountStore) Close() error {
	return c.storage.Close()
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no override exists for a (subject, key) pair
	ErrNotFound = errors.New("override not found")
)

// PersistenceError wraps a storage failure. It is propagated to callers
// unchanged; the cache is left untouched so a retried write is safe.
type PersistenceError struct {
	Driver string
	Op     string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s store %s: %v", e.Driver, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Override is one subject-scoped value stored in place of a key's default.
// The value is always the string form regardless of the declared type.
type Override struct {
	ID        uuid.UUID `db:"id" json:"id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Store is the persistence contract for subject overrides. Implementations
// must be safe for concurrent use.
type Store interface {
	// ListForSubject returns every override for one subject as a key to
	// raw value mapping. A subject with no overrides yields an empty map,
	// never an error.
	ListForSubject(ctx context.Context, subjectID string) (map[string]string, error)

	// Get returns a single override or ErrNotFound.
	Get(ctx context.Context, subjectID, key string) (*Override, error)

	// Upsert inserts the override or updates its value and updated_at.
	Upsert(ctx context.Context, subjectID, key, value string) error

	// Delete removes the override row. Deleting an absent row is a no-op.
	Delete(ctx context.Context, subjectID, key string) error

	// Close releases the underlying connections.
	Close() error
}

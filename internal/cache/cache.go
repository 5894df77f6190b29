// Package cache holds per-subject override snapshots in front of the
// persistent store. Snapshots are populated lazily on first read and
// discarded explicitly when a write changes the subject's overrides.
package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/harborloop/settingsd/internal/metrics"
	"github.com/harborloop/settingsd/internal/store"
)

// population marks one in-flight store read. The pointer identity is the
// token: an invalidation orphans the flight by removing its entry, and a
// flight only installs its result while its own token is still current.
// The field keeps the struct non-zero-sized so every allocation is a
// distinct pointer.
type population struct {
	subjectID string
}

// SubjectCache caches the complete override set of each subject. A snapshot
// is either absent or a full, consistent view of the subject's overrides as
// of its last population; it is never partial. Entries have no TTL — they
// live until Invalidate or process restart.
type SubjectCache struct {
	st     store.Store
	logger *zap.Logger

	mu        sync.Mutex
	snapshots map[string]map[string]string
	pending   map[string]*population

	group singleflight.Group
}

// New creates a cache over the given override store.
func New(st store.Store, logger *zap.Logger) *SubjectCache {
	return &SubjectCache{
		st:        st,
		logger:    logger,
		snapshots: make(map[string]map[string]string),
		pending:   make(map[string]*population),
	}
}

// GetAll returns the subject's override snapshot, populating it from the
// store on a miss. Concurrent misses for the same subject collapse into a
// single store read; misses for different subjects are independent. The
// returned map is shared and must be treated as read-only.
func (c *SubjectCache) GetAll(ctx context.Context, subjectID string) (map[string]string, error) {
	c.mu.Lock()
	if snap, ok := c.snapshots[subjectID]; ok {
		c.mu.Unlock()
		metrics.CacheHits.Inc()
		return snap, nil
	}
	c.mu.Unlock()
	metrics.CacheMisses.Inc()

	v, err, shared := c.group.Do(subjectID, func() (interface{}, error) {
		token := &population{subjectID: subjectID}
		c.mu.Lock()
		c.pending[subjectID] = token
		c.mu.Unlock()

		values, err := c.st.ListForSubject(ctx, subjectID)

		c.mu.Lock()
		if c.pending[subjectID] == token {
			delete(c.pending, subjectID)
			if err == nil {
				c.snapshots[subjectID] = values
				metrics.CachedSubjects.Set(float64(len(c.snapshots)))
			}
		}
		// A replaced or missing token means a write landed mid-flight;
		// the fetched set may predate it and must not be installed.
		c.mu.Unlock()

		if err != nil {
			return nil, err
		}
		return values, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		metrics.CachePopulationsShared.Inc()
	}
	return v.(map[string]string), nil
}

// Invalidate discards the subject's snapshot. Idempotent when no snapshot
// exists. The in-flight population key is forgotten first so that a read
// issued after Invalidate returns starts a fresh store fetch instead of
// joining a flight that began before the write; removing the pending token
// then orphans the old flight so it cannot install its result.
func (c *SubjectCache) Invalidate(subjectID string) {
	c.group.Forget(subjectID)

	c.mu.Lock()
	delete(c.snapshots, subjectID)
	delete(c.pending, subjectID)
	metrics.CachedSubjects.Set(float64(len(c.snapshots)))
	c.mu.Unlock()

	metrics.CacheInvalidations.Inc()
	c.logger.Debug("Invalidated subject snapshot", zap.String("subject_id", subjectID))
}

// Len returns the number of resident snapshots.
func (c *SubjectCache) Len() int {
	c.mu.Lock()
	n := len(c.snapshots)
	c.mu.Unlock()
	return n
}

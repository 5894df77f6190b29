package settings

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/harborloop/settingsd/internal/metrics"
	"github.com/harborloop/settingsd/internal/store"
)

// OverrideCache is the snapshot cache the service reads through. Implemented
// by cache.SubjectCache.
type OverrideCache interface {
	GetAll(ctx context.Context, subjectID string) (map[string]string, error)
	Invalidate(subjectID string)
}

// Service resolves effective setting values: subject override if present,
// registered default otherwise, cast to the declared type. Writes go to the
// store first and invalidate the subject's snapshot only after the store
// confirms, so a failed write never discards a still-valid snapshot.
type Service struct {
	registry *Registry
	cache    OverrideCache
	store    store.Store
	logger   *zap.Logger
}

// NewService wires the façade from its injected collaborators.
func NewService(registry *Registry, cache OverrideCache, st store.Store, logger *zap.Logger) *Service {
	return &Service{
		registry: registry,
		cache:    cache,
		store:    st,
		logger:   logger,
	}
}

// RegisterType upserts a setting definition. Idempotent.
func (s *Service) RegisterType(def Definition) {
	s.registry.Register(def)
}

// Describe returns the definition for a key.
func (s *Service) Describe(key string) (Definition, bool) {
	return s.registry.Lookup(key)
}

// VisibleBySection returns the visible definitions grouped for presentation.
func (s *Service) VisibleBySection() []Section {
	return s.registry.VisibleBySection()
}

// Get resolves the effective typed value of key for the subject. An empty
// subjectID is the anonymous subject and resolves directly to the registered
// default without touching cache or store. Requesting a key that was never
// registered is a caller defect and fails with ErrUnknownKey.
func (s *Service) Get(ctx context.Context, subjectID, key string) (interface{}, error) {
	def, ok := s.registry.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	if subjectID == "" {
		metrics.SettingReads.WithLabelValues("default").Inc()
		return def.Default, nil
	}

	values, err := s.cache.GetAll(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if raw, ok := values[key]; ok {
		metrics.SettingReads.WithLabelValues("override").Inc()
		return def.Type.Cast(raw), nil
	}

	metrics.SettingReads.WithLabelValues("default").Inc()
	return def.Default, nil
}

// GetString resolves key and returns it as a string.
func (s *Service) GetString(ctx context.Context, subjectID, key string) (string, error) {
	v, err := s.Get(ctx, subjectID, key)
	if err != nil {
		return "", err
	}
	str, _ := v.(string)
	return str, nil
}

// GetBool resolves key and returns it as a bool.
func (s *Service) GetBool(ctx context.Context, subjectID, key string) (bool, error) {
	v, err := s.Get(ctx, subjectID, key)
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

// GetInt resolves key and returns it as an int.
func (s *Service) GetInt(ctx context.Context, subjectID, key string) (int, error) {
	v, err := s.Get(ctx, subjectID, key)
	if err != nil {
		return 0, err
	}
	n, _ := v.(int)
	return n, nil
}

// Set writes a subject override. A nil value deletes the override, reverting
// the key to its default; deleting an absent override is a no-op. Writing an
// unregistered key fails with ErrUnknownKey. Store failures propagate
// unchanged and leave the cache as it was.
func (s *Service) Set(ctx context.Context, subjectID, key string, value *string) error {
	if _, ok := s.registry.Lookup(key); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if subjectID == "" {
		return ErrNoSubject
	}

	if value == nil {
		return s.mutate(subjectID, "delete", func() error {
			return s.store.Delete(ctx, subjectID, key)
		})
	}
	return s.mutate(subjectID, "upsert", func() error {
		return s.store.Upsert(ctx, subjectID, key, *value)
	})
}

// SetTyped writes a typed value, storing its string form per the key's
// declared type.
func (s *Service) SetTyped(ctx context.Context, subjectID, key string, value interface{}) error {
	def, ok := s.registry.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	raw := def.Type.Uncast(value)
	return s.Set(ctx, subjectID, key, &raw)
}

// mutate runs the store operation and, only once it succeeds, discards the
// subject's snapshot. Every mutation path funnels through here so no future
// code path can forget to invalidate. Invalidation after a failed write
// would let a stale repopulation mask the failure, so errors return early.
func (s *Service) mutate(subjectID, kind string, op func() error) error {
	if err := op(); err != nil {
		s.logger.Error("Override mutation failed",
			zap.String("subject_id", subjectID),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return err
	}
	s.cache.Invalidate(subjectID)
	metrics.SettingWrites.WithLabelValues(kind).Inc()
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/harborloop/settingsd/internal/metrics"
)

const redisDriver = "redis"

// RedisConfig holds connection settings for the Redis-backed store
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Redis persists overrides as one hash per subject. It satisfies the same
// contract as the Postgres store; row timestamps are not tracked.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedis connects to Redis and verifies connectivity.
func NewRedis(cfg *RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis override store initialized", zap.String("addr", cfg.Addr))
	return &Redis{client: client, logger: logger}, nil
}

// NewRedisFromClient wraps an existing client. Used by tests.
func NewRedisFromClient(client *redis.Client, logger *zap.Logger) *Redis {
	return &Redis{client: client, logger: logger}
}

func (r *Redis) subjectKey(subjectID string) string {
	return fmt.Sprintf("settings:overrides:%s", subjectID)
}

func (r *Redis) ListForSubject(ctx context.Context, subjectID string) (map[string]string, error) {
	values, err := r.client.HGetAll(ctx, r.subjectKey(subjectID)).Result()
	if err != nil {
		metrics.StoreOperations.WithLabelValues(redisDriver, "list", "error").Inc()
		return nil, &PersistenceError{Driver: redisDriver, Op: "list", Err: err}
	}
	metrics.StoreOperations.WithLabelValues(redisDriver, "list", "ok").Inc()
	return values, nil
}

func (r *Redis) Get(ctx context.Context, subjectID, key string) (*Override, error) {
	value, err := r.client.HGet(ctx, r.subjectKey(subjectID), key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.StoreOperations.WithLabelValues(redisDriver, "get", "error").Inc()
		return nil, &PersistenceError{Driver: redisDriver, Op: "get", Err: err}
	}
	metrics.StoreOperations.WithLabelValues(redisDriver, "get", "ok").Inc()
	return &Override{SubjectID: subjectID, Key: key, Value: value}, nil
}

func (r *Redis) Upsert(ctx context.Context, subjectID, key, value string) error {
	if err := r.client.HSet(ctx, r.subjectKey(subjectID), key, value).Err(); err != nil {
		metrics.StoreOperations.WithLabelValues(redisDriver, "upsert", "error").Inc()
		return &PersistenceError{Driver: redisDriver, Op: "upsert", Err: err}
	}
	metrics.StoreOperations.WithLabelValues(redisDriver, "upsert", "ok").Inc()
	return nil
}

func (r *Redis) Delete(ctx context.Context, subjectID, key string) error {
	if err := r.client.HDel(ctx, r.subjectKey(subjectID), key).Err(); err != nil {
		metrics.StoreOperations.WithLabelValues(redisDriver, "delete", "error").Inc()
		return &PersistenceError{Driver: redisDriver, Op: "delete", Err: err}
	}
	metrics.StoreOperations.WithLabelValues(redisDriver, "delete", "ok").Inc()
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

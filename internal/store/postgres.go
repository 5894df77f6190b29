package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/harborloop/settingsd/internal/metrics"
)

const postgresDriver = "postgres"

// PostgresConfig holds connection settings for the Postgres-backed store
type PostgresConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	IdleConnections int
	MaxLifetime     time.Duration
}

// Postgres persists overrides in a subject_overrides table with a unique
// constraint on (subject_id, key).
type Postgres struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgres opens a connection pool and verifies connectivity.
func NewPostgres(cfg *PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 25
	}
	if cfg.IdleConnections == 0 {
		cfg.IdleConnections = 5
	}
	if cfg.MaxLifetime == 0 {
		cfg.MaxLifetime = 5 * time.Minute
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "require"
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.IdleConnections)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Postgres override store initialized",
		zap.String("host", cfg.Host),
		zap.Int("max_connections", cfg.MaxConnections),
	)

	return &Postgres{db: db, logger: logger}, nil
}

// NewPostgresFromDB wraps an existing connection. Used by tests.
func NewPostgresFromDB(db *sqlx.DB, logger *zap.Logger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

func (p *Postgres) ListForSubject(ctx context.Context, subjectID string) (map[string]string, error) {
	rows, err := p.db.QueryxContext(ctx,
		`SELECT key, value FROM subject_overrides WHERE subject_id = $1`,
		subjectID,
	)
	if err != nil {
		metrics.StoreOperations.WithLabelValues(postgresDriver, "list", "error").Inc()
		return nil, &PersistenceError{Driver: postgresDriver, Op: "list", Err: err}
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			metrics.StoreOperations.WithLabelValues(postgresDriver, "list", "error").Inc()
			return nil, &PersistenceError{Driver: postgresDriver, Op: "list", Err: err}
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		metrics.StoreOperations.WithLabelValues(postgresDriver, "list", "error").Inc()
		return nil, &PersistenceError{Driver: postgresDriver, Op: "list", Err: err}
	}

	metrics.StoreOperations.WithLabelValues(postgresDriver, "list", "ok").Inc()
	return values, nil
}

func (p *Postgres) Get(ctx context.Context, subjectID, key string) (*Override, error) {
	var ov Override
	err := p.db.GetContext(ctx, &ov,
		`SELECT id, subject_id, key, value, created_at, updated_at
		 FROM subject_overrides WHERE subject_id = $1 AND key = $2`,
		subjectID, key,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.StoreOperations.WithLabelValues(postgresDriver, "get", "error").Inc()
		return nil, &PersistenceError{Driver: postgresDriver, Op: "get", Err: err}
	}
	metrics.StoreOperations.WithLabelValues(postgresDriver, "get", "ok").Inc()
	return &ov, nil
}

func (p *Postgres) Upsert(ctx context.Context, subjectID, key, value string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO subject_overrides (id, subject_id, key, value, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 ON CONFLICT (subject_id, key)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		uuid.New(), subjectID, key, value,
	)
	if err != nil {
		metrics.StoreOperations.WithLabelValues(postgresDriver, "upsert", "error").Inc()
		return &PersistenceError{Driver: postgresDriver, Op: "upsert", Err: err}
	}
	metrics.StoreOperations.WithLabelValues(postgresDriver, "upsert", "ok").Inc()
	return nil
}

func (p *Postgres) Delete(ctx context.Context, subjectID, key string) error {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM subject_overrides WHERE subject_id = $1 AND key = $2`,
		subjectID, key,
	)
	if err != nil {
		metrics.StoreOperations.WithLabelValues(postgresDriver, "delete", "error").Inc()
		return &PersistenceError{Driver: postgresDriver, Op: "delete", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		p.logger.Debug("Delete of absent override",
			zap.String("subject_id", subjectID),
			zap.String("key", key),
		)
	}
	metrics.StoreOperations.WithLabelValues(postgresDriver, "delete", "ok").Inc()
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

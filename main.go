package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/harborloop/settingsd/internal/cache"
	cfg "github.com/harborloop/settingsd/internal/config"
	"github.com/harborloop/settingsd/internal/server"
	"github.com/harborloop/settingsd/internal/settings"
	"github.com/harborloop/settingsd/internal/store"
)

func main() {
	config, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(config.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	st, err := newStore(config, logger)
	if err != nil {
		logger.Fatal("Failed to initialize override store", zap.Error(err))
	}
	defer st.Close()

	registry := settings.NewRegistry(logger)
	subjectCache := cache.New(st, logger)
	svc := settings.NewService(registry, subjectCache, st, logger)

	if path := config.Definitions.Path; path != "" {
		if config.Definitions.Watch {
			watcher, err := cfg.NewDefinitionWatcher(path, registry, logger)
			if err != nil {
				logger.Fatal("Failed to watch definitions", zap.Error(err))
			}
			if err := watcher.Start(); err != nil {
				logger.Fatal("Failed to load definitions", zap.Error(err))
			}
			defer watcher.Stop()
		} else {
			defs, err := cfg.LoadDefinitions(path)
			if err != nil {
				logger.Fatal("Failed to load definitions", zap.Error(err))
			}
			for _, def := range defs {
				registry.Register(def)
			}
			logger.Info("Loaded setting definitions", zap.Int("count", len(defs)))
		}
	}

	handler := server.NewSettingsHandler(svc, logger)
	srv := server.New(config.Server.Addr, handler, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Shutdown incomplete", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zapCfg.Level = lvl
	}
	return zapCfg.Build()
}

func newStore(config *cfg.Config, logger *zap.Logger) (store.Store, error) {
	switch config.Storage.Driver {
	case "postgres":
		pg := config.Storage.Postgres
		return store.NewPostgres(&store.PostgresConfig{
			Host:            pg.Host,
			Port:            pg.Port,
			User:            pg.User,
			Password:        pg.Password,
			Database:        pg.Database,
			SSLMode:         pg.SSLMode,
			MaxConnections:  pg.MaxConnections,
			IdleConnections: pg.IdleConnections,
			MaxLifetime:     pg.MaxLifetime,
		}, logger)
	case "redis":
		rd := config.Storage.Redis
		return store.NewRedis(&store.RedisConfig{
			Addr:     rd.Addr,
			Password: rd.Password,
			DB:       rd.DB,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}
}

// Package persistence selects and opens the configured record.Repository.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/student-records/config"
	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/collection"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/snapshot"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/sqlite"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/textfile"
	"github.com/alem-hub/student-records/pkg/logger"
)

// Open builds the backend named by cfg.Repository.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (record.Repository, error) {
	if log == nil {
		log = logger.Nop()
	}

	start := time.Now()
	kind := cfg.Backend()
	paths := collection.Paths{
		Students:    cfg.Files.Students,
		Disciplines: cfg.Files.Disciplines,
		Grades:      cfg.Files.Grades,
	}

	var (
		repo record.Repository
		err  error
	)

	switch kind {
	case config.BackendMemory:
		repo = memory.NewRepository()

	case config.BackendText:
		repo, err = textfile.Open(textfile.Options{Paths: paths, AtomicWrites: cfg.AtomicWrites, Logger: log})

	case config.BackendSnapshot:
		repo, err = snapshot.Open(snapshot.Options{Paths: paths, AtomicWrites: cfg.AtomicWrites, Logger: log})

	case config.BackendSQLite:
		repo, err = sqlite.Open(ctx, cfg.SQLite.Path, log)

	case config.BackendPostgres:
		pg := postgres.DefaultConfig()
		pg.URL = cfg.Postgres.URL
		pg.Schema = cfg.Postgres.Schema
		if cfg.Postgres.ConnectAttempts > 0 {
			pg.ConnectAttempts = cfg.Postgres.ConnectAttempts
		}
		repo, err = postgres.Open(ctx, pg, log)

	case config.BackendRedis:
		rc := redis.DefaultConfig()
		rc.Addr = cfg.Redis.Addr
		rc.Password = cfg.Redis.Password
		rc.DB = cfg.Redis.DB
		if cfg.Redis.Prefix != "" {
			rc.Prefix = cfg.Redis.Prefix
		}
		repo, err = redis.Open(ctx, rc, log)

	default:
		return nil, fmt.Errorf("unknown repository %q", cfg.Repository)
	}

	if err != nil {
		return nil, fmt.Errorf("open %s repository: %w", kind, err)
	}

	log.Info("repository opened", logger.Backend(kind), logger.Latency(time.Since(start)))
	return repo, nil
}

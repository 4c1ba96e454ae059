// Package main - точка входа консольного приложения учёта студентов.
//
// Приложение хранит студентов, дисциплины и оценки в выбранном хранилище
// (память, текстовые файлы, снимки, SQLite, PostgreSQL, Redis) и умеет
// отменять и повторять каждое изменение.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alem-hub/student-records/config"
	"github.com/alem-hub/student-records/internal/application/records"
	"github.com/alem-hub/student-records/internal/application/undo"
	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence"
	"github.com/alem-hub/student-records/internal/interface/console"
	"github.com/alem-hub/student-records/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION
// ══════════════════════════════════════════════════════════════════════════════

// app holds everything a command needs.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	repo    record.Repository
	svc     *records.Service
	console *console.Console
}

// newApp loads configuration, opens the repository and wires the service.
func newApp(ctx context.Context, configPath string, in io.Reader, out, errOut io.Writer) (*app, error) {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	level := logger.ParseLevel(cfg.Log.Level)
	opts := logger.DefaultOptions()
	opts.Output = errOut
	opts.Level = level
	opts.AddCaller = level == logger.LevelDebug
	log := logger.New(opts)
	log.Debug("configuration loaded",
		logger.Path(configPath),
		logger.Backend(cfg.Backend()),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩЕ
	// ─────────────────────────────────────────────────────────────────────────
	repo, err := persistence.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. СЕРВИСЫ
	// ─────────────────────────────────────────────────────────────────────────
	history := undo.NewService(undo.WithMaxDepth(cfg.History.MaxDepth))
	svc := records.NewService(repo, history, log)

	return &app{
		cfg:     cfg,
		log:     log,
		repo:    repo,
		svc:     svc,
		console: console.New(svc, in, out, log),
	}, nil
}

// seed fills empty collections with sample data.
func (a *app) seed(ctx context.Context) error {
	gen := records.NewGenerator(a.svc, nil)
	err := gen.Seed(ctx, records.SeedCounts{
		Students:    a.cfg.Seed.Students,
		Disciplines: a.cfg.Seed.Disciplines,
		Grades:      a.cfg.Seed.Grades,
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	a.log.Debug("sample data ready")
	return nil
}

func (a *app) Close() {
	if err := a.repo.Close(); err != nil {
		a.log.Warn("failed to close repository", logger.Err(err))
	}
}

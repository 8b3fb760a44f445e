package migration

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/deltamig/deltamig/internal/config"
	"github.com/deltamig/deltamig/internal/driver"
	"github.com/deltamig/deltamig/internal/lock"
	"github.com/deltamig/deltamig/internal/schema"
)

type ExecutionContext struct {
	Store    schema.Store
	Locker   lock.Locker
	Session  *driver.Session // nil unless the backend is scylla
	Config   *config.Config
	Logger   zerolog.Logger
	DryRun   bool
	hostname string
}

// NewExecutionContext opens the configured version log and makes sure its
// tables exist.
func NewExecutionContext(cfg *config.Config, logger zerolog.Logger) (*ExecutionContext, error) {
	ctx := &ExecutionContext{Config: cfg, Logger: logger}

	switch cfg.Backend {
	case config.BackendScylla:
		opts, err := driver.OptionsFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		session, err := driver.Dial(opts, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		ctx.Session = session
		ctx.Store = schema.NewMetadataManager(session, cfg.ReplicationCQL(), logger)
		ctx.Locker = lock.NewLockManager(session, logger)
	case config.BackendSQLite:
		store, err := schema.NewSQLiteStore(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		ctx.Store = store
		ctx.Locker = lock.Noop{}
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}

	if err := ctx.Store.Init(); err != nil {
		_ = ctx.Store.Close()
		return nil, fmt.Errorf("failed to initialize version log: %w", err)
	}

	ctx.hostname = hostname()
	return ctx, nil
}

// NewExecutionContextWithStore wraps an already opened store.
func NewExecutionContextWithStore(store schema.Store, locker lock.Locker, logger zerolog.Logger) *ExecutionContext {
	return &ExecutionContext{
		Store:    store,
		Locker:   locker,
		Logger:   logger,
		hostname: hostname(),
	}
}

func (ctx *ExecutionContext) Close() {
	if err := ctx.Store.Close(); err != nil {
		ctx.Logger.Warn().Err(err).Msg("Failed to close version log")
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

// Recorder writes migrations to the version log as applied without running
// them.
type Recorder struct {
	ctx *ExecutionContext
}

func NewRecorder(ctx *ExecutionContext) *Recorder {
	return &Recorder{ctx: ctx}
}

func (r *Recorder) Record(mig *Migration) error {
	if r.ctx.DryRun {
		r.ctx.Logger.Info().
			Str("version", mig.Version()).
			Str("class", mig.ClassName).
			Str("file", mig.FilePath).
			Msg("[DRY RUN] Would record version")
		return nil
	}

	rec := schema.VersionRecord{
		Version:       mig.Version(),
		MigrationName: mig.ClassName,
	}
	if err := r.ctx.Store.Record(rec, r.ctx.hostname); err != nil {
		return fmt.Errorf("failed to record %s: %w", mig.Filename, err)
	}

	r.ctx.Logger.Info().
		Str("version", mig.Version()).
		Str("class", mig.ClassName).
		Msg("Version recorded")

	return nil
}

// RecordAll records migrations in the given order and returns how many
// were recorded before the first failure.
func (r *Recorder) RecordAll(migrations []*Migration) (int, error) {
	total := len(migrations)
	for i, mig := range migrations {
		r.ctx.Logger.Debug().
			Int("current", i+1).
			Int("total", total).
			Str("version", mig.Version()).
			Msg("Processing migration")

		if err := r.Record(mig); err != nil {
			return i, err
		}
	}
	return total, nil
}

// Package migrate exposes deltaset migration planning and the version log
// as a Go library.
//
// Example usage:
//
//	m, err := migrate.New(
//	    migrate.WithMigrationPaths("./db/migrations"),
//	    migrate.WithSQLitePath("./deltamig.db"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	plan, err := m.Plan()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, path := range plan {
//	    runMigration(path)
//	}
//	if _, err := m.Mark(""); err != nil {
//	    log.Fatal(err)
//	}
package migrate

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/deltamig/deltamig/internal/config"
	"github.com/deltamig/deltamig/internal/migration"
	"github.com/deltamig/deltamig/internal/version"
)

// Planner orders migration files without touching a version log.
type Planner struct {
	scanner *migration.Scanner
	config  *config.Config
	logger  zerolog.Logger
}

func NewPlanner(opts ...Option) (*Planner, error) {
	s := newSettings(opts)
	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return newPlanner(s), nil
}

func newPlanner(s *settings) *Planner {
	return &Planner{
		scanner: migration.NewScanner(s.fs, s.logger),
		config:  s.cfg,
		logger:  s.logger,
	}
}

func (p *Planner) resolver() (*migration.Resolver, error) {
	roots, err := p.scanner.GlobAll(p.config.MigrationPaths)
	if err != nil {
		return nil, err
	}
	scanned, err := p.scanner.ScanMigrations(roots...)
	if err != nil {
		return nil, err
	}
	return migration.NewResolver(scanned), nil
}

// Plan returns the migration file paths in execution order.
func (p *Planner) Plan() ([]string, error) {
	r, err := p.resolver()
	if err != nil {
		return nil, err
	}

	ordered := r.Ordered()
	paths := make([]string, 0, len(ordered))
	for _, mig := range ordered {
		paths = append(paths, mig.FilePath)
	}
	return paths, nil
}

// Versions returns the composite versions in execution order.
func (p *Planner) Versions() ([]string, error) {
	r, err := p.resolver()
	if err != nil {
		return nil, err
	}

	ordered := r.Ordered()
	versions := make([]string, 0, len(ordered))
	for _, mig := range ordered {
		versions = append(versions, mig.Version())
	}
	return versions, nil
}

// Migrator is a Planner backed by a version log.
type Migrator struct {
	*Planner
	ctx *migration.ExecutionContext
}

func New(opts ...Option) (*Migrator, error) {
	s := newSettings(opts)

	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := s.cfg.ValidateBackend(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, err := migration.NewExecutionContext(s.cfg, s.logger)
	if err != nil {
		return nil, err
	}

	return &Migrator{
		Planner: newPlanner(s),
		ctx:     ctx,
	}, nil
}

// Status returns how many versions are recorded and how many files are
// still pending.
func (m *Migrator) Status() (int, int, error) {
	r, err := m.resolver()
	if err != nil {
		return 0, 0, err
	}

	applied, err := m.ctx.Store.AppliedVersions()
	if err != nil {
		return 0, 0, err
	}

	return len(applied), len(r.Pending(applied)), nil
}

// Mark records pending migrations as applied, up to and including target
// when it is not empty, and returns how many were recorded.
func (m *Migrator) Mark(target string) (int, error) {
	var targetKey version.Key
	if target != "" {
		var err error
		if targetKey, err = version.ParseKey(target); err != nil {
			return 0, fmt.Errorf("invalid target: %w", err)
		}
	}

	if err := m.ctx.Locker.Acquire(m.config.LockTimeout); err != nil {
		return 0, fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() {
		if err := m.ctx.Locker.Release(); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to release version log lock")
		}
	}()

	r, err := m.resolver()
	if err != nil {
		return 0, err
	}

	applied, err := m.ctx.Store.AppliedVersions()
	if err != nil {
		return 0, err
	}

	pending := r.Pending(applied)
	if target != "" {
		pending = r.FilterUpToTarget(pending, targetKey)
	}

	if len(pending) == 0 {
		m.logger.Info().Msg("Version log is up to date")
		return 0, nil
	}

	return migration.NewRecorder(m.ctx).RecordAll(pending)
}

func (m *Migrator) Close() error {
	m.ctx.Close()
	return nil
}

package migrate

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/deltamig/deltamig/internal/config"
)

type settings struct {
	cfg    *config.Config
	fs     afero.Fs
	logger zerolog.Logger
}

type Option func(*settings)

// WithMigrationPaths sets the migration roots. Glob and {a,b} patterns are
// expanded.
func WithMigrationPaths(paths ...string) Option {
	return func(s *settings) {
		s.cfg.MigrationPaths = paths
	}
}

// WithFs replaces the OS filesystem the migration roots are read from.
func WithFs(fs afero.Fs) Option {
	return func(s *settings) {
		s.fs = fs
	}
}

func WithBackend(backend string) Option {
	return func(s *settings) {
		s.cfg.Backend = backend
	}
}

func WithSQLitePath(path string) Option {
	return func(s *settings) {
		s.cfg.Backend = config.BackendSQLite
		s.cfg.SQLitePath = path
	}
}

func WithHosts(hosts ...string) Option {
	return func(s *settings) {
		s.cfg.Hosts = hosts
	}
}

func WithKeyspace(keyspace string) Option {
	return func(s *settings) {
		s.cfg.Keyspace = keyspace
	}
}

func WithAuth(username, password string) Option {
	return func(s *settings) {
		s.cfg.Username = username
		s.cfg.Password = password
	}
}

func WithConsistency(level string) Option {
	return func(s *settings) {
		s.cfg.Consistency = level
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		s.cfg.Timeout = timeout
	}
}

func WithSSL(caCert, clientCert, clientKey string) Option {
	return func(s *settings) {
		s.cfg.SSL.Enabled = true
		s.cfg.SSL.CACert = caCert
		s.cfg.SSL.ClientCert = clientCert
		s.cfg.SSL.ClientKey = clientKey
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{
		cfg: config.Default(),
		fs:  afero.NewOsFs(),
		logger: zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		}).Level(zerolog.InfoLevel).With().Timestamp().Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Package driver connects to the Scylla/Cassandra cluster that holds the
// version log.
package driver

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog"

	"github.com/deltamig/deltamig/internal/config"
)

// Options are the connection settings of the version log cluster.
type Options struct {
	Hosts           []string
	Keyspace        string
	Consistency     gocql.Consistency
	Timeout         time.Duration
	ConnectTimeout  time.Duration
	SchemaTimeout   time.Duration
	ProtocolVersion int
	Retries         int
	Username        string
	Password        string
	SSL             *config.SSLConfig // nil when TLS is off
}

func OptionsFromConfig(cfg *config.Config) (Options, error) {
	consistency, err := cfg.GetConsistency()
	if err != nil {
		return Options{}, err
	}

	opts := Options{
		Hosts:           cfg.Hosts,
		Keyspace:        cfg.Keyspace,
		Consistency:     consistency,
		Timeout:         cfg.Timeout,
		ConnectTimeout:  cfg.ConnectionTimeout,
		SchemaTimeout:   cfg.SchemaAgreementTimeout,
		ProtocolVersion: cfg.ProtocolVersion,
		Retries:         cfg.MaxRetries,
		Username:        cfg.Username,
		Password:        cfg.Password,
	}
	if cfg.SSL.Enabled {
		ssl := cfg.SSL
		opts.SSL = &ssl
	}
	return opts, nil
}

func (o Options) cluster() (*gocql.ClusterConfig, error) {
	cluster := gocql.NewCluster(o.Hosts...)
	cluster.Consistency = o.Consistency
	cluster.Timeout = o.Timeout
	cluster.ConnectTimeout = o.ConnectTimeout
	cluster.ProtoVersion = o.ProtocolVersion
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		NumRetries: o.Retries,
		Min:        500 * time.Millisecond,
		Max:        5 * time.Second,
	}
	// The lock row is written with lightweight transactions.
	cluster.SerialConsistency = gocql.Serial

	if o.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: o.Username,
			Password: o.Password,
		}
	}

	if o.SSL != nil {
		tlsConfig, err := tlsConfigFor(*o.SSL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
		cluster.SslOpts = &gocql.SslOptions{Config: tlsConfig}
	}

	return cluster, nil
}

// Session is a gocql session bound to the version log keyspace.
type Session struct {
	session *gocql.Session
	opts    Options
	Logger  zerolog.Logger
}

func Dial(opts Options, logger zerolog.Logger) (*Session, error) {
	cluster, err := opts.cluster()
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Strs("hosts", opts.Hosts).
		Str("keyspace", opts.Keyspace).
		Msg("Connecting to version log cluster")

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cluster: %w", err)
	}

	logger.Info().Strs("hosts", opts.Hosts).Msg("Connected to version log cluster")
	return &Session{session: session, opts: opts, Logger: logger}, nil
}

func (s *Session) Keyspace() string {
	return s.opts.Keyspace
}

// Table qualifies name with the version log keyspace.
func (s *Session) Table(name string) string {
	return s.opts.Keyspace + "." + name
}

func (s *Session) Close() {
	if s.session != nil && !s.session.Closed() {
		s.session.Close()
	}
}

func (s *Session) Exec(stmt string, args ...interface{}) error {
	s.Logger.Debug().Str("cql", stmt).Msg("Executing statement")
	return s.session.Query(stmt, args...).Exec()
}

func (s *Session) Query(stmt string, args ...interface{}) *gocql.Query {
	return s.session.Query(stmt, args...)
}

// CAS runs a lightweight transaction. When it is not applied, current holds
// the row that blocked it.
func (s *Session) CAS(stmt string, args ...interface{}) (applied bool, current map[string]interface{}, err error) {
	current = make(map[string]interface{})
	applied, err = s.session.Query(stmt, args...).MapScanCAS(current)
	return applied, current, err
}

// AwaitSchema blocks until every node reports the same schema version or
// the configured schema agreement timeout passes.
func (s *Session) AwaitSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SchemaTimeout)
	defer cancel()

	if err := s.session.AwaitSchemaAgreement(ctx); err != nil {
		return fmt.Errorf("schema agreement not reached within %s: %w", s.opts.SchemaTimeout, err)
	}
	return nil
}

type ClusterInfo struct {
	Name          string
	SchemaVersion string
}

// Info reads the cluster name and schema version of the coordinator.
func (s *Session) Info() (*ClusterInfo, error) {
	var info ClusterInfo
	var schemaVersion gocql.UUID
	err := s.session.Query(`SELECT cluster_name, schema_version FROM system.local WHERE key = 'local'`).
		Scan(&info.Name, &schemaVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to read system.local: %w", err)
	}
	info.SchemaVersion = schemaVersion.String()
	return &info, nil
}

func tlsConfigFor(ssl config.SSLConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: ssl.SkipVerify}

	if ssl.CACert != "" {
		pem, err := os.ReadFile(ssl.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", ssl.CACert)
		}
		tlsConfig.RootCAs = pool
	}

	if ssl.ClientCert != "" && ssl.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(ssl.ClientCert, ssl.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert/key: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

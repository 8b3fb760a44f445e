package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/gocql/gocql"
	"github.com/spf13/viper"
)

const (
	BackendScylla = "scylla"
	BackendSQLite = "sqlite"
)

var validIdentifier = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

type Config struct {
	MigrationPaths         []string          `mapstructure:"migration_paths" yaml:"migration_paths"`
	SeedPaths              []string          `mapstructure:"seed_paths" yaml:"seed_paths"`
	Backend                string            `mapstructure:"backend" yaml:"backend"`
	SQLitePath             string            `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	Hosts                  []string          `mapstructure:"hosts" yaml:"hosts"`
	Keyspace               string            `mapstructure:"keyspace" yaml:"keyspace"`
	Username               string            `mapstructure:"username" yaml:"username"`
	Password               string            `mapstructure:"password" yaml:"password"`
	SSL                    SSLConfig         `mapstructure:"ssl" yaml:"ssl"`
	Consistency            string            `mapstructure:"consistency" yaml:"consistency"`
	Timeout                time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	ConnectionTimeout      time.Duration     `mapstructure:"connection_timeout" yaml:"connection_timeout"`
	LockTimeout            time.Duration     `mapstructure:"lock_timeout" yaml:"lock_timeout"`
	SchemaAgreementTimeout time.Duration     `mapstructure:"schema_agreement_timeout" yaml:"schema_agreement_timeout"`
	Replication            ReplicationConfig `mapstructure:"replication" yaml:"replication"`
	MaxRetries             int               `mapstructure:"max_retries" yaml:"max_retries"`
	ProtocolVersion        int               `mapstructure:"protocol_version" yaml:"protocol_version"`
}

type SSLConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	CACert     string `mapstructure:"ca_cert" yaml:"ca_cert"`
	ClientCert string `mapstructure:"client_cert" yaml:"client_cert"`
	ClientKey  string `mapstructure:"client_key" yaml:"client_key"`
	SkipVerify bool   `mapstructure:"skip_verify" yaml:"skip_verify"`
}

type ReplicationConfig struct {
	Class             string         `mapstructure:"class" yaml:"class"`
	ReplicationFactor int            `mapstructure:"replication_factor" yaml:"replication_factor"`
	Datacenters       map[string]int `mapstructure:"datacenters" yaml:"datacenters"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		MigrationPaths:         []string{"./migrations"},
		SeedPaths:              []string{"./seeds"},
		Backend:                BackendSQLite,
		SQLitePath:             "./deltamig.db",
		Hosts:                  []string{"localhost:9042"},
		Keyspace:               "deltamig",
		Consistency:            "quorum",
		Timeout:                30 * time.Second,
		ConnectionTimeout:      10 * time.Second,
		LockTimeout:            60 * time.Second,
		SchemaAgreementTimeout: 30 * time.Second,
		Replication: ReplicationConfig{
			Class:             "SimpleStrategy",
			ReplicationFactor: 1,
		},
		MaxRetries:      3,
		ProtocolVersion: 4,
	}
}

func Load() (*Config, error) {
	cfg := Default()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with CLI flags if set
	if paths := viper.GetStringSlice("migration_paths"); len(paths) > 0 {
		cfg.MigrationPaths = paths
	}
	if b := viper.GetString("backend"); b != "" {
		cfg.Backend = b
	}
	if p := viper.GetString("sqlite_path"); p != "" {
		cfg.SQLitePath = p
	}
	if hosts := viper.GetStringSlice("hosts"); len(hosts) > 0 {
		cfg.Hosts = hosts
	}
	if ks := viper.GetString("keyspace"); ks != "" {
		cfg.Keyspace = ks
	}
	if u := viper.GetString("username"); u != "" {
		cfg.Username = u
	}
	if p := viper.GetString("password"); p != "" {
		cfg.Password = p
	}

	return cfg, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if len(c.MigrationPaths) == 0 {
		return fmt.Errorf("at least one migration path must be specified")
	}
	for _, p := range c.MigrationPaths {
		if p == "" {
			return fmt.Errorf("migration_paths must not contain empty entries")
		}
	}

	switch c.Backend {
	case BackendScylla, BackendSQLite:
	default:
		return fmt.Errorf("unsupported backend %q (must be %s or %s)", c.Backend, BackendScylla, BackendSQLite)
	}

	return nil
}

// ValidateBackend checks the connection settings of the configured version
// log backend.
func (c *Config) ValidateBackend() error {
	if c.Backend == BackendSQLite {
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path must be specified for the sqlite backend")
		}
		return nil
	}

	if len(c.Hosts) == 0 {
		return fmt.Errorf("at least one host must be specified")
	}

	if c.Keyspace == "" {
		return fmt.Errorf("keyspace must be specified")
	}
	if !validIdentifier.MatchString(c.Keyspace) {
		return fmt.Errorf("keyspace name %q contains invalid characters (must be alphanumeric/underscore, starting with a letter)", c.Keyspace)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.LockTimeout <= 0 {
		return fmt.Errorf("lock_timeout must be positive")
	}

	if c.SchemaAgreementTimeout <= 0 {
		return fmt.Errorf("schema_agreement_timeout must be positive")
	}

	if c.ProtocolVersion < 1 || c.ProtocolVersion > 5 {
		return fmt.Errorf("protocol_version must be between 1 and 5")
	}

	if _, err := c.GetConsistency(); err != nil {
		return err
	}

	if c.SSL.Enabled {
		if c.SSL.CACert == "" {
			return fmt.Errorf("ssl.ca_cert must be specified when SSL is enabled")
		}
		// Client cert and key must both be present or both absent
		if (c.SSL.ClientCert != "") != (c.SSL.ClientKey != "") {
			return fmt.Errorf("ssl.client_cert and ssl.client_key must both be specified or both omitted")
		}
	}

	return nil
}

func (c *Config) GetConsistency() (gocql.Consistency, error) {
	switch c.Consistency {
	case "any":
		return gocql.Any, nil
	case "one":
		return gocql.One, nil
	case "two":
		return gocql.Two, nil
	case "three":
		return gocql.Three, nil
	case "quorum":
		return gocql.Quorum, nil
	case "all":
		return gocql.All, nil
	case "local_quorum":
		return gocql.LocalQuorum, nil
	case "each_quorum":
		return gocql.EachQuorum, nil
	case "local_one":
		return gocql.LocalOne, nil
	default:
		return 0, fmt.Errorf("unsupported consistency level: %s", c.Consistency)
	}
}

func (c *Config) ReplicationCQL() string {
	if c.Replication.Class == "NetworkTopologyStrategy" && len(c.Replication.Datacenters) > 0 {
		cql := "{'class': 'NetworkTopologyStrategy'"
		for dc, rf := range c.Replication.Datacenters {
			cql += fmt.Sprintf(", '%s': %d", dc, rf)
		}
		cql += "}"
		return cql
	}

	rf := c.Replication.ReplicationFactor
	if rf <= 0 {
		rf = 1
	}
	return fmt.Sprintf("{'class': 'SimpleStrategy', 'replication_factor': %d}", rf)
}

// PrimaryMigrationPath is where new migrations are created.
func (c *Config) PrimaryMigrationPath() string {
	return c.MigrationPaths[0]
}

func (c *Config) PrimarySeedPath() string {
	if len(c.SeedPaths) == 0 {
		return "./seeds"
	}
	return c.SeedPaths[0]
}

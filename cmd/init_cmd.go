package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/deltamig/deltamig/internal/version"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a deltamig project",
	Long:  "Create a configuration file and the directory tree of the first deltaset.",
	RunE: func(cmd *cobra.Command, args []string) error {
		initLogger()

		migrationsDir := "./migrations"
		deltasetDir := filepath.Join(migrationsDir, "1")

		for _, phase := range []version.Phase{version.PhasePre, version.PhasePeri, version.PhasePost} {
			dir := filepath.Join(deltasetDir, string(phase))
			if err := fs.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
		log.Info().Str("path", deltasetDir).Msg("Created deltaset directories")

		if err := fs.MkdirAll("./seeds", 0755); err != nil {
			return fmt.Errorf("failed to create seeds directory: %w", err)
		}

		configPath := "./deltamig.yaml"
		exists, err := afero.Exists(fs, configPath)
		if err != nil {
			return fmt.Errorf("failed to check config file: %w", err)
		}
		if exists {
			log.Warn().Str("path", configPath).Msg("Config file already exists, skipping")
		} else {
			if err := afero.WriteFile(fs, configPath, []byte(configTemplate), 0644); err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}
			log.Info().Str("path", configPath).Msg("Created config file")
		}

		fmt.Println("\nInitialization complete! Next steps:")
		fmt.Println("  1. Edit deltamig.yaml if the version log should live in ScyllaDB")
		fmt.Println("  2. Create a migration:  deltamig create CreateUserTable --phase pre")
		fmt.Println("  3. Check the plan:      deltamig list")
		fmt.Println("  4. Record it as run:    deltamig mark")

		return nil
	},
}

const configTemplate = `# deltamig configuration

# Migration roots. Each root holds one directory per deltaset (1, 1.2, 2.0.1, ...)
# with optional pre/ and post/ phase directories. Glob and {a,b} patterns are allowed.
migration_paths:
  - "./migrations"

seed_paths:
  - "./seeds"

# Where the version log is kept: sqlite or scylla
backend: "sqlite"

sqlite_path: "./deltamig.db"

# ScyllaDB / Cassandra settings, used when backend is scylla
hosts:
  - "localhost:9042"

# Keyspace holding the version log and its lock table
keyspace: "deltamig"

# Authentication (optional)
username: ""
password: ""

# SSL/TLS configuration (optional)
ssl:
  enabled: false
  ca_cert: ""
  client_cert: ""
  client_key: ""
  skip_verify: false

# Options: one, two, three, quorum, all, local_quorum, each_quorum, local_one
consistency: "quorum"

connection_timeout: "10s"
timeout: "30s"

# Lock acquisition timeout for concurrent mark runs
lock_timeout: "60s"

schema_agreement_timeout: "30s"

replication:
  class: "SimpleStrategy"
  replication_factor: 1
  # For production with NetworkTopologyStrategy:
  # class: "NetworkTopologyStrategy"
  # datacenters:
  #   dc1: 3
  #   dc2: 3

max_retries: 3

# CQL native protocol version
protocol_version: 4
`

func init() {
	rootCmd.AddCommand(initCmd)
}

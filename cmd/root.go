package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deltamig/deltamig/internal/config"
	"github.com/deltamig/deltamig/internal/migration"
	"github.com/deltamig/deltamig/internal/version"
)

var (
	cfgFile string
	cfg     *config.Config
	log     zerolog.Logger
	fs      = afero.NewOsFs()

	buildVersion = "dev"
	commit       = "unknown"
	date         = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "deltamig",
	Short: "Deltaset-aware migration planner",
	Long: `deltamig names, validates and orders Phinx-style migration files grouped into
deltasets and phases, and keeps a version log of what has been recorded as applied.

Migration file layout:
  migrations/<deltaset>/<version>_<title>.php         peri phase (default)
  migrations/<deltaset>/pre/<version>_<title>.php     pre phase
  migrations/<deltaset>/post/<version>.sql            post phase

Every file is keyed as deltaset:phase:version, e.g. 1.2:pre:20230101120000.`,
	Version:       buildVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./deltamig.yaml)")
	rootCmd.PersistentFlags().StringSlice("migration-paths", nil, "migration roots, glob and {a,b} patterns allowed (comma-separated)")
	rootCmd.PersistentFlags().String("backend", "", "version log backend (sqlite, scylla)")
	rootCmd.PersistentFlags().String("sqlite-path", "", "SQLite version log file")
	rootCmd.PersistentFlags().StringSlice("hosts", nil, "ScyllaDB hosts (comma-separated)")
	rootCmd.PersistentFlags().String("keyspace", "", "keyspace holding the version log")
	rootCmd.PersistentFlags().String("username", "", "authentication username")
	rootCmd.PersistentFlags().String("password", "", "authentication password")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("migration_paths", rootCmd.PersistentFlags().Lookup("migration-paths"))
	_ = viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("sqlite_path", rootCmd.PersistentFlags().Lookup("sqlite-path"))
	_ = viper.BindPFlag("hosts", rootCmd.PersistentFlags().Lookup("hosts"))
	_ = viper.BindPFlag("keyspace", rootCmd.PersistentFlags().Lookup("keyspace"))
	_ = viper.BindPFlag("username", rootCmd.PersistentFlags().Lookup("username"))
	_ = viper.BindPFlag("password", rootCmd.PersistentFlags().Lookup("password"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.SetVersionTemplate(fmt.Sprintf("deltamig %s (commit: %s, built: %s)\n", buildVersion, commit, date))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("deltamig")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.deltamig")
		viper.AddConfigPath("/etc/deltamig")
	}

	viper.SetEnvPrefix("DELTAMIG")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func initLogger() {
	level := viper.GetString("log_level")
	if level == "" {
		level = "info"
	}

	var l zerolog.Level
	switch level {
	case "debug":
		l = zerolog.DebugLevel
	case "warn":
		l = zerolog.WarnLevel
	case "error":
		l = zerolog.ErrorLevel
	default:
		l = zerolog.InfoLevel
	}

	log = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).Level(l).With().Timestamp().Logger()
}

func loadConfig() error {
	initLogger()

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// loadBackendConfig is loadConfig for commands that open the version log.
func loadBackendConfig() error {
	if err := loadConfig(); err != nil {
		return err
	}
	if err := cfg.ValidateBackend(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func newScanner() *migration.Scanner {
	return migration.NewScanner(fs, log)
}

// scanPlan expands the configured migration paths and returns every
// migration found under them, in ascending composite order.
func scanPlan(scanner *migration.Scanner) (version.VersionMap[*migration.Migration], error) {
	roots, err := scanner.GlobAll(cfg.MigrationPaths)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		log.Warn().Strs("patterns", cfg.MigrationPaths).Msg("No migration directories matched")
		return nil, nil
	}
	return scanner.ScanMigrations(roots...)
}

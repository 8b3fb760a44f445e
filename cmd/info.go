package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deltamig/deltamig/internal/config"
	"github.com/deltamig/deltamig/internal/driver"
	"github.com/deltamig/deltamig/internal/migration"
	"github.com/deltamig/deltamig/internal/schema"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show version log and migration info",
	Long:  "Display the latest file version, the latest applied version, backend details and a configuration summary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadBackendConfig(); err != nil {
			return err
		}

		ctx, err := migration.NewExecutionContext(cfg, log)
		if err != nil {
			return err
		}
		defer ctx.Close()

		var metadata *driver.ClusterInfo
		if ctx.Session != nil {
			metadata, err = ctx.Session.Info()
			if err != nil {
				log.Warn().Err(err).Msg("Failed to get cluster metadata")
			}
		}

		latestApplied := "none"
		applied, err := ctx.Store.AppliedVersions()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read version log")
		} else if v, ok := schema.LatestApplied(applied); ok {
			latestApplied = v
		}

		latestFile := "none"
		scanned, err := scanPlan(newScanner())
		if err != nil {
			log.Warn().Err(err).Msg("Failed to scan migrations")
		} else if mig, ok := migration.NewResolver(scanned).Latest(); ok {
			latestFile = mig.Version()
		}

		fmt.Printf("deltamig %s\n\n", buildVersion)

		fmt.Println("Version log:")
		fmt.Printf("  Backend:        %s\n", cfg.Backend)
		if cfg.Backend == config.BackendSQLite {
			fmt.Printf("  File:           %s\n", cfg.SQLitePath)
		} else {
			if metadata != nil {
				fmt.Printf("  Cluster:        %s\n", metadata.Name)
				fmt.Printf("  Schema Version: %s\n", metadata.SchemaVersion)
			}
			fmt.Printf("  Hosts:          %v\n", cfg.Hosts)
			fmt.Printf("  Keyspace:       %s\n", cfg.Keyspace)
		}

		fmt.Println("\nMigrations:")
		fmt.Printf("  Paths:          %v\n", cfg.MigrationPaths)
		fmt.Printf("  Files:          %d\n", len(scanned))
		fmt.Printf("  Latest file:    %s\n", latestFile)
		fmt.Printf("  Latest applied: %s\n", latestApplied)
		fmt.Printf("  Recorded:       %d\n", len(applied))

		if cfg.Backend == config.BackendScylla {
			fmt.Println("\nSettings:")
			fmt.Printf("  Consistency:    %s\n", cfg.Consistency)
			fmt.Printf("  Timeout:        %s\n", cfg.Timeout)
			fmt.Printf("  Lock Timeout:   %s\n", cfg.LockTimeout)
			fmt.Printf("  Schema Agree:   %s\n", cfg.SchemaAgreementTimeout)
			fmt.Printf("  SSL:            %v\n", cfg.SSL.Enabled)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

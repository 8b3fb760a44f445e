package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deltamig/deltamig/internal/migration"
	"github.com/deltamig/deltamig/internal/version"
)

var markCmd = &cobra.Command{
	Use:   "mark",
	Short: "Record pending migrations as applied",
	Long: `Write every pending migration to the version log, in composite order,
without running it. With --target only versions at or below the target key
are recorded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadBackendConfig(); err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		targetFlag, _ := cmd.Flags().GetString("target")

		var target version.Key
		if targetFlag != "" {
			var err error
			if target, err = version.ParseKey(targetFlag); err != nil {
				return fmt.Errorf("invalid --target: %w", err)
			}
		}

		ctx, err := migration.NewExecutionContext(cfg, log)
		if err != nil {
			return err
		}
		defer ctx.Close()

		ctx.DryRun = dryRun

		// Acquire lock (skip for dry run)
		if !dryRun {
			log.Info().Msg("Acquiring version log lock...")
			if err := ctx.Locker.Acquire(cfg.LockTimeout); err != nil {
				return fmt.Errorf("failed to acquire lock: %w", err)
			}
			defer func() {
				if err := ctx.Locker.Release(); err != nil {
					log.Error().Err(err).Msg("Failed to release lock")
				}
			}()
		}

		scanned, err := scanPlan(newScanner())
		if err != nil {
			return err
		}

		if len(scanned) == 0 {
			log.Info().Strs("paths", cfg.MigrationPaths).Msg("No migration files found")
			return nil
		}

		applied, err := ctx.Store.AppliedVersions()
		if err != nil {
			return fmt.Errorf("failed to get applied versions: %w", err)
		}

		resolver := migration.NewResolver(scanned)
		for _, m := range resolver.MissingFiles(applied) {
			log.Warn().Msg(m)
		}

		pending := resolver.Pending(applied)
		if targetFlag != "" {
			pending = resolver.FilterUpToTarget(pending, target)
		}

		if len(pending) == 0 {
			log.Info().Msg("Version log is up to date, nothing to record")
			return nil
		}

		recorded, err := migration.NewRecorder(ctx).RecordAll(pending)
		if err != nil {
			log.Error().
				Int("recorded", recorded).
				Int("total", len(pending)).
				Err(err).
				Msg("Recording failed")
			return err
		}

		if dryRun {
			log.Info().Int("count", len(pending)).Msg("Dry run complete, version log unchanged")
		} else {
			log.Info().Int("count", recorded).Msg("All pending versions recorded")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(markCmd)
	markCmd.Flags().Bool("dry-run", false, "show what would be recorded without writing")
	markCmd.Flags().String("target", "", "highest version to record (e.g. 1.2:post:20230101120000)")
}

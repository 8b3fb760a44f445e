package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deltamig/deltamig/internal/migration"
	"github.com/deltamig/deltamig/internal/schema"
	"github.com/deltamig/deltamig/internal/version"
)

var unmarkCmd = &cobra.Command{
	Use:   "unmark",
	Short: "Remove versions from the version log",
	Long: `Remove the most recently ordered versions from the version log, newest
first. Either --steps versions are removed or every version above --to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadBackendConfig(); err != nil {
			return err
		}

		to, _ := cmd.Flags().GetString("to")
		steps, _ := cmd.Flags().GetInt("steps")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		yes, _ := cmd.Flags().GetBool("yes")

		ctx, err := migration.NewExecutionContext(cfg, log)
		if err != nil {
			return err
		}
		defer ctx.Close()

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

		applied, err := ctx.Store.AppliedVersions()
		if err != nil {
			return fmt.Errorf("failed to get applied versions: %w", err)
		}

		toRemove, err := selectForRemoval(applied, to, steps)
		if err != nil {
			return err
		}

		if len(toRemove) == 0 {
			log.Info().Msg("No versions to remove")
			return nil
		}

		if dryRun {
			for _, a := range toRemove {
				log.Info().Str("version", a.Version).Str("class", a.MigrationName).Msg("[DRY RUN] Would remove version")
			}
			log.Info().Int("count", len(toRemove)).Msg("Dry run complete, version log unchanged")
			return nil
		}

		if !yes {
			fmt.Printf("\nAbout to remove %d version(s) from the version log:\n", len(toRemove))
			for _, a := range toRemove {
				fmt.Printf("  %s: %s\n", a.Version, a.MigrationName)
			}
			fmt.Print("\nContinue? [y/N]: ")

			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				log.Info().Msg("Unmark cancelled")
				return nil
			}
		}

		for _, a := range toRemove {
			if err := ctx.Store.Remove(a.Version); err != nil {
				return err
			}
			log.Info().Str("version", a.Version).Msg("Version removed")
		}

		log.Info().Int("count", len(toRemove)).Msg("Unmark completed")
		return nil
	},
}

// selectForRemoval picks applied versions newest first: everything above
// to when it is set, otherwise the last steps entries.
func selectForRemoval(applied []schema.AppliedVersion, to string, steps int) ([]schema.AppliedVersion, error) {
	var vm version.VersionMap[schema.AppliedVersion]
	for _, a := range applied {
		if err := vm.Add(a.Version, a); err != nil {
			log.Warn().Str("version", a.Version).Msg("Skipping malformed version in version log")
		}
	}
	newest := vm.RSort().Values()

	if to != "" {
		target, err := version.ParseKey(to)
		if err != nil {
			return nil, fmt.Errorf("invalid --to: %w", err)
		}
		var out []schema.AppliedVersion
		for _, e := range vm {
			if e.Key.Compare(target) > 0 {
				out = append(out, e.Value)
			}
		}
		return out, nil
	}

	if steps <= 0 {
		steps = 1
	}
	if steps > len(newest) {
		steps = len(newest)
	}
	return newest[:steps], nil
}

func init() {
	rootCmd.AddCommand(unmarkCmd)
	unmarkCmd.Flags().String("to", "", "keep versions at or below this key and remove the rest")
	unmarkCmd.Flags().Int("steps", 1, "number of versions to remove")
	unmarkCmd.Flags().Bool("dry-run", false, "show what would be removed without writing")
	unmarkCmd.Flags().Bool("yes", false, "skip the confirmation prompt")
}

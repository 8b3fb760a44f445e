package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate migration file layout",
	Long: `Walk every migration path and report files that do not follow the
<deltaset>/[pre|post/]<version>_<title>.php layout, then check that no two
files share a composite version.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}

		scanner := newScanner()
		roots, err := scanner.GlobAll(cfg.MigrationPaths)
		if err != nil {
			return err
		}

		invalid, err := scanner.InvalidMigrationFiles(roots...)
		if err != nil {
			return err
		}

		if len(invalid) > 0 {
			log.Error().Msg("Validation failed:")
			for _, path := range invalid {
				log.Error().Str("file", path).Msg("  invalid migration path")
			}
			return fmt.Errorf("found %d invalid migration file(s)", len(invalid))
		}

		migrations, err := scanner.ScanMigrations(roots...)
		if err != nil {
			return err
		}

		log.Info().Int("checked", len(migrations)).Msg("All migration files are valid")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

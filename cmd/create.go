package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/deltamig/deltamig/internal/migration"
	"github.com/deltamig/deltamig/internal/version"
)

var createCmd = &cobra.Command{
	Use:   "create <ClassName>",
	Short: "Create a new migration or seed file",
	Long: `Generate a migration file named <timestamp>_<snake_case_title>.php in the given
deltaset and phase, or a seed file with --seed.

The class name must be CamelCase (e.g. CreateUserTable) and unique within
the target directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}

		className := args[0]
		deltaset, _ := cmd.Flags().GetString("deltaset")
		phase, _ := cmd.Flags().GetString("phase")
		sqlFile, _ := cmd.Flags().GetBool("sql")
		seed, _ := cmd.Flags().GetBool("seed")

		if !migration.IsValidClassName(className) {
			return fmt.Errorf("the migration class name %q is invalid, use CamelCase (e.g. CreateUserTable)", className)
		}

		scanner := newScanner()

		if seed {
			return createSeed(className, cfg.PrimarySeedPath())
		}

		if !version.IsPhase(phase) {
			return fmt.Errorf("unknown phase %q (must be pre, peri or post)", phase)
		}

		dir := filepath.Join(cfg.PrimaryMigrationPath(), deltaset)
		if version.Phase(phase) != version.DefaultPhase {
			dir = filepath.Join(dir, phase)
		}

		if !scanner.IsUniqueMigrationClassName(className, dir) {
			return fmt.Errorf("the migration class name %q already exists in %s", className, dir)
		}

		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create migrations directory: %w", err)
		}

		now := time.Now()
		fileName := migration.ClassNameToFileName(className, now)
		content := fmt.Sprintf(phpTemplate, className, now.Format("2006-01-02 15:04:05"))
		if sqlFile {
			fileName = migration.Timestamp(now) + ".sql"
			content = fmt.Sprintf(sqlTemplate, className, now.Format("2006-01-02 15:04:05"))
		}

		path := filepath.Join(dir, fileName)
		if !migration.IsValidMigrationFilePath(path) {
			return fmt.Errorf("%s does not match the migration path layout, check --deltaset", path)
		}

		exists, err := afero.Exists(fs, path)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", path, err)
		}
		if exists {
			return fmt.Errorf("the file %s already exists", path)
		}

		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}

		log.Info().
			Str("file", path).
			Str("version", migration.VersionFromFilePath(path)).
			Msg("Created migration file")
		return nil
	},
}

func createSeed(className, dir string) error {
	path := filepath.Join(dir, className+".php")
	if !migration.IsValidSeedFileName(filepath.Base(path)) {
		return fmt.Errorf("the seed class name %q is invalid", className)
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	if exists {
		return fmt.Errorf("the seed %s already exists", path)
	}

	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create seeds directory: %w", err)
	}
	content := strings.ReplaceAll(seedTemplate, "$className", className)
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	log.Info().Str("file", path).Msg("Created seed file")
	return nil
}

const phpTemplate = `<?php

use Phinx\Migration\AbstractMigration;

// Created: %[2]s
class %[1]s extends AbstractMigration
{
    public function change()
    {
    }
}
`

const sqlTemplate = `-- Migration: %s
-- Created: %s

`

const seedTemplate = `<?php

use Phinx\Seed\AbstractSeed;

class $className extends AbstractSeed
{
    public function run()
    {
    }
}
`

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().String("deltaset", "1", "deltaset directory the migration belongs to (e.g. 1.2)")
	createCmd.Flags().String("phase", string(version.DefaultPhase), "phase within the deltaset (pre, peri, post)")
	createCmd.Flags().Bool("sql", false, "create a plain .sql migration instead of a PHP class")
	createCmd.Flags().Bool("seed", false, "create a seed class instead of a migration")
}

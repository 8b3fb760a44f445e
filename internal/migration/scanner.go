package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/deltamig/deltamig/internal/version"
)

var ErrDuplicateVersion = errors.New("duplicate migration version")

// existingFilePattern is deliberately looser than the migration grammar and
// unanchored: "x1_foo.php" counts as an existing migration.
var existingFilePattern = regexp.MustCompile(`[0-9]+_[_a-z0-9]*\.php`)

type Scanner struct {
	fs     afero.Fs
	Logger zerolog.Logger
}

func NewScanner(fs afero.Fs, logger zerolog.Logger) *Scanner {
	return &Scanner{fs: fs, Logger: logger}
}

// Fs returns the filesystem the scanner reads from.
func (s *Scanner) Fs() afero.Fs {
	return s.fs
}

// ExistingMigrationClassNames lists the class names of the migration files
// directly under path, in listing order. A missing path yields nothing.
func (s *Scanner) ExistingMigrationClassNames(path string) []string {
	var classNames []string

	if isDir, err := afero.IsDir(s.fs, path); err != nil || !isDir {
		return classNames
	}

	entries, err := afero.ReadDir(s.fs, path)
	if err != nil {
		s.Logger.Debug().Err(err).Str("dir", path).Msg("Failed to list directory")
		return classNames
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".php" || strings.HasPrefix(name, ".") {
			continue
		}
		if existingFilePattern.MatchString(name) {
			classNames = append(classNames, FileNameToClassName(name))
		}
	}

	return classNames
}

// IsUniqueMigrationClassName reports whether no migration directly under
// path already maps to className, regardless of its timestamp.
func (s *Scanner) IsUniqueMigrationClassName(className, path string) bool {
	for _, existing := range s.ExistingMigrationClassNames(path) {
		if existing == className {
			return false
		}
	}
	return true
}

// GlobAll expands every pattern, including {a,b} alternatives, and returns
// the matches in pattern order.
func (s *Scanner) GlobAll(patterns []string) ([]string, error) {
	var result []string
	for _, pattern := range patterns {
		for _, expanded := range expandBraces(pattern) {
			matches, err := afero.Glob(s.fs, expanded)
			if err != nil {
				return nil, fmt.Errorf("invalid path pattern %q: %w", pattern, err)
			}
			result = append(result, matches...)
		}
	}
	return result, nil
}

// ScanMigrations walks each root recursively and returns every valid
// migration file keyed by its composite version, sorted ascending. Two files
// with the same key are an error. Keys that only compare equal, such as
// 1:peri:5 and 1.1:peri:5, are distinct.
func (s *Scanner) ScanMigrations(roots ...string) (version.VersionMap[*Migration], error) {
	var migrations version.VersionMap[*Migration]
	seen := make(map[version.Key]string)

	for _, root := range roots {
		exists, err := afero.DirExists(s.fs, root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat migrations directory %s: %w", root, err)
		}
		if !exists {
			s.Logger.Debug().Str("dir", root).Msg("Migrations directory does not exist, skipping")
			continue
		}

		err = afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}

			// Skip hidden files (.DS_Store, .gitkeep, etc.)
			if strings.HasPrefix(info.Name(), ".") {
				return nil
			}

			if !IsValidMigrationFilePath(path) {
				s.Logger.Debug().Str("file", path).Msg("Skipping file outside the migration grammar")
				return nil
			}

			mig := newMigration(path)
			if other, ok := seen[mig.Key]; ok {
				return fmt.Errorf("%w: %s found in both %s and %s",
					ErrDuplicateVersion, mig.Version(), other, path)
			}
			seen[mig.Key] = path
			migrations = append(migrations, version.Entry[*Migration]{Key: mig.Key, Value: mig})
			return nil
		})
		if errors.Is(err, ErrDuplicateVersion) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan migrations directory %s: %w", root, err)
		}
	}

	return migrations.Sort(), nil
}

// InvalidMigrationFiles walks each root and returns the files that do not
// satisfy the migration path grammar. Hidden files are ignored.
func (s *Scanner) InvalidMigrationFiles(roots ...string) ([]string, error) {
	var invalid []string

	for _, root := range roots {
		exists, err := afero.DirExists(s.fs, root)
		if err != nil || !exists {
			continue
		}

		err = afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
				return nil
			}
			if !IsValidMigrationFilePath(path) {
				invalid = append(invalid, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan migrations directory %s: %w", root, err)
		}
	}

	return invalid, nil
}

// ScanSeeds lists the seed files directly under dir, sorted by name.
func (s *Scanner) ScanSeeds(dir string) ([]*Seed, error) {
	exists, err := afero.DirExists(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat seeds directory %s: %w", dir, err)
	}
	if !exists {
		return nil, nil
	}

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read seeds directory %s: %w", dir, err)
	}

	var seeds []*Seed
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !IsValidSeedFileName(name) {
			continue
		}
		seeds = append(seeds, &Seed{
			ClassName: strings.TrimSuffix(name, filepath.Ext(name)),
			Filename:  name,
			FilePath:  filepath.Join(dir, name),
		})
	}

	sort.Slice(seeds, func(i, j int) bool {
		return seeds[i].Filename < seeds[j].Filename
	})

	return seeds, nil
}

// expandBraces expands the first {a,b,...} group in pattern and recurses on
// the results. Unbalanced braces are left alone.
func expandBraces(pattern string) []string {
	open := strings.IndexByte(pattern, '{')
	if open < 0 {
		return []string{pattern}
	}

	depth := 0
	closing := -1
	var commas []int
	for i := open; i < len(pattern) && closing < 0; i++ {
		switch pattern[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				closing = i
			}
		case ',':
			if depth == 1 {
				commas = append(commas, i)
			}
		}
	}
	if closing < 0 {
		return []string{pattern}
	}

	prefix, suffix := pattern[:open], pattern[closing+1:]

	var alternatives []string
	start := open + 1
	for _, c := range commas {
		alternatives = append(alternatives, pattern[start:c])
		start = c + 1
	}
	alternatives = append(alternatives, pattern[start:closing])

	var result []string
	for _, alt := range alternatives {
		result = append(result, expandBraces(prefix+alt+suffix)...)
	}
	return result
}

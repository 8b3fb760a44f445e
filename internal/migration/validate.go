package migration

import (
	"path/filepath"
	"regexp"

	"github.com/deltamig/deltamig/internal/version"
)

// File and class name grammar.
const (
	DeltasetNamePattern         = `^\d+(?:\.\d){0,3}$`
	MigrationFileVersionPattern = `^\d+(?:\.\d)?`
	MigrationFileNamePattern    = `(?i)^\d+(?:\.\d)?(?:_([\w-]+)\.php|\.sql)$`
	SeedFileNamePattern         = `(?i)^([A-Z][a-z0-9]+)\.php$`
	ClassNamePattern            = `^([A-Z][a-z0-9]+)+$`
)

var (
	deltasetNameRe         = regexp.MustCompile(DeltasetNamePattern)
	migrationFileVersionRe = regexp.MustCompile(MigrationFileVersionPattern)
	migrationFileNameRe    = regexp.MustCompile(MigrationFileNamePattern)
	seedFileNameRe         = regexp.MustCompile(SeedFileNamePattern)
	classNameRe            = regexp.MustCompile(ClassNamePattern)
)

// IsValidMigrationFilePath checks both the file name and the deltaset
// directory holding it, skipping over a pre/peri/post directory if present.
func IsValidMigrationFilePath(filePath string) bool {
	deltaset := deltasetDirName(filePath)

	return deltasetNameRe.MatchString(deltaset) &&
		migrationFileNameRe.MatchString(filepath.Base(filePath))
}

func IsValidSeedFileName(fileName string) bool {
	return seedFileNameRe.MatchString(fileName)
}

// IsValidClassName reports whether className is CamelCase. A single
// capitalized word such as "Foo" passes.
func IsValidClassName(className string) bool {
	return classNameRe.MatchString(className)
}

// PhaseFromFilePath returns the phase named by the file's parent directory,
// or the default phase and false when the parent is not a phase directory.
func PhaseFromFilePath(filePath string) (version.Phase, bool) {
	parent := filepath.Base(filepath.Dir(filePath))
	if version.IsPhase(parent) {
		return version.Phase(parent), true
	}
	return version.DefaultPhase, false
}

// KeyFromFilePath extracts the composite key from a migration path. The
// path should pass IsValidMigrationFilePath first; malformed paths yield
// keys with empty parts.
func KeyFromFilePath(filePath string) version.Key {
	return version.Key{
		Deltaset: deltasetDirName(filePath),
		Phase:    phaseOrDefault(filePath),
		File:     migrationFileVersionRe.FindString(filepath.Base(filePath)),
	}
}

// VersionFromFilePath returns the "deltaset:phase:file" key for a path.
func VersionFromFilePath(filePath string) string {
	return KeyFromFilePath(filePath).String()
}

func phaseOrDefault(filePath string) version.Phase {
	phase, _ := PhaseFromFilePath(filePath)
	return phase
}

func deltasetDirName(filePath string) string {
	dir := filepath.Dir(filePath)
	if _, ok := PhaseFromFilePath(filePath); ok {
		dir = filepath.Dir(dir)
	}
	return filepath.Base(dir)
}

// Package schema keeps the version log: which composite versions have
// been recorded as applied, by whom, and when.
package schema

import (
	"slices"
	"time"

	"github.com/deltamig/deltamig/internal/version"
)

type AppliedVersion struct {
	Version       string
	MigrationName string
	AppliedBy     string
	AppliedAt     time.Time
}

type VersionRecord struct {
	Version       string
	MigrationName string
}

type Store interface {
	// Init creates the version log if it does not exist yet.
	Init() error
	AppliedVersions() ([]AppliedVersion, error)
	Record(rec VersionRecord, hostname string) error
	Remove(version string) error
	Close() error
}

// SortApplied orders applied versions by composite key, ascending.
func SortApplied(applied []AppliedVersion) {
	slices.SortStableFunc(applied, func(a, b AppliedVersion) int {
		return version.CompareVersion(a.Version, b.Version)
	})
}

// LatestApplied returns the greatest applied version. Rows whose version is
// not a well-formed key are ignored.
func LatestApplied(applied []AppliedVersion) (string, bool) {
	var vm version.VersionMap[string]
	for _, a := range applied {
		_ = vm.Add(a.Version, a.Version)
	}
	return vm.Max()
}

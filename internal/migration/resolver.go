package migration

import (
	"fmt"
	"slices"

	"github.com/deltamig/deltamig/internal/schema"
	"github.com/deltamig/deltamig/internal/version"
)

type Resolver struct {
	migrations version.VersionMap[*Migration]
}

func NewResolver(migrations version.VersionMap[*Migration]) *Resolver {
	sorted := slices.Clone(migrations).Sort()
	return &Resolver{migrations: sorted}
}

// Ordered returns all migrations in ascending composite order.
func (r *Resolver) Ordered() []*Migration {
	return r.migrations.Values()
}

// Reversed returns all migrations in descending composite order.
func (r *Resolver) Reversed() []*Migration {
	return slices.Clone(r.migrations).RSort().Values()
}

func (r *Resolver) Latest() (*Migration, bool) {
	return r.migrations.Max()
}

func (r *Resolver) Pending(applied []schema.AppliedVersion) []*Migration {
	appliedSet := make(map[string]struct{}, len(applied))
	for _, a := range applied {
		appliedSet[a.Version] = struct{}{}
	}

	var pending []*Migration
	for _, mig := range r.migrations.Values() {
		if _, ok := appliedSet[mig.Version()]; !ok {
			pending = append(pending, mig)
		}
	}
	return pending
}

// FilterUpToTarget keeps the migrations whose key is at or below target.
func (r *Resolver) FilterUpToTarget(migrations []*Migration, target version.Key) []*Migration {
	var filtered []*Migration
	for _, mig := range migrations {
		if mig.Key.Compare(target) <= 0 {
			filtered = append(filtered, mig)
		}
	}
	return filtered
}

// MissingFiles reports applied versions that no longer have a file.
func (r *Resolver) MissingFiles(applied []schema.AppliedVersion) []string {
	fileMap := make(map[string]*Migration, len(r.migrations))
	for _, mig := range r.migrations.Values() {
		fileMap[mig.Version()] = mig
	}

	var errors []string
	for _, a := range applied {
		if _, exists := fileMap[a.Version]; !exists {
			errors = append(errors, fmt.Sprintf(
				"applied version %s (%s) has no corresponding file",
				a.Version, a.MigrationName,
			))
		}
	}
	return errors
}

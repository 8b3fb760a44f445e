package schema

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/deltamig/deltamig/internal/driver"
)

// MetadataManager is the Scylla/Cassandra version log.
type MetadataManager struct {
	session     *driver.Session
	replication string
	Logger      zerolog.Logger
}

// NewMetadataManager takes the replication map used if the keyspace has to
// be created, e.g. "{'class': 'SimpleStrategy', 'replication_factor': 1}".
func NewMetadataManager(session *driver.Session, replication string, logger zerolog.Logger) *MetadataManager {
	return &MetadataManager{
		session:     session,
		replication: replication,
		Logger:      logger,
	}
}

func (m *MetadataManager) Init() error {
	return InitializeMetadata(m.session, m.replication, m.Logger)
}

func (m *MetadataManager) AppliedVersions() ([]AppliedVersion, error) {
	stmt := fmt.Sprintf(
		`SELECT version, migration_name, applied_by, applied_at FROM %s`,
		m.session.Table("schema_versions"),
	)

	iter := m.session.Query(stmt).Iter()
	var applied []AppliedVersion

	var a AppliedVersion
	for iter.Scan(&a.Version, &a.MigrationName, &a.AppliedBy, &a.AppliedAt) {
		applied = append(applied, a)
		a = AppliedVersion{}
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to query applied versions: %w", err)
	}

	SortApplied(applied)
	return applied, nil
}

func (m *MetadataManager) Record(rec VersionRecord, hostname string) error {
	stmt := fmt.Sprintf(
		`INSERT INTO %s (version, migration_name, applied_by, applied_at) VALUES (?, ?, ?, ?)`,
		m.session.Table("schema_versions"),
	)
	if err := m.session.Exec(stmt, rec.Version, rec.MigrationName, hostname, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record version %s: %w", rec.Version, err)
	}
	return nil
}

func (m *MetadataManager) Remove(version string) error {
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE version = ?`, m.session.Table("schema_versions"))
	if err := m.session.Exec(stmt, version); err != nil {
		return fmt.Errorf("failed to remove version %s: %w", version, err)
	}
	return nil
}

func (m *MetadataManager) Close() error {
	m.session.Close()
	return nil
}

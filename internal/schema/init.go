package schema

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/deltamig/deltamig/internal/driver"
)

// versionLogDDL lists the statements that create the version log. Each is
// formatted with the keyspace-qualified table name.
var versionLogDDL = []struct {
	table string
	stmt  string
}{
	{"schema_versions", `CREATE TABLE IF NOT EXISTS %s (
		version TEXT PRIMARY KEY,
		migration_name TEXT,
		applied_by TEXT,
		applied_at TIMESTAMP
	) WITH comment = 'deltamig: composite versions recorded as applied'`},
	{"schema_lock", `CREATE TABLE IF NOT EXISTS %s (
		lock_id TEXT PRIMARY KEY,
		locked_by TEXT,
		locked_at TIMESTAMP
	) WITH comment = 'deltamig: version log write lock'`},
}

// InitializeMetadata creates the version log keyspace and tables and waits
// for the cluster to agree after each change.
func InitializeMetadata(session *driver.Session, replication string, logger zerolog.Logger) error {
	logger.Debug().
		Str("keyspace", session.Keyspace()).
		Str("replication", replication).
		Msg("Initializing version log keyspace")

	createKS := fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = %s AND durable_writes = true`,
		session.Keyspace(), replication,
	)
	if err := session.Exec(createKS); err != nil {
		return fmt.Errorf("failed to create version log keyspace: %w", err)
	}
	if err := session.AwaitSchema(); err != nil {
		return err
	}

	for _, ddl := range versionLogDDL {
		if err := session.Exec(fmt.Sprintf(ddl.stmt, session.Table(ddl.table))); err != nil {
			return fmt.Errorf("failed to create %s table: %w", ddl.table, err)
		}
		if err := session.AwaitSchema(); err != nil {
			return err
		}
	}

	logger.Info().Str("keyspace", session.Keyspace()).Msg("Version log tables initialized")
	return nil
}

package lock

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deltamig/deltamig/internal/driver"
)

// VersionLogLockID names the single row in schema_lock that guards writes
// to the version log.
const VersionLogLockID = "deltamig:version_log"

var ErrLockTimeout = errors.New("version log lock not acquired")

// Locker serializes writes to the version log across processes.
type Locker interface {
	Acquire(timeout time.Duration) error
	Release() error
}

// Noop is used by backends that serialize writes themselves.
type Noop struct{}

func (Noop) Acquire(time.Duration) error { return nil }
func (Noop) Release() error              { return nil }

// LockManager holds the lock row with a lightweight transaction. The row
// carries a TTL, so a crashed holder blocks others for at most that long.
type LockManager struct {
	session *driver.Session
	owner   string
	Logger  zerolog.Logger
}

func NewLockManager(session *driver.Session, logger zerolog.Logger) *LockManager {
	return &LockManager{
		session: session,
		owner:   newOwner(),
		Logger:  logger,
	}
}

func newOwner() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return host + "/" + uuid.NewString()
}

func (lm *LockManager) Acquire(timeout time.Duration) error {
	insert := fmt.Sprintf(
		`INSERT INTO %s (lock_id, locked_by, locked_at) VALUES (?, ?, ?) IF NOT EXISTS USING TTL %d`,
		lm.session.Table("schema_lock"), ttlSeconds(timeout),
	)

	deadline := time.Now().Add(timeout)
	for wait := time.Second; ; wait = nextWait(wait) {
		applied, current, err := lm.session.CAS(insert, VersionLogLockID, lm.owner, time.Now())
		if err != nil {
			return fmt.Errorf("failed to write lock row: %w", err)
		}
		if applied {
			lm.Logger.Info().Str("owner", lm.owner).Msg("Version log lock acquired")
			return nil
		}

		lm.Logger.Debug().
			Interface("held_by", current["locked_by"]).
			Dur("retry_in", wait).
			Msg("Version log lock is held")

		if time.Now().Add(wait).After(deadline) {
			return fmt.Errorf("%w within %s: held by %v", ErrLockTimeout, timeout, current["locked_by"])
		}
		time.Sleep(wait)
	}
}

func (lm *LockManager) Release() error {
	del := fmt.Sprintf(`DELETE FROM %s WHERE lock_id = ? IF locked_by = ?`, lm.session.Table("schema_lock"))

	applied, current, err := lm.session.CAS(del, VersionLogLockID, lm.owner)
	if err != nil {
		return fmt.Errorf("failed to release version log lock: %w", err)
	}
	if !applied {
		// Expired and possibly taken by someone else.
		lm.Logger.Warn().Interface("held_by", current["locked_by"]).Msg("Version log lock was no longer ours")
		return nil
	}

	lm.Logger.Info().Msg("Version log lock released")
	return nil
}

// ttlSeconds outlives the acquire timeout by a minute so a holder that is
// still recording does not lose the row.
func ttlSeconds(timeout time.Duration) int {
	if timeout < 0 {
		timeout = 0
	}
	return int(timeout.Seconds()) + 60
}

func nextWait(wait time.Duration) time.Duration {
	if wait >= 8*time.Second {
		return 10 * time.Second
	}
	return wait * 2
}

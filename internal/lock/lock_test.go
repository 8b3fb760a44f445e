package lock

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	_ Locker = (*LockManager)(nil)
	_ Locker = Noop{}
)

func TestNoop(t *testing.T) {
	var l Locker = Noop{}
	assert.NoError(t, l.Acquire(time.Second))
	assert.NoError(t, l.Release())
}

func TestTTLSeconds(t *testing.T) {
	assert.Equal(t, 120, ttlSeconds(time.Minute))
	assert.Equal(t, 60, ttlSeconds(0))
	assert.Equal(t, 60, ttlSeconds(-time.Second))
}

func TestNextWait(t *testing.T) {
	var got []time.Duration
	for w := time.Second; len(got) < 6; w = nextWait(w) {
		got = append(got, w)
	}
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second,
	}, got)
}

func TestNewOwnerIsUnique(t *testing.T) {
	a, b := newOwner(), newOwner()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.Contains(a, "/"))
}

func TestLockIDIsNamespaced(t *testing.T) {
	assert.True(t, strings.HasPrefix(VersionLogLockID, "deltamig:"))
}

// Package version implements the composite ordering key used for deltaset
// migrations: deltaset version, then phase, then the file's own version.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidKey = errors.New("invalid version key")

type Phase string

const (
	PhasePre  Phase = "pre"
	PhasePeri Phase = "peri"
	PhasePost Phase = "post"

	DefaultPhase = PhasePeri
)

// IsPhase reports whether s is one of the phase literals. Matching is
// case-sensitive: "PRE" is not a phase.
func IsPhase(s string) bool {
	switch Phase(s) {
	case PhasePre, PhasePeri, PhasePost:
		return true
	}
	return false
}

// Key is a composite version key. Its string form is
// "deltaset:phase:file", e.g. "1.2:pre:20230101120000".
type Key struct {
	Deltaset string
	Phase    Phase
	File     string
}

func (k Key) String() string {
	return k.Deltaset + ":" + string(k.Phase) + ":" + k.File
}

// Compare returns -1, 0, or 1. The deltaset version dominates, then the
// phase, then the file version.
func (k Key) Compare(other Key) int {
	if c := CompareSemVer(k.Deltaset, other.Deltaset); c != 0 {
		return c
	}
	if c := ComparePhase(k.Phase, other.Phase); c != 0 {
		return c
	}
	return CompareSemVer(k.File, other.File)
}

func (k Key) Less(other Key) bool {
	return k.Compare(other) < 0
}

// ParseKey parses the "deltaset:phase:file" form. All three parts must be
// present and non-empty and the phase must be known.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("%w: %q must have 3 colon-separated parts", ErrInvalidKey, s)
	}
	for _, p := range parts {
		if p == "" {
			return Key{}, fmt.Errorf("%w: %q has an empty part", ErrInvalidKey, s)
		}
	}
	if !IsPhase(parts[1]) {
		return Key{}, fmt.Errorf("%w: unknown phase %q in %q", ErrInvalidKey, parts[1], s)
	}
	return Key{Deltaset: parts[0], Phase: Phase(parts[1]), File: parts[2]}, nil
}

// CompareVersion compares two keys in string form. Missing parts compare
// as empty strings, so it never fails.
func CompareVersion(left, right string) int {
	return looseKey(left).Compare(looseKey(right))
}

func looseKey(s string) Key {
	parts := strings.Split(s, ":")
	part := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	return Key{Deltaset: part(0), Phase: Phase(part(1)), File: part(2)}
}

// ComparePhase orders pre < peri < post. Equal phases compare 0, and so
// does any pairing the pre/post checks below do not cover.
func ComparePhase(left, right Phase) int {
	if left == right {
		return 0
	}
	if left == PhasePre {
		return -1
	}
	if right == PhasePre {
		return 1
	}
	if left == PhasePost {
		return 1
	}
	if right == PhasePost {
		return -1
	}
	return 0
}

// CompareSemVer compares dot-separated numeric versions component by
// component, stopping at the end of the shorter one: "1.2" and "1.2.5"
// compare equal.
func CompareSemVer(left, right string) int {
	l := strings.Split(left, ".")
	r := strings.Split(right, ".")

	n := min(len(l), len(r))
	for i := 0; i < n; i++ {
		li, ri := leadingInt(l[i]), leadingInt(r[i])
		if li < ri {
			return -1
		}
		if li > ri {
			return 1
		}
	}
	return 0
}

// leadingInt returns the value of the leading decimal digits of s, or 0 if
// there are none. Values too large for int64 saturate.
func leadingInt(s string) int64 {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, _ := strconv.ParseInt(s[:end], 10, 64)
	return n
}

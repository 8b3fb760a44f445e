package version

import (
	"fmt"
	"slices"
)

type Entry[V any] struct {
	Key   Key
	Value V
}

// VersionMap is an ordered mapping from composite keys to values. Sorting
// reorders entries in place and never adds or removes any.
type VersionMap[V any] []Entry[V]

// NewVersionMap builds a map from string keys. The result is unsorted.
func NewVersionMap[V any](m map[string]V) (VersionMap[V], error) {
	vm := make(VersionMap[V], 0, len(m))
	for s, v := range m {
		k, err := ParseKey(s)
		if err != nil {
			return nil, err
		}
		vm = append(vm, Entry[V]{Key: k, Value: v})
	}
	return vm, nil
}

func (m VersionMap[V]) Sort() VersionMap[V] {
	slices.SortStableFunc(m, func(a, b Entry[V]) int {
		return a.Key.Compare(b.Key)
	})
	return m
}

func (m VersionMap[V]) RSort() VersionMap[V] {
	slices.SortStableFunc(m, func(a, b Entry[V]) int {
		return -a.Key.Compare(b.Key)
	})
	return m
}

// Max returns the value whose key is greatest. Among equal keys the last
// one in the map wins. The receiver is left untouched.
func (m VersionMap[V]) Max() (V, bool) {
	if len(m) == 0 {
		var zero V
		return zero, false
	}
	sorted := slices.Clone(m).Sort()
	return sorted[len(sorted)-1].Value, true
}

func (m VersionMap[V]) Keys() []Key {
	keys := make([]Key, len(m))
	for i, e := range m {
		keys[i] = e.Key
	}
	return keys
}

func (m VersionMap[V]) Values() []V {
	values := make([]V, len(m))
	for i, e := range m {
		values[i] = e.Value
	}
	return values
}

// Add appends an entry whose key is given in string form.
func (m *VersionMap[V]) Add(key string, value V) error {
	k, err := ParseKey(key)
	if err != nil {
		return fmt.Errorf("failed to add %q: %w", key, err)
	}
	*m = append(*m, Entry[V]{Key: k, Value: value})
	return nil
}

package migration

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deltamig/deltamig/internal/schema"
	"github.com/deltamig/deltamig/internal/version"
)

func testMigrations(t *testing.T, paths ...string) version.VersionMap[*Migration] {
	t.Helper()
	var vm version.VersionMap[*Migration]
	for _, p := range paths {
		mig := newMigration(filepath.FromSlash(p))
		require.NoError(t, vm.Add(mig.Version(), mig))
	}
	return vm
}

func versionsOf(migs []*Migration) []string {
	out := make([]string, 0, len(migs))
	for _, m := range migs {
		out = append(out, m.Version())
	}
	return out
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(testMigrations(t,
		"migrations/2/20230104000000_add_index.php",
		"migrations/1/post/20230103000000_drop_legacy.php",
		"migrations/1/20230102000000_backfill.php",
		"migrations/1/pre/20230101000000_create_users.php",
	))
}

func TestResolver_Ordered(t *testing.T) {
	r := newTestResolver(t)

	assert.Equal(t, []string{
		"1:pre:20230101000000",
		"1:peri:20230102000000",
		"1:post:20230103000000",
		"2:peri:20230104000000",
	}, versionsOf(r.Ordered()))
}

func TestResolver_Reversed(t *testing.T) {
	r := newTestResolver(t)

	assert.Equal(t, []string{
		"2:peri:20230104000000",
		"1:post:20230103000000",
		"1:peri:20230102000000",
		"1:pre:20230101000000",
	}, versionsOf(r.Reversed()))

	// Reversing must not disturb the ascending view.
	assert.Equal(t, "1:pre:20230101000000", r.Ordered()[0].Version())
}

func TestResolver_DoesNotReorderInput(t *testing.T) {
	vm := testMigrations(t,
		"migrations/2/20230104000000_add_index.php",
		"migrations/1/pre/20230101000000_create_users.php",
	)
	NewResolver(vm)

	assert.Equal(t, "2:peri:20230104000000", vm[0].Value.Version())
}

func TestResolver_Latest(t *testing.T) {
	latest, ok := newTestResolver(t).Latest()
	require.True(t, ok)
	assert.Equal(t, "AddIndex", latest.ClassName)

	_, ok = NewResolver(nil).Latest()
	assert.False(t, ok)
}

func TestResolver_Pending(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name    string
		applied []schema.AppliedVersion
		want    []string
	}{
		{
			name: "none applied",
			want: []string{
				"1:pre:20230101000000",
				"1:peri:20230102000000",
				"1:post:20230103000000",
				"2:peri:20230104000000",
			},
		},
		{
			name: "some applied",
			applied: []schema.AppliedVersion{
				{Version: "1:pre:20230101000000"},
				{Version: "1:peri:20230102000000"},
			},
			want: []string{"1:post:20230103000000", "2:peri:20230104000000"},
		},
		{
			name: "out of order gap",
			applied: []schema.AppliedVersion{
				{Version: "1:pre:20230101000000"},
				{Version: "2:peri:20230104000000"},
			},
			want: []string{"1:peri:20230102000000", "1:post:20230103000000"},
		},
		{
			name: "all applied",
			applied: []schema.AppliedVersion{
				{Version: "1:pre:20230101000000"},
				{Version: "1:peri:20230102000000"},
				{Version: "1:post:20230103000000"},
				{Version: "2:peri:20230104000000"},
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, versionsOf(r.Pending(tt.applied)))
		})
	}
}

func TestResolver_FilterUpToTarget(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		target string
		want   []string
	}{
		{"1:pre:20230101000000", []string{"1:pre:20230101000000"}},
		{"1:peri:99999999999999", []string{"1:pre:20230101000000", "1:peri:20230102000000"}},
		{"1:post:0", []string{"1:pre:20230101000000", "1:peri:20230102000000"}},
		{"0:post:99999999999999", []string{}},
		{"3:pre:0", []string{
			"1:pre:20230101000000",
			"1:peri:20230102000000",
			"1:post:20230103000000",
			"2:peri:20230104000000",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			target, err := version.ParseKey(tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, versionsOf(r.FilterUpToTarget(r.Ordered(), target)))
		})
	}
}

func TestResolver_MissingFiles(t *testing.T) {
	r := newTestResolver(t)

	missing := r.MissingFiles([]schema.AppliedVersion{
		{Version: "1:pre:20230101000000", MigrationName: "CreateUsers"},
		{Version: "1:pre:20221231000000", MigrationName: "Removed"},
	})

	require.Len(t, missing, 1)
	assert.Contains(t, missing[0], "1:pre:20221231000000")
	assert.Contains(t, missing[0], "Removed")

	assert.Empty(t, r.MissingFiles(nil))
}

package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deltamig/deltamig/internal/version"
)

func newTestScanner(t *testing.T, files ...string) *Scanner {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		createTestFile(t, fs, f)
	}
	return NewScanner(fs, zerolog.Nop())
}

func createTestFile(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	path = filepath.FromSlash(path)
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(fs, path, []byte("<?php\n"), 0644))
}

func TestScanner_ExistingMigrationClassNames(t *testing.T) {
	s := newTestScanner(t,
		"db/20230101120000_create_user_table.php",
		"db/20230102120000_add_index.php",
		"db/UserSeeder.php",
		"db/20230103120000_Mixed_Case.php", // upper case is outside the loose pattern
		"db/20230104120000_notes.txt",
		"db/nested/20230105120000_nested.php",
	)

	got := s.ExistingMigrationClassNames("db")
	assert.Equal(t, []string{"CreateUserTable", "AddIndex"}, got)
}

func TestScanner_ExistingMigrationClassNames_MissingDir(t *testing.T) {
	s := newTestScanner(t, "db/20230101120000_create_user_table.php")

	assert.Empty(t, s.ExistingMigrationClassNames("nope"))
	assert.Empty(t, s.ExistingMigrationClassNames("db/20230101120000_create_user_table.php"))
}

func TestScanner_IsUniqueMigrationClassName(t *testing.T) {
	s := newTestScanner(t, "db/1/pre/20230101120000_create_user_table.php")

	dir := filepath.FromSlash("db/1/pre")
	assert.False(t, s.IsUniqueMigrationClassName("CreateUserTable", dir))
	assert.True(t, s.IsUniqueMigrationClassName("CreatePostTable", dir))
	assert.True(t, s.IsUniqueMigrationClassName("CreateUserTable", filepath.FromSlash("db/1/post")))
}

func TestScanner_ScanMigrations(t *testing.T) {
	s := newTestScanner(t,
		"migrations/2/20230105000000_second_deltaset.php",
		"migrations/1/post/20230101000000_cleanup.php",
		"migrations/1/pre/20230104000000_prepare.php",
		"migrations/1/pre/20230103000000.sql",
		"migrations/1/pre/20230103000001_titled.sql", // .sql files take no title
		"migrations/1/20230102000000_main_change.php",
		"migrations/1/README.md",
		"migrations/1/.gitkeep",
		"migrations/notes/20230106000000_stray.php",
	)

	migrations, err := s.ScanMigrations("migrations")
	require.NoError(t, err)

	var got []string
	for _, mig := range migrations.Values() {
		got = append(got, mig.Version())
	}
	assert.Equal(t, []string{
		"1:pre:20230103000000",
		"1:pre:20230104000000",
		"1:peri:20230102000000",
		"1:post:20230101000000",
		"2:peri:20230105000000",
	}, got)

	first := migrations[0].Value
	assert.Equal(t, "", first.ClassName)
	assert.Equal(t, KindSQL, first.Kind)
	assert.Equal(t, "20230103000000.sql", first.Filename)
	assert.Equal(t, "Prepare", migrations[1].Value.ClassName)
	assert.Equal(t, KindPHP, migrations[1].Value.Kind)
}

func TestScanner_ScanMigrations_MultipleRoots(t *testing.T) {
	s := newTestScanner(t,
		"core/2/20230102000000_b.php",
		"plugins/1/20230101000000_a.php",
	)

	migrations, err := s.ScanMigrations("core", "plugins", "missing")
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "A", migrations[0].Value.ClassName)
	assert.Equal(t, "B", migrations[1].Value.ClassName)
}

func TestScanner_ScanMigrations_DuplicateVersion(t *testing.T) {
	s := newTestScanner(t,
		"migrations/1/pre/20230101000000_first.php",
		"migrations/1/pre/20230101000000_second.php",
	)

	_, err := s.ScanMigrations("migrations")
	assert.ErrorIs(t, err, ErrDuplicateVersion)
	assert.Contains(t, err.Error(), "1:pre:20230101000000")
}

func TestScanner_ScanMigrations_PrefixDeltasetsAreDistinct(t *testing.T) {
	s := newTestScanner(t,
		"migrations/1/20230101_a.php",
		"migrations/1.1/20230101_b.php",
	)

	migrations, err := s.ScanMigrations("migrations")
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	var got []string
	for _, mig := range migrations.Values() {
		got = append(got, mig.Version())
	}
	assert.ElementsMatch(t, []string{"1:peri:20230101", "1.1:peri:20230101"}, got)
}

func TestScanner_ScanMigrations_DuplicateAcrossRoots(t *testing.T) {
	s := newTestScanner(t,
		"core/2/pre/20230101_a.php",
		"plugins/2/pre/20230101_b.php",
	)

	_, err := s.ScanMigrations("core", "plugins")
	assert.ErrorIs(t, err, ErrDuplicateVersion)
	assert.Contains(t, err.Error(), filepath.FromSlash("core/2/pre/20230101_a.php"))
}

func TestScanner_ScanMigrations_EmptyDir(t *testing.T) {
	s := newTestScanner(t)
	require.NoError(t, s.Fs().MkdirAll("migrations", 0755))

	migrations, err := s.ScanMigrations("migrations")
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestScanner_ScanMigrations_OsFs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1.1", "pre", "20230101000000_create_users.php")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("<?php\n"), 0644))

	s := NewScanner(afero.NewOsFs(), zerolog.Nop())
	migrations, err := s.ScanMigrations(dir)
	require.NoError(t, err)
	require.Len(t, migrations, 1)
	assert.Equal(t, version.Key{Deltaset: "1.1", Phase: version.PhasePre, File: "20230101000000"}, migrations[0].Key)
	assert.Equal(t, path, migrations[0].Value.FilePath)
}

func TestScanner_InvalidMigrationFiles(t *testing.T) {
	s := newTestScanner(t,
		"migrations/1/20230101000000_ok.php",
		"migrations/1/broken.php",
		"migrations/beta/20230102000000_misplaced.php",
		"migrations/1/.gitkeep",
	)

	invalid, err := s.InvalidMigrationFiles("migrations")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.FromSlash("migrations/1/broken.php"),
		filepath.FromSlash("migrations/beta/20230102000000_misplaced.php"),
	}, invalid)
}

func TestScanner_ScanSeeds(t *testing.T) {
	s := newTestScanner(t,
		"seeds/UserSeeder.php",
		"seeds/PostSeeder.php",
		"seeds/20230101_not_a_seed.php",
		"seeds/helpers.inc",
	)

	seeds, err := s.ScanSeeds("seeds")
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	assert.Equal(t, "PostSeeder", seeds[0].ClassName)
	assert.Equal(t, "UserSeeder", seeds[1].ClassName)
	assert.Equal(t, filepath.Join("seeds", "UserSeeder.php"), seeds[1].FilePath)

	seeds, err = s.ScanSeeds("missing")
	require.NoError(t, err)
	assert.Empty(t, seeds)
}

func TestScanner_GlobAll(t *testing.T) {
	s := newTestScanner(t,
		"db/core/migrations/1/1_a.php",
		"db/plugins/migrations/1/1_b.php",
		"db/other/migrations/1/1_c.php",
	)

	got, err := s.GlobAll([]string{"db/{core,plugins}/migrations"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.FromSlash("db/core/migrations"),
		filepath.FromSlash("db/plugins/migrations"),
	}, got)

	got, err = s.GlobAll([]string{"db/*/migrations"})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestExpandBraces(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
	}{
		{"plain", []string{"plain"}},
		{"a/{b,c}/d", []string{"a/b/d", "a/c/d"}},
		{"{a,b}{1,2}", []string{"a1", "a2", "b1", "b2"}},
		{"x/{a,{b,c}}", []string{"x/a", "x/b", "x/c"}},
		{"x/{a,b", []string{"x/{a,b"}},
		{"{only}", []string{"only"}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, expandBraces(tt.pattern))
		})
	}
}

package migration

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deltamig/deltamig/internal/version"
)

func TestIsValidMigrationFilePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"migrations/1.2/pre/20230101_foo.php", true},
		{"migrations/1.2/peri/20230101_foo.php", true},
		{"migrations/1.2/post/20230101_foo.php", true},
		{"migrations/1/20230101120000_create_users.php", true},
		{"migrations/1.2.3.4/20230101_foo.php", true},
		{"migrations/3/20230101.sql", true},
		{"migrations/3/20230101.1.sql", true},
		{"migrations/3/20230101_Foo-Bar.PHP", true},
		{"migrations/abc/foo.php", false},                 // deltaset segment not numeric
		{"migrations/abc/20230101_foo.php", false},        // deltaset segment not numeric
		{"migrations/1.2.3.4.5/20230101_foo.php", false},  // too many groups
		{"migrations/1.22/20230101_foo.php", false},       // groups after the first are single digits
		{"migrations/1/pre/foo.php", false},               // no version prefix
		{"migrations/1/20230101_foo.txt", false},
		{"migrations/1/20230101_foo bar.php", false},
		{"migrations/1/PRE/20230101_foo.php", false},      // phase dirs are case-sensitive
		{"migrations/pre/20230101_foo.php", false},        // grandparent is not a deltaset
		{"20230101_foo.php", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidMigrationFilePath(filepath.FromSlash(tt.path)))
		})
	}
}

func TestIsValidSeedFileName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"UserSeeder.php", true},
		{"Users.php", true},
		{"users.php", true}, // case-insensitive
		{"User2.PHP", true},
		{"U.php", false},
		{"User_Seeder.php", false},
		{"20230101_users.php", false},
		{"UserSeeder.sql", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidSeedFileName(tt.name))
		})
	}
}

func TestIsValidClassName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"CreateUserTable", true},
		{"AddIndexToPostsTable", true},
		{"LimitResourceNamesTo30Chars", true},
		{"UserSeeder", true},
		{"createUserTable", false},
		{"Create_User_Table", false},
		{"ABTest", false},
		{"CreateUserTable1!", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidClassName(tt.name))
		})
	}
}

// The grammar only requires one capitalized word even though class names
// are meant to be made of several.
func TestIsValidClassName_SingleWordPasses(t *testing.T) {
	assert.True(t, IsValidClassName("Foo"))
}

func TestKeyFromFilePath(t *testing.T) {
	tests := []struct {
		path string
		want version.Key
	}{
		{
			path: "migrations/1.2/pre/20230101120000_foo.php",
			want: version.Key{Deltaset: "1.2", Phase: version.PhasePre, File: "20230101120000"},
		},
		{
			path: "migrations/1.2/post/20230101.5.sql",
			want: version.Key{Deltaset: "1.2", Phase: version.PhasePost, File: "20230101.5"},
		},
		{
			path: "migrations/3/20230101_foo.php",
			want: version.Key{Deltaset: "3", Phase: version.PhasePeri, File: "20230101"},
		},
		{
			path: "migrations/3/PRE/20230101_foo.php",
			want: version.Key{Deltaset: "PRE", Phase: version.PhasePeri, File: "20230101"},
		},
		{
			path: "migrations/3/peri/foo.php",
			want: version.Key{Deltaset: "3", Phase: version.PhasePeri, File: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyFromFilePath(filepath.FromSlash(tt.path)))
		})
	}
}

func TestVersionFromFilePath(t *testing.T) {
	assert.Equal(t, "1.2:pre:20230101", VersionFromFilePath(filepath.FromSlash("migrations/1.2/pre/20230101_foo.php")))
	assert.Equal(t, "7:peri:1.1", VersionFromFilePath(filepath.FromSlash("db/7/1.1_bar.php")))
}

func TestPhaseFromFilePath(t *testing.T) {
	phase, ok := PhaseFromFilePath(filepath.FromSlash("m/1/post/1_a.php"))
	assert.True(t, ok)
	assert.Equal(t, version.PhasePost, phase)

	phase, ok = PhaseFromFilePath(filepath.FromSlash("m/1/1_a.php"))
	assert.False(t, ok)
	assert.Equal(t, version.PhasePeri, phase)
}

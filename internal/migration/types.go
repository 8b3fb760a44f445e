package migration

import (
	"path/filepath"
	"strings"

	"github.com/deltamig/deltamig/internal/version"
)

type FileKind string

const (
	KindPHP FileKind = "php"
	KindSQL FileKind = "sql"
)

type Migration struct {
	Key       version.Key
	ClassName string
	Filename  string
	FilePath  string
	Kind      FileKind
}

// Version returns the composite key in its string form, as stored in the
// version log.
func (m *Migration) Version() string {
	return m.Key.String()
}

type Seed struct {
	ClassName string
	Filename  string
	FilePath  string
}

func newMigration(filePath string) *Migration {
	name := filepath.Base(filePath)

	kind := KindPHP
	if strings.EqualFold(filepath.Ext(name), ".sql") {
		kind = KindSQL
	}

	return &Migration{
		Key:       KeyFromFilePath(filePath),
		ClassName: FileNameToClassName(name),
		Filename:  name,
		FilePath:  filePath,
		Kind:      kind,
	}
}

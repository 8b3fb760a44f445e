package migration

import (
	"strings"
	"time"
)

// TimestampFormat is YmdHis: 14 digits, always rendered in UTC.
const TimestampFormat = "20060102150405"

func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

func CurrentTimestamp() string {
	return Timestamp(time.Now())
}

// ClassNameToFileName turns "CreateUserTable" into
// "<timestamp>_create_user_table.php". A new segment starts before every
// uppercase letter and the segment preceding the first one is dropped, so
// "LimitTo30Chars" becomes "limit_to30_chars".
func ClassNameToFileName(className string, at time.Time) string {
	var segments []string
	var current strings.Builder

	for _, r := range className {
		if r >= 'A' && r <= 'Z' {
			segments = append(segments, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}
	segments = append(segments, current.String())

	return Timestamp(at) + "_" + strings.ToLower(strings.Join(segments[1:], "_")) + ".php"
}

// NewMigrationFileName mints a file name stamped with the current time.
func NewMigrationFileName(className string) string {
	return ClassNameToFileName(className, time.Now())
}

// FileNameToClassName turns "20230101120000_create_user_table.php" into
// "CreateUserTable". Names outside the migration grammar are title-cased
// as they are.
func FileNameToClassName(fileName string) string {
	name := fileName
	if m := migrationFileNameRe.FindStringSubmatch(fileName); m != nil {
		name = m[1]
	}

	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(upperWords(name), " ", "")
}

// upperWords upper-cases the first byte of every whitespace-delimited word
// when it is an ASCII letter. Every other byte, including invalid UTF-8, is
// copied as is.
func upperWords(s string) string {
	b := []byte(s)
	atStart := true
	for i, c := range b {
		if atStart && c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
		atStart = c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v'
	}
	return string(b)
}

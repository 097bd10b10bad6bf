// Package ident validates the names and build versions that end up in file
// paths and SQL statements.
package ident

import (
	"regexp"
	"strings"
)

var (
	// validName matches word characters only. Names are interpolated into
	// file paths and SQL, so nothing else is accepted.
	validName    = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)
	validVersion = regexp.MustCompile(`^\d+(\.\d+){3}$`)
)

// Valid reports whether name is a plain identifier.
func Valid(name string) bool {
	return validName.MatchString(name)
}

// ValidVersion reports whether v is a four-component dotted build number such as 9.2.0.45335.
func ValidVersion(v string) bool {
	return validVersion.MatchString(v)
}

// Quote returns name as a double-quoted SQL identifier.
func Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

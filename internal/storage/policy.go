package storage

import (
	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
)

// Policy decides what happens when an already realized object is requested
// again. Neither policy replaces the existing object.
type Policy int

const (
	// PolicyWarn keeps the existing object and logs a warning.
	PolicyWarn Policy = iota
	// PolicySkip keeps the existing object silently.
	PolicySkip
)

// ParsePolicy maps an object_exists value to a Policy. Empty means warn.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "warn":
		return PolicyWarn, nil
	case "skip":
		return PolicySkip, nil
	}
	return 0, wdberrors.NewConfigError("object_exists action", s, "expected skip or warn")
}

func (p Policy) String() string {
	if p == PolicySkip {
		return "skip"
	}
	return "warn"
}

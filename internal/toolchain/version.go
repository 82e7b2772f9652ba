package toolchain

import (
	"errors"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// MinimumZigVersion is the oldest compiler that understands every flag the
// argument builder emits (-fno-entry, -fstrip).
const MinimumZigVersion = ">=0.12.0"

// CleanVersion drops pre-release and build metadata: everything from the
// first '-' or '+' on.
func CleanVersion(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		return v[:i]
	}
	return v
}

// Satisfies reports whether version meets constraint. Constraints use the
// npm range syntax: ">=0.12.0 <1.0.0", "^0.12.0", "~0.13.0", "0.13.x" and
// "||" alternatives. The version is cleaned with CleanVersion first, so
// "0.14.0-dev.1+abc" compares as "0.14.0".
func Satisfies(version, constraint string) (bool, error) {
	clean := CleanVersion(version)
	v, err := semver.NewVersion(clean)
	if err != nil {
		return false, &InvalidVersionError{Version: clean, Err: err}
	}

	if strings.TrimSpace(constraint) == "" {
		return false, &InvalidVersionError{Version: constraint, Err: errors.New("empty constraint")}
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, &InvalidVersionError{Version: constraint, Err: err}
	}
	return c.Check(v), nil
}

// EnsureVersion fails with VersionUnsupportedError when version does not
// satisfy constraint.
func EnsureVersion(version, constraint string) error {
	ok, err := Satisfies(version, constraint)
	if err != nil {
		return err
	}
	if !ok {
		return &VersionUnsupportedError{Version: CleanVersion(version), Constraint: constraint}
	}
	return nil
}

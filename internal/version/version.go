// Package version parses and orders release identifiers of the form PRODUCT-MAJOR.MINOR.PATCH
package version

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// String constants for operations (used in ErrParseFailed)
const (
	OpMatchPattern = "match_pattern"
	OpParseSemver  = "parse_semver"
)

// idPattern is anchored: "SPTK-3.9.0" matches, "SPTK-3.9.0-rc1" and "old/SPTK-3.9.0" do not.
var idPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)-(\d+)\.(\d+)\.(\d+)$`)

// Sentinel errors
var (
	ErrInvalidID = errors.New("invalid version identifier: expected PRODUCT-MAJOR.MINOR.PATCH")
)

// ErrParseFailed represents a version identifier parsing error
type ErrParseFailed struct {
	ID    string
	Op    string
	Cause error
}

func (e ErrParseFailed) Error() string {
	return fmt.Sprintf("failed to parse version %q in operation %s: %v", e.ID, e.Op, e.Cause)
}

func (e ErrParseFailed) Unwrap() error {
	return e.Cause
}

func (e ErrParseFailed) Is(target error) bool {
	var parseErr ErrParseFailed
	return errors.As(target, &parseErr)
}

// ID is a parsed release identifier.
type ID struct {
	Raw     string
	Product string
	semver  *semver.Version
}

// Major returns the major component.
func (id ID) Major() uint64 { return id.semver.Major() }

// Minor returns the minor component.
func (id ID) Minor() uint64 { return id.semver.Minor() }

// Patch returns the patch component.
func (id ID) Patch() uint64 { return id.semver.Patch() }

// String returns the identifier as it was parsed.
func (id ID) String() string { return id.Raw }

// Match reports whether s is a well-formed identifier.
func Match(s string) bool {
	return idPattern.MatchString(s)
}

// Parse parses a PRODUCT-MAJOR.MINOR.PATCH identifier.
func Parse(s string) (ID, error) {
	m := idPattern.FindStringSubmatch(s)
	if m == nil {
		return ID{}, ErrParseFailed{ID: s, Op: OpMatchPattern, Cause: ErrInvalidID}
	}

	// StrictNewVersion rejects leading zeros, which the directory names may carry ("SPTK-3.09.1").
	sv, err := semver.NewVersion(strings.Join(m[2:5], "."))
	if err != nil {
		return ID{}, ErrParseFailed{ID: s, Op: OpParseSemver, Cause: err}
	}

	return ID{Raw: s, Product: m[1], semver: sv}, nil
}

// Compare returns -1, 0 or 1 comparing a and b by (major, minor, patch) numerically.
// Identifiers with equal numbers are ordered by product name so the order is total.
func Compare(a, b ID) int {
	if c := a.semver.Compare(b.semver); c != 0 {
		return c
	}
	return strings.Compare(a.Product, b.Product)
}

// SortDescending returns the well-formed identifiers among names, newest first.
// Names that do not match the pattern are dropped.
func SortDescending(names []string) []string {
	ids := make([]ID, 0, len(names))
	for _, name := range names {
		id, err := Parse(name)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	sort.SliceStable(ids, func(i, j int) bool {
		c := Compare(ids[i], ids[j])
		if c == 0 {
			return ids[i].Raw < ids[j].Raw
		}
		return c > 0
	})

	result := make([]string, 0, len(ids))
	for _, id := range ids {
		result = append(result, id.Raw)
	}
	return result
}

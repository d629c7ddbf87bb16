package catalog

import (
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"
)

// DateLayout renders modification dates as "DD Mon YYYY".
const DateLayout = "02 Jan 2006"

// FormatSize renders a byte count as whole kilobytes, truncating.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return fmt.Sprintf("%d Kb", bytes/1024)
}

// FormatDate renders t in UTC using DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// SafeName reports whether name can be used verbatim as the last segment of a
// download link: non-empty, not "." or "..", with no path separators and no
// control characters.
func SafeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// RequiredPrefixes flags files needed to install dependent products.
type RequiredPrefixes []string

// Match reports whether the base name of name starts with one of the prefixes,
// ignoring case. Only prefixes match, never substrings.
func (p RequiredPrefixes) Match(name string) bool {
	base := strings.ToLower(path.Base(strings.ReplaceAll(name, `\`, "/")))
	for _, prefix := range p {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(base, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

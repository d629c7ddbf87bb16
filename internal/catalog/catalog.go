// Package catalog builds the ordered download catalog (version -> OS -> files)
// from a hierarchical artifact store.
package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Catalog is the root document served to clients.
// Versions are ordered newest first and never empty unless the whole catalog is.
type Catalog struct {
	Versions []VersionEntry `json:"versions"`
}

// VersionEntry holds the populated OS directories of one release.
type VersionEntry struct {
	VersionID   string           `json:"versionId"`
	Directories []DirectoryEntry `json:"directories"`
}

// DirectoryEntry holds the files published for one OS target.
type DirectoryEntry struct {
	OSKey string      `json:"osKey"`
	Title string      `json:"title"`
	Files []FileEntry `json:"files"`
}

// FileEntry describes one downloadable artifact.
type FileEntry struct {
	Name                 string `json:"name"`
	ModifiedDate         string `json:"modifiedDate"`
	SizeLabel            string `json:"sizeLabel"`
	IsRequiredDependency bool   `json:"isRequiredDependency"`
}

// OSTarget is one entry of the OS enumeration. The enumeration order defines
// directory order inside every version.
type OSTarget struct {
	Key   string `json:"key" yaml:"key"`
	Title string `json:"title" yaml:"title"`
}

// Empty returns a catalog with no versions.
func Empty() *Catalog {
	return &Catalog{Versions: []VersionEntry{}}
}

// IsEmpty reports whether c is nil or has no versions.
func (c *Catalog) IsEmpty() bool {
	return c == nil || len(c.Versions) == 0
}

// Index maps version identifiers to their entries.
type Index map[string]*VersionEntry

// Index builds the version lookup. Entries point into c, which must not be modified afterwards.
func (c *Catalog) Index() Index {
	if c == nil {
		return Index{}
	}
	idx := make(Index, len(c.Versions))
	for i := range c.Versions {
		idx[c.Versions[i].VersionID] = &c.Versions[i]
	}
	return idx
}

// VersionIDs returns the version identifiers in catalog order.
func (c *Catalog) VersionIDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.Versions))
	for _, v := range c.Versions {
		ids = append(ids, v.VersionID)
	}
	return ids
}

// Directory returns the directory for osKey, or nil.
func (v *VersionEntry) Directory(osKey string) *DirectoryEntry {
	if v == nil {
		return nil
	}
	for i := range v.Directories {
		if v.Directories[i].OSKey == osKey {
			return &v.Directories[i]
		}
	}
	return nil
}

// DownloadLink builds base/{versionID}/{osKey}/{name} with each segment path-escaped.
func DownloadLink(base, versionID, osKey, name string) string {
	return strings.TrimSuffix(base, "/") + "/" +
		url.PathEscape(versionID) + "/" +
		url.PathEscape(osKey) + "/" +
		url.PathEscape(name)
}

// ErrInvalidCatalog is returned by Validate for documents that break the catalog invariants.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Validate checks the structural invariants of a catalog received from elsewhere:
// unique version identifiers, no version without directories, unique OS keys per
// version, no directory without files and safe file names.
func (c *Catalog) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil catalog", ErrInvalidCatalog)
	}

	versions := make(map[string]bool, len(c.Versions))
	for _, v := range c.Versions {
		if v.VersionID == "" || versions[v.VersionID] {
			return fmt.Errorf("%w: missing or duplicate version %q", ErrInvalidCatalog, v.VersionID)
		}
		versions[v.VersionID] = true

		if len(v.Directories) == 0 {
			return fmt.Errorf("%w: version %q has no directories", ErrInvalidCatalog, v.VersionID)
		}
		keys := make(map[string]bool, len(v.Directories))
		for _, d := range v.Directories {
			if d.OSKey == "" || keys[d.OSKey] {
				return fmt.Errorf("%w: missing or duplicate os %q in %q", ErrInvalidCatalog, d.OSKey, v.VersionID)
			}
			keys[d.OSKey] = true

			if len(d.Files) == 0 {
				return fmt.Errorf("%w: %s/%s has no files", ErrInvalidCatalog, v.VersionID, d.OSKey)
			}
			for _, f := range d.Files {
				if !SafeName(f.Name) {
					return fmt.Errorf("%w: unsafe file name %q in %s/%s", ErrInvalidCatalog, f.Name, v.VersionID, d.OSKey)
				}
			}
		}
	}
	return nil
}

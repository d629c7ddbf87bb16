// Package selector keeps a version -> OS -> files selection consistent with a catalog.
//
// Every transition derives a complete new State from the catalog and the selected
// keys; state is replaced, never patched, so a version/OS mismatch is never observable.
// A Selector is not safe for concurrent use: callers deliver one event at a time.
package selector

import (
	"errors"
	"fmt"

	"github.com/sptk-project/sptkdl/internal/catalog"
)

// Phase is the lifecycle state of a Selector.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseEmpty
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseEmpty:
		return "empty"
	case PhaseReady:
		return "ready"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ErrConsistency matches every ConsistencyError.
var ErrConsistency = errors.New("selection is not present in the catalog")

// Level names the selection a ConsistencyError refers to.
type Level string

const (
	LevelVersion Level = "version"
	LevelOS      Level = "os"
)

// ConsistencyError reports a selection key that the current catalog does not contain.
// It signals a caller bug: keys must come from a State exposed by the same Selector.
type ConsistencyError struct {
	Level   Level
	Key     string
	Version string // selected version, for LevelOS
}

func (e *ConsistencyError) Error() string {
	if e.Level == LevelOS {
		return fmt.Sprintf("os %q is not available for version %q", e.Key, e.Version)
	}
	return fmt.Sprintf("version %q is not in the catalog", e.Key)
}

func (e *ConsistencyError) Is(target error) bool {
	return target == ErrConsistency
}

// State is everything a rendering layer needs: the two control values, their
// option lists and the file table.
type State struct {
	Phase       Phase
	Version     string
	OS          string
	Versions    []string
	Directories []catalog.DirectoryEntry
	Files       []catalog.FileEntry
}

// OSKeys returns the keys of the OS control options in catalog order.
func (s State) OSKeys() []string {
	keys := make([]string, 0, len(s.Directories))
	for _, d := range s.Directories {
		keys = append(keys, d.OSKey)
	}
	return keys
}

// Title returns the display title of the selected OS, or "".
func (s State) Title() string {
	for _, d := range s.Directories {
		if d.OSKey == s.OS {
			return d.Title
		}
	}
	return ""
}

// Derive computes the state for (versionID, osKey) over cat. It is a pure function.
// A version or OS that does not resolve yields empty option/file lists, not an error.
func Derive(cat *catalog.Catalog, idx catalog.Index, versionID, osKey string, prefixes catalog.RequiredPrefixes) State {
	if cat.IsEmpty() {
		return emptyState()
	}

	st := State{
		Phase:       PhaseReady,
		Version:     versionID,
		OS:          osKey,
		Versions:    cat.VersionIDs(),
		Directories: []catalog.DirectoryEntry{},
		Files:       []catalog.FileEntry{},
	}

	v := idx[versionID]
	if v == nil {
		return st
	}
	st.Directories = make([]catalog.DirectoryEntry, len(v.Directories))
	for i, d := range v.Directories {
		d.Files = append([]catalog.FileEntry(nil), d.Files...)
		st.Directories[i] = d
	}

	if dir := v.Directory(osKey); dir != nil {
		st.Files = annotate(dir.Files, prefixes)
	}
	return st
}

// annotate copies files with the required-dependency flag recomputed.
func annotate(files []catalog.FileEntry, prefixes catalog.RequiredPrefixes) []catalog.FileEntry {
	out := make([]catalog.FileEntry, len(files))
	for i, f := range files {
		f.IsRequiredDependency = prefixes.Match(f.Name)
		out[i] = f
	}
	return out
}

func emptyState() State {
	return State{
		Phase:       PhaseEmpty,
		Versions:    []string{},
		Directories: []catalog.DirectoryEntry{},
		Files:       []catalog.FileEntry{},
	}
}

// Selector holds the current selection over one catalog.
type Selector struct {
	prefixes  catalog.RequiredPrefixes
	cat       *catalog.Catalog
	idx       catalog.Index
	state     State
	listeners []func(State)
}

// New returns an uninitialized Selector.
func New(prefixes catalog.RequiredPrefixes) *Selector {
	return &Selector{
		prefixes: prefixes,
		idx:      catalog.Index{},
		state:    State{Phase: PhaseUninitialized},
	}
}

// NewWithCatalog returns a Selector already loaded with cat.
func NewWithCatalog(cat *catalog.Catalog, prefixes catalog.RequiredPrefixes) *Selector {
	s := New(prefixes)
	s.Load(cat)
	return s
}

// State returns the current state.
func (s *Selector) State() State {
	return s.state
}

// Catalog returns the loaded catalog, or nil before Load.
func (s *Selector) Catalog() *catalog.Catalog {
	return s.cat
}

// Subscribe registers fn to be called after every effective state change.
// No-op transitions do not notify.
func (s *Selector) Subscribe(fn func(State)) {
	if fn != nil {
		s.listeners = append(s.listeners, fn)
	}
}

// Load installs a catalog. A nil or empty catalog moves the selector to PhaseEmpty.
// Otherwise the current version and OS are kept when the new catalog still has them,
// and fall back to the first version and its first OS when it does not.
func (s *Selector) Load(cat *catalog.Catalog) {
	if cat.IsEmpty() {
		s.cat = catalog.Empty()
		s.idx = catalog.Index{}
		s.commit(emptyState())
		return
	}

	idx := cat.Index()
	versionID, osKey := s.state.Version, s.state.OS

	v := idx[versionID]
	if v == nil {
		v = &cat.Versions[0]
		versionID = v.VersionID
	}
	if v.Directory(osKey) == nil {
		osKey = firstOS(v)
	}

	s.cat = cat
	s.idx = idx
	s.commit(Derive(cat, idx, versionID, osKey, s.prefixes))
}

// SelectVersion selects a version and resets the OS to that version's first directory.
// Selecting the current version is a no-op. An unknown version returns a
// ConsistencyError and leaves the state unchanged.
func (s *Selector) SelectVersion(versionID string) error {
	if versionID == s.state.Version {
		return nil
	}

	v := s.idx[versionID]
	if v == nil {
		return &ConsistencyError{Level: LevelVersion, Key: versionID}
	}

	s.commit(Derive(s.cat, s.idx, versionID, firstOS(v), s.prefixes))
	return nil
}

// SelectOS selects an OS of the current version. Selecting the current OS is a
// no-op. An OS the current version lacks returns a ConsistencyError and leaves
// the state unchanged.
func (s *Selector) SelectOS(osKey string) error {
	if osKey == s.state.OS {
		return nil
	}

	if s.idx[s.state.Version].Directory(osKey) == nil {
		return &ConsistencyError{Level: LevelOS, Key: osKey, Version: s.state.Version}
	}

	s.commit(Derive(s.cat, s.idx, s.state.Version, osKey, s.prefixes))
	return nil
}

func (s *Selector) commit(next State) {
	s.state = next
	for _, fn := range s.listeners {
		fn(next)
	}
}

func firstOS(v *catalog.VersionEntry) string {
	if len(v.Directories) == 0 {
		return ""
	}
	return v.Directories[0].OSKey
}

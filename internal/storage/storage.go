// Package storage provides read-only access to the hierarchical artifact store
// (version directories containing OS directories containing files).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"
)

// Sentinel errors following Dave Cheney's principle: define errors as values
var (
	ErrNilFS       = errors.New("filesystem cannot be nil")
	ErrInvalidPath = errors.New("invalid store path")
)

// Entry is one item of a store directory listing.
type Entry struct {
	Name       string
	IsDir      bool
	Size       int64
	ModifiedAt time.Time
}

// Store is the read interface the catalog builder scans.
// Paths are slash separated and relative to the store root; "" and "." name the root.
// Listing a path that does not exist returns an error matching fs.ErrNotExist.
type Store interface {
	ListEntries(ctx context.Context, dir string) ([]Entry, error)
}

// DropFunc is called for every entry skipped because its metadata could not be read.
type DropFunc func(dir, name string, err error)

// FS is a Store backed by an fs.FS, usually os.DirFS of the download root.
type FS struct {
	fsys   fs.FS
	onDrop DropFunc
	logger *slog.Logger
}

// FSOption configures an FS store.
type FSOption func(*FS)

// WithDropFunc registers a hook for entries dropped during listing.
func WithDropFunc(fn DropFunc) FSOption {
	return func(s *FS) { s.onDrop = fn }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) FSOption {
	return func(s *FS) { s.logger = logger }
}

// NewFS returns a Store reading from fsys.
func NewFS(fsys fs.FS, opts ...FSOption) (*FS, error) {
	if fsys == nil {
		return nil, ErrNilFS
	}
	s := &FS{fsys: fsys, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewDir returns a Store rooted at a directory on the local filesystem.
// A missing root is not an error here; listing it reports fs.ErrNotExist.
func NewDir(root string, opts ...FSOption) (*FS, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("%w: root directory is required", ErrInvalidPath)
	}
	return NewFS(os.DirFS(root), opts...)
}

// FS returns the underlying filesystem, for serving file contents.
func (s *FS) FS() fs.FS {
	return s.fsys
}

// ListEntries lists dir in the order fs.ReadDir reports it, which is name order.
// Symbolic links describe their target. Entries whose metadata cannot be read,
// dangling links included, are dropped rather than failing the listing.
func (s *FS) ListEntries(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := cleanPath(dir)
	if err != nil {
		return nil, err
	}

	dirEntries, err := fs.ReadDir(s.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", name, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err == nil && de.Type()&fs.ModeSymlink != 0 {
			info, err = fs.Stat(s.fsys, path.Join(name, de.Name()))
		}
		if err != nil {
			s.logger.Debug("dropping entry with unreadable metadata", "dir", name, "name", de.Name(), "error", err)
			if s.onDrop != nil {
				s.onDrop(name, de.Name(), err)
			}
			continue
		}
		entries = append(entries, Entry{
			Name:       de.Name(),
			IsDir:      info.IsDir(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	return entries, nil
}

// cleanPath converts a store path into an fs.FS path.
func cleanPath(dir string) (string, error) {
	if dir == "" {
		return ".", nil
	}
	name := path.Clean(strings.TrimPrefix(dir, "/"))
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, dir)
	}
	return name, nil
}

// JoinPath joins store path segments.
func JoinPath(elem ...string) string {
	return path.Join(elem...)
}

package catalog

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/sptk-project/sptkdl/internal/storage"
	"github.com/sptk-project/sptkdl/internal/version"
)

// Reasons an entry is left out of the catalog.
const (
	DropUnreadableDir = "unreadable_dir"
	DropNotAFile      = "not_a_file"
	DropUnsafeName    = "unsafe_name"
	DropEmptyDir      = "empty_dir"
	DropEmptyVersion  = "empty_version"
)

// Stats summarizes one scan.
type Stats struct {
	Versions    int
	Directories int
	Files       int
	Dropped     map[string]int
}

func (s *Stats) drop(reason string) {
	if s.Dropped == nil {
		s.Dropped = make(map[string]int)
	}
	s.Dropped[reason]++
}

// Builder scans a Store into a Catalog.
// It holds no mutable state, so one Builder may serve concurrent requests.
type Builder struct {
	store    storage.Store
	targets  []OSTarget
	prefixes RequiredPrefixes
	logger   *slog.Logger
}

// NewBuilder creates a Builder. targets is the OS enumeration in display order.
func NewBuilder(store storage.Store, targets []OSTarget, prefixes RequiredPrefixes, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		store:    store,
		targets:  targets,
		prefixes: prefixes,
		logger:   logger,
	}
}

// ListVersions returns the top-level version directories, newest first.
// An absent or unreadable store yields an empty list.
func (b *Builder) ListVersions(ctx context.Context) []string {
	if b.store == nil {
		return []string{}
	}

	entries, err := b.store.ListEntries(ctx, "")
	if err != nil {
		b.logger.Warn("failed to list store root", "error", err)
		return []string{}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir {
			names = append(names, e.Name)
		}
	}
	return version.SortDescending(names)
}

// Build scans the store and returns the catalog. It never fails: anything that
// cannot be read is left out.
func (b *Builder) Build(ctx context.Context) *Catalog {
	cat, _ := b.Scan(ctx)
	return cat
}

// Scan is Build plus counters describing what was kept and dropped.
// A cancelled context ends the scan with the versions completed so far.
func (b *Builder) Scan(ctx context.Context) (*Catalog, Stats) {
	var stats Stats
	cat := Empty()

	for _, versionID := range b.ListVersions(ctx) {
		if ctx.Err() != nil {
			b.logger.Debug("catalog scan cancelled", "error", ctx.Err())
			break
		}

		entry := VersionEntry{VersionID: versionID, Directories: []DirectoryEntry{}}
		seen := make(map[string]bool, len(b.targets))
		for _, target := range b.targets {
			if seen[target.Key] {
				continue
			}
			seen[target.Key] = true
			if ctx.Err() != nil {
				break
			}

			dir, ok := b.scanDirectory(ctx, versionID, target, &stats)
			if !ok {
				continue
			}
			entry.Directories = append(entry.Directories, dir)
		}

		if ctx.Err() != nil {
			// A partially listed version is discarded.
			b.logger.Debug("catalog scan cancelled", "version", versionID, "error", ctx.Err())
			break
		}
		if len(entry.Directories) == 0 {
			stats.drop(DropEmptyVersion)
			continue
		}
		stats.Versions++
		stats.Directories += len(entry.Directories)
		cat.Versions = append(cat.Versions, entry)
	}

	b.logger.Debug("catalog scanned",
		"versions", stats.Versions,
		"directories", stats.Directories,
		"files", stats.Files,
	)
	return cat, stats
}

// scanDirectory builds the directory for one (version, OS) pair.
// ok is false when the directory is absent, unreadable or has nothing to show.
// A listing that fails because ctx is done is not counted as a drop.
func (b *Builder) scanDirectory(ctx context.Context, versionID string, target OSTarget, stats *Stats) (DirectoryEntry, bool) {
	dirPath := storage.JoinPath(versionID, target.Key)
	entries, err := b.store.ListEntries(ctx, dirPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && ctx.Err() == nil {
			b.logger.Debug("dropping unreadable directory", "path", dirPath, "error", err)
			stats.drop(DropUnreadableDir)
		}
		return DirectoryEntry{}, false
	}

	files := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		if e.IsDir {
			stats.drop(DropNotAFile)
			continue
		}
		if !SafeName(e.Name) {
			b.logger.Debug("dropping unsafe file name", "path", dirPath, "name", e.Name)
			stats.drop(DropUnsafeName)
			continue
		}
		files = append(files, FileEntry{
			Name:                 e.Name,
			ModifiedDate:         FormatDate(e.ModifiedAt),
			SizeLabel:            FormatSize(e.Size),
			IsRequiredDependency: b.prefixes.Match(e.Name),
		})
	}

	if len(files) == 0 {
		stats.drop(DropEmptyDir)
		return DirectoryEntry{}, false
	}

	stats.Files += len(files)
	return DirectoryEntry{OSKey: target.Key, Title: target.Title, Files: files}, true
}

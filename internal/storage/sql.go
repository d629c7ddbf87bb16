package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNilArtifact is returned when seeding a nil artifact.
var ErrNilArtifact = errors.New("artifact cannot be nil")

// Config holds database configuration
type Config struct {
	DatabasePath string
	LogLevel     string // silent, error, warn, info
}

// DB is a Store over an externally maintained SQLite artifacts table.
// The hierarchy is implied by the columns: root lists versions, "<version>" lists
// its OS keys and "<version>/<os>" lists files in insertion order.
type DB struct {
	db *gorm.DB
}

// InitDB initializes the database connection and runs migrations
func InitDB(cfg Config) (*DB, error) {
	logLevel := logger.Silent
	switch cfg.LogLevel {
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	case "info":
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Every pooled connection to ":memory:" would open its own empty database.
	if cfg.DatabasePath == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// Migrating an empty database makes it readable as an empty store.
	if err := db.AutoMigrate(&Artifact{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// ListEntries implements Store.
func (d *DB) ListEntries(ctx context.Context, dir string) ([]Entry, error) {
	name, err := cleanPath(dir)
	if err != nil {
		return nil, err
	}

	var parts []string
	if name != "." {
		parts = strings.Split(name, "/")
	}

	switch len(parts) {
	case 0:
		return d.listVersions(ctx)
	case 1:
		return d.listOSKeys(ctx, parts[0])
	case 2:
		return d.listFiles(ctx, parts[0], parts[1])
	default:
		return nil, notExist(name)
	}
}

func (d *DB) listVersions(ctx context.Context) ([]Entry, error) {
	var versions []string
	if err := d.db.WithContext(ctx).Model(&Artifact{}).
		Group("version").Order("MIN(id)").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return dirEntries(versions), nil
}

func (d *DB) listOSKeys(ctx context.Context, version string) ([]Entry, error) {
	var keys []string
	if err := d.db.WithContext(ctx).Model(&Artifact{}).Where("version = ?", version).
		Group("os_key").Order("MIN(id)").Pluck("os_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("failed to list OS directories for %s: %w", version, err)
	}
	if len(keys) == 0 {
		return nil, notExist(version)
	}
	return dirEntries(keys), nil
}

func (d *DB) listFiles(ctx context.Context, version, osKey string) ([]Entry, error) {
	var artifacts []Artifact
	if err := d.db.WithContext(ctx).Where("version = ? AND os_key = ?", version, osKey).
		Order("id").Find(&artifacts).Error; err != nil {
		return nil, fmt.Errorf("failed to list files for %s/%s: %w", version, osKey, err)
	}
	if len(artifacts) == 0 {
		return nil, notExist(JoinPath(version, osKey))
	}

	entries := make([]Entry, 0, len(artifacts))
	for _, a := range artifacts {
		entries = append(entries, Entry{
			Name:       a.Name,
			Size:       a.Size,
			ModifiedAt: a.ModifiedAt,
		})
	}
	return entries, nil
}

// AddArtifact inserts an artifact row. The catalog never writes; this exists for
// the external process that maintains the table and for tests.
func (d *DB) AddArtifact(artifact *Artifact) error {
	if artifact == nil {
		return ErrNilArtifact
	}
	if err := d.db.Create(artifact).Error; err != nil {
		return fmt.Errorf("failed to add artifact: %w", err)
	}
	return nil
}

func dirEntries(names []string) []Entry {
	entries := make([]Entry, 0, len(names))
	for _, n := range names {
		entries = append(entries, Entry{Name: n, IsDir: true})
	}
	return entries
}

func notExist(name string) error {
	return &fs.PathError{Op: "list", Path: name, Err: fs.ErrNotExist}
}

// Package config provides configuration management for the download catalog.
// It handles the YAML file naming the artifact store, the OS enumeration and
// the required-dependency prefixes.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/sptk-project/sptkdl/internal/catalog"
)

// Store kinds
const (
	StoreKindFS     = "fs"
	StoreKindSQLite = "sqlite"
)

// Sentinel errors for configuration validation
var (
	ErrVersionRequired      = errors.New("version is required")
	ErrNoOSTargets          = errors.New("at least one os target must be configured")
	ErrOSKeyRequired        = errors.New("os target key is required")
	ErrInvalidOSKey         = errors.New("os target key must be a plain directory name")
	ErrDuplicateOSKey       = errors.New("duplicate os target key")
	ErrInvalidStoreKind     = errors.New("store kind must be fs or sqlite")
	ErrStoreRootRequired    = errors.New("store root is required for fs store")
	ErrDatabasePathRequired = errors.New("database_path is required for sqlite store")
)

// Config represents the top-level configuration structure.
type Config struct {
	Version          string             `yaml:"version"`
	Metadata         Metadata           `yaml:"metadata"`
	Config           GlobalConfig       `yaml:"config"`
	OSTargets        []catalog.OSTarget `yaml:"os_targets"`
	RequiredPrefixes []string           `yaml:"required_prefixes"`
}

// Metadata represents metadata about the configuration.
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// StoreConfig selects the backing artifact store.
type StoreConfig struct {
	Kind         string `yaml:"kind"`
	Root         string `yaml:"root"`
	DatabasePath string `yaml:"database_path"`
}

// GlobalConfig represents global configuration settings.
type GlobalConfig struct {
	Store           StoreConfig `yaml:"store"`
	ListenAddr      string      `yaml:"listen_addr"`
	DownloadBaseURL string      `yaml:"download_base_url"`
	FetchTimeout    string      `yaml:"fetch_timeout"`
	SiteName        string      `yaml:"site_name"`
}

// GetFetchTimeout parses and returns the catalog fetch timeout duration
func (g *GlobalConfig) GetFetchTimeout() time.Duration {
	if g.FetchTimeout == "" {
		return 10 * time.Second
	}
	timeout, err := time.ParseDuration(g.FetchTimeout)
	if err != nil || timeout <= 0 {
		return 10 * time.Second
	}
	return timeout
}

// Targets returns the OS enumeration in declared order.
func (c *Config) Targets() []catalog.OSTarget {
	return c.OSTargets
}

// Prefixes returns the required-dependency prefixes.
func (c *Config) Prefixes() catalog.RequiredPrefixes {
	return catalog.RequiredPrefixes(c.RequiredPrefixes)
}

// LoadConfig loads and parses the configuration from a YAML file.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}
	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", filePath, err)
	}
	return config, nil
}

// Parse decodes, defaults and validates YAML configuration data.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// applyDefaults fills optional fields.
func (c *Config) applyDefaults() {
	if c.Config.Store.Kind == "" {
		c.Config.Store.Kind = StoreKindFS
	}
	if c.Config.ListenAddr == "" {
		c.Config.ListenAddr = ":8080"
	}
	if c.Config.DownloadBaseURL == "" {
		c.Config.DownloadBaseURL = "/download"
	}
	if c.Config.SiteName == "" {
		c.Config.SiteName = "Downloads"
	}
	for i := range c.OSTargets {
		c.OSTargets[i].Key = strings.TrimSpace(c.OSTargets[i].Key)
		if strings.TrimSpace(c.OSTargets[i].Title) == "" {
			c.OSTargets[i].Title = DefaultTitle(c.OSTargets[i].Key)
		}
	}
}

// DefaultTitle derives a display title from an OS key: "ubuntu-noble" -> "Ubuntu Noble".
func DefaultTitle(key string) string {
	return cases.Title(language.English).String(strings.NewReplacer("-", " ", "_", " ").Replace(key))
}

// Validate validates the configuration structure and required fields.
func (c *Config) Validate() error {
	if c.Version == "" {
		return ErrVersionRequired
	}
	if len(c.OSTargets) == 0 {
		return ErrNoOSTargets
	}

	seen := make(map[string]bool, len(c.OSTargets))
	for i, target := range c.OSTargets {
		if target.Key == "" {
			return fmt.Errorf("os_targets[%d]: %w", i, ErrOSKeyRequired)
		}
		if !catalog.SafeName(target.Key) {
			return fmt.Errorf("os_targets[%d] %q: %w", i, target.Key, ErrInvalidOSKey)
		}
		if seen[target.Key] {
			return fmt.Errorf("os_targets[%d] %q: %w", i, target.Key, ErrDuplicateOSKey)
		}
		seen[target.Key] = true
	}

	if err := c.Config.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// Validate validates store configuration.
func (s *StoreConfig) Validate() error {
	switch s.Kind {
	case StoreKindFS:
		if strings.TrimSpace(s.Root) == "" {
			return ErrStoreRootRequired
		}
	case StoreKindSQLite:
		if strings.TrimSpace(s.DatabasePath) == "" {
			return ErrDatabasePathRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStoreKind, s.Kind)
	}
	return nil
}

// DefaultConfig returns the configuration for the SPTK download area.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Metadata: Metadata{
			Name:        "sptk-downloads",
			Description: "SPTK release downloads by version and operating system",
		},
		Config: GlobalConfig{
			Store: StoreConfig{
				Kind: StoreKindFS,
				Root: "/var/www/downloads",
			},
			ListenAddr:      ":8080",
			DownloadBaseURL: "/download",
			FetchTimeout:    "10s",
			SiteName:        "SPTK Downloads",
		},
		OSTargets: []catalog.OSTarget{
			{Key: "ubuntu-noble", Title: "Ubuntu 24.04 (Noble)"},
			{Key: "ubuntu-jammy", Title: "Ubuntu 22.04 (Jammy)"},
			{Key: "debian-bookworm", Title: "Debian 12 (Bookworm)"},
			{Key: "debian-bullseye", Title: "Debian 11 (Bullseye)"},
			{Key: "fedora-40", Title: "Fedora 40"},
			{Key: "oraclelinux-9", Title: "Oracle Linux 9"},
			{Key: "tar", Title: "Source code (tar.gz)"},
			{Key: "windows", Title: "Windows"},
		},
		RequiredPrefixes: []string{"sptk-core", "xmq-server"},
	}
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filePath, err)
	}
	return nil
}

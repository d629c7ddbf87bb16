package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sptk-project/sptkdl/internal/catalog"
	"github.com/sptk-project/sptkdl/internal/config"
	"github.com/sptk-project/sptkdl/internal/selector"
	"github.com/sptk-project/sptkdl/internal/storage"
)

var fixtureTime = time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)

const fixtureTargets = `os_targets:
  - key: ubuntu-noble
    title: "Ubuntu 24.04"
  - key: windows
  - key: tar
    title: "Source"
required_prefixes: [sptk-core, xmq-server]
`

// writeStoreFixture lays out a download tree and returns its root.
func writeStoreFixture(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "downloads")
	files := map[string]int{
		"SPTK-3.10.0/ubuntu-noble/sptk-core-3.10.0.deb": 2048,
		"SPTK-3.10.0/ubuntu-noble/readme.txt":           10,
		"SPTK-3.10.0/windows/sptk-3.10.0-setup.exe":     4096,
		"SPTK-3.9.0/tar/sptk-3.9.0.tgz":                 2047,
		"SPTK-3.9.0/windows/.keep/placeholder":          1,
		"scratch/notes.txt":                             1,
	}
	for rel, size := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		if err := os.Chtimes(path, fixtureTime, fixtureTime); err != nil {
			t.Fatalf("Failed to set times: %v", err)
		}
	}
	return root
}

func writeConfig(t *testing.T, store string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sptkdl.yaml")
	data := "version: \"1.0\"\nconfig:\n  store:\n" + store + "  site_name: \"SPTK Downloads\"\n" + fixtureTargets
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func fsConfig(t *testing.T) string {
	t.Helper()
	return writeConfig(t, fmt.Sprintf("    kind: fs\n    root: %q\n", writeStoreFixture(t)))
}

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := NewApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"sptkdl"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestCatalogCommand(t *testing.T) {
	cfgPath := fsConfig(t)

	out, _, err := runApp(t, "--config", cfgPath, "--log-level", "error", "catalog", "--pretty")
	if err != nil {
		t.Fatalf("catalog command error = %v", err)
	}

	var cat catalog.Catalog
	if err := json.Unmarshal([]byte(out), &cat); err != nil {
		t.Fatalf("output is not a catalog: %v\n%s", err, out)
	}
	if got := cat.VersionIDs(); !reflect.DeepEqual(got, []string{"SPTK-3.10.0", "SPTK-3.9.0"}) {
		t.Fatalf("versions = %v", got)
	}

	newest := cat.Versions[0]
	if len(newest.Directories) != 2 || newest.Directories[0].OSKey != "ubuntu-noble" || newest.Directories[1].OSKey != "windows" {
		t.Errorf("directories = %+v, want ubuntu-noble then windows", newest.Directories)
	}
	if newest.Directories[1].Title != "Windows" {
		t.Errorf("default title = %q, want Windows", newest.Directories[1].Title)
	}

	older := cat.Versions[1]
	if len(older.Directories) != 1 || older.Directories[0].OSKey != "tar" {
		t.Errorf("older directories = %+v, want only tar", older.Directories)
	}
	if f := older.Directories[0].Files[0]; f.SizeLabel != "1 Kb" || f.ModifiedDate != "05 Mar 2024" {
		t.Errorf("file = %+v", f)
	}
}

func TestVersionsCommand(t *testing.T) {
	out, _, err := runApp(t, "--config", fsConfig(t), "versions")
	if err != nil {
		t.Fatalf("versions command error = %v", err)
	}
	if out != "SPTK-3.10.0\nSPTK-3.9.0\n" {
		t.Errorf("output = %q", out)
	}
}

func TestCommands_MissingConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	for _, cmd := range []string{"catalog", "versions", "browse"} {
		t.Run(cmd, func(t *testing.T) {
			_, stderr, err := runApp(t, "--config", missing, cmd)
			if err == nil {
				t.Fatal("expected error for missing config")
			}
			if !strings.Contains(stderr, "failed to load config") {
				t.Errorf("expected the failure to be logged, got: %s", stderr)
			}
		})
	}
}

func TestBrowseCommand(t *testing.T) {
	cfgPath := fsConfig(t)

	tests := []struct {
		name      string
		args      []string
		want      []string
		wantErrIs error
	}{
		{
			name: "default selection",
			want: []string{"* SPTK-3.10.0", "* ubuntu-noble (Ubuntu 24.04)", "sptk-core-3.10.0.deb", "yes", "readme.txt"},
		},
		{
			name: "version change resets os",
			args: []string{"--version", "SPTK-3.9.0"},
			want: []string{"* SPTK-3.9.0", "* tar (Source)", "sptk-3.9.0.tgz", "1 Kb"},
		},
		{
			name: "explicit os",
			args: []string{"--os", "windows"},
			want: []string{"* windows (Windows)", "sptk-3.10.0-setup.exe", "4 Kb"},
		},
		{
			name:      "os missing from version",
			args:      []string{"--version", "SPTK-3.9.0", "--os", "ubuntu-noble"},
			wantErrIs: selector.ErrConsistency,
		},
		{
			name:      "unknown version",
			args:      []string{"--version", "SPTK-9.9.9"},
			wantErrIs: selector.ErrConsistency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", cfgPath, "browse"}, tt.args...)
			out, _, err := runApp(t, args...)
			if tt.wantErrIs != nil {
				if !errors.Is(err, tt.wantErrIs) {
					t.Fatalf("error = %v, want %v", err, tt.wantErrIs)
				}
				return
			}
			if err != nil {
				t.Fatalf("browse error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestBrowseCommand_URL(t *testing.T) {
	body := `{"versions":[{"versionId":"SPTK-3.9.0","directories":[{"osKey":"tar","title":"Source","files":[{"name":"xmq-server-1.2.tar.gz","modifiedDate":"01 Feb 2024","sizeLabel":"12 Kb","isRequiredDependency":false}]}]}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	// No config file: defaults supply the prefixes, so the flag is recomputed locally.
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	out, _, err := runApp(t, "--config", missing, "browse", "--url", srv.URL)
	if err != nil {
		t.Fatalf("browse error = %v", err)
	}
	for _, w := range []string{"* SPTK-3.9.0", "* tar (Source)", "xmq-server-1.2.tar.gz", "yes"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestBrowseCommand_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	out, _, err := runApp(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "browse", "--url", url)
	if err != nil {
		t.Fatalf("browse error = %v", err)
	}
	if !strings.Contains(out, "No downloads are available.") {
		t.Errorf("output = %q", out)
	}

	_, _, err = runApp(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "browse", "--url", url, "--version", "SPTK-3.9.0")
	if !errors.Is(err, selector.ErrConsistency) {
		t.Errorf("error = %v, want consistency error", err)
	}
}

func TestSitegenCommand(t *testing.T) {
	cfgPath := fsConfig(t)
	outDir := filepath.Join(t.TempDir(), "site")

	out, _, err := runApp(t, "--config", cfgPath, "sitegen", "--out", outDir)
	if err != nil {
		t.Fatalf("sitegen error = %v", err)
	}
	if !strings.Contains(out, "versions: 2, pages: 6") {
		t.Errorf("summary = %q", out)
	}

	page, err := os.ReadFile(filepath.Join(outDir, "SPTK-3.10.0", "windows", "index.html"))
	if err != nil {
		t.Fatalf("Failed to read page: %v", err)
	}
	if !strings.Contains(string(page), "/download/SPTK-3.10.0/windows/sptk-3.10.0-setup.exe") {
		t.Error("page does not link the download")
	}
	if !strings.Contains(string(page), "<title>SPTK Downloads") {
		t.Error("page does not carry the site name")
	}

	out, _, err = runApp(t, "--config", cfgPath, "sitegen", "--out", outDir)
	if err != nil {
		t.Fatalf("second sitegen error = %v", err)
	}
	if !strings.Contains(out, "files written: 0") {
		t.Errorf("regeneration was not idempotent: %q", out)
	}
}

func TestSitegenCommand_DryRun(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "site")

	if _, _, err := runApp(t, "--config", fsConfig(t), "sitegen", "--out", outDir, "--dry-run"); err != nil {
		t.Fatalf("sitegen error = %v", err)
	}
	if _, err := os.Stat(outDir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("dry run created %s", outDir)
	}
}

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	db, err := storage.InitDB(storage.Config{DatabasePath: dbPath})
	if err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}
	for _, a := range []storage.Artifact{
		{Version: "SPTK-3.9.0", OSKey: "windows", Name: "sptk-3.9.0-setup.exe", Size: 3072, ModifiedAt: fixtureTime},
		{Version: "SPTK-3.10.0", OSKey: "tar", Name: "sptk-3.10.0.tgz", Size: 1024, ModifiedAt: fixtureTime},
		{Version: "SPTK-3.10.0", OSKey: "ubuntu-noble", Name: "sptk-core-3.10.0.deb", Size: 2048, ModifiedAt: fixtureTime},
	} {
		if err := db.AddArtifact(&a); err != nil {
			t.Fatalf("AddArtifact() error = %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	cfgPath := writeConfig(t, fmt.Sprintf("    kind: sqlite\n    database_path: %q\n", dbPath))
	out, _, err := runApp(t, "--config", cfgPath, "catalog")
	if err != nil {
		t.Fatalf("catalog command error = %v", err)
	}

	var cat catalog.Catalog
	if err := json.Unmarshal([]byte(out), &cat); err != nil {
		t.Fatalf("output is not a catalog: %v", err)
	}
	if got := cat.VersionIDs(); !reflect.DeepEqual(got, []string{"SPTK-3.10.0", "SPTK-3.9.0"}) {
		t.Fatalf("versions = %v", got)
	}
	var keys []string
	for _, d := range cat.Versions[0].Directories {
		keys = append(keys, d.OSKey)
	}
	if !reflect.DeepEqual(keys, []string{"ubuntu-noble", "tar"}) {
		t.Errorf("directories = %v, want configured order", keys)
	}
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sptkdl.yaml")

	out, _, err := runApp(t, "--config", path, "config", "init")
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !strings.Contains(out, "wrote "+path) {
		t.Errorf("output = %q", out)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Targets(), config.DefaultConfig().Targets()) {
		t.Errorf("targets = %v", cfg.Targets())
	}

	if _, _, err := runApp(t, "--config", path, "config", "init"); err == nil {
		t.Error("expected error when the file exists")
	}
	if _, _, err := runApp(t, "--config", path, "config", "init", "--force"); err != nil {
		t.Errorf("config init --force error = %v", err)
	}
}

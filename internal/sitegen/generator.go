package sitegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sptk-project/sptkdl/internal/catalog"
)

// ErrOutputDirRequired is returned when Generate is called without an output directory.
var ErrOutputDirRequired = errors.New("output directory is required")

// Generator orchestrates the HTML site generation process.
// Following Dave Cheney's principle: "Accept interfaces, return structs"
type Generator struct {
	source CatalogSource
	build  BuildOptions
	logger *slog.Logger
}

// NewGenerator creates a new Generator reading the catalog from source.
func NewGenerator(source CatalogSource, build BuildOptions, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if build.SiteName == "" {
		build.SiteName = "Downloads"
	}
	return &Generator{
		source: source,
		build:  build,
		logger: logger,
	}
}

// GenerateOptions contains options for site generation.
type GenerateOptions struct {
	OutputDir string
	DryRun    bool
}

// Result summarizes one generation run.
type Result struct {
	Versions int
	Pages    int
	// Written counts files whose content changed; zero on an unchanged catalog.
	Written  int
}

// Generate builds the catalog, renders the selection pages, the simple index and
// catalog.json into the output directory.
func (g *Generator) Generate(ctx context.Context, opts GenerateOptions) (*Result, error) {
	if opts.OutputDir == "" {
		return nil, ErrOutputDirRequired
	}

	g.logger.Info("starting site generation", "output_dir", opts.OutputDir, "dry_run", opts.DryRun)

	cat := g.source.Build(ctx)
	if cat == nil {
		cat = catalog.Empty()
	}
	if cat.IsEmpty() {
		g.logger.Warn("catalog is empty, rendering placeholder index")
	}

	pages, err := BuildPages(cat, g.build)
	if err != nil {
		return nil, fmt.Errorf("failed to build pages: %w", err)
	}

	res := &Result{Versions: len(cat.Versions), Pages: len(pages)}
	g.logger.Info("built site model", "versions", res.Versions, "pages", res.Pages)

	if opts.DryRun {
		g.logger.Info("dry-run mode: skipping file writes")
		return res, nil
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	n, err := RenderHumanPages(pages, opts.OutputDir, g.logger)
	res.Written += n
	if err != nil {
		return res, fmt.Errorf("failed to render human pages: %w", err)
	}

	n, err = RenderSimpleIndex(cat, g.build.DownloadBaseURL, opts.OutputDir, g.logger)
	res.Written += n
	if err != nil {
		return res, fmt.Errorf("failed to render simple index: %w", err)
	}

	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return res, fmt.Errorf("failed to serialize catalog: %w", err)
	}
	changed, err := writeFileIfChanged(filepath.Join(opts.OutputDir, "catalog.json"), append(data, '\n'), g.logger)
	if err != nil {
		return res, fmt.Errorf("failed to write catalog.json: %w", err)
	}
	if changed {
		res.Written++
	}

	g.logger.Info("site generation completed successfully", "written", res.Written)
	return res, nil
}

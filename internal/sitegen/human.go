package sitegen

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"path/filepath"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed assets/style.css
var assetsFS embed.FS

// RenderHumanPages writes the browsable selection pages and shared assets.
func RenderHumanPages(pages []Page, outDir string, logger *slog.Logger) (int, error) {
	tmpl, err := loadTemplates()
	if err != nil {
		return 0, fmt.Errorf("failed to load templates: %w", err)
	}

	written := 0
	changed, err := writeSiteAssets(outDir, logger)
	if err != nil {
		return 0, fmt.Errorf("failed to write site assets: %w", err)
	}
	if changed {
		written++
	}

	for _, page := range pages {
		changed, err := renderPage(tmpl, page, outDir, logger)
		if err != nil {
			return written, fmt.Errorf("failed to render %s: %w", page.Path, err)
		}
		if changed {
			written++
		}
	}

	return written, nil
}

// writeSiteAssets writes embedded static assets (like CSS) to the output directory.
func writeSiteAssets(outDir string, logger *slog.Logger) (bool, error) {
	data, err := fs.ReadFile(assetsFS, "assets/style.css")
	if err != nil {
		return false, fmt.Errorf("failed to read embedded style.css: %w", err)
	}

	path := filepath.Join(outDir, "assets", "style.css")
	changed, err := writeFileIfChanged(path, data, logger)
	if err != nil {
		return false, fmt.Errorf("failed to write style.css: %w", err)
	}
	return changed, nil
}

// loadTemplates parses every embedded template under its file name.
func loadTemplates() (*template.Template, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

func renderPage(tmpl *template.Template, page Page, outDir string, logger *slog.Logger) (bool, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "page.tmpl", page.Model); err != nil {
		return false, fmt.Errorf("failed to execute page template: %w", err)
	}

	path := filepath.Join(outDir, filepath.FromSlash(page.Path))
	return writeFileIfChanged(path, buf.Bytes(), logger)
}

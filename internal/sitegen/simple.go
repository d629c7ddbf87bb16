package sitegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/sptk-project/sptkdl/internal/catalog"
)

// RenderSimpleIndex writes the plain link index for download tooling:
//
//	/simple/index.html             one anchor per version
//	/simple/<version>/index.html   one anchor per file, OS directories in catalog order
//	/simple/<version>/index.json   "<version>/<os>/<name>" paths of the same files
func RenderSimpleIndex(cat *catalog.Catalog, baseURL, outDir string, logger *slog.Logger) (int, error) {
	simpleDir := filepath.Join(outDir, "simple")
	written := 0

	links := make([]SimpleLink, 0, len(cat.Versions))
	for _, v := range cat.Versions {
		links = append(links, SimpleLink{Name: v.VersionID, Href: url.PathEscape(v.VersionID) + "/"})
	}
	changed, err := writeSimplePage("Available versions", links, filepath.Join(simpleDir, "index.html"), logger)
	if err != nil {
		return written, fmt.Errorf("failed to render simple root index: %w", err)
	}
	if changed {
		written++
	}

	for _, v := range cat.Versions {
		n, err := renderSimpleVersion(v, baseURL, simpleDir, logger)
		written += n
		if err != nil {
			return written, fmt.Errorf("failed to render simple index for %s: %w", v.VersionID, err)
		}
	}

	logger.Debug("rendered simple index", "versions", len(cat.Versions))
	return written, nil
}

func renderSimpleVersion(v catalog.VersionEntry, baseURL, simpleDir string, logger *slog.Logger) (int, error) {
	versionDir := filepath.Join(simpleDir, v.VersionID)
	written := 0

	var links []SimpleLink
	paths := []string{}
	for _, d := range v.Directories {
		for _, f := range d.Files {
			links = append(links, SimpleLink{
				Name: d.OSKey + "/" + f.Name,
				Href: catalog.DownloadLink(baseURL, v.VersionID, d.OSKey, f.Name),
			})
			paths = append(paths, v.VersionID+"/"+d.OSKey+"/"+f.Name)
		}
	}

	changed, err := writeSimplePage(v.VersionID+" files", links, filepath.Join(versionDir, "index.html"), logger)
	if err != nil {
		return written, err
	}
	if changed {
		written++
	}

	data, err := json.MarshalIndent(paths, "", "  ")
	if err != nil {
		return written, fmt.Errorf("failed to serialize file index: %w", err)
	}
	changed, err = writeFileIfChanged(filepath.Join(versionDir, "index.json"), append(data, '\n'), logger)
	if err != nil {
		return written, fmt.Errorf("failed to write version JSON index: %w", err)
	}
	if changed {
		written++
	}
	return written, nil
}

func writeSimplePage(title string, links []SimpleLink, path string, logger *slog.Logger) (bool, error) {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head><title>")
	buf.WriteString(template.HTMLEscapeString(title))
	buf.WriteString("</title></head>\n<body>\n<h1>")
	buf.WriteString(template.HTMLEscapeString(title))
	buf.WriteString("</h1>\n\n")

	for _, link := range links {
		fmt.Fprintf(&buf, "<a href=\"%s\">%s</a><br/>\n",
			template.HTMLEscapeString(link.Href), template.HTMLEscapeString(link.Name))
	}

	buf.WriteString("\n</body>\n</html>\n")
	return writeFileIfChanged(path, buf.Bytes(), logger)
}

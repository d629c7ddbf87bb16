package sitegen

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/sptk-project/sptkdl/internal/catalog"
	"github.com/sptk-project/sptkdl/internal/selector"
)

// BuildOptions controls page construction.
type BuildOptions struct {
	SiteName        string
	DownloadBaseURL string
	Prefixes        catalog.RequiredPrefixes
}

// BuildPages walks every selection a visitor can reach and returns one page per state:
//
//	index.html                  default selection (newest version, its first OS)
//	<version>/index.html        version selected, OS reset to its first directory
//	<version>/<os>/index.html   explicit (version, OS) pair
//
// Pages come out in catalog order, so the result is deterministic.
func BuildPages(cat *catalog.Catalog, opts BuildOptions) ([]Page, error) {
	sel := selector.NewWithCatalog(cat, opts.Prefixes)

	root := sel.State()
	pages := []Page{{Path: "index.html", Model: pageModel(root, 0, opts)}}
	if root.Phase != selector.PhaseReady {
		return pages, nil
	}

	for _, versionID := range root.Versions {
		if err := sel.SelectVersion(versionID); err != nil {
			return nil, fmt.Errorf("failed to select version %s: %w", versionID, err)
		}
		st := sel.State()
		pages = append(pages, Page{
			Path:  path.Join(versionID, "index.html"),
			Model: pageModel(st, 1, opts),
		})

		for _, osKey := range st.OSKeys() {
			if err := sel.SelectOS(osKey); err != nil {
				return nil, fmt.Errorf("failed to select os %s/%s: %w", versionID, osKey, err)
			}
			pages = append(pages, Page{
				Path:  path.Join(versionID, osKey, "index.html"),
				Model: pageModel(sel.State(), 2, opts),
			})
		}
	}

	return pages, nil
}

// pageModel converts a selector state into template data for a page depth levels below the root.
func pageModel(st selector.State, depth int, opts BuildOptions) PageModel {
	rootPrefix := strings.Repeat("../", depth)

	m := PageModel{
		SiteName:  opts.SiteName,
		Root:      rootPrefix,
		Empty:     st.Phase != selector.PhaseReady,
		Version:   st.Version,
		OS:        st.OS,
		OSTitle:   st.Title(),
		Versions:  make([]OptionModel, 0, len(st.Versions)),
		OSOptions: make([]OptionModel, 0, len(st.Directories)),
		Files:     make([]FileModel, 0, len(st.Files)),
	}

	for _, v := range st.Versions {
		m.Versions = append(m.Versions, OptionModel{
			Key:      v,
			Label:    v,
			Href:     rootPrefix + url.PathEscape(v) + "/",
			Selected: v == st.Version,
		})
	}
	for _, d := range st.Directories {
		m.OSOptions = append(m.OSOptions, OptionModel{
			Key:      d.OSKey,
			Label:    d.Title,
			Href:     rootPrefix + url.PathEscape(st.Version) + "/" + url.PathEscape(d.OSKey) + "/",
			Selected: d.OSKey == st.OS,
		})
	}
	for _, f := range st.Files {
		m.Files = append(m.Files, FileModel{
			Name:         f.Name,
			ModifiedDate: f.ModifiedDate,
			SizeLabel:    f.SizeLabel,
			Required:     f.IsRequiredDependency,
			URL:          catalog.DownloadLink(opts.DownloadBaseURL, st.Version, st.OS, f.Name),
		})
	}
	return m
}

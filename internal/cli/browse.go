package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/sptk-project/sptkdl/internal/client"
	"github.com/sptk-project/sptkdl/internal/config"
	"github.com/sptk-project/sptkdl/internal/selector"
)

// browseCommand implements the browse command.
func browseCommand(c *cli.Context) error {
	log, err := newLogger(c)
	if err != nil {
		return err
	}

	var sel *selector.Selector
	if url := c.String("url"); url != "" {
		// A remote catalog does not need a store; the config only supplies prefixes.
		cfg, err := config.LoadConfig(c.String("config"))
		if errors.Is(err, os.ErrNotExist) {
			log.Debug("config not found, using defaults", "path", c.String("config"))
			cfg, err = config.DefaultConfig(), nil
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		sel = selector.New(cfg.Prefixes())
		client.New(url, client.WithLogger(log), client.WithTimeout(cfg.Config.GetFetchTimeout())).Load(c.Context, sel)
	} else {
		env, err := openEnvironment(c)
		if err != nil {
			return err
		}
		defer env.close()

		sel = selector.NewWithCatalog(env.builder.Build(c.Context), env.cfg.Prefixes())
	}

	if err := applySelection(sel, c.String("version"), c.String("os")); err != nil {
		return err
	}
	return printState(c.App.Writer, sel.State())
}

// applySelection performs the version then OS transitions requested on the command line.
func applySelection(sel *selector.Selector, versionID, osKey string) error {
	if sel.State().Phase != selector.PhaseReady {
		if versionID != "" || osKey != "" {
			return fmt.Errorf("cannot select from an empty catalog: %w", selector.ErrConsistency)
		}
		return nil
	}
	if versionID != "" {
		if err := sel.SelectVersion(versionID); err != nil {
			return err
		}
	}
	if osKey != "" {
		if err := sel.SelectOS(osKey); err != nil {
			return err
		}
	}
	return nil
}

// printState renders both option lists and the file table of a selector state.
func printState(w io.Writer, st selector.State) error {
	if st.Phase != selector.PhaseReady {
		_, err := fmt.Fprintln(w, "No downloads are available.")
		return err
	}

	var b strings.Builder
	b.WriteString("Versions:\n")
	for _, v := range st.Versions {
		writeOption(&b, v, v == st.Version)
	}
	b.WriteString("Operating systems:\n")
	for _, d := range st.Directories {
		writeOption(&b, d.OSKey+" ("+d.Title+")", d.OSKey == st.OS)
	}
	b.WriteString("\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	rows := make([][]string, 0, len(st.Files))
	for _, f := range st.Files {
		required := ""
		if f.IsRequiredDependency {
			required = "yes"
		}
		rows = append(rows, []string{f.Name, f.ModifiedDate, f.SizeLabel, required})
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"File", "Modified", "Size", "Required"})
	table.AppendBulk(rows)
	table.Render()
	return nil
}

func writeOption(b *strings.Builder, label string, selected bool) {
	marker := "  "
	if selected {
		marker = "* "
	}
	b.WriteString("  " + marker + label + "\n")
}

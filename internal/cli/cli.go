// Package cli provides the command-line interface for the download catalog.
// It loads the YAML configuration, opens the artifact store and wires the
// catalog builder into the catalog, browse, serve and sitegen commands.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/sptk-project/sptkdl/internal/config"
	"github.com/sptk-project/sptkdl/internal/server"
	"github.com/sptk-project/sptkdl/internal/sitegen"
)

// DefaultConfigPath is used when neither --config nor SPTKDL_CONFIG is set.
const DefaultConfigPath = "sptkdl.yaml"

// NewApp creates and configures the main CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:     "sptkdl",
		Usage:    "Publish and browse the release download catalog",
		Version:  "1.0.0",
		Compiled: time.Now(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   DefaultConfigPath,
				Usage:   "path to catalog configuration file",
				EnvVars: []string{"SPTKDL_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
				EnvVars: []string{"SPTKDL_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "json",
				Usage:   "log format (json, text)",
				EnvVars: []string{"SPTKDL_LOG_FORMAT"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "catalog",
				Usage: "Build the catalog from the store and print it as JSON",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "indent the JSON output",
					},
				},
				Action: catalogCommand,
			},
			{
				Name:   "versions",
				Usage:  "List the version directories of the store, newest first",
				Action: versionsCommand,
			},
			{
				Name:  "browse",
				Usage: "Walk the cascading selection and print the options and file table",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "version",
						Usage: "version to select (defaults to the newest)",
					},
					&cli.StringFlag{
						Name:  "os",
						Usage: "operating system to select (defaults to the version's first)",
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "fetch the catalog from a running server instead of scanning the store",
					},
				},
				Action: browseCommand,
			},
			{
				Name:  "serve",
				Usage: "Serve the catalog API, downloads and metrics over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "listen address (defaults to config listen_addr)",
						EnvVars: []string{"SPTKDL_ADDR"},
					},
				},
				Action: serveCommand,
			},
			{
				Name:  "sitegen",
				Usage: "Generate the static download site",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "out",
						Usage:    "output directory for generated HTML files",
						Required: true,
						EnvVars:  []string{"SITEGEN_OUT"},
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "validate without writing files",
					},
				},
				Action: sitegenCommand,
			},
			{
				Name:  "config",
				Usage: "Manage the configuration file",
				Subcommands: []*cli.Command{
					{
						Name:  "init",
						Usage: "Write the default configuration",
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "force",
								Usage: "overwrite an existing file",
							},
						},
						Action: configInitCommand,
					},
				},
			},
		},
	}
}

// catalogCommand implements the catalog command.
func catalogCommand(c *cli.Context) error {
	env, err := openEnvironment(c)
	if err != nil {
		return err
	}
	defer env.close()

	cat := env.builder.Build(c.Context)

	enc := json.NewEncoder(c.App.Writer)
	if c.Bool("pretty") {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(cat); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}

// versionsCommand implements the versions command.
func versionsCommand(c *cli.Context) error {
	env, err := openEnvironment(c)
	if err != nil {
		return err
	}
	defer env.close()

	for _, v := range env.builder.ListVersions(c.Context) {
		if _, err := fmt.Fprintln(c.App.Writer, v); err != nil {
			return err
		}
	}
	return nil
}

// serveCommand implements the serve command.
func serveCommand(c *cli.Context) error {
	env, err := openEnvironment(c)
	if err != nil {
		return err
	}
	defer env.close()

	addr := c.String("addr")
	if addr == "" {
		addr = env.cfg.Config.ListenAddr
	}

	opts := server.Options{
		Builder:  env.builder,
		Targets:  env.cfg.Targets(),
		Registry: env.registry,
		Metrics:  env.metrics,
		Logger:   env.logger,
	}
	if env.files != nil {
		opts.Files = env.files.FS()
	} else {
		env.logger.Info("downloads disabled for this store kind", "kind", env.cfg.Config.Store.Kind)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(opts).ListenAndServe(ctx, addr)
}

// sitegenCommand implements the sitegen command.
func sitegenCommand(c *cli.Context) error {
	env, err := openEnvironment(c)
	if err != nil {
		return err
	}
	defer env.close()

	generator := sitegen.NewGenerator(env.builder, sitegen.BuildOptions{
		SiteName:        env.cfg.Config.SiteName,
		DownloadBaseURL: env.cfg.Config.DownloadBaseURL,
		Prefixes:        env.cfg.Prefixes(),
	}, env.logger)

	res, err := generator.Generate(c.Context, sitegen.GenerateOptions{
		OutputDir: c.String("out"),
		DryRun:    c.Bool("dry-run"),
	})
	if err != nil {
		return fmt.Errorf("site generation failed: %w", err)
	}

	_, err = fmt.Fprintf(c.App.Writer, "versions: %d, pages: %d, files written: %d\n", res.Versions, res.Pages, res.Written)
	return err
}

// configInitCommand implements the config init command.
func configInitCommand(c *cli.Context) error {
	path := c.String("config")
	if !c.Bool("force") {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check config file %s: %w", path, err)
		}
	}

	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return err
}

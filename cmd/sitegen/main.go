// Package main provides the standalone sitegen command for rendering the static
// download site straight from a store directory, without a configuration file.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/sptk-project/sptkdl/internal/catalog"
	"github.com/sptk-project/sptkdl/internal/config"
	"github.com/sptk-project/sptkdl/internal/logger"
	"github.com/sptk-project/sptkdl/internal/sitegen"
	"github.com/sptk-project/sptkdl/internal/storage"
)

func main() {
	app := &cli.App{
		Name:  "sitegen",
		Usage: "Generate the static download site from a store directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "root",
				Usage:    "download root containing version directories",
				Required: true,
				EnvVars:  []string{"SITEGEN_ROOT"},
			},
			&cli.StringFlag{
				Name:     "out",
				Usage:    "output directory for generated HTML files",
				Required: true,
				EnvVars:  []string{"SITEGEN_OUT"},
			},
			&cli.StringFlag{
				Name:    "download-base-url",
				Value:   "/download",
				Usage:   "URL prefix of the download links",
				EnvVars: []string{"SITEGEN_DOWNLOAD_BASE_URL"},
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "validate without writing files",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
				EnvVars: []string{"SITEGEN_LOG_LEVEL"},
			},
		},
		Action: runSitegen,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// runSitegen executes the site generation process with the default OS enumeration.
func runSitegen(c *cli.Context) error {
	l, err := logger.New(c.String("log-level"), "json", os.Stderr)
	if err != nil {
		return err
	}

	store, err := storage.NewDir(c.String("root"), storage.WithLogger(l))
	if err != nil {
		return err
	}

	defaults := config.DefaultConfig()
	builder := catalog.NewBuilder(store, defaults.Targets(), defaults.Prefixes(), l)

	generator := sitegen.NewGenerator(builder, sitegen.BuildOptions{
		SiteName:        defaults.Config.SiteName,
		DownloadBaseURL: c.String("download-base-url"),
		Prefixes:        defaults.Prefixes(),
	}, l)

	_, err = generator.Generate(c.Context, sitegen.GenerateOptions{
		OutputDir: c.String("out"),
		DryRun:    c.Bool("dry-run"),
	})
	return err
}

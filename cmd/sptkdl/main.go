// Package main provides the sptkdl command: catalog building, browsing,
// serving and static site generation from one YAML configuration.
package main

import (
	"log"
	"os"

	"github.com/sptk-project/sptkdl/internal/cli"
)

func main() {
	app := cli.NewApp()

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

var version = "dev"

func main() {
	app := newApp(afero.NewOsFs(), os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "scrollmarks:", err)
		os.Exit(1)
	}
}

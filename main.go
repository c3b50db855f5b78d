package main

import (
	"os"

	"github.com/temirov/reposync/cmd/cli"
)

// main executes the reposync command-line application.
func main() {
	os.Exit(cli.Run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

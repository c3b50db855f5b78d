// Package cli constructs the reposync command-line interface, wiring the
// Cobra command hierarchy, configuration loader, and structured logging
// primitives. The clone and sync subcommands are provided by the fleet package.
package cli

// Package fleet runs clone and sync operations over every repository named in a list file.
//
// Runner fans the per-repository synchronizer out over a bounded worker group,
// records exactly one result per repository, and never lets one repository's
// failure cancel another. StatusReporter receives progress as it happens; the
// console implementation renders the human-readable lines printed by the CLI.
// CommandBuilder exposes the clone and sync cobra commands.
package fleet

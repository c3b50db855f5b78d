// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with zap logging and lifecycle
// observers, OSCommandRunner executes processes through os/exec with context
// cancellation, and CommandMessageFormatter renders human-readable
// descriptions of the git commands reposync issues.
package execshell

// Package gitrepo maps repository operations onto git invocations.
//
// RepositoryManager runs clone, pull, fetch, branch inspection, status, and
// fast-forward commands through a shared.GitExecutor and converts failures into
// typed repository errors. NormalizeRepository resolves raw repository
// references into canonical HTTPS URLs and local directory names.
package gitrepo

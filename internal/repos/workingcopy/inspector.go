// Package workingcopy classifies paths that a clone would target.
package workingcopy

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"github.com/temirov/reposync/internal/repos/shared"
)

const (
	inspectErrorTemplateConstant = "unable to inspect %s: %w"
	gitDirectoryNameConstant     = ".git"
)

// Inspector opens existing paths read-only with go-git to tell repositories from other directories.
type Inspector struct {
	fileSystem shared.FileSystem
}

// NewInspector constructs an Inspector that checks existence through the provided filesystem.
func NewInspector(fileSystem shared.FileSystem) *Inspector {
	return &Inspector{fileSystem: fileSystem}
}

// Inspect reports whether repositoryPath is absent, a git repository, or occupied by something else.
//
// Only repositoryPath itself is opened; parent directories are never searched for a repository.
func (inspector *Inspector) Inspect(repositoryPath string) (shared.WorkingCopyState, error) {
	pathInfo, statError := inspector.fileSystem.Stat(repositoryPath)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return shared.WorkingCopyAbsent, nil
		}
		return shared.WorkingCopyAbsent, fmt.Errorf(inspectErrorTemplateConstant, repositoryPath, statError)
	}
	if !pathInfo.IsDir() {
		return shared.WorkingCopyOccupied, nil
	}

	_, openError := git.PlainOpenWithOptions(repositoryPath, &git.PlainOpenOptions{DetectDotGit: false})
	switch {
	case openError == nil:
		return shared.WorkingCopyRepository, nil
	case errors.Is(openError, git.ErrRepositoryNotExists):
		return shared.WorkingCopyOccupied, nil
	default:
		// go-git rejects some repositories git itself accepts, such as unsupported extensions.
		if _, dotGitError := inspector.fileSystem.Stat(filepath.Join(repositoryPath, gitDirectoryNameConstant)); dotGitError == nil {
			return shared.WorkingCopyRepository, nil
		}
		return shared.WorkingCopyOccupied, nil
	}
}

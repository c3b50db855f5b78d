package dependencies

import (
	"go.uber.org/zap"

	"github.com/temirov/reposync/internal/execshell"
	"github.com/temirov/reposync/internal/gitrepo"
	"github.com/temirov/reposync/internal/repos/filesystem"
	"github.com/temirov/reposync/internal/repos/shared"
	"github.com/temirov/reposync/internal/repos/workingcopy"
)

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing shared.FileSystem) shared.FileSystem {
	if existing != nil {
		return existing
	}
	return filesystem.OSFileSystem{}
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
// The observer, when non-nil, receives command lifecycle events from the default executor.
func ResolveGitExecutor(existing shared.GitExecutor, logger *zap.Logger, observer execshell.CommandEventObserver) (shared.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	shellExecutor, creationError := execshell.NewShellExecutorWithObserver(logger, execshell.NewOSCommandRunner(), observer)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveGitRepositoryManager returns the provided repository manager or constructs one from the executor.
func ResolveGitRepositoryManager(existing shared.GitRepositoryManager, executor shared.GitExecutor) (shared.GitRepositoryManager, error) {
	if existing != nil {
		return existing, nil
	}
	return gitrepo.NewRepositoryManager(executor)
}

// ResolveWorkingCopyInspector returns the provided inspector or a go-git backed default.
func ResolveWorkingCopyInspector(existing shared.WorkingCopyInspector, fileSystem shared.FileSystem) shared.WorkingCopyInspector {
	if existing != nil {
		return existing
	}
	return workingcopy.NewInspector(ResolveFileSystem(fileSystem))
}

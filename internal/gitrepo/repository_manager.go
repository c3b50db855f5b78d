package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/temirov/reposync/internal/execshell"
	repoerrors "github.com/temirov/reposync/internal/repos/errors"
	"github.com/temirov/reposync/internal/repos/shared"
)

const (
	gitCloneSubcommandConstant            = "clone"
	gitPullSubcommandConstant             = "pull"
	gitFetchSubcommandConstant            = "fetch"
	gitFetchAllFlagConstant               = "--all"
	gitPruneFlagConstant                  = "--prune"
	gitPruneTagsFlagConstant              = "--prune-tags"
	gitRevParseSubcommandConstant         = "rev-parse"
	gitAbbrevRefFlagConstant              = "--abbrev-ref"
	gitHeadReferenceConstant              = "HEAD"
	gitForEachRefSubcommandConstant       = "for-each-ref"
	gitBranchUpstreamFormatConstant       = "--format=%(refname:short):%(upstream:short)"
	gitLocalBranchesNamespaceConstant     = "refs/heads"
	gitStatusSubcommandConstant           = "status"
	gitPorcelainFlagConstant              = "--porcelain"
	gitMergeSubcommandConstant            = "merge"
	gitFastForwardOnlyFlagConstant        = "--ff-only"
	gitLocalRepositoryRemoteConstant      = "."
	refspecSeparatorConstant              = ":"
	branchListLineSeparatorConstant       = "\n"
	gitExecutorMissingMessageConstant     = "git executor not configured"
	emptyCurrentBranchMessageConstant     = "current branch query returned no output"
	repositoryPathRequiredMessageConstant = "repository path is required"
)

// ErrGitExecutorNotConfigured indicates the repository manager was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// RepositoryManager issues the git commands that clone and reconcile working copies.
type RepositoryManager struct {
	executor shared.GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager backed by the provided executor.
func NewRepositoryManager(executor shared.GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// Clone clones remoteURL into repositoryPath.
func (manager *RepositoryManager) Clone(executionContext context.Context, remoteURL string, repositoryPath string) error {
	_, cloneError := manager.run(executionContext, commandInvocation{
		operation: repoerrors.OperationClone,
		path:      repositoryPath,
		arguments: []string{gitCloneSubcommandConstant, remoteURL, repositoryPath},
	})
	return cloneError
}

// Pull pulls the checked-out branch of repositoryPath.
func (manager *RepositoryManager) Pull(executionContext context.Context, repositoryPath string) error {
	_, pullError := manager.run(executionContext, commandInvocation{
		operation:        repoerrors.OperationPull,
		path:             repositoryPath,
		workingDirectory: repositoryPath,
		arguments:        []string{gitPullSubcommandConstant},
	})
	return pullError
}

// FetchAllPrune fetches every remote, deleting tracking refs and tags that no longer exist upstream.
func (manager *RepositoryManager) FetchAllPrune(executionContext context.Context, repositoryPath string) error {
	_, fetchError := manager.run(executionContext, commandInvocation{
		operation:        repoerrors.OperationFetch,
		path:             repositoryPath,
		workingDirectory: repositoryPath,
		arguments:        []string{gitFetchSubcommandConstant, gitFetchAllFlagConstant, gitPruneFlagConstant, gitPruneTagsFlagConstant},
	})
	return fetchError
}

// CurrentBranch returns the checked-out branch, or HEAD when detached.
func (manager *RepositoryManager) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, revParseError := manager.run(executionContext, commandInvocation{
		operation:        repoerrors.OperationCurrentBranch,
		kind:             repoerrors.KindBranchReadFailure,
		path:             repositoryPath,
		workingDirectory: repositoryPath,
		arguments:        []string{gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant},
	})
	if revParseError != nil {
		return "", revParseError
	}

	branchName := strings.TrimSpace(executionResult.StandardOutput)
	if len(branchName) == 0 {
		return "", repoerrors.OperationError{
			Kind:      repoerrors.KindBranchReadFailure,
			Operation: repoerrors.OperationCurrentBranch,
			Path:      repositoryPath,
			Detail:    emptyCurrentBranchMessageConstant,
		}
	}
	return branchName, nil
}

// ListBranchUpstreams enumerates local branches that track an upstream, in git's order.
func (manager *RepositoryManager) ListBranchUpstreams(executionContext context.Context, repositoryPath string) ([]shared.BranchUpstreamPair, error) {
	executionResult, listError := manager.run(executionContext, commandInvocation{
		operation:        repoerrors.OperationListBranches,
		kind:             repoerrors.KindBranchReadFailure,
		path:             repositoryPath,
		workingDirectory: repositoryPath,
		arguments:        []string{gitForEachRefSubcommandConstant, gitBranchUpstreamFormatConstant, gitLocalBranchesNamespaceConstant},
	})
	if listError != nil {
		return nil, listError
	}
	return ParseBranchUpstreams(executionResult.StandardOutput), nil
}

// CheckCleanWorktree reports whether the working tree has no modified, staged, or untracked entries.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	executionResult, statusError := manager.run(executionContext, commandInvocation{
		operation:        repoerrors.OperationStatus,
		path:             repositoryPath,
		workingDirectory: repositoryPath,
		arguments:        []string{gitStatusSubcommandConstant, gitPorcelainFlagConstant},
	})
	if statusError != nil {
		return false, statusError
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) == 0, nil
}

// MergeFastForwardOnly advances the checked-out branch to upstream, refusing to create a merge commit.
func (manager *RepositoryManager) MergeFastForwardOnly(executionContext context.Context, repositoryPath string, upstream string) error {
	_, mergeError := manager.run(executionContext, commandInvocation{
		operation:        repoerrors.OperationMerge,
		path:             repositoryPath,
		subject:          upstream,
		workingDirectory: repositoryPath,
		arguments:        []string{gitMergeSubcommandConstant, gitFastForwardOnlyFlagConstant, upstream},
	})
	return mergeError
}

// FetchRefToRef moves the local branch ref to upstream without checking it out.
func (manager *RepositoryManager) FetchRefToRef(executionContext context.Context, repositoryPath string, upstream string, local string) error {
	_, fetchError := manager.run(executionContext, commandInvocation{
		operation:        repoerrors.OperationRefUpdate,
		path:             repositoryPath,
		subject:          local,
		workingDirectory: repositoryPath,
		arguments:        []string{gitFetchSubcommandConstant, gitLocalRepositoryRemoteConstant, upstream + refspecSeparatorConstant + local},
	})
	return fetchError
}

// ParseBranchUpstreams parses "local:upstream" lines, dropping branches without an upstream.
func ParseBranchUpstreams(output string) []shared.BranchUpstreamPair {
	pairs := make([]shared.BranchUpstreamPair, 0)
	for _, rawLine := range strings.Split(output, branchListLineSeparatorConstant) {
		line := strings.TrimSpace(rawLine)
		if len(line) == 0 || strings.HasSuffix(line, refspecSeparatorConstant) {
			continue
		}
		local, upstream, found := strings.Cut(line, refspecSeparatorConstant)
		if !found || len(local) == 0 || len(upstream) == 0 {
			continue
		}
		pairs = append(pairs, shared.BranchUpstreamPair{Local: local, Upstream: upstream})
	}
	return pairs
}

type commandInvocation struct {
	operation        repoerrors.Operation
	kind             repoerrors.Kind
	path             string
	subject          string
	workingDirectory string
	arguments        []string
}

func (manager *RepositoryManager) run(executionContext context.Context, invocation commandInvocation) (execshell.ExecutionResult, error) {
	if len(strings.TrimSpace(invocation.path)) == 0 {
		return execshell.ExecutionResult{}, repoerrors.OperationError{
			Kind:      repoerrors.KindExecutorFailure,
			Operation: invocation.operation,
			Detail:    repositoryPathRequiredMessageConstant,
		}
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            invocation.arguments,
		WorkingDirectory:     invocation.workingDirectory,
		EnvironmentVariables: shared.GitEnvironment(),
	})
	if executionError == nil {
		return executionResult, nil
	}

	kind := invocation.kind
	if len(kind) == 0 {
		kind = repoerrors.KindExecutorFailure
	}
	return execshell.ExecutionResult{}, repoerrors.OperationError{
		Kind:      kind,
		Operation: invocation.operation,
		Path:      invocation.path,
		Subject:   invocation.subject,
		Detail:    describeExecutionFailure(executionError),
		Cause:     executionError,
	}
}

func describeExecutionFailure(executionError error) string {
	var failedError execshell.CommandFailedError
	if errors.As(executionError, &failedError) {
		if trimmed := strings.TrimSpace(failedError.Result.StandardError); len(trimmed) > 0 {
			return trimmed
		}
		return failedError.Error()
	}
	var startError execshell.CommandExecutionError
	if errors.As(executionError, &startError) && startError.Cause != nil {
		return startError.Cause.Error()
	}
	return executionError.Error()
}

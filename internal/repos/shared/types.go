package shared

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"github.com/temirov/reposync/internal/execshell"
)

const (
	// GitTerminalPromptEnvironmentVariableConstant disables interactive credential prompts.
	GitTerminalPromptEnvironmentVariableConstant = "GIT_TERMINAL_PROMPT"
	// GitTerminalPromptDisabledValueConstant is the value that disables prompts.
	GitTerminalPromptDisabledValueConstant = "0"
	// DetachedHeadReferenceConstant is what the current-branch query prints without a checked-out branch.
	DetachedHeadReferenceConstant = "HEAD"

	repositoryPathEmptyMessageConstant     = "repository path must not be empty"
	repositoryPathMultilineMessageConstant = "repository path must be a single line"
	lineBreakCharactersConstant            = "\r\n"
)

// ErrRepositoryPathEmpty indicates an empty repository path.
var ErrRepositoryPathEmpty = errors.New(repositoryPathEmptyMessageConstant)

// ErrRepositoryPathMultiline indicates a repository path containing line breaks.
var ErrRepositoryPathMultiline = errors.New(repositoryPathMultilineMessageConstant)

// RepositoryPath identifies a working copy on disk.
type RepositoryPath struct {
	value string
}

// NewRepositoryPath validates and trims a working copy path.
func NewRepositoryPath(raw string) (RepositoryPath, error) {
	if strings.ContainsAny(strings.Trim(raw, " \t"), lineBreakCharactersConstant) {
		return RepositoryPath{}, ErrRepositoryPathMultiline
	}
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) == 0 {
		return RepositoryPath{}, ErrRepositoryPathEmpty
	}
	return RepositoryPath{value: trimmed}, nil
}

// String returns the path.
func (path RepositoryPath) String() string {
	return path.value
}

// BranchUpstreamPair couples a local branch with the remote-tracking branch it follows.
type BranchUpstreamPair struct {
	Local    string
	Upstream string
}

// FileSystem exposes filesystem operations required by repository services.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	MkdirAll(path string, permissions fs.FileMode) error
	Abs(path string) (string, error)
	ReadFile(path string) ([]byte, error)
}

// GitExecutor exposes the subset of shell execution used by repository services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// GitRepositoryManager exposes the git operations used to clone and reconcile working copies.
type GitRepositoryManager interface {
	Clone(executionContext context.Context, remoteURL string, repositoryPath string) error
	Pull(executionContext context.Context, repositoryPath string) error
	FetchAllPrune(executionContext context.Context, repositoryPath string) error
	CurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	ListBranchUpstreams(executionContext context.Context, repositoryPath string) ([]BranchUpstreamPair, error)
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	MergeFastForwardOnly(executionContext context.Context, repositoryPath string, upstream string) error
	FetchRefToRef(executionContext context.Context, repositoryPath string, upstream string, local string) error
}

// WorkingCopyState describes what occupies a path that a clone would target.
type WorkingCopyState int

// Working copy states.
const (
	// WorkingCopyAbsent indicates nothing exists at the path.
	WorkingCopyAbsent WorkingCopyState = iota
	// WorkingCopyRepository indicates a git repository exists at the path.
	WorkingCopyRepository
	// WorkingCopyOccupied indicates the path exists but is not a git repository.
	WorkingCopyOccupied
)

// WorkingCopyInspector classifies an existing path without mutating it.
type WorkingCopyInspector interface {
	Inspect(repositoryPath string) (WorkingCopyState, error)
}

// GitEnvironment returns the environment applied to every git invocation.
func GitEnvironment() map[string]string {
	return map[string]string{GitTerminalPromptEnvironmentVariableConstant: GitTerminalPromptDisabledValueConstant}
}

package gitrepo_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/reposync/internal/execshell"
	"github.com/temirov/reposync/internal/gitrepo"
	repoerrors "github.com/temirov/reposync/internal/repos/errors"
	"github.com/temirov/reposync/internal/repos/shared"
)

const testRepositoryPathConstant = "/workspace/repo"

type scriptedResponse struct {
	result execshell.ExecutionResult
	err    error
}

type scriptedGitExecutor struct {
	responses       map[string]scriptedResponse
	recordedDetails []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	response := executor.responses[strings.Join(details.Arguments, " ")]
	return response.result, response.err
}

func commandFailure(arguments []string, exitCode int, standardError string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: arguments}},
		Result:  execshell.ExecutionResult{ExitCode: exitCode, StandardError: standardError},
	}
}

func TestNewRepositoryManagerRequiresExecutor(testInstance *testing.T) {
	manager, creationError := gitrepo.NewRepositoryManager(nil)
	require.ErrorIs(testInstance, creationError, gitrepo.ErrGitExecutorNotConfigured)
	require.Nil(testInstance, manager)
}

func TestRepositoryManagerIssuesExpectedCommands(testInstance *testing.T) {
	testCases := []struct {
		name                     string
		invoke                   func(manager *gitrepo.RepositoryManager) error
		expectedArguments        []string
		expectedWorkingDirectory string
	}{
		{
			name: "clone",
			invoke: func(manager *gitrepo.RepositoryManager) error {
				return manager.Clone(context.Background(), "https://github.com/owner/repo", testRepositoryPathConstant)
			},
			expectedArguments: []string{"clone", "https://github.com/owner/repo", testRepositoryPathConstant},
		},
		{
			name: "pull",
			invoke: func(manager *gitrepo.RepositoryManager) error {
				return manager.Pull(context.Background(), testRepositoryPathConstant)
			},
			expectedArguments:        []string{"pull"},
			expectedWorkingDirectory: testRepositoryPathConstant,
		},
		{
			name: "fetch_all_prune",
			invoke: func(manager *gitrepo.RepositoryManager) error {
				return manager.FetchAllPrune(context.Background(), testRepositoryPathConstant)
			},
			expectedArguments:        []string{"fetch", "--all", "--prune", "--prune-tags"},
			expectedWorkingDirectory: testRepositoryPathConstant,
		},
		{
			name: "merge_fast_forward_only",
			invoke: func(manager *gitrepo.RepositoryManager) error {
				return manager.MergeFastForwardOnly(context.Background(), testRepositoryPathConstant, "origin/main")
			},
			expectedArguments:        []string{"merge", "--ff-only", "origin/main"},
			expectedWorkingDirectory: testRepositoryPathConstant,
		},
		{
			name: "fetch_ref_to_ref",
			invoke: func(manager *gitrepo.RepositoryManager) error {
				return manager.FetchRefToRef(context.Background(), testRepositoryPathConstant, "origin/feature", "feature")
			},
			expectedArguments:        []string{"fetch", ".", "origin/feature:feature"},
			expectedWorkingDirectory: testRepositoryPathConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			require.NoError(testInstance, testCase.invoke(manager))
			require.Len(testInstance, executor.recordedDetails, 1)

			recorded := executor.recordedDetails[0]
			require.Equal(testInstance, testCase.expectedArguments, recorded.Arguments)
			require.Equal(testInstance, testCase.expectedWorkingDirectory, recorded.WorkingDirectory)
			require.Equal(testInstance, "0", recorded.EnvironmentVariables["GIT_TERMINAL_PROMPT"])
		})
	}
}

func TestRepositoryManagerCurrentBranch(testInstance *testing.T) {
	revParseArguments := "rev-parse --abbrev-ref HEAD"

	testCases := []struct {
		name           string
		response       scriptedResponse
		expectedBranch string
		expectedKind   repoerrors.Kind
	}{
		{
			name:           "branch",
			response:       scriptedResponse{result: execshell.ExecutionResult{StandardOutput: "main\n"}},
			expectedBranch: "main",
		},
		{
			name:           "detached",
			response:       scriptedResponse{result: execshell.ExecutionResult{StandardOutput: "HEAD\n"}},
			expectedBranch: "HEAD",
		},
		{
			name:         "empty_output",
			response:     scriptedResponse{result: execshell.ExecutionResult{StandardOutput: "\n"}},
			expectedKind: repoerrors.KindBranchReadFailure,
		},
		{
			name:         "command_failure",
			response:     scriptedResponse{err: commandFailure(strings.Fields(revParseArguments), 128, "fatal: not a git repository")},
			expectedKind: repoerrors.KindBranchReadFailure,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{responses: map[string]scriptedResponse{revParseArguments: testCase.response}}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			branch, branchError := manager.CurrentBranch(context.Background(), testRepositoryPathConstant)
			if len(testCase.expectedKind) > 0 {
				require.Error(testInstance, branchError)
				require.True(testInstance, repoerrors.IsKind(branchError, testCase.expectedKind))
				return
			}
			require.NoError(testInstance, branchError)
			require.Equal(testInstance, testCase.expectedBranch, branch)
		})
	}
}

func TestRepositoryManagerListBranchUpstreams(testInstance *testing.T) {
	listArguments := "for-each-ref --format=%(refname:short):%(upstream:short) refs/heads"
	executor := &scriptedGitExecutor{responses: map[string]scriptedResponse{
		listArguments: {result: execshell.ExecutionResult{StandardOutput: "main:origin/main\nscratch:\nfeature/ui:upstream/feature/ui\n\n"}},
	}}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	pairs, listError := manager.ListBranchUpstreams(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, listError)
	require.Equal(testInstance, []shared.BranchUpstreamPair{
		{Local: "main", Upstream: "origin/main"},
		{Local: "feature/ui", Upstream: "upstream/feature/ui"},
	}, pairs)
}

func TestRepositoryManagerListBranchUpstreamsFailure(testInstance *testing.T) {
	listArguments := "for-each-ref --format=%(refname:short):%(upstream:short) refs/heads"
	executor := &scriptedGitExecutor{responses: map[string]scriptedResponse{
		listArguments: {err: commandFailure(strings.Fields(listArguments), 128, "fatal: bad object")},
	}}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	pairs, listError := manager.ListBranchUpstreams(context.Background(), testRepositoryPathConstant)
	require.Nil(testInstance, pairs)
	require.True(testInstance, repoerrors.IsKind(listError, repoerrors.KindBranchReadFailure))
	require.Equal(testInstance, "fatal: bad object", repoerrors.MessageOf(listError))
}

func TestParseBranchUpstreams(testInstance *testing.T) {
	testCases := []struct {
		name     string
		output   string
		expected []shared.BranchUpstreamPair
	}{
		{name: "empty", output: "", expected: []shared.BranchUpstreamPair{}},
		{name: "only_untracked", output: "scratch:\nexperiment:\n", expected: []shared.BranchUpstreamPair{}},
		{name: "windows_line_endings", output: "main:origin/main\r\n", expected: []shared.BranchUpstreamPair{{Local: "main", Upstream: "origin/main"}}},
		{name: "splits_first_separator", output: "main:origin/release:candidate", expected: []shared.BranchUpstreamPair{{Local: "main", Upstream: "origin/release:candidate"}}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, gitrepo.ParseBranchUpstreams(testCase.output))
		})
	}
}

func TestRepositoryManagerCheckCleanWorktree(testInstance *testing.T) {
	statusArguments := "status --porcelain"

	testCases := []struct {
		name          string
		response      scriptedResponse
		expectedClean bool
		expectError   bool
	}{
		{name: "clean", response: scriptedResponse{}, expectedClean: true},
		{name: "dirty", response: scriptedResponse{result: execshell.ExecutionResult{StandardOutput: "?? notes.txt\n"}}},
		{name: "failure", response: scriptedResponse{err: commandFailure(strings.Fields(statusArguments), 128, "fatal: index file corrupt")}, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{responses: map[string]scriptedResponse{statusArguments: testCase.response}}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			clean, statusError := manager.CheckCleanWorktree(context.Background(), testRepositoryPathConstant)
			if testCase.expectError {
				require.True(testInstance, repoerrors.IsKind(statusError, repoerrors.KindExecutorFailure))
				return
			}
			require.NoError(testInstance, statusError)
			require.Equal(testInstance, testCase.expectedClean, clean)
		})
	}
}

func TestRepositoryManagerWrapsExecutorFailures(testInstance *testing.T) {
	pullFailure := commandFailure([]string{"pull"}, 1, "fatal: Could not read from remote repository.\n")
	startFailure := execshell.CommandExecutionError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit},
		Cause:   errors.New("exec: \"git\": executable file not found in $PATH"),
	}

	testCases := []struct {
		name           string
		response       scriptedResponse
		expectedDetail string
	}{
		{name: "non_zero_exit", response: scriptedResponse{err: pullFailure}, expectedDetail: "fatal: Could not read from remote repository."},
		{name: "start_failure", response: scriptedResponse{err: startFailure}, expectedDetail: "exec: \"git\": executable file not found in $PATH"},
		{name: "silent_exit", response: scriptedResponse{err: commandFailure([]string{"pull"}, 1, "")}, expectedDetail: "git pull exited with code 1"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{responses: map[string]scriptedResponse{"pull": testCase.response}}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			pullError := manager.Pull(context.Background(), testRepositoryPathConstant)

			var operationError repoerrors.OperationError
			require.ErrorAs(testInstance, pullError, &operationError)
			require.Equal(testInstance, repoerrors.KindExecutorFailure, operationError.Kind)
			require.Equal(testInstance, repoerrors.OperationPull, operationError.Operation)
			require.Equal(testInstance, testRepositoryPathConstant, operationError.Path)
			require.Equal(testInstance, testCase.expectedDetail, operationError.Detail)
			require.Equal(testInstance, testCase.response.err.Error(), operationError.Cause.Error())
		})
	}
}

func TestRepositoryManagerRejectsEmptyPath(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	require.Error(testInstance, manager.Pull(context.Background(), "  "))
	require.Empty(testInstance, executor.recordedDetails)
}

package reconcile

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/temirov/reposync/internal/repos/shared"
)

const (
	repositoryPathRequiredMessageConstant   = "repository path must be provided"
	repositoryManagerMissingMessageConstant = "repository manager not configured"
	branchReconciledMessageConstant         = "branch reconciled"
	logFieldRepositoryPathConstant          = "repository_path"
	logFieldBranchConstant                  = "branch"
	logFieldUpstreamConstant                = "upstream"
	logFieldStatusConstant                  = "status"
	logFieldCurrentBranchConstant           = "current_branch"
	branchesEnumeratedMessageConstant       = "branches enumerated"
	logFieldBranchCountConstant             = "branch_count"
)

// ErrRepositoryPathRequired indicates Reconcile was called without a repository path.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// Status is the result of reconciling a single branch.
type Status string

// Branch reconciliation statuses.
const (
	StatusFastForwarded     Status = Status("fast_forwarded")
	StatusSkippedDirty      Status = Status("skipped_dirty")
	StatusUpdatedNonCurrent Status = Status("updated_non_current")
	StatusFailed            Status = Status("failed")
)

// Outcome records what happened to one branch. Error is set only when Status is StatusFailed.
type Outcome struct {
	Branch   string
	Upstream string
	Status   Status
	Error    error
}

// Dependencies enumerates external collaborators required for reconciliation.
type Dependencies struct {
	RepositoryManager shared.GitRepositoryManager
	Logger            *zap.Logger
}

// Service reconciles the local branches of a working copy with their upstreams.
type Service struct {
	repositoryManager shared.GitRepositoryManager
	logger            *zap.Logger
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repositoryManager: dependencies.RepositoryManager, logger: logger}, nil
}

// Reconcile updates every branch of repositoryPath that tracks an upstream.
//
// The steps run strictly in order: read the current branch, fetch all remotes
// with pruning, enumerate branch upstreams, then reconcile each branch. A
// failure in any of the first three steps aborts reconciliation and is
// returned with no outcomes. Per-branch failures are reported as outcomes.
// Branches without an upstream never appear in the result.
func (service *Service) Reconcile(executionContext context.Context, repositoryPath string) ([]Outcome, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return nil, ErrRepositoryPathRequired
	}

	currentBranch, currentBranchError := service.repositoryManager.CurrentBranch(executionContext, trimmedRepositoryPath)
	if currentBranchError != nil {
		return nil, currentBranchError
	}

	if fetchError := service.repositoryManager.FetchAllPrune(executionContext, trimmedRepositoryPath); fetchError != nil {
		return nil, fetchError
	}

	branchPairs, listError := service.repositoryManager.ListBranchUpstreams(executionContext, trimmedRepositoryPath)
	if listError != nil {
		return nil, listError
	}

	service.logger.Debug(
		branchesEnumeratedMessageConstant,
		zap.String(logFieldRepositoryPathConstant, trimmedRepositoryPath),
		zap.String(logFieldCurrentBranchConstant, currentBranch),
		zap.Int(logFieldBranchCountConstant, len(branchPairs)),
	)

	outcomes := make([]Outcome, 0, len(branchPairs))
	for _, branchPair := range branchPairs {
		var outcome Outcome
		if branchPair.Local == currentBranch {
			outcome = service.reconcileCurrentBranch(executionContext, trimmedRepositoryPath, branchPair)
		} else {
			outcome = service.reconcileOtherBranch(executionContext, trimmedRepositoryPath, branchPair)
		}

		service.logger.Debug(
			branchReconciledMessageConstant,
			zap.String(logFieldRepositoryPathConstant, trimmedRepositoryPath),
			zap.String(logFieldBranchConstant, outcome.Branch),
			zap.String(logFieldUpstreamConstant, outcome.Upstream),
			zap.String(logFieldStatusConstant, string(outcome.Status)),
			zap.Error(outcome.Error),
		)
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// reconcileCurrentBranch fast-forwards the checked-out branch, skipping it when the working tree is dirty.
// The status check runs immediately before the merge so the cleanliness read is never stale.
func (service *Service) reconcileCurrentBranch(executionContext context.Context, repositoryPath string, branchPair shared.BranchUpstreamPair) Outcome {
	outcome := Outcome{Branch: branchPair.Local, Upstream: branchPair.Upstream}

	clean, statusError := service.repositoryManager.CheckCleanWorktree(executionContext, repositoryPath)
	if statusError != nil {
		outcome.Status = StatusFailed
		outcome.Error = statusError
		return outcome
	}
	if !clean {
		outcome.Status = StatusSkippedDirty
		return outcome
	}

	if mergeError := service.repositoryManager.MergeFastForwardOnly(executionContext, repositoryPath, branchPair.Upstream); mergeError != nil {
		outcome.Status = StatusFailed
		outcome.Error = mergeError
		return outcome
	}

	outcome.Status = StatusFastForwarded
	return outcome
}

func (service *Service) reconcileOtherBranch(executionContext context.Context, repositoryPath string, branchPair shared.BranchUpstreamPair) Outcome {
	outcome := Outcome{Branch: branchPair.Local, Upstream: branchPair.Upstream, Status: StatusUpdatedNonCurrent}
	if updateError := service.repositoryManager.FetchRefToRef(executionContext, repositoryPath, branchPair.Upstream, branchPair.Local); updateError != nil {
		outcome.Status = StatusFailed
		outcome.Error = updateError
	}
	return outcome
}

// CombineFailures merges the errors of every failed outcome, or returns nil when none failed.
func CombineFailures(outcomes []Outcome) error {
	var combined error
	for _, outcome := range outcomes {
		if outcome.Status == StatusFailed {
			combined = multierr.Append(combined, outcome.Error)
		}
	}
	return combined
}

// SkippedBranches returns the branches whose merge was skipped because the working tree was dirty.
func SkippedBranches(outcomes []Outcome) []string {
	skipped := make([]string, 0)
	for _, outcome := range outcomes {
		if outcome.Status == StatusSkippedDirty {
			skipped = append(skipped, outcome.Branch)
		}
	}
	return skipped
}

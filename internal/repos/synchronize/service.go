// Package synchronize decides per repository whether to clone a fresh working copy or update an existing one.
package synchronize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/reposync/internal/branches/reconcile"
	"github.com/temirov/reposync/internal/gitrepo"
	"github.com/temirov/reposync/internal/repos/dependencies"
	repoerrors "github.com/temirov/reposync/internal/repos/errors"
	"github.com/temirov/reposync/internal/repos/shared"
)

const (
	repositoryManagerMissingMessageConstant = "repository manager not configured"
	branchReconcilerMissingMessageConstant  = "branch reconciler not configured"
	outputDirectoryRequiredMessageConstant  = "output directory must be provided"
	unsupportedOperationMessageConstant     = "unsupported operation"
	repositoryFailedMessageConstant         = "repository operation failed"
	repositoryCompletedMessageConstant      = "repository operation completed"
	logFieldRepositoryConstant              = "repository"
	logFieldOperationConstant               = "operation"
	logFieldPathConstant                    = "path"
	logFieldOutcomeConstant                 = "outcome"
	logFieldSkippedConstant                 = "skipped"
	logFieldWarningConstant                 = "warning"
	logFieldBranchCountConstant             = "branch_count"
	reconcileInterruptedTemplateConstant    = "interrupted: %v"
)

// Skip reasons reported for clone targets that already exist.
const (
	SkipReasonRepositoryExistsConstant = "already exists"
	SkipReasonPathOccupiedConstant     = "exists and is not a git repository"
)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// ErrBranchReconcilerNotConfigured indicates the branch reconciler dependency was missing.
var ErrBranchReconcilerNotConfigured = errors.New(branchReconcilerMissingMessageConstant)

// Operation selects the fleet-level behavior applied to each repository.
type Operation string

// Supported operations.
const (
	OperationClone Operation = Operation("clone")
	OperationSync  Operation = Operation("sync")
)

// Outcome classifies a repository result.
type Outcome string

// Repository outcomes.
const (
	OutcomeSuccess Outcome = Outcome("success")
	OutcomeFailure Outcome = Outcome("failure")
)

// BranchReconciler reconciles the branches of an existing working copy.
type BranchReconciler interface {
	Reconcile(executionContext context.Context, repositoryPath string) ([]reconcile.Outcome, error)
}

// Options configure a single synchronization.
type Options struct {
	OutputDirectory string
	Operation       Operation
}

// RunResult describes what happened to one repository.
//
// Error is set exactly when Outcome is OutcomeFailure. Warning aggregates
// per-branch failures and never affects Outcome, unless the run context ended
// while branches were reconciled. Cloned is set when this run created the
// working copy.
type RunResult struct {
	Repository gitrepo.NormalizedRepository
	Path       string
	Operation  Operation
	Outcome    Outcome
	Cloned     bool
	Skipped    bool
	SkipReason string
	Branches   []reconcile.Outcome
	Warning    error
	Error      error
}

// Failed reports whether the repository counts as failed.
func (result RunResult) Failed() bool {
	return result.Outcome == OutcomeFailure
}

// SkippedBranches lists branches left untouched because of a dirty working tree.
func (result RunResult) SkippedBranches() []string {
	return reconcile.SkippedBranches(result.Branches)
}

// Dependencies enumerates external collaborators required by the synchronizer.
type Dependencies struct {
	FileSystem        shared.FileSystem
	RepositoryManager shared.GitRepositoryManager
	Inspector         shared.WorkingCopyInspector
	Reconciler        BranchReconciler
	Logger            *zap.Logger
}

// Service synchronizes one repository at a time. It is safe for concurrent use across distinct paths.
type Service struct {
	fileSystem        shared.FileSystem
	repositoryManager shared.GitRepositoryManager
	inspector         shared.WorkingCopyInspector
	reconciler        BranchReconciler
	logger            *zap.Logger
}

// NewService constructs a Service, defaulting the filesystem and working-copy inspector.
func NewService(serviceDependencies Dependencies) (*Service, error) {
	if serviceDependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	if serviceDependencies.Reconciler == nil {
		return nil, ErrBranchReconcilerNotConfigured
	}

	fileSystem := dependencies.ResolveFileSystem(serviceDependencies.FileSystem)
	logger := serviceDependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		fileSystem:        fileSystem,
		repositoryManager: serviceDependencies.RepositoryManager,
		inspector:         dependencies.ResolveWorkingCopyInspector(serviceDependencies.Inspector, fileSystem),
		reconciler:        serviceDependencies.Reconciler,
		logger:            logger,
	}, nil
}

// Synchronize clones or updates the working copy of repository under options.OutputDirectory.
//
// In clone mode an existing path is skipped. In sync mode a missing path is
// cloned and an existing one is pulled and then reconciled branch by branch.
func (service *Service) Synchronize(executionContext context.Context, repository gitrepo.NormalizedRepository, options Options) RunResult {
	result := RunResult{
		Repository: repository,
		Operation:  options.Operation,
		Outcome:    OutcomeSuccess,
	}

	outputDirectory := strings.TrimSpace(options.OutputDirectory)
	if len(outputDirectory) == 0 {
		return service.fail(result, prepareError("", outputDirectoryRequiredMessageConstant, nil))
	}
	result.Path = filepath.Join(outputDirectory, repository.Name)

	switch options.Operation {
	case OperationClone:
		result = service.cloneOnly(executionContext, result)
	case OperationSync:
		result = service.cloneOrUpdate(executionContext, result)
	default:
		return service.fail(result, prepareError(result.Path, unsupportedOperationMessageConstant+": "+string(options.Operation), nil))
	}

	if result.Failed() {
		return result
	}

	service.logger.Debug(
		repositoryCompletedMessageConstant,
		zap.String(logFieldRepositoryConstant, repository.URL),
		zap.String(logFieldOperationConstant, string(result.Operation)),
		zap.String(logFieldPathConstant, result.Path),
		zap.String(logFieldOutcomeConstant, string(result.Outcome)),
		zap.Bool(logFieldSkippedConstant, result.Skipped),
		zap.Int(logFieldBranchCountConstant, len(result.Branches)),
		zap.NamedError(logFieldWarningConstant, result.Warning),
	)
	return result
}

func (service *Service) cloneOnly(executionContext context.Context, result RunResult) RunResult {
	state, inspectError := service.inspector.Inspect(result.Path)
	if inspectError != nil {
		return service.fail(result, prepareError(result.Path, inspectError.Error(), inspectError))
	}

	switch state {
	case shared.WorkingCopyRepository:
		return skip(result, SkipReasonRepositoryExistsConstant)
	case shared.WorkingCopyOccupied:
		return skip(result, SkipReasonPathOccupiedConstant)
	default:
		return service.clone(executionContext, result)
	}
}

func (service *Service) cloneOrUpdate(executionContext context.Context, result RunResult) RunResult {
	_, statError := service.fileSystem.Stat(result.Path)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return service.clone(executionContext, result)
		}
		return service.fail(result, prepareError(result.Path, statError.Error(), statError))
	}

	if pullError := service.repositoryManager.Pull(executionContext, result.Path); pullError != nil {
		return service.fail(result, pullError)
	}

	branchOutcomes, reconcileError := service.reconciler.Reconcile(executionContext, result.Path)
	if reconcileError != nil {
		return service.fail(result, reconcileError)
	}

	result.Branches = branchOutcomes
	result.Warning = reconcile.CombineFailures(branchOutcomes)
	if contextError := executionContext.Err(); contextError != nil && result.Warning != nil {
		return service.fail(result, repoerrors.OperationError{
			Kind:      repoerrors.KindExecutorFailure,
			Operation: repoerrors.OperationReconcile,
			Path:      result.Path,
			Detail:    fmt.Sprintf(reconcileInterruptedTemplateConstant, contextError),
			Cause:     contextError,
		})
	}
	return result
}

func (service *Service) clone(executionContext context.Context, result RunResult) RunResult {
	if cloneError := service.repositoryManager.Clone(executionContext, result.Repository.URL, result.Path); cloneError != nil {
		return service.fail(result, cloneError)
	}
	result.Cloned = true
	return result
}

func (service *Service) fail(result RunResult, failure error) RunResult {
	result.Outcome = OutcomeFailure
	result.Error = failure
	service.logger.Warn(
		repositoryFailedMessageConstant,
		zap.String(logFieldRepositoryConstant, result.Repository.URL),
		zap.String(logFieldOperationConstant, string(result.Operation)),
		zap.String(logFieldPathConstant, result.Path),
		zap.Error(failure),
	)
	return result
}

func skip(result RunResult, reason string) RunResult {
	result.Skipped = true
	result.SkipReason = reason
	return result
}

func prepareError(path string, detail string, cause error) error {
	return repoerrors.OperationError{
		Kind:      repoerrors.KindExecutorFailure,
		Operation: repoerrors.OperationPrepare,
		Path:      path,
		Detail:    detail,
		Cause:     cause,
	}
}

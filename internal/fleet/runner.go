package fleet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/reposync/internal/gitrepo"
	"github.com/temirov/reposync/internal/repos/dependencies"
	repoerrors "github.com/temirov/reposync/internal/repos/errors"
	"github.com/temirov/reposync/internal/repos/shared"
	"github.com/temirov/reposync/internal/repos/synchronize"
)

const (
	synchronizerMissingMessageConstant     = "repository synchronizer not configured"
	outputDirectoryRequiredMessageConstant = "output directory must be provided"
	outputDirectoryErrorTemplateConstant   = "unable to create output directory %s: %v"
	repositoriesFailedMessageConstant      = "repositories failed"
	runFailureTemplateConstant             = "%w: %d of %d repositories failed to %s"
	notAttemptedTemplateConstant           = "not attempted: %v"
	outputDirectoryPermissionsConstant     = fs.FileMode(0o755)
	runStartedMessageConstant              = "fleet run started"
	runFinishedMessageConstant             = "fleet run finished"
	logFieldOperationConstant              = "operation"
	logFieldTotalConstant                  = "total"
	logFieldFailedConstant                 = "failed"
	logFieldWorkersConstant                = "workers"
	logFieldTimeoutConstant                = "timeout"
	logFieldOutputDirectoryConstant        = "output_directory"
)

// ErrSynchronizerNotConfigured indicates the runner was constructed without a synchronizer.
var ErrSynchronizerNotConfigured = errors.New(synchronizerMissingMessageConstant)

// ErrOutputDirectoryRequired indicates Run was called without an output directory.
var ErrOutputDirectoryRequired = errors.New(outputDirectoryRequiredMessageConstant)

// ErrRepositoriesFailed marks the error returned by Summary.Err when at least one repository failed.
var ErrRepositoriesFailed = errors.New(repositoriesFailedMessageConstant)

// OutputDirectoryError reports that the output directory could not be created. It aborts the whole run.
type OutputDirectoryError struct {
	Path  string
	Cause error
}

// Error describes the failure.
func (outputDirectoryError OutputDirectoryError) Error() string {
	return fmt.Sprintf(outputDirectoryErrorTemplateConstant, outputDirectoryError.Path, outputDirectoryError.Cause)
}

// Unwrap exposes the underlying filesystem error.
func (outputDirectoryError OutputDirectoryError) Unwrap() error {
	return outputDirectoryError.Cause
}

// RepositorySynchronizer processes a single repository.
type RepositorySynchronizer interface {
	Synchronize(executionContext context.Context, repository gitrepo.NormalizedRepository, options synchronize.Options) synchronize.RunResult
}

// Options configure a fleet run.
type Options struct {
	Operation       synchronize.Operation
	OutputDirectory string
	// Workers bounds concurrent repositories. Zero or negative selects the CPU count.
	Workers int
	// Timeout bounds the whole run. Zero means no deadline.
	Timeout time.Duration
}

// Summary aggregates the results of a fleet run. Results keep the order of the input references.
type Summary struct {
	Operation synchronize.Operation
	Total     int
	Failed    int
	Results   []synchronize.RunResult
}

// Succeeded reports whether every repository succeeded.
func (summary Summary) Succeeded() bool {
	return summary.Failed == 0
}

// Err returns nil when every repository succeeded and an ErrRepositoriesFailed error otherwise.
func (summary Summary) Err() error {
	if summary.Succeeded() {
		return nil
	}
	return fmt.Errorf(runFailureTemplateConstant, ErrRepositoriesFailed, summary.Failed, summary.Total, summary.Operation)
}

// Dependencies enumerates collaborators used by the runner.
type Dependencies struct {
	FileSystem   shared.FileSystem
	Synchronizer RepositorySynchronizer
	Reporter     StatusReporter
	Logger       *zap.Logger
}

// Runner executes one operation across a list of repositories.
type Runner struct {
	fileSystem   shared.FileSystem
	synchronizer RepositorySynchronizer
	reporter     StatusReporter
	logger       *zap.Logger
}

// NewRunner constructs a Runner. A missing reporter discards progress.
func NewRunner(runnerDependencies Dependencies) (*Runner, error) {
	if runnerDependencies.Synchronizer == nil {
		return nil, ErrSynchronizerNotConfigured
	}

	reporter := runnerDependencies.Reporter
	if reporter == nil {
		reporter = noopStatusReporter{}
	}
	logger := runnerDependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		fileSystem:   dependencies.ResolveFileSystem(runnerDependencies.FileSystem),
		synchronizer: runnerDependencies.Synchronizer,
		reporter:     reporter,
		logger:       logger,
	}, nil
}

// Run processes every reference and returns one result per reference.
//
// The output directory is created first; failing to create it is the only
// error Run returns. Repository failures are counted in the summary instead.
// When the run context ends, in-flight repositories fail with the context
// error and repositories not yet started are recorded as not attempted.
func (runner *Runner) Run(executionContext context.Context, references []string, options Options) (Summary, error) {
	summary := Summary{Operation: options.Operation, Total: len(references)}

	outputDirectory := strings.TrimSpace(options.OutputDirectory)
	if len(outputDirectory) == 0 {
		return summary, ErrOutputDirectoryRequired
	}
	if mkdirError := runner.fileSystem.MkdirAll(outputDirectory, outputDirectoryPermissionsConstant); mkdirError != nil {
		return summary, OutputDirectoryError{Path: outputDirectory, Cause: mkdirError}
	}

	repositories := make([]gitrepo.NormalizedRepository, len(references))
	for index, reference := range references {
		repositories[index] = gitrepo.NormalizeRepository(reference)
	}

	runContext := executionContext
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		runContext, cancel = context.WithTimeout(executionContext, options.Timeout)
		defer cancel()
	}

	workers := resolveWorkers(options.Workers)
	runner.logger.Info(
		runStartedMessageConstant,
		zap.String(logFieldOperationConstant, string(options.Operation)),
		zap.Int(logFieldTotalConstant, summary.Total),
		zap.Int(logFieldWorkersConstant, workers),
		zap.Duration(logFieldTimeoutConstant, options.Timeout),
		zap.String(logFieldOutputDirectoryConstant, outputDirectory),
	)
	runner.reporter.RunStarted(options.Operation, summary.Total, outputDirectory)

	synchronizeOptions := synchronize.Options{OutputDirectory: outputDirectory, Operation: options.Operation}
	results := make([]synchronize.RunResult, len(repositories))

	var group errgroup.Group
	group.SetLimit(workers)
	for index := range repositories {
		group.Go(func() error {
			result := runner.runOne(runContext, repositories[index], synchronizeOptions)
			results[index] = result
			runner.reporter.RepositoryCompleted(result)
			return nil
		})
	}
	_ = group.Wait()

	summary.Results = results
	for _, result := range results {
		if result.Failed() {
			summary.Failed++
		}
	}

	runner.logger.Info(
		runFinishedMessageConstant,
		zap.String(logFieldOperationConstant, string(options.Operation)),
		zap.Int(logFieldTotalConstant, summary.Total),
		zap.Int(logFieldFailedConstant, summary.Failed),
	)
	runner.reporter.RunFinished(summary)

	return summary, nil
}

func (runner *Runner) runOne(runContext context.Context, repository gitrepo.NormalizedRepository, options synchronize.Options) synchronize.RunResult {
	if contextError := runContext.Err(); contextError != nil {
		repositoryPath := filepath.Join(options.OutputDirectory, repository.Name)
		return synchronize.RunResult{
			Repository: repository,
			Path:       repositoryPath,
			Operation:  options.Operation,
			Outcome:    synchronize.OutcomeFailure,
			Error: repoerrors.OperationError{
				Kind:      repoerrors.KindExecutorFailure,
				Operation: repoerrors.OperationPrepare,
				Path:      repositoryPath,
				Detail:    fmt.Sprintf(notAttemptedTemplateConstant, contextError),
				Cause:     contextError,
			},
		}
	}
	return runner.synchronizer.Synchronize(runContext, repository, options)
}

func resolveWorkers(requested int) int {
	if requested > 0 {
		return requested
	}
	return runtime.NumCPU()
}

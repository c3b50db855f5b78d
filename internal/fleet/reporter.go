package fleet

import (
	"io"
	"strings"

	"go.uber.org/multierr"

	repoerrors "github.com/temirov/reposync/internal/repos/errors"
	"github.com/temirov/reposync/internal/repos/synchronize"
	"github.com/temirov/reposync/internal/utils"
)

const (
	cloneStartedTemplateConstant      = "Cloning %d repositories into %s"
	syncStartedTemplateConstant       = "Syncing %d repositories in %s"
	repositoryDoneTemplateConstant    = "%s %s"
	repositorySkippedTemplateConstant = "Skipping %s: %s"
	branchSkippedTemplateConstant     = "Skipping merge on %s in %s: dirty working tree"
	repositoryErrorTemplateConstant   = "Error %s %s: %s"
	branchWarningTemplateConstant     = "Warning syncing branches in %s: %s"
	runSucceededTemplateConstant      = "Successfully %s all %d repositories"
	runFailedTemplateConstant         = "Warning: failed to %s %d out of %d repositories"
	warningSeparatorConstant          = "; "
)

type operationWording struct {
	infinitive  string
	progressive string
	past        string
	pastTitle   string
}

var operationWordings = map[synchronize.Operation]operationWording{
	synchronize.OperationClone: {infinitive: "clone", progressive: "cloning", past: "cloned", pastTitle: "Cloned"},
	synchronize.OperationSync:  {infinitive: "sync", progressive: "syncing", past: "synced", pastTitle: "Synced"},
}

func wordingFor(operation synchronize.Operation) operationWording {
	if wording, found := operationWordings[operation]; found {
		return wording
	}
	name := string(operation)
	return operationWording{infinitive: name, progressive: name, past: name, pastTitle: name}
}

// StatusReporter receives fleet progress. RepositoryCompleted is called concurrently from workers.
type StatusReporter interface {
	RunStarted(operation synchronize.Operation, total int, outputDirectory string)
	RepositoryCompleted(result synchronize.RunResult)
	RunFinished(summary Summary)
}

type noopStatusReporter struct{}

func (noopStatusReporter) RunStarted(synchronize.Operation, int, string) {}

func (noopStatusReporter) RepositoryCompleted(synchronize.RunResult) {}

func (noopStatusReporter) RunFinished(Summary) {}

// ConsoleStatusReporter prints progress lines. Failures and warnings go to the error stream
// unconditionally; per-repository progress is printed only when verbose.
type ConsoleStatusReporter struct {
	output      *utils.FlushingWriter
	errorOutput *utils.FlushingWriter
	verbose     bool
}

// NewConsoleStatusReporter constructs a reporter writing to the provided streams.
func NewConsoleStatusReporter(output io.Writer, errorOutput io.Writer, verbose bool) *ConsoleStatusReporter {
	return &ConsoleStatusReporter{
		output:      utils.NewFlushingWriter(output),
		errorOutput: utils.NewFlushingWriter(errorOutput),
		verbose:     verbose,
	}
}

// RunStarted announces the run when verbose.
func (reporter *ConsoleStatusReporter) RunStarted(operation synchronize.Operation, total int, outputDirectory string) {
	if !reporter.verbose {
		return
	}
	template := syncStartedTemplateConstant
	if operation == synchronize.OperationClone {
		template = cloneStartedTemplateConstant
	}
	_ = reporter.output.WriteLine(template, total, outputDirectory)
}

// RepositoryCompleted prints the lines describing one repository result.
func (reporter *ConsoleStatusReporter) RepositoryCompleted(result synchronize.RunResult) {
	wording := wordingFor(result.Operation)

	if result.Failed() {
		_ = reporter.errorOutput.WriteLine(repositoryErrorTemplateConstant, wording.progressive, result.Repository.URL, repoerrors.MessageOf(result.Error))
		return
	}

	if reporter.verbose {
		for _, branch := range result.SkippedBranches() {
			_ = reporter.output.WriteLine(branchSkippedTemplateConstant, branch, result.Repository.Name)
		}
	}

	if result.Warning != nil {
		_ = reporter.errorOutput.WriteLine(branchWarningTemplateConstant, result.Repository.URL, describeWarnings(result.Warning))
	}

	if !reporter.verbose {
		return
	}
	if result.Skipped {
		_ = reporter.output.WriteLine(repositorySkippedTemplateConstant, result.Repository.Name, result.SkipReason)
		return
	}
	if result.Cloned {
		wording = wordingFor(synchronize.OperationClone)
	}
	_ = reporter.output.WriteLine(repositoryDoneTemplateConstant, wording.pastTitle, result.Repository.Name)
}

// RunFinished prints the summary line.
func (reporter *ConsoleStatusReporter) RunFinished(summary Summary) {
	wording := wordingFor(summary.Operation)
	if summary.Succeeded() {
		_ = reporter.output.WriteLine(runSucceededTemplateConstant, wording.past, summary.Total)
		return
	}
	_ = reporter.output.WriteLine(runFailedTemplateConstant, wording.infinitive, summary.Failed, summary.Total)
}

func describeWarnings(warning error) string {
	warnings := multierr.Errors(warning)
	messages := make([]string, 0, len(warnings))
	for _, branchWarning := range warnings {
		messages = append(messages, repoerrors.MessageOf(branchWarning))
	}
	return strings.Join(messages, warningSeparatorConstant)
}

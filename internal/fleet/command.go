package fleet

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/reposync/internal/branches/reconcile"
	"github.com/temirov/reposync/internal/execshell"
	"github.com/temirov/reposync/internal/repos/dependencies"
	"github.com/temirov/reposync/internal/repos/listfile"
	"github.com/temirov/reposync/internal/repos/shared"
	"github.com/temirov/reposync/internal/repos/synchronize"
	"github.com/temirov/reposync/internal/ui"
)

const (
	cloneCommandUseConstant              = "clone"
	cloneCommandShortDescriptionConstant = "Clone every repository in a list into an output directory"
	cloneCommandLongDescriptionConstant  = "clone reads repository references from a list file and clones each one into the output directory, skipping paths that already exist."
	syncCommandUseConstant               = "sync"
	syncCommandShortDescriptionConstant  = "Clone missing repositories and update existing ones"
	syncCommandLongDescriptionConstant   = "sync clones repositories missing from the output directory, pulls existing ones, and fast-forwards every branch that tracks an upstream."
	flagFileNameConstant                 = "file"
	flagFileShorthandConstant            = "f"
	flagFileDescriptionConstant          = "Path to the repository list file"
	flagOutNameConstant                  = "out"
	flagOutShorthandConstant             = "o"
	flagOutDescriptionConstant           = "Directory that holds the working copies"
	flagVerboseNameConstant              = "verbose"
	flagVerboseShorthandConstant         = "v"
	flagVerboseDescriptionConstant       = "Print a line for every repository"
	flagWorkersNameConstant              = "workers"
	flagWorkersDescriptionConstant       = "Maximum repositories processed concurrently (0 uses the CPU count)"
	flagTimeoutNameConstant              = "timeout"
	flagTimeoutDescriptionConstant       = "Deadline for the whole run: none or a duration such as 10m"
	listFileRequiredMessageConstant      = "repository list file is required; pass --file or set tools.fleet.file"
	outputRequiredMessageConstant        = "output directory is required; pass --out or set tools.fleet.out"
	unsupportedOperationTemplateConstant = "unsupported fleet operation %q"
)

// ErrListFileRequired indicates neither a flag nor configuration named the repository list.
var ErrListFileRequired = errors.New(listFileRequiredMessageConstant)

// ErrOutputRequired indicates neither a flag nor configuration named the output directory.
var ErrOutputRequired = errors.New(outputRequiredMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current fleet configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the clone or sync command.
type CommandBuilder struct {
	Operation                    synchronize.Operation
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider func() bool
	CommandEventsObserver        execshell.CommandEventObserver
	FileSystem                   shared.FileSystem
	GitExecutor                  shared.GitExecutor
	GitManager                   shared.GitRepositoryManager
	Inspector                    shared.WorkingCopyInspector
}

// Build constructs the command for the configured operation.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{Args: cobra.NoArgs, RunE: builder.run}

	switch builder.Operation {
	case synchronize.OperationClone:
		command.Use = cloneCommandUseConstant
		command.Short = cloneCommandShortDescriptionConstant
		command.Long = cloneCommandLongDescriptionConstant
	case synchronize.OperationSync:
		command.Use = syncCommandUseConstant
		command.Short = syncCommandShortDescriptionConstant
		command.Long = syncCommandLongDescriptionConstant
	default:
		return nil, fmt.Errorf(unsupportedOperationTemplateConstant, builder.Operation)
	}

	command.Flags().StringP(flagFileNameConstant, flagFileShorthandConstant, "", flagFileDescriptionConstant)
	command.Flags().StringP(flagOutNameConstant, flagOutShorthandConstant, "", flagOutDescriptionConstant)
	command.Flags().BoolP(flagVerboseNameConstant, flagVerboseShorthandConstant, false, flagVerboseDescriptionConstant)
	command.Flags().Int(flagWorkersNameConstant, 0, flagWorkersDescriptionConstant)
	command.Flags().String(flagTimeoutNameConstant, TimeoutNoneConstant, flagTimeoutDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration, configurationError := builder.resolveOptions(command)
	if configurationError != nil {
		return configurationError
	}

	timeout, timeoutError := ParseTimeout(configuration.Timeout)
	if timeoutError != nil {
		return timeoutError
	}

	logger := builder.resolveLogger()
	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)

	listLoader, loaderError := listfile.NewLoader(fileSystem)
	if loaderError != nil {
		return loaderError
	}
	references, loadError := listLoader.Load(configuration.File)
	if loadError != nil {
		return loadError
	}

	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, builder.resolveObserver(logger))
	if executorError != nil {
		return executorError
	}

	gitManager, managerError := dependencies.ResolveGitRepositoryManager(builder.GitManager, gitExecutor)
	if managerError != nil {
		return managerError
	}

	reconciler, reconcilerError := reconcile.NewService(reconcile.Dependencies{RepositoryManager: gitManager, Logger: logger})
	if reconcilerError != nil {
		return reconcilerError
	}

	synchronizer, synchronizerError := synchronize.NewService(synchronize.Dependencies{
		FileSystem:        fileSystem,
		RepositoryManager: gitManager,
		Inspector:         builder.Inspector,
		Reconciler:        reconciler,
		Logger:            logger,
	})
	if synchronizerError != nil {
		return synchronizerError
	}

	runner, runnerError := NewRunner(Dependencies{
		FileSystem:   fileSystem,
		Synchronizer: synchronizer,
		Reporter:     NewConsoleStatusReporter(command.OutOrStdout(), command.ErrOrStderr(), configuration.Verbose),
		Logger:       logger,
	})
	if runnerError != nil {
		return runnerError
	}

	summary, runError := runner.Run(command.Context(), references, Options{
		Operation:       builder.Operation,
		OutputDirectory: configuration.Out,
		Workers:         configuration.Workers,
		Timeout:         timeout,
	})
	if runError != nil {
		return runError
	}

	return summary.Err()
}

// resolveOptions merges configuration with any flags set on the command line.
func (builder *CommandBuilder) resolveOptions(command *cobra.Command) (CommandConfiguration, error) {
	configuration := builder.resolveConfiguration()
	flagSet := command.Flags()

	if flagSet.Changed(flagFileNameConstant) {
		configuration.File, _ = flagSet.GetString(flagFileNameConstant)
	}
	if flagSet.Changed(flagOutNameConstant) {
		configuration.Out, _ = flagSet.GetString(flagOutNameConstant)
	}
	if flagSet.Changed(flagVerboseNameConstant) {
		configuration.Verbose, _ = flagSet.GetBool(flagVerboseNameConstant)
	}
	if flagSet.Changed(flagWorkersNameConstant) {
		configuration.Workers, _ = flagSet.GetInt(flagWorkersNameConstant)
	}
	if flagSet.Changed(flagTimeoutNameConstant) {
		configuration.Timeout, _ = flagSet.GetString(flagTimeoutNameConstant)
	}
	configuration = configuration.sanitize()

	if len(configuration.File) == 0 {
		_ = command.Help()
		return CommandConfiguration{}, ErrListFileRequired
	}
	if len(configuration.Out) == 0 {
		_ = command.Help()
		return CommandConfiguration{}, ErrOutputRequired
	}

	return configuration, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveObserver(logger *zap.Logger) execshell.CommandEventObserver {
	if builder.CommandEventsObserver != nil {
		return builder.CommandEventsObserver
	}
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		return ui.NewConsoleCommandEventLogger(logger)
	}
	return nil
}

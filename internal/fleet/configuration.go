package fleet

import "strings"

const (
	configurationFileKeyConstant    = "file"
	configurationOutKeyConstant     = "out"
	configurationVerboseKeyConstant = "verbose"
	configurationWorkersKeyConstant = "workers"
	configurationTimeoutKeyConstant = "timeout"
)

// CommandConfiguration captures persistent settings shared by the clone and sync commands.
type CommandConfiguration struct {
	File    string `mapstructure:"file"`
	Out     string `mapstructure:"out"`
	Verbose bool   `mapstructure:"verbose"`
	Workers int    `mapstructure:"workers"`
	Timeout string `mapstructure:"timeout"`
}

// DefaultCommandConfiguration returns baseline configuration values for fleet commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		File:    "",
		Out:     "",
		Verbose: false,
		Workers: 0,
		Timeout: TimeoutNoneConstant,
	}
}

// DefaultConfigurationValues produces Viper defaults rooted at rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationFileKeyConstant:    defaults.File,
		rootKey + "." + configurationOutKeyConstant:     defaults.Out,
		rootKey + "." + configurationVerboseKeyConstant: defaults.Verbose,
		rootKey + "." + configurationWorkersKeyConstant: defaults.Workers,
		rootKey + "." + configurationTimeoutKeyConstant: defaults.Timeout,
	}
}

// sanitize trims string values and restores the default timeout when unset.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.File = strings.TrimSpace(configuration.File)
	sanitized.Out = strings.TrimSpace(configuration.Out)
	sanitized.Timeout = strings.TrimSpace(configuration.Timeout)
	if len(sanitized.Timeout) == 0 {
		sanitized.Timeout = TimeoutNoneConstant
	}
	if sanitized.Workers < 0 {
		sanitized.Workers = 0
	}

	return sanitized
}

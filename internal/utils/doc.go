// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the Viper-backed ConfigurationLoader, the zap LoggerFactory, and
// the FlushingWriter that keeps console output from concurrent workers
// line-atomic.
package utils

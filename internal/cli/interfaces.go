package cli

import (
	"github.com/mrz1836/ossl/internal/config"
	"github.com/mrz1836/ossl/internal/output"
	"github.com/mrz1836/ossl/pkg/osslerr"
)

// Compile-time interface checks.
var (
	_ ConfigProvider  = (*config.Config)(nil)
	_ LogWriter       = (*config.Logger)(nil)
	_ FormatProvider  = (*output.Formatter)(nil)
	_ osslerr.Logger  = (LogWriter)(nil)
	_ BackendProvider = (*osslerr.Binding)(nil)
)

// ConfigProvider provides read access to configuration values.
// This interface enables mocking configuration in tests.
type ConfigProvider interface {
	// GetHome returns the ossl home directory path.
	GetHome() string

	// GetBackendVariant returns the configured simulated library variant.
	GetBackendVariant() string

	// GetLoggingLevel returns the configured logging level.
	GetLoggingLevel() string

	// GetLoggingFile returns the configured log file path.
	GetLoggingFile() string

	// GetOutputFormat returns the default output format.
	GetOutputFormat() string

	// IsVerbose returns true if verbose output is enabled.
	IsVerbose() bool
}

// LogWriter provides logging capabilities.
// This interface enables mocking logging in tests.
type LogWriter interface {
	// Debug logs a debug-level message.
	Debug(format string, args ...any)

	// Error logs an error-level message.
	Error(format string, args ...any)

	// Close closes the logger and releases resources.
	Close() error
}

// FormatProvider provides output format information.
// This interface enables mocking output formatting in tests.
type FormatProvider interface {
	// Format returns the current output format.
	Format() output.Format
}

// BackendProvider is the part of a binding the inspection commands read.
type BackendProvider interface {
	Libraries() []osslerr.Library
	LookupLibrary(name string) (osslerr.Library, bool)
	Describe(code osslerr.Code) *osslerr.Error
}

// Package cli implements the ossl command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mrz1836/ossl/internal/backend"
	"github.com/mrz1836/ossl/internal/config"
	"github.com/mrz1836/ossl/internal/metrics"
	"github.com/mrz1836/ossl/internal/output"
	osslerrs "github.com/mrz1836/ossl/pkg/errors"
	"github.com/mrz1836/ossl/pkg/osslerr"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool
	backendName  string

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
	cmdCtx    *CommandContext

	enrichOnce sync.Once
)

// Command group IDs for the root help output.
const (
	groupQueue  = "queue"
	groupRandom = "random"
	groupSetup  = "setup"
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ossl",
	Short: "Inspect the OpenSSL error queue and random generator",
	Long: `ossl drives the cryptography library's thread-local error queue and its
random generator from the terminal.

It decodes packed error codes, replays and drains diagnostics, reports what
the linked (or simulated) library supports, and produces random bytes.`,
	Example: `  ossl rand --bytes 32
  ossl errors decode 0480006C
  ossl doctor --backend openssl-1.1.1`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := initGlobals(); err != nil {
			return err
		}
		SetCmdContext(cmd, cmdCtx)
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	enrichOnce.Do(func() {
		enrichRootLong(rootCmd)
		walkCommands(rootCmd, enrichParentLong)
	})

	err := rootCmd.Execute()
	if err != nil {
		err = osslerrs.FromBackend(err)
		if formatter != nil {
			_ = output.FormatError(os.Stderr, err, formatter.Format())
		} else {
			_ = output.FormatError(os.Stderr, err, output.FormatText)
		}
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return osslerrs.ExitCode(osslerrs.FromBackend(err))
}

// initGlobals initializes global configuration, logger, formatter and the
// backend binding.
func initGlobals() error {
	// Determine home directory
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	// Load or create config
	configPath := config.Path(home)
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		// Use defaults if config doesn't exist
		cfg = config.Defaults()
		cfg.Home = home
	}

	// Apply environment variable overrides
	config.ApplyEnvironment(cfg)

	// Override with command-line flags
	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}
	if backendName != "" {
		cfg.Backend.Variant = backendName
	}

	// Initialize logger
	logLevel := config.ParseLogLevel(cfg.Logging.Level)
	logger, err = config.NewLogger(logLevel, cfg.Logging.File)
	if err != nil {
		// Use null logger if we can't create the file
		logger = config.NullLogger()
	}
	logger.SetJSONOutput(cfg.Logging.Format == "json")

	// Initialize formatter
	explicitFormat := output.ParseFormat(cfg.Output.DefaultFormat)
	detectedFormat := output.DetectFormat(os.Stdout, explicitFormat)
	formatter = output.NewFormatter(detectedFormat, os.Stdout)

	// Bind the backend
	be, err := backend.New(cfg.Backend.Variant)
	if err != nil {
		invalid := osslerrs.WithDetails(osslerrs.ErrConfigInvalid, map[string]string{"backend.variant": cfg.Backend.Variant})
		return osslerrs.WithSuggestion(
			osslerrs.WithCause(invalid, err),
			"valid variants: openssl-3.0, openssl-1.1.1, openssl-1.0.2, boringssl",
		)
	}
	binding := osslerr.NewBinding(be,
		osslerr.WithLogger(logger),
		osslerr.WithObserver(metrics.Global),
	)
	osslerr.Use(binding)
	logger.Debug("using %s (%s)", binding.Info().Name, binding.Info().Version)

	cmdCtx = NewCommandContext(cfg, logger, formatter, binding)

	return nil
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

// Config returns the global configuration.
func Config() *config.Config {
	return cfg
}

// Logger returns the global logger.
func Logger() *config.Logger {
	return logger
}

// Formatter returns the global output formatter.
func Formatter() *output.Formatter {
	return formatter
}

// Context returns the global command context.
func Context() *CommandContext {
	return cmdCtx
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "ossl data directory (default: ~/.ossl)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "simulated library variant when none is linked")
	_ = rootCmd.RegisterFlagCompletionFunc("backend", completeBackendVariants)

	rootCmd.AddGroup(
		&cobra.Group{ID: groupQueue, Title: "Error Queue:"},
		&cobra.Group{ID: groupRandom, Title: "Random Generator:"},
		&cobra.Group{ID: groupSetup, Title: "Configuration:"},
	)
	rootCmd.SetHelpCommandGroupID(groupSetup)
}

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mrz1836/ossl/internal/config"
	"github.com/mrz1836/ossl/internal/metrics"
	"github.com/mrz1836/ossl/internal/output"
	"github.com/mrz1836/ossl/pkg/osslerr"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Config    *config.Config
	Logger    *config.Logger
	Formatter *output.Formatter
	Binding   *osslerr.Binding
	Metrics   *metrics.Metrics
}

// NewCommandContext creates a context with the given dependencies. Metrics
// default to the process-wide counters the binding reports to.
func NewCommandContext(
	cfg *config.Config,
	logger *config.Logger,
	formatter *output.Formatter,
	binding *osslerr.Binding,
) *CommandContext {
	return &CommandContext{
		Config:    cfg,
		Logger:    logger,
		Formatter: formatter,
		Binding:   binding,
		Metrics:   metrics.Global,
	}
}

// WithMetrics sets the metrics the commands report and print.
func (c *CommandContext) WithMetrics(m *metrics.Metrics) *CommandContext {
	c.Metrics = m
	return c
}

type cmdContextKey struct{}

// SetCmdContext attaches a CommandContext to a command.
func SetCmdContext(cmd *cobra.Command, c *CommandContext) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	cmd.SetContext(context.WithValue(base, cmdContextKey{}, c))
}

// GetCmdContext returns the CommandContext attached to a command, falling
// back to the global one.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	if ctx := cmd.Context(); ctx != nil {
		if c, ok := ctx.Value(cmdContextKey{}).(*CommandContext); ok {
			return c
		}
	}
	return cmdCtx
}

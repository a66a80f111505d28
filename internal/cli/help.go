package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/ossl/internal/backend"
	"github.com/mrz1836/ossl/internal/native/sim"
)

// annotationBackend holds a short note on how a command depends on the
// selected backend. Parent help prints it under the subcommand.
const annotationBackend = "ossl/backend"

// walkCommands visits every command in the tree depth-first.
func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}

// enrichParentLong appends the available subcommands, with their backend
// notes, to a parent command's Long description.
func enrichParentLong(cmd *cobra.Command) {
	if !cmd.HasSubCommands() {
		return
	}

	var sb strings.Builder
	sb.WriteString(cmd.Long)
	sb.WriteString("\n\nSubcommands:\n")

	for _, sub := range cmd.Commands() {
		if !sub.IsAvailableCommand() {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-16s %s\n", sub.Name(), sub.Short))
		if note := sub.Annotations[annotationBackend]; note != "" {
			sb.WriteString(fmt.Sprintf("  %-16s (%s)\n", "", note))
		}
	}

	cmd.Long = sb.String()
}

// backendHelp describes the variants --backend accepts and whether this
// binary talks to a linked libcrypto or simulates one.
func backendHelp(linked bool) string {
	names := make([]string, 0, len(sim.Variants()))
	for _, v := range sim.Variants() {
		name := string(v)
		if v == sim.DefaultVariant {
			name += " (default)"
		}
		names = append(names, name)
	}

	var sb strings.Builder
	sb.WriteString("Backends:\n  ")
	sb.WriteString(strings.Join(names, ", "))
	sb.WriteString("\n  ")
	if linked {
		sb.WriteString("This binary is linked against libcrypto; --backend only validates the name.")
	} else {
		sb.WriteString("This binary simulates the selected variant; build with -tags openssl to link libcrypto.")
	}
	return sb.String()
}

// enrichRootLong appends the backend section to the root help.
func enrichRootLong(cmd *cobra.Command) {
	cmd.Long = cmd.Long + "\n\n" + backendHelp(backend.Linked())
}

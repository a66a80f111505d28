package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/ossl/internal/backend"
	"github.com/mrz1836/ossl/internal/native/sim"
	"github.com/mrz1836/ossl/pkg/osslerr"
)

// completionCmd generates shell completion scripts.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a shell completion script for ossl on stdout.

Completions cover subcommands, flags, the --backend variants and the
library names accepted by 'ossl errors lookup'. Start a new shell after
installing a script for it to take effect.`,
	Example: `  # Bash, current session and every new one (Linux)
  source <(ossl completion bash)
  ossl completion bash > /etc/bash_completion.d/ossl

  # Zsh (needs "autoload -U compinit; compinit" in ~/.zshrc)
  ossl completion zsh > "${fpath[1]}/_ossl"

  # Fish
  ossl completion fish > ~/.config/fish/completions/ossl.fish

  # PowerShell
  ossl completion powershell | Out-String | Invoke-Expression`,
	GroupID:               groupSetup,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(w)
		case "zsh":
			return cmd.Root().GenZshCompletion(w)
		case "fish":
			return cmd.Root().GenFishCompletion(w, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(w)
		}
		return nil
	},
}

// completeBackendVariants offers the --backend variant names.
func completeBackendVariants(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, v := range sim.Variants() {
		if strings.HasPrefix(string(v), strings.ToLower(toComplete)) {
			out = append(out, string(v))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeLibraryNames offers the first word of every library name that
// 'errors lookup' resolves on its own, described by the full name.
// Completion runs before the config is loaded, so only --backend picks
// the backend.
func completeLibraryNames(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	be, err := backend.New(backendName)
	if err != nil {
		be = backend.Default()
	}

	libs := osslerr.NewBinding(be).Libraries()
	byWord := make(map[string][]string, len(libs))
	for _, lib := range libs {
		w := firstWord(strings.ToLower(lib.Name))
		byWord[w] = append(byWord[w], lib.Name)
	}

	prefix := strings.ToLower(toComplete)
	var out []string
	for w, names := range byWord {
		if len(names) != 1 || !strings.HasPrefix(w, prefix) {
			continue
		}
		out = append(out, w+"\t"+names[0])
	}
	sort.Strings(out)
	return out, cobra.ShellCompDirectiveNoFileComp
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(completionCmd)
}

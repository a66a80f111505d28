package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/ossl/internal/backend"
	"github.com/mrz1836/ossl/internal/version"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

//nolint:gochecknoglobals // set once from main
var buildInfo BuildInfo

// SetBuildInfo records the build metadata reported by the version command.
func SetBuildInfo(info BuildInfo) {
	buildInfo = info
}

func formatVersion(info BuildInfo) string {
	v, commit, date := info.Version, info.Commit, info.Date
	if v == "" {
		v = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, commit, date)
}

// versionCmd prints the build and the library it talks to.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:     "version",
	GroupID: groupSetup,
	Short:   "Show the ossl build and library version",
	Long: `Show the ossl build, the cryptography library in use, and whether its
release is new enough for the error API ossl relies on.`,
	Example: `  ossl version
  ossl version -o json`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

// VersionResponse is the JSON form of the version command.
type VersionResponse struct {
	Version string          `json:"version"`
	Commit  string          `json:"commit,omitempty"`
	Date    string          `json:"date,omitempty"`
	Library LibraryResponse `json:"library"`
}

// LibraryResponse describes the backend library.
type LibraryResponse struct {
	Name      string `json:"name"`
	Banner    string `json:"banner"`
	Version   string `json:"version,omitempty"`
	Supported bool   `json:"supported"`
	Linked    bool   `json:"linked"`
}

// describe renders the banner for text output. Simulated banners already
// say so.
func (l LibraryResponse) describe() string {
	if l.Linked {
		return l.Banner + " (linked)"
	}
	return l.Banner
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	info := cc.Binding.Info()
	lib := version.ParseLibrary(info.Version)

	resp := VersionResponse{
		Version: buildInfo.Version,
		Commit:  buildInfo.Commit,
		Date:    buildInfo.Date,
		Library: LibraryResponse{
			Name:      info.Name,
			Banner:    lib.Banner,
			Version:   lib.Version,
			Supported: lib.Supported,
			Linked:    backend.Linked(),
		},
	}
	if resp.Version == "" {
		resp.Version = "dev"
	}

	w := cmd.OutOrStdout()
	if cc.Formatter.IsJSON() {
		return writeJSON(w, resp)
	}
	displayVersionText(w, resp)
	return nil
}

func displayVersionText(w io.Writer, resp VersionResponse) {
	out(w, "ossl %s\n", formatVersion(buildInfo))
	out(w, "library: %s\n", resp.Library.describe())
	if !resp.Library.Supported {
		out(w, "warning: %s is older than %s; error records may be incomplete\n",
			resp.Library.Version, version.MinimumLibrary)
	}
}

package cli

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"

	"github.com/mrz1836/ossl/internal/output"
	osslerrs "github.com/mrz1836/ossl/pkg/errors"
	"github.com/mrz1836/ossl/pkg/osslerr"
)

const (
	// maxTypoDistance is the largest edit distance still offered as a
	// "did you mean" suggestion.
	maxTypoDistance = 2
	// maxSuggestions caps the suggestions shown for an unknown library.
	maxSuggestions = 3
)

// errorsCmd is the parent command for error code inspection.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var errorsCmd = &cobra.Command{
	Use:     "errors",
	GroupID: groupQueue,
	Short:   "Decode error codes and list error libraries",
	Long: `Inspect the packed error codes the cryptography library leaves on its
error queue. Codes are decoded with the layout of the backend in use, so the
same hex value can mean different things on 1.x and 3.x.`,
}

// errorsDecodeCmd decodes packed error codes.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var errorsDecodeCmd = &cobra.Command{
	Use:   "decode <hex-code>...",
	Short: "Decode packed error codes",
	Long: `Split each packed error code into its library, function and reason, and
resolve the names the backend registered for them.`,
	Example: `  ossl errors decode 0480006C
  ossl errors decode 0x0906D06C --backend openssl-1.1.1
  ossl errors decode 0480006C 64000001 -o json`,
	Annotations: map[string]string{annotationBackend: "code layout follows the backend: 3.x has no function field"},
	Args:        cobra.MinimumNArgs(1),
	RunE:        runErrorsDecode,
}

// errorsLibsCmd lists the error libraries.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var errorsLibsCmd = &cobra.Command{
	Use:   "libs",
	Short: "List error library ids and names",
	Long:  `List every library id the backend registered a name for.`,
	Example: `  ossl errors libs
  ossl errors libs -o json`,
	Annotations: map[string]string{annotationBackend: "names are the ones the backend registered"},
	Args:        cobra.NoArgs,
	RunE:        runErrorsLibs,
}

// errorsLookupCmd maps a library name to its id.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var errorsLookupCmd = &cobra.Command{
	Use:   "lookup <library-name>",
	Short: "Find the id of an error library",
	Long: `Find a library id by its registered name, or by the first word of it.
Unknown names get suggestions for close matches.`,
	Example: `  ossl errors lookup "PEM routines"
  ossl errors lookup pem`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeLibraryNames,
	RunE:              runErrorsLookup,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(errorsCmd)
	errorsCmd.AddCommand(errorsDecodeCmd)
	errorsCmd.AddCommand(errorsLibsCmd)
	errorsCmd.AddCommand(errorsLookupCmd)
}

// DecodedCode is the JSON form of one decoded code.
type DecodedCode struct {
	output.Record

	LibraryID  int    `json:"library_id"`
	FunctionID int    `json:"function_id"`
	ReasonID   int    `json:"reason_id"`
	Text       string `json:"text"`
}

// LibraryEntry is the JSON form of one library.
type LibraryEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// parseCode parses a hex error code with an optional 0x prefix.
func parseCode(s string) (osslerr.Code, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	n, err := strconv.ParseUint(trimmed, 16, 64)
	if err != nil || n == 0 {
		return 0, osslerrs.WithDetails(osslerrs.ErrInvalidCode, map[string]string{"code": s})
	}
	return osslerr.Code(n), nil
}

func decodeCodes(b BackendProvider, args []string) ([]DecodedCode, error) {
	decoded := make([]DecodedCode, 0, len(args))
	for _, arg := range args {
		code, err := parseCode(arg)
		if err != nil {
			return nil, err
		}
		rec := b.Describe(code)
		decoded = append(decoded, DecodedCode{
			Record:     output.NewRecord(rec),
			LibraryID:  rec.LibraryID(),
			FunctionID: rec.FunctionID(),
			ReasonID:   rec.ReasonID(),
			Text:       rec.Error(),
		})
	}
	return decoded, nil
}

func runErrorsDecode(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	decoded, err := decodeCodes(cc.Binding, args)
	if err != nil {
		return err
	}

	return cc.Formatter.Emit(decoded, func(w io.Writer) error {
		return displayDecodedText(w, decoded)
	})
}

func orFallback(name, kind string, id int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("%s(%d)", kind, id)
}

func displayDecodedText(w io.Writer, decoded []DecodedCode) error {
	t := output.NewTable("CODE", "LIB", "LIBRARY", "FUNCTION", "REASON")
	t.SetAlign(1, output.AlignRight)
	for _, d := range decoded {
		t.AddRow(
			d.Code,
			strconv.Itoa(d.LibraryID),
			orFallback(d.Library, "lib", d.LibraryID),
			orFallback(d.Function, "func", d.FunctionID),
			orFallback(d.Reason, "reason", d.ReasonID),
		)
	}
	return t.Render(w)
}

func libraryEntries(libs []osslerr.Library) []LibraryEntry {
	entries := make([]LibraryEntry, len(libs))
	for i, lib := range libs {
		entries[i] = LibraryEntry{ID: lib.ID, Name: lib.Name}
	}
	return entries
}

func runErrorsLibs(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	entries := libraryEntries(cc.Binding.Libraries())

	return cc.Formatter.Emit(entries, func(w io.Writer) error {
		t := output.NewTable("ID", "NAME")
		t.SetAlign(0, output.AlignRight)
		for _, e := range entries {
			t.AddRow(strconv.Itoa(e.ID), e.Name)
		}
		return t.Render(w)
	})
}

// findLibrary resolves a library by full name, then by a unique first word.
func findLibrary(b BackendProvider, name string) (osslerr.Library, bool) {
	if lib, ok := b.LookupLibrary(name); ok {
		return lib, true
	}

	query := strings.ToLower(strings.TrimSpace(name))
	var match osslerr.Library
	n := 0
	for _, lib := range b.Libraries() {
		if firstWord(lib.Name) == query {
			match = lib
			n++
		}
	}
	return match, n == 1
}

func firstWord(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// suggestLibraries returns the names closest to name, best first.
func suggestLibraries(libs []osslerr.Library, name string) []string {
	query := strings.ToLower(strings.TrimSpace(name))

	type candidate struct {
		lib  osslerr.Library
		dist int
	}
	var candidates []candidate
	for _, lib := range libs {
		lower := strings.ToLower(lib.Name)
		dist := min(
			levenshtein.ComputeDistance(query, lower),
			levenshtein.ComputeDistance(query, firstWord(lower)),
		)
		if dist <= maxTypoDistance || strings.HasPrefix(lower, query+" ") {
			candidates = append(candidates, candidate{lib: lib, dist: dist})
		}
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(a.dist, b.dist); c != 0 {
			return c
		}
		return cmp.Compare(a.lib.ID, b.lib.ID)
	})

	names := make([]string, 0, min(len(candidates), maxSuggestions))
	for _, c := range candidates[:min(len(candidates), maxSuggestions)] {
		names = append(names, c.lib.Name)
	}
	return names
}

func runErrorsLookup(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	name := args[0]

	lib, ok := findLibrary(cc.Binding, name)
	if !ok {
		err := osslerrs.WithDetails(osslerrs.ErrUnknownLibrary, map[string]string{"name": name})
		if s := suggestLibraries(cc.Binding.Libraries(), name); len(s) > 0 {
			return osslerrs.WithSuggestion(err, "did you mean: "+strings.Join(s, ", ")+"?")
		}
		return osslerrs.WithSuggestion(err, "run 'ossl errors libs' to list known libraries")
	}

	entry := LibraryEntry{ID: lib.ID, Name: lib.Name}
	return cc.Formatter.Emit(entry, func(w io.Writer) error {
		out(w, "%d\t%s\n", entry.ID, entry.Name)
		return nil
	})
}

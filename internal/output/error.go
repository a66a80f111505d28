package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	osslerrs "github.com/mrz1836/ossl/pkg/errors"
	"github.com/mrz1836/ossl/pkg/osslerr"
)

// ErrorOutput represents a structured error for JSON output.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	ExitCode   int               `json:"exit_code"`
	Records    []Record          `json:"records,omitempty"`
}

// Record is one backend error record.
type Record struct {
	Code     string `json:"code"`
	Library  string `json:"library,omitempty"`
	Function string `json:"function,omitempty"`
	Reason   string `json:"reason,omitempty"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line"`
	Data     string `json:"data,omitempty"`
}

// NewRecord converts a backend error record.
func NewRecord(e *osslerr.Error) Record {
	r := Record{
		Code: fmt.Sprintf("%08X", uint64(e.Code())),
		File: e.File(),
		Line: e.Line(),
	}
	r.Library, _ = e.Library()
	r.Function, _ = e.Function()
	r.Reason, _ = e.Reason()
	r.Data, _ = e.Data()
	return r
}

// Records returns the backend records carried by err, oldest first.
func Records(err error) []Record {
	var stack *osslerr.ErrorStack
	if !errors.As(err, &stack) {
		return nil
	}
	errs := stack.Errors()
	out := make([]Record, len(errs))
	for i, e := range errs {
		out[i] = NewRecord(e)
	}
	return out
}

// FormatError formats an error for display.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}

	if format == FormatJSON {
		return formatErrorJSON(w, err)
	}
	return formatErrorText(w, err)
}

func formatErrorJSON(w io.Writer, err error) error {
	detail := ErrorDetail{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		ExitCode: osslerrs.ExitGeneral,
	}

	var oe *osslerrs.OsslError
	if errors.As(err, &oe) {
		detail = ErrorDetail{
			Code:       oe.Code,
			Message:    oe.Message,
			Details:    oe.Details,
			Suggestion: oe.Suggestion,
			ExitCode:   oe.ExitCode,
		}
	}
	detail.Records = Records(err)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ErrorOutput{Error: detail})
}

func formatErrorText(w io.Writer, err error) error {
	var sb strings.Builder

	var oe *osslerrs.OsslError
	if errors.As(err, &oe) {
		sb.WriteString(fmt.Sprintf("Error: %s\n", oe.Message))

		if len(oe.Details) > 0 {
			keys := make([]string, 0, len(oe.Details))
			for k := range oe.Details {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			sb.WriteString("\nDetails:\n")
			for _, k := range keys {
				sb.WriteString(fmt.Sprintf("  %s: %s\n", k, oe.Details[k]))
			}
		}
	} else {
		sb.WriteString(fmt.Sprintf("Error: %s\n", err.Error()))
	}

	var stack *osslerr.ErrorStack
	if errors.As(err, &stack) && !stack.Empty() {
		sb.WriteString("\nBackend errors:\n")
		for _, e := range stack.Errors() {
			sb.WriteString(fmt.Sprintf("  %s\n", e.Error()))
		}
	}

	if oe != nil && oe.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\nSuggestion: %s\n", oe.Suggestion))
	}

	_, writeErr := io.WriteString(w, sb.String())
	return writeErr
}

// FormatSuccess formats a success message.
func FormatSuccess(w io.Writer, message string, format Format) error {
	if format == FormatJSON {
		out := map[string]string{"status": "success", "message": message}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	}
	_, err := fmt.Fprintln(w, message)
	return err
}

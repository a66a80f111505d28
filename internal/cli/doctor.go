package cli

import (
	"bytes"
	"fmt"
	"io"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/ossl/internal/backend"
	"github.com/mrz1836/ossl/internal/metrics"
	"github.com/mrz1836/ossl/internal/native"
	"github.com/mrz1836/ossl/internal/native/sim"
	"github.com/mrz1836/ossl/internal/output"
	"github.com/mrz1836/ossl/internal/version"
	osslerrs "github.com/mrz1836/ossl/pkg/errors"
	"github.com/mrz1836/ossl/pkg/osslerr"
	"github.com/mrz1836/ossl/pkg/osslrand"
)

// doctorRandSize is the size of each buffer the random check fills.
const doctorRandSize = 32

// doctorCmd checks the backend end to end.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var doctorCmd = &cobra.Command{
	Use:     "doctor",
	GroupID: groupQueue,
	Short:   "Check the backend's error queue and random generator",
	Long: `Report the backend in use and what it supports, then exercise it:

  - raise two diagnostics, drain them, replay them and drain again,
    comparing both drains record by record
  - fill two buffers from the random generator and compare them

The process metrics are printed last.`,
	Example: `  ossl doctor
  ossl doctor --backend boringssl -o json`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(doctorCmd)
}

// CapsReport is the JSON form of the backend capabilities.
type CapsReport struct {
	GetErrorAll       bool   `json:"get_error_all"`
	NewErrorAPI       bool   `json:"new_error_api"`
	MallocedData      bool   `json:"malloced_data"`
	KeepRandomDevices bool   `json:"keep_random_devices"`
	RandSizeT         bool   `json:"rand_size_t"`
	RandConvention    string `json:"rand_convention"`
	MaxRandLen        int    `json:"max_rand_len"`
}

// Check is the outcome of one doctor step.
type Check struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// DoctorReport is the JSON form of the doctor command.
type DoctorReport struct {
	Backend  LibraryResponse  `json:"backend"`
	Caps     CapsReport       `json:"caps"`
	Pop      string           `json:"pop_strategy"`
	Push     string           `json:"push_strategy"`
	Checks   []Check          `json:"checks"`
	Records  []output.Record  `json:"records,omitempty"`
	Metrics  metrics.Snapshot `json:"metrics"`
	Failures int              `json:"failures"`
}

func capsReport(c native.Caps) CapsReport {
	conv := "positive-ok"
	if c.RandConvention == native.RandZeroOK {
		conv = "zero-ok"
	}
	return CapsReport{
		GetErrorAll:       c.GetErrorAll,
		NewErrorAPI:       c.NewErrorAPI,
		MallocedData:      c.MallocedData,
		KeepRandomDevices: c.KeepRandomDevices,
		RandSizeT:         c.RandSizeT,
		RandConvention:    conv,
		MaxRandLen:        c.RandLimit(),
	}
}

func strategies(c native.Caps) (pop, push string) {
	pop, push = "ERR_get_error_line_data + ERR_func_error_string", "ERR_put_error"
	if c.GetErrorAll {
		pop = "ERR_get_error_all"
	}
	if c.NewErrorAPI {
		push = "ERR_new + ERR_set_debug + ERR_set_error"
	}
	return pop, push
}

// seedQueue leaves two diagnostics on the calling thread's queue. The
// simulated backend raises them the way library code does, with data; a
// linked library gets bare records replayed through the binding.
func seedQueue(b *osslerr.Binding) {
	if s, ok := b.Backend().(*sim.Backend); ok {
		s.Raise(sim.Diagnostic{
			Lib:      sim.LibPEM,
			Func:     sim.FuncPEMReadBio,
			Reason:   sim.ReasonPEMNoStartLine,
			File:     "crypto/pem/pem_lib.c",
			Line:     763,
			Function: "get_name",
			Data:     "Expecting: ANY PRIVATE KEY",
			DataMode: sim.DataDynamic,
		})
		s.Raise(sim.Diagnostic{
			Lib:      sim.LibBN,
			Func:     sim.FuncBNDec2BN,
			Reason:   sim.ReasonBNInvalidLength,
			File:     "crypto/bn/bn_conv.c",
			Line:     214,
			Function: "BN_dec2bn",
		})
		return
	}

	be := b.Backend()
	b.Describe(be.Pack(sim.LibPEM, sim.FuncPEMReadBio, sim.ReasonPEMNoStartLine)).Put()
	b.Describe(be.Pack(sim.LibBN, sim.FuncBNDec2BN, sim.ReasonBNInvalidLength)).Put()
}

// sameRecord compares the parts of two records a replay must preserve.
func sameRecord(a, b *osslerr.Error) bool {
	ad, _ := a.Data()
	bd, _ := b.Data()
	_, aFn := a.Function()
	_, bFn := b.Function()
	return a.Code() == b.Code() &&
		a.File() == b.File() &&
		a.Line() == b.Line() &&
		aFn == bFn &&
		ad == bd
}

// roundTrip raises, drains, replays and drains again on one OS thread.
func roundTrip(b *osslerr.Binding) (Check, *osslerr.ErrorStack) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	check := Check{Name: "error queue round trip"}

	if stale := b.GetStack(); !stale.Empty() {
		check.Detail = fmt.Sprintf("%d stale record(s) were already queued", stale.Len())
		return check, stale
	}

	seedQueue(b)
	first := b.GetStack()
	if first.Len() != 2 {
		check.Detail = fmt.Sprintf("drained %d record(s), want 2", first.Len())
		return check, first
	}

	first.Put()
	second := b.GetStack()
	if second.Len() != first.Len() {
		check.Detail = fmt.Sprintf("replay drained %d record(s), want %d", second.Len(), first.Len())
		return check, second
	}
	for i, e := range first.Errors() {
		if !sameRecord(e, second.Errors()[i]) {
			check.Detail = fmt.Sprintf("record %d changed on replay: %v != %v", i+1, e, second.Errors()[i])
			return check, second
		}
	}

	if rest := b.GetStack(); !rest.Empty() {
		check.Detail = fmt.Sprintf("%d record(s) left after the final drain", rest.Len())
		return check, rest
	}

	check.OK = true
	check.Detail = second.Error()
	return check, second
}

// randCheck fills two buffers and makes sure they differ.
func randCheck(src *osslrand.Source) Check {
	check := Check{Name: "random generator"}

	a, bb := make([]byte, doctorRandSize), make([]byte, doctorRandSize)
	if err := src.Bytes(a); err != nil {
		check.Detail = err.Error()
		return check
	}
	if err := src.Bytes(bb); err != nil {
		check.Detail = err.Error()
		return check
	}
	if bytes.Equal(a, bb) {
		check.Detail = "two fills returned the same bytes"
		return check
	}

	check.OK = true
	check.Detail = fmt.Sprintf("two %d-byte fills differ", doctorRandSize)
	return check
}

func devicesCheck(src *osslrand.Source) Check {
	check := Check{Name: "keep random devices open", OK: true}
	if err := src.KeepRandomDevicesOpen(false); err != nil {
		check.Detail = "not supported by this backend"
		return check
	}
	check.Detail = "supported"
	return check
}

func versionCheck(lib version.Library) Check {
	check := Check{Name: "library version", OK: lib.Supported}
	switch {
	case lib.Version == "":
		check.Detail = "no release number in banner"
	case lib.Supported:
		check.Detail = lib.Version + " >= " + version.MinimumLibrary
	default:
		check.Detail = lib.Version + " < " + version.MinimumLibrary
	}
	return check
}

// buildDoctorReport runs every check against the binding.
func buildDoctorReport(cc *CommandContext) DoctorReport {
	info := cc.Binding.Info()
	lib := version.ParseLibrary(info.Version)
	pop, push := strategies(info.Caps)

	report := DoctorReport{
		Backend: LibraryResponse{
			Name:      info.Name,
			Banner:    lib.Banner,
			Version:   lib.Version,
			Supported: lib.Supported,
			Linked:    backend.Linked(),
		},
		Caps: capsReport(info.Caps),
		Pop:  pop,
		Push: push,
	}

	src := osslrand.New(cc.Binding, osslrand.WithObserver(cc.Metrics))
	trip, stack := roundTrip(cc.Binding)
	for _, e := range stack.Errors() {
		report.Records = append(report.Records, output.NewRecord(e))
	}
	report.Checks = []Check{versionCheck(lib), trip, randCheck(src), devicesCheck(src)}

	for _, c := range report.Checks {
		if !c.OK {
			report.Failures++
		}
	}
	report.Metrics = cc.Metrics.Snapshot()
	return report
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	report := buildDoctorReport(cc)
	cc.Logger.Debug("doctor: %d check(s), %d failure(s)", len(report.Checks), report.Failures)

	w := cmd.OutOrStdout()
	if cc.Formatter.IsJSON() {
		if err := writeJSON(w, report); err != nil {
			return err
		}
	} else {
		displayDoctorText(w, report)
	}

	if report.Failures > 0 {
		return osslerrs.WithDetails(osslerrs.ErrBackend, map[string]string{"failed_checks": strconv.Itoa(report.Failures)})
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func displayDoctorText(w io.Writer, r DoctorReport) {
	out(w, "Backend: %s\n", r.Backend.describe())
	out(w, "Pop:     %s\n", r.Pop)
	out(w, "Push:    %s\n", r.Push)
	outln(w)

	t := output.NewTable("CAPABILITY", "VALUE")
	t.AddRow("get_error_all", yesNo(r.Caps.GetErrorAll))
	t.AddRow("new_error_api", yesNo(r.Caps.NewErrorAPI))
	t.AddRow("malloced_data", yesNo(r.Caps.MallocedData))
	t.AddRow("keep_random_devices", yesNo(r.Caps.KeepRandomDevices))
	t.AddRow("rand_size_t", yesNo(r.Caps.RandSizeT))
	t.AddRow("rand_convention", r.Caps.RandConvention)
	t.AddRow("max_rand_len", strconv.Itoa(r.Caps.MaxRandLen))
	_ = t.Render(w)
	outln(w)

	for _, c := range r.Checks {
		if c.OK {
			output.Success(w, "%s: %s", c.Name, c.Detail)
		} else {
			output.Warn(w, "%s: %s", c.Name, c.Detail)
		}
	}
	outln(w)

	m := r.Metrics
	outln(w, "Metrics:")
	out(w, "  drains: %d (%d empty, %d records)\n", m.Drains, m.EmptyDrains, m.RecordsDrained)
	out(w, "  replays: %d (%d records)\n", m.Replays, m.RecordsReplayed)
	out(w, "  rand: %d call(s), %d bytes, %d failure(s)\n", m.RandCalls, m.RandBytes, m.RandFailures)
}

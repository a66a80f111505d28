package osslerr_test

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/mrz1836/ossl/internal/native/sim"
	"github.com/mrz1836/ossl/pkg/osslerr"
)

// pinThread keeps the test goroutine on one OS thread so raises and drains
// see the same queue.
func pinThread(t *testing.T) {
	t.Helper()
	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)
}

func newBinding(t *testing.T, v sim.Variant, opts ...osslerr.Option) (*osslerr.Binding, *sim.Backend) {
	t.Helper()
	be := sim.New(v)
	return osslerr.NewBinding(be, opts...), be
}

func pemDiagnostic(data string, mode sim.DataMode) sim.Diagnostic {
	return sim.Diagnostic{
		Lib:      sim.LibPEM,
		Func:     sim.FuncPEMReadBio,
		Reason:   sim.ReasonPEMNoStartLine,
		File:     "crypto/pem/pem_lib.c",
		Line:     763,
		Function: "get_name",
		Data:     data,
		DataMode: mode,
	}
}

func bnDiagnostic() sim.Diagnostic {
	return sim.Diagnostic{
		Lib:      sim.LibBN,
		Func:     sim.FuncBNDec2BN,
		Reason:   sim.ReasonBNInvalidLength,
		File:     "crypto/bn/bn_conv.c",
		Line:     214,
		Function: "BN_dec2bn",
	}
}

type countingObserver struct {
	drains  []int
	replays int
}

func (o *countingObserver) ObserveDrain(n int) { o.drains = append(o.drains, n) }

func (o *countingObserver) ObserveReplay(n int) { o.replays += n }

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Debug(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

package cli

import (
	"bytes"
	"context"
	"runtime"
	"testing"

	"github.com/spf13/cobra"

	"github.com/mrz1836/ossl/internal/config"
	"github.com/mrz1836/ossl/internal/metrics"
	"github.com/mrz1836/ossl/internal/native/sim"
	"github.com/mrz1836/ossl/internal/output"
	"github.com/mrz1836/ossl/pkg/osslerr"
)

// testEnv is an isolated command context over a fresh simulated backend.
type testEnv struct {
	cc      *CommandContext
	backend *sim.Backend
	metrics *metrics.Metrics
	cmd     *cobra.Command
	out     *bytes.Buffer
	errOut  *bytes.Buffer
}

// newTestEnv builds a command bound to its own backend, metrics and output
// buffers. The formatter and the command share one buffer.
func newTestEnv(t *testing.T, v sim.Variant, format output.Format, opts ...sim.Option) *testEnv {
	t.Helper()

	be := sim.New(v, opts...)
	m := &metrics.Metrics{}
	binding := osslerr.NewBinding(be, osslerr.WithObserver(m))

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	c := config.Defaults()
	c.Home = t.TempDir()

	cc := NewCommandContext(c, config.NullLogger(), output.NewFormatter(format, stdout), binding).WithMetrics(m)

	cmd := &cobra.Command{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetContext(context.Background())
	SetCmdContext(cmd, cc)

	return &testEnv{cc: cc, backend: be, metrics: m, cmd: cmd, out: stdout, errOut: stderr}
}

// pinThread keeps the test goroutine on one OS thread so it sees the
// queue the commands use.
func pinThread(t *testing.T) {
	t.Helper()
	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/ossl/internal/config"
	"github.com/mrz1836/ossl/internal/native/sim"
	"github.com/mrz1836/ossl/internal/output"
	osslerrs "github.com/mrz1836/ossl/pkg/errors"
	"github.com/mrz1836/ossl/pkg/osslerr"
)

// errTestRandom is used for testing non-ossl error handling.
var errTestRandom = osslerrs.New("TEST_ERROR", "some random error")

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{
			name: "all fields populated",
			info: BuildInfo{Version: "v1.2.3", Commit: "abc1234", Date: "2024-01-15"},
			want: "v1.2.3 (commit: abc1234, built: 2024-01-15)",
		},
		{
			name: "all fields empty",
			info: BuildInfo{},
			want: "dev (commit: unknown, built: unknown)",
		},
		{
			name: "only version empty",
			info: BuildInfo{Commit: "def5678", Date: "2024-02-20"},
			want: "dev (commit: def5678, built: 2024-02-20)",
		},
		{
			name: "only commit empty",
			info: BuildInfo{Version: "v2.0.0", Date: "2024-03-25"},
			want: "v2.0.0 (commit: unknown, built: 2024-03-25)",
		},
		{
			name: "only date empty",
			info: BuildInfo{Version: "v3.0.0", Commit: "ghi9012"},
			want: "v3.0.0 (commit: ghi9012, built: unknown)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatVersion(tc.info))
		})
	}
}

func TestExitCode(t *testing.T) {
	pinThread(t)

	be := sim.New(sim.OpenSSL3)
	b := osslerr.NewBinding(be)
	be.FailRand(1)
	backendErr := b.Run(func() bool { return be.RandBytes(make([]byte, 4)) > 0 })
	require.Error(t, backendErr)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil error returns success", err: nil, want: osslerrs.ExitSuccess},
		{name: "general error", err: osslerrs.ErrGeneral, want: osslerrs.ExitGeneral},
		{name: "invalid input error", err: osslerrs.ErrInvalidInput, want: osslerrs.ExitInput},
		{name: "not found error", err: osslerrs.ErrNotFound, want: osslerrs.ExitNotFound},
		{name: "unknown library error", err: osslerrs.ErrUnknownLibrary, want: osslerrs.ExitNotFound},
		{name: "invalid code error", err: osslerrs.ErrInvalidCode, want: osslerrs.ExitInput},
		{name: "config not found error", err: osslerrs.ErrConfigNotFound, want: osslerrs.ExitNotFound},
		{name: "unsupported error", err: osslerrs.ErrUnsupported, want: osslerrs.ExitUnsupported},
		{name: "stdlib unsupported error", err: errors.ErrUnsupported, want: osslerrs.ExitUnsupported},
		{name: "raw backend error stack", err: backendErr, want: osslerrs.ExitBackend},
		{name: "non-ossl error returns general", err: errTestRandom, want: osslerrs.ExitGeneral},
		{
			name: "wrapped ossl error preserves exit code",
			err:  osslerrs.Wrap(osslerrs.ErrInvalidCode, "decoding"),
			want: osslerrs.ExitInput,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}

// TestGlobalGetters tests Config(), Logger(), Formatter(), Context() getters.
// NOT parallel: mutates package-level globals.
func TestGlobalGetters(t *testing.T) {
	restore := saveGlobals(t)
	defer restore()

	testCfg := config.Defaults()
	testLogger := config.NullLogger()
	testFmt := output.NewFormatter(output.FormatText, nil)
	testCtx := &CommandContext{Config: testCfg}

	cfg = testCfg
	logger = testLogger
	formatter = testFmt
	cmdCtx = testCtx

	assert.Equal(t, testCfg, Config())
	assert.Equal(t, testLogger, Logger())
	assert.Equal(t, testFmt, Formatter())
	assert.Equal(t, testCtx, Context())
}

func TestGetCmdContext_FallsBackToGlobal(t *testing.T) {
	restore := saveGlobals(t)
	defer restore()

	cmdCtx = &CommandContext{Config: config.Defaults()}

	assert.Same(t, cmdCtx, GetCmdContext(&cobra.Command{}))

	attached := &CommandContext{}
	cmd := &cobra.Command{}
	SetCmdContext(cmd, attached)
	assert.Same(t, attached, GetCmdContext(cmd))
}

// TestCleanup_NilLogger verifies cleanup doesn't panic with nil logger.
func TestCleanup_NilLogger(t *testing.T) {
	origLogger := logger
	defer func() { logger = origLogger }()

	logger = nil
	assert.NotPanics(t, func() { cleanup() })
}

// TestCleanup_LoggerCloseError verifies cleanup doesn't panic when logger.Close() returns an error.
func TestCleanup_LoggerCloseError(t *testing.T) {
	origLogger := logger
	defer func() { logger = origLogger }()

	testLogger, err := config.NewLogger(config.ParseLogLevel("debug"), filepath.Join(t.TempDir(), "test.log"))
	require.NoError(t, err)
	require.NoError(t, testLogger.Close())

	logger = testLogger
	assert.NotPanics(t, func() { cleanup() })
}

// --- Tests for initGlobals ---

// saveGlobals saves all package-level globals and returns a restore function.
// Logging is switched off so no log file is created outside the test dirs.
func saveGlobals(t *testing.T) func() {
	t.Helper()
	t.Setenv(config.EnvLogLevel, "off")
	t.Setenv(config.EnvBackend, "")
	t.Setenv(config.EnvHome, "")
	t.Setenv(config.EnvOutputFormat, "")

	origCfg := cfg
	origLogger := logger
	origFormatter := formatter
	origCmdCtx := cmdCtx
	origHomeDir := homeDir
	origOutputFormat := outputFormat
	origVerbose := verbose
	origBackend := backendName
	origBinding := osslerr.Default()
	return func() {
		cfg = origCfg
		logger = origLogger
		formatter = origFormatter
		cmdCtx = origCmdCtx
		homeDir = origHomeDir
		outputFormat = origOutputFormat
		verbose = origVerbose
		backendName = origBackend
		osslerr.Use(origBinding)
	}
}

func TestInitGlobals_DefaultConfig(t *testing.T) {
	restore := saveGlobals(t)
	defer restore()

	homeDir = t.TempDir()
	outputFormat = ""
	verbose = false
	backendName = ""

	require.NoError(t, initGlobals())

	require.NotNil(t, cfg, "cfg should be set")
	require.NotNil(t, logger, "logger should be set")
	require.NotNil(t, formatter, "formatter should be set")
	require.NotNil(t, cmdCtx, "cmdCtx should be set")
	require.NotNil(t, cmdCtx.Binding, "binding should be set")

	assert.Equal(t, homeDir, cfg.Home)
	assert.Same(t, cmdCtx.Binding, osslerr.Default(), "binding becomes the package default")
}

func TestInitGlobals_BackendFlag(t *testing.T) {
	restore := saveGlobals(t)
	defer restore()

	homeDir = t.TempDir()
	backendName = "boringssl"

	require.NoError(t, initGlobals())

	assert.Equal(t, "boringssl", cfg.Backend.Variant)
	if _, ok := cmdCtx.Binding.Backend().(*sim.Backend); ok {
		assert.Equal(t, "BoringSSL", cmdCtx.Binding.Info().Name)
	}
}

func TestInitGlobals_UnknownBackend(t *testing.T) {
	restore := saveGlobals(t)
	defer restore()

	homeDir = t.TempDir()
	backendName = "libressl"

	err := initGlobals()
	require.Error(t, err)
	require.ErrorIs(t, err, osslerrs.ErrConfigInvalid)
	require.ErrorIs(t, err, sim.ErrUnknownVariant)
	assert.Contains(t, err.Error(), "libressl")

	var oe *osslerrs.OsslError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "libressl", oe.Details["backend.variant"])
	assert.NotEmpty(t, oe.Suggestion)
}

func TestInitGlobals_VerboseFlag(t *testing.T) {
	restore := saveGlobals(t)
	defer restore()

	tmpDir := t.TempDir()
	testCfg := config.Defaults()
	testCfg.Home = tmpDir
	testCfg.Logging.File = filepath.Join(tmpDir, "ossl.log")
	require.NoError(t, config.Save(testCfg, config.Path(tmpDir)))

	homeDir = tmpDir
	verbose = true

	require.NoError(t, initGlobals())
	defer cleanup()

	assert.True(t, cfg.Output.Verbose)
	assert.Equal(t, "debug", cfg.Logging.Level)

	data, err := os.ReadFile(filepath.Join(tmpDir, "ossl.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "using ", "backend choice is logged at debug")
}

func TestInitGlobals_OutputFormatFlag(t *testing.T) {
	restore := saveGlobals(t)
	defer restore()

	homeDir = t.TempDir()
	outputFormat = "json"
	verbose = false

	require.NoError(t, initGlobals())

	assert.Equal(t, "json", cfg.Output.DefaultFormat)
	assert.True(t, formatter.IsJSON())
}

func TestInitGlobals_WithExistingConfig(t *testing.T) {
	restore := saveGlobals(t)
	defer restore()

	tmpDir := t.TempDir()
	testCfg := config.Defaults()
	testCfg.Home = tmpDir
	testCfg.Backend.Variant = "openssl-1.0.2"
	testCfg.Rand.Encoding = "base64"
	require.NoError(t, config.Save(testCfg, config.Path(tmpDir)))

	homeDir = tmpDir
	outputFormat = ""
	verbose = false
	backendName = ""

	require.NoError(t, initGlobals())

	assert.Equal(t, "openssl-1.0.2", cfg.Backend.Variant)
	assert.Equal(t, "base64", cfg.Rand.Encoding)
}

func TestInitGlobals_EnvHome(t *testing.T) {
	restore := saveGlobals(t)
	defer restore()

	tmpDir := t.TempDir()
	homeDir = ""
	outputFormat = ""
	verbose = false
	t.Setenv(config.EnvHome, tmpDir)

	require.NoError(t, initGlobals())

	assert.Equal(t, tmpDir, cfg.Home)
}

func TestRootCmd_PreRunAttachesContext(t *testing.T) {
	restore := saveGlobals(t)
	defer restore()

	homeDir = t.TempDir()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	require.NoError(t, rootCmd.PersistentPreRunE(cmd, nil))

	assert.Same(t, cmdCtx, GetCmdContext(cmd))
}

func TestExecute_Version(t *testing.T) {
	restore := saveGlobals(t)
	defer restore()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version", "--home", t.TempDir(), "-o", "json", "--backend", "1.0.2"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, Execute())

	var resp VersionResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.NotEmpty(t, resp.Library.Banner)
	if _, ok := cmdCtx.Binding.Backend().(*sim.Backend); ok {
		assert.Equal(t, "1.0.2u", resp.Library.Version)
	}
}

func TestExecute_UnknownBackend(t *testing.T) {
	restore := saveGlobals(t)
	defer restore()

	rootCmd.SetArgs([]string{"version", "--home", t.TempDir(), "--backend", "libressl"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := Execute()
	require.ErrorIs(t, err, osslerrs.ErrConfigInvalid)
	assert.Equal(t, osslerrs.ExitInput, ExitCode(err))
}

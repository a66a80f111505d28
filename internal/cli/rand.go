package cli

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/mrz1836/ossl/internal/config"
	"github.com/mrz1836/ossl/internal/fileutil"
	"github.com/mrz1836/ossl/internal/output"
	"github.com/mrz1836/ossl/internal/securemem"
	osslerrs "github.com/mrz1836/ossl/pkg/errors"
	"github.com/mrz1836/ossl/pkg/osslrand"
)

// defaultRandTimeout bounds a whole rand invocation, including throttling.
const defaultRandTimeout = 5 * time.Minute

//nolint:gochecknoglobals // Encodings accepted by rand and rand.encoding
var randEncodings = []string{"hex", "base64", "raw"}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	randSize     int
	randCount    int
	randRate     float64
	randEncoding string
	randOut      string
	randKeep     bool
	randTimeout  time.Duration
)

// randCmd fills buffers from the library's random generator.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var randCmd = &cobra.Command{
	Use:         "rand",
	GroupID:     groupRandom,
	Annotations: map[string]string{annotationBackend: "--keep-devices-open needs OpenSSL 1.1.1 or later"},
	Short:   "Generate random bytes with the library's generator",
	Long: `Fill one or more buffers from the cryptography library's random generator
and print them encoded, one per line.

Batches can be throttled to a rate. When a fill fails, the diagnostics the
library left on its error queue are printed with the error.`,
	Example: `  ossl rand
  ossl rand --bytes 64 --encoding base64
  ossl rand --count 100 --rate 10 --out keys.txt
  ossl rand --bytes 1024 --encoding raw > blob.bin`,
	Args: cobra.NoArgs,
	RunE: runRand,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(randCmd)

	f := randCmd.Flags()
	f.IntVarP(&randSize, "bytes", "n", config.DefaultRandSize, "bytes per batch")
	f.IntVarP(&randCount, "count", "c", 1, "number of batches")
	f.Float64Var(&randRate, "rate", 0, "batches per second, 0 for unlimited")
	f.StringVarP(&randEncoding, "encoding", "e", config.DefaultRandEncoding, "output encoding: hex, base64, raw")
	f.StringVar(&randOut, "out", "", "write batches to this file instead of stdout")
	f.BoolVar(&randKeep, "keep-devices-open", false, "keep entropy devices open between batches")
	f.DurationVar(&randTimeout, "timeout", defaultRandTimeout, "give up after this long (0 for no limit)")
}

// randPlan is a resolved rand invocation.
type randPlan struct {
	Size     int
	Count    int
	Encoding string
	Rate     float64
	Burst    int
	Keep     bool
	Out      string
}

// resolveRandPlan merges flags over the configured defaults. Flags win only
// when set on the command line.
func resolveRandPlan(flags *pflag.FlagSet, c *config.Config) (randPlan, error) {
	plan := randPlan{
		Size:     c.Rand.Size,
		Count:    randCount,
		Encoding: c.Rand.Encoding,
		Rate:     c.Rand.Rate,
		Burst:    c.Rand.Burst,
		Keep:     c.Rand.KeepDevicesOpen,
		Out:      randOut,
	}
	if flags.Changed("bytes") {
		plan.Size = randSize
	}
	if flags.Changed("encoding") {
		plan.Encoding = randEncoding
	}
	if flags.Changed("rate") {
		plan.Rate = randRate
	}
	if flags.Changed("keep-devices-open") {
		plan.Keep = randKeep
	}
	return plan, plan.validate()
}

func (p *randPlan) validate() error {
	if p.Size <= 0 {
		return osslerrs.WithDetails(osslerrs.ErrInvalidSize, map[string]string{"bytes": strconv.Itoa(p.Size)})
	}
	if p.Count < 1 {
		return osslerrs.WithDetails(osslerrs.ErrInvalidInput, map[string]string{"count": strconv.Itoa(p.Count)})
	}
	if !slices.Contains(randEncodings, p.Encoding) {
		return osslerrs.WithDetails(osslerrs.ErrInvalidEncoding, map[string]string{"encoding": p.Encoding})
	}
	if p.Rate < 0 {
		return osslerrs.WithDetails(osslerrs.ErrInvalidInput, map[string]string{"rate": strconv.FormatFloat(p.Rate, 'g', -1, 64)})
	}
	if p.Burst < 1 {
		p.Burst = 1
	}
	return nil
}

// limiter paces batches; a zero rate never waits.
func (p randPlan) limiter() *rate.Limiter {
	if p.Rate <= 0 {
		return rate.NewLimiter(rate.Inf, p.Burst)
	}
	return rate.NewLimiter(rate.Limit(p.Rate), p.Burst)
}

// encodedLen is the size of one encoded batch, separator included. Raw
// batches need no second buffer.
func (p randPlan) encodedLen() int {
	switch p.Encoding {
	case "base64":
		return base64.StdEncoding.EncodedLen(p.Size) + 1
	case "raw":
		return 0
	default:
		return hex.EncodedLen(p.Size) + 1
	}
}

// encodeTo renders buf into dst, which must hold encodedLen bytes, and
// returns the rendered part. Raw batches are returned as is, without a
// separator.
func (p randPlan) encodeTo(dst, buf []byte) []byte {
	var n int
	switch p.Encoding {
	case "base64":
		base64.StdEncoding.Encode(dst, buf)
		n = base64.StdEncoding.EncodedLen(len(buf))
	case "raw":
		return buf
	default:
		n = hex.Encode(dst, buf)
	}
	dst[n] = '\n'
	return dst[:n+1]
}

// RandResponse is the JSON form of the rand command.
type RandResponse struct {
	Bytes    int      `json:"bytes"`
	Encoding string   `json:"encoding"`
	Count    int      `json:"count"`
	Samples  []string `json:"samples,omitempty"`
	File     string   `json:"file,omitempty"`
}

// generate fills plan.Count batches and hands each one, encoded, to emit.
// The random bytes and their encoding both live in locked buffers that
// are reused and wiped on return, so emit must not retain its argument.
func generate(ctx context.Context, src *osslrand.Source, plan randPlan, emit func(batch []byte) error) error {
	lim := plan.limiter()
	mem := securemem.New(plan.Size)
	defer func() { _ = mem.Close() }()
	enc := securemem.New(plan.encodedLen())
	defer func() { _ = enc.Close() }()

	buf := mem.Bytes()
	for i := 0; i < plan.Count; i++ {
		if err := lim.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for batch %d: %w", i+1, err)
		}
		if err := src.Bytes(buf); err != nil {
			return err
		}
		if err := emit(plan.encodeTo(enc.Bytes(), buf)); err != nil {
			return err
		}
	}
	return nil
}

func runRand(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	plan, err := resolveRandPlan(cmd.Flags(), cc.Config)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, randTimeout)
	defer cancel()

	return executeRand(ctx, cmd, cc, plan)
}

func executeRand(ctx context.Context, cmd *cobra.Command, cc *CommandContext, plan randPlan) error {
	if cc.Formatter.IsJSON() && plan.Out == "" && plan.Encoding == "raw" {
		return osslerrs.WithSuggestion(
			osslerrs.WithDetails(osslerrs.ErrInvalidEncoding, map[string]string{"encoding": "raw"}),
			"raw bytes cannot be embedded in JSON; use hex or base64",
		)
	}

	src := osslrand.New(cc.Binding, osslrand.WithObserver(cc.Metrics))

	if plan.Size > src.MaxLen() {
		return osslerrs.WithDetails(osslerrs.ErrInvalidSize, map[string]string{
			"bytes": strconv.Itoa(plan.Size),
			"max":   strconv.Itoa(src.MaxLen()),
		})
	}

	if plan.Keep {
		if err := src.KeepRandomDevicesOpen(true); err != nil {
			return osslerrs.WithSuggestion(osslerrs.FromBackend(err),
				"drop --keep-devices-open or pick a backend that supports it")
		}
		defer func() { _ = src.KeepRandomDevicesOpen(false) }()
	}

	cc.Logger.Debug("rand: %d batch(es) of %d bytes, encoding %s", plan.Count, plan.Size, plan.Encoding)

	w := cmd.OutOrStdout()
	resp := RandResponse{Bytes: plan.Size, Encoding: plan.Encoding, Count: plan.Count}

	if plan.Out != "" {
		err := fileutil.WriteAtomicFunc(plan.Out, 0o600, func(f io.Writer) error {
			return generate(ctx, src, plan, func(batch []byte) error {
				_, err := f.Write(batch)
				return err
			})
		})
		if err != nil {
			return err
		}
		resp.File = plan.Out
		if cc.Formatter.IsJSON() {
			return writeJSON(w, resp)
		}
		output.Success(cmd.ErrOrStderr(), "wrote %d batch(es) to %s", plan.Count, plan.Out)
		return nil
	}

	if cc.Formatter.IsJSON() {
		// Samples are Go strings and outlive the locked buffers.
		err := generate(ctx, src, plan, func(batch []byte) error {
			resp.Samples = append(resp.Samples, strings.TrimSuffix(string(batch), "\n"))
			return nil
		})
		if err != nil {
			return err
		}
		return writeJSON(w, resp)
	}

	return generate(ctx, src, plan, func(batch []byte) error {
		_, err := w.Write(batch)
		return err
	})
}

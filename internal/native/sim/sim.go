// Package sim is an in-process backend with the observable behavior of the
// native cryptography library's error queue and random generator.
//
// Error queues are kept per OS thread, so callers get the same thread-local
// semantics they would get from the real library and must pin goroutines
// with runtime.LockOSThread around a call and its drain.
package sim

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mrz1836/ossl/internal/native"
)

// Variant selects which library release the backend behaves like.
type Variant string

// Supported variants.
const (
	OpenSSL3   Variant = "openssl-3.0"
	OpenSSL111 Variant = "openssl-1.1.1"
	OpenSSL102 Variant = "openssl-1.0.2"
	BoringSSL  Variant = "boringssl"
)

// DefaultVariant is used when no variant is configured.
const DefaultVariant = OpenSSL3

// ErrUnknownVariant is returned by ParseVariant.
var ErrUnknownVariant = errors.New("unknown backend variant")

// Variants lists every supported variant.
func Variants() []Variant {
	return []Variant{OpenSSL3, OpenSSL111, OpenSSL102, BoringSSL}
}

// ParseVariant parses a variant name. Short forms such as "3", "1.1" and
// "boring" are accepted.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "openssl-3.0", "openssl-3", "openssl3", "3", "3.0":
		return OpenSSL3, nil
	case "openssl-1.1.1", "openssl-1.1", "1.1.1", "1.1":
		return OpenSSL111, nil
	case "openssl-1.0.2", "openssl-1.0", "1.0.2", "1.0":
		return OpenSSL102, nil
	case "boringssl", "boring":
		return BoringSSL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

// Option configures a Backend.
type Option func(*Backend)

// WithMaxRandLen lowers the largest single random request the backend accepts.
func WithMaxRandLen(n int) Option {
	return func(b *Backend) {
		b.maxRandLen = n
	}
}

// WithEntropy replaces the entropy source used to key the generator.
func WithEntropy(r io.Reader) Option {
	return func(b *Backend) {
		b.drbg.entropy = r
	}
}

// WithRandFailures makes the next n random requests fail.
func WithRandFailures(n int) Option {
	return func(b *Backend) {
		b.randFailures.Store(int64(n))
	}
}

// Backend is the simulated library. The zero value is not usable; call New.
type Backend struct {
	variant    Variant
	maxRandLen int

	initOnce  sync.Once
	initCount atomic.Int64

	mu     sync.Mutex
	queues map[int]*errState

	drbg         drbg
	randFailures atomic.Int64
	keepDevices  atomic.Bool
}

// New creates a backend that behaves like the given variant.
func New(v Variant, opts ...Option) *Backend {
	b := &Backend{
		variant:    v,
		maxRandLen: math.MaxInt32,
		queues:     make(map[int]*errState),
		drbg:       drbg{entropy: rand.Reader},
	}
	if v == BoringSSL {
		b.maxRandLen = math.MaxInt
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Variant returns the variant the backend behaves like.
func (b *Backend) Variant() Variant {
	return b.variant
}

// Init marks the library initialized. Only the first call has an effect.
func (b *Backend) Init() {
	b.initOnce.Do(func() {
		b.initCount.Add(1)
	})
}

// Initialized reports whether Init has run.
func (b *Backend) Initialized() bool {
	return b.initCount.Load() > 0
}

// Info returns the identity and capabilities of the variant.
func (b *Backend) Info() native.Info {
	info := native.Info{
		Caps: native.Caps{
			MallocedData:   true,
			RandConvention: native.RandPositiveOK,
			MaxRandLen:     b.maxRandLen,
		},
	}
	switch b.variant {
	case OpenSSL3:
		info.Name = "OpenSSL"
		info.Version = "OpenSSL 3.0.13 30 Jan 2024 (simulated)"
		info.Caps.GetErrorAll = true
		info.Caps.NewErrorAPI = true
		info.Caps.KeepRandomDevices = true
	case OpenSSL111:
		info.Name = "OpenSSL"
		info.Version = "OpenSSL 1.1.1w 11 Sep 2023 (simulated)"
		info.Caps.KeepRandomDevices = true
	case OpenSSL102:
		info.Name = "OpenSSL"
		info.Version = "OpenSSL 1.0.2u 20 Dec 2019 (simulated)"
	case BoringSSL:
		info.Name = "BoringSSL"
		info.Version = "BoringSSL (simulated)"
		info.Caps.MallocedData = false
		info.Caps.RandSizeT = true
	}
	return info
}

// Lib extracts the library id from a code.
func (b *Backend) Lib(code native.Code) int {
	if b.variant == OpenSSL3 {
		return int(code>>23) & 0xFF
	}
	return int(code>>24) & 0xFF
}

// Func extracts the function id from a code. Layouts without a function
// field always return zero.
func (b *Backend) Func(code native.Code) int {
	switch b.variant {
	case OpenSSL111, OpenSSL102:
		return int(code>>12) & 0xFFF
	default:
		return 0
	}
}

// Reason extracts the reason id from a code.
func (b *Backend) Reason(code native.Code) int {
	if b.variant == OpenSSL3 {
		return int(code & 0x7FFFFF)
	}
	return int(code & 0xFFF)
}

// Pack builds a code from its parts using the variant's layout.
func (b *Backend) Pack(lib, fn, reason int) native.Code {
	switch b.variant {
	case OpenSSL3:
		return native.Code(lib&0xFF)<<23 | native.Code(reason&0x7FFFFF)
	case OpenSSL111, OpenSSL102:
		return native.Code(lib&0xFF)<<24 | native.Code(fn&0xFFF)<<12 | native.Code(reason&0xFFF)
	default:
		return native.Code(lib&0xFF)<<24 | native.Code(reason&0xFFF)
	}
}

// LibErrorString resolves the library name of a code.
func (b *Backend) LibErrorString(code native.Code) (string, bool) {
	name, ok := libNames[b.Lib(code)]
	return name, ok
}

// ReasonErrorString resolves the reason text of a code, falling back to the
// reasons shared by all libraries.
func (b *Backend) ReasonErrorString(code native.Code) (string, bool) {
	reason := b.Reason(code)
	if name, ok := reasonNames[libReason{b.Lib(code), reason}]; ok {
		return name, true
	}
	name, ok := reasonNames[libReason{0, reason}]
	return name, ok
}

// FuncErrorString resolves a function name from the function id of a code.
// Only 1.x layouts carry one.
func (b *Backend) FuncErrorString(code native.Code) native.Ref {
	if b.variant != OpenSSL111 && b.variant != OpenSSL102 {
		return native.Ref{}
	}
	name, ok := funcNames[libFunc{b.Lib(code), b.Func(code)}]
	if !ok {
		return native.Ref{}
	}
	return native.StaticRef(name)
}

// KeepRandomDevicesOpen records whether entropy devices stay open.
func (b *Backend) KeepRandomDevicesOpen(keep bool) {
	b.keepDevices.Store(keep)
}

// RandomDevicesOpen reports the last value set by KeepRandomDevicesOpen.
func (b *Backend) RandomDevicesOpen() bool {
	return b.keepDevices.Load()
}

// FailRand makes the next n random requests fail.
func (b *Backend) FailRand(n int) {
	b.randFailures.Store(int64(n))
}

// RandBytes fills buf from the generator. On failure it raises a RAND
// diagnostic on the calling thread's queue and returns 0.
func (b *Backend) RandBytes(buf []byte) int {
	if b.randFailures.Load() > 0 && b.randFailures.Add(-1) >= 0 {
		b.raiseRand(ReasonRANDNotSeeded, "")
		return 0
	}
	if err := b.drbg.read(buf); err != nil {
		b.raiseRand(ReasonRANDEntropyFailed, err.Error())
		return 0
	}
	return 1
}

func (b *Backend) raiseRand(reason int, data string) {
	d := Diagnostic{
		Lib:      LibRAND,
		Func:     FuncRANDBytes,
		Reason:   reason,
		File:     "crypto/rand/rand_lib.c",
		Line:     978,
		Function: "RAND_bytes",
	}
	if data != "" {
		d.Data = data
		d.DataMode = DataDynamic
	}
	b.Raise(d)
}

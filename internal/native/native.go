// Package native describes the foreign boundary to the cryptography backend.
//
// Everything above this package talks to the backend only through the
// interfaces declared here. A backend implements Backend plus whichever
// optional interfaces its capability set advertises.
package native

import (
	"math"
	"unsafe"
)

// Code is a packed backend error code. The bit layout is owned by the
// backend; use Backend.Lib, Backend.Func and Backend.Reason to unpack it.
// Zero means the error queue was empty.
type Code uint64

// Flags describe the extra data attached to a queue entry.
type Flags int

// Extra data flags, matching ERR_TXT_MALLOCED and ERR_TXT_STRING.
const (
	TxtMalloced Flags = 0x01
	TxtString   Flags = 0x02
)

// Has reports whether all bits of f2 are set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Ref is a non-owning reference to a NUL-terminated string held in backend
// memory. The byte view excludes the terminator. A Ref never keeps the
// memory alive; how long it stays valid is decided by whoever produced it.
type Ref struct {
	ptr unsafe.Pointer
	b   []byte
}

// NewRef wraps a backend address and a view of its bytes (terminator excluded).
// ptr may be nil for backends that do not live behind cgo.
func NewRef(ptr unsafe.Pointer, b []byte) Ref {
	return Ref{ptr: ptr, b: b}
}

// StaticRef references a Go string that lives for the whole process.
func StaticRef(s string) Ref {
	if s == "" {
		return Ref{b: []byte{}}
	}
	return Ref{b: unsafe.Slice(unsafe.StringData(s), len(s))}
}

// IsNil reports whether r is the null reference.
func (r Ref) IsNil() bool {
	return r.ptr == nil && r.b == nil
}

// Pointer returns the backend address, or nil when the backend has none.
func (r Ref) Pointer() unsafe.Pointer {
	return r.ptr
}

// Bytes returns the referenced bytes without copying.
func (r Ref) Bytes() []byte {
	return r.b
}

// Len returns the length of the string, terminator excluded.
func (r Ref) Len() int {
	return len(r.b)
}

// Slice returns a reference to the first n bytes of r.
func (r Ref) Slice(n int) Ref {
	return Ref{ptr: r.ptr, b: r.b[:n]}
}

// View returns the referenced bytes as a string without copying. The string
// is only usable while the backend keeps the memory alive.
func (r Ref) View() string {
	if len(r.b) == 0 {
		return ""
	}
	return unsafe.String(&r.b[0], len(r.b))
}

// Entry is one slot popped from the backend error queue.
type Entry struct {
	Code  Code
	File  Ref
	Line  int
	Func  Ref
	Data  Ref
	Flags Flags
}

// RandConvention is the return-code polarity of the random-fill primitive.
type RandConvention int

// Random-fill return conventions.
const (
	// RandPositiveOK means a return value greater than zero is success.
	RandPositiveOK RandConvention = iota
	// RandZeroOK means zero is success and anything else is failure.
	RandZeroOK
)

// Failed reports whether rc signals failure under the convention.
func (c RandConvention) Failed(rc int) bool {
	if c == RandZeroOK {
		return rc != 0
	}
	return rc <= 0
}

// Caps is the capability set of a backend. It is fixed for the lifetime of
// the backend and is read once when a binding is built.
type Caps struct {
	GetErrorAll       bool
	NewErrorAPI       bool
	MallocedData      bool
	KeepRandomDevices bool
	// RandSizeT is set when the random-fill length is a size_t rather than
	// a C int.
	RandSizeT      bool
	RandConvention RandConvention
	MaxRandLen     int
}

// RandLimit is the largest single random request: MaxRandLen, and never
// more than a C int can carry unless the length is a size_t.
func (c Caps) RandLimit() int {
	if !c.RandSizeT && c.MaxRandLen > math.MaxInt32 {
		return math.MaxInt32
	}
	return c.MaxRandLen
}

// Info identifies a backend.
type Info struct {
	Name    string
	Version string
	Caps    Caps
}

// Backend is the set of primitives every backend provides.
type Backend interface {
	// Init performs the backend's lazy global initialization. It must be
	// idempotent and safe to call concurrently.
	Init()
	Info() Info

	// LibErrorString and ReasonErrorString resolve static names for a code.
	LibErrorString(code Code) (string, bool)
	ReasonErrorString(code Code) (string, bool)

	Lib(code Code) int
	Func(code Code) int
	Reason(code Code) int
	Pack(lib, fn, reason int) Code

	// RandBytes fills buf and returns the backend's raw return code.
	RandBytes(buf []byte) int
}

// ErrorAllGetter pops the oldest entry, function name included, in one call.
type ErrorAllGetter interface {
	GetErrorAll() Entry
}

// LegacyGetter pops the oldest entry without its function name, which is
// resolved separately from the popped code.
type LegacyGetter interface {
	GetErrorLineData() Entry
	FuncErrorString(code Code) Ref
}

// LegacyPutter pushes an entry with a single call.
type LegacyPutter interface {
	PutError(lib, fn, reason int, file Ref, line int)
}

// ModernPutter pushes an entry as new + debug info + error code.
type ModernPutter interface {
	NewError()
	SetDebug(file Ref, line int, fn Ref)
	SetError(lib, reason int)
}

// DataSetter attaches extra data to the newest entry. Memory passed with
// TxtMalloced must come from Malloc; the backend frees it when the slot is
// recycled.
type DataSetter interface {
	Malloc(n int, file string, line int) (Ref, bool)
	SetErrorData(data Ref, flags Flags)
}

// RandDeviceKeeper controls whether entropy device descriptors stay open.
type RandDeviceKeeper interface {
	KeepRandomDevicesOpen(keep bool)
}

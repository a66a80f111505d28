package osslerr

import (
	"fmt"
	"runtime"
	"unicode/utf8"

	"github.com/mrz1836/ossl/internal/native"
)

type dataKind int

const (
	dataNone dataKind = iota
	dataBorrowed
	dataOwned
)

// Data is the optional free-form text attached to a record. It either
// borrows the backend's static storage or owns a copy taken at extraction
// time, when the backend would otherwise free the text.
type Data struct {
	kind dataKind
	text string
	ref  native.Ref
}

// Present reports whether any data is attached.
func (d Data) Present() bool {
	return d.kind != dataNone
}

// Owned reports whether the text was copied out of the backend.
func (d Data) Owned() bool {
	return d.kind == dataOwned
}

// String returns the text, or "" when nothing is attached.
func (d Data) String() string {
	return d.text
}

// Error is one diagnostic record taken off the backend's error queue.
type Error struct {
	code native.Code
	file native.Ref
	line int
	fn   native.Ref
	data Data

	b *Binding
}

// Pop removes the oldest record from the calling thread's queue using the
// default binding.
func Pop() (*Error, bool) {
	return Default().Pop()
}

// Pop removes the oldest record from the calling thread's queue. It
// returns false when the queue is empty.
func (b *Binding) Pop() (*Error, bool) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	b.backend.Init()
	e := b.pop()
	if e.Code == 0 {
		return nil, false
	}
	return b.record(e), true
}

// record converts a popped entry. Backend-owned data is copied here, before
// the next queue operation can free it.
func (b *Binding) record(e native.Entry) *Error {
	r := &Error{
		code: e.Code,
		file: e.File,
		line: e.Line,
		fn:   e.Func,
		b:    b,
	}
	if !e.Flags.Has(native.TxtString) || e.Data.IsNil() {
		return r
	}
	text := e.Data.Bytes()
	mustUTF8(text, "error data")
	if b.info.Caps.MallocedData && e.Flags.Has(native.TxtMalloced) {
		r.data = Data{kind: dataOwned, text: string(text)}
	} else {
		r.data = Data{kind: dataBorrowed, text: e.Data.View(), ref: e.Data}
	}
	return r
}

// Describe builds a record for a bare code, with no source location or
// data, so its parts can be resolved and rendered.
func (b *Binding) Describe(code Code) *Error {
	b.backend.Init()
	r := &Error{code: code, b: b}
	if g, ok := b.backend.(native.LegacyGetter); ok {
		r.fn = g.FuncErrorString(code)
	}
	return r
}

func mustUTF8(b []byte, what string) {
	if !utf8.Valid(b) {
		panic(fmt.Sprintf("osslerr: backend returned %s that is not valid UTF-8", what))
	}
}

func checked(s string, ok bool, what string) (string, bool) {
	if !ok {
		return "", false
	}
	if !utf8.ValidString(s) {
		panic(fmt.Sprintf("osslerr: backend returned %s that is not valid UTF-8", what))
	}
	return s, true
}

// Code returns the packed error code.
func (e *Error) Code() Code {
	return e.code
}

// LibraryID returns the library id packed into the code.
func (e *Error) LibraryID() int {
	return e.b.backend.Lib(e.code)
}

// FunctionID returns the function id packed into the code. Layouts
// without a function field report zero.
func (e *Error) FunctionID() int {
	return e.b.backend.Func(e.code)
}

// ReasonID returns the reason id packed into the code.
func (e *Error) ReasonID() int {
	return e.b.backend.Reason(e.code)
}

// Library returns the name of the library that raised the error.
func (e *Error) Library() (string, bool) {
	e.b.backend.Init()
	s, ok := e.b.backend.LibErrorString(e.code)
	return checked(s, ok, "library name")
}

// Function returns the name of the function that raised the error.
func (e *Error) Function() (string, bool) {
	if e.fn.IsNil() {
		return "", false
	}
	mustUTF8(e.fn.Bytes(), "function name")
	return e.fn.View(), true
}

// Reason returns the reason text of the error.
func (e *Error) Reason() (string, bool) {
	e.b.backend.Init()
	s, ok := e.b.backend.ReasonErrorString(e.code)
	return checked(s, ok, "reason")
}

// File returns the source file that raised the error.
func (e *Error) File() string {
	if e.file.IsNil() {
		return ""
	}
	mustUTF8(e.file.Bytes(), "file name")
	return e.file.View()
}

// Line returns the source line that raised the error.
func (e *Error) Line() int {
	return e.line
}

// Data returns the attached text, if any.
func (e *Error) Data() (string, bool) {
	return e.data.String(), e.data.Present()
}

// Extra returns the attached data with its ownership.
func (e *Error) Extra() Data {
	return e.data
}

// Is reports whether target is ErrBackend.
func (e *Error) Is(target error) bool {
	return target == ErrBackend
}

package sim

import (
	"github.com/mrz1836/ossl/internal/native"
)

// numErrors is the ring size of one thread's queue. One slot is always
// unused, so a queue holds at most numErrors-1 entries.
const numErrors = 16

// freedByte overwrites released data so stale views are visibly wrong.
const freedByte = 0xDD

type slot struct {
	code  native.Code
	file  native.Ref
	line  int
	fn    native.Ref
	data  native.Ref
	flags native.Flags
}

// errState is one thread's error queue.
type errState struct {
	slots  [numErrors]slot
	top    int
	bottom int

	// released holds the dynamic data of the most recently popped slot. It
	// is freed by the next queue operation on the thread.
	released native.Ref
	scribble bool
}

func (s *errState) len() int {
	return (s.top - s.bottom + numErrors) % numErrors
}

// recycle frees data handed out by the previous pop.
func (s *errState) recycle() {
	if s.released.IsNil() {
		return
	}
	if s.scribble {
		wipe(s.released.Bytes())
	}
	s.released = native.Ref{}
}

func (s *errState) freeSlot(i int) {
	sl := &s.slots[i]
	if sl.flags.Has(native.TxtMalloced) && s.scribble {
		wipe(sl.data.Bytes())
	}
	*sl = slot{}
}

func (s *errState) push() *slot {
	s.recycle()
	s.top = (s.top + 1) % numErrors
	if s.top == s.bottom {
		s.freeSlot((s.bottom + 1) % numErrors)
		s.bottom = (s.bottom + 1) % numErrors
	}
	s.freeSlot(s.top)
	return &s.slots[s.top]
}

func (s *errState) pop() slot {
	s.recycle()
	if s.top == s.bottom {
		return slot{}
	}
	i := (s.bottom + 1) % numErrors
	s.bottom = i
	sl := s.slots[i]
	if sl.flags.Has(native.TxtMalloced) {
		s.released = sl.data
	}
	s.slots[i] = slot{}
	return sl
}

func (s *errState) clear() {
	s.recycle()
	for i := range s.slots {
		s.freeSlot(i)
	}
	s.top, s.bottom = 0, 0
}

func wipe(b []byte) {
	for i := range b {
		b[i] = freedByte
	}
}

// state returns the calling thread's queue, creating it on first use.
// b.mu must be held.
func (b *Backend) state() *errState {
	tid := threadID()
	s, ok := b.queues[tid]
	if !ok {
		s = &errState{scribble: b.variant != BoringSSL}
		b.queues[tid] = s
	}
	return s
}

func (b *Backend) entry(sl slot) native.Entry {
	flags := sl.flags
	if b.variant == BoringSSL {
		flags &^= native.TxtMalloced
	}
	return native.Entry{
		Code:  sl.code,
		File:  sl.file,
		Line:  sl.line,
		Func:  sl.fn,
		Data:  sl.data,
		Flags: flags,
	}
}

// GetErrorAll pops the oldest entry of the calling thread's queue. On 1.x
// variants the function name comes from the code, as there is no debug info.
func (b *Backend) GetErrorAll() native.Entry {
	b.mu.Lock()
	sl := b.state().pop()
	b.mu.Unlock()

	e := b.entry(sl)
	if e.Code != 0 && e.Func.IsNil() {
		e.Func = b.FuncErrorString(e.Code)
	}
	return e
}

// GetErrorLineData pops the oldest entry without resolving a function name.
func (b *Backend) GetErrorLineData() native.Entry {
	b.mu.Lock()
	sl := b.state().pop()
	b.mu.Unlock()

	e := b.entry(sl)
	e.Func = native.Ref{}
	return e
}

// PutError pushes a new entry in one call.
func (b *Backend) PutError(lib, fn, reason int, file native.Ref, line int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sl := b.state().push()
	sl.code = b.Pack(lib, fn, reason)
	sl.file = file
	sl.line = line
}

// NewError starts a new entry.
func (b *Backend) NewError() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state().push()
}

// SetDebug records the source location of the newest entry.
func (b *Backend) SetDebug(file native.Ref, line int, fn native.Ref) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.state()
	sl := &s.slots[s.top]
	sl.file = file
	sl.line = line
	sl.fn = fn
}

// SetError sets the code of the newest entry.
func (b *Backend) SetError(lib, reason int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.state()
	s.slots[s.top].code = b.Pack(lib, 0, reason)
}

// Malloc allocates n bytes the backend may later free.
func (b *Backend) Malloc(n int, _ string, _ int) (native.Ref, bool) {
	if n <= 0 {
		return native.Ref{}, false
	}
	return native.NewRef(nil, make([]byte, n)), true
}

// SetErrorData attaches data to the newest entry, releasing any previous
// dynamic data it held.
func (b *Backend) SetErrorData(data native.Ref, flags native.Flags) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.state()
	sl := &s.slots[s.top]
	if sl.flags.Has(native.TxtMalloced) && s.scribble {
		wipe(sl.data.Bytes())
	}
	sl.data = data
	sl.flags = flags
}

// ClearError empties the calling thread's queue.
func (b *Backend) ClearError() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state().clear()
}

// Pending returns the number of entries queued on the calling thread.
func (b *Backend) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state().len()
}

// DataMode says how Raise attaches extra data.
type DataMode int

// Data modes.
const (
	DataNone DataMode = iota
	// DataStatic attaches a reference to memory that lives for the process.
	DataStatic
	// DataDynamic copies the data into backend-allocated memory that is
	// freed when its slot is recycled.
	DataDynamic
)

// Diagnostic describes an entry an emulated operation leaves on the queue.
type Diagnostic struct {
	Lib      int
	Func     int
	Reason   int
	File     string
	Line     int
	Function string
	Data     string
	DataMode DataMode
}

// Raise pushes a diagnostic the way the library's own error macros do:
// debug info on 3.0, a packed function id on 1.x.
func (b *Backend) Raise(d Diagnostic) {
	b.Init()
	file := native.StaticRef(d.File)
	if b.variant == OpenSSL3 {
		var fn native.Ref
		if d.Function != "" {
			fn = native.StaticRef(d.Function)
		}
		b.NewError()
		b.SetDebug(file, d.Line, fn)
		b.SetError(d.Lib, d.Reason)
	} else {
		b.PutError(d.Lib, d.Func, d.Reason, file, d.Line)
	}

	switch d.DataMode {
	case DataStatic:
		b.SetErrorData(native.StaticRef(d.Data), native.TxtString)
	case DataDynamic:
		buf, ok := b.Malloc(len(d.Data)+1, "sim/queue.go", 0)
		if !ok {
			return
		}
		copy(buf.Bytes(), d.Data)
		buf.Bytes()[len(d.Data)] = 0
		b.SetErrorData(buf.Slice(len(d.Data)), native.TxtMalloced|native.TxtString)
	case DataNone:
	}
}

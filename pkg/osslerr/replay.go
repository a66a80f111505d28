package osslerr

import (
	"runtime"

	"github.com/mrz1836/ossl/internal/native"
)

type pusher interface {
	push(e *Error)
}

// legacyPusher pushes with a single put call. The function name is not
// carried; the code's own function id is.
type legacyPusher struct {
	backend native.Backend
	put     native.LegacyPutter
}

func (p legacyPusher) push(e *Error) {
	p.put.PutError(
		p.backend.Lib(e.code),
		p.backend.Func(e.code),
		p.backend.Reason(e.code),
		e.file,
		e.line,
	)
}

// modernPusher pushes with the new/debug/set sequence, which keeps the
// function name.
type modernPusher struct {
	backend native.Backend
	put     native.ModernPutter
}

func (p modernPusher) push(e *Error) {
	p.put.NewError()
	p.put.SetDebug(e.file, e.line, e.fn)
	p.put.SetError(p.backend.Lib(e.code), p.backend.Reason(e.code))
}

// Put pushes the record back onto the calling thread's queue, data included.
func (e *Error) Put() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	b := e.b
	b.backend.Init()
	b.push.push(e)
	b.putData(e)
	b.observer.ObserveReplay(1)
	b.logger.Debug("replayed error %08X", uint64(e.code))
}

// putData attaches the record's data to the entry just pushed. Owned text
// is copied into backend-allocated memory, which the backend then frees.
func (b *Binding) putData(e *Error) {
	if b.data == nil {
		return
	}
	switch e.data.kind {
	case dataBorrowed:
		b.data.SetErrorData(e.data.ref, native.TxtString)
	case dataOwned:
		text := e.data.text
		_, file, line, _ := runtime.Caller(0)
		buf, ok := b.data.Malloc(len(text)+1, file, line)
		if !ok {
			return
		}
		out := buf.Bytes()
		n := copy(out, text)
		out[n] = 0
		b.data.SetErrorData(buf.Slice(n), native.TxtMalloced|native.TxtString)
	case dataNone:
	}
}

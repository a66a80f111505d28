package osslerr

import (
	"errors"
	"runtime"
	"slices"
)

// ErrBackend matches every error produced from the backend's queue.
var ErrBackend = errors.New("backend error")

// ErrorStack is the ordered list of records drained from one thread's
// queue, oldest first.
type ErrorStack struct {
	errs []*Error
}

// Get drains the calling thread's queue using the default binding.
func Get() *ErrorStack {
	return Default().GetStack()
}

// GetStack drains the calling thread's queue. The result may be empty.
func (b *Binding) GetStack() *ErrorStack {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	b.backend.Init()
	var errs []*Error
	for {
		e := b.pop()
		if e.Code == 0 {
			break
		}
		errs = append(errs, b.record(e))
	}

	b.observer.ObserveDrain(len(errs))
	if len(errs) > 0 {
		b.logger.Debug("drained %d error(s) from the backend queue", len(errs))
	}
	return &ErrorStack{errs: errs}
}

// Put replays every record onto the calling thread's queue, oldest first,
// so a later drain sees them in the same order.
func (s *ErrorStack) Put() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for _, e := range s.errs {
		e.Put()
	}
}

// Errors returns the records, oldest first.
func (s *ErrorStack) Errors() []*Error {
	return slices.Clone(s.errs)
}

// Len returns the number of records.
func (s *ErrorStack) Len() int {
	return len(s.errs)
}

// Empty reports whether the drain found nothing.
func (s *ErrorStack) Empty() bool {
	return len(s.errs) == 0
}

// Unwrap exposes the records to errors.Is and errors.As.
func (s *ErrorStack) Unwrap() []error {
	out := make([]error, len(s.errs))
	for i, e := range s.errs {
		out[i] = e
	}
	return out
}

// Is reports whether target is ErrBackend.
func (s *ErrorStack) Is(target error) bool {
	return target == ErrBackend
}

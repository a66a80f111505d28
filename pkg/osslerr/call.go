package osslerr

import "runtime"

// Run calls fn with the goroutine pinned to its OS thread and, when fn
// reports failure, drains that thread's queue into the returned
// *ErrorStack. The stack is returned even if the drain found nothing.
func Run(fn func() bool) error {
	return Default().Run(fn)
}

// RunRC is Run for calls that return a status code, where any value <= 0
// is a failure. The code is returned in both cases.
func RunRC(fn func() int) (int, error) {
	return Default().RunRC(fn)
}

// Run is the binding's form of the package-level Run.
func (b *Binding) Run(fn func() bool) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	b.backend.Init()
	if fn() {
		return nil
	}
	return b.GetStack()
}

// RunRC is the binding's form of the package-level RunRC.
func (b *Binding) RunRC(fn func() int) (int, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	b.backend.Init()
	rc := fn()
	if rc > 0 {
		return rc, nil
	}
	return rc, b.GetStack()
}

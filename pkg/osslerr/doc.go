// Package osslerr exposes the cryptography backend's error queue.
//
// The backend reports failures only through a per-thread queue of
// diagnostic records. Every wrapper around a fallible backend call must
// drain that queue on the same OS thread, immediately after the call
// returns, or the records may be mixed up with those of a later call. Run
// and RunRC do exactly that:
//
//	err := osslerr.Run(func() bool {
//		return C.SOME_call() == 1
//	})
//
// The drained records form an *ErrorStack, which is the error value handed
// to callers. A stack can be replayed onto the queue with Put, for code
// that expects the native queue to still be populated.
package osslerr

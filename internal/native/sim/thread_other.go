//go:build !linux && !windows

package sim

// threadLocalQueues reports whether threadID tells OS threads apart. Here
// it does not: x/sys exposes no thread id for these systems, so every
// thread shares queue 0 and the simulator is only thread-local for callers
// that stay on one goroutine.
const threadLocalQueues = false

// threadID identifies the calling OS thread.
func threadID() int {
	return 0
}

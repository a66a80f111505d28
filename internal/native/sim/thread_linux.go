//go:build linux

package sim

import "golang.org/x/sys/unix"

// threadLocalQueues reports whether threadID tells OS threads apart.
const threadLocalQueues = true

// threadID identifies the calling OS thread.
func threadID() int {
	return unix.Gettid()
}

//go:build windows

package sim

import "golang.org/x/sys/windows"

// threadLocalQueues reports whether threadID tells OS threads apart.
const threadLocalQueues = true

// threadID identifies the calling OS thread.
func threadID() int {
	return int(windows.GetCurrentThreadId())
}

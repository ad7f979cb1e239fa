//go:build windows

package reactor

// wakeKey is the reactor key reserved across all platforms for wake
// notifications; real Source keys are allocated starting above this value
// (see reactor.go). IOCP's wake-up (PostQueuedCompletionStatus with a nil
// overlapped) never carries a key at all, unlike the epoll/kqueue self-pipe
// variants, but the constant is kept here for symmetry with notify_linux.go
// and notify_darwin.go, and as a defensive sentinel in iocpPoller.Wait.
const wakeKey uint64 = 0

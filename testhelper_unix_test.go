//go:build linux || darwin

package reactor

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

// testPipe returns a non-blocking pipe pair, grounded on the teacher's
// testCreateIOFD (testhelper_iofd_unix_test.go): pipe fds are accepted by
// both epoll and kqueue, unlike raw files.
func testPipe(t *testing.T) (r, w *os.File) {
	t.Helper()
	pr, pw, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	if err := unix.SetNonblock(int(pr.Fd()), true); err != nil {
		t.Fatalf("SetNonblock(r): %v", err)
	}
	if err := unix.SetNonblock(int(pw.Fd()), true); err != nil {
		t.Fatalf("SetNonblock(w): %v", err)
	}
	t.Cleanup(func() {
		pr.Close()
		pw.Close()
	})
	return pr, pw
}

// pipeHandle adapts an *os.File to Handle for use with Async[T] in tests.
type pipeHandle struct{ f *os.File }

func (h *pipeHandle) Fd() int      { return int(h.f.Fd()) }
func (h *pipeHandle) Close() error { return nil } // cleanup owns the real close

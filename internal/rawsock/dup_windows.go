//go:build windows

package rawsock

import "golang.org/x/sys/windows"

func dupFD(fd int) (int, error) {
	var dup windows.Handle
	h := windows.CurrentProcess()
	if err := windows.DuplicateHandle(h, windows.Handle(fd), h, &dup, 0, false, windows.DUPLICATE_SAME_ACCESS); err != nil {
		return -1, err
	}
	return int(dup), nil
}

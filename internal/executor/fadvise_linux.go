//go:build linux

package executor

import (
	"os"

	"golang.org/x/sys/unix"
)

// fadviseDontNeed advises the kernel to drop the page cache for f,
// defeating a stale read after an external process just renamed or
// rewrote the same file. Errors are ignored: this is an optimization,
// not a correctness requirement, and the retry-once logic in
// readSnapshot covers the case where a stale read slips through anyway.
func fadviseDontNeed(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_DONTNEED)
}

//go:build unix

package plinkbed

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps size bytes of file read-only. The mapping outlives the file
// descriptor, so the caller may close file once this returns.
func mapFile(file *os.File, size int64) ([]byte, func() error, error) {
	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}

	// Access is random by variant index.
	_ = unix.Madvise(data, unix.MADV_RANDOM)

	return data, func() error { return unix.Munmap(data) }, nil
}

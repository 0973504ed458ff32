//go:build !unix

package plinkbed

import (
	"io"
	"os"
)

// mapFile falls back to reading the whole file on platforms without mmap.
func mapFile(file *os.File, size int64) ([]byte, func() error, error) {
	logger.Printf("Warning: memory mapping is unavailable; reading all %d bytes of %s into memory\n", size, file.Name())

	data := make([]byte, size)
	if _, err := io.ReadFull(file, data); err != nil {
		return nil, nil, err
	}

	return data, nil, nil
}

package plinkbed

import (
	"errors"
	"fmt"

	"github.com/carbocation/pfx"
)

// Error kinds. Every error returned by this package matches exactly one of
// these with errors.Is.
var (
	// ErrIO is returned when a file is missing, unreadable or cannot be
	// mapped.
	ErrIO = errors.New("io error")

	// ErrConfig is returned for inconsistent configuration, e.g. opening a
	// BED file before the sample count is known.
	ErrConfig = errors.New("config error")

	// ErrData is returned for structurally invalid input values.
	ErrData = errors.New("data error")

	// ErrOutOfRange is returned when a variant or coordinate index does not
	// exist.
	ErrOutOfRange = errors.New("index out of range")
)

func ioError(err error) error {
	return fmt.Errorf("%w: %w", ErrIO, pfx.Err(err))
}

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %w", ErrConfig, pfx.Err(fmt.Errorf(format, args...)))
}

func dataErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %w", ErrData, pfx.Err(fmt.Errorf(format, args...)))
}

func rangeErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %w", ErrOutOfRange, pfx.Err(fmt.Errorf(format, args...)))
}

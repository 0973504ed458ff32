package plinkbed

import (
	"context"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression is how a text input (phenotypes, covariates, BIM, folds) is
// compressed. It is inferred from the file extension.
type Compression uint32

const (
	CompressionDisabled Compression = iota
	CompressionGzip
	CompressionZStandard
)

func (c Compression) String() string {
	switch c {
	case CompressionDisabled:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZStandard:
		return "zstd"
	default:
		return "Illegal selection"
	}
}

// CompressionFor infers the compression of path from its extension.
func CompressionFor(path string) Compression {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return CompressionGzip
	case strings.HasSuffix(path, ".zst"), strings.HasSuffix(path, ".zstd"):
		return CompressionZStandard
	}
	return CompressionDisabled
}

// multiCloser closes every closer in order and returns the first error.
type multiCloser struct {
	io.Reader
	closers []func() error
}

func (m *multiCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openText opens a local path or a gs://bucket/object URL and transparently
// decompresses .gz and .zst inputs.
func openText(ctx context.Context, path string) (io.ReadCloser, error) {
	src := &multiCloser{}

	if strings.HasPrefix(path, "gs://") {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, ioError(err)
		}
		bucket, object, err := splitGSPath(path)
		if err != nil {
			client.Close()
			return nil, err
		}
		rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
		if err != nil {
			client.Close()
			return nil, ioError(err)
		}
		src.Reader = rc
		src.closers = append(src.closers, rc.Close, client.Close)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, ioError(err)
		}
		src.Reader = f
		src.closers = append(src.closers, f.Close)
	}

	switch CompressionFor(path) {
	case CompressionGzip:
		gz, err := gzip.NewReader(src.Reader)
		if err != nil {
			src.Close()
			return nil, ioError(err)
		}
		src.Reader = gz
		src.closers = append([]func() error{gz.Close}, src.closers...)
	case CompressionZStandard:
		zr, err := zstd.NewReader(src.Reader)
		if err != nil {
			src.Close()
			return nil, ioError(err)
		}
		src.Reader = zr
		src.closers = append([]func() error{func() error { zr.Close(); return nil }}, src.closers...)
	}

	return src, nil
}

func splitGSPath(path string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(path, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", configErrorf("%s is not of the form gs://bucket/object", path)
	}
	return parts[0], parts[1], nil
}

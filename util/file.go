package util

import (
	"bufio"
	"io"
	"log"
	"os"
	"reflect"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// FileExists reports whether filename names a regular file.
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) || err != nil {
		return false
	}
	return !info.IsDir()
}

// CloseWithErr closes a resource and logs any error.
func CloseWithErr(closer io.Closer, name string) {
	if closer == nil {
		return
	}
	val := reflect.ValueOf(closer)
	if val.Kind() == reflect.Ptr && val.IsNil() {
		return
	}
	if err := closer.Close(); err != nil {
		if name == "" {
			log.Printf("close error: %v", err)
			return
		}
		log.Printf("close %s: %v", name, err)
	}
}

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

// OpenReader opens path for reading, decompressing ".gz" and ".zst" files.
func OpenReader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "gzip header %s", path)
		}
		return &multiCloser{Reader: zr, closers: []func() error{zr.Close, f.Close}}, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "zstd header %s", path)
		}
		return &multiCloser{Reader: zr, closers: []func() error{func() error { zr.Close(); return nil }, f.Close}}, nil
	default:
		return f, nil
	}
}

type writeCloser struct {
	io.Writer
	closers []func() error
}

func (w *writeCloser) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// CreateWriter creates path for writing, compressing by extension like
// OpenReader. Close flushes the compressor before closing the file.
func CreateWriter(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		zw := gzip.NewWriter(f)
		return &writeCloser{Writer: zw, closers: []func() error{zw.Close, f.Close}}, nil
	case strings.HasSuffix(path, ".zst"):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "zstd writer %s", path)
		}
		return &writeCloser{Writer: zw, closers: []func() error{zw.Close, f.Close}}, nil
	default:
		return f, nil
	}
}

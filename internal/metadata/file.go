package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// Open opens path for reading, decompressing .gz and .xz files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case strings.HasSuffix(path, ".xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("open xz %s: %w", path, err)
		}
		return &stackedCloser{Reader: xr, closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

// Create creates path for writing, compressing .gz and .xz files. Closing
// the writer flushes the compressor before closing the file.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		zw := gzip.NewWriter(f)
		return &stackedCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
	case strings.HasSuffix(path, ".xz"):
		xw, err := xz.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create xz %s: %w", path, err)
		}
		return &stackedCloser{Writer: xw, closers: []io.Closer{xw, f}}, nil
	default:
		return f, nil
	}
}

// ReadFile reads a metadata table from path.
func ReadFile(path string) (*Table, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	table, err := ReadTable(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return table, nil
}

// WriteFile writes table to path.
func WriteFile(path string, table *Table) (err error) {
	w, err := Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	if err := table.Write(w); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// stackedCloser closes its closers in order, innermost stream first.
type stackedCloser struct {
	io.Reader
	io.Writer
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/shared"
)

// FileSink writes payloads into a directory.
//
// Writes are atomic from the caller's point of view: content goes to a
// temporary file in the same directory, which is renamed into place only
// after a successful sync. A crash mid-write never leaves a truncated file
// at the final path.
type FileSink struct {
	dir string
}

// NewFileSink creates the output directory if needed and returns a sink
// writing into it.
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: output directory required", shared.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrWriteFailed, err)
	}
	return &FileSink{dir: dir}, nil
}

// Dir returns the sink's output directory.
func (s *FileSink) Dir() string { return s.dir }

func (s *FileSink) Deliver(ctx context.Context, name string, payload *formatter.Payload) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	final := filepath.Join(s.dir, name+payload.Ext)

	tmp, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrWriteFailed, err)
	}
	tmpName := tmp.Name()

	if err := writeAll(tmp, payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("%w: %v", shared.ErrWriteFailed, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("%w: %v", shared.ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("%w: %v", shared.ErrWriteFailed, err)
	}

	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("%w: %v", shared.ErrWriteFailed, err)
	}

	return []string{final}, nil
}

func writeAll(f *os.File, payload *formatter.Payload) error {
	for _, chunk := range payload.Chunks {
		if _, err := f.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

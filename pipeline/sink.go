package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sink receives a run's output. Nothing written is visible until Commit;
// Discard drops it.
type Sink interface {
	io.Writer
	Commit() error
	Discard() error
}

// BufferSink holds output in memory.
type BufferSink struct {
	buf       bytes.Buffer
	committed bool
	closed    bool
}

// NewBufferSink creates an empty in-memory sink.
func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

func (s *BufferSink) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrSinkClosed
	}
	return s.buf.Write(p)
}

// Commit exposes the buffered output through Bytes.
func (s *BufferSink) Commit() error {
	if s.closed {
		return ErrSinkClosed
	}
	s.closed = true
	s.committed = true
	return nil
}

// Discard drops the buffered output. It is a no-op after Commit or Discard.
func (s *BufferSink) Discard() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.buf.Reset()
	return nil
}

// Bytes returns the committed output, or nil if the sink was not committed.
func (s *BufferSink) Bytes() []byte {
	if !s.committed {
		return nil
	}
	return s.buf.Bytes()
}

// Committed reports whether Commit succeeded.
func (s *BufferSink) Committed() bool {
	return s.committed
}

// FileSink writes to a temporary file next to its target and renames it into
// place on Commit, so a failed run never leaves a partial output file.
type FileSink struct {
	path   string
	tmp    *os.File
	closed bool
}

// NewFileSink creates a sink for path. The target directory must exist.
func NewFileSink(path string) (*FileSink, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating output for %s: %w", path, err)
	}
	return &FileSink{path: path, tmp: tmp}, nil
}

// Path returns the final output path.
func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrSinkClosed
	}
	return s.tmp.Write(p)
}

// Commit syncs the temporary file and renames it to the target path.
func (s *FileSink) Commit() error {
	if s.closed {
		return ErrSinkClosed
	}
	s.closed = true

	if err := s.tmp.Sync(); err != nil {
		_ = s.tmp.Close()
		_ = os.Remove(s.tmp.Name())
		return err
	}
	if err := s.tmp.Close(); err != nil {
		_ = os.Remove(s.tmp.Name())
		return err
	}
	if err := os.Rename(s.tmp.Name(), s.path); err != nil {
		_ = os.Remove(s.tmp.Name())
		return fmt.Errorf("committing %s: %w", s.path, err)
	}
	return nil
}

// Discard removes the temporary file. It is a no-op after Commit or Discard.
func (s *FileSink) Discard() error {
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.tmp.Close()
	return os.Remove(s.tmp.Name())
}

package pipeline

import (
	"bufio"
	"bytes"
	"io"
	"iter"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LineSource yields trimmed, non-empty lines from a reader in a single
// forward pass. Lines are split on '\n' bytes before decoding, so multi-byte
// characters are never cut by read boundaries. Invalid UTF-8 becomes U+FFFD.
type LineSource struct {
	r        *bufio.Reader
	line     string
	consumed int64
	err      error
	done     bool
	started  bool
}

// NewLineSource creates a LineSource over r.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next advances to the next non-empty line. It returns false at end of input
// or on a read error; check Err afterwards.
func (s *LineSource) Next() bool {
	for !s.done {
		b, err := s.r.ReadBytes('\n')
		s.consumed += int64(len(b))
		switch {
		case err == io.EOF:
			s.done = true
		case err != nil:
			s.done = true
			s.err = err
			return false
		}

		if !s.started {
			s.started = true
			b = bytes.TrimPrefix(b, utf8BOM)
		}

		line := strings.TrimSpace(string(bytes.ToValidUTF8(b, []byte("\uFFFD"))))
		if line == "" {
			continue
		}
		s.line = line
		return true
	}
	return false
}

// Line returns the current line.
func (s *LineSource) Line() string {
	return s.line
}

// Err returns the read error that ended the sequence, if any.
func (s *LineSource) Err() error {
	return s.err
}

// BytesConsumed returns the number of raw bytes read so far.
func (s *LineSource) BytesConsumed() int64 {
	return s.consumed
}

// All returns the remaining lines as an iterator. The source is consumed as
// the iterator runs; a second pass needs a new LineSource.
func (s *LineSource) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for s.Next() {
			if !yield(s.line) {
				return
			}
		}
	}
}

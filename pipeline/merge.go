package pipeline

import (
	"bufio"
	"fmt"
	"io"

	"github.com/poiesic/lineembed/core"
)

// Merger writes resolved lines in input order. Lines resolved ahead of an
// unresolved earlier position are held until the gap closes.
type Merger struct {
	w       *bufio.Writer
	next    int
	pending map[int][]byte
	written int
}

// NewMerger creates a merger writing newline-terminated lines to w.
func NewMerger(w io.Writer) *Merger {
	return &Merger{
		w:       bufio.NewWriter(w),
		pending: make(map[int][]byte),
	}
}

// Resolve records the output for a position and writes every contiguous resolved line.
func (m *Merger) Resolve(position int, line []byte) error {
	if position < m.next {
		return fmt.Errorf("position %d already written", position)
	}
	if _, dup := m.pending[position]; dup {
		return fmt.Errorf("position %d resolved twice", position)
	}
	m.pending[position] = line

	for {
		out, ok := m.pending[m.next]
		if !ok {
			return nil
		}
		delete(m.pending, m.next)
		if _, err := m.w.Write(out); err != nil {
			return err
		}
		if err := m.w.WriteByte('\n'); err != nil {
			return err
		}
		m.next++
		m.written++
	}
}

// Pending returns the number of resolved lines waiting on an earlier position.
func (m *Merger) Pending() int {
	return len(m.pending)
}

// Written returns the number of lines written so far.
func (m *Merger) Written() int {
	return m.written
}

// Flush writes buffered output to the underlying writer.
func (m *Merger) Flush() error {
	return m.w.Flush()
}

// renderEmbedded sets the embedding on the item's record and serializes it.
func renderEmbedded(item Item, v core.Vector) ([]byte, error) {
	if err := item.Record.SetEmbedding(v); err != nil {
		return nil, fmt.Errorf("line %d: %w", item.Position+1, err)
	}
	return item.Record.MarshalJSON()
}

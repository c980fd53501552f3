package pipeline

import (
	"fmt"

	"github.com/poiesic/lineembed/core"
)

// Kind is the routing decision for one input line.
type Kind int

const (
	// ParseError lines are not a JSON object and are emitted verbatim.
	ParseError Kind = iota
	// PassThrough records already carry an embedding or have no text to embed.
	PassThrough
	// NeedsEmbedding records go to the batcher.
	NeedsEmbedding
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "parse-error"
	case PassThrough:
		return "pass-through"
	case NeedsEmbedding:
		return "needs-embedding"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Item is a classified line with its position in the input.
type Item struct {
	Position int
	Kind     Kind
	Line     string
	Record   *core.Record // nil for ParseError
	Text     string       // set for NeedsEmbedding
}

// Classify parses a line and decides how it is routed. The record is not modified.
func Classify(position int, line string) Item {
	item := Item{Position: position, Line: line}

	record, err := core.ParseRecord(line)
	if err != nil {
		item.Kind = ParseError
		return item
	}
	item.Record = record

	if record.HasEmbedding() {
		item.Kind = PassThrough
		return item
	}
	text := record.EmbeddingText()
	if text == "" {
		item.Kind = PassThrough
		return item
	}

	item.Kind = NeedsEmbedding
	item.Text = text
	return item
}

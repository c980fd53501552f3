package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatcher(t *testing.T) {
	b := NewBatcher(3)

	var emitted []Batch
	for i := range 7 {
		if batch, full := b.Add(Item{Position: i, Text: fmt.Sprint(i)}); full {
			emitted = append(emitted, batch)
		}
	}
	require.Len(t, emitted, 2)
	assert.Equal(t, []string{"0", "1", "2"}, emitted[0].Texts())
	assert.Equal(t, []string{"3", "4", "5"}, emitted[1].Texts())
	assert.Equal(t, 1, b.Len())

	rest, ok := b.Flush()
	require.True(t, ok)
	assert.Equal(t, 1, rest.Len())
	assert.Equal(t, 6, rest.Items[0].Position)

	_, ok = b.Flush()
	assert.False(t, ok)
	assert.Zero(t, b.Len())
}

func TestBatcher_EmittedBatchesAreIndependent(t *testing.T) {
	b := NewBatcher(1)
	first, _ := b.Add(Item{Text: "a"})
	second, _ := b.Add(Item{Text: "b"})

	assert.Equal(t, []string{"a"}, first.Texts())
	assert.Equal(t, []string{"b"}, second.Texts())
}

func TestBatcher_MinimumSize(t *testing.T) {
	b := NewBatcher(0)
	_, full := b.Add(Item{Text: "a"})
	assert.True(t, full)
}

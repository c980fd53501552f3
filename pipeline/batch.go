package pipeline

// Batch is an ordered group of items sent to the provider in one call.
type Batch struct {
	Items []Item
}

// Texts returns the embedding texts in batch order.
func (b Batch) Texts() []string {
	texts := make([]string, len(b.Items))
	for i, it := range b.Items {
		texts[i] = it.Text
	}
	return texts
}

// Len returns the number of items in the batch.
func (b Batch) Len() int {
	return len(b.Items)
}

// Batcher groups NeedsEmbedding items into batches of a fixed size.
type Batcher struct {
	size    int
	pending []Item
}

// NewBatcher creates a batcher that emits batches of size items.
func NewBatcher(size int) *Batcher {
	if size < 1 {
		size = 1
	}
	return &Batcher{size: size, pending: make([]Item, 0, size)}
}

// Add appends an item. When the batch is full it is returned and the batcher starts a new one.
func (b *Batcher) Add(item Item) (Batch, bool) {
	b.pending = append(b.pending, item)
	if len(b.pending) < b.size {
		return Batch{}, false
	}
	return b.take(), true
}

// Flush returns the partial batch, if any.
func (b *Batcher) Flush() (Batch, bool) {
	if len(b.pending) == 0 {
		return Batch{}, false
	}
	return b.take(), true
}

// Len returns the number of items waiting for the next batch.
func (b *Batcher) Len() int {
	return len(b.pending)
}

func (b *Batcher) take() Batch {
	batch := Batch{Items: b.pending}
	b.pending = make([]Item, 0, b.size)
	return batch
}

package midi

// DefaultBufferSize fits a worst-case block with room to spare.
const DefaultBufferSize = 256

// Buffer collects the events produced during one audio block. Its storage
// is allocated once; events past capacity are dropped and counted.
type Buffer struct {
	events  []Event
	dropped int
}

// NewBuffer creates a buffer holding up to capacity events per block.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &Buffer{events: make([]Event, 0, capacity)}
}

// Add appends e, or drops it when the buffer is full.
func (b *Buffer) Add(e Event) bool {
	if len(b.events) == cap(b.events) {
		b.dropped++
		return false
	}
	b.events = append(b.events, e)
	return true
}

// Reset empties the buffer, keeping its storage.
func (b *Buffer) Reset() {
	b.events = b.events[:0]
}

// Events returns the buffered events in emission order. The slice is only
// valid until the next Reset.
func (b *Buffer) Events() []Event {
	return b.events
}

func (b *Buffer) Len() int {
	return len(b.events)
}

// Dropped returns how many events have been dropped since creation.
func (b *Buffer) Dropped() int {
	return b.dropped
}

package event

// Batch coalesces notifications until the next redraw tick. Marks between
// two Flush calls collapse into a single Set.
type Batch struct {
	dirty Set
	// Ready, when non-nil, gets a non-blocking signal on the first mark
	// after a flush.
	Ready chan struct{}
}

func NewBatch() *Batch {
	return &Batch{Ready: make(chan struct{}, 1)}
}

// Emit marks t dirty.
func (b *Batch) Emit(t Topic) {
	first := b.dirty == 0 && t != 0
	b.dirty |= t
	if first && b.Ready != nil {
		select {
		case b.Ready <- struct{}{}:
		default:
		}
	}
}

// Pending reports the topics marked since the last flush.
func (b *Batch) Pending() Set {
	return b.dirty
}

// Flush returns the pending topics and clears them.
func (b *Batch) Flush() Set {
	d := b.dirty
	b.dirty = 0
	return d
}

// Multi forwards every notification to each emitter in order.
type Multi []Emitter

func (m Multi) Emit(t Topic) {
	for _, e := range m {
		e.Emit(t)
	}
}

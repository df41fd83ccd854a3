// Package ring provides a fixed-capacity byte ring buffer that drops
// instead of blocking when full.
package ring

// Buffer is a circular byte store. It is not safe for concurrent use.
type Buffer struct {
	data []byte
	head int
	size int
}

// New creates a Buffer holding at most capacity bytes.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &Buffer{data: make([]byte, capacity)}
}

// Len returns the number of queued bytes.
func (b *Buffer) Len() int {
	return b.size
}

// Cap returns the capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Free returns the number of bytes that can be pushed without dropping.
func (b *Buffer) Free() int {
	return len(b.data) - b.size
}

// Push appends as much of p as fits and returns the count accepted.
// Bytes beyond the free space are dropped.
func (b *Buffer) Push(p []byte) int {
	n := len(p)
	if free := b.Free(); n > free {
		n = free
	}
	tail := (b.head + b.size) % len(b.data)
	copied := copy(b.data[tail:], p[:n])
	copy(b.data, p[copied:n])
	b.size += n
	return n
}

// Pop removes and returns the oldest byte.
func (b *Buffer) Pop() (byte, bool) {
	if b.size == 0 {
		return 0, false
	}
	v := b.data[b.head]
	b.head = (b.head + 1) % len(b.data)
	b.size--
	return v, true
}

// Drain pops bytes in FIFO order into fn until the buffer is empty or fn
// returns false. The byte passed to the stopping call is consumed.
// It returns the number of bytes consumed.
func (b *Buffer) Drain(fn func(byte) bool) int {
	var n int
	for b.size > 0 {
		v, _ := b.Pop()
		n++
		if !fn(v) {
			break
		}
	}
	return n
}

// Reset discards all queued bytes.
func (b *Buffer) Reset() {
	b.head, b.size = 0, 0
}

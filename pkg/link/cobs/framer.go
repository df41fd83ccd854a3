package cobs

// Framer splits a byte stream into zero-terminated packets.
//
// Leading zero bytes are skipped, so a receiver joining mid-stream
// resynchronizes at the first delimiter. A zero byte always terminates the
// current packet; a false termination caused by line noise shows up as a
// decode error downstream.
type Framer struct {
	// Limit caps the size of a packet including its delimiter.
	// When exceeded, bytes are discarded until the next delimiter.
	// Zero means unlimited.
	Limit int

	buf        []byte
	discarding bool
	overflows  int
}

// NewFramer creates a Framer with the given packet size limit.
func NewFramer(limit int) *Framer {
	return &Framer{Limit: limit}
}

// Parse consumes one byte and returns a complete packet, including the
// trailing delimiter, when b terminates one. The returned slice is owned
// by the caller.
func (f *Framer) Parse(b byte) []byte {
	if b == Delimiter {
		if f.discarding {
			f.discarding = false
			return nil
		}
		if len(f.buf) == 0 {
			// adjacent delimiters, nothing to emit.
			return nil
		}
		pkt := append(f.buf, Delimiter)
		f.buf = nil
		return pkt
	}
	if f.discarding {
		return nil
	}
	if f.Limit > 0 && len(f.buf)+1 >= f.Limit {
		f.buf, f.discarding = nil, true
		f.overflows++
		return nil
	}
	f.buf = append(f.buf, b)
	return nil
}

// Write feeds p and calls emit for every packet completed by it.
func (f *Framer) Write(p []byte, emit func([]byte)) {
	for _, b := range p {
		if pkt := f.Parse(b); pkt != nil {
			emit(pkt)
		}
	}
}

// Pending returns the number of bytes accumulated for the next packet.
func (f *Framer) Pending() int {
	return len(f.buf)
}

// Overflows returns how many packets were discarded for exceeding Limit.
func (f *Framer) Overflows() int {
	return f.overflows
}

// Reset drops any partially accumulated packet.
func (f *Framer) Reset() {
	f.buf, f.discarding = nil, false
}

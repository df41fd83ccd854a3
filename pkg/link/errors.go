package link

import "errors"

var (
	// ErrEndOfStream indicates the transport returned a zero-byte read.
	ErrEndOfStream = errors.New("end of stream")
	// ErrConsumerGone indicates the event consumer no longer accepts events.
	ErrConsumerGone = errors.New("consumer gone")
)

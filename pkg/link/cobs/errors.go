package cobs

import "errors"

var (
	// ErrEmpty indicates the frame has no encoded bytes.
	ErrEmpty = errors.New("empty frame")
	// ErrUnexpectedZero indicates a zero byte inside an encoded frame.
	ErrUnexpectedZero = errors.New("unexpected zero byte")
	// ErrTruncated indicates a code byte points past the end of the frame.
	ErrTruncated = errors.New("truncated frame")
)

package msgs

import "fmt"

// PacketSizeError indicates an encoded packet exceeds MaxPacketSize.
type PacketSizeError struct {
	Size int
}

// Error implements error.
func (e *PacketSizeError) Error() string {
	return fmt.Sprintf("packet size %d exceeds %d", e.Size, MaxPacketSize)
}

// DecodeError wraps the cause of a failed packet decode.
type DecodeError struct {
	Size int
	Err  error
}

// Error implements error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %d bytes: %v", e.Size, e.Err)
}

// Unwrap returns the cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnknownCommandError indicates an unknown command kind.
type UnknownCommandError struct {
	Kind CommandKind
}

// Error implements error.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command: %d", int32(e.Kind))
}

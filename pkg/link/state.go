package link

import "fmt"

// ConnState is the connection state reported to consumers.
type ConnState int

// Connection states.
const (
	// Waiting means no device was found in the current discovery cycle.
	Waiting ConnState = iota
	// Connected means a session has both handles open.
	Connected
	// Disconnected means a session existed and terminated.
	Disconnected
)

// String implements fmt.Stringer.
func (s ConnState) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s ConnState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ConnState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "waiting":
		*s = Waiting
	case "connected":
		*s = Connected
	case "disconnected":
		*s = Disconnected
	default:
		return fmt.Errorf("invalid connection state %q", text)
	}
	return nil
}

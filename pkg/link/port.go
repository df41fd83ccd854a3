package link

import "io"

// Port is an open handle on a serial port.
type Port interface {
	io.ReadWriteCloser
	// ResetInputBuffer discards bytes received but not yet read.
	ResetInputBuffer() error
	// Drain waits until written bytes are transmitted.
	Drain() error
}

// Opener opens ports by name.
type Opener interface {
	Open(name string) (Port, error)
}

// OpenerFunc is the func form of Opener.
type OpenerFunc func(name string) (Port, error)

// Open implements Opener.
func (f OpenerFunc) Open(name string) (Port, error) {
	return f(name)
}

// PortInfo describes an enumerated port.
type PortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial,omitempty"`
	Product      string `json:"product,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
}

// Enumerator lists available ports.
type Enumerator interface {
	Ports() ([]PortInfo, error)
}

// EnumeratorFunc is the func form of Enumerator.
type EnumeratorFunc func() ([]PortInfo, error)

// Ports implements Enumerator.
func (f EnumeratorFunc) Ports() ([]PortInfo, error) {
	return f()
}

package sim

import (
	"fmt"

	"github.com/robotalks/g4link/pkg/link"
)

// Bench is a set of simulated devices.
// It implements link.Enumerator and link.Opener.
type Bench struct {
	Devices []*Device
}

// NewBench creates a Bench of n devices.
func NewBench(n int) *Bench {
	b := &Bench{}
	for i := 0; i < n; i++ {
		b.Devices = append(b.Devices, NewDevice(fmt.Sprintf("sim%d", i)))
	}
	return b
}

// Device finds a device by name.
func (b *Bench) Device(name string) *Device {
	for _, d := range b.Devices {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Ports implements link.Enumerator.
func (b *Bench) Ports() ([]link.PortInfo, error) {
	ports := make([]link.PortInfo, 0, len(b.Devices))
	for _, d := range b.Devices {
		ports = append(ports, d.Info())
	}
	return ports, nil
}

// Open implements link.Opener.
func (b *Bench) Open(name string) (link.Port, error) {
	if d := b.Device(name); d != nil {
		return d.Open(name)
	}
	return nil, fmt.Errorf("%s: no such port", name)
}

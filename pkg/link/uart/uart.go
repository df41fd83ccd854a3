// Package uart connects link to serial ports through go.bug.st/serial.
//
// The USB manufacturer string is only resolved on linux, from sysfs.
// Elsewhere ports report no manufacturer and are matched by VID:PID
// (see link.Supervisor.USBIDs).
package uart

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/robotalks/g4link/pkg/link"
)

// DefaultBaud is the baud rate of the G4 controller.
const DefaultBaud = 9600

// Opener opens serial ports in 8N1 mode at Baud.
// The ports are opened exclusively, so handles opened on the same name
// while the port is open share it. Closing any of them closes the port.
type Opener struct {
	Baud int

	openPort func(name string, mode *serial.Mode) (serial.Port, error)
	lock     sync.Mutex
	ports    map[string]*sharedPort
}

// NewOpener creates an Opener, 0 baud means DefaultBaud.
func NewOpener(baud int) *Opener {
	if baud <= 0 {
		baud = DefaultBaud
	}
	return &Opener{Baud: baud}
}

// Mode returns the serial mode used to open ports.
func (o *Opener) Mode() *serial.Mode {
	baud := o.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Open implements link.Opener.
// No read timeout is set, a read blocks until data arrives or the port
// is closed.
func (o *Opener) Open(name string) (link.Port, error) {
	o.lock.Lock()
	defer o.lock.Unlock()
	if sp, ok := o.ports[name]; ok {
		sp.refs++
		return &handle{sharedPort: sp, opener: o}, nil
	}
	open := o.openPort
	if open == nil {
		open = serial.Open
	}
	port, err := open(name, o.Mode())
	if err != nil {
		return nil, err
	}
	if o.ports == nil {
		o.ports = make(map[string]*sharedPort)
	}
	sp := &sharedPort{Port: port, name: name, refs: 1}
	o.ports[name] = sp
	return &handle{sharedPort: sp, opener: o}, nil
}

// Opened returns the number of handles sharing the open port name.
func (o *Opener) Opened(name string) int {
	o.lock.Lock()
	defer o.lock.Unlock()
	if sp, ok := o.ports[name]; ok {
		return sp.refs
	}
	return 0
}

func (o *Opener) release(sp *sharedPort) {
	o.lock.Lock()
	defer o.lock.Unlock()
	sp.refs--
	// the port is closed, the next Open starts over.
	if o.ports[sp.name] == sp {
		delete(o.ports, sp.name)
	}
}

type sharedPort struct {
	serial.Port
	name      string
	refs      int
	closeOnce sync.Once
	closeErr  error
}

type handle struct {
	*sharedPort
	opener *Opener
	once   sync.Once
}

// Close closes the shared port, unblocking the other handles.
func (h *handle) Close() error {
	h.once.Do(func() {
		h.opener.release(h.sharedPort)
		h.closeOnce.Do(func() {
			h.closeErr = h.Port.Close()
		})
	})
	return h.closeErr
}

// Enumerator lists serial ports with USB details.
type Enumerator struct{}

// Ports implements link.Enumerator.
func (Enumerator) Ports() ([]link.PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}
	ports := make([]link.PortInfo, 0, len(details))
	for _, d := range details {
		info := link.PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		}
		if d.IsUSB {
			info.Manufacturer = usbManufacturer(d.Name)
		}
		glog.V(4).Infof("port %s usb=%v %s:%s %q", info.Name, info.IsUSB, info.VID, info.PID, info.Manufacturer)
		ports = append(ports, info)
	}
	return ports, nil
}

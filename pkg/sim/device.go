// Package sim simulates G4 devices behind in-memory ports.
package sim

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/g4link/pkg/g4/msgs"
	"github.com/robotalks/g4link/pkg/link"
	"github.com/robotalks/g4link/pkg/link/cobs"
)

// Simulation defaults.
const (
	// MinReportPeriod bounds the report rate of a simulated device.
	MinReportPeriod = 10 * time.Millisecond
	// MaxReportBytes bounds the sample bytes of one report.
	MaxReportBytes = 256
	// DefaultHalfPeriod is the number of samples per signal level.
	DefaultHalfPeriod = 50
)

// Device is a simulated G4 controller.
// A connection is created on first Open and shared by handles opened
// until it is closed.
type Device struct {
	Name         string
	Manufacturer string
	// HalfPeriod is the number of samples per level of the square wave.
	HalfPeriod int

	lock     sync.Mutex
	settings *msgs.Settings
	conn     *conn
}

// NewDevice creates a Device with default settings.
func NewDevice(name string) *Device {
	return &Device{
		Name:         name,
		Manufacturer: link.DefaultVendor,
		HalfPeriod:   DefaultHalfPeriod,
		settings:     msgs.NewSettings(),
	}
}

// Settings returns the settings accepted by the device.
func (d *Device) Settings() *msgs.Settings {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.settings.Clone()
}

// Info returns the port info of the device.
func (d *Device) Info() link.PortInfo {
	return link.PortInfo{
		Name:         d.Name,
		IsUSB:        true,
		VID:          "1209",
		PID:          "0004",
		Manufacturer: d.Manufacturer,
		Product:      "G4 simulator",
	}
}

// Open implements link.Opener.
func (d *Device) Open(string) (link.Port, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.conn == nil || d.conn.isClosed() {
		d.conn = newConn()
		go d.serve(d.conn)
	}
	return &handle{conn: d.conn}, nil
}

// Unplug ends the device output of the current connection, as if the
// cable is pulled. The host sees end of stream.
func (d *Device) Unplug() {
	d.lock.Lock()
	c := d.conn
	d.lock.Unlock()
	if c != nil {
		c.devTx.Close()
	}
}

func (d *Device) serve(c *conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-c.closeCh
		cancel()
	}()
	go d.report(ctx, c)
	d.receive(c)
	c.Close()
}

func (d *Device) receive(c *conn) {
	framer := cobs.NewFramer(msgs.MaxPacketSize)
	buf := make([]byte, msgs.BufSize)
	for {
		n, err := c.devRx.Read(buf)
		if err != nil {
			return
		}
		framer.Write(buf[:n], func(pkt []byte) {
			cmd, err := msgs.DecodeCommand(pkt)
			if err != nil {
				glog.Warningf("sim %s: %v", d.Name, err)
				return
			}
			d.reply(c, &msgs.Message{State: d.execute(cmd)})
		})
	}
}

func (d *Device) execute(cmd *msgs.Command) *msgs.SettingState {
	d.lock.Lock()
	defer d.lock.Unlock()
	accepted := true
	if cmd.Kind == msgs.CommandConfigState {
		if accepted = validSettings(cmd.Config); accepted {
			d.settings = cmd.Config.Clone()
			d.settings.Pending = nil
		}
	}
	return &msgs.SettingState{Settings: d.settings.Clone(), Accepted: accepted}
}

func validSettings(s *msgs.Settings) bool {
	for _, setting := range []*msgs.Setting{
		{Kind: msgs.SettingSamplingInterval, Value: uint64(s.SamplingInterval)},
		{Kind: msgs.SettingReportInterval, Value: s.MinReportInterval},
	} {
		if setting.Validate() != nil {
			return false
		}
	}
	return s.SamplingWindow > 0
}

func (d *Device) report(ctx context.Context, c *conn) {
	halfPeriod := d.HalfPeriod
	if halfPeriod <= 0 {
		halfPeriod = DefaultHalfPeriod
	}
	var phase int
	for {
		settings := d.Settings()
		period := time.Duration(settings.MinReportInterval) * time.Microsecond
		if period < MinReportPeriod {
			period = MinReportPeriod
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(period):
		}
		samples := int(period / (time.Duration(settings.SamplingInterval) * time.Microsecond))
		hall := make([]byte, (samples+7)/8)
		if len(hall) > MaxReportBytes {
			hall = hall[:MaxReportBytes]
		}
		for i := range hall {
			for bit := uint(0); bit < 8; bit++ {
				if (phase/halfPeriod)%2 == 1 {
					hall[i] |= 1 << bit
				}
				phase++
			}
		}
		if !d.reply(c, &msgs.Message{Hall: hall}) {
			return
		}
	}
}

func (d *Device) reply(c *conn, msg *msgs.Message) bool {
	pkt, err := msgs.EncodeMessage(msg)
	if err != nil {
		glog.Errorf("sim %s: %v", d.Name, err)
		return true
	}
	c.txLock.Lock()
	defer c.txLock.Unlock()
	_, err = c.devTx.Write(pkt)
	return err == nil
}

type conn struct {
	hostRx *io.PipeReader
	devTx  *io.PipeWriter
	devRx  *io.PipeReader
	hostTx *io.PipeWriter
	txLock sync.Mutex

	closeOnce sync.Once
	closeCh   chan struct{}
}

func newConn() *conn {
	c := &conn{closeCh: make(chan struct{})}
	c.hostRx, c.devTx = io.Pipe()
	c.devRx, c.hostTx = io.Pipe()
	return c
}

func (c *conn) isClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		c.hostRx.Close()
		c.devTx.Close()
		c.devRx.Close()
		c.hostTx.Close()
	})
	return nil
}

type handle struct {
	conn *conn
}

func (h *handle) Read(p []byte) (int, error) {
	n, err := h.conn.hostRx.Read(p)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

func (h *handle) Write(p []byte) (int, error) {
	return h.conn.hostTx.Write(p)
}

// Close closes the connection, like closing the serial port unblocks both
// directions of the other handle.
func (h *handle) Close() error {
	return h.conn.Close()
}

func (h *handle) ResetInputBuffer() error {
	return nil
}

func (h *handle) Drain() error {
	return nil
}

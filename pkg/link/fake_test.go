package link

import (
	"errors"
	"sync"
	"sync/atomic"
)

var errPortClosed = errors.New("port closed")

// testDevice simulates a device behind a port. Bytes sent on rx are read by
// the host, closing rx yields a zero-byte read. Host writes arrive on tx.
type testDevice struct {
	rx    chan []byte
	tx    chan []byte
	opens int32

	lock    sync.Mutex
	handles []*testPort
}

func newTestDevice() *testDevice {
	return &testDevice{
		rx: make(chan []byte, 16),
		tx: make(chan []byte, 16),
	}
}

func (d *testDevice) Open(name string) (Port, error) {
	atomic.AddInt32(&d.opens, 1)
	p := &testPort{dev: d, closeCh: make(chan struct{})}
	d.lock.Lock()
	d.handles = append(d.handles, p)
	d.lock.Unlock()
	return p, nil
}

func (d *testDevice) Opens() int {
	return int(atomic.LoadInt32(&d.opens))
}

func (d *testDevice) AllClosed() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	for _, p := range d.handles {
		select {
		case <-p.closeCh:
		default:
			return false
		}
	}
	return true
}

type testPort struct {
	dev       *testDevice
	closeCh   chan struct{}
	closeOnce sync.Once
	resets    int32
}

func (p *testPort) Read(b []byte) (int, error) {
	select {
	case <-p.closeCh:
		return 0, errPortClosed
	case data, ok := <-p.dev.rx:
		if !ok {
			return 0, nil
		}
		return copy(b, data), nil
	}
}

func (p *testPort) Write(b []byte) (int, error) {
	select {
	case <-p.closeCh:
		return 0, errPortClosed
	case p.dev.tx <- append([]byte(nil), b...):
		return len(b), nil
	}
}

func (p *testPort) Close() error {
	p.closeOnce.Do(func() { close(p.closeCh) })
	return nil
}

func (p *testPort) ResetInputBuffer() error {
	atomic.AddInt32(&p.resets, 1)
	return nil
}

func (p *testPort) Drain() error {
	return nil
}

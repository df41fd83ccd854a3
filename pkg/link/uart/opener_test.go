package uart

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

var errBusy = errors.New("serial port busy")

type exclusivePort struct {
	serial.Port
	lock   sync.Mutex
	closes int
}

func (p *exclusivePort) isClosed() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.closes > 0
}

func (p *exclusivePort) Read(b []byte) (int, error) {
	if p.isClosed() {
		return 0, errors.New("port closed")
	}
	return 0, nil
}

func (p *exclusivePort) Write(b []byte) (int, error) {
	if p.isClosed() {
		return 0, errors.New("port closed")
	}
	return len(b), nil
}

func (p *exclusivePort) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.closes++
	return nil
}

// exclusiveOpener fails a second open of a name until it is closed, the
// way TIOCEXCL does for non-root users.
type exclusiveOpener struct {
	opened map[string][]*exclusivePort
	modes  []*serial.Mode
}

func (e *exclusiveOpener) open(name string, mode *serial.Mode) (serial.Port, error) {
	ports := e.opened[name]
	if n := len(ports); n > 0 && !ports[n-1].isClosed() {
		return nil, errBusy
	}
	p := &exclusivePort{}
	e.opened[name] = append(ports, p)
	e.modes = append(e.modes, mode)
	return p, nil
}

func newExclusiveOpener(baud int) (*Opener, *exclusiveOpener) {
	ex := &exclusiveOpener{opened: make(map[string][]*exclusivePort)}
	o := NewOpener(baud)
	o.openPort = ex.open
	return o, ex
}

func TestOpenerSharesExclusivePort(t *testing.T) {
	o, ex := newExclusiveOpener(0)
	rd, err := o.Open("/dev/ttyACM0")
	require.NoError(t, err)
	wr, err := o.Open("/dev/ttyACM0")
	require.NoError(t, err)
	require.Len(t, ex.opened["/dev/ttyACM0"], 1)
	require.Equal(t, 2, o.Opened("/dev/ttyACM0"))
	require.Equal(t, DefaultBaud, ex.modes[0].BaudRate)

	n, err := wr.Write([]byte{1, 2})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = rd.Read(make([]byte, 4))
	require.NoError(t, err)

	other, err := o.Open("/dev/ttyACM1")
	require.NoError(t, err)
	require.Len(t, ex.opened["/dev/ttyACM1"], 1)
	require.NoError(t, other.Close())
	require.NoError(t, rd.Close())
	require.NoError(t, wr.Close())
	require.Equal(t, 1, ex.opened["/dev/ttyACM0"][0].closes)
}

func TestOpenerCloseUnblocksOtherHandle(t *testing.T) {
	o, ex := newExclusiveOpener(115200)
	rd, err := o.Open("/dev/ttyACM0")
	require.NoError(t, err)
	wr, err := o.Open("/dev/ttyACM0")
	require.NoError(t, err)

	require.NoError(t, wr.Close())
	require.Zero(t, o.Opened("/dev/ttyACM0"))
	_, err = rd.Read(make([]byte, 4))
	require.Error(t, err)

	require.NoError(t, rd.Close())
	require.NoError(t, wr.Close())
	port := ex.opened["/dev/ttyACM0"][0]
	require.Equal(t, 1, port.closes)

	// reopen after the port is released.
	again, err := o.Open("/dev/ttyACM0")
	require.NoError(t, err)
	require.Len(t, ex.opened["/dev/ttyACM0"], 2)
	require.Equal(t, 115200, ex.modes[1].BaudRate)
	require.NoError(t, again.Close())
}

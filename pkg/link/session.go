package link

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/g4link/pkg/framework"
	"github.com/robotalks/g4link/pkg/g4/msgs"
	"github.com/robotalks/g4link/pkg/link/cobs"
	"github.com/robotalks/g4link/pkg/link/ring"
)

// DefaultSendInterval is the minimum spacing between two sends.
const DefaultSendInterval = 500 * time.Millisecond

// DisconnectTimeout bounds the delivery of Disconnected, which is
// emitted even after ctx is cancelled.
const DisconnectTimeout = time.Second

// Session runs the link on a single port.
type Session struct {
	Port         string
	Opener       Opener
	Sink         Sink
	Settings     *SettingsStore
	Stats        *Counter
	Outbox       *Outbox
	SendInterval time.Duration
	BufSize      int

	decodeErrors uint64
	sent         uint64
}

// NewSession creates a Session with defaults.
func NewSession(port string, opener Opener, sink Sink) *Session {
	return &Session{
		Port:         port,
		Opener:       opener,
		Sink:         sink,
		Settings:     NewSettingsStore(nil),
		Stats:        &Counter{},
		Outbox:       NewOutbox(),
		SendInterval: DefaultSendInterval,
		BufSize:      msgs.BufSize,
	}
}

// Name implements framework.Named.
func (s *Session) Name() string {
	return s.Port
}

// DecodeErrors returns the number of discarded packets.
func (s *Session) DecodeErrors() uint64 {
	return atomic.LoadUint64(&s.decodeErrors)
}

// Sent returns the number of commands written.
func (s *Session) Sent() uint64 {
	return atomic.LoadUint64(&s.sent)
}

// Run implements framework.Runnable.
// It returns when either loop fails or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	rd, wr, err := s.open()
	if err != nil {
		return err
	}
	glog.Infof("%s: connected", s.Port)
	if err = s.Sink.Emit(ctx, &ConnStateEvent{Port: s.Port, State: Connected}); err != nil {
		rd.Close()
		wr.Close()
		return err
	}
	defer func() {
		glog.Infof("%s: disconnected", s.Port)
		emitCtx, cancel := context.WithTimeout(context.Background(), DisconnectTimeout)
		defer cancel()
		if err := s.Sink.Emit(emitCtx, &ConnStateEvent{Port: s.Port, State: Disconnected}); err != nil {
			glog.V(2).Infof("%s: disconnected not delivered: %v", s.Port, err)
		}
	}()

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)
	go func() {
		errCh <- fx.RunWithContextCloser(loopCtx, rd, func() error {
			return s.readLoop(loopCtx, rd)
		})
	}()
	go func() {
		errCh <- fx.RunWithContextCloser(loopCtx, wr, func() error {
			return s.writeLoop(loopCtx, wr)
		})
	}()
	err = <-errCh
	cancel()
	<-errCh
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *Session) open() (rd, wr Port, err error) {
	if rd, err = s.Opener.Open(s.Port); err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", s.Port, err)
	}
	if err = rd.ResetInputBuffer(); err != nil {
		rd.Close()
		return nil, nil, fmt.Errorf("reset %s: %w", s.Port, err)
	}
	if wr, err = s.Opener.Open(s.Port); err != nil {
		rd.Close()
		return nil, nil, fmt.Errorf("open %s for write: %w", s.Port, err)
	}
	return
}

func (s *Session) readLoop(ctx context.Context, rd Port) error {
	size := s.BufSize
	if size <= 0 {
		size = msgs.BufSize
	}
	buf := make([]byte, size)
	stream := ring.New(size)
	framer := cobs.NewFramer(msgs.MaxPacketSize)
	for {
		n, err := rd.Read(buf)
		if err != nil {
			return fmt.Errorf("read %s: %w", s.Port, err)
		}
		if n == 0 {
			return ErrEndOfStream
		}
		if accepted := stream.Push(buf[:n]); accepted < n {
			glog.Warningf("%s: stream buffer full, dropped %d bytes", s.Port, n-accepted)
		}
		stream.Drain(func(b byte) bool {
			pkt := framer.Parse(b)
			if pkt == nil {
				return true
			}
			err = s.handlePacket(ctx, pkt)
			return err == nil
		})
		if err != nil {
			return err
		}
	}
}

func (s *Session) handlePacket(ctx context.Context, pkt []byte) error {
	msg, err := msgs.DecodeMessage(pkt)
	if err != nil {
		atomic.AddUint64(&s.decodeErrors, 1)
		glog.Warningf("%s: %v", s.Port, err)
		return nil
	}
	if msg.State != nil {
		glog.Infof("%s: device state %s", s.Port, msg.State)
	}
	if s.Stats != nil {
		s.Stats.Inc()
	}
	return s.Sink.Emit(ctx, &MessageEvent{Port: s.Port, Message: msg})
}

func (s *Session) writeLoop(ctx context.Context, wr Port) error {
	last := time.Now()
	for {
		out, err := s.Outbox.Next(ctx)
		if err != nil {
			return err
		}
		if wait := s.SendInterval - time.Since(last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		last = time.Now()
		cmd := out.Resolve(s.Settings)
		pkt, err := msgs.EncodeCommand(cmd)
		if err != nil {
			glog.Errorf("%s: encode %v: %v", s.Port, cmd, err)
			if err = s.Sink.Emit(ctx, &ErrorEvent{Port: s.Port, Err: err}); err != nil {
				return err
			}
			continue
		}
		glog.V(2).Infof("%s: send %s", s.Port, cmd)
		if _, err = wr.Write(pkt); err != nil {
			return fmt.Errorf("write %s: %w", s.Port, err)
		}
		if err = wr.Drain(); err != nil {
			return fmt.Errorf("flush %s: %w", s.Port, err)
		}
		atomic.AddUint64(&s.sent, 1)
	}
}

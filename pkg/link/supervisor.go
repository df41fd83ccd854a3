package link

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/g4link/pkg/framework"
	"github.com/robotalks/g4link/pkg/g4/msgs"
)

// Supervisor defaults.
const (
	DefaultVendor   = "Plein"
	DefaultCooldown = time.Second
)

// Supervisor discovers devices and runs one Session per matching port,
// starting over after all sessions terminate.
type Supervisor struct {
	Vendor string
	// USBIDs lists "VID:PID" pairs matched when the manufacturer of a
	// port can not be resolved.
	USBIDs       []string
	Enumerator   Enumerator
	Opener       Opener
	Sink         Sink
	Settings     *SettingsStore
	Stats        *Counter
	Cooldown     time.Duration
	SendInterval time.Duration

	lock     sync.Mutex
	sessions map[string]*Session
}

// NewSupervisor creates a Supervisor with defaults.
func NewSupervisor(enumerator Enumerator, opener Opener, sink Sink) *Supervisor {
	return &Supervisor{
		Vendor:       DefaultVendor,
		Enumerator:   enumerator,
		Opener:       opener,
		Sink:         sink,
		Settings:     NewSettingsStore(nil),
		Stats:        &Counter{},
		Cooldown:     DefaultCooldown,
		SendInterval: DefaultSendInterval,
		sessions:     make(map[string]*Session),
	}
}

// Name implements framework.Named.
func (s *Supervisor) Name() string {
	return "supervisor"
}

// Match tells whether a port belongs to the device.
func (s *Supervisor) Match(info PortInfo) bool {
	if !info.IsUSB {
		return false
	}
	if info.Manufacturer != "" {
		return info.Manufacturer == s.Vendor
	}
	id := info.VID + ":" + info.PID
	for _, want := range s.USBIDs {
		if strings.EqualFold(want, id) {
			return true
		}
	}
	return false
}

// Run implements framework.Runnable.
// It returns when ctx is cancelled, or nil when the consumer is gone.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		err := s.Sink.Emit(ctx, &ConnStateEvent{State: Waiting})
		if err == nil {
			err = s.cycle(ctx)
		}
		if errors.Is(err, ErrConsumerGone) {
			glog.Info("consumer gone, stop discovery")
			return nil
		}
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.Cooldown):
		}
	}
}

func (s *Supervisor) cycle(ctx context.Context) error {
	ports, err := s.Enumerator.Ports()
	if err != nil {
		glog.Warningf("enumerate ports: %v", err)
		return nil
	}
	runner := fx.NewRunnerWith(ctx)
	var consumerGone bool
	runner.OnExit = func(name string, err error) {
		s.untrack(name)
		switch {
		case errors.Is(err, ErrConsumerGone):
			consumerGone = true
		case err != nil && !fx.IsCanceled(err):
			glog.Errorf("session %s: %v", name, err)
		}
	}
	for _, info := range ports {
		if !s.Match(info) {
			glog.V(2).Infof("skip port %s (%s)", info.Name, info.Manufacturer)
			continue
		}
		if sess := s.track(info.Name); sess != nil {
			runner.Go(sess)
		}
	}
	runner.Wait()
	if consumerGone {
		return ErrConsumerGone
	}
	return ctx.Err()
}

func (s *Supervisor) track(port string) *Session {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.sessions == nil {
		s.sessions = make(map[string]*Session)
	}
	if _, exist := s.sessions[port]; exist {
		return nil
	}
	sess := NewSession(port, s.Opener, s.Sink)
	sess.Settings = s.Settings
	sess.Stats = s.Stats
	if s.SendInterval > 0 {
		sess.SendInterval = s.SendInterval
	}
	s.sessions[port] = sess
	return sess
}

func (s *Supervisor) untrack(port string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.sessions, port)
}

// Sessions lists ports with a live session.
func (s *Supervisor) Sessions() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	ports := make([]string, 0, len(s.sessions))
	for port := range s.sessions {
		ports = append(ports, port)
	}
	sort.Strings(ports)
	return ports
}

// Offer queues out to every live session and returns how many accepted it.
func (s *Supervisor) Offer(out Outbound) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	var n int
	for _, sess := range s.sessions {
		if sess.Outbox.Offer(out) {
			n++
		}
	}
	return n
}

// Apply changes a setting and notifies live sessions.
func (s *Supervisor) Apply(setting *msgs.Setting) error {
	if _, err := s.Settings.Apply(setting); err != nil {
		return err
	}
	s.Offer(Notify())
	return nil
}

// Do sends cmd to every live session and returns how many accepted it.
func (s *Supervisor) Do(cmd *msgs.Command) (int, error) {
	if cmd == nil {
		return 0, errors.New("nil command")
	}
	if err := cmd.Validate(); err != nil {
		return 0, err
	}
	return s.Offer(Explicit(cmd)), nil
}

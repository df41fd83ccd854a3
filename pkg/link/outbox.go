package link

import (
	"context"
	"sync/atomic"

	"github.com/robotalks/g4link/pkg/g4/msgs"
)

// OutboundKind tells how an Outbound resolves to a command.
type OutboundKind int

// Outbound kinds.
const (
	// OutboundNotify sends current settings as ConfigState.
	OutboundNotify OutboundKind = iota + 1
	// OutboundExplicit sends the carried command unchanged.
	OutboundExplicit
)

// Outbound is a request queued for a session writer.
type Outbound struct {
	Kind    OutboundKind
	Command *msgs.Command
}

// Notify requests current settings to be pushed.
func Notify() Outbound {
	return Outbound{Kind: OutboundNotify}
}

// Explicit requests cmd to be sent.
func Explicit(cmd *msgs.Command) Outbound {
	return Outbound{Kind: OutboundExplicit, Command: cmd}
}

// Resolve converts the request into the command to send.
func (o Outbound) Resolve(settings *SettingsStore) *msgs.Command {
	if o.Kind == OutboundNotify {
		return msgs.ConfigState(settings.Snapshot())
	}
	return o.Command
}

// Outbox holds at most one Notify and one Explicit request.
// Offers to a full lane are dropped, never blocked.
// A pending Notify already resolves to the latest settings, so a dropped
// Notify loses nothing.
type Outbox struct {
	notifyCh   chan struct{}
	explicitCh chan *msgs.Command
	dropped    uint64
}

// NewOutbox creates an empty Outbox.
func NewOutbox() *Outbox {
	return &Outbox{
		notifyCh:   make(chan struct{}, 1),
		explicitCh: make(chan *msgs.Command, 1),
	}
}

// Offer queues out without blocking and tells whether it was accepted.
func (o *Outbox) Offer(out Outbound) bool {
	var accepted bool
	switch out.Kind {
	case OutboundNotify:
		select {
		case o.notifyCh <- struct{}{}:
			accepted = true
		default:
		}
	case OutboundExplicit:
		if out.Command == nil {
			break
		}
		select {
		case o.explicitCh <- out.Command:
			accepted = true
		default:
		}
	}
	if !accepted {
		atomic.AddUint64(&o.dropped, 1)
	}
	return accepted
}

// Next waits for a request. Explicit requests are taken first.
func (o *Outbox) Next(ctx context.Context) (Outbound, error) {
	select {
	case cmd := <-o.explicitCh:
		return Explicit(cmd), nil
	default:
	}
	select {
	case <-ctx.Done():
		return Outbound{}, ctx.Err()
	case cmd := <-o.explicitCh:
		return Explicit(cmd), nil
	case <-o.notifyCh:
		return Notify(), nil
	}
}

// Pending returns the number of queued requests.
func (o *Outbox) Pending() int {
	return len(o.notifyCh) + len(o.explicitCh)
}

// Dropped returns the number of rejected offers.
func (o *Outbox) Dropped() uint64 {
	return atomic.LoadUint64(&o.dropped)
}

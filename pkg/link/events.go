package link

import (
	"context"
	"encoding/json"
	"time"

	"github.com/robotalks/g4link/pkg/g4/msgs"
)

// EventType names the kind of an Event.
type EventType string

// Event types.
const (
	EventConnState EventType = "state"
	EventMessage   EventType = "msg"
	EventStats     EventType = "stats"
	EventError     EventType = "error"
)

// Event is delivered to consumers in order of occurrence.
type Event interface {
	EventType() EventType
}

// ConnStateEvent reports a connection state transition.
// Port is empty for Waiting.
type ConnStateEvent struct {
	Port  string    `json:"port,omitempty"`
	State ConnState `json:"state"`
}

// EventType implements Event.
func (e *ConnStateEvent) EventType() EventType { return EventConnState }

// MessageEvent carries a decoded device message.
type MessageEvent struct {
	Port    string        `json:"port"`
	Message *msgs.Message `json:"message"`
}

// EventType implements Event.
func (e *MessageEvent) EventType() EventType { return EventMessage }

// StatsEvent reports decoded message throughput.
type StatsEvent struct {
	Reports       uint64        `json:"reports"`
	Interval      time.Duration `json:"interval"`
	ReportsPerSec float64       `json:"reports_per_sec"`
}

// EventType implements Event.
func (e *StatsEvent) EventType() EventType { return EventStats }

// ErrorEvent reports a failure contained inside a session.
type ErrorEvent struct {
	Port string
	Err  error
}

// EventType implements Event.
func (e *ErrorEvent) EventType() EventType { return EventError }

// MarshalJSON implements json.Marshaler.
func (e *ErrorEvent) MarshalJSON() ([]byte, error) {
	var msg string
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Port  string `json:"port,omitempty"`
		Error string `json:"error"`
	}{Port: e.Port, Error: msg})
}

// Sink receives events.
// It returns ErrConsumerGone when no more events will be accepted.
type Sink interface {
	Emit(context.Context, Event) error
}

// SinkFunc is the func form of Sink.
type SinkFunc func(context.Context, Event) error

// Emit implements Sink.
func (f SinkFunc) Emit(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// ChanSink delivers events to a channel, blocking until received.
type ChanSink chan<- Event

// Emit implements Sink.
func (s ChanSink) Emit(ctx context.Context, ev Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s <- ev:
		return nil
	}
}

package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/g4link/pkg/g4/msgs"
	"github.com/robotalks/g4link/pkg/link"
)

// Topic names under a host.
const (
	TopicMeta     = "meta"
	TopicState    = "state"
	TopicSettings = "settings"
	TopicStats    = "stats"
	TopicError    = "error"
	TopicMsg      = "msg"
	TopicSet      = "set"
	TopicCmd      = "cmd"
)

// Topic returns the topic of name under host id.
func Topic(id, name string) string {
	return id + "/" + name
}

// PortTopic returns the name of a per port topic.
// The port is escaped into a single topic level.
func PortTopic(name, port string) string {
	if port == "" {
		return name
	}
	return name + "/" + strings.ReplaceAll(url.PathEscape(port), "+", "%2B")
}

func isPortTopic(name string) bool {
	switch name {
	case TopicState, TopicMsg, TopicError:
		return true
	}
	return false
}

// SplitTopic splits a topic into host id, name and the port of per port
// topics.
func SplitTopic(topic string) (id, name, port string, ok bool) {
	levels := strings.Split(topic, "/")
	n := len(levels)
	if n >= 3 && isPortTopic(levels[n-2]) {
		if p, err := url.PathUnescape(levels[n-1]); err == nil && p != "" {
			return strings.Join(levels[:n-2], "/"), levels[n-2], p, true
		}
		return "", "", "", false
	}
	if n < 2 || levels[n-1] == "" || levels[n-2] == "" {
		return "", "", "", false
	}
	return strings.Join(levels[:n-1], "/"), levels[n-1], "", true
}

// Meta describes a host running the link.
type Meta struct {
	Vendor string `json:"vendor"`
	Baud   int    `json:"baud,omitempty"`
}

type errorPayload struct {
	Port  string `json:"port,omitempty"`
	Error string `json:"error"`
}

// EncodeEvent returns the topic under the host, payload and retain flag of
// an event. Events of a port go to its per port topic.
func EncodeEvent(ev link.Event) (topic string, payload []byte, retain bool, err error) {
	switch e := ev.(type) {
	case *link.ConnStateEvent:
		topic, retain = PortTopic(TopicState, e.Port), true
		payload, err = json.Marshal(e)
	case *link.StatsEvent:
		topic = TopicStats
		payload, err = json.Marshal(e)
	case *link.ErrorEvent:
		topic = PortTopic(TopicError, e.Port)
		payload, err = json.Marshal(e)
	case *link.MessageEvent:
		topic = PortTopic(TopicMsg, e.Port)
		payload, err = proto.Marshal(e.Message)
	default:
		err = fmt.Errorf("unsupported event %T", ev)
	}
	return
}

// DecodeEvent is the reverse of EncodeEvent, name and port come from
// SplitTopic.
func DecodeEvent(name, port string, payload []byte) (link.Event, error) {
	switch name {
	case TopicState:
		var ev link.ConnStateEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, err
		}
		if port != "" {
			ev.Port = port
		}
		return &ev, nil
	case TopicStats:
		var ev link.StatsEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, err
		}
		return &ev, nil
	case TopicError:
		var p errorPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		if port != "" {
			p.Port = port
		}
		return &link.ErrorEvent{Port: p.Port, Err: errors.New(p.Error)}, nil
	case TopicMsg:
		var msg msgs.Message
		if err := proto.Unmarshal(payload, &msg); err != nil {
			return nil, err
		}
		return &link.MessageEvent{Port: port, Message: &msg}, nil
	}
	return nil, fmt.Errorf("unknown event topic %q", name)
}

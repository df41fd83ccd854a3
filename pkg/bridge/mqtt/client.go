package mqtt

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/g4link/pkg/g4/msgs"
	"github.com/robotalks/g4link/pkg/link"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// HostInfo describes a discovered host.
type HostInfo struct {
	ID   string
	Meta Meta
}

// Client talks to a Bridge through the broker.
type Client struct {
	Queue *Queue
	ID    string
}

// NewClient creates a Client for host id.
func NewClient(brokerURL, id string) (*Client, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Client{Queue: q, ID: id}, nil
}

// Connect connects to the broker.
func (c *Client) Connect(ctx context.Context) error {
	return c.Queue.Connect(ctx)
}

// Close implements io.Closer.
func (c *Client) Close() error {
	return c.Queue.Close()
}

// Apply requests a setting change.
func (c *Client) Apply(ctx context.Context, setting *msgs.Setting) error {
	if err := setting.Validate(); err != nil {
		return err
	}
	return c.send(ctx, TopicSet, setting)
}

// Do requests a command to be sent to the device.
func (c *Client) Do(ctx context.Context, cmd *msgs.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return c.send(ctx, TopicCmd, cmd)
}

func (c *Client) send(ctx context.Context, name string, msg proto.Message) error {
	payload, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	return Wait(ctx, c.Queue.PubWith(Topic(c.ID, name), payload, 1, false))
}

// Watch calls fn for every event published by the host.
func (c *Client) Watch(fn func(link.Event)) []*Subscription {
	handler := func(topic string, payload []byte) {
		_, name, port, ok := SplitTopic(topic)
		if !ok {
			return
		}
		ev, err := DecodeEvent(name, port, payload)
		if err != nil {
			glog.Warningf("decode %s: %v", topic, err)
			return
		}
		fn(ev)
	}
	var subs []*Subscription
	subs = append(subs, c.Queue.Sub(Topic(c.ID, TopicStats), handler))
	for _, name := range []string{TopicState, TopicError, TopicMsg} {
		subs = append(subs, c.Queue.Sub(Topic(c.ID, name+"/#"), handler))
	}
	return subs
}

// WatchSettings calls fn whenever the host publishes its settings.
func (c *Client) WatchSettings(fn func(*msgs.Settings)) *Subscription {
	return c.Queue.Sub(Topic(c.ID, TopicSettings), func(topic string, payload []byte) {
		var settings msgs.Settings
		if err := proto.Unmarshal(payload, &settings); err != nil {
			glog.Warningf("decode %s: %v", topic, err)
			return
		}
		fn(&settings)
	})
}

// Settings waits for the retained settings of the host.
func (c *Client) Settings(ctx context.Context) (*msgs.Settings, error) {
	ch := make(chan *msgs.Settings, 1)
	sub := c.WatchSettings(func(s *msgs.Settings) {
		select {
		case ch <- s:
		default:
		}
	})
	defer sub.Close()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case s := <-ch:
		return s, nil
	}
}

// Discover lists hosts with retained meta.
func Discover(ctx context.Context, q *Queue, timeout time.Duration) ([]HostInfo, error) {
	var lock sync.Mutex
	found := make(map[string]Meta)
	sub := q.Sub(Topic("+", TopicMeta), func(topic string, payload []byte) {
		id, _, _, ok := SplitTopic(topic)
		if !ok || len(payload) == 0 {
			return
		}
		var meta Meta
		if err := json.Unmarshal(payload, &meta); err != nil {
			glog.Warningf("invalid meta %s: %v", topic, err)
			return
		}
		lock.Lock()
		found[id] = meta
		lock.Unlock()
	})
	defer sub.Close()

	if timeout <= 0 {
		timeout = DefaultDiscoverTimeout
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
	}
	lock.Lock()
	defer lock.Unlock()
	hosts := make([]HostInfo, 0, len(found))
	for id, meta := range found {
		hosts = append(hosts, HostInfo{ID: id, Meta: meta})
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].ID < hosts[j].ID })
	return hosts, nil
}

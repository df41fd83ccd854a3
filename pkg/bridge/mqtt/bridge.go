package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/g4link/pkg/bridge"
	"github.com/robotalks/g4link/pkg/g4/msgs"
	"github.com/robotalks/g4link/pkg/link"
)

// Commander accepts commands for the device.
// It is implemented by link.Supervisor.
type Commander interface {
	Apply(*msgs.Setting) error
	Do(*msgs.Command) (int, error)
}

// Bridge publishes Bus events and forwards commands to a Commander.
type Bridge struct {
	Queue     *Queue
	ID        string
	Meta      Meta
	Bus       *bridge.Bus
	Commander Commander
	Settings  *link.SettingsStore
}

// NewBridge creates a Bridge.
func NewBridge(brokerURL, id string, bus *bridge.Bus, commander Commander, settings *link.SettingsStore) (*Bridge, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+Topic(id, TopicMeta), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("g4d:" + id)
	}
	b := &Bridge{
		Queue:     NewQueue(opts, topicPrefix),
		ID:        id,
		Bus:       bus,
		Commander: commander,
		Settings:  settings,
	}
	b.Queue.OnConnect = func(*Queue) { b.onConnected() }
	return b, nil
}

// Name implements framework.Named.
func (b *Bridge) Name() string {
	return "mqtt"
}

// Run implements framework.Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.Bus.Subscribe()
	defer sub.Close()
	if err := b.Queue.Connect(ctx); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	defer b.Queue.Close()
	b.Queue.Sub(Topic(b.ID, TopicSet), b.handleSet)
	b.Queue.Sub(Topic(b.ID, TopicCmd), b.handleCmd)
	for {
		select {
		case <-ctx.Done():
			b.Queue.PubWith(Topic(b.ID, TopicMeta), nil, 1, true).Wait()
			return ctx.Err()
		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			b.publish(ev)
		}
	}
}

func (b *Bridge) onConnected() {
	meta, err := json.Marshal(&b.Meta)
	if err != nil {
		panic(err)
	}
	b.Queue.PubWith(Topic(b.ID, TopicMeta), meta, 1, true)
	b.publishSettings()
}

func (b *Bridge) publish(ev link.Event) {
	topic, payload, retain, err := EncodeEvent(ev)
	if err != nil {
		glog.Errorf("mqtt encode %s: %v", ev.EventType(), err)
		return
	}
	b.Queue.PubWith(Topic(b.ID, topic), payload, 0, retain)
}

func (b *Bridge) publishSettings() {
	if b.Settings == nil {
		return
	}
	payload, err := proto.Marshal(b.Settings.Snapshot())
	if err != nil {
		glog.Errorf("mqtt encode settings: %v", err)
		return
	}
	b.Queue.PubWith(Topic(b.ID, TopicSettings), payload, 1, true)
}

func (b *Bridge) reportError(err error) {
	glog.Warningf("mqtt command: %v", err)
	b.Bus.Emit(context.Background(), &link.ErrorEvent{Err: err})
}

func (b *Bridge) handleSet(topic string, payload []byte) {
	if err := b.applySetting(payload); err != nil {
		b.reportError(err)
		return
	}
	b.publishSettings()
}

func (b *Bridge) handleCmd(topic string, payload []byte) {
	if err := b.doCommand(payload); err != nil {
		b.reportError(err)
	}
}

func (b *Bridge) applySetting(payload []byte) error {
	var setting msgs.Setting
	if err := proto.Unmarshal(payload, &setting); err != nil {
		return fmt.Errorf("invalid setting: %w", err)
	}
	glog.V(1).Infof("mqtt set %s", &setting)
	return b.Commander.Apply(&setting)
}

func (b *Bridge) doCommand(payload []byte) error {
	var cmd msgs.Command
	if err := proto.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}
	n, err := b.Commander.Do(&cmd)
	if err != nil {
		return err
	}
	glog.V(1).Infof("mqtt cmd %s queued on %d sessions", &cmd, n)
	return nil
}

package bridge

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/g4link/pkg/g4/msgs"
	"github.com/robotalks/g4link/pkg/link"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	sub1, sub2 := bus.Subscribe(), bus.Subscribe()
	require.Equal(t, 2, bus.Subscribers())

	ev := &link.StatsEvent{Reports: 3}
	require.NoError(t, bus.Emit(context.Background(), ev))
	require.Equal(t, ev, <-sub1.C)
	require.Equal(t, ev, <-sub2.C)

	sub2.Close()
	_, ok := <-sub2.C
	require.False(t, ok)
	require.Equal(t, 1, bus.Subscribers())
}

func TestBusDropsForSlowSubscriber(t *testing.T) {
	bus := NewBus()
	bus.QueueSize = 2
	sub := bus.Subscribe()
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Emit(context.Background(), &link.StatsEvent{Reports: uint64(i)}))
	}
	require.EqualValues(t, 3, sub.Dropped())
	require.EqualValues(t, 0, (<-sub.C).(*link.StatsEvent).Reports)
	require.EqualValues(t, 1, (<-sub.C).(*link.StatsEvent).Reports)
}

func TestBusReplaysStates(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()
	require.NoError(t, bus.Emit(ctx, &link.ConnStateEvent{State: link.Waiting}))
	require.NoError(t, bus.Emit(ctx, &link.ConnStateEvent{Port: "b", State: link.Connected}))
	require.NoError(t, bus.Emit(ctx, &link.ConnStateEvent{Port: "a", State: link.Connected}))
	require.NoError(t, bus.Emit(ctx, &link.ConnStateEvent{Port: "a", State: link.Disconnected}))
	require.NoError(t, bus.Emit(ctx, &link.ConnStateEvent{State: link.Waiting}))

	sub := bus.Subscribe()
	var states []string
	for len(sub.C) > 0 {
		ev := (<-sub.C).(*link.ConnStateEvent)
		states = append(states, ev.Port+":"+ev.State.String())
	}
	require.Equal(t, []string{":waiting", "a:disconnected", "b:connected"}, states)
}

func TestBusClose(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	bus.Close()
	_, ok := <-sub.C
	require.False(t, ok)
	require.Equal(t, link.ErrConsumerGone, bus.Emit(context.Background(), &link.StatsEvent{}))
	_, ok = <-bus.Subscribe().C
	require.False(t, ok)
	sub.Close()
}

func TestEnvelopeJSON(t *testing.T) {
	env := Wrap(&link.MessageEvent{Port: "a", Message: &msgs.Message{Hall: []byte{1}}})
	data, err := json.Marshal(env)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "msg", decoded["type"])
	require.Equal(t, "a", decoded["data"].(map[string]interface{})["port"])
}

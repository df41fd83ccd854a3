package link

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/g4link/pkg/g4/msgs"
)

func TestOutboxCoalesceNotify(t *testing.T) {
	store := NewSettingsStore(nil)
	outbox := NewOutbox()
	require.True(t, outbox.Offer(Notify()))
	_, err := store.Apply(&msgs.Setting{Kind: msgs.SettingSamplingInterval, Value: 100})
	require.NoError(t, err)
	require.False(t, outbox.Offer(Notify()))
	_, err = store.Apply(&msgs.Setting{Kind: msgs.SettingSamplingInterval, Value: 200})
	require.NoError(t, err)
	require.Equal(t, 1, outbox.Pending())
	require.EqualValues(t, 1, outbox.Dropped())

	out, err := outbox.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutboundNotify, out.Kind)
	cmd := out.Resolve(store)
	require.Equal(t, msgs.CommandConfigState, cmd.Kind)
	require.EqualValues(t, 200, cmd.Config.SamplingInterval)
	require.Equal(t, 0, outbox.Pending())
}

func TestOutboxExplicitFirst(t *testing.T) {
	outbox := NewOutbox()
	require.True(t, outbox.Offer(Notify()))
	require.True(t, outbox.Offer(Explicit(msgs.CheckState())))
	require.False(t, outbox.Offer(Explicit(msgs.CheckState())))
	require.False(t, outbox.Offer(Explicit(nil)))

	out, err := outbox.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutboundExplicit, out.Kind)
	require.Equal(t, msgs.CommandCheckState, out.Command.Kind)

	out, err = outbox.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutboundNotify, out.Kind)
	require.EqualValues(t, 2, outbox.Dropped())
}

func TestOutboxRejectsNilCommand(t *testing.T) {
	outbox := NewOutbox()
	require.False(t, outbox.Offer(Explicit(nil)))
	require.Zero(t, outbox.Pending())
	require.EqualValues(t, 1, outbox.Dropped())
}

func TestOutboxNextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := NewOutbox().Next(ctx)
	require.Equal(t, context.DeadlineExceeded, err)
}

func TestSettingsStore(t *testing.T) {
	store := NewSettingsStore(nil)
	snapshot, version := store.VersionedSnapshot()
	require.Zero(t, version)
	require.EqualValues(t, msgs.DefaultSamplingInterval, snapshot.SamplingInterval)

	snapshot.SamplingInterval = 50
	require.EqualValues(t, msgs.DefaultSamplingInterval, store.Snapshot().SamplingInterval)

	_, err := store.Apply(&msgs.Setting{Kind: msgs.SettingReportInterval, Value: 1000})
	require.Error(t, err)
	require.Zero(t, store.Version())

	applied, err := store.Apply(&msgs.Setting{Kind: msgs.SettingReportInterval, Value: 4096})
	require.NoError(t, err)
	require.EqualValues(t, 4096, applied.MinReportInterval)
	require.EqualValues(t, 1, store.Version())
	require.EqualValues(t, 4096, store.Snapshot().MinReportInterval)
}

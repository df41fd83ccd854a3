package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func drainAll(b *Buffer) (out []byte) {
	b.Drain(func(v byte) bool {
		out = append(out, v)
		return true
	})
	return
}

func TestPushDrain(t *testing.T) {
	b := New(8)
	require.Equal(t, 3, b.Push([]byte{1, 2, 3}))
	require.Equal(t, 3, b.Len())
	require.Equal(t, []byte{1, 2, 3}, drainAll(b))
	require.Zero(t, b.Len())
}

func TestOverflowDrops(t *testing.T) {
	b := New(4)
	require.Equal(t, 4, b.Push([]byte{1, 2, 3, 4, 5, 6}))
	require.Zero(t, b.Push([]byte{7}))
	require.Equal(t, 4, b.Len())
	require.Equal(t, []byte{1, 2, 3, 4}, drainAll(b))
}

func TestWrapAround(t *testing.T) {
	b := New(5)
	b.Push([]byte{1, 2, 3, 4})
	v, ok := b.Pop()
	require.True(t, ok)
	require.Equal(t, byte(1), v)
	b.Pop()
	require.Equal(t, 3, b.Push([]byte{5, 6, 7, 8}))
	require.Equal(t, []byte{3, 4, 5, 6, 7}, drainAll(b))
}

func TestDrainStops(t *testing.T) {
	b := New(8)
	b.Push([]byte{1, 2, 0, 3, 4})
	var got []byte
	n := b.Drain(func(v byte) bool {
		got = append(got, v)
		return v != 0
	})
	require.Equal(t, 3, n)
	require.Equal(t, []byte{1, 2, 0}, got)
	require.Equal(t, []byte{3, 4}, drainAll(b))
}

func TestPopEmpty(t *testing.T) {
	b := New(1)
	_, ok := b.Pop()
	require.False(t, ok)
	b.Push([]byte{9})
	b.Reset()
	require.Zero(t, b.Len())
	require.Equal(t, 1, b.Free())
}

func TestNeverExceedsCapacity(t *testing.T) {
	b := New(16)
	var total int
	for n := 0; n < 10; n++ {
		total += b.Push(make([]byte, 7))
		require.True(t, b.Len() <= b.Cap())
	}
	require.Equal(t, 16, total)
	require.Len(t, drainAll(b), 16)
}

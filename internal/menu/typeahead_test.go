package menu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeAheadFIFO(t *testing.T) {
	ta := NewTypeAhead(16)
	ta.Push('A')
	ta.Push('B')
	ta.Push('C')

	for _, want := range []byte{'A', 'B', 'C'} {
		got, ok := ta.Pop()
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	_, ok := ta.Pop()
	require.False(t, ok)
}

func TestTypeAheadEvictsOldestWhenFull(t *testing.T) {
	ta := NewTypeAhead(16)
	for i := 0; i < 20; i++ {
		ta.Push(byte('0' + i%10))
	}

	require.Equal(t, 16, ta.Len())

	// the first four keystrokes were evicted
	got, ok := ta.Pop()
	require.True(t, ok)
	require.Equal(t, byte('4'), got)
}

func TestTypeAheadClear(t *testing.T) {
	ta := NewTypeAhead(4)
	ta.Push('A')
	require.False(t, ta.Empty())

	ta.Clear()
	require.True(t, ta.Empty())
}

func TestTypeAheadDefaultCapacity(t *testing.T) {
	ta := NewTypeAhead(0)
	for i := 0; i < 100; i++ {
		ta.Push('x')
	}
	require.Equal(t, DefaultTypeAheadCapacity, ta.Len())
}

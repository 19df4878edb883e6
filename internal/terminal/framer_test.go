package terminal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFramerPassesPlainText(t *testing.T) {
	f := NewFramer()
	chunks := f.Push([]byte("Hello, world!"))
	require.Equal(t, []string{"Hello, world!"}, chunks)
}

func TestFramerBuffersPartialEscape(t *testing.T) {
	f := NewFramer()

	require.Empty(t, f.Push([]byte("\x1b[3")))

	chunks := f.Push([]byte("1m"))
	require.Equal(t, []string{"\x1b[31m"}, chunks)
}

func TestFramerSplitsMixedContent(t *testing.T) {
	f := NewFramer()
	chunks := f.Push([]byte("Hello \x1b[31mRed\x1b[0m World"))
	require.Equal(t, []string{"Hello ", "\x1b[31m", "Red", "\x1b[0m", " World"}, chunks)
}

func TestFramerNeverSplitsSequenceAcrossPushes(t *testing.T) {
	f := NewFramer()

	require.Equal(t, []string{"Hel"}, f.Push([]byte("Hel")))
	require.Equal(t, []string{"lo "}, f.Push([]byte("lo ")))
	require.Empty(t, f.Push([]byte("\x1b[")))
	require.Empty(t, f.Push([]byte("31")))
	require.Equal(t, []string{"\x1b[31m"}, f.Push([]byte("m")))
	require.Equal(t, []string{"World"}, f.Push([]byte("World")))
}

func TestFramerHandlesCursorAndClearSequences(t *testing.T) {
	f := NewFramer()

	chunks := f.Push([]byte("\x1b[2J\x1b[H"))
	require.Equal(t, []string{"\x1b[2J", "\x1b[H"}, chunks)

	chunks = f.Push([]byte("\x1b[10;25H"))
	require.Equal(t, []string{"\x1b[10;25H"}, chunks)

	// DEC private mode set (synchronized output)
	chunks = f.Push([]byte("\x1b[?2026h"))
	require.Equal(t, []string{"\x1b[?2026h"}, chunks)
}

func TestFramerOSCTerminators(t *testing.T) {
	f := NewFramer()

	chunks := f.Push([]byte("\x1b]0;title\x07after"))
	require.Equal(t, []string{"\x1b]0;title\x07", "after"}, chunks)

	f = NewFramer()
	chunks = f.Push([]byte("\x1b]0;title\x1b\\after"))
	require.Equal(t, []string{"\x1b]0;title\x1b\\", "after"}, chunks)
}

func TestFramerFlushReturnsRemainder(t *testing.T) {
	f := NewFramer()
	f.Push([]byte("\x1b[3"))

	out, ok := f.Flush()
	require.True(t, ok)
	require.Equal(t, "\x1b[3", out)

	_, ok = f.Flush()
	require.False(t, ok)
}

func TestFramerDropsInvalidUTF8Text(t *testing.T) {
	f := NewFramer()

	chunks := f.Push([]byte{'o', 'k', 0xff, 0xfe})
	require.Empty(t, chunks)

	// the framer recovers for the next push
	require.Equal(t, []string{"fine"}, f.Push([]byte("fine")))
}

package door

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func drainOut(out chan string, sink *strings.Builder, done chan struct{}) {
	for s := range out {
		sink.WriteString(s)
	}
	close(done)
}

func TestReadKeySplitsChunks(t *testing.T) {
	in := make(chan string, 4)
	out := make(chan string, 4)
	tio := NewIO(in, out)

	in <- "ab"
	in <- "c"

	for _, want := range []byte{'a', 'b', 'c'} {
		key, err := tio.ReadKey(context.Background())
		require.NoError(t, err)
		require.Equal(t, want, key)
	}
}

func TestReadKeyEOFOnClose(t *testing.T) {
	in := make(chan string)
	tio := NewIO(in, make(chan string, 1))
	close(in)

	_, err := tio.ReadKey(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestReadKeyContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tio := NewIO(make(chan string), make(chan string, 1))
	_, err := tio.ReadKey(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTryKeyNonBlocking(t *testing.T) {
	in := make(chan string, 1)
	tio := NewIO(in, make(chan string, 1))

	_, ok := tio.TryKey()
	require.False(t, ok)

	in <- "x"
	key, ok := tio.TryKey()
	require.True(t, ok)
	require.Equal(t, byte('x'), key)
}

func TestReadLineEchoAndBackspace(t *testing.T) {
	in := make(chan string, 4)
	out := make(chan string, 64)
	tio := NewIO(in, out)

	// "hey" with the y corrected to "llo"
	in <- "hey\x7fllo\r"

	line, err := tio.ReadLine(context.Background(), LineOptions{Echo: true})
	require.NoError(t, err)
	require.Equal(t, "hello", line)

	close(out)
	var echoed strings.Builder
	for s := range out {
		echoed.WriteString(s)
	}
	require.Contains(t, echoed.String(), "\x08 \x08")
	require.True(t, strings.HasSuffix(echoed.String(), "\r\n"))
}

func TestReadLineMasksPassword(t *testing.T) {
	in := make(chan string, 4)
	out := make(chan string, 64)
	tio := NewIO(in, out)

	in <- "secret\r"
	line, err := tio.ReadLine(context.Background(), LineOptions{Mask: true})
	require.NoError(t, err)
	require.Equal(t, "secret", line)

	close(out)
	var echoed strings.Builder
	for s := range out {
		echoed.WriteString(s)
	}
	require.Contains(t, echoed.String(), "******")
	require.NotContains(t, echoed.String(), "secret")
}

func TestReadLineSwallowsEscapeSequences(t *testing.T) {
	in := make(chan string, 4)
	out := make(chan string, 64)
	tio := NewIO(in, out)

	// an up-arrow in the middle of typing
	in <- "ab\x1b[Acd\r"
	line, err := tio.ReadLine(context.Background(), LineOptions{})
	require.NoError(t, err)
	require.Equal(t, "abcd", line)
}

func TestReadLineMaxLen(t *testing.T) {
	in := make(chan string, 4)
	out := make(chan string, 64)
	tio := NewIO(in, out)

	in <- "abcdef\r"
	line, err := tio.ReadLine(context.Background(), LineOptions{MaxLen: 3})
	require.NoError(t, err)
	require.Equal(t, "abc", line)
}

func TestPushReturnsBytesFirst(t *testing.T) {
	in := make(chan string, 1)
	tio := NewIO(in, make(chan string, 1))

	tio.Push("z")
	in <- "a"

	key, err := tio.ReadKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, byte('z'), key)
}

func TestDoorRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NewChatDoor())
	r.Register(NewWhoDoor())
	r.Register(NewMailDoor())

	d, ok := r.Get("chat")
	require.True(t, ok)
	require.Equal(t, "chat", d.Name())

	_, ok = r.Get("missing")
	require.False(t, ok)

	require.Equal(t, []string{"chat", "mail_read", "who"}, r.Names())
}

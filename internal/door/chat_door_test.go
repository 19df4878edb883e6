package door

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/retroline/retroline/internal/chat"
	"github.com/retroline/retroline/internal/models"
	"github.com/retroline/retroline/internal/node"
)

type outCapture struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (c *outCapture) run(out <-chan string) {
	for s := range out {
		c.mu.Lock()
		c.buf.WriteString(s)
		c.mu.Unlock()
	}
}

func (c *outCapture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func (c *outCapture) eventually(t *testing.T, substr string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(c.String(), substr)
	}, 2*time.Second, 5*time.Millisecond, "waiting for output %q", substr)
}

func startChatDoor(t *testing.T, room *chat.Room, handle string, nodeID int) (in chan string, capture *outCapture, done chan error) {
	t.Helper()

	in = make(chan string, 16)
	out := make(chan string, 64)
	capture = &outCapture{}

	env := &Env{
		NodeID:   nodeID,
		User:     &models.User{Handle: handle},
		Registry: node.NewRegistry(8),
		Room:     room,
	}

	capDone := make(chan struct{})
	go func() {
		capture.run(out)
		close(capDone)
	}()

	done = make(chan error, 1)
	go func() {
		err := NewChatDoor().Run(context.Background(), NewIO(in, out), env)
		close(out)
		// wait for the capture to drain so assertions see the full tail
		<-capDone
		done <- err
	}()
	return in, capture, done
}

func waitDone(t *testing.T, done chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("door did not exit")
	}
}

func TestChatDoorSpeakAndQuit(t *testing.T) {
	room := chat.NewRoom(8)
	in, capture, done := startChatDoor(t, room, "alice", 1)

	capture.eventually(t, "Teleconference")

	in <- "hello room\r"
	capture.eventually(t, "<alice> hello room")

	in <- "/quit\r"
	waitDone(t, done)
	require.Contains(t, capture.String(), "Leaving the teleconference")
	require.Zero(t, room.Count(), "door must leave the room on exit")
}

func TestChatDoorSeesOtherCallers(t *testing.T) {
	room := chat.NewRoom(8)
	in, capture, done := startChatDoor(t, room, "alice", 1)
	capture.eventually(t, "Teleconference")

	require.NoError(t, room.Join(2, "bob"))
	capture.eventually(t, "bob has joined the room")

	room.Broadcast(chat.NewPublic("bob", "hi alice"))
	capture.eventually(t, "<bob> hi alice")

	in <- "/quit\r"
	waitDone(t, done)
}

func TestChatDoorDirectMessageAndReply(t *testing.T) {
	room := chat.NewRoom(8)
	bobCh := room.Subscribe(2)
	require.NoError(t, room.Join(2, "bob"))

	in, capture, done := startChatDoor(t, room, "alice", 1)
	capture.eventually(t, "Teleconference")

	in <- "/msg bob you there?\r"
	var got chat.Event
	require.Eventually(t, func() bool {
		for len(bobCh) > 0 {
			ev := <-bobCh
			if ev.Type == chat.EventDirect {
				got = ev
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, "you there?", got.Body)

	// bob answers; alice can /r back
	room.SendTo(chat.NewDirect("bob", "alice", "yep"), 2)
	capture.eventually(t, "[From bob] yep")

	in <- "/r good\r"
	require.Eventually(t, func() bool {
		for len(bobCh) > 0 {
			ev := <-bobCh
			if ev.Type == chat.EventDirect && ev.Body == "good" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	in <- "/quit\r"
	waitDone(t, done)
}

func TestChatDoorUnknownTargetAndCommand(t *testing.T) {
	room := chat.NewRoom(8)
	in, capture, done := startChatDoor(t, room, "alice", 1)
	capture.eventually(t, "Teleconference")

	in <- "/msg ghost hello\r"
	capture.eventually(t, "ghost is not in the room.")

	in <- "/frobnicate\r"
	capture.eventually(t, "Unknown command /frobnicate")

	in <- "/quit\r"
	waitDone(t, done)
}

func TestChatDoorFullRoom(t *testing.T) {
	room := chat.NewRoom(1)
	require.NoError(t, room.Join(2, "bob"))

	_, capture, done := startChatDoor(t, room, "alice", 1)
	waitDone(t, done)
	require.Contains(t, capture.String(), "capacity")
}

func TestChatDoorExitsWhenInputCloses(t *testing.T) {
	room := chat.NewRoom(8)
	in, _, done := startChatDoor(t, room, "alice", 1)

	close(in)
	waitDone(t, done)
	require.Zero(t, room.Count())
}

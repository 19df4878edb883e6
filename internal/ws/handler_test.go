package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/retroline/retroline/internal/session"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func dialTestServer(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return client
}

func TestReadPumpForwardsFrames(t *testing.T) {
	h := NewHandler(session.Config{}, session.Deps{})
	in := make(chan string, 4)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		h.readPump(context.Background(), conn, in, func() {})
	}))
	defer srv.Close()

	client := dialTestServer(t, srv)
	defer client.Close()

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("hello")))
	require.NoError(t, client.WriteMessage(websocket.TextMessage, nil))
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("g")))

	recv := func() string {
		select {
		case s := <-in:
			return s
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for forwarded frame")
			return ""
		}
	}
	require.Equal(t, "hello", recv(), "empty frames are skipped")
	require.Equal(t, "g", recv())

	require.NoError(t, client.Close())
	select {
	case _, ok := <-in:
		require.False(t, ok, "input channel must close when the socket drops")
	case <-time.After(2 * time.Second):
		t.Fatal("input channel left open after disconnect")
	}
}

func TestReadPumpStopsWhenSessionIsGone(t *testing.T) {
	h := NewHandler(session.Config{}, session.Deps{})

	// the session has wound down: its context is cancelled and nothing
	// drains the input channel anymore
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pumpDone := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		in := make(chan string)
		h.readPump(ctx, conn, in, func() {})
		close(pumpDone)
	}))
	defer srv.Close()

	client := dialTestServer(t, srv)
	defer client.Close()

	// keep typing into the dead session
	for i := 0; i < 8; i++ {
		require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("x")))
	}

	select {
	case <-pumpDone:
	case <-time.After(2 * time.Second):
		t.Fatal("read pump kept running with no input reader")
	}
}

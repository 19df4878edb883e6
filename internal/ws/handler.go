package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/retroline/retroline/internal/session"
	"github.com/retroline/retroline/internal/terminal"
	"github.com/retroline/retroline/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	readLimit  = int64(64 << 10)

	inBuffer  = 64
	outBuffer = 256

	// expiryGrace gives the frontend time to render the timeout screen
	// before the line is dropped.
	expiryGrace = 3 * time.Second
	expiryPoll  = 500 * time.Millisecond
)

// Handler upgrades terminal connections and runs one Session per socket.
type Handler struct {
	cfg      session.Config
	deps     session.Deps
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHandler(cfg session.Config, deps session.Deps) *Handler {
	return &Handler{
		cfg:  cfg,
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// the terminal frontend is served from the same origin;
			// cross-origin callers are retro but not that retro
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: logger.WithModule("ws"),
	}
}

// Serve upgrades the request and drives a full session over the socket.
func (h *Handler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	in := make(chan string, inBuffer)
	out := make(chan string, outBuffer)
	sess := session.New(h.cfg, h.deps, in, out)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	writerDone := make(chan struct{})
	go h.writePump(conn, out, writerDone)
	go h.readPump(ctx, conn, in, cancel)
	go h.expiryWatch(ctx, sess, conn)

	if err := sess.Run(ctx); err != nil {
		h.log.Error("session ended with error", zap.Error(err))
	}

	// Run's teardown guarantees nothing writes to out anymore
	close(out)
	<-writerDone
}

// readPump forwards incoming frames to the session's input channel. The
// session is the only reader and treats every frame as raw keystrokes,
// except the auth handshake it parses itself. Once the session winds down
// nobody drains in, so the forward must also watch ctx or a caller
// flooding keystrokes past the buffer would pin the goroutine.
func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, in chan<- string, cancel context.CancelFunc) {
	defer close(in)
	defer cancel()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !isNormalClose(err) {
				h.log.Debug("read pump closed", zap.Error(err))
			}
			return
		}
		if len(payload) == 0 {
			continue
		}
		select {
		case in <- string(payload):
		case <-ctx.Done():
			return
		}
	}
}

// writePump drains session output to the socket. Each chunk runs through a
// Framer so an ANSI escape sequence is never split across frames; a client
// painting frame-by-frame would otherwise flash garbage mid-sequence.
func (h *Handler) writePump(conn *websocket.Conn, out <-chan string, done chan<- struct{}) {
	defer close(done)

	framer := terminal.NewFramer()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	writeFrame := func(chunk string) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(chunk)); err != nil {
			if !isNormalClose(err) {
				h.log.Debug("write pump closed", zap.Error(err))
			}
			return false
		}
		return true
	}

	for {
		select {
		case msg, ok := <-out:
			if !ok {
				if rest, pending := framer.Flush(); pending {
					writeFrame(rest)
				}
				return
			}
			for _, chunk := range framer.Push([]byte(msg)) {
				if !writeFrame(chunk) {
					return
				}
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// expiryWatch drops the line once the caller's clock has run out. The
// session only notices expiry between keystrokes, so an idle caller would
// otherwise hold the node forever.
func (h *Handler) expiryWatch(ctx context.Context, sess *session.Session, conn *websocket.Conn) {
	ticker := time.NewTicker(expiryPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if sess.Expired() {
				time.Sleep(expiryGrace)
				_ = conn.Close()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived)
}

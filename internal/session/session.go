package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/retroline/retroline/internal/auth"
	"github.com/retroline/retroline/internal/chat"
	"github.com/retroline/retroline/internal/clock"
	"github.com/retroline/retroline/internal/door"
	"github.com/retroline/retroline/internal/mail"
	"github.com/retroline/retroline/internal/menu"
	"github.com/retroline/retroline/internal/models"
	"github.com/retroline/retroline/internal/node"
	"github.com/retroline/retroline/internal/terminal"
	"github.com/retroline/retroline/pkg/errors"
	"github.com/retroline/retroline/pkg/logger"
	"github.com/retroline/retroline/pkg/metrics"
)

// Config carries the session-shaping knobs from the app config.
type Config struct {
	BoardName string
	Tagline   string
	// DailyMinutes is the allowance given to new registrations.
	DailyMinutes      int
	TypeAheadCapacity int
	Rows              int
	Cols              int
	// CeremonyDelay paces the modem theater. Zero skips the pauses.
	CeremonyDelay time.Duration
	// GoodbyePause lets the caller read the logoff screen.
	GoodbyePause time.Duration
	// Clock tick overrides for tests. Zero means real time.
	ClockMinuteTick time.Duration
	ClockSecondTick time.Duration
}

// Deps are the shared services a session runs against.
type Deps struct {
	Users    *auth.UserService
	Tokens   *auth.TokenService
	Attempts *auth.AttemptService
	Mail     *mail.Service
	Nodes    *node.Registry
	Room     *chat.Room
	Doors    *door.Registry
	Menu     *menu.Config
}

// Session drives one caller's whole visit: auth handshake, ceremony, login,
// menus and doors, clock, and teardown. It owns the input channel and is the
// only reader; output goes to the transport's write pump.
type Session struct {
	cfg  Config
	deps Deps
	in   <-chan string
	out  chan<- string
	io   *door.IO
	log  *zap.Logger

	user    *models.User
	token   string
	nodeID  int
	nav     *menu.Navigator
	loginAt time.Time

	clk         atomic.Pointer[clock.Clock]
	cleanupOnce sync.Once
}

// New creates a Session over the transport's channels.
func New(cfg Config, deps Deps, in <-chan string, out chan<- string) *Session {
	if cfg.Rows <= 0 {
		cfg.Rows = 24
	}
	if cfg.Cols <= 0 {
		cfg.Cols = 80
	}
	return &Session{
		cfg:  cfg,
		deps: deps,
		in:   in,
		out:  out,
		io:   door.NewIO(in, out),
		log:  logger.WithModule("session"),
	}
}

// authMessage is the frontend's first frame after connecting.
type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type controlMessage struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

// Run drives the session to completion. It returns nil on a normal logoff
// or transport loss; teardown always runs exactly once.
func (s *Session) Run(ctx context.Context) error {
	defer s.cleanup()

	resumed, err := s.handshake(ctx)
	if err != nil {
		return s.mapExitErr(err)
	}

	if !resumed {
		if err := s.dialIn(ctx); err != nil {
			return s.mapExitErr(err)
		}
		if s.nodeID == 0 {
			// all lines busy, screen already sent
			return nil
		}

		user, err := s.loginFlow(ctx)
		if err != nil {
			if stderrors.Is(err, errors.ErrAccountLocked) {
				_ = s.pause(ctx, s.cfg.GoodbyePause)
				return nil
			}
			return s.mapExitErr(err)
		}
		s.user = user
	}

	if err := s.establish(ctx); err != nil {
		return s.mapExitErr(err)
	}
	return s.mapExitErr(s.menuLoop(ctx))
}

// Expired reports whether the caller's clock ran out. Polled by the
// transport so a blocked read cannot outlive the allowance.
func (s *Session) Expired() bool {
	if c := s.clk.Load(); c != nil {
		return c.Expired()
	}
	return false
}

// NodeID returns the assigned node, or 0 before assignment.
func (s *Session) NodeID() int {
	return s.nodeID
}

// handshake waits for the frontend's auth frame and tries to resume from
// its token. It reports whether a resume happened; a missing or stale token
// just means the ceremony runs.
func (s *Session) handshake(ctx context.Context) (bool, error) {
	var raw string
	select {
	case msg, ok := <-s.in:
		if !ok {
			return false, io.EOF
		}
		raw = msg
	case <-ctx.Done():
		return false, ctx.Err()
	}

	var msg authMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil || msg.Type != "auth" || msg.Token == "" {
		return false, nil
	}

	token, err := s.deps.Tokens.Validate(ctx, msg.Token)
	if err != nil || token.User == nil {
		return false, nil
	}

	if s.deps.Nodes.UserOnline(token.UserID, 0) {
		if werr := s.writeError(ctx, "\r\nAlready connected from another session. Disconnecting..."); werr != nil {
			return false, werr
		}
		_ = s.pause(ctx, s.cfg.GoodbyePause)
		return false, io.EOF
	}

	nodeID, err := s.deps.Nodes.Acquire(token.UserID, token.User.Handle)
	if err != nil {
		if werr := s.write(ctx, allLinesBusyScreen()); werr != nil {
			return false, werr
		}
		return false, io.EOF
	}
	s.nodeID = nodeID
	s.user = token.User
	s.token = token.Token
	_ = s.deps.Tokens.BindNode(ctx, token.ID, &nodeID)
	s.log.Info("session resumed",
		zap.String("handle", s.user.Handle),
		zap.Int("node", nodeID))
	return true, nil
}

// dialIn acquires a node under a placeholder identity and plays the
// ceremony. On a full board it sends the busy screen and leaves nodeID 0.
func (s *Session) dialIn(ctx context.Context) error {
	nodeID, err := s.deps.Nodes.Acquire("", "connecting")
	if err != nil {
		s.log.Info("caller rejected, all lines busy")
		return s.write(ctx, allLinesBusyScreen())
	}
	s.nodeID = nodeID
	return s.ceremony(ctx)
}

// establish finishes login housekeeping shared by fresh logins and
// resumes: duplicate check, node rebind, token, stats, clock, menu state.
func (s *Session) establish(ctx context.Context) error {
	if s.deps.Nodes.UserOnline(s.user.ID, s.nodeID) {
		if err := s.writeError(ctx, "\r\nAlready connected from another session. Disconnecting..."); err != nil {
			return err
		}
		_ = s.pause(ctx, s.cfg.GoodbyePause)
		return io.EOF
	}

	s.deps.Nodes.SetUser(s.nodeID, s.user.ID, s.user.Handle)
	s.deps.Nodes.SetActivity(s.nodeID, "Main menu")

	if s.token == "" {
		token, err := s.deps.Tokens.Create(ctx, s.user.ID, &s.nodeID, map[string]any{
			"rows": s.cfg.Rows,
			"cols": s.cfg.Cols,
		})
		if err != nil {
			s.log.Error("token create failed", zap.Error(err))
		} else {
			s.token = token.Token
			if err := s.writeControl(ctx, controlMessage{Type: "session", Token: token.Token}); err != nil {
				return err
			}
		}
		if err := s.deps.Users.RecordLogin(ctx, s.user.ID); err != nil {
			s.log.Error("record login failed", zap.Error(err))
		}
	}

	if err := s.write(ctx, s.welcomeBackScreen()); err != nil {
		return err
	}

	metrics.SessionsStarted.Inc()
	s.loginAt = time.Now()
	s.log.Info("caller online",
		zap.String("handle", s.user.Handle),
		zap.Int("node", s.nodeID))

	clk := clock.Spawn(ctx, clock.Options{
		Output:           s.out,
		RemainingMinutes: s.user.DailyMinutes,
		Handle:           s.user.Handle,
		Online:           s.deps.Nodes.Count(),
		UserID:           s.user.ID,
		UnreadMail:       s.deps.Mail.UnreadCount,
		MinuteTick:       s.cfg.ClockMinuteTick,
		SecondTick:       s.cfg.ClockSecondTick,
	})
	s.clk.Store(clk)

	s.nav = menu.NewNavigator(s.user.Level, s.cfg.TypeAheadCapacity)
	return nil
}

func (s *Session) menuLoop(ctx context.Context) error {
	if err := s.redraw(ctx); err != nil {
		return err
	}

	for {
		if s.Expired() {
			return s.timedOut(ctx)
		}

		key, err := s.io.ReadKey(ctx)
		if err != nil {
			return err
		}

		quit, err := s.applyAction(ctx, s.nav.ProcessKey(key, s.deps.Menu))
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

func (s *Session) applyAction(ctx context.Context, action menu.Action) (quit bool, err error) {
	switch action.Kind {
	case menu.ActionRedraw:
		return false, s.redraw(ctx)
	case menu.ActionShowHelp:
		if err := s.write(ctx, menu.RenderHelp(s.deps.Menu, s.nav)); err != nil {
			return false, err
		}
		if _, err := s.io.ReadKey(ctx); err != nil {
			return false, err
		}
		return false, s.redraw(ctx)
	case menu.ActionEnterSubmenu, menu.ActionBackToMain:
		return false, s.redraw(ctx)
	case menu.ActionLaunchDoor:
		if err := s.runDoor(ctx, action.Target); err != nil {
			return false, err
		}
		if s.Expired() {
			return true, s.timedOut(ctx)
		}
		if quit, err := s.drainTypeAhead(ctx); quit || err != nil {
			return quit, err
		}
		return false, s.redraw(ctx)
	case menu.ActionExecuteCommand:
		return s.runCommand(ctx, action.Target)
	default:
		return false, nil
	}
}

// drainTypeAhead replays keys the caller typed while a door held the
// terminal.
func (s *Session) drainTypeAhead(ctx context.Context) (quit bool, err error) {
	for {
		key, ok := s.io.TryKey()
		if !ok {
			break
		}
		s.nav.BufferKey(key)
	}
	for _, action := range s.nav.DrainBuffer(s.deps.Menu) {
		quit, err := s.applyAction(ctx, action)
		if quit || err != nil {
			return quit, err
		}
	}
	return false, nil
}

func (s *Session) redraw(ctx context.Context) error {
	view := menu.View{
		BoardName: s.cfg.BoardName,
		Handle:    s.user.Handle,
		LevelName: levelName(s.user.Level),
		NodeID:    s.nodeID,
		MaxNodes:  s.deps.Nodes.MaxNodes(),
	}
	if s.nav.AtMain() {
		s.deps.Nodes.SetActivity(s.nodeID, "Main menu")
		return s.write(ctx, menu.RenderMain(s.deps.Menu, s.nav.UserLevel(), view))
	}
	s.deps.Nodes.SetActivity(s.nodeID, s.deps.Menu.SubmenuTitle(s.nav.Submenu()))
	return s.write(ctx, menu.RenderSubmenu(s.deps.Menu, s.nav.Submenu(), s.nav.UserLevel()))
}

func (s *Session) runDoor(ctx context.Context, name string) error {
	d, ok := s.deps.Doors.Get(name)
	if !ok {
		s.log.Warn("menu names unknown door", zap.String("door", name))
		return s.writeError(ctx, "That area is closed right now.")
	}

	s.deps.Nodes.SetActivity(s.nodeID, doorActivity(name))
	defer s.deps.Nodes.SetActivity(s.nodeID, "Main menu")

	env := &door.Env{
		NodeID:   s.nodeID,
		User:     s.user,
		Registry: s.deps.Nodes,
		Room:     s.deps.Room,
		Mail:     s.deps.Mail,
		Rows:     s.cfg.Rows,
		Cols:     s.cfg.Cols,
	}
	if err := d.Run(ctx, s.io, env); err != nil {
		return err
	}
	return nil
}

func (s *Session) runCommand(ctx context.Context, command string) (quit bool, err error) {
	switch command {
	case "quit":
		return true, s.logoff(ctx)
	case "profile":
		if err := s.write(ctx, s.profileCard()); err != nil {
			return false, err
		}
		if _, err := s.io.ReadKey(ctx); err != nil {
			return false, err
		}
		return false, s.redraw(ctx)
	default:
		s.log.Warn("menu names unknown command", zap.String("command", command))
		return false, s.redraw(ctx)
	}
}

func (s *Session) profileCard() string {
	w := terminal.NewWriter()
	w.ClearScreen()
	w.SetFg(terminal.LightCyan)
	w.Bold()
	w.WriteLine("=[ Your Profile ]=")
	w.Reset()
	w.WriteLine("")
	w.SetFg(terminal.LightGray)
	w.WriteLine("Handle:       " + s.user.Handle)
	if s.user.Email != "" {
		w.WriteLine("Email:        " + s.user.Email)
	}
	w.WriteLine("Level:        " + levelName(s.user.Level))
	w.WriteLine(fmt.Sprintf("Total calls:  %d", s.user.TotalLogins))
	w.WriteLine(fmt.Sprintf("Time online:  %d minutes", s.user.TotalMinutes))
	allowance := "unlimited"
	if s.user.DailyMinutes > 0 {
		allowance = fmt.Sprintf("%d minutes/day", s.user.DailyMinutes)
	}
	w.WriteLine("Allowance:    " + allowance)
	w.Reset()
	w.WriteLine("")
	w.SetFg(terminal.LightCyan)
	w.WriteString("Press any key to return...")
	w.Reset()
	return w.Flush()
}

// logoff runs the clean goodbye sequence: stats, token revocation, logout
// control frame, goodbye screen.
func (s *Session) logoff(ctx context.Context) error {
	minutes := int64(time.Since(s.loginAt) / time.Minute)
	if err := s.deps.Users.AddSessionTime(ctx, s.user.ID, minutes); err != nil {
		s.log.Error("add session time failed", zap.Error(err))
	}
	if s.token != "" {
		_ = s.deps.Tokens.Delete(ctx, s.token)
	}
	if err := s.writeControl(ctx, controlMessage{Type: "logout"}); err != nil {
		return err
	}
	if err := s.write(ctx, s.goodbyeScreen(minutes)); err != nil {
		return err
	}
	s.log.Info("caller logged off",
		zap.String("handle", s.user.Handle),
		zap.Int64("minutes", minutes))
	return s.pause(ctx, s.cfg.GoodbyePause)
}

// timedOut handles the hard end of the allowance. The clock already sent
// the timeout control frame.
func (s *Session) timedOut(ctx context.Context) error {
	minutes := int64(time.Since(s.loginAt) / time.Minute)
	if err := s.deps.Users.AddSessionTime(ctx, s.user.ID, minutes); err != nil {
		s.log.Error("add session time failed", zap.Error(err))
	}
	if s.token != "" {
		_ = s.deps.Tokens.Delete(ctx, s.token)
	}
	if err := s.write(ctx, timeoutScreen()); err != nil {
		return err
	}
	s.log.Info("caller timed out", zap.String("handle", s.user.Handle))
	return s.pause(ctx, s.cfg.GoodbyePause)
}

// cleanup tears the session down exactly once: stop the clock, leave the
// room, then free the node. Order matters; the clock must not keep writing
// after the line is released.
func (s *Session) cleanup() {
	s.cleanupOnce.Do(func() {
		if c := s.clk.Load(); c != nil {
			c.Cancel()
			c.Wait()
		}
		if s.nodeID != 0 {
			s.deps.Room.Leave(s.nodeID)
			s.deps.Room.Unsubscribe(s.nodeID)
			s.deps.Nodes.Release(s.nodeID)
		}
		if s.user != nil {
			s.log.Info("session closed", zap.String("handle", s.user.Handle), zap.Int("node", s.nodeID))
		}
	})
}

func (s *Session) write(ctx context.Context, out string) error {
	if out == "" {
		return nil
	}
	select {
	case s.out <- out:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) writeControl(ctx context.Context, msg controlMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal control message")
	}
	return s.write(ctx, string(data))
}

// mapExitErr folds the expected shutdown causes into a clean nil.
func (s *Session) mapExitErr(err error) error {
	if err == nil ||
		stderrors.Is(err, io.EOF) ||
		stderrors.Is(err, context.Canceled) ||
		stderrors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func levelName(level int) string {
	switch {
	case level >= 255:
		return "Sysop"
	case level >= 100:
		return "Co-Sysop"
	default:
		return "Member"
	}
}

func doorActivity(name string) string {
	switch name {
	case "chat":
		return "Teleconference"
	case "who":
		return "Who's online"
	case "mail_read":
		return "Reading mail"
	default:
		return "In " + name
	}
}

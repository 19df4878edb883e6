package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/retroline/retroline/internal/terminal"
)

// ceremony plays the dial-up connection theater: ring, carrier negotiation,
// splash art, then the login header. Delays come from the session config so
// tests can run it instantly.
func (s *Session) ceremony(ctx context.Context) error {
	lines := []struct {
		color terminal.Color
		bold  bool
		text  string
	}{
		{terminal.Green, false, "RING... RING..."},
		{terminal.Yellow, true, "CONNECT 38400/ARQ/V.34/LAPM/V.42BIS"},
		{terminal.LightGray, false, ""},
		{terminal.LightGray, false, fmt.Sprintf("Connected to Node %d of %d", s.nodeID, s.deps.Nodes.MaxNodes())},
	}

	for _, line := range lines {
		w := terminal.NewWriter()
		w.SetFg(line.color)
		if line.bold {
			w.Bold()
		}
		w.WriteLine(line.text)
		w.Reset()
		if err := s.write(ctx, w.Flush()); err != nil {
			return err
		}
		if err := s.pause(ctx, s.cfg.CeremonyDelay); err != nil {
			return err
		}
	}

	if err := s.write(ctx, s.splashScreen()); err != nil {
		return err
	}
	return s.write(ctx, s.loginHeader())
}

func (s *Session) splashScreen() string {
	w := terminal.NewWriter()
	w.ClearScreen()
	w.WriteLine("")
	w.SetFg(terminal.LightCyan)
	w.Bold()
	name := s.cfg.BoardName
	pad := (80 - len(name)) / 2
	if pad < 0 {
		pad = 0
	}
	w.WriteLine(strings.Repeat(" ", pad) + name)
	w.Reset()
	if s.cfg.Tagline != "" {
		tagPad := (80 - len(s.cfg.Tagline)) / 2
		if tagPad < 0 {
			tagPad = 0
		}
		w.SetFg(terminal.LightGray)
		w.WriteLine(strings.Repeat(" ", tagPad) + s.cfg.Tagline)
		w.Reset()
	}
	w.SetFg(terminal.DarkGray)
	w.WriteLine("")
	w.WriteLine(strings.Repeat(" ", 22) + "ANSI/CP437 | 16-Color CGA | 80x24")
	w.Reset()
	w.WriteLine("")
	return w.Flush()
}

func (s *Session) loginHeader() string {
	w := terminal.NewWriter()
	w.SetFg(terminal.LightGray)
	w.WriteLine(fmt.Sprintf("%d of %d lines in use.", s.deps.Nodes.Count(), s.deps.Nodes.MaxNodes()))
	w.Reset()
	w.WriteLine("")
	w.SetFg(terminal.DarkGray)
	w.WriteLine("Log in with your handle, or type NEW to register.")
	w.Reset()
	w.WriteLine("")
	return w.Flush()
}

// allLinesBusyScreen is what a caller sees instead of a login prompt when
// every node is taken.
func allLinesBusyScreen() string {
	w := terminal.NewWriter()
	w.WriteLine("")
	w.SetColor(terminal.White, terminal.Red)
	w.Bold()
	w.WriteLine("   ALL LINES ARE BUSY - PLEASE TRY AGAIN   ")
	w.Reset()
	w.WriteLine("")
	w.SetFg(terminal.LightGray)
	w.WriteLine("The board is at capacity. Call back in a few minutes.")
	w.Reset()
	return w.Flush()
}

func (s *Session) welcomeBackScreen() string {
	w := terminal.NewWriter()
	w.WriteLine("")
	w.SetFg(terminal.LightGreen)
	w.Bold()
	w.WriteLine(fmt.Sprintf("Welcome back, %s!", s.user.Handle))
	w.Reset()
	w.SetFg(terminal.LightGray)
	if s.user.LastLoginAt != nil {
		w.WriteLine("Last on: " + s.user.LastLoginAt.Format("2006-01-02 15:04"))
	} else {
		w.WriteLine("This is your first call. Enjoy your stay.")
	}
	w.WriteLine(fmt.Sprintf("Total calls: %d", s.user.TotalLogins+1))
	w.Reset()
	w.WriteLine("")
	return w.Flush()
}

func (s *Session) goodbyeScreen(sessionMinutes int64) string {
	w := terminal.NewWriter()
	w.ClearScreen()
	w.WriteLine("")
	w.SetFg(terminal.LightCyan)
	w.Bold()
	w.WriteLine(fmt.Sprintf("Thanks for calling, %s.", s.user.Handle))
	w.Reset()
	w.SetFg(terminal.LightGray)
	w.WriteLine(fmt.Sprintf("Time on this call: %d minutes", sessionMinutes))
	w.WriteLine(fmt.Sprintf("Total time online: %d minutes", s.user.TotalMinutes+sessionMinutes))
	w.Reset()
	w.WriteLine("")
	w.SetFg(terminal.DarkGray)
	w.WriteLine("NO CARRIER")
	w.Reset()
	return w.Flush()
}

func timeoutScreen() string {
	w := terminal.NewWriter()
	w.WriteLine("")
	w.SetColor(terminal.White, terminal.Red)
	w.Bold()
	w.WriteLine("   YOUR TIME IS UP FOR TODAY   ")
	w.Reset()
	w.SetFg(terminal.LightGray)
	w.WriteLine("Call back tomorrow for a fresh allowance.")
	w.Reset()
	w.WriteLine("")
	w.SetFg(terminal.DarkGray)
	w.WriteLine("NO CARRIER")
	w.Reset()
	return w.Flush()
}

func (s *Session) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

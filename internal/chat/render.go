package chat

import (
	"fmt"

	"github.com/retroline/retroline/internal/terminal"
)

// RenderEvent formats an event as one ANSI-colored line, CRLF terminated.
// selfHandle picks the first-person phrasing for events the viewer caused.
func RenderEvent(ev Event, selfHandle string) string {
	w := terminal.NewWriter()

	switch ev.Type {
	case EventPublic:
		w.SetFg(terminal.LightCyan)
		w.WriteString("<" + ev.From + "> ")
		w.Reset()
		w.WriteString(ev.Body)
	case EventAction:
		w.SetFg(terminal.LightMagenta)
		w.WriteString(fmt.Sprintf("* %s %s", ev.From, ev.Body))
		w.Reset()
	case EventSystem:
		w.SetFg(terminal.Yellow)
		w.WriteString("*** " + ev.Body)
		w.Reset()
	case EventDirect:
		w.SetFg(terminal.LightGreen)
		if ev.From == selfHandle {
			w.WriteString(fmt.Sprintf("[To %s] ", ev.To))
		} else {
			w.WriteString(fmt.Sprintf("[From %s] ", ev.From))
		}
		w.Reset()
		w.WriteString(ev.Body)
	case EventJoin:
		w.SetFg(terminal.LightGreen)
		w.WriteString(fmt.Sprintf("*** %s has joined the room", ev.From))
		w.Reset()
	case EventLeave:
		w.SetFg(terminal.LightRed)
		w.WriteString(fmt.Sprintf("*** %s has left the room", ev.From))
		w.Reset()
	case EventPage:
		w.SetFg(terminal.White)
		w.Bold()
		w.WriteString(fmt.Sprintf("*** %s is paging you!", ev.From))
		w.Reset()
	default:
		w.WriteString(ev.Body)
	}

	w.WriteString("\r\n")
	return w.Flush()
}

// RenderRoster formats the /who listing.
func RenderRoster(parts []Participant, capacity int) string {
	w := terminal.NewWriter()
	w.SetFg(terminal.Yellow)
	w.WriteLine(fmt.Sprintf("*** In the room (%d/%d):", len(parts), capacity))
	w.Reset()
	for _, p := range parts {
		w.WriteLine(fmt.Sprintf("  Node %2d  %s", p.NodeID, p.Handle))
	}
	return w.Flush()
}

// RenderHelp formats the /help summary.
func RenderHelp() string {
	w := terminal.NewWriter()
	w.SetFg(terminal.LightGray)
	w.WriteLine("Chat commands:")
	w.WriteLine("  /who          list who is in the room")
	w.WriteLine("  /me <action>  emote")
	w.WriteLine("  /msg <handle> <text>  private message")
	w.WriteLine("  /r <text>     reply to the last private message")
	w.WriteLine("  /page <handle>        page another caller")
	w.WriteLine("  /quit         leave chat")
	w.Reset()
	return w.Flush()
}

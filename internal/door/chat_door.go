package door

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/retroline/retroline/internal/chat"
	"github.com/retroline/retroline/internal/terminal"
	"github.com/retroline/retroline/pkg/errors"
)

const chatPrompt = "> "

// ChatDoor is the teleconference: a line-at-a-time group chat where room
// events interleave with the caller's typing.
type ChatDoor struct{}

// NewChatDoor creates the teleconference door.
func NewChatDoor() *ChatDoor {
	return &ChatDoor{}
}

// Name implements Door.
func (d *ChatDoor) Name() string { return "chat" }

// Run implements Door. It returns nil on /quit and on transport loss; the
// room is always left on the way out.
func (d *ChatDoor) Run(ctx context.Context, tio *IO, env *Env) error {
	events := env.Room.Subscribe(env.NodeID)
	defer env.Room.Unsubscribe(env.NodeID)

	if err := env.Room.Join(env.NodeID, env.User.Handle); err != nil {
		if stderrors.Is(err, errors.ErrRoomFull) {
			return tio.Write(ctx, "\r\n"+chat.RenderEvent(chat.NewSystem(errors.ErrRoomFull.Message), env.User.Handle))
		}
		return err
	}
	defer env.Room.Leave(env.NodeID)

	if err := tio.Write(ctx, d.banner(env)); err != nil {
		return err
	}

	var (
		line     []byte
		replyTo  string
		inEscape bool
	)
	prompt := func() string { return chatPrompt + string(line) }
	if err := tio.Write(ctx, prompt()); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Type == chat.EventDirect && !strings.EqualFold(ev.From, env.User.Handle) {
				replyTo = ev.From
			}
			// repaint the event over the input line, then restore it
			out := "\r\x1b[K" + chat.RenderEvent(ev, env.User.Handle) + prompt()
			if err := tio.Write(ctx, out); err != nil {
				return err
			}

		case chunk, ok := <-tio.In():
			if !ok {
				return nil
			}
			for i := 0; i < len(chunk); i++ {
				key := chunk[i]
				if inEscape {
					if isFinalByte(key) {
						inEscape = false
					}
					continue
				}
				switch {
				case key == 0x1b:
					inEscape = true
				case key == '\r' || key == '\n':
					if err := tio.Write(ctx, "\r\n"); err != nil {
						return err
					}
					input := string(line)
					line = line[:0]
					quit, err := d.handleLine(ctx, tio, env, input, &replyTo)
					if err != nil {
						return err
					}
					if quit {
						return nil
					}
					if err := tio.Write(ctx, prompt()); err != nil {
						return err
					}
				case key == 0x08 || key == 0x7f:
					if len(line) > 0 {
						line = line[:len(line)-1]
						if err := tio.Write(ctx, "\x08 \x08"); err != nil {
							return err
						}
					}
				case key >= 0x20 && key < 0x7f:
					if len(line) >= 200 {
						continue
					}
					line = append(line, key)
					if err := tio.Write(ctx, string(key)); err != nil {
						return err
					}
				}
			}
		}
	}
}

func (d *ChatDoor) handleLine(ctx context.Context, tio *IO, env *Env, input string, replyTo *string) (quit bool, err error) {
	cmd := chat.ParseCommand(input)
	switch cmd.Kind {
	case chat.KindSay:
		if cmd.Body != "" {
			env.Room.Broadcast(chat.NewPublic(env.User.Handle, cmd.Body))
		}
	case chat.KindQuit:
		return true, tio.Write(ctx, "\r\nLeaving the teleconference...\r\n")
	case chat.KindHelp:
		return false, tio.Write(ctx, chat.RenderHelp())
	case chat.KindWho:
		return false, tio.Write(ctx, chat.RenderRoster(env.Room.Participants(), env.Room.Capacity()))
	case chat.KindAction:
		if cmd.Body != "" {
			env.Room.Broadcast(chat.NewAction(env.User.Handle, cmd.Body))
		}
	case chat.KindDirect:
		if cmd.Target == "" || cmd.Body == "" {
			return false, tio.Write(ctx, "Usage: /msg <handle> <text>\r\n")
		}
		if !env.Room.SendTo(chat.NewDirect(env.User.Handle, cmd.Target, cmd.Body), env.NodeID) {
			return false, tio.Write(ctx, fmt.Sprintf("%s is not in the room.\r\n", cmd.Target))
		}
	case chat.KindReply:
		if *replyTo == "" {
			return false, tio.Write(ctx, "Nobody has messaged you yet.\r\n")
		}
		if cmd.Body == "" {
			return false, tio.Write(ctx, "Usage: /r <text>\r\n")
		}
		if !env.Room.SendTo(chat.NewDirect(env.User.Handle, *replyTo, cmd.Body), env.NodeID) {
			return false, tio.Write(ctx, fmt.Sprintf("%s has left the room.\r\n", *replyTo))
		}
	case chat.KindPage:
		if cmd.Target == "" {
			return false, tio.Write(ctx, "Usage: /page <handle>\r\n")
		}
		if !env.Room.SendTo(chat.NewPage(env.User.Handle, cmd.Target), env.NodeID) {
			return false, tio.Write(ctx, fmt.Sprintf("%s is not in the room.\r\n", cmd.Target))
		}
	case chat.KindUnknown:
		return false, tio.Write(ctx, fmt.Sprintf("Unknown command /%s. Try /help.\r\n", cmd.Name))
	}
	return false, nil
}

func (d *ChatDoor) banner(env *Env) string {
	w := terminal.NewWriter()
	w.ClearScreen()
	w.SetFg(terminal.LightCyan)
	w.Bold()
	w.WriteLine("=[ Teleconference ]=")
	w.Reset()
	w.WriteLine("")
	w.WriteString(chat.RenderRoster(env.Room.Participants(), env.Room.Capacity()))
	w.SetFg(terminal.DarkGray)
	w.WriteLine("Type /help for commands, /quit to leave.")
	w.Reset()
	w.WriteLine("")
	return w.Flush()
}

package door

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/retroline/retroline/internal/models"
	"github.com/retroline/retroline/internal/terminal"
)

// MailDoor reads the caller's mailbox. Long message bodies page through
// [More] prompts; reading a message marks it read.
type MailDoor struct{}

// NewMailDoor creates the mail reader door.
func NewMailDoor() *MailDoor {
	return &MailDoor{}
}

// Name implements Door.
func (d *MailDoor) Name() string { return "mail_read" }

// Run implements Door.
func (d *MailDoor) Run(ctx context.Context, tio *IO, env *Env) error {
	for {
		msgs, err := env.Mail.Inbox(ctx, env.User.ID)
		if err != nil {
			return err
		}

		if err := tio.Write(ctx, d.renderIndex(msgs)); err != nil {
			return err
		}

		line, err := tio.ReadLine(ctx, LineOptions{Echo: true, MaxLen: 8})
		if err != nil {
			return err
		}
		choice := strings.TrimSpace(line)
		if choice == "" || strings.EqualFold(choice, "q") {
			return nil
		}

		idx, convErr := strconv.Atoi(choice)
		if convErr != nil || idx < 1 || idx > len(msgs) {
			if err := tio.Write(ctx, "No such message.\r\n"); err != nil {
				return err
			}
			continue
		}

		msg := msgs[idx-1]
		if err := d.showMessage(ctx, tio, env, msg); err != nil {
			return err
		}
		if !msg.Read {
			// best effort; the caller already saw the message
			_ = env.Mail.MarkRead(ctx, env.User.ID, msg.ID)
		}
	}
}

func (d *MailDoor) renderIndex(msgs []models.MailMessage) string {
	w := terminal.NewWriter()
	w.ClearScreen()
	w.SetFg(terminal.LightCyan)
	w.Bold()
	w.WriteLine("=[ Your Mailbox ]=")
	w.Reset()
	w.WriteLine("")

	if len(msgs) == 0 {
		w.WriteLine("  Your mailbox is empty.")
	} else {
		w.SetFg(terminal.Yellow)
		w.WriteLine(fmt.Sprintf("  %-4s %-3s %-16s %s", "#", "New", "From", "Subject"))
		w.Reset()
		for i, msg := range msgs {
			flag := " "
			if !msg.Read {
				flag = "*"
			}
			w.SetFg(terminal.White)
			w.WriteLine(fmt.Sprintf("  %-4d %-3s %-16s %s", i+1, flag, msg.FromHandle, msg.Subject))
		}
		w.Reset()
	}
	w.WriteLine("")
	w.SetFg(terminal.LightCyan)
	w.WriteString("Message number to read, or Q to return: ")
	w.Reset()
	return w.Flush()
}

func (d *MailDoor) showMessage(ctx context.Context, tio *IO, env *Env, msg models.MailMessage) error {
	rows := env.Rows
	if rows <= 0 {
		rows = 24
	}
	cols := env.Cols
	if cols <= 0 {
		cols = 80
	}

	header := terminal.NewWriter()
	header.ClearScreen()
	header.SetFg(terminal.LightGreen)
	header.WriteLine("From:    " + msg.FromHandle)
	header.WriteLine("Subject: " + msg.Subject)
	header.WriteLine("Sent:    " + msg.CreatedAt.Format("2006-01-02 15:04"))
	header.Reset()
	header.WriteLine(strings.Repeat("-", 40))
	if err := tio.Write(ctx, header.Flush()); err != nil {
		return err
	}

	pager := terminal.NewPager(rows)
	for _, page := range pager.Paginate(msg.Body) {
		if err := tio.Write(ctx, page.ANSI()+"\r\n"); err != nil {
			return err
		}
		if page.IsLast {
			break
		}
		if err := tio.Write(ctx, terminal.MorePrompt()); err != nil {
			return err
		}
		key, err := tio.ReadKey(ctx)
		if err != nil {
			return err
		}
		if err := tio.Write(ctx, terminal.ClearMorePrompt(cols)); err != nil {
			return err
		}
		if key == 'q' || key == 'Q' {
			return nil
		}
	}

	if err := tio.Write(ctx, "\r\nPress any key to return to the mailbox..."); err != nil {
		return err
	}
	_, err := tio.ReadKey(ctx)
	return err
}

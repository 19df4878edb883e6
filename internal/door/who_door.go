package door

import (
	"context"
	"fmt"

	"github.com/retroline/retroline/internal/terminal"
)

// WhoDoor shows the who's-online roster: every occupied node, its caller
// and what they are doing.
type WhoDoor struct{}

// NewWhoDoor creates the who's-online door.
func NewWhoDoor() *WhoDoor {
	return &WhoDoor{}
}

// Name implements Door.
func (d *WhoDoor) Name() string { return "who" }

// Run implements Door.
func (d *WhoDoor) Run(ctx context.Context, tio *IO, env *Env) error {
	w := terminal.NewWriter()
	w.ClearScreen()
	w.BeginSync()
	w.SetFg(terminal.LightCyan)
	w.Bold()
	w.WriteLine("=[ Who's Online ]=")
	w.Reset()
	w.WriteLine("")

	w.SetFg(terminal.Yellow)
	w.WriteLine(fmt.Sprintf("  %-6s %-20s %-20s %s", "Node", "Handle", "Doing", "On Since"))
	w.Reset()

	for _, info := range env.Registry.List() {
		marker := "  "
		if info.ID == env.NodeID {
			marker = "* "
		}
		w.SetFg(terminal.White)
		w.WriteLine(fmt.Sprintf("%s%-6d %-20s %-20s %s",
			marker, info.ID, info.Handle, info.Activity, info.ConnectedAt.Format("15:04:05")))
	}
	w.Reset()
	w.WriteLine("")
	w.SetFg(terminal.DarkGray)
	w.WriteLine(fmt.Sprintf("%d of %d nodes in use.", env.Registry.Count(), env.Registry.MaxNodes()))
	w.Reset()
	w.WriteLine("")
	w.SetFg(terminal.LightCyan)
	w.WriteString("Press any key to return...")
	w.Reset()
	w.EndSync()

	if err := tio.Write(ctx, w.Flush()); err != nil {
		return err
	}
	_, err := tio.ReadKey(ctx)
	return err
}

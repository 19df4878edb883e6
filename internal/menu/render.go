package menu

import (
	"fmt"
	"strings"

	"github.com/retroline/retroline/internal/terminal"
)

const screenWidth = 80

type borderStyle int

const (
	borderDouble borderStyle = iota
	borderSingle
)

// box drawing bytes in code page 437
var borderChars = map[borderStyle]struct{ tl, tr, bl, br, h, v byte }{
	borderDouble: {0xC9, 0xBB, 0xC8, 0xBC, 0xCD, 0xBA},
	borderSingle: {0xDA, 0xBF, 0xC0, 0xD9, 0xC4, 0xB3},
}

func renderBorderLine(w *terminal.Writer, style borderStyle, top bool) {
	chars := borderChars[style]
	left, right := chars.bl, chars.br
	if top {
		left, right = chars.tl, chars.tr
	}
	w.SetFg(terminal.LightCyan)
	w.WriteCP437([]byte{left})
	for i := 0; i < screenWidth-2; i++ {
		w.WriteCP437([]byte{chars.h})
	}
	w.WriteCP437([]byte{right})
	w.WriteLine("")
}

func renderTitleLine(w *terminal.Writer, style borderStyle, title string) {
	chars := borderChars[style]
	inner := screenWidth - 2
	padding := (inner - len(title)) / 2
	if padding < 0 {
		padding = 0
	}

	w.SetFg(terminal.LightCyan)
	w.WriteCP437([]byte{chars.v})
	w.SetFg(terminal.White)
	w.Bold()
	w.WriteString(strings.Repeat(" ", padding))
	w.WriteString(title)
	w.WriteString(strings.Repeat(" ", max(inner-padding-len(title), 0)))
	w.Reset()
	w.SetFg(terminal.LightCyan)
	w.WriteCP437([]byte{chars.v})
	w.WriteLine("")
}

func renderItem(w *terminal.Writer, item Item) {
	w.WriteString("  ")
	w.SetFg(terminal.LightGreen)
	w.WriteString("[" + item.Hotkey + "]")
	w.SetFg(terminal.White)
	w.WriteString(" " + item.Name)
	w.WriteLine("")
	w.Reset()
}

// View carries the session details shown on menu screens.
type View struct {
	BoardName string
	Handle    string
	LevelName string
	NodeID    int
	MaxNodes  int
}

// RenderMain paints the main menu screen inside a double-line box. Up to
// seven items stack in one column; more split into two.
func RenderMain(cfg *Config, userLevel int, view View) string {
	w := terminal.NewWriter()
	w.ClearScreen()
	w.BeginSync()

	renderBorderLine(w, borderDouble, true)
	renderTitleLine(w, borderDouble, view.BoardName)
	renderBorderLine(w, borderDouble, false)
	w.WriteLine("")

	items := cfg.MainItems(userLevel)
	if len(items) <= 7 {
		for _, item := range items {
			renderItem(w, item)
		}
	} else {
		mid := (len(items) + 1) / 2
		left, right := items[:mid], items[mid:]
		for i := range left {
			w.WriteString("  ")
			w.SetFg(terminal.LightGreen)
			w.WriteString("[" + left[i].Hotkey + "]")
			w.SetFg(terminal.White)
			name := " " + left[i].Name
			w.WriteString(name)
			if i < len(right) {
				pad := 40 - (2 + 3 + len(name))
				if pad < 1 {
					pad = 1
				}
				w.WriteString(strings.Repeat(" ", pad))
				w.SetFg(terminal.LightGreen)
				w.WriteString("[" + right[i].Hotkey + "]")
				w.SetFg(terminal.White)
				w.WriteString(" " + right[i].Name)
			}
			w.WriteLine("")
			w.Reset()
		}
	}
	w.WriteLine("")

	userInfo := fmt.Sprintf("Logged in as: %s [%s]", view.Handle, view.LevelName)
	nodeInfo := fmt.Sprintf("Node %d of %d", view.NodeID, view.MaxNodes)
	w.SetFg(terminal.LightGreen)
	w.WriteString(userInfo)
	w.WriteString(strings.Repeat(" ", max(screenWidth-len(userInfo)-len(nodeInfo), 1)))
	w.SetFg(terminal.Yellow)
	w.WriteString(nodeInfo)
	w.WriteLine("")
	w.Reset()

	w.SetFg(terminal.LightCyan)
	w.WriteString("Your choice? ")
	w.Reset()
	w.ShowCursor()
	w.EndSync()
	return w.Flush()
}

// RenderSubmenu paints a submenu screen inside a single-line box with the
// standing [Q] back entry.
func RenderSubmenu(cfg *Config, key string, userLevel int) string {
	w := terminal.NewWriter()
	w.ClearScreen()
	w.BeginSync()

	renderBorderLine(w, borderSingle, true)
	renderTitleLine(w, borderSingle, cfg.SubmenuTitle(key))
	renderBorderLine(w, borderSingle, false)
	w.WriteLine("")

	for _, item := range cfg.SubmenuItems(key, userLevel) {
		renderItem(w, item)
	}
	w.WriteLine("")
	renderItem(w, Item{Hotkey: "Q", Name: "Back to Main Menu"})
	w.WriteLine("")

	w.SetFg(terminal.LightCyan)
	w.WriteString("Your choice? ")
	w.Reset()
	w.ShowCursor()
	w.EndSync()
	return w.Flush()
}

// RenderHelp paints the help screen listing the current menu's hotkeys and
// the universal keys.
func RenderHelp(cfg *Config, nav *Navigator) string {
	w := terminal.NewWriter()
	w.ClearScreen()
	w.BeginSync()

	renderBorderLine(w, borderSingle, true)
	renderTitleLine(w, borderSingle, "HELP")
	renderBorderLine(w, borderSingle, false)
	w.WriteLine("")

	var items []Item
	if nav.AtMain() {
		w.WriteLine("  Main menu commands:")
		items = cfg.MainItems(nav.UserLevel())
	} else {
		w.WriteLine("  " + cfg.SubmenuTitle(nav.Submenu()) + " commands:")
		items = cfg.SubmenuItems(nav.Submenu(), nav.UserLevel())
	}
	w.WriteLine("")
	for _, item := range items {
		renderItem(w, item)
	}
	if !nav.AtMain() {
		renderItem(w, Item{Hotkey: "Q", Name: "Back to Main Menu"})
	}
	w.WriteLine("")
	w.SetFg(terminal.DarkGray)
	w.WriteLine("  [?] shows this screen, [Enter] repaints the menu.")
	w.Reset()
	w.WriteLine("")

	w.SetFg(terminal.LightCyan)
	w.WriteString("Press any key to continue...")
	w.Reset()
	w.EndSync()
	return w.Flush()
}

package menu

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// ItemKind says what selecting a menu item does.
type ItemKind string

const (
	// KindDoor launches a door (interactive sub-program) by name.
	KindDoor ItemKind = "door"
	// KindSubmenu navigates into a named submenu.
	KindSubmenu ItemKind = "submenu"
	// KindCommand runs a built-in session command such as "quit".
	KindCommand ItemKind = "command"
)

// Item is one selectable menu entry.
type Item struct {
	Kind     ItemKind `json:"type"`
	Hotkey   string   `json:"hotkey"`
	Name     string   `json:"name"`
	Target   string   `json:"target"`
	MinLevel int      `json:"min_level"`
	Order    int      `json:"order"`
}

// MatchesKey reports whether the item's single-character hotkey matches the
// pressed key, ignoring case.
func (i Item) MatchesKey(key byte) bool {
	if len(i.Hotkey) != 1 {
		return false
	}
	return lower(i.Hotkey[0]) == lower(key)
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// Config is the whole menu tree, loaded from a JSON file at startup.
type Config struct {
	Main     []Item                `json:"main"`
	Submenus map[string]SubmenuDef `json:"submenus"`
}

// SubmenuDef is one submenu's title and entries.
type SubmenuDef struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// Load reads and parses a menu config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse menu config %s: %w", path, err)
	}
	return &cfg, nil
}

// Default returns the stock menu tree used when no config file is given.
func Default() *Config {
	return &Config{
		Main: []Item{
			{Kind: KindSubmenu, Hotkey: "M", Name: "Mail", Target: "mail", Order: 1},
			{Kind: KindDoor, Hotkey: "T", Name: "Teleconference", Target: "chat", Order: 2},
			{Kind: KindDoor, Hotkey: "W", Name: "Who's Online", Target: "who", Order: 3},
			{Kind: KindCommand, Hotkey: "P", Name: "Your Profile", Target: "profile", Order: 10},
			{Kind: KindCommand, Hotkey: "G", Name: "Goodbye (Logoff)", Target: "quit", Order: 99},
		},
		Submenus: map[string]SubmenuDef{
			"mail": {
				Title: "Mail",
				Items: []Item{
					{Kind: KindDoor, Hotkey: "R", Name: "Read Mail", Target: "mail_read", Order: 1},
				},
			},
		},
	}
}

// MainItems returns the main menu entries visible at the given user level,
// sorted by display order.
func (c *Config) MainItems(userLevel int) []Item {
	return visible(c.Main, userLevel)
}

// SubmenuItems returns a submenu's visible entries. An unknown key yields nil.
func (c *Config) SubmenuItems(key string, userLevel int) []Item {
	def, ok := c.Submenus[key]
	if !ok {
		return nil
	}
	return visible(def.Items, userLevel)
}

// SubmenuTitle returns the display name for a submenu key.
func (c *Config) SubmenuTitle(key string) string {
	if def, ok := c.Submenus[key]; ok && def.Title != "" {
		return def.Title
	}
	return "Unknown"
}

func visible(items []Item, userLevel int) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.MinLevel <= userLevel {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

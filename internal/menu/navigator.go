package menu

// ActionKind classifies what a keystroke resolved to.
type ActionKind int

const (
	// ActionRedraw repaints the current menu (Enter, unmatched keys).
	ActionRedraw ActionKind = iota
	// ActionEnterSubmenu navigates into a submenu.
	ActionEnterSubmenu
	// ActionBackToMain returns from a submenu to the main menu.
	ActionBackToMain
	// ActionLaunchDoor starts a door by name.
	ActionLaunchDoor
	// ActionExecuteCommand runs a built-in command.
	ActionExecuteCommand
	// ActionShowHelp shows the help screen.
	ActionShowHelp
)

// Action is the resolved outcome of one keystroke.
type Action struct {
	Kind   ActionKind
	Target string
}

// Terminal reports whether the action hands control away from the menu,
// which stops type-ahead draining.
func (a Action) Terminal() bool {
	return a.Kind == ActionLaunchDoor || a.Kind == ActionExecuteCommand
}

// Navigator tracks a caller's position in the menu tree and resolves
// keystrokes against it. It is single-session state, not safe for
// concurrent use.
type Navigator struct {
	submenu   string
	typeahead *TypeAhead
	userLevel int
}

// NewNavigator creates a Navigator at the main menu.
func NewNavigator(userLevel, typeAheadCapacity int) *Navigator {
	return &Navigator{
		typeahead: NewTypeAhead(typeAheadCapacity),
		userLevel: userLevel,
	}
}

// AtMain reports whether the caller is at the main menu.
func (n *Navigator) AtMain() bool {
	return n.submenu == ""
}

// Submenu returns the current submenu key, or "" at the main menu.
func (n *Navigator) Submenu() string {
	return n.submenu
}

// UserLevel returns the access level used for item filtering.
func (n *Navigator) UserLevel() int {
	return n.userLevel
}

// ProcessKey resolves one keystroke. '?' always shows help and Enter always
// redraws; inside a submenu Q returns to the main menu before hotkeys are
// checked. Unmatched keys redraw.
func (n *Navigator) ProcessKey(key byte, cfg *Config) Action {
	if key == '?' {
		return Action{Kind: ActionShowHelp}
	}
	if key == '\r' || key == '\n' {
		return Action{Kind: ActionRedraw}
	}

	if n.submenu == "" {
		return n.resolve(key, cfg.MainItems(n.userLevel), true)
	}

	if lower(key) == 'q' {
		n.submenu = ""
		return Action{Kind: ActionBackToMain}
	}
	return n.resolve(key, cfg.SubmenuItems(n.submenu, n.userLevel), false)
}

func (n *Navigator) resolve(key byte, items []Item, allowSubmenu bool) Action {
	for _, item := range items {
		if !item.MatchesKey(key) {
			continue
		}
		switch item.Kind {
		case KindSubmenu:
			if !allowSubmenu {
				// nested submenus are not supported
				return Action{Kind: ActionRedraw}
			}
			n.submenu = item.Target
			return Action{Kind: ActionEnterSubmenu, Target: item.Target}
		case KindDoor:
			return Action{Kind: ActionLaunchDoor, Target: item.Target}
		case KindCommand:
			return Action{Kind: ActionExecuteCommand, Target: item.Target}
		}
	}
	return Action{Kind: ActionRedraw}
}

// BufferKey stores a keystroke for later draining.
func (n *Navigator) BufferKey(key byte) {
	n.typeahead.Push(key)
}

// DrainBuffer replays buffered keystrokes in order, stopping after the
// first terminal action so a chained "M R" does not leak keys into the
// launched door.
func (n *Navigator) DrainBuffer(cfg *Config) []Action {
	var actions []Action
	for {
		key, ok := n.typeahead.Pop()
		if !ok {
			return actions
		}
		action := n.ProcessKey(key, cfg)
		actions = append(actions, action)
		if action.Terminal() {
			return actions
		}
	}
}

// Buffered reports whether any keystrokes await draining.
func (n *Navigator) Buffered() bool {
	return !n.typeahead.Empty()
}

// ClearBuffer discards pending keystrokes.
func (n *Navigator) ClearBuffer() {
	n.typeahead.Clear()
}

// ResetToMain puts the caller back at the main menu.
func (n *Navigator) ResetToMain() {
	n.submenu = ""
}

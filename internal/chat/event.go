package chat

import "time"

// EventType discriminates the chat event variants.
type EventType string

const (
	// EventPublic is a normal message visible to the whole room.
	EventPublic EventType = "public"
	// EventAction is an emote, rendered as "* handle does something".
	EventAction EventType = "action"
	// EventSystem is board-generated text such as capacity notices.
	EventSystem EventType = "system"
	// EventDirect is a private message between two callers.
	EventDirect EventType = "direct"
	// EventJoin announces a caller entering the room.
	EventJoin EventType = "join"
	// EventLeave announces a caller leaving the room.
	EventLeave EventType = "leave"
	// EventPage is a one-line attention request sent to one caller.
	EventPage EventType = "page"
)

// Event is one item on the room's broadcast stream.
type Event struct {
	Type EventType
	From string
	To   string
	Body string
	At   time.Time
}

// NewPublic creates a public message event.
func NewPublic(from, body string) Event {
	return Event{Type: EventPublic, From: from, Body: body, At: time.Now()}
}

// NewAction creates an emote event.
func NewAction(from, body string) Event {
	return Event{Type: EventAction, From: from, Body: body, At: time.Now()}
}

// NewSystem creates a board notice event.
func NewSystem(body string) Event {
	return Event{Type: EventSystem, Body: body, At: time.Now()}
}

// NewDirect creates a private message event.
func NewDirect(from, to, body string) Event {
	return Event{Type: EventDirect, From: from, To: to, Body: body, At: time.Now()}
}

// NewPage creates a page event.
func NewPage(from, to string) Event {
	return Event{Type: EventPage, From: from, To: to, At: time.Now()}
}

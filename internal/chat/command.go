package chat

import "strings"

// CommandKind classifies parsed chat input.
type CommandKind int

const (
	// KindSay is plain text spoken to the room.
	KindSay CommandKind = iota
	// KindQuit leaves the chat room.
	KindQuit
	// KindHelp shows the command summary.
	KindHelp
	// KindWho lists the room roster.
	KindWho
	// KindAction is an emote (/me waves).
	KindAction
	// KindDirect is a private message (/msg handle text).
	KindDirect
	// KindReply replies to the last private message (/r text).
	KindReply
	// KindPage pings another caller (/page handle).
	KindPage
	// KindUnknown is an unrecognized slash command.
	KindUnknown
)

// Command is the parsed form of one line of chat input.
type Command struct {
	Kind   CommandKind
	Target string
	Body   string
	Name   string
}

// ParseCommand interprets a line of chat input. Anything not starting with a
// slash is spoken to the room; a lone slash command with missing arguments
// still parses so the caller can print usage.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return Command{Kind: KindSay, Body: input}
	}

	name, rest, _ := strings.Cut(input[1:], " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "quit", "q", "x":
		return Command{Kind: KindQuit}
	case "help", "?":
		return Command{Kind: KindHelp}
	case "who", "w":
		return Command{Kind: KindWho}
	case "me":
		return Command{Kind: KindAction, Body: rest}
	case "msg", "m":
		target, body, _ := strings.Cut(rest, " ")
		return Command{Kind: KindDirect, Target: target, Body: strings.TrimSpace(body)}
	case "r":
		return Command{Kind: KindReply, Body: rest}
	case "page", "p":
		target, _, _ := strings.Cut(rest, " ")
		return Command{Kind: KindPage, Target: target}
	default:
		return Command{Kind: KindUnknown, Name: name}
	}
}

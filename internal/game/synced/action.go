// Package synced provides the registry of synced game commands: administrative
// and cheat actions that every match participant executes identically, on the
// same frame, against the shared simulation state.
package synced

import "strings"

// Action is one issued synced command.
type Action struct {
	// Command is the command name as issued; lookup is case-insensitive.
	Command string
	// Args is the raw text after the command name, trimmed.
	Args string
	// PlayerID is the player number of the issuer. Connections that are not
	// players (autohosts, server consoles) carry ids outside the roster.
	PlayerID int
}

// ParseChat splits a chat line of the form "/<Command> <args>" into an Action.
//
// Precondition: none.
// Postcondition: ok is false if line does not start with '/' or names no command.
func ParseChat(line string, playerID int) (a Action, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return Action{}, false
	}
	line = line[1:]

	cmd, rest, _ := strings.Cut(line, " ")
	if cmd == "" {
		return Action{}, false
	}
	return Action{
		Command:  cmd,
		Args:     strings.TrimSpace(rest),
		PlayerID: playerID,
	}, true
}

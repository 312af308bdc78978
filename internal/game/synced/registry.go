package synced

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrDuplicateCommand is returned when a command name is registered twice.
var ErrDuplicateCommand = errors.New("duplicate synced command")

// Handler executes one action.
//
// Postcondition: Returns true if the action was accepted, false if rejected.
type Handler func(Action) bool

// Command is a registered synced command.
type Command struct {
	// Name is the canonical command name, case preserved for help listings.
	Name string
	// Description is the one-line help text.
	Description string
	// RequiresCheat marks commands that only work with cheating enabled. The
	// handler itself enforces the restriction; the registry does not.
	RequiresCheat bool
	// Handler executes the command.
	Handler Handler
}

// Registry maps command names to commands. Names are unique and
// case-insensitive; registration order is preserved for listings.
//
// A Registry is owned by the simulation goroutine and is not safe for
// concurrent use.
type Registry struct {
	commands map[string]*Command
	order    []*Command
	logger   *zap.Logger
}

// NewRegistry creates an empty Registry.
//
// Precondition: logger must be non-nil.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		commands: make(map[string]*Command),
		logger:   logger,
	}
}

// Register adds cmd under its name.
//
// Precondition: cmd.Name must be non-empty; cmd.Handler must be non-nil.
// Postcondition: Returns ErrDuplicateCommand and leaves the registry unchanged
// if the name is already taken.
func (r *Registry) Register(cmd Command) error {
	if cmd.Name == "" || cmd.Handler == nil {
		return fmt.Errorf("synced command %q: name and handler are required", cmd.Name)
	}
	key := strings.ToLower(cmd.Name)
	if _, exists := r.commands[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateCommand, cmd.Name)
	}
	c := cmd
	r.commands[key] = &c
	r.order = append(r.order, &c)
	return nil
}

// Lookup returns the command registered under name, ignoring case.
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// Commands returns every command in registration order.
func (r *Registry) Commands() []*Command {
	return append([]*Command(nil), r.order...)
}

// Dispatch executes a with the command it names.
//
// Postcondition: Returns the handler's result, or false after logging a
// warning if no command is registered under a.Command.
func (r *Registry) Dispatch(a Action) bool {
	cmd, ok := r.Lookup(a.Command)
	if !ok {
		r.logger.Warn("unknown synced command",
			zap.String("command", a.Command),
			zap.Int("player", a.PlayerID),
		)
		return false
	}
	r.logger.Debug("executing synced command",
		zap.String("command", cmd.Name),
		zap.String("args", a.Args),
		zap.Int("player", a.PlayerID),
	)
	return cmd.Handler(a)
}

// Help returns one line per command in registration order:
// "/<Name>: <Description>", with " (cheat)" appended for cheat commands.
func (r *Registry) Help() []string {
	lines := make([]string, 0, len(r.order))
	for _, cmd := range r.order {
		line := "/" + cmd.Name + ": " + cmd.Description
		if cmd.RequiresCheat {
			line += " (cheat)"
		}
		lines = append(lines, line)
	}
	return lines
}

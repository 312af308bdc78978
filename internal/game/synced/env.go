package synced

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/rts/internal/game/sim"
)

// LuaHost is the Lua subsystem lifecycle the Lua commands drive.
// *scripting.Manager satisfies it.
type LuaHost interface {
	IsLoaded(name string) bool
	Reload(name string) error
	Free(name string) bool
	ToggleCallins(name string, synced bool) (bool, error)
	GotChatMsg(name, msg string, playerID int) error
	DevMode() bool
	SetDevMode(on bool)
}

// Env is everything a synced command may read or mutate.
type Env struct {
	// World is the synced simulation state.
	World *sim.World
	// Lua hosts the LuaRules and LuaGaia subsystems.
	Lua LuaHost
	// Logger receives every command's console output.
	Logger *zap.Logger
	// LocalPlayer is the player number of this participant. It is the only
	// unsynced value a command may read, and only Desync reads it.
	LocalPlayer int

	// UpdateTeams refreshes the team view of the local UI scripts. Optional.
	UpdateTeams func()
	// CommandsChanged notifies the local UI that the available unit commands
	// may have changed. Optional.
	CommandsChanged func()
}

// Validate checks that the mandatory collaborators are set.
//
// Postcondition: Returns nil if World, Lua, and Logger are non-nil.
func (e Env) Validate() error {
	switch {
	case e.World == nil:
		return errMissing("World")
	case e.Lua == nil:
		return errMissing("Lua")
	case e.Logger == nil:
		return errMissing("Logger")
	}
	return nil
}

func (e Env) updateTeams() {
	if e.UpdateTeams != nil {
		e.UpdateTeams()
	}
}

func (e Env) commandsChanged() {
	if e.CommandsChanged != nil {
		e.CommandsChanged()
	}
}

// logSystemStatus reports the state of a toggled rule.
func (e Env) logSystemStatus(system string, enabled bool) {
	status := "disabled"
	if enabled {
		status = "enabled"
	}
	e.Logger.Info(system+" is "+status,
		zap.String("system", system),
		zap.Bool("enabled", enabled),
	)
}

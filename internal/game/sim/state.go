// Package sim holds the shared, synced simulation state that every match
// participant mutates identically: global rule flags, teams, units, players,
// visibility, and reloadable content. Nothing in this package reads wall-clock
// time or local-only state, and every iteration runs in ascending id order.
package sim

// GlobalState holds the synced global flags.
type GlobalState struct {
	// FrameNum is the current simulation frame; -1 before the first game frame.
	FrameNum int
	// CheatEnabled unlocks cheat-restricted commands.
	CheatEnabled bool
	// GodMode lets every player control every team.
	GodMode bool
	// NoHelperAIs disables widget (LuaUI) unit control.
	NoHelperAIs bool
	// EditDefsEnabled allows Lua to edit unit, feature, and weapon defs.
	EditDefsEnabled bool
	// UseLuaGaia enables the LuaGaia subsystem for this match.
	UseLuaGaia bool
}

// NewGlobalState returns the state of a match that has not simulated any frame yet.
func NewGlobalState(useLuaGaia bool) *GlobalState {
	return &GlobalState{FrameNum: -1, UseLuaGaia: useLuaGaia}
}

// PreSimFrame reports whether the first game frame has not run yet.
func (g *GlobalState) PreSimFrame() bool {
	return g.FrameNum < 0
}

// Vec3 is a position in world space.
type Vec3 struct {
	X, Y, Z float32
}

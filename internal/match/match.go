// Package match assembles the synced state of one match: the world, the Lua
// subsystems, and the synced command instance bound to both.
package match

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rts/internal/config"
	"github.com/cory-johannsen/rts/internal/game/sim"
	"github.com/cory-johannsen/rts/internal/game/synced"
	"github.com/cory-johannsen/rts/internal/scripting"
)

// Match owns the per-match collaborators. Close releases them.
type Match struct {
	World    *sim.World
	Lua      *scripting.Manager
	Commands *synced.Instance

	logger *zap.Logger
}

// Hooks are the unsynced UI notifications a match forwards from its commands.
type Hooks struct {
	UpdateTeams     func()
	CommandsChanged func()
}

// New builds the world from cfg and content, registers and loads the Lua
// subsystems, and creates the synced command instance.
//
// Precondition: cfg must have passed Validate; logger must be non-nil.
// Postcondition: Returns a ready Match or an error; on error nothing is left open.
func New(cfg config.Config, content sim.Content, hooks Hooks, logger *zap.Logger) (*Match, error) {
	if logger == nil {
		panic("match.New: logger must not be nil")
	}
	start := time.Now()

	world, err := sim.NewWorld(cfg.Simulation, content)
	if err != nil {
		return nil, fmt.Errorf("building world: %w", err)
	}
	logger.Info("world built",
		zap.Int("teams", world.Teams.ActiveTeams()),
		zap.Int("ally_teams", world.Teams.ActiveAllyTeams()),
		zap.Int("players", world.Players.ActivePlayers()),
		zap.Int("unit_defs", len(world.UnitDefs.All())),
	)

	luaMgr := scripting.NewManager(logger, cfg.Scripting.InstructionLimit)
	luaMgr.FrameNum = func() int { return world.Global.FrameNum }
	luaMgr.RandomSeed = cfg.Simulation.RandomSeed
	if dir := cfg.Scripting.LuaRulesDir; dir != "" {
		luaMgr.Register(scripting.LuaRules, dir)
		loadSubsystem(luaMgr, scripting.LuaRules, logger)
	}
	if dir := cfg.Scripting.LuaGaiaDir; dir != "" && cfg.Simulation.UseLuaGaia {
		luaMgr.Register(scripting.LuaGaia, dir)
		loadSubsystem(luaMgr, scripting.LuaGaia, logger)
	}

	inst := synced.NewInstance(logger)
	env := synced.Env{
		World:           world,
		Lua:             luaMgr,
		Logger:          logger,
		LocalPlayer:     cfg.Simulation.LocalPlayer,
		UpdateTeams:     hooks.UpdateTeams,
		CommandsChanged: hooks.CommandsChanged,
	}
	opts := synced.Options{AllowTake: cfg.Simulation.AllowTake, Debug: cfg.Simulation.Debug}
	if err := inst.Create(env, opts); err != nil {
		luaMgr.Close()
		return nil, fmt.Errorf("creating synced commands: %w", err)
	}

	logger.Info("match ready",
		zap.Int("commands", len(inst.Registry().Commands())),
		zap.Strings("lua", luaMgr.Loaded()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Match{World: world, Lua: luaMgr, Commands: inst, logger: logger}, nil
}

// A subsystem that fails to load at startup stays unloaded; /luarules reload
// can bring it back later.
func loadSubsystem(m *scripting.Manager, name string, logger *zap.Logger) {
	if err := m.Reload(name); err != nil {
		logger.Warn("lua subsystem failed to load",
			zap.String("subsystem", name),
			zap.Error(err),
		)
		return
	}
	logger.Info("lua subsystem loaded", zap.String("subsystem", name))
}

// Help returns the help lines of the registered commands, or nil once closed.
func (m *Match) Help() []string {
	reg := m.Commands.Registry()
	if reg == nil {
		return nil
	}
	return reg.Help()
}

// Close destroys the command instance and frees every Lua subsystem.
func (m *Match) Close() error {
	m.Commands.Destroy()
	m.Lua.Close()
	return nil
}


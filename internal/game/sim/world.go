package sim

import (
	"fmt"

	"github.com/cory-johannsen/rts/internal/config"
)

// World aggregates every synced collaborator of one match.
type World struct {
	Global   *GlobalState
	Teams    *TeamHandler
	Units    *UnitHandler
	UnitDefs *UnitDefHandler
	Players  *PlayerHandler
	LOS      *LosHandler
	MapDraw  *MapDrawer
	Game     *Game
	Scripts  *UnitScripts
	CEGs     *ExplosionGenerators
}

// Content is the loaded, read-only game data a World is built from.
type Content struct {
	UnitDefs []*UnitDef
	Scripts  *UnitScripts
	CEGs     *ExplosionGenerators
}

// LoadContent reads unit defs, unit scripts, and CEGs from the configured paths.
//
// Postcondition: Returns the loaded content or the first loader error.
func LoadContent(cfg config.ContentConfig) (Content, error) {
	defs, err := LoadUnitDefs(cfg.UnitDefsDir)
	if err != nil {
		return Content{}, fmt.Errorf("loading unit defs: %w", err)
	}
	cegs, err := LoadExplosionGenerators(cfg.CEGsFile)
	if err != nil {
		return Content{}, fmt.Errorf("loading CEGs: %w", err)
	}
	return Content{
		UnitDefs: defs,
		Scripts:  NewUnitScripts(cfg.UnitScriptsDir),
		CEGs:     cegs,
	}, nil
}

// NewWorld builds the initial match state from the simulation config.
//
// Precondition: cfg must have passed config validation.
// Postcondition: Returns a World at frame -1 with every configured team and player.
func NewWorld(cfg config.SimulationConfig, content Content) (*World, error) {
	defs, err := NewUnitDefHandler(content.UnitDefs)
	if err != nil {
		return nil, err
	}
	scripts := content.Scripts
	if scripts == nil {
		scripts = NewUnitScripts("")
	}
	cegs := content.CEGs
	if cegs == nil {
		cegs = &ExplosionGenerators{gens: make(map[string]*ExplosionGenerator)}
	}

	units := NewUnitHandler(cfg.MaxUnits)
	teams := make([]Team, 0, len(cfg.Teams))
	for _, t := range cfg.Teams {
		teams = append(teams, Team{AllyTeam: t.AllyTeam, Metal: t.Metal, Energy: t.Energy})
	}
	teamHandler := NewTeamHandler(teams, units)

	players := NewPlayerHandler(len(teams))
	for _, p := range cfg.Players {
		players.AddPlayer(p.Name, p.Team, p.Spectator)
	}

	return &World{
		Global:   NewGlobalState(cfg.UseLuaGaia),
		Teams:    teamHandler,
		Units:    units,
		UnitDefs: defs,
		Players:  players,
		LOS:      NewLosHandler(teamHandler.ActiveAllyTeams()),
		MapDraw:  NewMapDrawer(),
		Game:     NewGame(),
		Scripts:  scripts,
		CEGs:     cegs,
	}, nil
}

// SpawnUnit creates a unit of def for team at pos, binding the def's script.
//
// Postcondition: Returns the unit, or an error if the team is invalid, the
// unit cap is reached, or the def's script cannot be loaded.
func (w *World) SpawnUnit(def *UnitDef, team int, pos Vec3) (*Unit, error) {
	if !w.Teams.IsValidTeam(team) {
		return nil, fmt.Errorf("spawn %q: invalid team %d", def.Name, team)
	}
	var script *UnitScript
	if def.Script != "" {
		sc, err := w.Scripts.Load(def.Script)
		if err != nil {
			return nil, fmt.Errorf("spawn %q: %w", def.Name, err)
		}
		script = sc
	}
	return w.Units.Spawn(def, team, pos, script)
}

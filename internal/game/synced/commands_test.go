package synced

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rts/internal/config"
	"github.com/cory-johannsen/rts/internal/game/sim"
	"github.com/cory-johannsen/rts/internal/scripting"
)

const (
	alice   = 0 // team 0, ally 0
	bob     = 1 // team 1, ally 0
	watcher = 2 // spectator, team 2, ally 1
	carol   = 3 // team 2, ally 1
)

// fakeLua records calls and serves canned Lua subsystem state.
type fakeLua struct {
	loaded    map[string]bool
	reloadErr error
	reloads   []string
	frees     []string
	chats     []string
	callins   map[bool]bool
	dev       bool
}

func newFakeLua() *fakeLua {
	return &fakeLua{loaded: make(map[string]bool), callins: map[bool]bool{true: true, false: true}}
}

func (f *fakeLua) IsLoaded(name string) bool { return f.loaded[name] }

func (f *fakeLua) Reload(name string) error {
	f.reloads = append(f.reloads, name)
	if f.reloadErr != nil {
		delete(f.loaded, name)
		return f.reloadErr
	}
	f.loaded[name] = true
	return nil
}

func (f *fakeLua) Free(name string) bool {
	f.frees = append(f.frees, name)
	was := f.loaded[name]
	delete(f.loaded, name)
	return was
}

func (f *fakeLua) ToggleCallins(name string, synced bool) (bool, error) {
	if !f.loaded[name] {
		return false, scripting.ErrNotLoaded
	}
	f.callins[synced] = !f.callins[synced]
	return f.callins[synced], nil
}

func (f *fakeLua) GotChatMsg(name, msg string, playerID int) error {
	if !f.loaded[name] {
		return scripting.ErrNotLoaded
	}
	f.chats = append(f.chats, name+":"+msg)
	return nil
}

func (f *fakeLua) DevMode() bool      { return f.dev }
func (f *fakeLua) SetDevMode(on bool) { f.dev = on }

type fixture struct {
	env       Env
	world     *sim.World
	lua       *fakeLua
	logs      *observer.ObservedLogs
	reg       *Registry
	scriptDir string
	cegPath   string

	updateTeams     int
	commandsChanged int
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tank.cob"), []byte("v1"), 0644))
	cegPath := filepath.Join(dir, "cegs.yaml")
	require.NoError(t, os.WriteFile(cegPath, []byte("- tag: boom\n- tag: smoke\n"), 0644))
	cegs, err := sim.LoadExplosionGenerators(cegPath)
	require.NoError(t, err)

	cfg := config.SimulationConfig{
		MaxUnits:   50,
		UseLuaGaia: true,
		Teams: []config.TeamConfig{
			{AllyTeam: 0, Metal: 100, Energy: 100},
			{AllyTeam: 0, Metal: 10, Energy: 20},
			{AllyTeam: 1},
		},
		Players: []config.PlayerConfig{
			{Name: "alice", Team: 0},
			{Name: "bob", Team: 1},
			{Name: "watcher", Team: 2, Spectator: true},
			{Name: "carol", Team: 2},
		},
	}
	w, err := sim.NewWorld(cfg, sim.Content{
		UnitDefs: []*sim.UnitDef{
			{Name: "tank", MetalCost: 100, Script: "tank.cob"},
			{Name: "scout", MetalCost: 30},
		},
		Scripts: sim.NewUnitScripts(dir),
		CEGs:    cegs,
	})
	require.NoError(t, err)

	logger, logs := observedLogger()
	f := &fixture{world: w, lua: newFakeLua(), logs: logs, scriptDir: dir, cegPath: cegPath}
	f.env = Env{
		World:           w,
		Lua:             f.lua,
		Logger:          logger,
		LocalPlayer:     alice,
		UpdateTeams:     func() { f.updateTeams++ },
		CommandsChanged: func() { f.commandsChanged++ },
	}
	f.reg = NewRegistry(logger)
	require.NoError(t, AddDefaultCommands(f.reg, f.env, opts))
	return f
}

func (f *fixture) run(player int, line string) bool {
	a, ok := ParseChat(line, player)
	if !ok {
		panic("bad test chat line " + line)
	}
	return f.reg.Dispatch(a)
}

func (f *fixture) warnings(msg string) int {
	return f.logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage(msg).Len()
}

func (f *fixture) spawn(t *testing.T, def string, team int) *sim.Unit {
	t.Helper()
	u, err := f.world.SpawnUnit(f.world.UnitDefs.ByName(def), team, sim.Vec3{})
	require.NoError(t, err)
	return u
}

func names(cmds []*Command) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Name)
	}
	return out
}

func TestAddDefaultCommands_Order(t *testing.T) {
	base := []string{
		"Cheat", "NoHelp", "NoSpecDraw", "GodMode", "GlobalLOS", "NoCost", "Give",
		"Destroy", "NoSpectatorChat", "ReloadCOB", "ReloadCEGs", "DevLua",
		"EditDefs", "LuaRules", "LuaGaia",
	}

	f := newFixture(t, Options{})
	assert.Equal(t, append(append([]string{}, base...), "Atm", "Skip"), names(f.reg.Commands()))

	f = newFixture(t, Options{AllowTake: true, Debug: true})
	assert.Equal(t, append(append([]string{}, base...), "Desync", "Atm", "Take", "Skip"), names(f.reg.Commands()))
}

func TestAddDefaultCommands_CheatFlags(t *testing.T) {
	f := newFixture(t, Options{AllowTake: true, Debug: true})
	cheat := map[string]bool{
		"GodMode": true, "GlobalLOS": true, "NoCost": true, "Give": true,
		"Destroy": true, "ReloadCOB": true, "ReloadCEGs": true, "DevLua": true,
		"EditDefs": true, "Desync": true, "Atm": true,
	}
	for _, c := range f.reg.Commands() {
		assert.Equal(t, cheat[c.Name], c.RequiresCheat, c.Name)
		assert.NotEmpty(t, c.Description, c.Name)
	}
}

func TestUnknownCommandLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, Options{})
	before := *f.world.Global
	assert.False(t, f.run(alice, "/Nuke everything"))
	assert.Equal(t, before, *f.world.Global)
	assert.Equal(t, 1, f.warnings("unknown synced command"))
}

func TestCheat(t *testing.T) {
	f := newFixture(t, Options{})
	assert.True(t, f.run(alice, "/Cheat"))
	assert.True(t, f.world.Global.CheatEnabled)
	assert.Equal(t, 1, f.logs.FilterMessage("Cheating is enabled").Len())

	assert.True(t, f.run(alice, "/cheat off"))
	assert.False(t, f.world.Global.CheatEnabled)
	assert.Equal(t, 1, f.logs.FilterMessage("Cheating is disabled").Len())
}

func TestCheatCommandsRejectedWithoutCheat(t *testing.T) {
	f := newFixture(t, Options{Debug: true})
	u := f.spawn(t, "tank", 0)
	for _, line := range []string{
		"/GodMode", "/GlobalLOS", "/NoCost", "/Give tank", "/Destroy 0",
		"/ReloadCEGs", "/DevLua", "/EditDefs", "/Desync", "/Atm",
	} {
		assert.False(t, f.run(alice, line), line)
	}
	assert.False(t, f.world.Global.GodMode)
	assert.False(t, f.world.LOS.GlobalLOS(0))
	assert.False(t, f.world.UnitDefs.NoCost())
	assert.False(t, f.lua.dev)
	assert.False(t, f.world.Global.EditDefsEnabled)
	assert.NotNil(t, f.world.Units.Unit(u.ID))
	assert.Equal(t, 1, f.world.Units.Count())
	team, _ := f.world.Teams.Team(0)
	assert.Equal(t, 100.0, team.Metal)
}

func TestNoHelp(t *testing.T) {
	f := newFixture(t, Options{})
	assert.True(t, f.run(alice, "/NoHelp"))
	assert.True(t, f.world.Global.NoHelperAIs)
	assert.Equal(t, 1, f.commandsChanged)
	assert.True(t, f.run(alice, "/NoHelp 0"))
	assert.False(t, f.world.Global.NoHelperAIs)
}

func TestNoSpecDraw_InvertedArgument(t *testing.T) {
	f := newFixture(t, Options{})
	require.True(t, f.world.MapDraw.SpecMapDrawingAllowed())

	assert.True(t, f.run(alice, "/NoSpecDraw 1"))
	assert.False(t, f.world.MapDraw.SpecMapDrawingAllowed())
	assert.True(t, f.run(alice, "/NoSpecDraw no"))
	assert.True(t, f.world.MapDraw.SpecMapDrawingAllowed())
	assert.True(t, f.run(alice, "/NoSpecDraw"))
	assert.False(t, f.world.MapDraw.SpecMapDrawingAllowed())
}

func TestGodMode(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true

	assert.True(t, f.run(alice, "/GodMode"))
	assert.True(t, f.world.Global.GodMode)
	assert.Equal(t, 1, f.updateTeams)
	assert.True(t, f.world.Players.Player(watcher).CanControl(0), "spectators control every team in god mode")

	assert.True(t, f.run(alice, "/GodMode"))
	assert.False(t, f.world.Global.GodMode)
	assert.False(t, f.world.Players.Player(watcher).CanControl(0))
	assert.False(t, f.world.Players.Player(alice).CanControl(1))
}

func TestProperty_GodModeTwiceRestores(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true
	rapid.Check(t, func(rt *rapid.T) {
		before := f.world.Global.GodMode
		player := rapid.IntRange(0, 5).Draw(rt, "player")
		f.run(player, "/GodMode")
		f.run(player, "/GodMode")
		if f.world.Global.GodMode != before {
			rt.Fatalf("god mode %v after two toggles, want %v", f.world.Global.GodMode, before)
		}
	})
}

func TestGlobalLOS(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true

	assert.True(t, f.run(alice, "/GlobalLOS"))
	assert.True(t, f.world.LOS.GlobalLOS(0))
	assert.True(t, f.world.LOS.GlobalLOS(1))

	assert.True(t, f.run(alice, "/GlobalLOS 1"))
	assert.True(t, f.world.LOS.GlobalLOS(0))
	assert.False(t, f.world.LOS.GlobalLOS(1))
}

func TestGlobalLOS_OutOfRange(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true

	for _, arg := range []string{"2", "-1", "99"} {
		assert.False(t, f.run(alice, "/GlobalLOS "+arg), arg)
	}
	assert.False(t, f.world.LOS.GlobalLOS(0))
	assert.False(t, f.world.LOS.GlobalLOS(1))
	assert.Equal(t, 3, f.warnings("global LOS: bad allyteam"))
}

func TestNoCost(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true
	assert.True(t, f.run(alice, "/NoCost"))
	assert.True(t, f.world.UnitDefs.NoCost())
	metal, _ := f.world.UnitDefs.Cost(f.world.UnitDefs.ByName("tank"))
	assert.Zero(t, metal)
}

func TestGive(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true

	assert.True(t, f.run(bob, "/Give 4 tank"))
	units := f.world.Units.UnitsOfTeam(1)
	require.Len(t, units, 4)
	for _, u := range units {
		assert.Equal(t, "tank", u.Def.Name)
		require.NotNil(t, u.Script)
		assert.Equal(t, "tank.cob", u.Script.Name)
	}
}

func TestGive_TeamAndPosition(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true

	assert.True(t, f.run(alice, "/Give scout 2 @100,5,200"))
	units := f.world.Units.UnitsOfTeam(2)
	require.Len(t, units, 1)
	assert.Equal(t, sim.Vec3{X: 100, Y: 5, Z: 200}, units[0].Pos)
}

func TestGive_All(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true

	assert.True(t, f.run(alice, "/Give all"))
	units := f.world.Units.UnitsOfTeam(0)
	require.Len(t, units, 2)
	assert.Equal(t, "scout", units[0].Def.Name)
	assert.Equal(t, "tank", units[1].Def.Name)
}

func TestGive_NonPlayerRejected(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true

	assert.False(t, f.run(99, "/Give 5 tank"))
	assert.False(t, f.run(-1, "/Give tank 0"))
	assert.Zero(t, f.world.Units.Count())
}

func TestGive_BadArguments(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true

	for _, line := range []string{"/Give", "/Give 3", "/Give tank x", "/Give tank @1,2", "/Give 0 tank", "/Give tank 1 2"} {
		assert.True(t, f.run(alice, line), line)
	}
	assert.True(t, f.run(alice, "/Give hovercraft"))
	assert.True(t, f.run(alice, "/Give tank 7"))
	assert.Zero(t, f.world.Units.Count())
	assert.Equal(t, 6, f.warnings("give: bad arguments"))
	assert.Equal(t, 1, f.warnings("give: unknown unit name"))
	assert.Equal(t, 1, f.warnings("give: invalid team"))
}

func TestGive_StopsAtUnitLimit(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true

	assert.True(t, f.run(alice, "/Give 60 scout"))
	assert.Equal(t, f.world.Units.MaxUnits(), f.world.Units.Count())
	assert.Equal(t, 1, f.warnings("give: unit limit reached"))
	assert.Zero(t, f.warnings("give: unit could not be created"))

	assert.True(t, f.run(alice, "/Give all"))
	assert.Equal(t, f.world.Units.MaxUnits(), f.world.Units.Count())
	assert.Equal(t, 2, f.warnings("give: unit limit reached"))
}

func TestGive_HugeAmountClampedToFreeSlots(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true
	f.spawn(t, "tank", 1)

	assert.True(t, f.run(alice, "/Give 9000000000000000000 scout"))
	assert.Equal(t, f.world.Units.MaxUnits(), f.world.Units.Count())
	assert.Len(t, f.world.Units.UnitsOfTeam(0), f.world.Units.MaxUnits()-1)

	limit := f.logs.FilterMessage("give: unit limit reached").All()
	require.Len(t, limit, 1)
	assert.Equal(t, int64(f.world.Units.MaxUnits()-1), limit[0].ContextMap()["free"])
}

func TestDestroy_PartialBatch(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true
	for i := 0; i < 8; i++ {
		f.spawn(t, "scout", 0)
	}

	assert.True(t, f.run(alice, "/Destroy 5 9999 7"))
	assert.Nil(t, f.world.Units.Unit(5))
	assert.Nil(t, f.world.Units.Unit(7))
	assert.Equal(t, 6, f.world.Units.Count())
	assert.Equal(t, 1, f.warnings("wrong unit id"))
}

func TestDestroy_OutOfRangeIDIsUnknownNotMalformed(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true
	for i := 0; i < 8; i++ {
		f.spawn(t, "scout", 0)
	}

	assert.True(t, f.run(alice, "/Destroy 5 3000000000 7"))
	assert.Nil(t, f.world.Units.Unit(5))
	assert.Nil(t, f.world.Units.Unit(7))
	assert.Equal(t, 1, f.warnings("wrong unit id"))
	assert.Zero(t, f.warnings("destroy: stopped at malformed unit id"))
}

func TestDestroy_StopsAtMalformedToken(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true
	for i := 0; i < 3; i++ {
		f.spawn(t, "scout", 0)
	}

	assert.True(t, f.run(alice, "/Destroy 0 x 1"))
	assert.Nil(t, f.world.Units.Unit(0))
	assert.NotNil(t, f.world.Units.Unit(1))
	assert.Equal(t, 1, f.warnings("destroy: stopped at malformed unit id"))

	assert.True(t, f.run(alice, "/Destroy -2"))
	assert.Equal(t, 2, f.world.Units.Count())
}

func TestNoSpectatorChat(t *testing.T) {
	f := newFixture(t, Options{})
	assert.True(t, f.run(alice, "/NoSpectatorChat"))
	assert.True(t, f.world.Game.NoSpectatorChat())
	assert.Equal(t, 1, f.logs.FilterMessage("Spectators chat is disabled").Len())
	assert.True(t, f.run(alice, "/NoSpectatorChat false"))
	assert.False(t, f.world.Game.NoSpectatorChat())
}

func TestReloadCOB(t *testing.T) {
	f := newFixture(t, Options{})
	tank1 := f.spawn(t, "tank", 0)
	tank2 := f.spawn(t, "tank", 1)
	scout := f.spawn(t, "scout", 0)
	old := tank1.Script
	require.NoError(t, os.WriteFile(filepath.Join(f.scriptDir, "tank.cob"), []byte("v2"), 0644))

	assert.True(t, f.run(alice, "/ReloadCOB tank"))
	assert.Same(t, old, tank1.Script, "requires cheating")
	assert.Equal(t, 1, f.warnings("reloadcob can only be used if cheating is enabled"))

	f.world.Global.CheatEnabled = true
	assert.True(t, f.run(alice, "/ReloadCOB tank"))
	assert.NotSame(t, old, tank1.Script)
	assert.Same(t, tank1.Script, tank2.Script)
	assert.Equal(t, 2, tank1.Script.Revision)
	assert.Equal(t, []byte("v2"), tank1.Script.Source)
	assert.Nil(t, scout.Script)

	entries := f.logs.FilterMessage("reloaded unit script").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 2, entries[0].ContextMap()["units"])
}

func TestReloadCOB_Failures(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true

	assert.True(t, f.run(alice, "/ReloadCOB"))
	assert.Equal(t, 1, f.warnings("reloadcob: missing unit name"))
	assert.True(t, f.run(alice, "/ReloadCOB hovercraft"))
	assert.Equal(t, 1, f.warnings("reloadcob: unknown unit name"))
	assert.True(t, f.run(alice, "/ReloadCOB scout"))
	assert.True(t, f.run(alice, "/ReloadCOB tank"), "script never loaded")
	assert.Equal(t, 2, f.warnings("reloadcob: unknown script for unit"))
}

func TestReloadCEGs(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true

	assert.True(t, f.run(alice, "/ReloadCEGs"))
	assert.Equal(t, 2, f.world.CEGs.Generator("boom").Revision)
	assert.True(t, f.run(alice, "/ReloadCEGs smoke"))
	assert.Equal(t, 3, f.world.CEGs.Generator("smoke").Revision)
	assert.Equal(t, 2, f.world.CEGs.Generator("boom").Revision)

	assert.True(t, f.run(alice, "/ReloadCEGs missing"))
	assert.Equal(t, 1, f.warnings("reloadcegs failed"))
}

func TestDevLuaAndEditDefs(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true

	assert.True(t, f.run(alice, "/DevLua"))
	assert.True(t, f.lua.dev)
	assert.True(t, f.run(alice, "/DevLua off"))
	assert.False(t, f.lua.dev)

	assert.True(t, f.run(alice, "/EditDefs yes"))
	assert.True(t, f.world.Global.EditDefsEnabled)
}

func TestLuaRules_RequiresCheatAndGameFrame(t *testing.T) {
	f := newFixture(t, Options{})

	assert.True(t, f.run(alice, "/LuaRules reload"))
	assert.Equal(t, 1, f.warnings("synced LuaRules scripts require cheating to reload"))

	f.world.Global.CheatEnabled = true
	assert.True(t, f.run(alice, "/LuaRules disable"))
	assert.Equal(t, 1, f.warnings("cannot execute /LuaRules disable before first gameframe"))
	assert.Empty(t, f.lua.reloads)
	assert.Empty(t, f.lua.frees)
}

func TestLuaRules_Lifecycle(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true
	f.world.Global.FrameNum = 10

	assert.True(t, f.run(alice, "/LuaRules enable"))
	assert.True(t, f.lua.loaded[scripting.LuaRules])
	assert.Equal(t, 1, f.logs.FilterMessage("LuaRules loaded").Len())

	assert.True(t, f.run(alice, "/LuaRules enable"))
	assert.Equal(t, 1, f.warnings("LuaRules is already loaded"))
	assert.Len(t, f.lua.reloads, 1)

	assert.True(t, f.run(alice, "/LuaRules reload"))
	assert.Len(t, f.lua.reloads, 2)

	assert.True(t, f.run(bob, "/LuaRules scallins"))
	assert.False(t, f.lua.callins[true])
	assert.Equal(t, 1, f.logs.FilterMessage("LuaRules synced callins disabled").Len())
	assert.True(t, f.run(bob, "/LuaRules ucallins"))
	assert.Equal(t, 1, f.logs.FilterMessage("LuaRules unsynced callins disabled").Len())

	assert.True(t, f.run(bob, "/LuaRules hello rules"))
	assert.Equal(t, []string{"LuaRules:hello rules"}, f.lua.chats)

	assert.True(t, f.run(alice, "/LuaRules disable"))
	assert.False(t, f.lua.loaded[scripting.LuaRules])
	assert.True(t, f.run(alice, "/LuaRules hello"))
	assert.Equal(t, 1, f.logs.FilterMessage("LuaRules is not loaded").Len())
}

func TestLuaRules_ReloadFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true
	f.world.Global.FrameNum = 0
	f.lua.reloadErr = errors.New("syntax error")

	assert.True(t, f.run(alice, "/LuaRules reload"))
	assert.Equal(t, 1, f.logs.FilterLevelExact(zapcore.ErrorLevel).FilterMessage("LuaRules loading failed").Len())
}

func TestLuaGaia(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true
	f.world.Global.FrameNum = 1

	assert.True(t, f.run(alice, "/LuaGaia reload"))
	assert.True(t, f.lua.loaded[scripting.LuaGaia])

	f.world.Global.UseLuaGaia = false
	assert.False(t, f.run(alice, "/LuaGaia disable"))
	assert.True(t, f.lua.loaded[scripting.LuaGaia])
}

func TestDesync(t *testing.T) {
	f := newFixture(t, Options{Debug: true})
	f.world.Global.CheatEnabled = true
	first := f.spawn(t, "scout", 0)
	last := f.spawn(t, "scout", 1)

	assert.True(t, f.run(bob, "/Desync"))
	assert.Equal(t, float32(0), last.MidPos.X, "remote issuer is a no-op here")

	assert.True(t, f.run(alice, "/Desync"))
	assert.Equal(t, float32(2), last.MidPos.X)
	assert.Equal(t, float32(0), first.MidPos.X)
	assert.Equal(t, 2, f.logs.FilterLevelExact(zapcore.ErrorLevel).FilterMessage("Desyncing in frame").Len())
}

func TestAtm(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.CheatEnabled = true

	assert.True(t, f.run(bob, "/Atm"))
	team, _ := f.world.Teams.Team(1)
	assert.Equal(t, 1010.0, team.Metal)
	assert.Equal(t, 1020.0, team.Energy)

	assert.True(t, f.run(bob, "/Atm 5"))
	assert.True(t, f.run(bob, "/Atm -500"))
	team, _ = f.world.Teams.Team(1)
	assert.Equal(t, 1015.0, team.Metal)

	assert.False(t, f.run(42, "/Atm"))
}

func TestTake(t *testing.T) {
	f := newFixture(t, Options{AllowTake: true})
	f.world.Game.SetPlaying(true)
	f.spawn(t, "tank", 1)
	f.spawn(t, "tank", 1)
	f.world.Players.SetActive(bob, false)

	assert.True(t, f.run(alice, "/Take"))
	assert.Len(t, f.world.Units.UnitsOfTeam(0), 2)
	assert.Empty(t, f.world.Units.UnitsOfTeam(1))
	team0, _ := f.world.Teams.Team(0)
	team1, _ := f.world.Teams.Team(1)
	assert.Equal(t, 110.0, team0.Metal)
	assert.Zero(t, team1.Metal)
}

func TestTake_TeamWithActivePlayerKept(t *testing.T) {
	f := newFixture(t, Options{AllowTake: true})
	f.world.Game.SetPlaying(true)
	extra := f.world.Players.AddPlayer("dave", 1, false)
	f.world.Players.SetActive(extra.ID, false)
	f.spawn(t, "tank", 1)

	assert.True(t, f.run(alice, "/Take"))
	assert.Len(t, f.world.Units.UnitsOfTeam(1), 1, "bob is still active on team 1")
}

func TestTake_SpectatorAndNotPlaying(t *testing.T) {
	f := newFixture(t, Options{AllowTake: true})
	f.spawn(t, "tank", 1)
	f.world.Players.SetActive(bob, false)

	assert.True(t, f.run(alice, "/Take"), "not playing yet")
	assert.Len(t, f.world.Units.UnitsOfTeam(1), 1)

	f.world.Game.SetPlaying(true)
	assert.False(t, f.run(watcher, "/Take"))
	assert.Len(t, f.world.Units.UnitsOfTeam(1), 1)

	assert.False(t, f.run(77, "/Take"))
}

func TestTake_SpectatorWithCheat(t *testing.T) {
	f := newFixture(t, Options{AllowTake: true})
	f.world.Game.SetPlaying(true)
	f.world.Global.CheatEnabled = true
	f.world.Players.SetActive(carol, false)
	f.spawn(t, "tank", 1)

	assert.True(t, f.run(watcher, "/Take"))
	assert.Len(t, f.world.Units.UnitsOfTeam(1), 1, "team 1 is not allied with the watcher's team")
}

func TestSkip(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.FrameNum = 100

	assert.True(t, f.run(alice, "/Skip start 500"))
	start, target, active := f.world.Game.Skip()
	assert.True(t, active)
	assert.Equal(t, 100, start)
	assert.Equal(t, 500, target)

	assert.True(t, f.run(alice, "/Skip end"))
	_, _, active = f.world.Game.Skip()
	assert.False(t, active)
	assert.Equal(t, 1, f.logs.FilterMessage("skip finished").Len())
}

func TestSkip_BadInput(t *testing.T) {
	f := newFixture(t, Options{})
	f.world.Global.FrameNum = 100

	assert.True(t, f.run(alice, "/Skip start 50"))
	assert.Equal(t, 1, f.warnings("cannot skip"))
	for _, line := range []string{"/Skip", "/Skip forward", "/Skip start soon"} {
		assert.True(t, f.run(alice, line), line)
	}
	assert.Equal(t, 3, f.warnings("/Skip: wrong syntax"))
	_, _, active := f.world.Game.Skip()
	assert.False(t, active)
}

package synced

import (
	"math"
	"strings"

	"go.uber.org/zap"
)

func cheatCommand(env Env) Command {
	return Command{
		Name:        "Cheat",
		Description: "Enables/Disables cheating, which is required for a lot of other commands to be usable",
		Handler: func(a Action) bool {
			g := env.World.Global
			InverseOrSetBool(&g.CheatEnabled, a.Args, false)
			env.logSystemStatus("Cheating", g.CheatEnabled)
			return true
		},
	}
}

func noHelpCommand(env Env) Command {
	return Command{
		Name:        "NoHelp",
		Description: "Enables/Disables widgets (LuaUI control)",
		Handler: func(a Action) bool {
			g := env.World.Global
			InverseOrSetBool(&g.NoHelperAIs, a.Args, false)
			env.commandsChanged()
			env.logSystemStatus("LuaUI control", g.NoHelperAIs)
			return true
		},
	}
}

func noSpecDrawCommand(env Env) Command {
	return Command{
		Name:        "NoSpecDraw",
		Description: "Allows/Disallows spectators to draw on the map",
		Handler: func(a Action) bool {
			allowed := env.World.MapDraw.SpecMapDrawingAllowed()
			InverseOrSetBool(&allowed, a.Args, true)
			env.World.MapDraw.SetSpecMapDrawingAllowed(allowed)
			return true
		},
	}
}

func godModeCommand(env Env) Command {
	const name = "GodMode"
	return Command{
		Name: name,
		Description: "Enables/Disables god-mode, which allows all players (even spectators) " +
			"to control all units (even during replays, which will DESYNC them)",
		RequiresCheat: true,
		Handler: func(a Action) bool {
			if !env.requireCheat(name) {
				return false
			}
			g := env.World.Global
			InverseOrSetBool(&g.GodMode, a.Args, false)
			env.updateTeams()
			env.logSystemStatus("God-Mode", g.GodMode)
			env.World.Players.UpdateControlledTeams(g.GodMode)
			return true
		},
	}
}

func globalLOSCommand(env Env) Command {
	const name = "GlobalLOS"
	return Command{
		Name: name,
		Description: "Enables/Disables global line-of-sight, which makes the whole map " +
			"permanently visible to everyone or to a specific allyteam",
		RequiresCheat: true,
		Handler: func(a Action) bool {
			if !env.requireCheat(name) {
				return false
			}
			maxAllyTeam := env.World.Teams.ActiveAllyTeams()
			if a.Args == "" {
				for n := 0; n < maxAllyTeam; n++ {
					env.World.LOS.ToggleGlobalLOS(n)
				}
				env.Logger.Info("global LOS toggled for all allyteams")
				return true
			}

			allyTeam := atoi(a.Args)
			if allyTeam < 0 || allyTeam >= maxAllyTeam {
				env.Logger.Warn("global LOS: bad allyteam", zap.Int("ally_team", allyTeam))
				return false
			}
			env.World.LOS.ToggleGlobalLOS(allyTeam)
			env.Logger.Info("global LOS toggled", zap.Int("ally_team", allyTeam))
			return true
		},
	}
}

func noCostCommand(env Env) Command {
	const name = "NoCost"
	return Command{
		Name:          name,
		Description:   "Enables/Disables everything-for-free, which allows everyone to build everything for zero resource costs",
		RequiresCheat: true,
		Handler: func(a Action) bool {
			if !env.requireCheat(name) {
				return false
			}
			free := env.World.UnitDefs.NoCost()
			InverseOrSetBool(&free, a.Args, false)
			env.World.UnitDefs.SetNoCost(free)
			env.logSystemStatus("Everything-for-free (no resource costs for building)", free)
			return true
		},
	}
}

func noSpectatorChatCommand(env Env) Command {
	return Command{
		Name:        "NoSpectatorChat",
		Description: "Enables/Disables spectators to use the chat",
		Handler: func(a Action) bool {
			muted := env.World.Game.NoSpectatorChat()
			InverseOrSetBool(&muted, a.Args, false)
			env.World.Game.SetNoSpectatorChat(muted)
			env.logSystemStatus("Spectators chat", !muted)
			return true
		},
	}
}

func devLuaCommand(env Env) Command {
	const name = "DevLua"
	return Command{
		Name:          name,
		Description:   "Enables/Disables Lua dev-mode (can cause desyncs if enabled)",
		RequiresCheat: true,
		Handler: func(a Action) bool {
			if !env.requireCheat(name) {
				return false
			}
			dev := env.Lua.DevMode()
			InverseOrSetBool(&dev, a.Args, false)
			env.Lua.SetDevMode(dev)
			env.logSystemStatus("Lua dev-mode (can cause desyncs if enabled)", dev)
			return true
		},
	}
}

func editDefsCommand(env Env) Command {
	const name = "EditDefs"
	return Command{
		Name:          name,
		Description:   "Allows/Disallows editing of unit-, feature- and weapon-defs through Lua",
		RequiresCheat: true,
		Handler: func(a Action) bool {
			if !env.requireCheat(name) {
				return false
			}
			g := env.World.Global
			InverseOrSetBool(&g.EditDefsEnabled, a.Args, false)
			env.logSystemStatus("Unit-, Feature- & Weapon-Def editing", g.EditDefsEnabled)
			return true
		},
	}
}

// atoi parses a leading, optionally signed decimal integer. Leading space is
// skipped, parsing stops at the first non-digit, and text without digits
// yields 0. The magnitude saturates at math.MaxInt32.
func atoi(s string) int {
	s = strings.TrimLeft(s, " \t")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
		if n >= math.MaxInt32 {
			n = math.MaxInt32
			break
		}
	}
	if neg {
		return -n
	}
	return n
}

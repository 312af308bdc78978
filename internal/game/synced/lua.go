package synced

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/rts/internal/scripting"
)

func luaRulesCommand(env Env) Command {
	return Command{
		Name:        "LuaRules",
		Description: "Allows reloading or disabling LuaRules, and to send a chat message to LuaRules scripts",
		Handler: func(a Action) bool {
			// any player may issue these; they are not meant for multiplayer
			executeLuaAction(env, a, scripting.LuaRules)
			return true
		},
	}
}

func luaGaiaCommand(env Env) Command {
	return Command{
		Name:        "LuaGaia",
		Description: "Allows reloading or disabling LuaGaia, and to send a chat message to LuaGaia scripts",
		Handler: func(a Action) bool {
			if !env.World.Global.UseLuaGaia {
				return false
			}
			executeLuaAction(env, a, scripting.LuaGaia)
			return true
		},
	}
}

// luaActionAllowed reports whether a subsystem-changing Lua action may run,
// warning with the reason otherwise.
func luaActionAllowed(env Env, a Action) bool {
	g := env.World.Global
	switch {
	case !g.CheatEnabled:
		env.Logger.Warn("synced "+a.Command+" scripts require cheating to "+a.Args,
			zap.String("command", a.Command),
			zap.String("action", a.Args),
		)
		return false
	case g.PreSimFrame():
		env.Logger.Warn("cannot execute /"+a.Command+" "+a.Args+" before first gameframe",
			zap.String("command", a.Command),
			zap.String("action", a.Args),
		)
		return false
	}
	return true
}

func executeLuaAction(env Env, a Action, subsystem string) {
	log := env.Logger.With(zap.String("subsystem", subsystem))

	switch a.Args {
	case "reload", "enable":
		if !luaActionAllowed(env, a) {
			return
		}
		if a.Args == "enable" && env.Lua.IsLoaded(subsystem) {
			log.Warn(subsystem + " is already loaded")
			return
		}
		if err := env.Lua.Reload(subsystem); err != nil {
			log.Error(subsystem+" loading failed", zap.Error(err))
			return
		}
		log.Info(subsystem + " loaded")

	case "disable":
		if !luaActionAllowed(env, a) {
			return
		}
		env.Lua.Free(subsystem)
		log.Info(subsystem + " disabled")

	case "scallins", "ucallins":
		if !luaActionAllowed(env, a) {
			return
		}
		synced := a.Args == "scallins"
		enabled, err := env.Lua.ToggleCallins(subsystem, synced)
		if err != nil {
			log.Info(subsystem + " is not loaded")
			return
		}
		half, mode := "unsynced", "disabled"
		if synced {
			half = "synced"
		}
		if enabled {
			mode = "enabled"
		}
		log.Info(subsystem+" "+half+" callins "+mode,
			zap.Bool("synced", synced),
			zap.Bool("enabled", enabled),
		)

	default:
		// not a special argument; forward as chat
		if err := env.Lua.GotChatMsg(subsystem, a.Args, a.PlayerID); err != nil {
			log.Info(subsystem + " is not loaded")
		}
	}
}

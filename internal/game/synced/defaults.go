package synced

import "go.uber.org/zap"

// Options selects the optional commands of a match.
type Options struct {
	// AllowTake registers /Take; set from the game's allow-take rule.
	AllowTake bool
	// Debug registers /Desync.
	Debug bool
}

// AddDefaultCommands registers the built-in synced commands in their
// canonical order.
//
// Precondition: env must pass Validate.
// Postcondition: Returns the first registration error.
func AddDefaultCommands(r *Registry, env Env, opts Options) error {
	cmds := []Command{
		cheatCommand(env),
		noHelpCommand(env),
		noSpecDrawCommand(env),
		godModeCommand(env),
		globalLOSCommand(env),
		noCostCommand(env),
		giveCommand(env),
		destroyCommand(env),
		noSpectatorChatCommand(env),
		reloadCOBCommand(env),
		reloadCEGsCommand(env),
		devLuaCommand(env),
		editDefsCommand(env),
		luaRulesCommand(env),
		luaGaiaCommand(env),
	}
	if opts.Debug {
		cmds = append(cmds, desyncCommand(env))
	}
	cmds = append(cmds, atmCommand(env))
	if opts.AllowTake {
		cmds = append(cmds, takeCommand(env))
	}
	cmds = append(cmds, skipCommand(env))

	for _, c := range cmds {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// requireCheat reports whether cheating is enabled, warning otherwise.
func (e Env) requireCheat(cmd string) bool {
	if e.World.Global.CheatEnabled {
		return true
	}
	e.Logger.Warn("synced command cannot be executed (cheats required)",
		zap.String("command", cmd),
	)
	return false
}

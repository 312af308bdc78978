package synced

import "go.uber.org/zap"

func reloadCOBCommand(env Env) Command {
	return Command{
		Name:          "ReloadCOB",
		Description:   "Reloads COB scripts",
		RequiresCheat: true,
		Handler: func(a Action) bool {
			reloadUnitScript(env, a.Args)
			return true
		},
	}
}

// reloadUnitScript re-reads the script of unitName's def and rebinds every
// unit that ran the previous revision.
func reloadUnitScript(env Env, unitName string) {
	w := env.World
	if !w.Global.CheatEnabled {
		env.Logger.Warn("reloadcob can only be used if cheating is enabled")
		return
	}
	if unitName == "" {
		env.Logger.Warn("reloadcob: missing unit name")
		return
	}
	def := w.UnitDefs.ByName(unitName)
	if def == nil {
		env.Logger.Warn("reloadcob: unknown unit name", zap.String("unit", unitName))
		return
	}
	old := w.Scripts.Script(def.Script)
	if def.Script == "" || old == nil {
		env.Logger.Warn("reloadcob: unknown script for unit",
			zap.String("unit", unitName),
			zap.String("script", def.Script),
		)
		return
	}
	fresh, err := w.Scripts.Reload(def.Script)
	if err != nil {
		env.Logger.Warn("reloadcob: could not load script for unit",
			zap.String("unit", unitName),
			zap.String("script", def.Script),
			zap.Error(err),
		)
		return
	}

	count := 0
	for _, u := range w.Units.Units() {
		if u.Script == old {
			u.Script = fresh
			count++
		}
	}
	env.Logger.Info("reloaded unit script",
		zap.String("script", def.Script),
		zap.Int("units", count),
	)
}

func reloadCEGsCommand(env Env) Command {
	const name = "ReloadCEGs"
	return Command{
		Name:          name,
		Description:   "Reloads CEG scripts",
		RequiresCheat: true,
		Handler: func(a Action) bool {
			if !env.requireCheat(name) {
				return false
			}
			n, err := env.World.CEGs.Reload(a.Args)
			if err != nil {
				env.Logger.Warn("reloadcegs failed", zap.String("tag", a.Args), zap.Error(err))
				return true
			}
			env.Logger.Info("reloaded explosion generators",
				zap.String("tag", a.Args),
				zap.Int("count", n),
			)
			return true
		},
	}
}

package synced

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

func skipCommand(env Env) Command {
	const name = "Skip"
	return Command{
		Name:        name,
		Description: "Fast-forwards to a given frame, or stops fast-forwarding",
		Handler: func(a Action) bool {
			game := env.World.Game
			switch {
			case strings.HasPrefix(a.Args, "start"):
				target, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(a.Args, "start")))
				if err != nil {
					env.Logger.Warn("/"+name+": wrong syntax", zap.String("args", a.Args))
					return true
				}
				if err := game.StartSkip(env.World.Global.FrameNum, target); err != nil {
					env.Logger.Warn("cannot skip", zap.Int("frame", target), zap.Error(err))
					return true
				}
				env.Logger.Info("skipping to frame", zap.Int("frame", target))
			case a.Args == "end":
				game.EndSkip()
				env.Logger.Info("skip finished")
			default:
				env.Logger.Warn("/"+name+": wrong syntax", zap.String("args", a.Args))
			}
			return true
		},
	}
}

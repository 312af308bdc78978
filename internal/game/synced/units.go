package synced

import (
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rts/internal/game/sim"
)

// giveSpacing is the distance between units placed by one /Give.
const giveSpacing = 32

// defaultAtmAmount is what /Atm adds when no amount is given.
const defaultAtmAmount = 1000

func giveCommand(env Env) Command {
	const name = "Give"
	return Command{
		Name:          name,
		Description:   "Places one or multiple units of a single or multiple types on the map, instantly; by default to your own team",
		RequiresCheat: true,
		Handler: func(a Action) bool {
			if !env.requireCheat(name) {
				return false
			}
			// not for autohosts
			issuer := env.World.Players.Player(a.PlayerID)
			if issuer == nil {
				return false
			}
			req, err := parseGive(a.Args, issuer.Team)
			if err != nil {
				env.Logger.Warn("give: bad arguments", zap.String("args", a.Args), zap.Error(err))
				return true
			}
			executeGive(env, req)
			return true
		},
	}
}

// giveRequest is a parsed "[amount] <name|all> [team] [@x,y,z]".
type giveRequest struct {
	amount int
	name   string
	team   int
	pos    sim.Vec3
}

func parseGive(args string, defaultTeam int) (giveRequest, error) {
	req := giveRequest{amount: 1, team: defaultTeam}
	tokens := strings.Fields(args)

	if n := len(tokens); n > 0 && strings.HasPrefix(tokens[n-1], "@") {
		pos, err := parsePos(tokens[n-1][1:])
		if err != nil {
			return req, err
		}
		req.pos = pos
		tokens = tokens[:n-1]
	}
	if len(tokens) > 0 {
		if n, err := strconv.Atoi(tokens[0]); err == nil {
			req.amount = n
			tokens = tokens[1:]
		}
	}
	if len(tokens) == 0 {
		return req, errors.New("missing unit name")
	}
	req.name = tokens[0]
	tokens = tokens[1:]

	if len(tokens) > 0 {
		team, err := strconv.Atoi(tokens[0])
		if err != nil {
			return req, errors.New("team must be a number")
		}
		req.team = team
		tokens = tokens[1:]
	}
	if len(tokens) > 0 {
		return req, errors.New("unexpected trailing arguments")
	}
	if req.amount < 1 {
		return req, errors.New("amount must be positive")
	}
	return req, nil
}

func parsePos(s string) (sim.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return sim.Vec3{}, errors.New("position must be @x,y,z")
	}
	var xyz [3]float32
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return sim.Vec3{}, errors.New("position must be @x,y,z")
		}
		xyz[i] = float32(f)
	}
	return sim.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func executeGive(env Env, req giveRequest) {
	w := env.World
	if !w.Teams.IsValidTeam(req.team) {
		env.Logger.Warn("give: invalid team", zap.Int("team", req.team))
		return
	}

	var defs []*sim.UnitDef
	all := strings.EqualFold(req.name, "all")
	if all {
		defs = w.UnitDefs.All()
	} else {
		def := w.UnitDefs.ByName(req.name)
		if def == nil {
			env.Logger.Warn("give: unknown unit name", zap.String("unit", req.name))
			return
		}
		defs = []*sim.UnitDef{def}
	}

	// The amount is untrusted; never allocate past the free unit slots.
	want := req.amount
	if all {
		want = len(defs)
	}
	free := max(0, w.Units.MaxUnits()-w.Units.Count())
	if want > free {
		env.Logger.Warn("give: unit limit reached",
			zap.Int("requested", want),
			zap.Int("free", free),
		)
		want = free
	}
	if all {
		defs = defs[:want]
	} else {
		defs = slices.Repeat(defs, want)
	}
	if len(defs) == 0 {
		return
	}

	side := int(math.Ceil(math.Sqrt(float64(len(defs)))))
	origin := float32(side-1) * giveSpacing / 2
	given := 0
	for i, def := range defs {
		pos := req.pos
		pos.X += float32(i%side)*giveSpacing - origin
		pos.Z += float32(i/side)*giveSpacing - origin
		if _, err := w.SpawnUnit(def, req.team, pos); err != nil {
			env.Logger.Warn("give: unit could not be created",
				zap.String("unit", def.Name),
				zap.Error(err),
			)
			break
		}
		given++
	}
	env.Logger.Info("gave units",
		zap.String("unit", req.name),
		zap.Int("count", given),
		zap.Int("team", req.team),
	)
}

func destroyCommand(env Env) Command {
	const name = "Destroy"
	return Command{
		Name:          name,
		Description:   "Destroys one or multiple units by unit-ID, instantly",
		RequiresCheat: true,
		Handler: func(a Action) bool {
			if !env.requireCheat(name) {
				return false
			}
			env.Logger.Info("killing units", zap.String("ids", a.Args))
			for _, tok := range strings.Fields(a.Args) {
				id, err := strconv.ParseUint(tok, 10, 32)
				if err != nil {
					env.Logger.Warn("destroy: stopped at malformed unit id", zap.String("token", tok))
					break
				}
				if !env.World.Units.KillUnit(int(id)) {
					env.Logger.Warn("wrong unit id", zap.Uint64("unit", id))
				}
			}
			return true
		},
	}
}

func atmCommand(env Env) Command {
	const name = "Atm"
	return Command{
		Name:          name,
		Description:   "Gives 1000 metal and 1000 energy to the issuing players team",
		RequiresCheat: true,
		Handler: func(a Action) bool {
			if !env.requireCheat(name) {
				return false
			}
			issuer := env.World.Players.Player(a.PlayerID)
			if issuer == nil {
				return false
			}
			amount := defaultAtmAmount
			if a.Args != "" {
				amount = atoi(a.Args)
			}
			amount = max(0, amount)
			env.World.Teams.AddMetal(issuer.Team, float64(amount))
			env.World.Teams.AddEnergy(issuer.Team, float64(amount))
			return true
		},
	}
}

func takeCommand(env Env) Command {
	return Command{
		Name:        "Take",
		Description: "Transfers all units of allied teams without any active players to the team of the issuing player",
		Handler: func(a Action) bool {
			w := env.World
			issuer := w.Players.Player(a.PlayerID)
			if issuer == nil {
				return false
			}
			if issuer.Spectator && !w.Global.CheatEnabled {
				return false
			}
			if !w.Game.Playing() {
				return true
			}

			for t := 0; t < w.Teams.ActiveTeams(); t++ {
				if t == issuer.Team || !w.Teams.AlliedTeams(t, issuer.Team) {
					continue
				}
				if teamHasActivePlayer(w.Players, t) {
					continue
				}
				if err := w.Teams.GiveEverythingTo(t, issuer.Team); err != nil {
					env.Logger.Warn("take: transfer failed", zap.Int("team", t), zap.Error(err))
					continue
				}
				env.Logger.Info("took team", zap.Int("team", t), zap.Int("to", issuer.Team))
			}
			return true
		},
	}
}

func teamHasActivePlayer(players *sim.PlayerHandler, team int) bool {
	for id := 0; id < players.ActivePlayers(); id++ {
		p := players.Player(id)
		if p == nil || !p.Active || p.Spectator || p.Team != team {
			continue
		}
		return true
	}
	return false
}

func desyncCommand(env Env) Command {
	const name = "Desync"
	return Command{
		Name:          name,
		Description:   "Allows one to create an artificial desync of the local client with the rest of the participating hosts",
		RequiresCheat: true,
		Handler: func(a Action) bool {
			if !env.requireCheat(name) {
				return false
			}
			units := env.World.Units.Units()
			if n := len(units); n > 0 {
				u := units[n-1]
				if a.PlayerID == env.LocalPlayer {
					u.MidPos.X++
					u.MidPos.X++
				} else {
					// same flops on every other participant, net zero
					u.MidPos.X++
					u.MidPos.X--
				}
			}
			env.Logger.Error("Desyncing in frame", zap.Int("frame", env.World.Global.FrameNum))
			return true
		},
	}
}

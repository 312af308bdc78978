package sim

import "sync"

// Player is a match participant.
type Player struct {
	// ID is the player number, equal to the player's index in the roster.
	ID int
	// Name is the display name.
	Name string
	// Team is the team the player belongs to (spectators keep their last team).
	Team int
	// Spectator players observe but do not command units.
	Spectator bool
	// Active is false once the player has left or dropped.
	Active bool

	controlled map[int]bool
}

// CanControl reports whether the player may command units of team.
func (p *Player) CanControl(team int) bool {
	return p.controlled[team]
}

// PlayerHandler tracks all participants of the match.
// All methods are safe for concurrent use.
type PlayerHandler struct {
	mu       sync.RWMutex
	players  []*Player
	numTeams int
}

// NewPlayerHandler creates an empty roster for a match with numTeams teams.
func NewPlayerHandler(numTeams int) *PlayerHandler {
	return &PlayerHandler{numTeams: numTeams}
}

// AddPlayer appends an active player to the roster.
//
// Postcondition: Returns the created Player with the next player number.
func (h *PlayerHandler) AddPlayer(name string, team int, spectator bool) *Player {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := &Player{
		ID:         len(h.players),
		Name:       name,
		Team:       team,
		Spectator:  spectator,
		Active:     true,
		controlled: make(map[int]bool),
	}
	if !spectator {
		p.controlled[team] = true
	}
	h.players = append(h.players, p)
	return p
}

// IsValidPlayer reports whether id names a roster entry. Connections that are
// not players (autohosts, server consoles) carry ids outside the roster.
func (h *PlayerHandler) IsValidPlayer(id int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return id >= 0 && id < len(h.players)
}

// Player returns the player with id, or nil.
func (h *PlayerHandler) Player(id int) *Player {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if id < 0 || id >= len(h.players) {
		return nil
	}
	return h.players[id]
}

// ActivePlayers returns the number of roster entries, active or not.
func (h *PlayerHandler) ActivePlayers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.players)
}

// SetActive marks a player as connected or gone.
func (h *PlayerHandler) SetActive(id int, active bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id >= 0 && id < len(h.players) {
		h.players[id].Active = active
	}
}

// UpdateControlledTeams recomputes which teams every player may command.
// In god mode every active player, spectators included, controls all teams.
func (h *PlayerHandler) UpdateControlledTeams(godMode bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range h.players {
		p.controlled = make(map[int]bool)
		if godMode && p.Active {
			for t := 0; t < h.numTeams; t++ {
				p.controlled[t] = true
			}
			continue
		}
		if !p.Spectator {
			p.controlled[p.Team] = true
		}
	}
}

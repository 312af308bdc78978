package sim

import (
	"fmt"
	"sync"
)

// Team is a resource-owning side in the match.
type Team struct {
	ID       int
	AllyTeam int
	Metal    float64
	Energy   float64
}

// TeamHandler owns the team roster and resource ledger.
// All methods are safe for concurrent use.
type TeamHandler struct {
	mu    sync.RWMutex
	teams []*Team
	units *UnitHandler
}

// NewTeamHandler creates a TeamHandler over teams; team IDs are their indexes.
//
// Precondition: units must be non-nil; every AllyTeam must be >= 0.
func NewTeamHandler(teams []Team, units *UnitHandler) *TeamHandler {
	h := &TeamHandler{units: units}
	for i, t := range teams {
		t.ID = i
		h.teams = append(h.teams, &t)
	}
	return h
}

// ActiveTeams returns the number of teams.
func (h *TeamHandler) ActiveTeams() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.teams)
}

// ActiveAllyTeams returns the number of ally teams (highest ally index + 1).
func (h *TeamHandler) ActiveAllyTeams() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, t := range h.teams {
		if t.AllyTeam+1 > n {
			n = t.AllyTeam + 1
		}
	}
	return n
}

// IsValidTeam reports whether id names a team.
func (h *TeamHandler) IsValidTeam(id int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return id >= 0 && id < len(h.teams)
}

// Team returns a copy of the team with id.
//
// Postcondition: ok is false if id is invalid.
func (h *TeamHandler) Team(id int) (Team, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if id < 0 || id >= len(h.teams) {
		return Team{}, false
	}
	return *h.teams[id], true
}

// AllyTeam returns the ally team of team id, or -1.
func (h *TeamHandler) AllyTeam(id int) int {
	t, ok := h.Team(id)
	if !ok {
		return -1
	}
	return t.AllyTeam
}

// AlliedTeams reports whether teams a and b share an ally team.
func (h *TeamHandler) AlliedTeams(a, b int) bool {
	ta, okA := h.Team(a)
	tb, okB := h.Team(b)
	return okA && okB && ta.AllyTeam == tb.AllyTeam
}

// AddMetal adds amount metal to team id.
func (h *TeamHandler) AddMetal(id int, amount float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id >= 0 && id < len(h.teams) {
		h.teams[id].Metal += amount
	}
}

// AddEnergy adds amount energy to team id.
func (h *TeamHandler) AddEnergy(id int, amount float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id >= 0 && id < len(h.teams) {
		h.teams[id].Energy += amount
	}
}

// GiveEverythingTo transfers every unit and all resources of team from to team to.
//
// Postcondition: from owns no units and no resources; returns an error if
// either team is invalid or they are the same team.
func (h *TeamHandler) GiveEverythingTo(from, to int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if from < 0 || from >= len(h.teams) || to < 0 || to >= len(h.teams) {
		return fmt.Errorf("give everything: invalid teams %d -> %d", from, to)
	}
	if from == to {
		return fmt.Errorf("give everything: team %d cannot give to itself", from)
	}
	src, dst := h.teams[from], h.teams[to]
	dst.Metal += src.Metal
	dst.Energy += src.Energy
	src.Metal, src.Energy = 0, 0
	h.units.TransferTeam(from, to)
	return nil
}

package sim

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnitLimit is returned when spawning would exceed the unit cap.
var ErrUnitLimit = errors.New("unit limit reached")

// Unit is a live unit instance.
type Unit struct {
	ID     int
	Def    *UnitDef
	Team   int
	Pos    Vec3
	MidPos Vec3
	// Script is the unit script instance bound at spawn or by a reload.
	Script *UnitScript
}

// UnitHandler tracks all live units by ID.
// All methods are safe for concurrent use.
type UnitHandler struct {
	mu       sync.RWMutex
	units    map[int]*Unit
	nextID   int
	maxUnits int
}

// NewUnitHandler creates an empty UnitHandler.
//
// Precondition: maxUnits must be >= 1.
func NewUnitHandler(maxUnits int) *UnitHandler {
	return &UnitHandler{
		units:    make(map[int]*Unit),
		maxUnits: maxUnits,
	}
}

// MaxUnits returns the unit cap.
func (h *UnitHandler) MaxUnits() int {
	return h.maxUnits
}

// Spawn creates a unit of def for team at pos. IDs are assigned sequentially
// and never reused, so every participant allocates the same IDs.
//
// Precondition: def must be non-nil.
// Postcondition: Returns the new unit, or ErrUnitLimit when the cap is reached.
func (h *UnitHandler) Spawn(def *UnitDef, team int, pos Vec3, script *UnitScript) (*Unit, error) {
	if def == nil {
		return nil, fmt.Errorf("sim.UnitHandler.Spawn: def must not be nil")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.units) >= h.maxUnits {
		return nil, ErrUnitLimit
	}
	u := &Unit{
		ID:     h.nextID,
		Def:    def,
		Team:   team,
		Pos:    pos,
		MidPos: pos,
		Script: script,
	}
	h.nextID++
	h.units[u.ID] = u
	return u, nil
}

// Unit returns the live unit with id, or nil.
func (h *UnitHandler) Unit(id int) *Unit {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.units[id]
}

// KillUnit removes the unit with id.
//
// Postcondition: Returns false if no such unit was alive.
func (h *UnitHandler) KillUnit(id int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.units[id]; !ok {
		return false
	}
	delete(h.units, id)
	return true
}

// Units returns all live units in ascending ID order.
func (h *UnitHandler) Units() []*Unit {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sortedLocked(func(*Unit) bool { return true })
}

// UnitsOfTeam returns the live units owned by team in ascending ID order.
func (h *UnitHandler) UnitsOfTeam(team int) []*Unit {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sortedLocked(func(u *Unit) bool { return u.Team == team })
}

// Count returns the number of live units.
func (h *UnitHandler) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.units)
}

// TransferTeam moves every unit owned by from to team to.
//
// Postcondition: Returns the number of units transferred.
func (h *UnitHandler) TransferTeam(from, to int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, u := range h.units {
		if u.Team == from {
			u.Team = to
			n++
		}
	}
	return n
}

func (h *UnitHandler) sortedLocked(keep func(*Unit) bool) []*Unit {
	out := make([]*Unit, 0, len(h.units))
	for _, u := range h.units {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

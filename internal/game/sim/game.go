package sim

import (
	"errors"
	"sync"
)

// ErrSkipPassed is returned when a skip targets a frame that already ran.
var ErrSkipPassed = errors.New("skip target frame already passed")

// Game holds match-level rules that live outside GlobalState.
// All methods are safe for concurrent use.
type Game struct {
	mu              sync.RWMutex
	playing         bool
	noSpectatorChat bool
	skipping        bool
	skipStart       int
	skipTarget      int
}

// NewGame creates a Game that has not started playing.
func NewGame() *Game {
	return &Game{}
}

// Playing reports whether the match has started.
func (g *Game) Playing() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.playing
}

// SetPlaying marks the match as started or stopped.
func (g *Game) SetPlaying(playing bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.playing = playing
}

// NoSpectatorChat reports whether spectators are muted.
func (g *Game) NoSpectatorChat() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.noSpectatorChat
}

// SetNoSpectatorChat mutes or unmutes spectators.
func (g *Game) SetNoSpectatorChat(muted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.noSpectatorChat = muted
}

// StartSkip begins fast-forwarding from frame current to frame target.
//
// Postcondition: Returns ErrSkipPassed and leaves the skip state unchanged if
// target <= current.
func (g *Game) StartSkip(current, target int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if target <= current {
		return ErrSkipPassed
	}
	g.skipping = true
	g.skipStart = current
	g.skipTarget = target
	return nil
}

// EndSkip stops fast-forwarding.
func (g *Game) EndSkip() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.skipping = false
	g.skipStart = 0
	g.skipTarget = 0
}

// Skip returns the active skip range.
//
// Postcondition: active is false when no skip is in progress.
func (g *Game) Skip() (start, target int, active bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.skipStart, g.skipTarget, g.skipping
}

// MapDrawer owns map drawing permissions.
type MapDrawer struct {
	mu              sync.RWMutex
	specDrawAllowed bool
}

// NewMapDrawer creates a MapDrawer; spectators may draw by default.
func NewMapDrawer() *MapDrawer {
	return &MapDrawer{specDrawAllowed: true}
}

// SpecMapDrawingAllowed reports whether spectators may draw on the map.
func (m *MapDrawer) SpecMapDrawingAllowed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.specDrawAllowed
}

// SetSpecMapDrawingAllowed allows or disallows spectator map drawing.
func (m *MapDrawer) SetSpecMapDrawingAllowed(allowed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.specDrawAllowed = allowed
}

// LosHandler owns per-ally-team global line-of-sight flags.
type LosHandler struct {
	mu        sync.RWMutex
	globalLOS []bool
}

// NewLosHandler creates flags for numAllyTeams ally teams, all disabled.
func NewLosHandler(numAllyTeams int) *LosHandler {
	return &LosHandler{globalLOS: make([]bool, numAllyTeams)}
}

// GlobalLOS reports whether allyTeam currently sees the whole map.
func (l *LosHandler) GlobalLOS(allyTeam int) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if allyTeam < 0 || allyTeam >= len(l.globalLOS) {
		return false
	}
	return l.globalLOS[allyTeam]
}

// ToggleGlobalLOS flips the flag of allyTeam.
//
// Postcondition: Returns false and changes nothing if allyTeam is out of range.
func (l *LosHandler) ToggleGlobalLOS(allyTeam int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if allyTeam < 0 || allyTeam >= len(l.globalLOS) {
		return false
	}
	l.globalLOS[allyTeam] = !l.globalLOS[allyTeam]
	return true
}

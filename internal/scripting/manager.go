package scripting

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Subsystem names.
const (
	LuaRules = "LuaRules"
	LuaGaia  = "LuaGaia"
)

// ErrNotLoaded is returned when an operation targets a subsystem without a live handle.
var ErrNotLoaded = errors.New("lua subsystem not loaded")

// ErrUnknownSubsystem is returned for a subsystem that was never registered.
var ErrUnknownSubsystem = errors.New("unknown lua subsystem")

// Manager owns the split handles of every Lua subsystem and the event handler
// that routes engine callins to them.
//
// The simulation goroutine drives all reloads and callins; the mutex only
// protects the handle table against concurrent readers.
type Manager struct {
	mu      sync.RWMutex
	dirs    map[string]string
	handles map[string]*SplitHandle
	events  *EventHandler
	limit   int
	devMode bool
	logger  *zap.Logger

	// Injected after construction. nil = engine.frame() returns -1.
	FrameNum func() int
	// RandomSeed seeds math.random of synced states loaded after it is set.
	// Every participant of a match must use the same value.
	RandomSeed uint64
}

// NewManager creates a Manager with no registered subsystems.
//
// Precondition: logger must be non-nil; instLimit >= 0.
// Postcondition: Returns a non-nil Manager.
func NewManager(logger *zap.Logger, instLimit int) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		dirs:    make(map[string]string),
		handles: make(map[string]*SplitHandle),
		events:  NewEventHandler(),
		limit:   instLimit,
		logger:  logger,
	}
}

// Register declares subsystem name with script root dir. Scripts live in
// dir/synced and dir/unsynced.
//
// Precondition: name and dir must be non-empty.
func (m *Manager) Register(name, dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[name] = dir
}

// Events returns the callin event handler.
func (m *Manager) Events() *EventHandler {
	return m.events
}

// Handle returns the live split handle of name, or nil.
func (m *Manager) Handle(name string) *SplitHandle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handles[name]
}

// IsLoaded reports whether name has a live split handle.
func (m *Manager) IsLoaded(name string) bool {
	return m.Handle(name) != nil
}

// Reload frees any existing handle of name and loads a fresh one. Both halves
// are registered with the event handler.
//
// Postcondition: On error the subsystem is left unloaded.
func (m *Manager) Reload(name string) error {
	m.Free(name)

	m.mu.RLock()
	dir, ok := m.dirs[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSubsystem, name)
	}

	split := &SplitHandle{
		Name:     name,
		Synced:   m.newHandle(name, true),
		Unsynced: m.newHandle(name, false),
	}
	if err := split.Synced.loadDir(filepath.Join(dir, "synced")); err != nil {
		split.close()
		return err
	}
	if err := split.Unsynced.loadDir(filepath.Join(dir, "unsynced")); err != nil {
		split.close()
		return err
	}

	m.mu.Lock()
	m.handles[name] = split
	m.mu.Unlock()

	m.events.AddClient(split.Synced)
	m.events.AddClient(split.Unsynced)
	m.logger.Debug("lua subsystem loaded", zap.String("subsystem", name))
	return nil
}

// Free closes and unregisters the handle of name.
//
// Postcondition: Returns false if name was not loaded.
func (m *Manager) Free(name string) bool {
	m.mu.Lock()
	split, ok := m.handles[name]
	delete(m.handles, name)
	m.mu.Unlock()
	if !ok {
		return false
	}
	m.events.RemoveClient(split.Synced)
	m.events.RemoveClient(split.Unsynced)
	split.close()
	return true
}

// ToggleCallins adds the synced or unsynced half of name to the event handler
// if absent, removes it otherwise.
//
// Postcondition: Returns whether the half receives callins afterwards, or
// ErrNotLoaded.
func (m *Manager) ToggleCallins(name string, synced bool) (bool, error) {
	split := m.Handle(name)
	if split == nil {
		return false, fmt.Errorf("%w: %s", ErrNotLoaded, name)
	}
	h := split.Unsynced
	if synced {
		h = split.Synced
	}
	if m.events.HasClient(h) {
		m.events.RemoveClient(h)
	} else {
		m.events.AddClient(h)
	}
	return m.events.HasClient(h), nil
}

// GotChatMsg forwards a chat message to both halves of name via their
// GotChatMsg(msg, playerID) functions. Lua runtime errors are logged at Warn
// level and never propagated.
//
// Postcondition: Returns ErrNotLoaded if name has no live handle.
func (m *Manager) GotChatMsg(name, msg string, playerID int) error {
	split := m.Handle(name)
	if split == nil {
		return fmt.Errorf("%w: %s", ErrNotLoaded, name)
	}
	for _, h := range []*Handle{split.Synced, split.Unsynced} {
		if _, _, err := h.Call("GotChatMsg", lua.LString(msg), lua.LNumber(playerID)); err != nil {
			m.logger.Warn("scripting: Lua runtime error",
				zap.String("handle", h.String()),
				zap.String("callin", "GotChatMsg"),
				zap.Error(err),
			)
		}
	}
	return nil
}

// GameFrame delivers the GameFrame(frame) callin to every registered client.
func (m *Manager) GameFrame(frame int) {
	for _, h := range m.events.Clients() {
		if _, _, err := h.Call("GameFrame", lua.LNumber(frame)); err != nil {
			m.logger.Warn("scripting: Lua runtime error",
				zap.String("handle", h.String()),
				zap.String("callin", "GameFrame"),
				zap.Error(err),
			)
		}
	}
}

// DevMode reports whether Lua dev-mode is on.
func (m *Manager) DevMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.devMode
}

// SetDevMode turns Lua dev-mode on or off.
func (m *Manager) SetDevMode(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devMode = on
}

// Loaded returns the names of all loaded subsystems in sorted order.
func (m *Manager) Loaded() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.handles))
	for n := range m.handles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Close frees every loaded subsystem.
func (m *Manager) Close() {
	for _, name := range m.Loaded() {
		m.Free(name)
	}
}

func (m *Manager) newHandle(name string, synced bool) *Handle {
	h := &Handle{name: name, synced: synced, limit: m.limit}
	h.L = NewSandboxedState(m.limit)
	if synced {
		InstallSyncedRandom(h.L, m.RandomSeed)
	}
	m.RegisterModules(h)
	return h
}

package scripting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Handle is one sandboxed Lua state of a subsystem.
//
// A Handle is single-threaded; the mutex serializes callers.
type Handle struct {
	mu     sync.Mutex
	name   string
	synced bool
	limit  int
	L      *lua.LState
	cancel context.CancelFunc
}

// Name returns the owning subsystem name.
func (h *Handle) Name() string { return h.name }

// Synced reports whether this is the synced half of its subsystem.
func (h *Handle) Synced() bool { return h.synced }

// String returns "<name> (synced)" or "<name> (unsynced)".
func (h *Handle) String() string {
	if h.synced {
		return h.name + " (synced)"
	}
	return h.name + " (unsynced)"
}

// Call invokes the Lua global function fn with a fresh instruction budget.
//
// Postcondition: defined is false and ret is LNil when fn is not a function.
// Lua runtime errors are returned, never raised.
func (h *Handle) Call(fn string, args ...lua.LValue) (ret lua.LValue, defined bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.L == nil {
		return lua.LNil, false, nil
	}

	f, ok := h.L.GetGlobal(fn).(*lua.LFunction)
	if !ok {
		return lua.LNil, false, nil
	}

	h.resetBudgetLocked()
	if err := h.L.CallByParam(lua.P{
		Fn:      f,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		return lua.LNil, true, fmt.Errorf("%s: calling %s: %w", h, fn, err)
	}
	ret = h.L.Get(-1)
	h.L.Pop(1)
	return ret, true, nil
}

func (h *Handle) resetBudgetLocked() {
	if h.cancel != nil {
		h.cancel()
	}
	h.cancel = ResetInstructionBudget(h.L, h.limit)
}

func (h *Handle) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	if h.L != nil {
		h.L.Close()
		h.L = nil
	}
}

// loadDir executes every *.lua file in dir in lexicographic order. A missing
// dir leaves the state empty.
func (h *Handle) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %s: %w", dir, h, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, path := range luaFiles {
		h.resetBudgetLocked()
		if err := h.L.DoFile(path); err != nil {
			return fmt.Errorf("scripting: loading %q for %s: %w", path, h, err)
		}
	}
	return nil
}

// SplitHandle pairs the synced and unsynced states of one subsystem.
type SplitHandle struct {
	Name     string
	Synced   *Handle
	Unsynced *Handle
}

func (s *SplitHandle) close() {
	s.Synced.close()
	s.Unsynced.close()
}

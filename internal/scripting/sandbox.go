// Package scripting hosts the sandboxed GopherLua sub-interpreters (LuaRules,
// LuaGaia) that game rules are scripted in. Each subsystem is split into a
// synced and an unsynced state; only the synced state may influence the
// simulation. The package has no dependency on simulation packages; engine
// interactions are injected via Manager callback fields.
package scripting

import (
	"context"
	"math/rand/v2"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes allowed per
// call into a state when no override is configured.
const DefaultInstructionLimit = 100_000

// countingContext is a context.Context that cancels itself after Done() has
// been called limit times. GopherLua's mainLoopWithContext calls Done() once
// per opcode, making this an exact instruction-count limit.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

// Done decrements the remaining budget and fires cancel when it reaches zero.
func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// newCountingContext returns a context that cancels after limit calls to Done().
// Precondition: limit > 0.
func newCountingContext(limit int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{
		Context:   base,
		cancel:    cancel,
		remaining: rem,
	}, cancel
}

// ResetInstructionBudget gives L a fresh budget of limit opcodes.
//
// Precondition: limit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: the returned cancel releases the budget's context.
func ResetInstructionBudget(L *lua.LState, limit int) context.CancelFunc {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	ctx, cancel := newCountingContext(limit)
	L.SetContext(ctx)
	return cancel
}

// NewSandboxedState creates a GopherLua LState with:
//   - Only safe stdlib loaded: base, table, string, math
//   - Dangerous globals removed: dofile, loadfile, load, loadstring, collectgarbage, require
//   - An initial budget of instLimit opcodes
//
// Synced states must stay deterministic, so os and io are never opened.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: The caller owns the LState and must call L.Close() when done.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	ResetInstructionBudget(L, instLimit) //nolint:govet // cancel fires automatically when the budget is spent
	return L
}

// InstallSyncedRandom replaces math.random and math.randomseed in L with a
// generator seeded from seed, so every participant's synced state draws the
// same sequence. The stock functions use the Go runtime's global source.
//
// Precondition: the math library must already be open in L.
func InstallSyncedRandom(L *lua.LState, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	mathTbl, ok := L.GetGlobal("math").(*lua.LTable)
	if !ok {
		return
	}
	L.SetField(mathTbl, "random", L.NewFunction(func(L *lua.LState) int {
		switch L.GetTop() {
		case 0:
			L.Push(lua.LNumber(rng.Float64()))
		case 1:
			hi := L.CheckInt(1)
			if hi < 1 {
				L.ArgError(1, "interval is empty")
			}
			L.Push(lua.LNumber(1 + rng.IntN(hi)))
		default:
			lo, hi := L.CheckInt(1), L.CheckInt(2)
			if lo > hi {
				L.ArgError(2, "interval is empty")
			}
			L.Push(lua.LNumber(lo + rng.IntN(hi-lo+1)))
		}
		return 1
	}))
	L.SetField(mathTbl, "randomseed", L.NewFunction(func(L *lua.LState) int {
		s := uint64(L.CheckInt64(1))
		rng = rand.New(rand.NewPCG(s, s))
		return 0
	}))
}

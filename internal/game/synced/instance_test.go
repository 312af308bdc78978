package synced

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/rts/internal/scripting"
)

func TestInstance_CreateTwiceFails(t *testing.T) {
	f := newFixture(t, Options{})
	inst := NewInstance(f.env.Logger)

	require.NoError(t, inst.Create(f.env, Options{}))
	reg := inst.Registry()
	require.NotNil(t, reg)

	err := inst.Create(f.env, Options{AllowTake: true})
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.Same(t, reg, inst.Registry())
}

func TestInstance_DestroyTwiceWarns(t *testing.T) {
	f := newFixture(t, Options{})
	inst := NewInstance(f.env.Logger)
	require.NoError(t, inst.Create(f.env, Options{}))

	inst.Destroy()
	assert.Nil(t, inst.Registry())
	assert.NotPanics(t, inst.Destroy)
	assert.Equal(t, 1, f.logs.FilterLevelExact(zapcore.WarnLevel).
		FilterMessage("synced commands instance was not initialized or is already destroyed").Len())

	require.NoError(t, inst.Create(f.env, Options{}), "create after destroy")
}

func TestInstance_CreateRejectsIncompleteEnv(t *testing.T) {
	f := newFixture(t, Options{})
	inst := NewInstance(f.env.Logger)

	env := f.env
	env.Lua = nil
	assert.Error(t, inst.Create(env, Options{}))
	assert.Nil(t, inst.Registry())
}

func TestInstance_Dispatch(t *testing.T) {
	f := newFixture(t, Options{})
	inst := NewInstance(f.env.Logger)

	assert.False(t, inst.Dispatch(Action{Command: "Cheat"}))
	assert.False(t, f.world.Global.CheatEnabled)

	require.NoError(t, inst.Create(f.env, Options{}))
	assert.True(t, inst.Dispatch(Action{Command: "Cheat"}))
	assert.True(t, f.world.Global.CheatEnabled)
}

func TestNewInstance_PanicsOnNilLogger(t *testing.T) {
	assert.Panics(t, func() { NewInstance(nil) })
}

func TestLuaRules_RealManager(t *testing.T) {
	f := newFixture(t, Options{})
	root := t.TempDir()
	synced := filepath.Join(root, "synced")
	require.NoError(t, os.MkdirAll(synced, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(synced, "main.lua"), []byte(`
		last = ""
		function GotChatMsg(msg, player) last = msg end
		function last_msg() return last end
	`), 0644))

	mgr := scripting.NewManager(f.env.Logger, 0)
	t.Cleanup(mgr.Close)
	mgr.Register(scripting.LuaRules, root)
	f.env.Lua = mgr
	f.reg = NewRegistry(f.env.Logger)
	require.NoError(t, AddDefaultCommands(f.reg, f.env, Options{}))

	f.world.Global.CheatEnabled = true
	f.world.Global.FrameNum = 3
	assert.True(t, f.run(alice, "/LuaRules reload"))
	require.True(t, mgr.IsLoaded(scripting.LuaRules))

	assert.True(t, f.run(alice, "/LuaRules ping"))
	ret, _, err := mgr.Handle(scripting.LuaRules).Synced.Call("last_msg")
	require.NoError(t, err)
	assert.Equal(t, lua.LString("ping"), ret)

	assert.True(t, f.run(alice, "/LuaRules disable"))
	assert.False(t, mgr.IsLoaded(scripting.LuaRules))
}

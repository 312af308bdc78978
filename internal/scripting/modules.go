package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RegisterModules registers the engine table into h's state:
//
//	engine.log.{debug,info,warn,error}(msg)
//	engine.frame()       current simulation frame, -1 if unknown
//	engine.is_synced()   whether the calling state is the synced half
//	engine.dev_mode()    whether Lua dev-mode is on
//
// Precondition: h.L must be from NewSandboxedState.
func (m *Manager) RegisterModules(h *Handle) {
	L := h.L
	engine := L.NewTable()

	logTbl := L.NewTable()
	for name, level := range map[string]zapcore.Level{
		"debug": zap.DebugLevel,
		"info":  zap.InfoLevel,
		"warn":  zap.WarnLevel,
		"error": zap.ErrorLevel,
	} {
		L.SetField(logTbl, name, L.NewFunction(func(L *lua.LState) int {
			if ce := m.logger.Check(level, "lua"); ce != nil {
				ce.Write(
					zap.String("handle", h.String()),
					zap.String("msg", L.CheckString(1)),
				)
			}
			return 0
		}))
	}
	L.SetField(engine, "log", logTbl)

	L.SetField(engine, "frame", L.NewFunction(func(L *lua.LState) int {
		frame := -1
		if m.FrameNum != nil {
			frame = m.FrameNum()
		}
		L.Push(lua.LNumber(frame))
		return 1
	}))
	L.SetField(engine, "is_synced", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(h.synced))
		return 1
	}))
	L.SetField(engine, "dev_mode", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(m.DevMode()))
		return 1
	}))

	L.SetGlobal("engine", engine)
}

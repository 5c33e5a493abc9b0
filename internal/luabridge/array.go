package luabridge

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/rtcore/internal/storage"
)

// Default builder sites for script-driven builds.
const (
	BuildSite  = "lua:build"
	ConcatSite = "lua:concat"
)

type arrayModule struct {
	bridge *Bridge
}

func registerArrayModule(L *lua.LState, b *Bridge) {
	m := &arrayModule{bridge: b}

	mt := L.NewTypeMetatable(arrayTypeName)
	L.SetField(mt, "__len", L.NewFunction(m.length))
	L.SetField(mt, "__index", L.NewFunction(m.index))
	L.SetField(mt, "__tostring", L.NewFunction(m.tostring))

	L.SetGlobal("array", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"build":    m.build,
		"concat":   m.concat,
		"len":      m.length,
		"get":      m.get,
		"strategy": m.strategy,
		"totable":  m.totable,
	}))
}

func checkArray(L *lua.LState, n int) storage.Array {
	ud := L.CheckUserData(n)
	arr, ok := ud.Value.(storage.Array)
	if !ok {
		L.ArgError(n, "array expected")
	}
	return arr
}

// array.build(tbl [, site]) -> array
func (m *arrayModule) build(L *lua.LState) int {
	tbl := L.CheckTable(1)
	site := L.OptString(2, BuildSite)
	if site == "" {
		L.ArgError(2, "site must not be empty")
	}

	arr, err := m.bridge.ToArray(tbl, site)
	if err != nil {
		L.RaiseError("array.build: %v", err)
	}
	L.Push(m.bridge.ToLua(arr))
	return 1
}

// array.concat(a, b, ...) -> array
func (m *arrayModule) concat(L *lua.LState) int {
	ab := m.bridge.engine.Builder(ConcatSite)
	state := ab.Start()

	length := 0
	for i := 1; i <= L.GetTop(); i++ {
		arr := checkArray(L, i)
		if err := ab.AppendArray(state, length, arr); err != nil {
			L.RaiseError("array.concat: %v", err)
		}
		length += arr.Len()
	}
	L.Push(m.bridge.ToLua(ab.Finish(state, length)))
	return 1
}

// array.len(a) -> integer
func (m *arrayModule) length(L *lua.LState) int {
	L.Push(lua.LNumber(checkArray(L, 1).Len()))
	return 1
}

// array.get(a, i) -> value; i is 1-based, nil when out of range
func (m *arrayModule) get(L *lua.LState) int {
	arr := checkArray(L, 1)
	i := L.CheckInt(2)
	if i < 1 || i > arr.Len() {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(m.bridge.ToLuaValue(arr.At(i - 1)))
	return 1
}

// a[i] for numeric i
func (m *arrayModule) index(L *lua.LState) int {
	if _, ok := L.Get(2).(lua.LNumber); !ok {
		L.Push(lua.LNil)
		return 1
	}
	return m.get(L)
}

// array.strategy(a) -> name
func (m *arrayModule) strategy(L *lua.LState) int {
	L.Push(lua.LString(checkArray(L, 1).Strategy().Name()))
	return 1
}

// array.totable(a) -> table
func (m *arrayModule) totable(L *lua.LState) int {
	L.Push(m.bridge.ToTable(checkArray(L, 1)))
	return 1
}

func (m *arrayModule) tostring(L *lua.LState) int {
	L.Push(lua.LString(checkArray(L, 1).String()))
	return 1
}

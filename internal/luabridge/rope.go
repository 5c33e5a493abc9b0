package luabridge

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/rtcore/internal/encoding"
	"github.com/dshills/rtcore/internal/rope"
)

type ropeModule struct {
	bridge *Bridge
}

func registerRopeModule(L *lua.LState, b *Bridge) {
	m := &ropeModule{bridge: b}

	mt := L.NewTypeMetatable(ropeTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"get":       m.get,
		"set":       m.set,
		"len":       m.length,
		"charlen":   m.charLength,
		"coderange": m.codeRange,
		"encoding":  m.encoding,
		"bytes":     m.bytes,
		"hash":      m.hash,
	}))
	L.SetField(mt, "__len", L.NewFunction(m.length))
	L.SetField(mt, "__tostring", L.NewFunction(m.bytes))

	L.SetGlobal("rope", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"native": m.native,
		"buffer": m.buffer,
	}))
}

func checkRope(L *lua.LState, n int) *rope.NativeRope {
	ud := L.CheckUserData(n)
	r, ok := ud.Value.(*rope.NativeRope)
	if !ok {
		L.ArgError(n, "rope expected")
	}
	return r
}

// checkByteIndex converts a 1-based index argument to a 0-based one.
func checkByteIndex(L *lua.LState, r *rope.NativeRope, n int) int {
	i := L.CheckInt(n)
	if i < 1 || i > r.ByteLength() {
		L.ArgError(n, fmt.Sprintf("index %d out of range [1, %d]", i, r.ByteLength()))
	}
	return i - 1
}

// rope.native(s [, encoding]) -> rope
func (m *ropeModule) native(L *lua.LState) int {
	s := L.CheckString(1)
	enc := encoding.UTF8
	if L.GetTop() >= 2 {
		name := L.CheckString(2)
		var ok bool
		if enc, ok = encoding.Lookup(name); !ok {
			L.ArgError(2, fmt.Sprintf("unknown encoding %q", name))
		}
	}

	r, err := m.bridge.engine.NewNativeRope([]byte(s), enc)
	if err != nil {
		L.RaiseError("rope.native: %v", err)
	}
	L.Push(m.bridge.RopeToLua(r))
	return 1
}

// rope.buffer(capacity [, length]) -> zeroed binary rope
func (m *ropeModule) buffer(L *lua.LState) int {
	capacity := L.CheckInt(1)
	length := L.OptInt(2, 0)
	if capacity < 0 {
		L.ArgError(1, "capacity must not be negative")
	}
	if length < 0 || length > capacity {
		L.ArgError(2, "length outside capacity")
	}

	r, err := m.bridge.engine.NewNativeBuffer(capacity, length)
	if err != nil {
		L.RaiseError("rope.buffer: %v", err)
	}
	L.Push(m.bridge.RopeToLua(r))
	return 1
}

// r:get(i) -> byte
func (m *ropeModule) get(L *lua.LState) int {
	r := checkRope(L, 1)
	L.Push(lua.LNumber(r.Get(checkByteIndex(L, r, 2))))
	return 1
}

// r:set(i, v)
func (m *ropeModule) set(L *lua.LState) int {
	r := checkRope(L, 1)
	i := checkByteIndex(L, r, 2)
	v := L.CheckInt(3)
	if v < 0 || v > 0xFF {
		L.ArgError(3, fmt.Sprintf("byte value %d out of range", v))
	}
	r.Set(i, v)
	return 0
}

func (m *ropeModule) length(L *lua.LState) int {
	L.Push(lua.LNumber(checkRope(L, 1).ByteLength()))
	return 1
}

func (m *ropeModule) charLength(L *lua.LState) int {
	L.Push(lua.LNumber(checkRope(L, 1).CharacterLength()))
	return 1
}

func (m *ropeModule) codeRange(L *lua.LState) int {
	L.Push(lua.LString(checkRope(L, 1).CodeRange().String()))
	return 1
}

func (m *ropeModule) encoding(L *lua.LState) int {
	L.Push(lua.LString(checkRope(L, 1).Encoding().Name()))
	return 1
}

// r:bytes() -> raw content as a Lua string
func (m *ropeModule) bytes(L *lua.LState) int {
	L.Push(lua.LString(checkRope(L, 1).Bytes()))
	return 1
}

// r:hash() -> hex string; Lua numbers cannot hold 64 bits exactly
func (m *ropeModule) hash(L *lua.LState) int {
	L.Push(lua.LString(fmt.Sprintf("%016x", checkRope(L, 1).Hash())))
	return 1
}

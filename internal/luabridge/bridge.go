package luabridge

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/rtcore/internal/engine"
	"github.com/dshills/rtcore/internal/rope"
	"github.com/dshills/rtcore/internal/storage"
)

// Metatable names for the userdata the bridge creates.
const (
	arrayTypeName = "rtcore.array"
	ropeTypeName  = "rtcore.rope"
)

// maxExactInt is the largest magnitude a Lua number holds exactly.
const maxExactInt = 1 << 53

// Bridge converts between Lua values and rtcore values.
type Bridge struct {
	L      *lua.LState
	engine *engine.Engine
}

// NewBridge creates a Bridge for L. The array and rope metatables must be
// registered before ToLua is used; NewState does both.
func NewBridge(L *lua.LState, e *engine.Engine) *Bridge {
	return &Bridge{L: L, engine: e}
}

// ToArray builds tbl's sequence part, t[1] through t[#t], with the
// builder for site. Nested tables are built with the same builder.
func (b *Bridge) ToArray(tbl *lua.LTable, site string) (storage.Array, error) {
	return b.buildTable(tbl, site, make(map[*lua.LTable]bool))
}

func (b *Bridge) buildTable(tbl *lua.LTable, site string, visiting map[*lua.LTable]bool) (storage.Array, error) {
	if visiting[tbl] {
		return storage.Array{}, ErrCyclicTable
	}
	visiting[tbl] = true
	defer delete(visiting, tbl)

	ab := b.engine.Builder(site)
	n := tbl.Len()
	state, err := ab.StartWithLength(n)
	if err != nil {
		return storage.Array{}, err
	}

	for i := 1; i <= n; i++ {
		v, err := b.toElement(tbl.RawGetInt(i), site, visiting)
		if err != nil {
			return storage.Array{}, fmt.Errorf("element %d: %w", i, err)
		}
		if err := ab.AppendOne(state, i-1, v); err != nil {
			return storage.Array{}, err
		}
	}
	return ab.Finish(state, n), nil
}

func (b *Bridge) toElement(lv lua.LValue, site string, visiting map[*lua.LTable]bool) (any, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(v), nil
	case lua.LNumber:
		return numberValue(v), nil
	case lua.LString:
		return string(v), nil
	case *lua.LTable:
		return b.buildTable(v, site, visiting)
	case *lua.LUserData:
		switch u := v.Value.(type) {
		case storage.Array, *rope.NativeRope:
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, lv.Type())
}

// numberValue maps integral numbers to int so they can use the integer
// strategies; everything else, negative zero included, stays float64.
func numberValue(n lua.LNumber) any {
	f := float64(n)
	if f == math.Trunc(f) && math.Abs(f) <= maxExactInt && !(f == 0 && math.Signbit(f)) {
		return int(f)
	}
	return f
}

// ToLua wraps arr as array userdata.
func (b *Bridge) ToLua(arr storage.Array) lua.LValue {
	ud := b.L.NewUserData()
	ud.Value = arr
	b.L.SetMetatable(ud, b.L.GetTypeMetatable(arrayTypeName))
	return ud
}

// RopeToLua wraps r as rope userdata.
func (b *Bridge) RopeToLua(r *rope.NativeRope) lua.LValue {
	ud := b.L.NewUserData()
	ud.Value = r
	b.L.SetMetatable(ud, b.L.GetTypeMetatable(ropeTypeName))
	return ud
}

// ToLuaValue converts an array element to a Lua value. Arrays and ropes
// become userdata.
func (b *Bridge) ToLuaValue(v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case storage.Array:
		return b.ToLua(val)
	case *rope.NativeRope:
		return b.RopeToLua(val)
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// ToTable copies arr into a Lua sequence. Nested arrays are copied too.
func (b *Bridge) ToTable(arr storage.Array) *lua.LTable {
	tbl := b.L.CreateTable(arr.Len(), 0)
	for i := range arr.Len() {
		v := arr.At(i)
		if nested, ok := v.(storage.Array); ok {
			tbl.RawSetInt(i+1, b.ToTable(nested))
			continue
		}
		tbl.RawSetInt(i+1, b.ToLuaValue(v))
	}
	return tbl
}

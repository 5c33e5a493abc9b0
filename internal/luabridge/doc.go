// Package luabridge lets Lua scripts build arrays and native ropes through
// an rtcore engine.
//
// Scripts run in a restricted gopher-lua state: only the base, table,
// string and math libraries are opened, and the globals that load code
// from outside the state (dofile, loadfile, load, loadstring, require and
// module) are removed. print writes to the engine logger.
//
// Two modules are installed as globals:
//
//	local a = array.build({1, 2, 3})         -- int32 storage
//	local b = array.build({1.5, {4, 5}})     -- nested tables become arrays
//	local c = array.concat(a, b)
//	print(array.len(c), array.strategy(c), array.get(c, 1))
//
//	local r = rope.native("héllo")           -- UTF-8 unless named
//	r:set(1, 0x48)                           -- "Héllo"
//	print(r:len(), r:coderange(), r:bytes())
//
// array.build builds a table with the ArrayBuilder of its site, "lua:build"
// unless a second argument names another. Nested tables are built with the
// same builder while the outer build is still in progress. Indexes are
// 1-based on the Lua side.
//
// A State may be shared between goroutines. Its methods serialize on an
// internal mutex, so scripts run one at a time.
package luabridge

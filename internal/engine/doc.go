// Package engine wires the rtcore runtime pieces into one facade.
//
// An Engine owns the storage registry, the capacity policy, the native
// memory provider and the release service. It hands out one ArrayBuilder
// per call site and allocates native ropes:
//
//	cfg := config.New(config.WithFile("rtcore.toml"))
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	e, err := engine.New(engine.WithConfig(cfg), engine.WithWatch(true))
//	if err != nil {
//	    return err
//	}
//	if err := e.Start(ctx); err != nil {
//	    return err
//	}
//	defer e.Close()
//
//	b := e.Builder("parser.go:42")
//	r, err := e.NewNativeRope([]byte("hello"), encoding.UTF8)
//
// # Live configuration
//
// The engine subscribes to its Config. Capacity policy and log level
// changes apply to existing builders immediately; builders read the policy
// on every growth. The native provider and release queue size are fixed
// when the engine is created.
//
// # Thread Safety
//
// All Engine methods are safe for concurrent use.
package engine

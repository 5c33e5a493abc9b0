// Package config provides layered configuration for rtcore.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Runtime overrides (Set) │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← RTCORE_BUILDER_MAX_LENGTH, ...
//	├─────────────────────────────┤
//	│  2. Configuration file      │  ← rtcore.toml or rtcore.json
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// # Sub-packages
//
//   - loader: TOML, JSON and environment variable loading, map merging
//   - watcher: fsnotify-based live reload of the configuration file
//
// # Usage
//
//	cfg := config.New(config.WithFile("rtcore.toml"))
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	policy := cfg.Builder()
//
// Section accessors never fail. A value of the wrong type falls back to
// its default and is recorded; Errors returns what was recorded and
// Validate reports it alongside out-of-range values.
package config

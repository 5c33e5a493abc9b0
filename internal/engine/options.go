package engine

import (
	"github.com/dshills/rtcore/internal/builder"
	"github.com/dshills/rtcore/internal/config"
	"github.com/dshills/rtcore/internal/logging"
	"github.com/dshills/rtcore/internal/native"
	"github.com/dshills/rtcore/internal/storage"
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithConfig sets the configuration. Without it the engine uses the
// defaults plus RTCORE_ environment variables.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLogger sets the logger. Without it a logger is built from the
// logging section of the configuration.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithProvider overrides the configured native memory provider.
func WithProvider(p native.Provider) Option {
	return func(e *Engine) {
		e.provider = p
	}
}

// WithPolicy pins the capacity policy. Configuration changes no longer
// affect it.
func WithPolicy(p builder.Policy) Option {
	return func(e *Engine) {
		pinned := p.Normalize()
		e.pinnedPolicy = &pinned
	}
}

// WithRegistry sets the storage strategy registry.
func WithRegistry(r *storage.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithWatch reloads the configuration file whenever it changes.
func WithWatch(enable bool) Option {
	return func(e *Engine) {
		e.watch = enable
	}
}

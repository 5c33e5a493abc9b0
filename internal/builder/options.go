package builder

import (
	"github.com/dshills/rtcore/internal/logging"
	"github.com/dshills/rtcore/internal/storage"
)

// Option configures an ArrayBuilder during creation.
type Option func(*ArrayBuilder)

// WithRegistry sets the strategy registry. Defaults to storage.Default().
func WithRegistry(r *storage.Registry) Option {
	return func(b *ArrayBuilder) {
		if r != nil {
			b.registry = r
		}
	}
}

// WithPolicy sets a fixed capacity policy.
func WithPolicy(p Policy) Option {
	return func(b *ArrayBuilder) {
		b.policies = StaticPolicy(p.Normalize())
	}
}

// WithPolicySource sets a policy source consulted on every growth.
func WithPolicySource(src PolicySource) Option {
	return func(b *ArrayBuilder) {
		if src != nil {
			b.policies = src
		}
	}
}

// WithLogger sets the logger used for deoptimization events.
func WithLogger(l *logging.Logger) Option {
	return func(b *ArrayBuilder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics shares a Metrics between builders.
func WithMetrics(m *Metrics) Option {
	return func(b *ArrayBuilder) {
		b.metrics = m
	}
}

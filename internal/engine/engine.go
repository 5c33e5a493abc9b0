package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dshills/rtcore/internal/builder"
	"github.com/dshills/rtcore/internal/config"
	"github.com/dshills/rtcore/internal/config/watcher"
	"github.com/dshills/rtcore/internal/encoding"
	"github.com/dshills/rtcore/internal/finalize"
	"github.com/dshills/rtcore/internal/logging"
	"github.com/dshills/rtcore/internal/native"
	"github.com/dshills/rtcore/internal/rope"
	"github.com/dshills/rtcore/internal/storage"
)

// Engine is the rtcore runtime facade.
type Engine struct {
	mu sync.RWMutex

	cfg          *config.Config
	logger       *logging.Logger
	registry     *storage.Registry
	policy       *policySource
	pinnedPolicy *builder.Policy
	metrics      *builder.Metrics
	provider     native.Provider
	finalizer    *finalize.Service
	alloc        *rope.Allocator
	builders     map[string]*builder.ArrayBuilder

	watch       bool
	watcher     *watcher.Watcher
	unsubscribe func()

	started bool
	closed  bool
}

// New creates an Engine. The configuration is validated first; an invalid
// configuration is returned as the error.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		builders: make(map[string]*builder.ArrayBuilder),
		metrics:  builder.NewMetrics(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.cfg == nil {
		e.cfg = config.New()
		if err := e.cfg.Load(context.Background()); err != nil {
			return nil, fmt.Errorf("loading configuration: %w", err)
		}
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	if e.logger == nil {
		lc := e.cfg.Logging()
		e.logger = logging.New(logging.Config{
			Level:  logging.ParseLevel(lc.Level),
			Prefix: lc.Prefix,
		})
	}
	e.logger = e.logger.WithComponent("engine")

	if e.registry == nil {
		e.registry = storage.Default()
	}

	if e.provider == nil {
		p, err := native.ProviderByName(e.cfg.Native().Provider)
		if err != nil {
			return nil, err
		}
		e.provider = p
	}

	if e.pinnedPolicy != nil {
		e.policy = newPolicySource(*e.pinnedPolicy)
	} else {
		e.policy = newPolicySource(e.cfg.Builder().Policy())
	}

	e.finalizer = finalize.New(finalize.Config{
		QueueSize: e.cfg.Finalizer().QueueSize,
		Logger:    e.logger,
	})
	e.alloc = rope.NewAllocator(e.provider, e.finalizer, e.logger)

	e.unsubscribe = e.cfg.Subscribe(func(cfg *config.Config) {
		if err := e.ApplyConfig(cfg); err != nil {
			e.logger.Warn("configuration rejected: %v", err)
		}
	})

	e.logger.Debug("engine ready: provider=%s policy=%+v", e.provider.Name(), e.policy.CapacityPolicy())
	return e, nil
}

// Start starts the release service and, if enabled, the configuration
// watcher. Cancelling ctx stops the release service; Close stops both.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.started {
		return nil
	}

	if err := e.finalizer.Start(ctx); err != nil {
		return err
	}

	if e.watch && e.cfg.Path() != "" {
		w, err := watcher.New(watcher.WithLogger(e.logger))
		if err != nil {
			e.finalizer.Stop()
			return fmt.Errorf("creating config watcher: %w", err)
		}
		if err := w.Watch(e.cfg.Path()); err != nil {
			w.Stop()
			e.finalizer.Stop()
			return fmt.Errorf("watching %s: %w", e.cfg.Path(), err)
		}
		cfg := e.cfg
		logger := e.logger
		w.OnChange(func(ev watcher.Event) {
			logger.Info("configuration %s: %s", ev.Op, ev.Path)
			if err := cfg.Reload(); err != nil {
				logger.Warn("reloading configuration: %v", err)
			}
		})
		if err := w.Start(); err != nil {
			w.Stop()
			e.finalizer.Stop()
			return err
		}
		e.watcher = w
	}

	e.started = true
	return nil
}

// Close stops the watcher and the release service. Releases that arrive
// afterwards run inline. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	w := e.watcher
	e.watcher = nil
	unsubscribe := e.unsubscribe
	e.mu.Unlock()

	if w != nil {
		w.Stop()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
	e.finalizer.Stop()
	return nil
}

// ApplyConfig applies the live parts of cfg: the capacity policy and the
// log level. An invalid configuration is rejected as a whole.
func (e *Engine) ApplyConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pinnedPolicy == nil {
		old := e.policy.CapacityPolicy()
		next := cfg.Builder().Policy()
		if next != old {
			e.policy.store(next)
			e.logger.Info("capacity policy %+v -> %+v", old, next)
		}
	}

	level := logging.ParseLevel(cfg.Logging().Level)
	if level != e.logger.Level() {
		e.logger.SetLevel(level)
	}

	if name := cfg.Native().Provider; name != "" && !strings.EqualFold(strings.TrimSpace(name), e.provider.Name()) {
		e.logger.Warn("native.provider %q takes effect on restart (using %s)", name, e.provider.Name())
	}
	return nil
}

// Builder returns the ArrayBuilder for site, creating it on first use.
func (e *Engine) Builder(site string) *builder.ArrayBuilder {
	if site == "" {
		panic(ErrEmptySite)
	}

	e.mu.RLock()
	b, ok := e.builders[site]
	e.mu.RUnlock()
	if ok {
		return b
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := e.builders[site]; ok {
		return b
	}
	b = builder.New(site,
		builder.WithRegistry(e.registry),
		builder.WithPolicySource(e.policy),
		builder.WithLogger(e.logger),
		builder.WithMetrics(e.metrics),
	)
	e.builders[site] = b
	return b
}

// Sites returns the sites that have a builder, sorted.
func (e *Engine) Sites() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sites := make([]string, 0, len(e.builders))
	for site := range e.builders {
		sites = append(sites, site)
	}
	slices.Sort(sites)
	return sites
}

// NewNativeRope copies b into a native rope tagged enc. The code range is
// computed on first use.
func (e *Engine) NewNativeRope(b []byte, enc *encoding.Encoding) (*rope.NativeRope, error) {
	if e.isClosed() {
		return nil, ErrClosed
	}
	return rope.NewNative(e.alloc, b, enc, len(b), encoding.CodeRangeUnknown)
}

// NewNativeBuffer returns a zeroed ASCII-8BIT native rope.
func (e *Engine) NewNativeBuffer(capacity, length int) (*rope.NativeRope, error) {
	if e.isClosed() {
		return nil, ErrClosed
	}
	return rope.NewBuffer(e.alloc, capacity, length)
}

// Registry returns the storage strategy registry.
func (e *Engine) Registry() *storage.Registry {
	return e.registry
}

// Policy returns the capacity policy currently in effect.
func (e *Engine) Policy() builder.Policy {
	return e.policy.CapacityPolicy()
}

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Allocator returns the native rope allocator.
func (e *Engine) Allocator() *rope.Allocator {
	return e.alloc
}

// Metrics returns the metrics shared by all builders.
func (e *Engine) Metrics() *builder.Metrics {
	return e.metrics
}

// Stats summarizes engine activity.
type Stats struct {
	Builders  int
	Builds    builder.MetricsSnapshot
	Native    native.Stats
	Finalizer finalize.Stats
}

// Stats returns a snapshot of engine activity.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	n := len(e.builders)
	e.mu.RUnlock()

	return Stats{
		Builders:  n,
		Builds:    e.metrics.Snapshot(),
		Native:    e.provider.Stats(),
		Finalizer: e.finalizer.Stats(),
	}
}

func (e *Engine) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

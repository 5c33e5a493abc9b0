package config

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dshills/rtcore/internal/config/loader"
)

// EnvConfigFile names the variable consulted when no file is configured.
const EnvConfigFile = loader.DefaultEnvPrefix + "CONFIG"

// Config is the layered rtcore configuration.
type Config struct {
	mu sync.RWMutex

	fs        loader.FileSystem
	path      string
	envPrefix string
	useEnv    bool

	defaults  map[string]any
	file      map[string]any
	env       map[string]any
	overrides map[string]any
	merged    map[string]any
	loadedAt  time.Time

	subscribers map[int]func(*Config)
	nextSubID   int

	// configErrors stores errors encountered during section access.
	configErrors map[string]error
}

// Option configures a Config instance.
type Option func(*Config)

// WithFile sets the configuration file. A ".json" extension selects the
// JSON loader; anything else is read as TOML.
func WithFile(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// WithFileSystem replaces the file system used to read the file.
func WithFileSystem(fs loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fs
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithEnv enables or disables the environment layer.
func WithEnv(enable bool) Option {
	return func(c *Config) {
		c.useEnv = enable
	}
}

// WithDefaults overlays values on the built-in defaults.
func WithDefaults(values map[string]any) Option {
	return func(c *Config) {
		c.defaults = loader.DeepMerge(c.defaults, values)
	}
}

// New creates a configuration holding only the defaults. Call Load to read
// the file and the environment. Without WithFile the path is taken from
// RTCORE_CONFIG, if set.
func New(opts ...Option) *Config {
	c := &Config{
		fs:          loader.DefaultFS(),
		envPrefix:   loader.DefaultEnvPrefix,
		useEnv:      true,
		defaults:    builtinDefaults(),
		overrides:   make(map[string]any),
		subscribers: make(map[int]func(*Config)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.path == "" && c.useEnv {
		c.path = loader.GetEnvOrDefault(EnvConfigFile, "")
	}
	c.merged = c.merge()
	return c
}

// Load reads the file and environment layers and rebuilds the merged view.
// A missing file is not an error. On failure the previous view is kept.
func (c *Config) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var file map[string]any
	if c.path != "" {
		var err error
		file, err = loader.ForFile(c.fs, c.path).Load()
		if err != nil {
			return err
		}
	}

	var env map[string]any
	if c.useEnv {
		var err error
		env, err = loader.NewEnvLoader(c.envPrefix).Load()
		if err != nil {
			return fmt.Errorf("loading environment: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	c.file = file
	c.env = env
	c.merged = c.merge()
	c.loadedAt = time.Now()
	c.configErrors = nil
	c.mu.Unlock()

	c.notify()
	return nil
}

// Reload is Load without a deadline. It is the watcher's callback.
func (c *Config) Reload() error {
	return c.Load(context.Background())
}

// Path returns the configuration file path, if any.
func (c *Config) Path() string {
	return c.path
}

// LoadedAt returns when Load last succeeded.
func (c *Config) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Subscribe registers fn to run after every successful Load or Set.
// The returned function removes the subscription.
func (c *Config) Subscribe(fn func(*Config)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *Config) notify() {
	c.mu.RLock()
	subs := make([]func(*Config), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(c)
	}
}

// merge must be called with mu held, or before c is shared.
func (c *Config) merge() map[string]any {
	merged := loader.Clone(c.defaults)
	merged = loader.DeepMerge(merged, c.file)
	merged = loader.DeepMerge(merged, c.env)
	return loader.DeepMerge(merged, c.overrides)
}

// Get returns the value at the given path from the merged configuration.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.GetByPath(c.merged, path)
}

// Snapshot returns a deep copy of the merged configuration.
func (c *Config) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.Clone(c.merged)
}

// Set stores a runtime override. Overrides survive Load.
func (c *Config) Set(path string, value any) error {
	if path == "" || strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") || strings.Contains(path, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	c.mu.Lock()
	loader.SetByPath(c.overrides, path, value)
	c.merged = c.merge()
	delete(c.configErrors, path)
	c.mu.Unlock()

	c.notify()
	return nil
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path. Integral floats, as
// produced by JSON, are accepted.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		if val == math.Trunc(val) && math.Abs(val) <= math.MaxInt64/2 {
			return int(val), nil
		}
	}
	return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
}

// GetFloat returns a float64 value at the given path.
func (c *Config) GetFloat(path string) (float64, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "float64", Actual: typeName(v)}
	}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	case time.Duration:
		return "duration"
	default:
		return fmt.Sprintf("%T", v)
	}
}

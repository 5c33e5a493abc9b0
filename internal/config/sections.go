package config

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/dshills/rtcore/internal/builder"
	"github.com/dshills/rtcore/internal/finalize"
	"github.com/dshills/rtcore/internal/logging"
	"github.com/dshills/rtcore/internal/native"
)

// Section accessor methods return snapshot structs. Mutating the returned
// struct does not modify the underlying configuration.

// BuilderConfig holds the array builder capacity policy.
type BuilderConfig struct {
	// MaxLength is the largest store capacity ever handed out.
	MaxLength int

	// GrowthFactor multiplies the old capacity when a store grows.
	GrowthFactor float64

	// MinCapacity is the smallest capacity a grown store receives.
	MinCapacity int
}

// NativeConfig selects the native memory provider.
type NativeConfig struct {
	// Provider is "mmap", "heap" or empty for the platform default.
	Provider string
}

// FinalizerConfig sizes the release queue.
type FinalizerConfig struct {
	QueueSize int
}

// LoggingConfig configures the rtcore logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string

	// Prefix is prepended to every log line.
	Prefix string
}

func builtinDefaults() map[string]any {
	return map[string]any{
		"builder": map[string]any{
			"maxLength":    int64(builder.DefaultMaxLength),
			"growthFactor": builder.DefaultGrowthFactor,
			"minCapacity":  int64(builder.DefaultMinCapacity),
		},
		"native": map[string]any{
			"provider": "",
		},
		"finalizer": map[string]any{
			"queueSize": int64(finalize.DefaultQueueSize),
		},
		"logging": map[string]any{
			"level":  "info",
			"prefix": "rtcore",
		},
	}
}

// Builder returns the array builder settings.
func (c *Config) Builder() BuilderConfig {
	return BuilderConfig{
		MaxLength:    c.getIntOr("builder.maxLength", builder.DefaultMaxLength),
		GrowthFactor: c.getFloatOr("builder.growthFactor", builder.DefaultGrowthFactor),
		MinCapacity:  c.getIntOr("builder.minCapacity", builder.DefaultMinCapacity),
	}
}

// Policy converts the builder settings to a normalized capacity policy.
func (b BuilderConfig) Policy() builder.Policy {
	return builder.Policy(b).Normalize()
}

// Native returns the native memory settings.
func (c *Config) Native() NativeConfig {
	return NativeConfig{
		Provider: c.getStringOr("native.provider", ""),
	}
}

// Finalizer returns the release queue settings.
func (c *Config) Finalizer() FinalizerConfig {
	return FinalizerConfig{
		QueueSize: c.getIntOr("finalizer.queueSize", finalize.DefaultQueueSize),
	}
}

// Logging returns the logging settings.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level:  c.getStringOr("logging.level", "info"),
		Prefix: c.getStringOr("logging.prefix", "rtcore"),
	}
}

// Validate checks every section and returns the failures joined, each a
// *ValidationError. Type errors recorded during access are included.
func (c *Config) Validate() error {
	var errs []error
	add := func(path, msg string, value any, code ValidationErrorCode) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value, Code: code})
	}

	b := c.Builder()
	if b.MaxLength < 1 || b.MaxLength > builder.DefaultMaxLength {
		add("builder.maxLength", "must be between 1 and the platform maximum", b.MaxLength, ErrCodeOutOfRange)
	}
	if b.GrowthFactor < 1.5 || b.GrowthFactor > 2.0 {
		add("builder.growthFactor", "must be between 1.5 and 2.0", b.GrowthFactor, ErrCodeOutOfRange)
	}
	if b.MinCapacity < 1 || b.MinCapacity > b.MaxLength {
		add("builder.minCapacity", "must be between 1 and builder.maxLength", b.MinCapacity, ErrCodeOutOfRange)
	}

	if n := c.Native(); n.Provider != "" {
		if _, err := native.ProviderByName(n.Provider); err != nil && errors.Is(err, native.ErrUnknownProvider) {
			add("native.provider", `must be "mmap" or "heap"`, n.Provider, ErrCodeInvalidEnum)
		}
	}

	if f := c.Finalizer(); f.QueueSize < 1 {
		add("finalizer.queueSize", "must be positive", f.QueueSize, ErrCodeOutOfRange)
	}

	if l := c.Logging(); !logging.ValidLevel(l.Level) {
		add("logging.level", "must be debug, info, warn or error", l.Level, ErrCodeInvalidEnum)
	}

	recorded := c.Errors()
	for _, path := range slices.Sorted(maps.Keys(recorded)) {
		add(path, recorded[path].Error(), nil, ErrCodeTypeMismatch)
	}

	return errors.Join(errs...)
}

// Errors returns the type errors recorded by section accessors since the
// last Load, keyed by setting path.
func (c *Config) Errors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.configErrors) == 0 {
		return nil
	}
	return maps.Clone(c.configErrors)
}

func (c *Config) getStringOr(path string, defaultValue string) string {
	v, err := c.GetString(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return strings.TrimSpace(v)
}

func (c *Config) getIntOr(path string, defaultValue int) int {
	v, err := c.GetInt(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getFloatOr(path string, defaultValue float64) float64 {
	v, err := c.GetFloat(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

// recordConfigError keeps the first error seen for each path.
func (c *Config) recordConfigError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.configErrors == nil {
		c.configErrors = make(map[string]error)
	}
	if _, exists := c.configErrors[path]; !exists {
		c.configErrors[path] = err
	}
}

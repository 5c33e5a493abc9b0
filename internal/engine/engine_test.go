package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/rtcore/internal/builder"
	"github.com/dshills/rtcore/internal/config"
	"github.com/dshills/rtcore/internal/encoding"
	"github.com/dshills/rtcore/internal/logging"
	"github.com/dshills/rtcore/internal/native"
	"github.com/dshills/rtcore/internal/storage"
)

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithConfig(config.New(config.WithEnv(false))),
		WithLogger(logging.NullLogger),
		WithProvider(native.NewHeapProvider()),
	}
	e, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func build(t *testing.T, b *builder.ArrayBuilder, values ...any) storage.Array {
	t.Helper()
	state := b.Start()
	for i, v := range values {
		if err := b.AppendOne(state, i, v); err != nil {
			t.Fatalf("AppendOne(%d, %v): %v", i, v, err)
		}
	}
	return b.Finish(state, len(values))
}

func TestNew(t *testing.T) {
	e := newEngine(t)

	if e.Registry() != storage.Default() {
		t.Error("expected the default registry")
	}
	if got := e.Policy(); got != builder.DefaultPolicy() {
		t.Errorf("Policy() = %+v, want default", got)
	}
	if e.Allocator().Provider().Name() != native.ProviderHeap {
		t.Errorf("provider = %s, want heap", e.Allocator().Provider().Name())
	}
	if len(e.Sites()) != 0 {
		t.Errorf("Sites() = %v, want none", e.Sites())
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.New(config.WithEnv(false))
	_ = cfg.Set("finalizer.queueSize", 0)

	_, err := New(WithConfig(cfg), WithLogger(logging.NullLogger))
	if !errors.Is(err, config.ErrValidationFailed) {
		t.Errorf("New() = %v, want ErrValidationFailed", err)
	}
}

func TestNew_ProviderFromConfig(t *testing.T) {
	cfg := config.New(config.WithEnv(false))
	_ = cfg.Set("native.provider", "heap")

	e, err := New(WithConfig(cfg), WithLogger(logging.NullLogger))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if got := e.Allocator().Provider().Name(); got != native.ProviderHeap {
		t.Errorf("provider = %s, want heap", got)
	}
}

func TestBuilderPerSite(t *testing.T) {
	e := newEngine(t)

	a := e.Builder("a.go:1")
	if e.Builder("a.go:1") != a {
		t.Error("same site should return the same builder")
	}
	b := e.Builder("b.go:2")
	if a == b {
		t.Error("different sites should not share a builder")
	}
	if a.Metrics() != e.Metrics() || b.Metrics() != e.Metrics() {
		t.Error("builders should share engine metrics")
	}

	if sites := e.Sites(); len(sites) != 2 || sites[0] != "a.go:1" || sites[1] != "b.go:2" {
		t.Errorf("Sites() = %v", sites)
	}

	defer func() {
		if r := recover(); r != ErrEmptySite {
			t.Errorf("recover() = %v, want ErrEmptySite", r)
		}
	}()
	e.Builder("")
}

func TestBuilderConcurrentLookup(t *testing.T) {
	e := newEngine(t)

	var wg sync.WaitGroup
	got := make([]*builder.ArrayBuilder, 32)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = e.Builder("shared")
		}(i)
	}
	wg.Wait()

	for i := range got {
		if got[i] != got[0] {
			t.Fatalf("goroutine %d got a different builder", i)
		}
	}
}

func TestBuildsLearnAcrossCalls(t *testing.T) {
	e := newEngine(t)
	b := e.Builder("site")

	arr := build(t, b, 1, 2, 1<<40)
	if arr.Strategy() != storage.Int64 {
		t.Errorf("strategy = %s, want int64", arr.Strategy().Name())
	}

	arr = build(t, e.Builder("site"), 1)
	if arr.Strategy() != storage.Int64 {
		t.Errorf("second build strategy = %s, want learned int64", arr.Strategy().Name())
	}

	snap := e.Stats().Builds
	if snap.BuildsFinished != 2 {
		t.Errorf("BuildsFinished = %d, want 2", snap.BuildsFinished)
	}
	if e.Stats().Builders != 1 {
		t.Errorf("Builders = %d, want 1", e.Stats().Builders)
	}
}

func TestApplyConfigChangesPolicy(t *testing.T) {
	cfg := config.New(config.WithEnv(false))
	e := newEngine(t, WithConfig(cfg))
	b := e.Builder("site")

	if err := cfg.Set("builder.minCapacity", 2); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("builder.maxLength", 4); err != nil {
		t.Fatal(err)
	}
	if got := e.Policy().MaxLength; got != 4 {
		t.Fatalf("MaxLength = %d, want 4 after Set", got)
	}

	state := b.Start()
	var err error
	for i := 0; i < 5 && err == nil; i++ {
		err = b.AppendOne(state, i, i)
	}
	if !errors.Is(err, builder.ErrOutOfCapacity) {
		t.Errorf("append past MaxLength = %v, want ErrOutOfCapacity", err)
	}
}

func TestApplyConfigClampsLearnedLength(t *testing.T) {
	cfg := config.New(config.WithEnv(false))
	e := newEngine(t, WithConfig(cfg))
	b := e.Builder("site")

	values := make([]any, 20)
	for i := range values {
		values[i] = i
	}
	build(t, b, values...)
	if b.ExpectedLength() <= 8 {
		t.Fatalf("ExpectedLength() = %d, want > 8", b.ExpectedLength())
	}

	if err := cfg.Set("builder.minCapacity", 2); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("builder.maxLength", 8); err != nil {
		t.Fatal(err)
	}
	if got := b.Start().Capacity(); got != 8 {
		t.Errorf("Start capacity = %d, want new MaxLength 8", got)
	}
}

func TestApplyConfigRejectsInvalid(t *testing.T) {
	cfg := config.New(config.WithEnv(false))
	e := newEngine(t, WithConfig(cfg))

	_ = cfg.Set("builder.growthFactor", 9.0)
	if got := e.Policy().GrowthFactor; got != builder.DefaultGrowthFactor {
		t.Errorf("GrowthFactor = %v, invalid config should be rejected", got)
	}
	if err := e.ApplyConfig(cfg); !errors.Is(err, config.ErrValidationFailed) {
		t.Errorf("ApplyConfig = %v, want ErrValidationFailed", err)
	}
}

func TestApplyConfigLogLevel(t *testing.T) {
	out := &syncBuffer{}
	logger := logging.New(logging.Config{Level: logging.LevelInfo, Output: out})
	cfg := config.New(config.WithEnv(false))
	e := newEngine(t, WithConfig(cfg), WithLogger(logger))

	_ = cfg.Set("logging.level", "debug")
	if logger.Level() != logging.LevelDebug {
		t.Errorf("level = %s, want DEBUG", logger.Level())
	}

	build(t, e.Builder("site"), 1.5)
	if !strings.Contains(out.String(), "generalizing to float64") {
		t.Errorf("expected a debug deoptimization line, got:\n%s", out.String())
	}
}

func TestPinnedPolicyIgnoresConfig(t *testing.T) {
	cfg := config.New(config.WithEnv(false))
	pinned := builder.Policy{MaxLength: 100, GrowthFactor: 2, MinCapacity: 4}
	e := newEngine(t, WithConfig(cfg), WithPolicy(pinned))

	_ = cfg.Set("builder.maxLength", 10)
	if got := e.Policy(); got != pinned {
		t.Errorf("Policy() = %+v, want pinned %+v", got, pinned)
	}
}

func TestNativeRopes(t *testing.T) {
	e := newEngine(t)
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	r, err := e.NewNativeRope([]byte("héllo"), encoding.UTF8)
	if err != nil {
		t.Fatal(err)
	}
	if r.CodeRange() != encoding.CodeRangeValid || r.CharacterLength() != 5 {
		t.Errorf("code range %s, chars %d", r.CodeRange(), r.CharacterLength())
	}

	buf, err := e.NewNativeBuffer(8, 3)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Capacity() != 8 || buf.ByteLength() != 3 {
		t.Errorf("buffer capacity %d length %d", buf.Capacity(), buf.ByteLength())
	}

	if got := e.Stats().Native.Allocated; got < 2 {
		t.Errorf("Allocated = %d, want at least 2", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	e := newEngine(t)
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := e.Start(context.Background()); err != nil {
		t.Errorf("second Start = %v", err)
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}

	if _, err := e.NewNativeRope(nil, encoding.UTF8); !errors.Is(err, ErrClosed) {
		t.Errorf("NewNativeRope after Close = %v", err)
	}
	if _, err := e.NewNativeBuffer(1, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("NewNativeBuffer after Close = %v", err)
	}
	if err := e.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Close = %v", err)
	}
}

func TestWatchReloadsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rtcore.toml")
	if err := os.WriteFile(path, []byte("[builder]\nminCapacity = 16\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.New(config.WithFile(path), config.WithEnv(false))
	if err := cfg.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	e := newEngine(t, WithConfig(cfg), WithWatch(true))
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("[builder]\nminCapacity = 64\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for e.Policy().MinCapacity != 64 {
		if time.Now().After(deadline) {
			t.Fatalf("MinCapacity = %d, reload not applied", e.Policy().MinCapacity)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

package finalize

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/rtcore/internal/logging"
)

func TestSubmitInlineWhenStopped(t *testing.T) {
	s := New(Config{})
	ran := false
	s.Submit(func() { ran = true })

	if !ran {
		t.Error("action did not run inline")
	}
	stats := s.Stats()
	if stats.Inline != 1 || stats.Completed != 1 {
		t.Errorf("stats = %s", stats)
	}
}

func TestStartStop(t *testing.T) {
	s := New(Config{QueueSize: 4})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start err = %v, expected ErrAlreadyRunning", err)
	}
	if !s.Running() {
		t.Error("Running() = false after Start")
	}

	var count atomic.Int32
	for i := 0; i < 100; i++ {
		s.Submit(func() { count.Add(1) })
	}
	s.Stop()

	if got := count.Load(); got != 100 {
		// Overflow actions run on their own goroutines; give them a moment.
		deadline := time.Now().Add(2 * time.Second)
		for count.Load() != 100 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		if got = count.Load(); got != 100 {
			t.Errorf("ran %d actions, expected 100", got)
		}
	}
	if s.Running() {
		t.Error("Running() = true after Stop")
	}

	s.Stop()
}

func TestRestart(t *testing.T) {
	s := New(Config{})
	for i := 0; i < 2; i++ {
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("Start #%d: %v", i, err)
		}
		done := make(chan struct{})
		s.Submit(func() { close(done) })
		<-done
		s.Stop()
	}
}

func TestContextCancelStops(t *testing.T) {
	s := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for s.Running() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if s.Running() {
		t.Error("service still running after cancel")
	}
}

func TestPanicRecovered(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelError, Output: &buf})
	s := New(Config{Logger: logger})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	s.Submit(func() { panic("boom") })
	done := make(chan struct{})
	s.Submit(func() { close(done) })
	<-done
	s.Stop()

	if s.Stats().Panicked != 1 {
		t.Errorf("Panicked = %d, expected 1", s.Stats().Panicked)
	}
	if !strings.Contains(buf.String(), "release action panicked: boom") {
		t.Errorf("log = %q", buf.String())
	}
}

type owned struct {
	payload [64]byte
}

func TestAttachRunsAfterCollection(t *testing.T) {
	s := New(Config{})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	var runs atomic.Int32
	func() {
		o := &owned{}
		Attach(s, o, func() { runs.Add(1) })
	}()

	deadline := time.Now().Add(5 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}
	if got := runs.Load(); got != 1 {
		t.Fatalf("action ran %d times, expected 1", got)
	}

	// Further collections never rerun it.
	runtime.GC()
	time.Sleep(10 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Errorf("action ran %d times after extra GC", got)
	}
}

func TestAttachCancel(t *testing.T) {
	s := New(Config{})
	var runs atomic.Int32

	o := &owned{}
	h := Attach(s, o, func() { runs.Add(1) })
	if !h.Cancel() {
		t.Error("Cancel() = false on armed handle")
	}
	if h.Cancel() {
		t.Error("second Cancel() = true")
	}
	runtime.KeepAlive(o)

	runtime.GC()
	time.Sleep(10 * time.Millisecond)
	if runs.Load() != 0 {
		t.Error("cancelled action ran")
	}

	var zero Handle
	if zero.Cancel() {
		t.Error("zero Handle Cancel() = true")
	}
}

func TestOnceAction(t *testing.T) {
	var runs int
	o := &onceAction{action: func() { runs++ }}
	o.run()
	o.run()
	if runs != 1 {
		t.Errorf("ran %d times, expected 1", runs)
	}
	if o.disarm() {
		t.Error("disarm() = true after run")
	}
}

// Package finalize runs release actions for objects that have become
// unreachable.
//
// Attach registers a cleanup with the Go runtime. When the owner is
// collected the action is queued on the Service and run by its background
// worker, at most once. Ordering between actions is unspecified.
package finalize

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dshills/rtcore/internal/logging"
)

// DefaultQueueSize is the queue capacity used when none is configured.
const DefaultQueueSize = 256

// ErrAlreadyRunning is returned by Start on a running service.
var ErrAlreadyRunning = errors.New("finalize: service already running")

// Config configures a Service.
type Config struct {
	// QueueSize is the number of actions buffered before Submit spills
	// onto a goroutine of its own.
	QueueSize int
	// Logger receives panics recovered from actions.
	Logger *logging.Logger
}

// Stats is a snapshot of service counters.
type Stats struct {
	Submitted uint64
	Completed uint64
	Panicked  uint64
	Inline    uint64
	Pending   int
}

// Service executes release actions on a background worker.
type Service struct {
	queueSize int
	logger    *logging.Logger

	mu      sync.RWMutex
	running bool
	queue   chan func()
	done    chan struct{}

	submitted atomic.Uint64
	completed atomic.Uint64
	panicked  atomic.Uint64
	inline    atomic.Uint64
}

// New creates a stopped service. Actions submitted before Start run inline.
func New(cfg Config) *Service {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NullLogger
	}
	return &Service{
		queueSize: cfg.QueueSize,
		logger:    cfg.Logger.WithComponent("finalize"),
	}
}

// Start launches the worker. The service stops when ctx is cancelled or
// Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	s.queue = make(chan func(), s.queueSize)
	s.done = make(chan struct{})
	s.running = true

	go s.processLoop(s.queue, s.done)
	go func(done <-chan struct{}) {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-done:
		}
	}(s.done)
	return nil
}

// Stop closes the queue and waits for pending actions to finish.
// It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.queue)
	done := s.done
	s.mu.Unlock()

	<-done
}

// Running reports whether the worker is active.
func (s *Service) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Submit queues action. When the service is stopped the action runs on the
// calling goroutine; when the queue is full it runs on a new goroutine.
func (s *Service) Submit(action func()) {
	s.submitted.Add(1)

	s.mu.RLock()
	if !s.running {
		s.mu.RUnlock()
		s.inline.Add(1)
		s.run(action)
		return
	}
	select {
	case s.queue <- action:
		s.mu.RUnlock()
	default:
		s.mu.RUnlock()
		go s.run(action)
	}
}

// Stats returns current counters.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	pending := 0
	if s.running {
		pending = len(s.queue)
	}
	s.mu.RUnlock()

	return Stats{
		Submitted: s.submitted.Load(),
		Completed: s.completed.Load(),
		Panicked:  s.panicked.Load(),
		Inline:    s.inline.Load(),
		Pending:   pending,
	}
}

func (s *Service) processLoop(queue <-chan func(), done chan<- struct{}) {
	defer close(done)
	for action := range queue {
		s.run(action)
	}
}

func (s *Service) run(action func()) {
	defer func() {
		if r := recover(); r != nil {
			s.panicked.Add(1)
			s.logger.Error("release action panicked: %v", r)
		}
		s.completed.Add(1)
	}()
	action()
}

func (s Stats) String() string {
	return fmt.Sprintf("submitted=%d completed=%d panicked=%d inline=%d pending=%d",
		s.Submitted, s.Completed, s.Panicked, s.Inline, s.Pending)
}

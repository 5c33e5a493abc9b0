package builder

import (
	"sync/atomic"
	"time"

	"github.com/tidwall/sjson"
)

// Metrics counts builder events. One Metrics may be shared by many builders.
type Metrics struct {
	buildsStarted  atomic.Uint64
	buildsFinished atomic.Uint64

	// Deoptimization events
	strategyWidenings atomic.Uint64
	lengthWidenings   atomic.Uint64

	// Append paths
	fastAppends atomic.Uint64
	slowAppends atomic.Uint64
	staleOps    atomic.Uint64
	expansions  atomic.Uint64

	opsCreated atomic.Uint64

	startNanos atomic.Int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.startNanos.Store(time.Now().UnixNano())
	return m
}

func (m *Metrics) recordStart()  { m.buildsStarted.Add(1) }
func (m *Metrics) recordFinish() { m.buildsFinished.Add(1) }

func (m *Metrics) recordAppend(fast bool) {
	if fast {
		m.fastAppends.Add(1)
	} else {
		m.slowAppends.Add(1)
	}
}

func (m *Metrics) recordStaleOp()   { m.staleOps.Add(1) }
func (m *Metrics) recordExpansion() { m.expansions.Add(1) }
func (m *Metrics) recordOpCreated() { m.opsCreated.Add(1) }

func (m *Metrics) recordWidening(strategy, length bool) {
	if strategy {
		m.strategyWidenings.Add(1)
	}
	if length {
		m.lengthWidenings.Add(1)
	}
}

// Snapshot returns a point-in-time copy of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		BuildsStarted:     m.buildsStarted.Load(),
		BuildsFinished:    m.buildsFinished.Load(),
		StrategyWidenings: m.strategyWidenings.Load(),
		LengthWidenings:   m.lengthWidenings.Load(),
		FastAppends:       m.fastAppends.Load(),
		SlowAppends:       m.slowAppends.Load(),
		StaleOps:          m.staleOps.Load(),
		Expansions:        m.expansions.Load(),
		OpsCreated:        m.opsCreated.Load(),
		Uptime:            time.Since(time.Unix(0, m.startNanos.Load())),
	}
}

// Reset zeroes all counters.
func (m *Metrics) Reset() {
	m.buildsStarted.Store(0)
	m.buildsFinished.Store(0)
	m.strategyWidenings.Store(0)
	m.lengthWidenings.Store(0)
	m.fastAppends.Store(0)
	m.slowAppends.Store(0)
	m.staleOps.Store(0)
	m.expansions.Store(0)
	m.opsCreated.Store(0)
	m.startNanos.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	BuildsStarted     uint64
	BuildsFinished    uint64
	StrategyWidenings uint64
	LengthWidenings   uint64
	FastAppends       uint64
	SlowAppends       uint64
	StaleOps          uint64
	Expansions        uint64
	OpsCreated        uint64
	Uptime            time.Duration
}

// Deoptimizations returns the total number of widening events.
func (s MetricsSnapshot) Deoptimizations() uint64 {
	return s.StrategyWidenings + s.LengthWidenings
}

// SlowPathRatio returns the fraction of appends that took the slow path.
func (s MetricsSnapshot) SlowPathRatio() float64 {
	total := s.FastAppends + s.SlowAppends
	if total == 0 {
		return 0
	}
	return float64(s.SlowAppends) / float64(total)
}

// JSON renders the snapshot as a JSON object.
func (s MetricsSnapshot) JSON() ([]byte, error) {
	doc := []byte(`{}`)
	fields := []struct {
		path  string
		value any
	}{
		{"builds.started", s.BuildsStarted},
		{"builds.finished", s.BuildsFinished},
		{"widenings.strategy", s.StrategyWidenings},
		{"widenings.length", s.LengthWidenings},
		{"appends.fast", s.FastAppends},
		{"appends.slow", s.SlowAppends},
		{"appends.staleOps", s.StaleOps},
		{"appends.expansions", s.Expansions},
		{"opsCreated", s.OpsCreated},
		{"uptimeMs", s.Uptime.Milliseconds()},
	}

	var err error
	for _, f := range fields {
		doc, err = sjson.SetBytes(doc, f.path, f.value)
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

package generate

import (
	"slices"
	"sync"
	"time"
)

type call struct {
	at       time.Time
	duration int64 // ms
	failed   bool
}

// StatsSnapshot aggregates the generation calls still inside the window.
type StatsSnapshot struct {
	Count  int     `json:"count"`
	Failed int     `json:"failed"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// CallStats keeps a rolling window of generation call latencies.
type CallStats struct {
	mu     sync.Mutex
	calls  []call
	window time.Duration
	now    func() time.Time
}

func NewCallStats(window time.Duration) *CallStats {
	if window <= 0 {
		window = time.Hour
	}
	return &CallStats{
		calls:  make([]call, 0, 64),
		window: window,
		now:    time.Now,
	}
}

// Record adds a successful call.
func (s *CallStats) Record(durationMs int64) { s.add(durationMs, false) }

// RecordFailure adds a call that returned an error.
func (s *CallStats) RecordFailure(durationMs int64) { s.add(durationMs, true) }

func (s *CallStats) add(durationMs int64, failed bool) {
	if durationMs < 0 {
		durationMs = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expireLocked(now)
	s.calls = append(s.calls, call{at: now, duration: durationMs, failed: failed})
}

func (s *CallStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked(s.now())
	if len(s.calls) == 0 {
		return StatsSnapshot{}
	}

	snap := StatsSnapshot{Count: len(s.calls)}
	durations := make([]int64, len(s.calls))
	var total int64
	for i, c := range s.calls {
		durations[i] = c.duration
		total += c.duration
		if c.failed {
			snap.Failed++
		}
	}
	slices.Sort(durations)

	snap.MinMs = durations[0]
	snap.MaxMs = durations[len(durations)-1]
	snap.AvgMs = float64(total) / float64(len(durations))
	snap.P50Ms = percentile(durations, 50)
	snap.P95Ms = percentile(durations, 95)
	snap.P99Ms = percentile(durations, 99)
	return snap
}

// expireLocked drops calls older than the window. Calls are appended in
// time order, so the expired ones form a prefix.
func (s *CallStats) expireLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.calls) && s.calls[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.calls = append(s.calls[:0], s.calls[i:]...)
	}
}

// percentile interpolates linearly between the two closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + (float64(sorted[lo+1])-float64(sorted[lo]))*frac
}

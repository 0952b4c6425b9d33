package chat

import (
	"slices"
	"sync"
	"time"
)

// StatsSnapshot summarizes reply latencies (time to the end of the stream)
// over the stats window.
type StatsSnapshot struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
	Window string  `json:"window"`
}

type observation struct {
	at     time.Time
	millis int64
	failed bool
}

// Stats keeps chat call outcomes for a rolling window.
type Stats struct {
	mu     sync.Mutex
	obs    []observation
	window time.Duration
	now    func() time.Time
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{window: window, now: time.Now}
}

// Record adds one call. Failed calls count toward Errors but not latency.
func (s *Stats) Record(d time.Duration, err error) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.expireLocked(now)
	s.obs = append(s.obs, observation{at: now, millis: ms, failed: err != nil})
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(s.now())

	snap := StatsSnapshot{Window: s.window.String()}
	var latencies []int64
	var sum int64
	for _, o := range s.obs {
		if o.failed {
			snap.Errors++
			continue
		}
		latencies = append(latencies, o.millis)
		sum += o.millis
	}
	if len(latencies) == 0 {
		return snap
	}
	slices.Sort(latencies)

	snap.Count = len(latencies)
	snap.MinMs = latencies[0]
	snap.MaxMs = latencies[len(latencies)-1]
	snap.AvgMs = float64(sum) / float64(len(latencies))
	snap.P50Ms = interpolate(latencies, 0.50)
	snap.P95Ms = interpolate(latencies, 0.95)
	snap.P99Ms = interpolate(latencies, 0.99)
	return snap
}

func (s *Stats) expireLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.obs) && s.obs[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.obs = append(s.obs[:0], s.obs[i:]...)
	}
}

// interpolate returns the q-quantile of sorted values with linear
// interpolation between neighbors.
func interpolate(sorted []int64, q float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case q <= 0:
		return float64(sorted[0])
	case q >= 1:
		return float64(sorted[len(sorted)-1])
	}
	pos := float64(len(sorted)-1) * q
	lo := int(pos)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := pos - float64(lo)
	return float64(sorted[lo]) + (float64(sorted[lo+1])-float64(sorted[lo]))*frac
}

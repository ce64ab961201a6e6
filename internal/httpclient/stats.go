package httpclient

import "time"

// Stats accumulates request counts and latency for one goroutine's requests.
// A Stats value is never shared between concurrent tasks: each collector
// source and each verification worker owns its own, and the orchestrator
// merges them with Merge after all tasks have joined. That keeps the
// counters exact without any locking during the concurrent phase.
type Stats struct {
	Requests     int
	Successes    int
	Failures     int
	TotalLatency time.Duration
}

// Record adds one request outcome. Safe on a nil receiver (recording is
// optional for one-off probes).
func (s *Stats) Record(ok bool, latency time.Duration) {
	if s == nil {
		return
	}
	s.Requests++
	if ok {
		s.Successes++
	} else {
		s.Failures++
	}
	s.TotalLatency += latency
}

// Merge folds other into s. The single reduction point after a fan-out.
func (s *Stats) Merge(other Stats) {
	s.Requests += other.Requests
	s.Successes += other.Successes
	s.Failures += other.Failures
	s.TotalLatency += other.TotalLatency
}

// AvgLatency returns the mean latency across successful and failed requests.
func (s Stats) AvgLatency() time.Duration {
	if s.Requests == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Requests)
}

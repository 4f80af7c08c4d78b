package peer

import (
	"sync"
	"time"
)

// Stats accumulates round-trip samples. The zero value is ready to use.
type Stats struct {
	mu    sync.Mutex
	count int
	last  time.Duration
	min   time.Duration
	max   time.Duration
	total time.Duration
}

// Summary is a point-in-time copy of Stats.
type Summary struct {
	Samples int
	Last    time.Duration
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
}

func (s *Stats) Record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 || d < s.min {
		s.min = d
	}
	if d > s.max {
		s.max = d
	}
	s.count++
	s.last = d
	s.total += d
}

func (s *Stats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := Summary{Samples: s.count, Last: s.last, Min: s.min, Max: s.max}
	if s.count > 0 {
		sum.Avg = s.total / time.Duration(s.count)
	}
	return sum
}

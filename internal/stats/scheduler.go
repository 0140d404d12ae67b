package stats

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates one display refresh at 60Hz
const DefaultFrameInterval = 16 * time.Millisecond

// Scheduler runs fn once on a later tick. The returned cancel func prevents a
// pending call; it is safe to call more than once.
type Scheduler interface {
	Schedule(fn func(now time.Time)) (cancel func())
}

// Clock reports the current time
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock
var SystemClock Clock = systemClock{}

// FrameScheduler fires callbacks one frame interval after they are scheduled
type FrameScheduler struct {
	interval time.Duration
	clock    Clock
}

// NewFrameScheduler creates a scheduler ticking every interval. A non-positive
// interval selects DefaultFrameInterval.
func NewFrameScheduler(interval time.Duration) *FrameScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameScheduler{interval: interval, clock: SystemClock}
}

// Interval returns the frame interval
func (s *FrameScheduler) Interval() time.Duration { return s.interval }

// Schedule implements Scheduler
func (s *FrameScheduler) Schedule(fn func(now time.Time)) func() {
	t := time.AfterFunc(s.interval, func() {
		fn(s.clock.Now())
	})
	return func() { t.Stop() }
}

// ManualScheduler is a synchronous scheduler driven by explicit ticks over a
// virtual clock.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Time
	step    time.Duration
	pending []*manualEntry
}

type manualEntry struct {
	fn        func(time.Time)
	cancelled bool
}

// NewManualScheduler starts the virtual clock at start; every Tick advances it by step
func NewManualScheduler(start time.Time, step time.Duration) *ManualScheduler {
	return &ManualScheduler{now: start, step: step}
}

// Schedule implements Scheduler
func (s *ManualScheduler) Schedule(fn func(now time.Time)) func() {
	e := &manualEntry{fn: fn}

	s.mu.Lock()
	s.pending = append(s.pending, e)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		e.cancelled = true
		s.mu.Unlock()
	}
}

// Now returns the virtual time
func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of live callbacks waiting for the next tick
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.pending {
		if !e.cancelled {
			n++
		}
	}
	return n
}

// Tick advances the clock by one step and runs every callback queued before
// the tick. Callbacks scheduled while ticking wait for the next tick.
// It returns the number of callbacks run.
func (s *ManualScheduler) Tick() int {
	return s.Advance(s.step)
}

// Advance moves the clock forward by d and runs the queued callbacks
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	s.now = s.now.Add(d)
	now := s.now
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	ran := 0
	for _, e := range batch {
		s.mu.Lock()
		cancelled := e.cancelled
		s.mu.Unlock()
		if cancelled {
			continue
		}
		e.fn(now)
		ran++
	}
	return ran
}

// RunUntilIdle ticks until nothing is pending or maxTicks is reached and
// returns the number of ticks taken.
func (s *ManualScheduler) RunUntilIdle(maxTicks int) int {
	ticks := 0
	for ticks < maxTicks && s.Pending() > 0 {
		s.Tick()
		ticks++
	}
	return ticks
}

package stats

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrAlreadyStarted is returned when Start is called a second time
var ErrAlreadyStarted = errors.New("stats: animation already started")

// Frame is one value of a count-up animation
type Frame struct {
	Value float64 `json:"value"`
	Text  string  `json:"text"`
	Final bool    `json:"final"`
}

// EaseOutCubic maps progress t to 1-(1-t)^3 with t clamped to [0,1]
func EaseOutCubic(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	inv := 1 - t
	return 1 - inv*inv*inv
}

// Option configures an Animation
type Option func(*Animation)

// WithScheduler sets the tick source. The default is a FrameScheduler at
// DefaultFrameInterval.
func WithScheduler(s Scheduler) Option {
	return func(a *Animation) { a.scheduler = s }
}

// WithReducedMotion skips intermediate frames and emits only the final value
func WithReducedMotion(reduced bool) Option {
	return func(a *Animation) { a.reducedMotion = reduced }
}

// Animation counts a ParsedStat up from zero. It runs at most once.
type Animation struct {
	ctx           context.Context
	stat          ParsedStat
	duration      time.Duration
	scheduler     Scheduler
	reducedMotion bool

	started atomic.Bool
	stopped atomic.Bool

	// mu serializes ticks and guards the emission state
	mu      sync.Mutex
	emit    func(Frame)
	start   time.Time
	last    float64
	emitted bool

	pendingMu sync.Mutex
	cancel    func()
	stopCtx   func() bool

	done     chan struct{}
	doneOnce sync.Once
}

// Animate prepares a count-up of stat over durationMs milliseconds. Nothing
// is emitted until Start. Cancelling ctx stops the animation.
func Animate(ctx context.Context, stat ParsedStat, durationMs int, opts ...Option) *Animation {
	a := &Animation{
		ctx:      ctx,
		stat:     stat,
		duration: time.Duration(durationMs) * time.Millisecond,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.scheduler == nil {
		a.scheduler = NewFrameScheduler(DefaultFrameInterval)
	}
	return a
}

// Start begins emitting frames to emit. Frames are delivered one at a time,
// values strictly increase, and the last frame carries exactly the target
// with Final set. With reduced motion, a non-positive duration or a zero
// target, the final frame is delivered before Start returns.
func (a *Animation) Start(emit func(Frame)) error {
	if !a.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	if err := a.ctx.Err(); err != nil {
		a.stopped.Store(true)
		a.finish()
		return err
	}

	a.mu.Lock()
	a.emit = emit
	a.mu.Unlock()

	if a.reducedMotion || a.duration <= 0 || a.stat.Number <= 0 {
		a.mu.Lock()
		a.deliverLocked(a.stat.Number, true)
		a.mu.Unlock()
		a.finish()
		return nil
	}

	stopCtx := context.AfterFunc(a.ctx, a.Stop)
	a.pendingMu.Lock()
	a.stopCtx = stopCtx
	a.pendingMu.Unlock()
	a.scheduleNext()
	return nil
}

// Stop cancels the animation. No frame begins after Stop returns; it may be
// called from within the frame callback and more than once.
func (a *Animation) Stop() {
	if a.stopped.Swap(true) {
		return
	}
	a.pendingMu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.pendingMu.Unlock()
	if cancel != nil {
		cancel()
	}
	a.finish()
}

// Done is closed when the final frame has been delivered or the animation
// was stopped.
func (a *Animation) Done() <-chan struct{} {
	return a.done
}

// Duration returns the configured animation length
func (a *Animation) Duration() time.Duration {
	return a.duration
}

func (a *Animation) scheduleNext() {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	if a.stopped.Load() {
		return
	}
	a.cancel = a.scheduler.Schedule(a.tick)
}

func (a *Animation) tick(now time.Time) {
	a.mu.Lock()
	if a.stopped.Load() {
		a.mu.Unlock()
		return
	}
	if a.start.IsZero() {
		a.start = now
	}

	progress := float64(now.Sub(a.start)) / float64(a.duration)
	if progress >= 1 {
		a.deliverLocked(a.stat.Number, true)
		a.mu.Unlock()
		a.finish()
		return
	}

	v := a.stat.Number * EaseOutCubic(progress)
	if (!a.emitted || v > a.last) && v < a.stat.Number {
		a.deliverLocked(v, false)
	}
	a.mu.Unlock()

	a.scheduleNext()
}

// deliverLocked emits one frame. The final frame claims the stopped flag so
// that it and a concurrent Stop cannot both win.
func (a *Animation) deliverLocked(v float64, final bool) {
	if final {
		if !a.stopped.CompareAndSwap(false, true) {
			return
		}
	} else if a.stopped.Load() {
		return
	}
	a.last = v
	a.emitted = true
	if a.emit != nil {
		a.emit(Frame{Value: v, Text: a.stat.Format(v), Final: final})
	}
}

func (a *Animation) finish() {
	a.doneOnce.Do(func() {
		a.stopped.Store(true)
		a.pendingMu.Lock()
		stopCtx := a.stopCtx
		a.pendingMu.Unlock()
		if stopCtx != nil {
			stopCtx()
		}
		close(a.done)
	})
}

package stats

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameRecorder struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *frameRecorder) record(f Frame) {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
}

func (r *frameRecorder) snapshot() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

func mustParse(t *testing.T, s string) ParsedStat {
	t.Helper()
	p, ok := Parse(s)
	require.True(t, ok)
	return p
}

func newManual() *ManualScheduler {
	return NewManualScheduler(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 16*time.Millisecond)
}

func TestEaseOutCubic(t *testing.T) {
	assert.Equal(t, 0.0, EaseOutCubic(0))
	assert.Equal(t, 0.0, EaseOutCubic(-3))
	assert.Equal(t, 1.0, EaseOutCubic(1))
	assert.Equal(t, 1.0, EaseOutCubic(2))
	assert.InDelta(t, 0.875, EaseOutCubic(0.5), 1e-12)
}

func TestAnimate_CountsUpToExactTarget(t *testing.T) {
	sched := newManual()
	stat := mustParse(t, "1,340 MMT")
	rec := &frameRecorder{}

	anim := Animate(context.Background(), stat, 1000, WithScheduler(sched))
	require.NoError(t, anim.Start(rec.record))

	ticks := sched.RunUntilIdle(1000)
	assert.Less(t, ticks, 1000)

	frames := rec.snapshot()
	require.Greater(t, len(frames), 2)

	assert.Equal(t, 0.0, frames[0].Value)
	last := frames[len(frames)-1]
	assert.True(t, last.Final)
	assert.Equal(t, 1340.0, last.Value)
	assert.Equal(t, "1,340 MMT", last.Text)

	for i := 1; i < len(frames); i++ {
		assert.Greater(t, frames[i].Value, frames[i-1].Value, "frame %d", i)
		assert.LessOrEqual(t, frames[i].Value, 1340.0)
		if i < len(frames)-1 {
			assert.False(t, frames[i].Final)
		}
	}

	select {
	case <-anim.Done():
	default:
		t.Fatal("animation should be done")
	}
}

func TestAnimate_FramesKeepFractionalDigits(t *testing.T) {
	sched := newManual()
	rec := &frameRecorder{}

	anim := Animate(context.Background(), mustParse(t, "12.4"), 200, WithScheduler(sched))
	require.NoError(t, anim.Start(rec.record))
	sched.RunUntilIdle(100)

	for _, f := range rec.snapshot() {
		assert.Regexp(t, `^\d+\.\d$`, f.Text)
	}
}

func TestAnimate_ReducedMotionEmitsOnlyFinal(t *testing.T) {
	sched := newManual()
	rec := &frameRecorder{}

	anim := Animate(context.Background(), mustParse(t, "$2.28/MMBtu"), 1500,
		WithScheduler(sched), WithReducedMotion(true))
	require.NoError(t, anim.Start(rec.record))

	assert.Equal(t, []Frame{{Value: 2.28, Text: "$2.28/MMBtu", Final: true}}, rec.snapshot())
	assert.Equal(t, 0, sched.Pending())
	<-anim.Done()
}

func TestAnimate_NonPositiveDurationEmitsOnlyFinal(t *testing.T) {
	for _, d := range []int{0, -10} {
		rec := &frameRecorder{}
		anim := Animate(context.Background(), mustParse(t, "3x increase"), d, WithScheduler(newManual()))
		require.NoError(t, anim.Start(rec.record))

		assert.Equal(t, []Frame{{Value: 3, Text: "3x increase", Final: true}}, rec.snapshot())
	}
}

func TestAnimate_ZeroTarget(t *testing.T) {
	rec := &frameRecorder{}
	anim := Animate(context.Background(), mustParse(t, "0 outages"), 1000, WithScheduler(newManual()))
	require.NoError(t, anim.Start(rec.record))

	assert.Equal(t, []Frame{{Value: 0, Text: "0 outages", Final: true}}, rec.snapshot())
}

func TestAnimate_NotRestartable(t *testing.T) {
	sched := newManual()
	anim := Animate(context.Background(), mustParse(t, "12.4"), 100, WithScheduler(sched))

	require.NoError(t, anim.Start(func(Frame) {}))
	assert.ErrorIs(t, anim.Start(func(Frame) {}), ErrAlreadyStarted)

	sched.RunUntilIdle(100)
	assert.ErrorIs(t, anim.Start(func(Frame) {}), ErrAlreadyStarted)
}

func TestAnimate_StopHaltsEmission(t *testing.T) {
	sched := newManual()
	rec := &frameRecorder{}

	anim := Animate(context.Background(), mustParse(t, "1,340 MMT"), 1000, WithScheduler(sched))
	require.NoError(t, anim.Start(rec.record))

	for i := 0; i < 5; i++ {
		sched.Tick()
	}
	anim.Stop()
	anim.Stop()
	emitted := len(rec.snapshot())

	sched.RunUntilIdle(100)
	assert.Len(t, rec.snapshot(), emitted)
	assert.Equal(t, 0, sched.Pending())
	for _, f := range rec.snapshot() {
		assert.False(t, f.Final)
	}
	<-anim.Done()
}

func TestAnimate_StopBeforeFinalFrame(t *testing.T) {
	sched := newManual()
	rec := &frameRecorder{}

	anim := Animate(context.Background(), mustParse(t, "42%"), 1000, WithScheduler(sched))
	require.NoError(t, anim.Start(rec.record))
	sched.Tick()
	emitted := len(rec.snapshot())

	// A tick that already passed its stopped check when Stop lands
	anim.mu.Lock()
	anim.Stop()
	anim.deliverLocked(anim.stat.Number, true)
	anim.mu.Unlock()

	assert.Len(t, rec.snapshot(), emitted)
	for _, f := range rec.snapshot() {
		assert.False(t, f.Final)
	}
	<-anim.Done()
}

func TestAnimate_StopAfterFinalFrameIsNoop(t *testing.T) {
	rec := &frameRecorder{}
	anim := Animate(context.Background(), mustParse(t, "42%"), 0)
	require.NoError(t, anim.Start(rec.record))

	anim.Stop()
	frames := rec.snapshot()
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Final)
	assert.Equal(t, 42.0, frames[0].Value)
}

func TestAnimate_StopFromCallback(t *testing.T) {
	sched := newManual()
	var frames int

	var anim *Animation
	anim = Animate(context.Background(), mustParse(t, "1,340 MMT"), 1000, WithScheduler(sched))
	require.NoError(t, anim.Start(func(Frame) {
		frames++
		if frames == 3 {
			anim.Stop()
		}
	}))

	sched.RunUntilIdle(1000)
	assert.Equal(t, 3, frames)
}

func TestAnimate_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sched := newManual()
	rec := &frameRecorder{}

	anim := Animate(ctx, mustParse(t, "1,340 MMT"), 1000, WithScheduler(sched))
	require.NoError(t, anim.Start(rec.record))
	sched.Tick()
	sched.Tick()

	cancel()
	select {
	case <-anim.Done():
	case <-time.After(time.Second):
		t.Fatal("animation did not stop after cancel")
	}

	emitted := len(rec.snapshot())
	sched.RunUntilIdle(100)
	assert.Len(t, rec.snapshot(), emitted)
}

func TestAnimate_StartWithCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &frameRecorder{}
	anim := Animate(ctx, mustParse(t, "12.4"), 100, WithScheduler(newManual()))

	assert.ErrorIs(t, anim.Start(rec.record), context.Canceled)
	assert.Empty(t, rec.snapshot())
	<-anim.Done()
}

func TestAnimate_FrameScheduler(t *testing.T) {
	rec := &frameRecorder{}
	anim := Animate(context.Background(), mustParse(t, "550 min"), 60,
		WithScheduler(NewFrameScheduler(2*time.Millisecond)))
	require.NoError(t, anim.Start(rec.record))

	select {
	case <-anim.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("animation did not finish")
	}

	frames := rec.snapshot()
	require.NotEmpty(t, frames)
	assert.Equal(t, Frame{Value: 550, Text: "550 min", Final: true}, frames[len(frames)-1])
}

func TestManualScheduler_Cancel(t *testing.T) {
	sched := newManual()
	calls := 0
	cancel := sched.Schedule(func(time.Time) { calls++ })
	sched.Schedule(func(time.Time) { calls++ })

	cancel()
	cancel()
	assert.Equal(t, 1, sched.Pending())
	assert.Equal(t, 1, sched.Tick())
	assert.Equal(t, 1, calls)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 16_000_000, time.UTC), sched.Now())
}

func TestFrameScheduler_DefaultInterval(t *testing.T) {
	assert.Equal(t, DefaultFrameInterval, NewFrameScheduler(0).Interval())
	assert.Equal(t, 5*time.Millisecond, NewFrameScheduler(5*time.Millisecond).Interval())
}

package transport

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cbegin/neonbeat-go/internal/pattern"
)

// timerClock reads manual timer time plus an adjustable offset.
type timerClock struct {
	m      *ManualTimers
	offset float64
}

func (c *timerClock) Now() float64 { return c.offset + c.m.Elapsed().Seconds() }

type hit struct {
	tr pattern.Trigger
	at float64
}

type rig struct {
	timers *ManualTimers
	clock  *timerClock
	tr     *Transport
	hits   []hit
	steps  []int
	times  []float64
}

func newRig(t *testing.T, opts Options) *rig {
	t.Helper()
	r := &rig{timers: NewManualTimers()}
	r.clock = &timerClock{m: r.timers}
	opts.Clock = r.clock
	if opts.Timers == nil {
		opts.Timers = r.timers
	}
	opts.OnTrigger = func(tr pattern.Trigger, at float64) { r.hits = append(r.hits, hit{tr, at}) }
	opts.OnStep = func(step int, at float64) {
		r.steps = append(r.steps, step)
		r.times = append(r.times, at)
	}
	tr, err := New(pattern.Groove{Root: 36}, opts)
	if err != nil {
		t.Fatal(err)
	}
	r.tr = tr
	return r
}

func (r *rig) kicks() []float64 {
	var out []float64
	for _, h := range r.hits {
		if h.tr.Instrument == pattern.Kick {
			out = append(out, h.at)
		}
	}
	return out
}

func TestKickTimesAt110BPM(t *testing.T) {
	r := newRig(t, Options{Tempo: 110})
	r.tr.Start()
	r.timers.Advance(2 * time.Second)

	want := []float64{0, 0.5455, 1.0909, 1.6364}
	got := r.kicks()
	if len(got) != len(want) {
		t.Fatalf("kicks = %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-4 {
			t.Errorf("kick %d at %.4f, want %.4f", i, got[i], want[i])
		}
	}
	if math.Abs(r.times[1]-0.1364) > 1e-4 {
		t.Errorf("step 1 at %.4f, want 0.1364", r.times[1])
	}
}

func TestStepSpacingAndPeriod(t *testing.T) {
	for _, bpm := range []float64{60, 110, 174.5} {
		r := newRig(t, Options{Tempo: bpm})
		r.tr.Start()
		r.timers.Advance(12 * time.Second)

		dur := 60 / bpm * 0.25
		if got := r.tr.StepDuration(); got != dur {
			t.Fatalf("StepDuration() = %v, want %v", got, dur)
		}
		if len(r.steps) < 40 {
			t.Fatalf("bpm %v: only %d steps", bpm, len(r.steps))
		}
		for i := range r.steps {
			if r.steps[i] != i%pattern.Steps {
				t.Fatalf("bpm %v: step %d is %d", bpm, i, r.steps[i])
			}
			if i > 0 {
				if d := r.times[i] - r.times[i-1]; math.Abs(d-dur) > 1e-9 {
					t.Fatalf("bpm %v: spacing %v at step %d, want %v", bpm, d, i, dur)
				}
			}
		}
	}
}

// jitterTimers delays every callback by an extra, varying amount.
type jitterTimers struct {
	*ManualTimers
	n int
}

func (j *jitterTimers) AfterFunc(d time.Duration, f func()) Timer {
	j.n++
	extra := time.Duration((j.n*7919)%20) * time.Millisecond
	return j.ManualTimers.AfterFunc(d+extra, f)
}

func TestScheduleIndependentOfPolling(t *testing.T) {
	ref := newRig(t, Options{})
	ref.tr.Start()
	ref.timers.Advance(3 * time.Second)

	for _, poll := range []time.Duration{5 * time.Millisecond, 60 * time.Millisecond} {
		r := newRig(t, Options{PollInterval: poll})
		r.tr.Start()
		r.timers.Advance(3 * time.Second)
		compareTimes(t, ref.times, r.times)
	}

	j := &jitterTimers{ManualTimers: NewManualTimers()}
	r := newRig(t, Options{Timers: j})
	r.clock.m = j.ManualTimers
	r.tr.Start()
	j.Advance(3 * time.Second)
	compareTimes(t, ref.times, r.times)
	if r.tr.Skipped() != 0 {
		t.Fatalf("jitter within the lookahead should not skip steps, skipped %d", r.tr.Skipped())
	}
}

func compareTimes(t *testing.T, want, got []float64) {
	t.Helper()
	n := min(len(want), len(got))
	if n < 20 {
		t.Fatalf("too few steps to compare: %d vs %d", len(want), len(got))
	}
	for i := 0; i < n; i++ {
		if math.Abs(want[i]-got[i]) > 1e-9 {
			t.Fatalf("step %d at %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStartIsIdempotent(t *testing.T) {
	r := newRig(t, Options{})
	if !r.tr.Start() {
		t.Fatal("first Start should report true")
	}
	first := len(r.hits)
	if r.tr.Start() {
		t.Fatal("second Start should be a no-op")
	}
	if len(r.hits) != first {
		t.Fatal("second Start scheduled extra triggers")
	}
	if r.timers.Pending() != 1 {
		t.Fatalf("pending timers = %d, want 1", r.timers.Pending())
	}
}

func TestStopHaltsScheduling(t *testing.T) {
	r := newRig(t, Options{})
	r.tr.Start()
	r.timers.Advance(50 * time.Millisecond)
	n := len(r.hits)
	r.tr.Stop()
	if r.tr.Running() {
		t.Fatal("still running after Stop")
	}
	if r.timers.Pending() != 0 {
		t.Fatalf("pending timers after Stop = %d", r.timers.Pending())
	}
	r.timers.Advance(time.Second)
	if len(r.hits) != n {
		t.Fatalf("%d triggers after Stop", len(r.hits)-n)
	}
	r.tr.Stop()
}

// leakyTimers never cancels, so stale callbacks still fire.
type leakyTimers struct{ *ManualTimers }

type leaked struct{}

func (leaked) Stop() bool { return false }

func (l leakyTimers) AfterFunc(d time.Duration, f func()) Timer {
	l.ManualTimers.AfterFunc(d, f)
	return leaked{}
}

func TestRestartNeverRunsTwoLoops(t *testing.T) {
	m := NewManualTimers()
	r := newRig(t, Options{Timers: leakyTimers{m}})
	r.clock.m = m
	r.tr.Start()
	r.tr.Stop()
	r.tr.Start()
	if m.Pending() != 2 {
		t.Fatalf("expected the stale timer to remain armed, pending %d", m.Pending())
	}
	r.hits, r.steps, r.times = nil, nil, nil
	m.Advance(time.Second)
	for i := 1; i < len(r.times); i++ {
		if r.times[i] <= r.times[i-1] {
			t.Fatalf("step %d at %v not after %v: two loops are running", i, r.times[i], r.times[i-1])
		}
	}
}

func TestRestartBeginsAtStepZero(t *testing.T) {
	r := newRig(t, Options{})
	r.tr.Start()
	r.timers.Advance(300 * time.Millisecond)
	r.tr.Stop()
	r.timers.Advance(time.Second)
	r.steps, r.times = nil, nil
	r.tr.Start()
	if r.steps[0] != 0 {
		t.Fatalf("restart began at step %d", r.steps[0])
	}
	if math.Abs(r.times[0]-1.3) > 1e-9 {
		t.Fatalf("restart began at %v, want the clock time 1.3", r.times[0])
	}
}

func TestLatePassSkipsStaleSteps(t *testing.T) {
	r := newRig(t, Options{})
	r.tr.Start()
	r.timers.Advance(100 * time.Millisecond)
	before := len(r.times)

	r.clock.offset = 1
	r.timers.Advance(25 * time.Millisecond)
	now := r.clock.Now()

	if got := r.tr.Skipped(); got != 7 {
		t.Fatalf("skipped = %d, want 7", got)
	}
	if r.tr.Step() != 9 {
		t.Fatalf("step = %d, want 9", r.tr.Step())
	}
	if next := r.tr.NextNoteTime(); next < now-DefaultPollInterval.Seconds() {
		t.Fatalf("next note %v fell behind the clock %v", next, now)
	}
	for _, at := range r.times[before:] {
		if at < now-DefaultPollInterval.Seconds() {
			t.Fatalf("late step at %v dispatched at %v", at, now)
		}
	}
}

func TestTempoValidation(t *testing.T) {
	if _, err := New(nil, Options{Tempo: -1}); !errors.Is(err, ErrInvalidTempo) {
		t.Fatalf("New with negative tempo: %v", err)
	}
	tr, err := New(nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Tempo() != DefaultTempo {
		t.Fatalf("default tempo = %v", tr.Tempo())
	}
	if err := tr.SetTempo(0); !errors.Is(err, ErrInvalidTempo) {
		t.Fatalf("SetTempo(0): %v", err)
	}
	if err := tr.SetTempo(120); err != nil {
		t.Fatal(err)
	}
	if tr.StepDuration() != 0.125 {
		t.Fatalf("step at 120 BPM = %v", tr.StepDuration())
	}
	if err := tr.SetTempo(MaxTempo); err != nil {
		t.Fatalf("SetTempo(MaxTempo): %v", err)
	}

	bad := []struct {
		name string
		bpm  float64
	}{
		{"nan", math.NaN()},
		{"+inf", math.Inf(1)},
		{"-inf", math.Inf(-1)},
		{"over cap", MaxTempo + 1},
		{"huge", 1e9},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(nil, Options{Tempo: tc.bpm}); !errors.Is(err, ErrInvalidTempo) {
				t.Errorf("New(%v): %v", tc.bpm, err)
			}
			if err := tr.SetTempo(tc.bpm); !errors.Is(err, ErrInvalidTempo) {
				t.Errorf("SetTempo(%v): %v", tc.bpm, err)
			}
			if tr.Tempo() != MaxTempo {
				t.Errorf("tempo changed to %v", tr.Tempo())
			}
		})
	}
}

func TestStartAtMaxTempoReturns(t *testing.T) {
	timers := NewManualTimers()
	var kicks int
	tr, err := New(nil, Options{
		Tempo:  MaxTempo,
		Clock:  &timerClock{m: timers},
		Timers: timers,
		OnTrigger: func(trig pattern.Trigger, at float64) {
			if trig.Instrument == pattern.Kick {
				kicks++
			}
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		tr.Start()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return")
	}
	// 0.1 s of lookahead at 0.015 s per step.
	if tr.Step() != 7 {
		t.Fatalf("step = %d, want 7", tr.Step())
	}
	if kicks != 2 {
		t.Fatalf("kicks = %d, want 2", kicks)
	}
	tr.Stop()
}

func TestManualTimersOrdering(t *testing.T) {
	m := NewManualTimers()
	var order []int
	m.AfterFunc(20*time.Millisecond, func() { order = append(order, 2) })
	m.AfterFunc(10*time.Millisecond, func() {
		order = append(order, 1)
		m.AfterFunc(5*time.Millisecond, func() { order = append(order, 15) })
	})
	stopped := m.AfterFunc(12*time.Millisecond, func() { order = append(order, 99) })
	if !stopped.Stop() {
		t.Fatal("Stop on a pending timer should report true")
	}
	if n := m.Advance(30 * time.Millisecond); n != 3 {
		t.Fatalf("fired %d, want 3", n)
	}
	want := []int{1, 15, 2}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if m.Elapsed() != 30*time.Millisecond {
		t.Fatalf("elapsed = %v", m.Elapsed())
	}
}

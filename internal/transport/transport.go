// Package transport runs the lookahead step scheduler. A coarse wall-clock
// timer decides when to look; every note is stamped with an exact time on
// the audio clock, a sixteenth note after the previous one.
package transport

import (
	"errors"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cbegin/neonbeat-go/internal/pattern"
)

const (
	DefaultTempo        = 110.0
	DefaultLookahead    = 0.1
	DefaultPollInterval = 25 * time.Millisecond

	// MaxTempo bounds the number of steps one pass can schedule.
	MaxTempo = 1000.0
)

var ErrInvalidTempo = errors.New("tempo must be a finite BPM in (0, 1000]")

// ValidTempo reports whether bpm can drive the scheduler.
func ValidTempo(bpm float64) bool {
	return bpm > 0 && bpm <= MaxTempo && !math.IsNaN(bpm) && !math.IsInf(bpm, 0)
}

type Options struct {
	Tempo        float64       // beats per minute
	Lookahead    float64       // seconds scheduled ahead of the clock
	PollInterval time.Duration // wall-clock period between scheduling passes

	Clock  Clock  // defaults to wall time since New
	Timers Timers // defaults to RealTimers

	// OnTrigger receives every trigger with its absolute start time.
	// OnStep is called once per scheduled step after its triggers. Both run
	// with the transport locked and must not call back into it.
	OnTrigger func(tr pattern.Trigger, at float64)
	OnStep    func(step int, at float64)

	Logger *log.Logger
}

type Transport struct {
	mu      sync.Mutex
	table   pattern.Table
	opts    Options
	running bool
	step    int
	next    float64
	gen     uint64
	timer   Timer
	skipped int
}

// New returns a stopped transport. Zero-valued options take their defaults.
func New(table pattern.Table, opts Options) (*Transport, error) {
	if opts.Tempo == 0 {
		opts.Tempo = DefaultTempo
	}
	if !ValidTempo(opts.Tempo) {
		return nil, ErrInvalidTempo
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = DefaultLookahead
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = wallClock{start: time.Now()}
	}
	if opts.Timers == nil {
		opts.Timers = RealTimers{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if table == nil {
		table = pattern.Groove{Root: pattern.DefaultRoot}
	}
	return &Transport{table: table, opts: opts}, nil
}

// Start begins scheduling from step 0 at the current clock time and runs
// the first pass immediately. It returns false if already running.
func (t *Transport) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return false
	}
	t.running = true
	t.step = 0
	t.next = t.opts.Clock.Now()
	t.gen++
	t.opts.Logger.Debug("transport started", "tempo", t.opts.Tempo, "at", t.next)
	t.passLocked(t.gen)
	return true
}

// Stop cancels the pending pass. Triggers already handed out are not
// recalled.
func (t *Transport) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.opts.Logger.Debug("transport stopped", "step", t.step, "next", t.next)
}

func (t *Transport) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Step returns the next step to be scheduled.
func (t *Transport) Step() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.step
}

// NextNoteTime returns the clock time of the next step to be scheduled.
func (t *Transport) NextNoteTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}

func (t *Transport) Tempo() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opts.Tempo
}

// StepDuration is the length of a sixteenth note at the current tempo.
func (t *Transport) StepDuration() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return stepDuration(t.opts.Tempo)
}

// SetTempo changes the tempo from the next unscheduled step on.
func (t *Transport) SetTempo(bpm float64) error {
	if !ValidTempo(bpm) {
		return ErrInvalidTempo
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opts.Tempo = bpm
	return nil
}

// Skipped returns how many steps were dropped because the pass ran late.
func (t *Transport) Skipped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.skipped
}

func stepDuration(bpm float64) float64 { return 60 / bpm * 0.25 }

func (t *Transport) pass(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.passLocked(gen)
}

// passLocked schedules every step whose time falls inside the lookahead
// window, then re-arms the timer. A pass from a cancelled timer is a no-op.
func (t *Transport) passLocked(gen uint64) {
	if !t.running || gen != t.gen {
		return
	}
	now := t.opts.Clock.Now()
	late := now - t.opts.PollInterval.Seconds()
	dur := stepDuration(t.opts.Tempo)
	skipped := 0
	for t.next < now+t.opts.Lookahead {
		if t.next < late {
			skipped++
		} else {
			t.dispatch(t.step, t.next)
		}
		t.next += dur
		t.step = pattern.Wrap(t.step + 1)
	}
	if skipped > 0 {
		t.skipped += skipped
		t.opts.Logger.Debug("transport fell behind", "skipped", skipped, "now", now)
	}
	t.timer = t.opts.Timers.AfterFunc(t.opts.PollInterval, func() { t.pass(gen) })
}

func (t *Transport) dispatch(step int, at float64) {
	if t.opts.OnTrigger != nil {
		for _, tr := range t.table.TriggersFor(step) {
			t.opts.OnTrigger(tr, at)
		}
	}
	if t.opts.OnStep != nil {
		t.opts.OnStep(step, at)
	}
}

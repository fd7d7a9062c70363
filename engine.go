package neonbeat

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	intaudio "github.com/cbegin/neonbeat-go/internal/audio"
	"github.com/cbegin/neonbeat-go/internal/config"
	intfx "github.com/cbegin/neonbeat-go/internal/effects"
	"github.com/cbegin/neonbeat-go/internal/mixer"
	"github.com/cbegin/neonbeat-go/internal/pattern"
	"github.com/cbegin/neonbeat-go/internal/synth"
	"github.com/cbegin/neonbeat-go/internal/transport"
)

// BeatEvent carries transport events from Watch().
type BeatEvent struct {
	Kind int     // EventDownbeat, EventStarted or EventStopped
	Step int     // step index for EventDownbeat
	Time float64 // audio clock time the event refers to
}

const (
	EventDownbeat int = iota
	EventStarted
	EventStopped
)

var ErrUnknownDrone = errors.New("unknown drone")

type Option func(*engineConfig)

type engineConfig struct {
	cfg       config.Config
	volume    float64
	logger    *log.Logger
	backend   intaudio.Backend
	timers    transport.Timers
	sampleTap func([]float32)
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		cfg:     config.Default(),
		volume:  1,
		backend: intaudio.Ebiten{},
		timers:  transport.RealTimers{},
	}
}

// WithConfig replaces the whole configuration. Options applied after it
// still override single fields.
func WithConfig(cfg config.Config) Option {
	return func(ec *engineConfig) { ec.cfg = cfg }
}

func WithTempo(bpm float64) Option {
	return func(ec *engineConfig) { ec.cfg.Tempo = bpm }
}

// WithRootNote sets the MIDI note the pattern's bass line is built on.
func WithRootNote(note int) Option {
	return func(ec *engineConfig) { ec.cfg.RootNote = note }
}

func WithPattern(name string) Option {
	return func(ec *engineConfig) { ec.cfg.Pattern = name }
}

func WithSampleRate(hz int) Option {
	return func(ec *engineConfig) { ec.cfg.SampleRate = hz }
}

func WithLookahead(d time.Duration) Option {
	return func(ec *engineConfig) { ec.cfg.LookaheadSeconds = d.Seconds() }
}

func WithPollInterval(d time.Duration) Option {
	return func(ec *engineConfig) { ec.cfg.PollIntervalMs = float64(d) / float64(time.Millisecond) }
}

// WithSFXBank selects the game whose cues PlaySFX looks up first.
func WithSFXBank(name string) Option {
	return func(ec *engineConfig) { ec.cfg.SFXBank = name }
}

func WithMasterVolume(v float64) Option {
	return func(ec *engineConfig) { ec.volume = max(v, 0) }
}

func WithLogger(l *log.Logger) Option {
	return func(ec *engineConfig) { ec.logger = l }
}

// WithBackend replaces the ebiten audio backend.
func WithBackend(b intaudio.Backend) Option {
	return func(ec *engineConfig) { ec.backend = b }
}

// WithTimers replaces the wall-clock timers driving the scheduler.
func WithTimers(t transport.Timers) Option {
	return func(ec *engineConfig) { ec.timers = t }
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) Option {
	return func(ec *engineConfig) { ec.sampleTap = tap }
}

// Engine is one beat scheduler session: create, Init, Start/Stop, Dispose.
// Audio failures never surface from its methods; the engine goes silent
// instead.
type Engine struct {
	mu        sync.Mutex
	cfg       config.Config
	logger    *log.Logger
	backend   intaudio.Backend
	timers    transport.Timers
	sampleTap func([]float32)
	table     pattern.Table
	synth     *synth.Synth
	masterEQ  *intfx.EQ5Band
	volume    float64
	muted     bool

	initialized bool
	disposed    bool
	mixer       *mixer.Mixer
	out         intaudio.Output
	transport   *transport.Transport
	drone       *synth.Drone
	bgm         *synth.Drone

	eventCh   chan BeatEvent
	eventChMu sync.Mutex
}

// NewEngine validates the configuration. No audio resources are created
// until Init.
func NewEngine(opts ...Option) (*Engine, error) {
	ec := defaultEngineConfig()
	for _, opt := range opts {
		opt(&ec)
	}
	if err := ec.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	table, err := pattern.ByName(ec.cfg.Pattern, ec.cfg.RootNote)
	if err != nil {
		return nil, err
	}
	if ec.logger == nil {
		ec.logger = log.New(io.Discard)
	}
	if ec.backend == nil {
		ec.backend = intaudio.Ebiten{}
	}
	if ec.timers == nil {
		ec.timers = transport.RealTimers{}
	}
	return &Engine{
		cfg:       ec.cfg,
		logger:    ec.logger,
		backend:   ec.backend,
		timers:    ec.timers,
		sampleTap: ec.sampleTap,
		table:     table,
		synth:     synth.New(ec.cfg.SampleRate),
		masterEQ:  intfx.NewEQ5Band(ec.cfg.SampleRate),
		volume:    ec.volume,
	}, nil
}

// Config returns the validated configuration the engine was built with.
func (e *Engine) Config() config.Config { return e.cfg }

// Init creates the output graph and opens the audio stream. It is safe to
// call more than once. If the audio device cannot be opened the engine stays
// silent and every playback method becomes a no-op until a later Init or
// Start opens it.
func (e *Engine) Init() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initLocked()
}

func (e *Engine) initLocked() {
	if e.initialized || e.disposed {
		return
	}

	chain, err := intfx.Build(e.cfg.Effects, e.cfg.SampleRate)
	if err != nil {
		e.logger.Warn("master effects disabled", "error", err)
		chain = nil
	}
	mx := mixer.New(e.cfg.SampleRate, mixer.Options{
		MasterGain: e.cfg.MasterGain * e.volume,
		Limiter:    e.cfg.Limiter.Params(),
		Effects:    chain,
		EQ:         e.masterEQ,
		Tap:        e.sampleTap,
	})
	mx.SetMuted(e.muted)

	tr, err := transport.New(e.table, transport.Options{
		Tempo:        e.cfg.Tempo,
		Lookahead:    e.cfg.LookaheadSeconds,
		PollInterval: e.cfg.PollInterval(),
		Clock:        mx,
		Timers:       e.timers,
		OnTrigger:    e.trigger,
		OnStep:       e.step,
		Logger:       e.logger,
	})
	if err != nil {
		e.logger.Warn("transport unavailable", "error", err)
		return
	}

	out, err := e.backend.Open(e.cfg.SampleRate, mx)
	if err != nil {
		e.logger.Warn("audio unavailable, running silent", "error", err)
		return
	}
	e.initialized = true
	e.mixer = mx
	e.transport = tr
	e.out = out
	e.logger.Info("audio initialized", "sample_rate", e.cfg.SampleRate, "tempo", e.cfg.Tempo, "pattern", e.cfg.Pattern)
}

func (e *Engine) ready() bool { return e.out != nil && !e.disposed }

// Start resumes the output if needed and starts the transport from step 0.
// Starting while playing does nothing.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initLocked()
	if !e.ready() {
		return
	}
	if !e.out.IsPlaying() {
		e.out.Play()
	}
	if !e.transport.Start() {
		return
	}
	if e.cfg.Drone != "" && e.bgm == nil {
		if p, ok := synth.LookupDrone(e.cfg.Drone); ok {
			e.bgm = e.synth.Drone(e.mixer.Now(), p)
			e.mixer.Schedule(e.bgm)
		}
	}
	e.logger.Debug("sequencer started")
	e.sendEvent(BeatEvent{Kind: EventStarted, Time: e.mixer.Now()})
}

// Stop halts scheduling. Voices already handed to the mixer still sound.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready() || !e.transport.Running() {
		return
	}
	e.transport.Stop()
	if e.bgm != nil {
		e.bgm.Release(e.mixer.Now())
		e.bgm = nil
	}
	e.logger.Debug("sequencer stopped")
	e.sendEvent(BeatEvent{Kind: EventStopped, Time: e.mixer.Now()})
}

// Toggle starts or stops the sequencer and reports whether it is now playing.
func (e *Engine) Toggle() bool {
	if e.IsPlaying() {
		e.Stop()
	} else {
		e.Start()
	}
	return e.IsPlaying()
}

func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready() && e.transport.Running()
}

// PlaySFX plays a one-shot cue now, independent of the transport. Cues are
// looked up in the configured bank, then in the landing bank. Unknown names
// and calls before Init are ignored.
func (e *Engine) PlaySFX(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready() {
		return
	}
	cue, ok := synth.FindCue(e.cfg.SFXBank, name)
	if !ok {
		e.logger.Debug("unknown sfx", "name", name, "bank", e.cfg.SFXBank)
		return
	}
	for _, v := range e.synth.Cue(e.mixer.Now(), cue) {
		e.mixer.Schedule(v)
	}
}

// StartDrone starts a sustained background tone, replacing any running one.
func (e *Engine) StartDrone(name string) error {
	p, ok := synth.LookupDrone(name)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownDrone, name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready() {
		return nil
	}
	now := e.mixer.Now()
	if e.drone != nil {
		e.drone.Release(now)
	}
	e.drone = e.synth.Drone(now, p)
	e.mixer.Schedule(e.drone)
	return nil
}

// StopDrone fades out the drone started by StartDrone.
func (e *Engine) StopDrone() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drone == nil || !e.ready() {
		return
	}
	e.drone.Release(e.mixer.Now())
	e.drone = nil
}

// ToggleMute silences or restores the master output and reports whether it
// is now muted. The transport keeps running while muted.
func (e *Engine) ToggleMute() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = !e.muted
	if e.mixer != nil {
		e.mixer.SetMuted(e.muted)
	}
	return e.muted
}

func (e *Engine) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default.
func (e *Engine) SetMasterVolume(volume float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = max(volume, 0)
	if e.mixer != nil {
		e.mixer.SetMasterGain(e.cfg.MasterGain * e.volume)
	}
}

func (e *Engine) MasterVolume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// SetEQBand sets the gain for a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz, 4=>8kHz.
// This takes effect immediately on the audio thread (lock-free).
func (e *Engine) SetEQBand(band int, gain float32) {
	e.masterEQ.SetGain(band, gain)
}

// EQBand returns the current gain for a master EQ band (0-4).
func (e *Engine) EQBand(band int) float32 {
	return e.masterEQ.Gain(band)
}

// Clock returns the audio clock in seconds, or 0 before a successful Init.
func (e *Engine) Clock() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mixer == nil {
		return 0
	}
	return e.mixer.Now()
}

// Watch returns a channel that receives transport events:
//   - EventDownbeat: every fourth step, delivered at about the time it sounds
//   - EventStarted / EventStopped: the sequencer changed state
//
// The channel is buffered (cap 8); events are dropped when it is full.
// Only the most recent Watch() channel receives events.
func (e *Engine) Watch() <-chan BeatEvent {
	ch := make(chan BeatEvent, 8)
	e.eventChMu.Lock()
	e.eventCh = ch
	e.eventChMu.Unlock()
	return ch
}

// Dispose stops the sequencer, silences every voice and closes the audio
// stream. The engine cannot be restarted.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.disposed = true
	if e.transport != nil {
		e.transport.Stop()
	}
	if e.mixer != nil {
		e.mixer.Clear()
	}
	if e.out != nil {
		if err := e.out.Close(); err != nil {
			e.logger.Warn("closing audio output", "error", err)
		}
	}
	e.drone, e.bgm = nil, nil
}

// trigger runs on the transport's timer with the transport locked.
func (e *Engine) trigger(tr pattern.Trigger, at float64) {
	for _, v := range e.synth.Voices(tr, at) {
		e.mixer.Schedule(v)
	}
}

// step arms a downbeat pulse for when the step actually sounds.
func (e *Engine) step(step int, at float64) {
	if step%4 != 0 {
		return
	}
	delay := time.Duration(max(at-e.mixer.Now(), 0) * float64(time.Second))
	e.timers.AfterFunc(delay, func() {
		e.sendEvent(BeatEvent{Kind: EventDownbeat, Step: step, Time: at})
	})
}

func (e *Engine) sendEvent(ev BeatEvent) {
	e.eventChMu.Lock()
	ch := e.eventCh
	e.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

package synth

import (
	"maps"
	"math"
	"slices"
	"sync/atomic"

	"github.com/cbegin/neonbeat-go/internal/lfo"
)

// DronePreset describes an open-ended background tone: up to two detuned
// oscillators summed through a lowpass, faded in on start and faded out
// exponentially on release.
type DronePreset struct {
	Waves     [2]Waveform
	Freqs     [2]float64 // a zero frequency disables that oscillator
	LowpassHz float64
	Level     float64
	FadeIn    float64
	FadeOut   float64
	PulseHz   float64 // amplitude LFO rate; 0 disables
	Pulse     float64 // amplitude LFO depth as a fraction of Level
}

var drones = map[string]DronePreset{
	"catch": {
		Waves: [2]Waveform{Triangle, Sawtooth}, Freqs: [2]float64{45, 46},
		LowpassHz: 250, Level: 0.5, FadeIn: 2, FadeOut: 0.5,
		PulseHz: 0.25, Pulse: 0.15,
	},
	"void": {
		Waves: [2]Waveform{Sawtooth, Sine}, Freqs: [2]float64{55, 56},
		LowpassHz: 400, Level: 0.4, FadeOut: 0.5,
	},
	"jetpack": {
		Waves: [2]Waveform{Sawtooth}, Freqs: [2]float64{100},
		Level: 0.15, FadeIn: 0.1, FadeOut: 0.1,
		PulseHz: 12, Pulse: 0.2,
	},
}

// DroneNames returns the built-in drone presets in sorted order.
func DroneNames() []string {
	return slices.Sorted(maps.Keys(drones))
}

// LookupDrone returns a built-in drone preset.
func LookupDrone(name string) (DronePreset, bool) {
	p, ok := drones[name]
	return p, ok
}

// Drone is a sustained voice. Unlike Voice its length is not known up front:
// it runs until Release, then fades out and reports Done.
type Drone struct {
	start      float64
	sampleRate float64
	preset     DronePreset
	oscs       []*Oscillator
	filter     *Biquad
	pulse      *lfo.LFO
	frame      int64

	releaseAt atomic.Int64 // frame offset of the release, -1 while held
	done      atomic.Bool
}

// Drone builds a drone that starts at absolute time at.
func (s *Synth) Drone(at float64, p DronePreset) *Drone {
	d := &Drone{
		start:      at,
		sampleRate: s.sampleRate,
		preset:     p,
	}
	d.releaseAt.Store(-1)
	for i, f := range p.Freqs {
		if f > 0 {
			d.oscs = append(d.oscs, NewOscillator(p.Waves[i], NewParam(f)))
		}
	}
	if p.LowpassHz > 0 {
		d.filter = NewBiquad(Lowpass, NewParam(p.LowpassHz), s.sampleRate)
	}
	if p.PulseHz > 0 && p.Pulse > 0 {
		d.pulse = lfo.New(p.PulseHz, p.Pulse, lfo.ShapeSine)
	}
	return d
}

func (d *Drone) Start() float64 { return d.start }

// Release schedules the fade-out to begin at absolute time at. Releasing
// twice keeps the earlier release.
func (d *Drone) Release(at float64) {
	off := int64(math.Max(0, at-d.start) * d.sampleRate)
	d.releaseAt.CompareAndSwap(-1, off)
}

func (d *Drone) Next() float32 {
	if d.done.Load() {
		return 0
	}
	t := float64(d.frame) / d.sampleRate
	var x float64
	for _, o := range d.oscs {
		x += o.Next(t, d.sampleRate)
	}
	if len(d.oscs) > 1 {
		x /= float64(len(d.oscs))
	}
	if d.filter != nil {
		x = d.filter.Process(x, t)
	}
	g := d.preset.Level
	if d.preset.FadeIn > 0 && t < d.preset.FadeIn {
		g *= t / d.preset.FadeIn
	}
	if d.pulse != nil {
		g *= 1 + d.pulse.Sample(d.sampleRate)
	}
	if rel := d.releaseAt.Load(); rel >= 0 && d.frame >= rel {
		since := float64(d.frame-rel) / d.sampleRate
		fade := d.preset.FadeOut
		if since >= fade {
			d.done.Store(true)
			return 0
		}
		g *= math.Pow(0.001, since/fade)
	}
	d.frame++
	return float32(x * g)
}

func (d *Drone) Done() bool { return d.done.Load() }

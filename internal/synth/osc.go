package synth

import (
	"fmt"
	"math"
	"strings"
)

const twoPi = 2 * math.Pi

type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Sawtooth:
		return "sawtooth"
	case Triangle:
		return "triangle"
	default:
		return fmt.Sprintf("waveform(%d)", int(w))
	}
}

func ParseWaveform(name string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sine":
		return Sine, nil
	case "square":
		return Square, nil
	case "saw", "sawtooth":
		return Sawtooth, nil
	case "triangle":
		return Triangle, nil
	}
	return Sine, fmt.Errorf("unknown waveform %q", name)
}

// PitchToFreq converts a MIDI pitch number to equal-tempered Hz (A4 = 69 = 440Hz).
func PitchToFreq(pitch float64) float64 {
	return 440 * math.Pow(2, (pitch-69)/12)
}

// Oscillator is a naive (non band-limited) tone generator with an
// automatable frequency and a fixed detune in cents.
type Oscillator struct {
	Wave   Waveform
	Freq   *Param
	Detune float64
	phase  float64 // [0, 1)
}

func NewOscillator(wave Waveform, freq *Param) *Oscillator {
	return &Oscillator{Wave: wave, Freq: freq}
}

// Next returns the sample at voice-local time t and advances the phase.
func (o *Oscillator) Next(t, sampleRate float64) float64 {
	var v float64
	switch o.Wave {
	case Square:
		if o.phase < 0.5 {
			v = 1
		} else {
			v = -1
		}
	case Sawtooth:
		v = 2*o.phase - 1
	case Triangle:
		if o.phase < 0.5 {
			v = 4*o.phase - 1
		} else {
			v = 3 - 4*o.phase
		}
	default:
		v = math.Sin(twoPi * o.phase)
	}
	f := o.Freq.ValueAt(t)
	if o.Detune != 0 {
		f *= math.Pow(2, o.Detune/1200)
	}
	o.phase += f / sampleRate
	o.phase -= math.Floor(o.phase)
	return v
}

// NoiseBuffer fills n samples of white noise in [-1, 1] from a 16-bit Galois
// LFSR. The same seed always yields the same buffer.
func NoiseBuffer(seed uint16, n int) []float32 {
	if seed == 0 {
		seed = 0xACE1
	}
	buf := make([]float32, n)
	lfsr := seed
	for i := range buf {
		lsb := lfsr & 1
		lfsr >>= 1
		if lsb != 0 {
			lfsr ^= 0xB400
		}
		buf[i] = float32(lfsr)/32767.5 - 1
	}
	return buf
}

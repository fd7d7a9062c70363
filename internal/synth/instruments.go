package synth

import (
	"math/rand/v2"
	"sync"

	"github.com/cbegin/neonbeat-go/internal/effects"
	"github.com/cbegin/neonbeat-go/internal/pattern"
)

const (
	arpEchoDelay    = 0.25
	arpEchoFeedback = 0.3
	echoFloor       = 0.001
)

// Synth builds voices for a fixed sample rate. It holds only the noise seed
// and jitter source, so building a voice never touches shared audio state.
type Synth struct {
	mu         sync.Mutex
	sampleRate float64
	seed       uint16
	rng        *rand.Rand
}

func New(sampleRate int) *Synth {
	return &Synth{
		sampleRate: float64(sampleRate),
		seed:       0xACE1,
		rng:        rand.New(rand.NewPCG(0x6e656f6e, 0x62656174)),
	}
}

func (s *Synth) SampleRate() int { return int(s.sampleRate) }

// nextSeed steps the noise seed so consecutive hits differ but a fresh Synth
// always replays the same sequence.
func (s *Synth) nextSeed() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed = s.seed*31421 + 6927
	if s.seed == 0 {
		s.seed = 0xACE1
	}
	return s.seed
}

func (s *Synth) jitter(amount float64) float64 {
	if amount == 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() * amount
}

// Voices builds the voices for one step trigger starting at absolute time at.
func (s *Synth) Voices(tr pattern.Trigger, at float64) []*Voice {
	vel := tr.Velocity
	switch tr.Instrument {
	case pattern.Kick:
		return []*Voice{s.Kick(at, vel)}
	case pattern.Snare:
		return []*Voice{s.Snare(at, vel)}
	case pattern.Hat:
		return []*Voice{s.Hat(at, vel)}
	case pattern.Bass:
		return []*Voice{s.Bass(at, tr.Pitch, vel)}
	case pattern.Arp:
		return []*Voice{s.Arp(at, tr.Pitch, vel)}
	case pattern.Lead:
		return s.Lead(at, tr.Pitch, vel, tr.Length)
	}
	return nil
}

// Kick is a sine swept exponentially from 150Hz towards zero with a matching
// exponential amplitude decay over 0.5s.
func (s *Synth) Kick(at, vel float64) *Voice {
	const dur = 0.5
	freq := NewParam(150).SetValueAt(150, 0).ExponentialRampTo(0.01, dur)
	return s.oscVoice(at, NewOscillator(Sine, freq), nil, drumDecay(vel, dur), dur, dur)
}

// Snare is a 0.2s noise burst through a 1kHz highpass.
func (s *Synth) Snare(at, vel float64) *Voice {
	const dur = 0.2
	return s.noiseVoice(at, Highpass, 1000, drumDecay(0.4*vel, dur), dur)
}

// Hat is a 50ms noise tick through a 5kHz highpass.
func (s *Synth) Hat(at, vel float64) *Voice {
	const dur = 0.05
	return s.noiseVoice(at, Highpass, 5000, drumDecay(0.05*vel, dur), dur)
}

// drumFloor is where every drum's exponential decay ends, whatever its peak.
const drumFloor = 0.01

func drumDecay(peak, dur float64) *Param {
	return NewParam(peak).SetValueAt(peak, 0).ExponentialRampTo(drumFloor, dur)
}

// Bass is a sawtooth with a lowpass that opens from 200Hz to 800Hz and back
// within 0.2s, faded out linearly.
func (s *Synth) Bass(at float64, pitch int, vel float64) *Voice {
	const dur = 0.2
	freq := NewParam(PitchToFreq(float64(pitch)))
	cutoff := NewParam(200).SetValueAt(200, 0).LinearRampTo(800, 0.1).LinearRampTo(200, dur)
	peak := 0.3 * vel
	gain := NewParam(peak).SetValueAt(peak, 0).LinearRampTo(0, dur)
	return s.oscVoice(at, NewOscillator(Sawtooth, freq), NewBiquad(Lowpass, cutoff, s.sampleRate), gain, dur, dur)
}

// Arp is a short square pluck fed into a 0.25s feedback echo. The voice
// lives until the echo repeats have decayed below -60dB.
func (s *Synth) Arp(at float64, pitch int, vel float64) *Voice {
	const dur = 0.3
	freq := NewParam(PitchToFreq(float64(pitch)))
	peak := 0.05 * vel
	gain := NewParam(peak).SetValueAt(peak, 0).ExponentialRampTo(0.001*vel, dur)
	total := dur + effects.EchoTail(arpEchoDelay, arpEchoFeedback, echoFloor)
	v := s.oscVoice(at, NewOscillator(Square, freq), nil, gain, dur, total)
	v.echo = effects.NewEcho(int(s.sampleRate), arpEchoDelay, arpEchoFeedback)
	return v
}

// Lead is a detuned sawtooth and square pair with a soft attack. length
// defaults to 0.15s.
func (s *Synth) Lead(at float64, pitch int, vel, length float64) []*Voice {
	if length <= 0 {
		length = 0.15
	}
	f := PitchToFreq(float64(pitch))
	vol := 0.15 * vel
	return []*Voice{
		s.Tone(at, Tone{Wave: Sawtooth, Freq: f, Detune: -5, Volume: vol, Attack: 0.05, Duration: length, Hold: 0.1, Floor: 0.001}),
		s.Tone(at, Tone{Wave: Square, Freq: f, Detune: 5, Volume: vol, Attack: 0.05, Duration: length, Hold: 0.1, Floor: 0.001}),
	}
}

func (s *Synth) oscVoice(at float64, osc *Oscillator, filter *Biquad, gain *Param, srcDur, total float64) *Voice {
	return &Voice{
		start:      at,
		sampleRate: s.sampleRate,
		length:     frames(total, s.sampleRate),
		srcFrames:  frames(srcDur, s.sampleRate),
		osc:        osc,
		filter:     filter,
		gain:       gain,
	}
}

func (s *Synth) noiseVoice(at float64, kind FilterType, cutoffHz float64, gain *Param, dur float64) *Voice {
	n := frames(dur, s.sampleRate)
	return &Voice{
		start:      at,
		sampleRate: s.sampleRate,
		length:     n,
		srcFrames:  n,
		noise:      NoiseBuffer(s.nextSeed(), n),
		filter:     NewBiquad(kind, NewParam(cutoffHz), s.sampleRate),
		gain:       gain,
	}
}

package synth

type Sweep int

const (
	SweepNone Sweep = iota
	SweepLinear
	SweepExp
)

type Decay int

const (
	DecayExp Decay = iota
	DecayLinear
)

// Tone describes a generic one-shot oscillator voice, the building block of
// the SFX cues.
type Tone struct {
	Wave   Waveform
	Freq   float64
	Detune float64 // cents
	Jitter float64 // random Hz in [0, Jitter) added to Freq per hit

	Sweep     Sweep
	FreqTo    float64
	SweepTime float64 // 0 means Duration

	Volume   float64
	Attack   float64 // linear rise from silence; 0 starts at Volume
	Decay    Decay
	Floor    float64 // exponential decay target; 0 means 0.01
	Duration float64 // envelope end
	Hold     float64 // extra running time after Duration

	Delay     float64 // offset from the trigger time
	LowpassHz float64 // 0 disables the filter
}

// Tone builds a voice for t starting at absolute time at plus t.Delay.
func (s *Synth) Tone(at float64, t Tone) *Voice {
	f0 := t.Freq + s.jitter(t.Jitter)
	freq := NewParam(f0).SetValueAt(f0, 0)
	sweepEnd := t.SweepTime
	if sweepEnd <= 0 {
		sweepEnd = t.Duration
	}
	switch t.Sweep {
	case SweepLinear:
		freq.LinearRampTo(t.FreqTo, sweepEnd)
	case SweepExp:
		freq.ExponentialRampTo(t.FreqTo, sweepEnd)
	}

	gain := NewParam(t.Volume)
	if t.Attack > 0 {
		gain.SetValueAt(0, 0).LinearRampTo(t.Volume, t.Attack)
	} else {
		gain.SetValueAt(t.Volume, 0)
	}
	switch t.Decay {
	case DecayLinear:
		gain.LinearRampTo(0, t.Duration)
	default:
		floor := t.Floor
		if floor <= 0 {
			floor = 0.01
		}
		gain.ExponentialRampTo(floor, t.Duration)
	}

	osc := NewOscillator(t.Wave, freq)
	osc.Detune = t.Detune
	var filter *Biquad
	if t.LowpassHz > 0 {
		filter = NewBiquad(Lowpass, NewParam(t.LowpassHz), s.sampleRate)
	}
	total := t.Duration + t.Hold
	return s.oscVoice(at+t.Delay, osc, filter, gain, total, total)
}

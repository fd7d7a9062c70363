package synth

import (
	"maps"
	"slices"
)

// Cue is a one-shot sound effect made of one or more tones.
type Cue []Tone

// Bank is a named set of cues, one per game.
type Bank map[string]Cue

// DefaultBank is searched when a cue is missing from the selected bank.
const DefaultBank = "landing"

// slideTone is the shooter/breaker style blip: a linear pitch slide with an
// exponential fade and 0.1s of run-out.
func slideTone(w Waveform, freq, decay, vol, slide float64) Tone {
	t := Tone{Wave: w, Freq: freq, Volume: vol, Floor: 0.001, Duration: decay, Hold: 0.1}
	if slide != 0 {
		t.Sweep = SweepLinear
		t.FreqTo = freq + slide
	}
	return t
}

// plainTone is the platformer style tone: 20ms attack then exponential fade.
func plainTone(w Waveform, freq, dur, vol float64) Tone {
	return Tone{Wave: w, Freq: freq, Volume: vol, Attack: 0.02, Floor: 0.001, Duration: dur, Hold: 0.1}
}

func delayed(t Tone, d float64) Tone {
	t.Delay = d
	return t
}

var banks = map[string]Bank{
	"landing": {
		"hover": {{Wave: Sine, Freq: 1000, Sweep: SweepLinear, FreqTo: 2000, Volume: 0.05, Decay: DecayLinear, Duration: 0.05}},
		"click": {{Wave: Sawtooth, Freq: 100, Sweep: SweepExp, FreqTo: 10, Volume: 0.3, Floor: 0.001, Duration: 0.1}},
	},
	"breaker": {
		"paddle":   {{Wave: Sine, Freq: 400, Sweep: SweepLinear, FreqTo: 600, Volume: 0.4, Duration: 0.1}},
		"brick":    {{Wave: Square, Freq: 200, Jitter: 200, Volume: 0.2, Duration: 0.1}},
		"wall":     {{Wave: Triangle, Freq: 100, Volume: 0.3, Duration: 0.1}},
		"heart":    {{Wave: Sine, Freq: 500, Sweep: SweepLinear, FreqTo: 1200, SweepTime: 0.2, Volume: 0.3, Decay: DecayLinear, Duration: 0.3}},
		"loss":     {{Wave: Sawtooth, Freq: 150, Sweep: SweepLinear, FreqTo: 30, Volume: 0.6, Decay: DecayLinear, Duration: 0.4}},
		"gameover": {{Wave: Sawtooth, Freq: 150, Sweep: SweepLinear, FreqTo: 50, Volume: 0.6, Decay: DecayLinear, Duration: 1.5}},
	},
	"catch": {
		"catch":    {{Wave: Sine, Freq: 880, Sweep: SweepExp, FreqTo: 1760, SweepTime: 0.1, Volume: 0.3, Duration: 0.3}},
		"damage":   {{Wave: Square, Freq: 100, Sweep: SweepExp, FreqTo: 50, SweepTime: 0.1, Volume: 0.5, Duration: 0.2}},
		"gameover": {{Wave: Sawtooth, Freq: 150, Sweep: SweepExp, FreqTo: 10, Volume: 0.5, Decay: DecayLinear, Duration: 0.8}},
	},
	"core": {
		"shoot":      {slideTone(Triangle, 800, 0.1, 0.15, -400)},
		"rail":       {slideTone(Square, 1000, 0.2, 0.2, -600)},
		"hit":        {slideTone(Square, 200, 0.1, 0.2, -50)},
		"powerup":    {slideTone(Sine, 600, 0.4, 0.4, 600), delayed(slideTone(Sine, 1200, 0.4, 0.4, 600), 0.1)},
		"shieldUp":   {slideTone(Sawtooth, 300, 0.5, 0.3, 300)},
		"shieldDown": {slideTone(Sawtooth, 300, 0.3, 0.3, -100)},
		"nuke":       {slideTone(Sawtooth, 100, 1.0, 0.5, -80), slideTone(Square, 50, 1.2, 0.5, -40)},
		"nova":       {slideTone(Triangle, 600, 0.5, 0.4, 0)},
		"laser":      {slideTone(Sawtooth, 80, 0.1, 0.2, 0)},
		"heal":       {slideTone(Sine, 400, 0.5, 0.4, 200)},
		"freeze":     {slideTone(Sine, 1200, 1.0, 0.3, -1000)},
		"saw":        {slideTone(Sawtooth, 100, 0.1, 0.2, 0)},
		"explosion":  {slideTone(Sawtooth, 150, 0.3, 0.4, -100), slideTone(Square, 80, 0.4, 0.4, -40)},
		"shock":      {slideTone(Sawtooth, 50, 0.8, 0.5, -30)},
		"mine":       {slideTone(Square, 150, 0.4, 0.4, -100)},
		"chain":      {slideTone(Sawtooth, 1200, 0.1, 0.2, -200)},
		"blackhole":  {slideTone(Square, 50, 1.5, 0.4, -10)},
		"gameover":   {slideTone(Sawtooth, 300, 1.5, 0.6, -280)},
	},
	"rise": {
		"jump":       {plainTone(Sine, 300, 0.2, 0.4)},
		"doubleJump": {plainTone(Triangle, 500, 0.2, 0.3)},
		"spring":     {plainTone(Square, 200, 0.4, 0.2)},
		"rocket":     {plainTone(Sawtooth, 100, 0.8, 0.2)},
		"shieldGain": {plainTone(Sine, 600, 0.1, 0.3), delayed(plainTone(Sine, 900, 0.2, 0.3), 0.1)},
		"shieldLost": {plainTone(Sawtooth, 200, 0.3, 0.3)},
		"break":      {plainTone(Sawtooth, 150, 0.1, 0.3)},
		"fall":       {plainTone(Sawtooth, 100, 1.0, 0.5)},
		"powerup":    {plainTone(Sine, 1000, 0.3, 0.2)},
	},
	"void": {
		"grapple":  {{Wave: Sine, Freq: 800, Sweep: SweepExp, FreqTo: 1200, Volume: 0.5, Duration: 0.1}},
		"release":  {{Wave: Sawtooth, Freq: 200, Sweep: SweepExp, FreqTo: 50, Volume: 0.4, Duration: 0.15}},
		"bump":     {{Wave: Square, Freq: 100, Sweep: SweepExp, FreqTo: 40, Volume: 0.5, Duration: 0.1, LowpassHz: 200}},
		"gameover": {{Wave: Sawtooth, Freq: 200, Sweep: SweepExp, FreqTo: 10, Volume: 0.5, Decay: DecayLinear, Duration: 1}},
	},
	"match": {
		"click": {{Wave: Sine, Freq: 800, Sweep: SweepExp, FreqTo: 300, Volume: 0.1, Duration: 0.15}},
		"success": {
			{Wave: Sine, Freq: 440, Volume: 0.1, Decay: DecayLinear, Duration: 0.3},
			{Wave: Sine, Freq: 554, Volume: 0.1, Decay: DecayLinear, Duration: 0.3, Delay: 0.1},
			{Wave: Sine, Freq: 659, Volume: 0.1, Decay: DecayLinear, Duration: 0.3, Delay: 0.2},
		},
	},
}

// BankNames returns the built-in bank names in sorted order.
func BankNames() []string {
	return slices.Sorted(maps.Keys(banks))
}

// LookupBank returns a built-in bank.
func LookupBank(name string) (Bank, bool) {
	b, ok := banks[name]
	return b, ok
}

// Names returns the bank's cue names in sorted order.
func (b Bank) Names() []string {
	return slices.Sorted(maps.Keys(b))
}

// FindCue looks name up in bank, then in DefaultBank.
func FindCue(bank, name string) (Cue, bool) {
	if b, ok := banks[bank]; ok {
		if c, ok := b[name]; ok {
			return c, true
		}
	}
	c, ok := banks[DefaultBank][name]
	return c, ok
}

// Cue builds the voices for c starting at absolute time at.
func (s *Synth) Cue(at float64, c Cue) []*Voice {
	out := make([]*Voice, 0, len(c))
	for _, t := range c {
		out = append(out, s.Tone(at, t))
	}
	return out
}

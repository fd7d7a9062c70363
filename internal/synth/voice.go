package synth

import "github.com/cbegin/neonbeat-go/internal/effects"

// Voice is one bounded-lifetime sound: a source (oscillator or noise buffer)
// through an optional filter, a gain envelope and an optional echo. Start and
// total length are fixed at construction; a voice is rendered once and then
// dropped, never restarted.
type Voice struct {
	start      float64
	sampleRate float64
	length     int // total frames, including echo tail
	srcFrames  int // frames the source is running
	frame      int

	osc    *Oscillator
	noise  []float32
	filter *Biquad
	gain   *Param
	echo   *effects.Echo
}

// Start returns the absolute audio-clock time the voice begins at.
func (v *Voice) Start() float64 { return v.start }

// Duration returns the voice's total lifetime in seconds.
func (v *Voice) Duration() float64 { return float64(v.length) / v.sampleRate }

// Next renders the next mono sample. It returns 0 once the voice is done.
func (v *Voice) Next() float32 {
	if v.frame >= v.length {
		return 0
	}
	t := float64(v.frame) / v.sampleRate
	var x float64
	if v.frame < v.srcFrames {
		switch {
		case v.osc != nil:
			x = v.osc.Next(t, v.sampleRate)
		case v.frame < len(v.noise):
			x = float64(v.noise[v.frame])
		}
	}
	if v.filter != nil {
		x = v.filter.Process(x, t)
	}
	x *= v.gain.ValueAt(t)
	out := float32(x)
	if v.echo != nil {
		out = v.echo.Process(out)
	}
	v.frame++
	return out
}

// Done reports whether every frame has been rendered.
func (v *Voice) Done() bool { return v.frame >= v.length }

func frames(sec, sampleRate float64) int {
	n := int(sec*sampleRate + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}

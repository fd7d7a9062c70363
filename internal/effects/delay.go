package effects

import "math"

// Delay implements a simple stereo delay with feedback and cross-channel mixing.
type Delay struct {
	bufL, bufR []float32
	pos        int
	feedback   float32
	cross      float32
	wet        float32
}

// NewDelay creates a delay effect.
// delayMs: delay time in milliseconds
// feedback: feedback amount 0..1
// cross: cross-channel feedback 0..1
// wet: wet/dry mix 0..1
func NewDelay(sampleRate int, delayMs float64, feedback, cross, wet float32) *Delay {
	samples := delaySamples(sampleRate, delayMs/1000)
	return &Delay{
		bufL:     make([]float32, samples),
		bufR:     make([]float32, samples),
		feedback: clamp(feedback, 0, 0.95),
		cross:    clamp(cross, 0, 1),
		wet:      clamp(wet, 0, 1),
	}
}

func (d *Delay) Process(l, r float32) (float32, float32) {
	delL := d.bufL[d.pos]
	delR := d.bufR[d.pos]
	fbL := delL*d.feedback*(1-d.cross) + delR*d.feedback*d.cross
	fbR := delR*d.feedback*(1-d.cross) + delL*d.feedback*d.cross
	d.bufL[d.pos] = l + fbL
	d.bufR[d.pos] = r + fbR
	d.pos++
	if d.pos >= len(d.bufL) {
		d.pos = 0
	}
	return l*(1-d.wet) + delL*d.wet, r*(1-d.wet) + delR*d.wet
}

func (d *Delay) Reset() {
	clear(d.bufL)
	clear(d.bufR)
	d.pos = 0
}

// Echo is a mono feedback delay line: the input is fed into the line, the
// line's output is fed back scaled by feedback, and the dry signal plus the
// delayed signal is returned. This is the per-voice echo used by the arpeggio.
type Echo struct {
	buf      []float32
	pos      int
	feedback float32
}

func NewEcho(sampleRate int, delaySec float64, feedback float32) *Echo {
	return &Echo{
		buf:      make([]float32, delaySamples(sampleRate, delaySec)),
		feedback: clamp(feedback, 0, 0.95),
	}
}

func (e *Echo) Process(in float32) float32 {
	delayed := e.buf[e.pos]
	e.buf[e.pos] = in + delayed*e.feedback
	e.pos++
	if e.pos >= len(e.buf) {
		e.pos = 0
	}
	return in + delayed
}

func (e *Echo) Reset() {
	clear(e.buf)
	e.pos = 0
}

// EchoTail returns how long an echo keeps ringing after its input goes
// silent before the repeats fall below floor (linear gain, e.g. 0.001).
func EchoTail(delaySec float64, feedback, floor float64) float64 {
	if feedback <= 0 || floor <= 0 || floor >= 1 {
		return delaySec
	}
	if feedback >= 1 {
		feedback = 0.95
	}
	repeats := math.Ceil(math.Log(floor) / math.Log(feedback))
	return delaySec * (repeats + 1)
}

func delaySamples(sampleRate int, sec float64) int {
	n := int(sec * float64(sampleRate))
	if n < 1 {
		n = 1
	}
	return n
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

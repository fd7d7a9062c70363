package lfo

import "math"

// Shape selects the LFO waveform.
type Shape int

const (
	ShapeSine Shape = iota
	ShapeTriangle
	ShapeSquare
	ShapeSaw
)

// LFO is a low-frequency oscillator producing per-sample modulation in
// [-depth, +depth]. It is owned by a single voice and is not safe for
// concurrent use.
type LFO struct {
	depth  float64
	rateHz float64
	shape  Shape
	phase  float64 // [0, 1)
}

// New returns an LFO with the given rate, depth and shape. Unknown shapes fall
// back to a sine.
func New(rateHz, depth float64, shape Shape) *LFO {
	l := &LFO{}
	l.Set(rateHz, depth, shape)
	return l
}

// Set reconfigures the LFO without resetting its phase.
func (l *LFO) Set(rateHz, depth float64, shape Shape) {
	if shape < ShapeSine || shape > ShapeSaw {
		shape = ShapeSine
	}
	l.rateHz = rateHz
	l.depth = depth
	l.shape = shape
}

// Sample advances the LFO by one sample and returns the current value.
// Returns 0 if depth, rate or sampleRate is zero.
func (l *LFO) Sample(sampleRate float64) float64 {
	if !l.Active() || sampleRate <= 0 {
		return 0
	}
	var v float64
	switch l.shape {
	case ShapeTriangle:
		if l.phase < 0.5 {
			v = 4.0*l.phase - 1.0
		} else {
			v = 3.0 - 4.0*l.phase
		}
	case ShapeSquare:
		if l.phase < 0.5 {
			v = 1.0
		} else {
			v = -1.0
		}
	case ShapeSaw:
		v = 1.0 - 2.0*l.phase
	default:
		v = math.Sin(2 * math.Pi * l.phase)
	}
	l.phase += l.rateHz / sampleRate
	l.phase -= math.Floor(l.phase)
	return v * l.depth
}

// Active reports whether the LFO has a non-zero depth and rate.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.rateHz != 0
}

// Reset zeros the phase.
func (l *LFO) Reset() {
	l.phase = 0
}

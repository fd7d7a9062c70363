package synth

import "math"

type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
)

// Biquad is an RBJ-cookbook lowpass or highpass with an automatable cutoff.
// Coefficients are recomputed only when the cutoff changes.
type Biquad struct {
	Type   FilterType
	Cutoff *Param
	Q      float64

	sampleRate     float64
	lastCutoff     float64
	b0, b1, b2     float64
	a1, a2         float64
	x1, x2, y1, y2 float64
}

func NewBiquad(kind FilterType, cutoff *Param, sampleRate float64) *Biquad {
	return &Biquad{
		Type:       kind,
		Cutoff:     cutoff,
		Q:          math.Sqrt2 / 2,
		sampleRate: sampleRate,
		lastCutoff: -1,
	}
}

func (f *Biquad) Process(x, t float64) float64 {
	fc := f.Cutoff.ValueAt(t)
	if fc != f.lastCutoff {
		f.compute(fc)
	}
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

func (f *Biquad) compute(fc float64) {
	f.lastCutoff = fc
	nyq := f.sampleRate / 2
	fc = math.Min(math.Max(fc, 10), nyq*0.99)
	w0 := twoPi * fc / f.sampleRate
	cosw, sinw := math.Cos(w0), math.Sin(w0)
	alpha := sinw / (2 * f.Q)
	a0 := 1 + alpha
	switch f.Type {
	case Highpass:
		f.b0 = (1 + cosw) / 2 / a0
		f.b1 = -(1 + cosw) / a0
		f.b2 = f.b0
	default:
		f.b0 = (1 - cosw) / 2 / a0
		f.b1 = (1 - cosw) / a0
		f.b2 = f.b0
	}
	f.a1 = -2 * cosw / a0
	f.a2 = (1 - alpha) / a0
}

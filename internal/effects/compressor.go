package effects

import "math"

// LimiterParams configures a soft-knee dynamics compressor. The master
// output uses a hard setting (high ratio, wide knee) as a limiter.
type LimiterParams struct {
	ThresholdDB float64
	KneeDB      float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64
	MakeupDB    float64
}

// DefaultLimiterParams matches the games' master bus: threshold -10 dB,
// knee 40 dB, ratio 12:1.
func DefaultLimiterParams() LimiterParams {
	return LimiterParams{
		ThresholdDB: -10,
		KneeDB:      40,
		Ratio:       12,
		AttackMs:    3,
		ReleaseMs:   250,
	}
}

// Limiter is a stereo-linked peak compressor with a soft knee.
type Limiter struct {
	threshold float64
	knee      float64
	ratio     float64
	attack    float64 // coefficient
	release   float64 // coefficient
	makeup    float64 // linear
	env       float64
}

func NewLimiter(sampleRate int, p LimiterParams) *Limiter {
	sr := float64(sampleRate)
	if p.Ratio < 1 {
		p.Ratio = 1
	}
	if p.KneeDB < 0 {
		p.KneeDB = 0
	}
	return &Limiter{
		threshold: p.ThresholdDB,
		knee:      p.KneeDB,
		ratio:     p.Ratio,
		attack:    timeCoefficient(p.AttackMs, sr),
		release:   timeCoefficient(p.ReleaseMs, sr),
		makeup:    math.Pow(10, p.MakeupDB/20),
	}
}

func timeCoefficient(ms, sr float64) float64 {
	if ms <= 0 {
		return 1
	}
	return 1.0 - math.Exp(-1.0/(ms*sr/1000.0))
}

func (c *Limiter) Process(l, r float32) (float32, float32) {
	peak := math.Max(math.Abs(float64(l)), math.Abs(float64(r)))
	if peak > c.env {
		c.env += c.attack * (peak - c.env)
	} else {
		c.env += c.release * (peak - c.env)
	}
	g := float32(c.gain(c.env) * c.makeup)
	return l * g, r * g
}

// gain returns the linear gain for an envelope level using the standard
// soft-knee static curve.
func (c *Limiter) gain(env float64) float64 {
	if env <= 1e-9 {
		return 1
	}
	x := 20 * math.Log10(env)
	over := x - c.threshold
	var y float64
	switch {
	case 2*over < -c.knee:
		y = x
	case c.knee > 0 && 2*math.Abs(over) <= c.knee:
		k := over + c.knee/2
		y = x + (1/c.ratio-1)*k*k/(2*c.knee)
	default:
		y = c.threshold + over/c.ratio
	}
	return math.Pow(10, (y-x)/20)
}

func (c *Limiter) Reset() {
	c.env = 0
}

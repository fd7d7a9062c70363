package effects

import (
	"math"
	"sync/atomic"
)

// EQBands is the number of master EQ bands.
const EQBands = 5

// EQ5Band is a master equalizer built from four cascaded one-pole crossovers
// at 200Hz, 800Hz, 2.5kHz and 8kHz. Gains are bit-cast float32 values so the
// UI side can change them while the audio side reads without a lock.
type EQ5Band struct {
	gains [EQBands]atomic.Uint32
	xover [EQBands - 1]crossover
}

type crossover struct {
	alpha float32
	lpL   float32
	lpR   float32
}

var crossoverHz = [EQBands - 1]float64{200, 800, 2500, 8000}

// NewEQ5Band creates a 5-band EQ with all gains at unity.
func NewEQ5Band(sampleRate int) *EQ5Band {
	eq := &EQ5Band{}
	dt := 1.0 / float64(sampleRate)
	for i, hz := range crossoverHz {
		rc := 1.0 / (2.0 * math.Pi * hz)
		eq.xover[i].alpha = float32(dt / (rc + dt))
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1))
	}
	return eq
}

// SetGain sets the gain for band 0-4. 1.0 is unity; out of range bands are ignored.
func (eq *EQ5Band) SetGain(band int, gain float32) {
	if band < 0 || band >= EQBands {
		return
	}
	if gain < 0 {
		gain = 0
	}
	eq.gains[band].Store(math.Float32bits(gain))
}

// Gain returns the gain for band 0-4, or 1 for an unknown band.
func (eq *EQ5Band) Gain(band int) float32 {
	if band < 0 || band >= EQBands {
		return 1
	}
	return math.Float32frombits(eq.gains[band].Load())
}

// Flat reports whether every band is at unity, in which case Process can be skipped.
func (eq *EQ5Band) Flat() bool {
	for i := range eq.gains {
		if math.Float32frombits(eq.gains[i].Load()) != 1 {
			return false
		}
	}
	return true
}

func (eq *EQ5Band) Process(l, r float32) (float32, float32) {
	var outL, outR float32
	remL, remR := l, r
	for i := range eq.xover {
		x := &eq.xover[i]
		x.lpL += x.alpha * (remL - x.lpL)
		x.lpR += x.alpha * (remR - x.lpR)
		g := math.Float32frombits(eq.gains[i].Load())
		outL += x.lpL * g
		outR += x.lpR * g
		remL -= x.lpL
		remR -= x.lpR
	}
	g := math.Float32frombits(eq.gains[EQBands-1].Load())
	return outL + remL*g, outR + remR*g
}

func (eq *EQ5Band) Reset() {
	for i := range eq.xover {
		eq.xover[i].lpL = 0
		eq.xover[i].lpR = 0
	}
}

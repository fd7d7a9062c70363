package effects

// Reverb is a small Schroeder reverb: four parallel combs feed two series
// allpasses per channel. The right channel's delay lines are offset by a
// fixed spread so a mono source comes back with some width.
type Reverb struct {
	left  reverbChannel
	right reverbChannel
	wet   float32
}

type reverbChannel struct {
	combs   [4]delayLine
	allpass [2]delayLine
}

type delayLine struct {
	buf []float32
	pos int
	fb  float32
}

const stereoSpread = 23

// NewReverb creates a reverb effect.
// roomSize: 0..1 controls delay lengths
// feedback: 0..1 controls decay time
// wet: wet/dry mix 0..1
func NewReverb(sampleRate int, roomSize, feedback, wet float32) *Reverb {
	base := int(float32(sampleRate) * roomSize * 0.05)
	if base < 10 {
		base = 10
	}
	fb := clamp(feedback, 0, 0.95)
	return &Reverb{
		left:  newReverbChannel(base, fb),
		right: newReverbChannel(base+stereoSpread, fb),
		wet:   clamp(wet, 0, 1),
	}
}

func newReverbChannel(base int, fb float32) reverbChannel {
	var ch reverbChannel
	combLens := [4]int{base, base * 1117 / 1000, base * 1271 / 1000, base * 1437 / 1000}
	for i, n := range combLens {
		ch.combs[i] = delayLine{buf: make([]float32, n), fb: fb}
	}
	apLens := [2]int{base * 347 / 1000, base * 213 / 1000}
	for i, n := range apLens {
		ch.allpass[i] = delayLine{buf: make([]float32, max(n, 1)), fb: 0.5}
	}
	return ch
}

func (r *Reverb) Process(l, rr float32) (float32, float32) {
	mono := (l + rr) * 0.5
	outL := r.left.process(mono)
	outR := r.right.process(mono)
	return l*(1-r.wet) + outL*r.wet, rr*(1-r.wet) + outR*r.wet
}

func (r *Reverb) Reset() {
	r.left.reset()
	r.right.reset()
}

func (ch *reverbChannel) process(in float32) float32 {
	var out float32
	for i := range ch.combs {
		out += ch.combs[i].comb(in)
	}
	out *= 0.25
	for i := range ch.allpass {
		out = ch.allpass[i].allpass(out)
	}
	return out
}

func (ch *reverbChannel) reset() {
	for i := range ch.combs {
		ch.combs[i].reset()
	}
	for i := range ch.allpass {
		ch.allpass[i].reset()
	}
}

func (d *delayLine) comb(in float32) float32 {
	out := d.buf[d.pos]
	d.buf[d.pos] = in + out*d.fb
	d.advance()
	return out
}

func (d *delayLine) allpass(in float32) float32 {
	bufOut := d.buf[d.pos]
	d.buf[d.pos] = in + bufOut*d.fb
	d.advance()
	return -in + bufOut
}

func (d *delayLine) advance() {
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
}

func (d *delayLine) reset() {
	clear(d.buf)
	d.pos = 0
}

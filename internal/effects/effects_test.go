package effects

import (
	"math"
	"testing"
)

func TestDelayProducesOutput(t *testing.T) {
	d := NewDelay(44100, 100, 0.5, 0, 0.5)
	d.Process(1.0, 1.0)
	for i := 0; i < 4409; i++ { // ~100ms at 44100Hz
		d.Process(0, 0)
	}
	l, r := d.Process(0, 0)
	if math.Abs(float64(l)) < 0.01 || math.Abs(float64(r)) < 0.01 {
		t.Errorf("expected delayed output, got l=%f r=%f", l, r)
	}
}

func TestEchoRepeatsWithFeedback(t *testing.T) {
	const sr = 1000
	e := NewEcho(sr, 0.25, 0.3)
	out := make([]float32, 1000)
	out[0] = e.Process(1)
	for i := 1; i < len(out); i++ {
		out[i] = e.Process(0)
	}
	if out[0] != 1 {
		t.Fatalf("dry impulse = %f, want 1", out[0])
	}
	if math.Abs(float64(out[250])-1) > 1e-6 {
		t.Fatalf("first repeat = %f, want 1", out[250])
	}
	if math.Abs(float64(out[500])-0.3) > 1e-6 {
		t.Fatalf("second repeat = %f, want 0.3", out[500])
	}
	if math.Abs(float64(out[750])-0.09) > 1e-6 {
		t.Fatalf("third repeat = %f, want 0.09", out[750])
	}
	if out[100] != 0 {
		t.Fatalf("expected silence between repeats, got %f", out[100])
	}
}

func TestEchoTail(t *testing.T) {
	// 0.3^6 = 0.000729 < 0.001, so six repeats after the first one.
	got := EchoTail(0.25, 0.3, 0.001)
	if math.Abs(got-1.75) > 1e-9 {
		t.Fatalf("EchoTail = %f, want 1.75", got)
	}
	if got := EchoTail(0.25, 0, 0.001); got != 0.25 {
		t.Fatalf("EchoTail without feedback = %f, want 0.25", got)
	}
}

func TestReverbProducesOutput(t *testing.T) {
	r := NewReverb(44100, 0.5, 0.7, 0.5)
	r.Process(1.0, 1.0)
	var maxL, maxR float32
	for i := 0; i < 10000; i++ {
		l, rr := r.Process(0, 0)
		maxL = max(maxL, l)
		maxR = max(maxR, rr)
	}
	if maxL < 0.001 || maxR < 0.001 {
		t.Errorf("expected reverb tail on both channels, got %f/%f", maxL, maxR)
	}
}

func TestChainAppliesEffectsInOrder(t *testing.T) {
	c := NewChain(
		NewLimiter(44100, DefaultLimiterParams()),
		NewDelay(44100, 10, 0, 0, 0.5),
	)
	l, r := c.Process(0.5, 0.5)
	if l == 0 || r == 0 {
		t.Error("chain should produce output")
	}
	if c.Len() != 2 {
		t.Errorf("chain length = %d, want 2", c.Len())
	}
}

func TestBuildFromSpecs(t *testing.T) {
	chain, err := Build([]Spec{{Type: "delay", Params: []float64{120}}, {Type: "Reverb"}}, 48000)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if chain.Len() != 2 {
		t.Fatalf("chain length = %d, want 2", chain.Len())
	}
	if chain, err := Build(nil, 48000); err != nil || chain != nil {
		t.Fatalf("empty specs: chain=%v err=%v", chain, err)
	}
	if _, err := Build([]Spec{{Type: "flanger"}}, 48000); err == nil {
		t.Fatal("expected error for unknown effect type")
	}
}

func TestEQ5BandUnityPassesSignal(t *testing.T) {
	eq := NewEQ5Band(44100)
	if !eq.Flat() {
		t.Fatal("new EQ should be flat")
	}
	var l, r float32
	for i := 0; i < 1000; i++ {
		l, r = eq.Process(0.5, 0.5)
	}
	if math.Abs(float64(l)-0.5) > 1e-4 || math.Abs(float64(r)-0.5) > 1e-4 {
		t.Errorf("expected ~0.5 with unity gains, got l=%f r=%f", l, r)
	}
	eq.SetGain(0, 0)
	if eq.Flat() || eq.Gain(0) != 0 {
		t.Fatal("band 0 gain should be 0")
	}
	eq.SetGain(9, 3)
	if eq.Gain(9) != 1 {
		t.Fatal("unknown band should report unity")
	}
}

func TestLimiterReducesLoud(t *testing.T) {
	c := NewLimiter(44100, DefaultLimiterParams())
	var out float32
	for i := 0; i < 5000; i++ {
		out, _ = c.Process(1.0, 1.0)
	}
	if out >= 0.5 {
		t.Errorf("limiter should pull a 0 dBFS signal well down, got %f", out)
	}
}

func TestLimiterLeavesQuietSignalAlone(t *testing.T) {
	c := NewLimiter(44100, DefaultLimiterParams())
	var out float32
	for i := 0; i < 5000; i++ {
		out, _ = c.Process(0.001, 0.001) // -60 dBFS, far below the knee
	}
	if math.Abs(float64(out)-0.001) > 1e-5 {
		t.Errorf("quiet signal changed: got %f", out)
	}
}

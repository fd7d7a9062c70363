package synth

import (
	"math"
	"testing"

	"github.com/cbegin/neonbeat-go/internal/pattern"
)

const testRate = 48000

func TestPitchToFreqReferencePitches(t *testing.T) {
	cases := map[float64]float64{69: 440, 57: 220, 81: 880, 36: 65.40639132514966}
	for pitch, want := range cases {
		if got := PitchToFreq(pitch); math.Abs(got-want) > 1e-9 {
			t.Errorf("PitchToFreq(%v) = %v, want %v", pitch, got, want)
		}
	}
}

func TestParamRamps(t *testing.T) {
	lin := NewParam(0).SetValueAt(0, 0).LinearRampTo(1, 1)
	if got := lin.ValueAt(0.25); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("linear at 0.25 = %v", got)
	}
	if got := lin.ValueAt(5); got != 1 {
		t.Errorf("linear after end = %v, want hold at 1", got)
	}

	exp := NewParam(1).SetValueAt(1, 0).ExponentialRampTo(0.01, 1)
	if got := exp.ValueAt(0.5); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("exponential midpoint = %v, want 0.1", got)
	}

	// An exponential ramp towards zero cannot be evaluated and holds instead.
	hold := NewParam(0.5).ExponentialRampTo(0, 1)
	if got := hold.ValueAt(0.5); got != 0.5 {
		t.Errorf("exp ramp to zero = %v, want hold at 0.5", got)
	}

	// Events added out of order are evaluated in time order.
	p := NewParam(0).LinearRampTo(0, 2).LinearRampTo(2, 1)
	if got := p.ValueAt(0.5); math.Abs(got-1) > 1e-12 {
		t.Errorf("out-of-order ramp at 0.5 = %v, want 1", got)
	}
	if p.End() != 2 {
		t.Errorf("End() = %v, want 2", p.End())
	}
}

func render(v interface {
	Next() float32
	Done() bool
}, maxFrames int) (out []float32) {
	for i := 0; i < maxFrames && !v.Done(); i++ {
		out = append(out, v.Next())
	}
	return out
}

func peak(buf []float32) float64 {
	var m float64
	for _, s := range buf {
		m = math.Max(m, math.Abs(float64(s)))
	}
	return m
}

func TestInstrumentVoicesHaveBoundedLifetimes(t *testing.T) {
	s := New(testRate)
	cases := []struct {
		name string
		v    *Voice
		dur  float64
	}{
		{"kick", s.Kick(1, 1), 0.5},
		{"snare", s.Snare(1, 1), 0.2},
		{"hat", s.Hat(1, 1), 0.05},
		{"bass", s.Bass(1, 36, 1), 0.2},
		{"arp", s.Arp(1, 60, 1), 0.3 + 1.75},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.v.Start() != 1 {
				t.Fatalf("start = %v, want 1", tc.v.Start())
			}
			if math.Abs(tc.v.Duration()-tc.dur) > 1.0/testRate {
				t.Fatalf("duration = %v, want %v", tc.v.Duration(), tc.dur)
			}
			out := render(tc.v, testRate*10)
			if !tc.v.Done() {
				t.Fatal("voice did not finish")
			}
			if want := int(tc.dur*testRate + 0.5); len(out) != want {
				t.Fatalf("rendered %d frames, want %d", len(out), want)
			}
			if peak(out) == 0 {
				t.Fatal("voice was silent")
			}
			if tc.v.Next() != 0 {
				t.Fatal("finished voice should render silence")
			}
		})
	}
}

func TestKickDecays(t *testing.T) {
	s := New(testRate)
	out := render(s.Kick(0, 1), testRate)
	head := peak(out[:testRate/20])
	tail := peak(out[len(out)-testRate/20:])
	if tail >= head/10 {
		t.Fatalf("kick should decay: head peak %v, tail peak %v", head, tail)
	}
}

func TestDrumDecayEndsAtFixedFloor(t *testing.T) {
	for _, pk := range []float64{1, 0.4, 0.05, 0.025} {
		g := drumDecay(pk, 0.2)
		if g.ValueAt(0) != pk {
			t.Errorf("peak %v: start = %v", pk, g.ValueAt(0))
		}
		if end := g.ValueAt(0.2); math.Abs(end-drumFloor) > 1e-12 {
			t.Errorf("peak %v: end = %v, want %v", pk, end, drumFloor)
		}
	}
	if g := drumDecay(0, 0.2); g.ValueAt(0.1) != 0 {
		t.Errorf("silent hit should stay silent, got %v", g.ValueAt(0.1))
	}
}

func TestArpEchoRingsAfterToneStops(t *testing.T) {
	s := New(testRate)
	out := render(s.Arp(0, 69, 1), testRate*5)
	// The square stops at 0.3s; the first repeat of the pluck's attack lands at 0.25s
	// and the second at 0.5s.
	after := out[int(0.5*testRate) : int(0.55*testRate)]
	if peak(after) < 0.005 {
		t.Fatalf("expected echo after the tone stopped, peak %v", peak(after))
	}
}

func TestNoiseIsDeterministic(t *testing.T) {
	a := NoiseBuffer(1234, 256)
	b := NoiseBuffer(1234, 256)
	c := NoiseBuffer(4321, 256)
	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed differs at %d", i)
		}
		if a[i] < -1 || a[i] > 1 {
			t.Fatalf("sample %d out of range: %v", i, a[i])
		}
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestVoicesForEveryInstrument(t *testing.T) {
	s := New(testRate)
	for inst := pattern.Kick; inst <= pattern.Lead; inst++ {
		vs := s.Voices(pattern.Trigger{Instrument: inst, Pitch: 60, Velocity: 1}, 0)
		if len(vs) == 0 {
			t.Errorf("%s: no voices", inst)
		}
	}
	if vs := s.Voices(pattern.Trigger{Instrument: pattern.Instrument(99)}, 0); vs != nil {
		t.Errorf("unknown instrument should build nothing, got %d voices", len(vs))
	}
	lead := s.Voices(pattern.Trigger{Instrument: pattern.Lead, Pitch: 72, Velocity: 1, Length: 0.6}, 0)
	if len(lead) != 2 || math.Abs(lead[0].Duration()-0.7) > 1e-3 {
		t.Errorf("lead voices = %d, duration %v", len(lead), lead[0].Duration())
	}
}

func TestEveryCueBuildsFiniteVoices(t *testing.T) {
	s := New(testRate)
	for _, bankName := range BankNames() {
		bank, _ := LookupBank(bankName)
		for _, name := range bank.Names() {
			vs := s.Cue(0, bank[name])
			if len(vs) == 0 {
				t.Errorf("%s/%s: no voices", bankName, name)
			}
			for _, v := range vs {
				if v.Duration() <= 0 || v.Duration() > 2 {
					t.Errorf("%s/%s: duration %v", bankName, name, v.Duration())
				}
				if peak(render(v, testRate*3)) == 0 {
					t.Errorf("%s/%s: silent voice", bankName, name)
				}
			}
		}
	}
}

func TestFindCueFallsBackToDefaultBank(t *testing.T) {
	if _, ok := FindCue("core", "hover"); !ok {
		t.Fatal("hover should resolve through the landing bank")
	}
	core, _ := FindCue("core", "gameover")
	breaker, _ := FindCue("breaker", "gameover")
	if core[0].Freq == breaker[0].Freq {
		t.Fatal("banks should keep their own gameover cue")
	}
	if _, ok := FindCue("nope", "kaboom"); ok {
		t.Fatal("unknown cue should not resolve")
	}
}

func TestDelayedCueStartsLater(t *testing.T) {
	s := New(testRate)
	cue, _ := FindCue("match", "success")
	vs := s.Cue(2, cue)
	if len(vs) != 3 {
		t.Fatalf("got %d voices", len(vs))
	}
	for i, v := range vs {
		if want := 2 + 0.1*float64(i); math.Abs(v.Start()-want) > 1e-12 {
			t.Errorf("voice %d starts at %v, want %v", i, v.Start(), want)
		}
	}
}

func TestDroneRunsUntilReleased(t *testing.T) {
	s := New(testRate)
	p, ok := LookupDrone("void")
	if !ok {
		t.Fatal("void drone missing")
	}
	d := s.Drone(0, p)
	out := render(d, testRate)
	if d.Done() || len(out) != testRate {
		t.Fatal("drone should sustain until released")
	}
	if peak(out) == 0 {
		t.Fatal("drone was silent")
	}
	d.Release(1)
	d.Release(5) // ignored
	tail := render(d, testRate*2)
	if !d.Done() {
		t.Fatal("drone should finish after its fade-out")
	}
	if want := int(p.FadeOut * testRate); len(tail) < want-1 || len(tail) > want+1 {
		t.Fatalf("fade-out rendered %d frames, want ~%d", len(tail), want)
	}
}

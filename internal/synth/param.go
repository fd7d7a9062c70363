package synth

import (
	"math"
	"slices"
)

type rampKind int

const (
	rampSet rampKind = iota
	rampLinear
	rampExp
)

type paramEvent struct {
	kind rampKind
	t    float64
	v    float64
}

// Param is an automatable value, evaluated against voice-local time in
// seconds. Events behave like the usual audio-graph automation calls: a set
// jumps at its time, a ramp interpolates from the previous event's time and
// value to its own.
type Param struct {
	initial float64
	events  []paramEvent
}

func NewParam(v float64) *Param {
	return &Param{initial: v}
}

// SetValueAt jumps to v at time t.
func (p *Param) SetValueAt(v, t float64) *Param {
	return p.add(paramEvent{kind: rampSet, t: t, v: v})
}

// LinearRampTo reaches v at time t along a straight line.
func (p *Param) LinearRampTo(v, t float64) *Param {
	return p.add(paramEvent{kind: rampLinear, t: t, v: v})
}

// ExponentialRampTo reaches v at time t along an exponential curve. If the
// ramp would cross or touch zero the previous value is held until t.
func (p *Param) ExponentialRampTo(v, t float64) *Param {
	return p.add(paramEvent{kind: rampExp, t: t, v: v})
}

func (p *Param) add(ev paramEvent) *Param {
	p.events = append(p.events, ev)
	slices.SortStableFunc(p.events, func(a, b paramEvent) int {
		switch {
		case a.t < b.t:
			return -1
		case a.t > b.t:
			return 1
		}
		return 0
	})
	return p
}

// ValueAt evaluates the automation at time t.
func (p *Param) ValueAt(t float64) float64 {
	prevT, prevV := 0.0, p.initial
	for _, ev := range p.events {
		if ev.t <= t {
			prevT, prevV = ev.t, ev.v
			continue
		}
		span := ev.t - prevT
		if span <= 0 {
			return prevV
		}
		frac := (t - prevT) / span
		switch ev.kind {
		case rampLinear:
			return prevV + (ev.v-prevV)*frac
		case rampExp:
			if prevV == 0 || ev.v/prevV <= 0 {
				return prevV
			}
			return prevV * math.Pow(ev.v/prevV, frac)
		default:
			return prevV
		}
	}
	return prevV
}

// End returns the time of the last automation event.
func (p *Param) End() float64 {
	if len(p.events) == 0 {
		return 0
	}
	return p.events[len(p.events)-1].t
}

package effects

import (
	"fmt"
	"strings"
)

// Effector processes stereo audio in-place.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

func (c *Chain) Len() int { return len(c.effects) }

// Spec describes one master effect by name and positional parameters.
// Missing parameters take the effect's defaults.
type Spec struct {
	Type   string    `yaml:"type"`
	Params []float64 `yaml:"params"`
}

// Build turns specs into a chain. It returns nil when specs is empty.
func Build(specs []Spec, sampleRate int) (*Chain, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	chain := NewChain()
	for i, s := range specs {
		eff, err := createEffect(s, sampleRate)
		if err != nil {
			return nil, fmt.Errorf("effect %d: %w", i, err)
		}
		chain.Add(eff)
	}
	return chain, nil
}

func createEffect(s Spec, sampleRate int) (Effector, error) {
	param := func(idx int, def float64) float64 {
		if idx < len(s.Params) {
			return s.Params[idx]
		}
		return def
	}
	switch strings.ToLower(strings.TrimSpace(s.Type)) {
	case "delay":
		return NewDelay(sampleRate,
			param(0, 250),          // delay ms
			float32(param(1, 0.4)), // feedback
			float32(param(2, 0.2)), // cross
			float32(param(3, 0.3)), // wet
		), nil
	case "reverb":
		return NewReverb(sampleRate,
			float32(param(0, 0.5)),  // room size
			float32(param(1, 0.7)),  // feedback
			float32(param(2, 0.25)), // wet
		), nil
	case "limiter", "comp", "compressor":
		return NewLimiter(sampleRate, LimiterParams{
			ThresholdDB: param(0, -10),
			KneeDB:      param(1, 40),
			Ratio:       param(2, 12),
			AttackMs:    param(3, 3),
			ReleaseMs:   param(4, 250),
		}), nil
	}
	return nil, fmt.Errorf("unknown effect type %q", s.Type)
}

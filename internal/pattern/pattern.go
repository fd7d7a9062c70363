// Package pattern defines the fixed 16-step tables that decide which
// instruments sound on each sixteenth note. Tables are pure: the same step
// always yields the same triggers, so the transport may call them as often as
// it likes while catching up.
package pattern

import (
	"fmt"
	"strings"
)

// Steps is the pattern length; one step is a sixteenth note.
const Steps = 16

// DefaultRoot is the bass note the landing groove is written around.
const DefaultRoot = 36

type Instrument int

const (
	Kick Instrument = iota
	Snare
	Hat
	Bass
	Arp
	Lead
)

var instrumentNames = [...]string{"kick", "snare", "hat", "bass", "arp", "lead"}

func (i Instrument) String() string {
	if i >= 0 && int(i) < len(instrumentNames) {
		return instrumentNames[i]
	}
	return fmt.Sprintf("instrument(%d)", int(i))
}

func ParseInstrument(name string) (Instrument, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range instrumentNames {
		if n == name {
			return Instrument(i), nil
		}
	}
	return 0, fmt.Errorf("unknown instrument %q", name)
}

// Trigger asks the synthesizer for one sound.
type Trigger struct {
	Instrument Instrument
	Pitch      int     // MIDI note number; ignored by drums
	Velocity   float64 // scales the instrument's peak level, nominally 0..1
	Length     float64 // seconds; 0 means the instrument's default
}

// Table maps a step index in [0, Steps) to the triggers for that step.
type Table interface {
	TriggersFor(step int) []Trigger
}

// Names lists the built-in tables accepted by ByName.
func Names() []string { return []string{"groove", "drive"} }

// ByName returns a built-in table rooted at the given MIDI note.
func ByName(name string, root int) (Table, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "groove":
		return Groove{Root: root}, nil
	case "drive":
		return Drive{Root: root}, nil
	}
	return nil, fmt.Errorf("unknown pattern %q (expected %s)", name, strings.Join(Names(), "|"))
}

// Wrap folds any integer into [0, Steps).
func Wrap(step int) int {
	step %= Steps
	if step < 0 {
		step += Steps
	}
	return step
}

func isDownbeat(step int) bool { return step%4 == 0 }

// Groove is the landing-page beat: four-on-the-floor kick, backbeat snare,
// eighth-note hats, an off-kick bass line and a sparse arpeggio two octaves
// above the root.
type Groove struct {
	Root int
}

func (g Groove) TriggersFor(step int) []Trigger {
	step = Wrap(step)
	var out []Trigger
	if isDownbeat(step) {
		out = append(out, Trigger{Instrument: Kick, Velocity: 1})
	}
	if step == 4 || step == 12 {
		out = append(out, Trigger{Instrument: Snare, Velocity: 1})
	}
	if step%2 == 0 {
		vel := 1.0
		if isDownbeat(step) {
			vel = 0.5
		}
		out = append(out, Trigger{Instrument: Hat, Velocity: vel})
	}
	if !isDownbeat(step) {
		out = append(out, Trigger{Instrument: Bass, Pitch: g.Root, Velocity: 1})
	}
	if step%3 == 0 {
		pitch := g.Root + 24
		switch step {
		case 3, 9:
			pitch += 3
		case 12:
			pitch += 7
		}
		out = append(out, Trigger{Instrument: Arp, Pitch: pitch, Velocity: 1})
	}
	return out
}

// pentatonic is the major pentatonic ladder in semitones.
var pentatonic = [5]int{0, 2, 4, 7, 9}

// Drive is the breakout menu's drop section: steady kick and hats, eighth
// note bass, a lead triad on every beat and a pentatonic run on every step.
type Drive struct {
	Root int
}

func (d Drive) TriggersFor(step int) []Trigger {
	step = Wrap(step)
	var out []Trigger
	if isDownbeat(step) {
		out = append(out, Trigger{Instrument: Kick, Velocity: 0.8})
	}
	if step%2 == 0 {
		out = append(out,
			Trigger{Instrument: Hat, Velocity: 0.5},
			Trigger{Instrument: Bass, Pitch: d.Root + 12, Velocity: 1.2},
		)
	}
	if isDownbeat(step) {
		for _, iv := range [3]int{0, 4, 9} {
			out = append(out, Trigger{Instrument: Lead, Pitch: d.Root + 24 + iv, Velocity: 0.8, Length: 0.6})
		}
	}
	out = append(out, Trigger{
		Instrument: Lead,
		Pitch:      d.Root + 36 + pentatonic[step%len(pentatonic)],
		Velocity:   0.6,
		Length:     0.15,
	})
	return out
}

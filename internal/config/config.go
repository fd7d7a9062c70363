// Package config loads engine settings from YAML.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cbegin/neonbeat-go/internal/effects"
	"github.com/cbegin/neonbeat-go/internal/pattern"
	"github.com/cbegin/neonbeat-go/internal/synth"
	"github.com/cbegin/neonbeat-go/internal/transport"
)

//go:embed defaults/neonbeat.yaml
var defaultYAML []byte

// Config contains every engine setting.
type Config struct {
	SampleRate       int            `yaml:"sample_rate"`
	Tempo            float64        `yaml:"tempo"`
	RootNote         int            `yaml:"root_note"`
	Pattern          string         `yaml:"pattern"`
	LookaheadSeconds float64        `yaml:"lookahead_seconds"`
	PollIntervalMs   float64        `yaml:"poll_interval_ms"`
	MasterGain       float64        `yaml:"master_gain"`
	Limiter          Limiter        `yaml:"limiter"`
	Effects          []effects.Spec `yaml:"effects"`
	SFXBank          string         `yaml:"sfx_bank"`
	Drone            string         `yaml:"drone"`
	ScoresPath       string         `yaml:"scores_path"`
	LogLevel         string         `yaml:"log_level"`
}

// Limiter configures the master dynamics stage.
type Limiter struct {
	Enabled     bool    `yaml:"enabled"`
	ThresholdDB float64 `yaml:"threshold_db"`
	KneeDB      float64 `yaml:"knee_db"`
	Ratio       float64 `yaml:"ratio"`
	AttackMs    float64 `yaml:"attack_ms"`
	ReleaseMs   float64 `yaml:"release_ms"`
	MakeupDB    float64 `yaml:"makeup_db"`
}

// Params returns the limiter settings, or nil when the limiter is off.
func (l Limiter) Params() *effects.LimiterParams {
	if !l.Enabled {
		return nil
	}
	return &effects.LimiterParams{
		ThresholdDB: l.ThresholdDB,
		KneeDB:      l.KneeDB,
		Ratio:       l.Ratio,
		AttackMs:    l.AttackMs,
		ReleaseMs:   l.ReleaseMs,
		MakeupDB:    l.MakeupDB,
	}
}

// Default returns the built-in configuration. It matches the embedded
// defaults/neonbeat.yaml.
func Default() Config {
	lp := effects.DefaultLimiterParams()
	return Config{
		SampleRate:       48000,
		Tempo:            110,
		RootNote:         pattern.DefaultRoot,
		Pattern:          "groove",
		LookaheadSeconds: 0.1,
		PollIntervalMs:   25,
		MasterGain:       0.5,
		Limiter: Limiter{
			Enabled:     true,
			ThresholdDB: lp.ThresholdDB,
			KneeDB:      lp.KneeDB,
			Ratio:       lp.Ratio,
			AttackMs:    lp.AttackMs,
			ReleaseMs:   lp.ReleaseMs,
			MakeupDB:    lp.MakeupDB,
		},
		Effects:    []effects.Spec{},
		SFXBank:    synth.DefaultBank,
		ScoresPath: "~/.neonbeat/scores.db",
		LogLevel:   "info",
	}
}

// PollInterval returns the scheduler timer period.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs * float64(time.Millisecond))
}

// Level returns the parsed log level, defaulting to info.
func (c Config) Level() log.Level {
	if c.LogLevel == "" {
		return log.InfoLevel
	}
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate))
	}
	if !transport.ValidTempo(c.Tempo) {
		errs = append(errs, fmt.Errorf("tempo must be a finite BPM in (0, %v], got %v", transport.MaxTempo, c.Tempo))
	}
	if c.RootNote < 0 || c.RootNote > 127 {
		errs = append(errs, fmt.Errorf("root_note must be a MIDI note (0-127), got %d", c.RootNote))
	}
	if _, err := pattern.ByName(c.Pattern, c.RootNote); err != nil {
		errs = append(errs, err)
	}
	if c.LookaheadSeconds <= 0 {
		errs = append(errs, fmt.Errorf("lookahead_seconds must be positive, got %v", c.LookaheadSeconds))
	}
	if c.PollIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval_ms must be positive, got %v", c.PollIntervalMs))
	}
	if c.MasterGain < 0 {
		errs = append(errs, fmt.Errorf("master_gain must not be negative, got %v", c.MasterGain))
	}
	if c.Limiter.Enabled && c.Limiter.Ratio < 1 {
		errs = append(errs, fmt.Errorf("limiter.ratio must be at least 1, got %v", c.Limiter.Ratio))
	}
	if c.SampleRate > 0 {
		if _, err := effects.Build(c.Effects, c.SampleRate); err != nil {
			errs = append(errs, err)
		}
	}
	if _, ok := synth.LookupBank(c.SFXBank); !ok {
		errs = append(errs, fmt.Errorf("unknown sfx_bank %q", c.SFXBank))
	}
	if c.Drone != "" {
		if _, ok := synth.LookupDrone(c.Drone); !ok {
			errs = append(errs, fmt.Errorf("unknown drone %q", c.Drone))
		}
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			errs = append(errs, fmt.Errorf("log_level: %w", err))
		}
	}
	return errors.Join(errs...)
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbegin/neonbeat-go"
	"github.com/cbegin/neonbeat-go/internal/synth"
)

var sfxBank string

var sfxCmd = &cobra.Command{
	Use:   "sfx <name>...",
	Short: "Play one or more sound effects",
	Long: `Play sound effects from a bank, one after another. Names missing from
the bank are looked up in the landing bank.

Examples:
  neonbeat sfx click
  neonbeat sfx --bank core shoot explosion gameover`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSFX,
}

func init() {
	sfxCmd.Flags().StringVar(&sfxBank, "bank", "", "Sound bank (default from config)")
}

func runSFX(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if sfxBank != "" {
		cfg.SFXBank = sfxBank
	}
	logger := newLogger(cfg)

	engine, err := neonbeat.NewEngine(neonbeat.WithConfig(cfg), neonbeat.WithLogger(logger))
	if err != nil {
		return err
	}
	defer engine.Dispose()
	engine.Init()

	for _, name := range args {
		cue, ok := synth.FindCue(cfg.SFXBank, name)
		if !ok {
			return fmt.Errorf("unknown sound %q in bank %s", name, cfg.SFXBank)
		}
		logger.Debug("sfx", "name", name, "bank", cfg.SFXBank)
		engine.PlaySFX(name)
		time.Sleep(cueLength(cue) + 100*time.Millisecond)
	}
	return nil
}

func cueLength(c synth.Cue) time.Duration {
	var end float64
	for _, t := range c {
		end = max(end, t.Delay+t.Duration+t.Hold)
	}
	return time.Duration(end * float64(time.Second))
}

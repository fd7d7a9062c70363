package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cbegin/neonbeat-go"
	"github.com/cbegin/neonbeat-go/internal/config"
)

var (
	renderOut     string
	renderSeconds float64
	renderFloat   bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the sequencer to a WAV file",
	Long: `Run the scheduler offline and write the result as a stereo WAV file.
The render is deterministic for a given configuration.

Examples:
  neonbeat render -o groove.wav
  neonbeat render -o drive.wav --pattern drive --seconds 16 --float`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "neonbeat.wav", "Output WAV path")
	renderCmd.Flags().Float64Var(&renderSeconds, "seconds", 8, "Length of the render")
	renderCmd.Flags().BoolVar(&renderFloat, "float", false, "Write 32-bit float samples instead of 16-bit PCM")
	renderCmd.Flags().Float64Var(&playTempo, "tempo", 0, "Tempo in BPM (default from config)")
	renderCmd.Flags().StringVar(&playPattern, "pattern", "", "Step pattern: groove|drive")
	renderCmd.Flags().IntVar(&playRoot, "root", 0, "Root MIDI note of the bass line")
	renderCmd.Flags().StringVar(&playDrone, "drone", "", "Background drone to hold while rendering")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyPlayFlags(cmd, &cfg)
	logger := newLogger(cfg)

	samples, err := neonbeat.RenderSamples(cfg, renderSeconds, neonbeat.WithLogger(logger))
	if err != nil {
		return err
	}

	path, err := config.ExpandPath(renderOut)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(strings.ToLower(path), ".wav") {
		logger.Warn("output does not end in .wav", "path", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if renderFloat {
		_, err = f.Write(neonbeat.EncodeWAVFloat32LE(samples, cfg.SampleRate, 2))
	} else {
		err = neonbeat.WriteWAV16(f, samples, cfg.SampleRate, 2)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Info("rendered", "path", path, "seconds", renderSeconds, "pattern", cfg.Pattern, "tempo", cfg.Tempo)
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbegin/neonbeat-go"
	"github.com/cbegin/neonbeat-go/internal/config"
)

var (
	playTempo    float64
	playPattern  string
	playRoot     int
	playDrone    string
	playDuration time.Duration
	playVolume   float64
	playPulse    bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the sequencer until interrupted",
	Long: `Start the beat scheduler on the default audio device.

Examples:
  neonbeat play
  neonbeat play --pattern drive --tempo 140 --root 40
  neonbeat play --drone catch --duration 30s --pulse`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().Float64Var(&playTempo, "tempo", 0, "Tempo in BPM (default from config)")
	playCmd.Flags().StringVar(&playPattern, "pattern", "", "Step pattern: groove|drive")
	playCmd.Flags().IntVar(&playRoot, "root", 0, "Root MIDI note of the bass line")
	playCmd.Flags().StringVar(&playDrone, "drone", "", "Background drone to hold while playing")
	playCmd.Flags().DurationVar(&playDuration, "duration", 0, "Stop after this long (0 = until interrupted)")
	playCmd.Flags().Float64Var(&playVolume, "volume", 1, "Master volume scalar")
	playCmd.Flags().BoolVar(&playPulse, "pulse", false, "Print a line on every downbeat")
}

// applyPlayFlags copies explicitly set sequencer flags over the config.
func applyPlayFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("tempo") {
		cfg.Tempo = playTempo
	}
	if flags.Changed("pattern") {
		cfg.Pattern = playPattern
	}
	if flags.Changed("root") {
		cfg.RootNote = playRoot
	}
	if flags.Changed("drone") {
		cfg.Drone = playDrone
	}
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyPlayFlags(cmd, &cfg)
	logger := newLogger(cfg)

	engine, err := neonbeat.NewEngine(
		neonbeat.WithConfig(cfg),
		neonbeat.WithLogger(logger),
		neonbeat.WithMasterVolume(playVolume),
	)
	if err != nil {
		return err
	}
	defer engine.Dispose()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if playDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, playDuration)
		defer cancel()
	}

	events := engine.Watch()
	engine.Start()
	if !engine.IsPlaying() {
		return fmt.Errorf("audio output unavailable")
	}
	logger.Info("playing", "pattern", cfg.Pattern, "tempo", cfg.Tempo, "root", cfg.RootNote)

	for {
		select {
		case <-ctx.Done():
			engine.Stop()
			logger.Info("stopped", "clock", fmt.Sprintf("%.2fs", engine.Clock()))
			return nil
		case ev := <-events:
			if playPulse && ev.Kind == neonbeat.EventDownbeat {
				fmt.Printf("beat %2d  %7.3fs\n", ev.Step, ev.Time)
			}
		}
	}
}

// neonbeat drives the beat scheduler from the command line.
//
// Usage:
//
//	neonbeat play                 - Play the sequencer until interrupted
//	neonbeat render -o out.wav    - Render the sequencer to a WAV file
//	neonbeat sfx <name>           - Play one sound effect
//	neonbeat banks                - List patterns, sound banks and drones
//	neonbeat best [key [score]]   - Show or submit best scores
//
// Global flags:
//
//	--config <path>     - Config file (default search: ~/.neonbeat, ./configs, embedded)
//	--log-level <lvl>   - debug|info|warn|error
//	--db <path>         - Scores database (default from config)
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cbegin/neonbeat-go/internal/config"
)

var (
	flagConfig   string
	flagLogLevel string
	flagDBPath   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "neonbeat",
	Short: "Procedural beat scheduler and game sound engine",
	Long: `neonbeat plays a 16-step procedural beat with lookahead scheduling,
renders it offline and plays the one-shot sound effects of the games.

Examples:
  neonbeat play --tempo 128 --pattern drive
  neonbeat render -o groove.wav --seconds 8
  neonbeat sfx explosion --bank core
  neonbeat best breaker 4200`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to scores database (overrides config)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(sfxCmd)
	rootCmd.AddCommand(banksCmd)
	rootCmd.AddCommand(bestCmd)
}

// loadConfig loads the config file and applies the global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagDBPath != "" {
		cfg.ScoresPath = flagDBPath
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "neonbeat",
	})
	logger.SetLevel(cfg.Level())
	return logger
}

// Command trance plays, renders and serves hypnosis session scripts.
package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/simukka/trance/config"
)

var version = "0.1.0"

var (
	verbose bool
	envFile string
	logger  *log.Logger
	env     config.Env
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "trance",
	Short: "Play scripted hypnosis sessions with ambience and brainwave entrainment",
	Long: `trance speaks a tagged session script line by line over an ambient
soundscape and an optional binaural or isochronic beat.

Script tags:
  [pause 3s]                     explicit pause
  [slow] [fast] [up] [down]      rate and pitch
  [whisper] [loud]               volume
  [left] [right] [center]        pan
  [calm] [nurturing] ... [/]     tone presets
  [BINAURAL: 6 Hz]               frequency hint`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		logger = log.NewWithOptions(os.Stderr, log.Options{
			Level:           level,
			Prefix:          "trance",
			ReportTimestamp: true,
		})
		var err error
		env, err = config.LoadEnv(envFile)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Dotenv file with TRANCE_* overrides (optional)")

	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(voicesCmd)
}

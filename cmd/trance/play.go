package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/simukka/trance/audio"
	"github.com/simukka/trance/audio/soft"
	"github.com/simukka/trance/engine"
	"github.com/simukka/trance/sched"
	"github.com/simukka/trance/speech"
)

var (
	playFlags  sessionFlags
	synthName  string
	sampleRate float64
	bufferSize time.Duration
)

var playCmd = &cobra.Command{
	Use:   "play <session.yaml>",
	Short: "Play a session through the speakers",
	Long: `Play a session: speech through the local TTS command, ambience and
entrainment through the default audio device. Ctrl-C stops.

Examples:
  trance play session.yaml
  trance play session.yaml --soundscape rain --protocol relax
  trance play session.yaml --synth silent --fire fire.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	addSessionFlags(playCmd, &playFlags)
	playCmd.Flags().StringVar(&synthName, "synth", "", "Speech backend: auto, exec or silent (default from TRANCE_SYNTH)")
	playCmd.Flags().Float64Var(&sampleRate, "rate", 44100, "Output sample rate")
	playCmd.Flags().DurationVar(&bufferSize, "buffer", 100*time.Millisecond, "Output device buffer")
}

func addSessionFlags(cmd *cobra.Command, f *sessionFlags) {
	cmd.Flags().StringVarP(&f.soundscape, "soundscape", "s", "", "Soundscape: none, rain, wind, om, fire")
	cmd.Flags().StringVarP(&f.entrainment, "entrainment", "e", "", "Entrainment: binaural or isochronic (enables it)")
	cmd.Flags().StringVarP(&f.protocol, "protocol", "p", "", "Frequency glide: none, relax, sleep, focus")
	cmd.Flags().Float64Var(&f.freq, "freq", 0, "Entrainment beat frequency in Hz (enables it)")
	cmd.Flags().StringVar(&f.fire, "fire", "", "Local WAV file for the fire soundscape")
}

func newSynth(s sched.Scheduler) (speech.Synthesizer, error) {
	name := synthName
	if name == "" {
		name = env.Synth
	}
	switch name {
	case "silent":
		return nil, nil
	case "exec":
		c, err := speech.NewCommand(s, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "auto", "":
		c, err := speech.NewCommand(s, logger)
		if err != nil {
			logger.Warn("no speech command, advancing silently", "err", err)
			return nil, nil
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown synth %q", name)
	}
}

func runPlay(cmd *cobra.Command, args []string) error {
	sess, err := loadSession(args[0], playFlags)
	if err != nil {
		return err
	}

	loop := sched.NewLoop()
	defer loop.Close()

	synth, err := newSynth(loop)
	if err != nil {
		return err
	}

	var speaker *soft.Speaker
	factory := func() (audio.Context, error) {
		c := soft.NewContext(sampleRate)
		sp, err := soft.NewSpeaker(c, bufferSize)
		if err != nil {
			c.Close()
			return nil, err
		}
		speaker = sp
		return c, nil
	}

	lines := speech.Segments(sess.Script)
	out := cmd.OutOrStdout()
	done := make(chan struct{})

	var e *engine.Engine
	var cfgErr error
	loop.Do(func() {
		e = engine.New(engine.Options{
			ContextFactory: factory,
			Synth:          synth,
			Scheduler:      loop,
			Logger:         logger,
			Settings:       sess.Settings,
			OnLineChange: func(line int) {
				if line >= 0 && line < len(lines) {
					fmt.Fprintf(out, "%3d  %s\n", line, lines[line])
				}
			},
			OnComplete: func() { close(done) },
		})
		if cfgErr = configure(e, sess, playFlags.fire); cfgErr != nil {
			return
		}
		if sess.Title != "" {
			logger.Info("playing", "title", sess.Title, "lines", len(lines))
		}
		e.TogglePlay()
		if e.Settings().BinauralEnabled {
			b := e.Band()
			logger.Info("entrainment", "mode", e.EntrainmentType(), "hz", e.CurrentFrequency(), "band", b.Name, "state", b.State)
		}
	})
	if cfgErr != nil {
		loop.Do(e.Dispose)
		return cfgErr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case <-done:
		logger.Info("session complete")
	case <-ctx.Done():
		logger.Info("stopped")
	}

	loop.Do(e.Dispose)
	if speaker != nil {
		speaker.Close()
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/spf13/cobra"

	"github.com/simukka/trance/audio"
	"github.com/simukka/trance/audio/soft"
	"github.com/simukka/trance/config"
	"github.com/simukka/trance/engine"
	"github.com/simukka/trance/sched"
)

// maxRender caps a render that runs until the session completes.
const maxRender = 2 * time.Hour

var errNothingToPlay = errors.New("session has nothing to play")

var (
	renderFlags   sessionFlags
	renderOut     string
	renderRate    float64
	renderSeconds float64
)

var renderCmd = &cobra.Command{
	Use:   "render <session.yaml>",
	Short: "Render a session's ambience and entrainment to a WAV file",
	Long: `Render a session offline. Speech is paced silently; the soundscape,
entrainment and any protocol glide are written to a 16-bit stereo WAV.
Without --seconds the render stops when the script finishes.

Example:
  trance render session.yaml -o session.wav --protocol sleep`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := loadSession(args[0], renderFlags)
		if err != nil {
			return err
		}
		f, err := os.Create(renderOut)
		if err != nil {
			return err
		}
		secs, err := renderSession(f, sess, renderOptions{
			rate:    renderRate,
			seconds: renderSeconds,
			fire:    renderFlags.fire,
			logger:  logger,
		})
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		logger.Info("rendered", "file", renderOut, "seconds", fmt.Sprintf("%.1f", secs))
		return nil
	},
}

func init() {
	addSessionFlags(renderCmd, &renderFlags)
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "session.wav", "Output WAV file")
	renderCmd.Flags().Float64Var(&renderRate, "rate", 44100, "Sample rate")
	renderCmd.Flags().Float64Var(&renderSeconds, "seconds", 0, "Length in seconds (default: until the script finishes)")
}

type renderOptions struct {
	rate    float64
	seconds float64
	fire    string
	logger  *log.Logger
}

// renderSession plays sess on a manual clock driven by the rendered frame
// count and returns the seconds written.
func renderSession(w io.WriteSeeker, sess *config.Session, opts renderOptions) (float64, error) {
	clock := sched.NewManual()
	var ctx *soft.Context
	factory := func() (audio.Context, error) {
		ctx = soft.NewContext(opts.rate)
		return ctx, nil
	}

	done := false
	e := engine.New(engine.Options{
		ContextFactory: factory,
		Scheduler:      clock,
		Logger:         opts.logger,
		Settings:       sess.Settings,
		OnComplete:     func() { done = true },
	})
	defer e.Dispose()
	if err := configure(e, sess, opts.fire); err != nil {
		return 0, err
	}
	e.TogglePlay()
	if ctx == nil {
		return 0, fmt.Errorf("render: %w", audio.ErrNoContext)
	}
	if done && opts.seconds <= 0 {
		return 0, errNothingToPlay
	}

	limit := maxRender.Seconds()
	if opts.seconds > 0 {
		limit = opts.seconds
	}
	s := &sessionStream{
		ctx:   ctx,
		clock: clock,
		done:  &done,
		left:  int(limit * opts.rate),
		stop:  opts.seconds <= 0,
	}
	format := beep.Format{SampleRate: beep.SampleRate(int(opts.rate)), NumChannels: 2, Precision: 2}
	if err := wav.Encode(w, s, format); err != nil {
		return 0, err
	}
	return float64(s.written) / opts.rate, nil
}

// sessionStream pulls the context and moves the clock to match, so timers
// fire at the frame they are due.
type sessionStream struct {
	ctx     *soft.Context
	clock   *sched.Manual
	done    *bool
	left    int
	stop    bool // end on completion
	written int
}

func (s *sessionStream) Stream(samples [][2]float64) (int, bool) {
	if s.left <= 0 || (s.stop && *s.done) {
		return 0, false
	}
	if len(samples) > s.left {
		samples = samples[:s.left]
	}
	n, ok := s.ctx.Stream(samples)
	s.left -= n
	s.written += n
	target := time.Duration(s.ctx.CurrentTime() * float64(time.Second))
	if d := target - s.clock.Now(); d > 0 {
		s.clock.Advance(d)
	}
	return n, ok
}

func (s *sessionStream) Err() error { return nil }

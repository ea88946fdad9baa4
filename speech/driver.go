// Package speech tokenizes marked-up scripts and walks them through a speech
// synthesizer one action at a time.
package speech

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/simukka/trance/config"
	"github.com/simukka/trance/sched"
)

// State is the driver's position in its play cycle.
type State int

const (
	Idle State = iota
	Speaking
	Waiting
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Speaking:
		return "speaking"
	case Waiting:
		return "waiting"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Timing holds the driver's fixed delays.
type Timing struct {
	UtteranceGap     time.Duration // after an utterance ends naturally
	ErrorBackoff     time.Duration // after an utterance reports an error
	SpeakFailBackoff time.Duration // after the synthesizer refuses to start
	PollInterval     time.Duration
	PollAttempts     int
}

var DefaultTiming = Timing{
	UtteranceGap:     10 * time.Millisecond,
	ErrorBackoff:     100 * time.Millisecond,
	SpeakFailBackoff: 500 * time.Millisecond,
	PollInterval:     500 * time.Millisecond,
	PollAttempts:     10,
}

// DriverOptions configures a Driver. Scheduler is required; a nil Synth
// falls back to Silent.
type DriverOptions struct {
	Synth      Synthesizer
	Scheduler  sched.Scheduler
	Settings   func() config.Settings
	OnLine     func(line int)
	OnComplete func()
	Logger     *log.Logger
	Timing     Timing
}

// Driver walks a tokenized script. Every method and every callback it
// schedules runs on the scheduler's control thread.
type Driver struct {
	synth      Synthesizer
	sched      sched.Scheduler
	settings   func() config.Settings
	onLine     func(int)
	onComplete func()
	logger     *log.Logger
	timing     Timing

	script    string
	tokenized bool
	actions   []Action
	cursor    int
	line      int

	state    State
	playing  bool
	inFlight bool
	gen      uint64
	timer    sched.Timer
}

// NewDriver returns an idle driver.
func NewDriver(opts DriverOptions) *Driver {
	d := &Driver{
		synth:      opts.Synth,
		sched:      opts.Scheduler,
		settings:   opts.Settings,
		onLine:     opts.OnLine,
		onComplete: opts.OnComplete,
		logger:     opts.Logger,
		timing:     opts.Timing,
		line:       -1,
	}
	if d.logger == nil {
		d.logger = log.New(io.Discard)
	}
	d.logger = d.logger.WithPrefix("speech")
	if d.settings == nil {
		d.settings = config.Defaults
	}
	if d.timing == (Timing{}) {
		d.timing = DefaultTiming
	}
	if d.synth == nil {
		d.synth = NewSilent(d.sched)
	}
	return d
}

// SetSynthesizer swaps the backend. An utterance in flight on the old backend
// is cancelled and will be replayed on the next Play.
func (d *Driver) SetSynthesizer(s Synthesizer) {
	if s == nil {
		s = NewSilent(d.sched)
	}
	if d.playing && d.inFlight {
		d.Pause()
		d.synth = s
		d.Play(d.script)
		return
	}
	d.synth = s
}

// Synthesizer returns the active backend.
func (d *Driver) Synthesizer() Synthesizer { return d.synth }

// Play starts or resumes script. A script that differs from the loaded one
// is retokenized from the start. An empty script completes immediately.
func (d *Driver) Play(script string) {
	if d.playing {
		if script == d.script {
			return
		}
		d.Reset()
	}
	if !d.tokenized || script != d.script || len(d.actions) == 0 {
		d.load(script)
	}
	d.playing = true
	d.gen++
	d.state = Speaking
	d.logger.Debug("play", "cursor", d.cursor, "actions", len(d.actions))
	d.step(d.gen)
}

// Pause stops the current action. An interrupted utterance is replayed from
// its start on the next Play; a pause cut short is not resumed.
func (d *Driver) Pause() {
	d.cancelPending()
	if !d.playing {
		return
	}
	d.playing = false
	if d.inFlight {
		d.inFlight = false
		d.synth.Cancel()
		if d.cursor > 0 {
			d.cursor--
		}
	}
	d.state = Paused
	d.logger.Debug("pause", "cursor", d.cursor)
}

// Reset stops playback and forgets the loaded script.
func (d *Driver) Reset() {
	d.Pause()
	d.actions = nil
	d.cursor = 0
	d.line = -1
	d.script = ""
	d.tokenized = false
	d.state = Idle
}

// Playing reports whether the driver is walking its queue.
func (d *Driver) Playing() bool { return d.playing }

// State returns the driver's current state.
func (d *Driver) State() State { return d.state }

// Cursor returns the index of the next action to run.
func (d *Driver) Cursor() int { return d.cursor }

// Line returns the last reported line index, or -1.
func (d *Driver) Line() int { return d.line }

// Actions returns a copy of the loaded action list.
func (d *Driver) Actions() []Action {
	return append([]Action(nil), d.actions...)
}

func (d *Driver) load(script string) {
	d.script = script
	d.actions = Tokenize(script)
	d.cursor = 0
	d.line = -1
	d.tokenized = true
}

// cancelPending invalidates every callback scheduled so far.
func (d *Driver) cancelPending() {
	d.gen++
	sched.Stop(d.timer)
	d.timer = nil
}

func (d *Driver) live(gen uint64) bool {
	return d.playing && gen == d.gen
}

func (d *Driver) step(gen uint64) {
	for {
		if !d.live(gen) {
			return
		}
		if d.cursor >= len(d.actions) {
			d.finish()
			return
		}
		a := d.actions[d.cursor]
		d.cursor++
		d.line = a.Line
		if d.onLine != nil {
			d.onLine(a.Line)
			if !d.live(gen) {
				return
			}
		}

		var secs float64
		switch a.Kind {
		case Speak:
			d.speak(a, gen)
			return
		case ExplicitPause:
			secs = a.Duration
		case ImplicitPause:
			secs = d.settings().Pause
		}
		if secs <= 0 {
			continue
		}
		d.wait(sched.Seconds(secs), gen)
		return
	}
}

func (d *Driver) wait(delay time.Duration, gen uint64) {
	d.state = Waiting
	d.timer = d.sched.AfterFunc(delay, func() {
		if !d.live(gen) {
			return
		}
		d.timer = nil
		d.state = Speaking
		d.step(gen)
	})
}

func (d *Driver) speak(a Action, gen uint64) {
	u := d.utterance(a)
	d.state = Speaking
	d.inFlight = true
	err := d.synth.Speak(u, func(err error) { d.spoken(gen, err) })
	if err != nil {
		if !d.live(gen) {
			return
		}
		d.inFlight = false
		d.logger.Warn("speak failed", "text", a.Text, "err", err)
		d.wait(d.timing.SpeakFailBackoff, gen)
	}
}

func (d *Driver) spoken(gen uint64, err error) {
	if !d.live(gen) || !d.inFlight {
		return
	}
	d.inFlight = false
	delay := d.timing.UtteranceGap
	if err != nil {
		d.logger.Warn("utterance error", "line", d.line, "err", err)
		delay = d.timing.ErrorBackoff
	}
	d.wait(delay, gen)
}

// utterance resolves the voice and the effective prosody from the live
// settings.
func (d *Driver) utterance(a Action) Utterance {
	s := d.settings()
	u := Utterance{
		Text:   a.Text,
		Lang:   "en-US",
		Rate:   a.Prosody.Rate * s.Speed * PacingFactor(s.BinauralEnabled, s.BinauralFreq),
		Pitch:  a.Prosody.Pitch,
		Volume: a.Prosody.Volume * s.VoiceVolume,
		Pan:    a.Prosody.Pan,
	}
	if v, ok := SelectVoice(d.synth.Voices(), s.SelectedVoiceURI); ok {
		u.Voice = &v
		if v.Lang != "" {
			u.Lang = v.Lang
		}
	}
	return u
}

func (d *Driver) finish() {
	d.logger.Debug("complete", "actions", len(d.actions))
	d.Reset()
	if d.onComplete != nil {
		d.onComplete()
	}
}

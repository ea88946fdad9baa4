// Package engine composes the speech driver, the shared audio output and the
// soundscape and entrainment generators into one player. Every method must
// be called on the scheduler's control thread.
package engine

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"github.com/simukka/trance/audio"
	"github.com/simukka/trance/common"
	"github.com/simukka/trance/config"
	"github.com/simukka/trance/sched"
	"github.com/simukka/trance/speech"
)

// ErrDisposed is returned by calls made after Dispose.
var ErrDisposed = errors.New("engine disposed")

// Options configures an Engine. Scheduler is required.
type Options struct {
	// ContextFactory builds the audio context on the first play. Nil means
	// speech only.
	ContextFactory audio.ContextFactory
	// Synth speaks the script. Nil means Silent. A synthesizer that reports
	// no voices after probing is swapped for Silent.
	Synth     speech.Synthesizer
	Scheduler sched.Scheduler
	Logger    *log.Logger
	Settings  config.Settings
	Timing    speech.Timing
	RNG       *common.SeededRNG

	OnLineChange func(line int)
	OnComplete   func()
}

// Engine is the player.
type Engine struct {
	sched      sched.Scheduler
	logger     *log.Logger
	onLine     func(int)
	onComplete func()

	settings config.Settings
	script   string
	mode     audio.Mode
	playing  bool
	disposed bool

	out         *audio.Output
	driver      *speech.Driver
	soundscape  *audio.Soundscape
	entrainment *audio.Entrainment
	poller      *speech.VoicePoller
	voices      []speech.Voice

	protocol  Protocol
	protoStep int
	protoFreq float64
	protoTick sched.Timer
}

// New returns a stopped engine. The audio context is not created until the
// first TogglePlay.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Settings == (config.Settings{}) {
		opts.Settings = config.Defaults()
	}
	timing := opts.Timing
	if timing == (speech.Timing{}) {
		timing = speech.DefaultTiming
	}

	e := &Engine{
		sched:      opts.Scheduler,
		logger:     logger.WithPrefix("engine"),
		onLine:     opts.OnLineChange,
		onComplete: opts.OnComplete,
		settings:   opts.Settings,
		mode:       audio.Binaural,
		protocol:   NoProtocol,
	}
	e.out = audio.NewOutput(opts.ContextFactory, logger)
	e.soundscape = audio.NewSoundscape(e.out, opts.Scheduler, opts.RNG, logger)
	e.entrainment = audio.NewEntrainment(e.out, logger)
	e.driver = speech.NewDriver(speech.DriverOptions{
		Synth:      opts.Synth,
		Scheduler:  opts.Scheduler,
		Settings:   e.Settings,
		OnLine:     e.lineChanged,
		OnComplete: e.completed,
		Logger:     logger,
		Timing:     timing,
	})
	if opts.Synth != nil {
		e.poller = speech.PollVoices(opts.Scheduler, opts.Synth, timing.PollInterval, timing.PollAttempts, e.voicesFound)
	}
	return e
}

func (e *Engine) voicesFound(voices []speech.Voice) {
	e.voices = append([]speech.Voice(nil), voices...)
	speech.SortVoices(e.voices)
	if len(voices) == 0 {
		e.logger.Warn("no voices, advancing silently")
		e.driver.SetSynthesizer(speech.NewSilent(e.sched))
		return
	}
	e.logger.Debug("voices ready", "count", len(voices))
}

// Voices returns the voices the synthesizer reported, sorted.
func (e *Engine) Voices() []speech.Voice {
	return append([]speech.Voice(nil), e.voices...)
}

// Settings returns the live settings. The speech driver reads them on every
// utterance.
func (e *Engine) Settings() config.Settings { return e.settings }

// Script returns the loaded script.
func (e *Engine) Script() string { return e.script }

// Load replaces the script. A playing session stops and the next
// TogglePlay starts the new script from its first line.
func (e *Engine) Load(script string) error {
	if e.disposed {
		return ErrDisposed
	}
	if script == e.script {
		return nil
	}
	if e.playing {
		e.stop()
	}
	e.driver.Reset()
	e.script = script
	return nil
}

// IsPlaying reports whether a session is playing.
func (e *Engine) IsPlaying() bool { return e.playing }

// Line returns the last line reported, or -1.
func (e *Engine) Line() int { return e.driver.Line() }

// TogglePlay starts or stops the session. It never fails: an audio context
// the platform keeps suspended is retried on the next call, and speech plays
// either way.
func (e *Engine) TogglePlay() {
	if e.disposed {
		return
	}
	if e.playing {
		e.stop()
		return
	}
	e.start()
}

func (e *Engine) start() {
	audioOK := true
	if err := e.out.EnsureReady(); err != nil {
		switch {
		case errors.Is(err, audio.ErrSuspended):
			e.logger.Warn("audio suspended, retrying on next play", "err", err)
		default:
			e.logger.Warn("audio unavailable, playing speech only", "err", err)
			audioOK = false
		}
	}

	e.playing = true
	e.logger.Debug("play")
	e.driver.Play(e.script)
	if !e.playing {
		// Completed synchronously.
		return
	}
	if !audioOK {
		return
	}

	e.soundscape.SetVolume(e.settings.AmbienceVolume)
	if err := e.soundscape.Start(); err != nil {
		e.logger.Warn("soundscape failed", "kind", e.soundscape.Kind(), "err", err)
	}
	e.startProtocol()
	e.syncEntrainment()
}

// stop pauses speech and tears down both generator graphs. The output
// context is kept.
func (e *Engine) stop() {
	e.playing = false
	e.driver.Pause()
	e.soundscape.Stop()
	e.stopProtocol()
	e.entrainment.Disable()
	e.logger.Debug("stop")
}

func (e *Engine) lineChanged(line int) {
	if e.onLine != nil {
		e.onLine(line)
	}
}

func (e *Engine) completed() {
	if e.playing {
		e.playing = false
		e.soundscape.Stop()
		e.stopProtocol()
		e.entrainment.Disable()
	}
	e.logger.Debug("complete")
	if e.onComplete != nil {
		e.onComplete()
	}
}

// UpdateSettings swaps in new settings. While playing, volumes and the
// entrainment frequency glide in place; toggling entrainment builds or
// tears down its graph.
func (e *Engine) UpdateSettings(s config.Settings) error {
	if e.disposed {
		return ErrDisposed
	}
	if err := s.Validate(); err != nil {
		return err
	}
	prev := e.settings
	e.settings = s
	if !e.playing {
		return nil
	}
	if s.AmbienceVolume != prev.AmbienceVolume {
		e.soundscape.SetVolume(s.AmbienceVolume)
	}
	if s.BinauralEnabled != prev.BinauralEnabled ||
		s.BinauralFreq != prev.BinauralFreq ||
		s.BinauralVolume != prev.BinauralVolume {
		e.syncEntrainment()
	}
	return nil
}

// syncEntrainment brings the entrainment graph in line with the settings,
// the selected mode and any running protocol.
func (e *Engine) syncEntrainment() {
	if !e.playing || !e.settings.BinauralEnabled {
		e.entrainment.Disable()
		return
	}
	err := e.entrainment.Enable(e.mode, e.CurrentFrequency(), e.settings.BinauralVolume)
	if err != nil {
		e.logger.Warn("entrainment failed", "mode", e.mode, "err", err)
	}
}

// SelectSoundscape switches ambience. While playing the new texture starts
// at once; otherwise it starts with the next play. A texture that cannot be
// built is logged and left silent.
func (e *Engine) SelectSoundscape(k audio.Kind) error {
	if e.disposed {
		return ErrDisposed
	}
	if err := e.soundscape.Select(k); err != nil {
		e.logger.Warn("soundscape failed", "kind", k, "err", err)
	}
	return nil
}

// ActiveSoundscape returns the selected ambience.
func (e *Engine) ActiveSoundscape() audio.Kind { return e.soundscape.Kind() }

// SetFireSource points the Fire soundscape at another sample.
func (e *Engine) SetFireSource(src string) { e.soundscape.FireURL = src }

// SetEntrainmentType switches between binaural and isochronic. A running
// graph is rebuilt.
func (e *Engine) SetEntrainmentType(m audio.Mode) error {
	if e.disposed {
		return ErrDisposed
	}
	e.mode = m
	if e.entrainment.Active() {
		if err := e.entrainment.SetMode(m); err != nil {
			e.logger.Warn("entrainment failed", "mode", m, "err", err)
		}
	}
	return nil
}

// EntrainmentType returns the selected mode.
func (e *Engine) EntrainmentType() audio.Mode { return e.mode }

// SetProtocol selects a frequency glide. A running glide restarts from its
// first step; NoProtocol hands the frequency back to the settings.
func (e *Engine) SetProtocol(p Protocol) error {
	if e.disposed {
		return ErrDisposed
	}
	p, err := ParseProtocol(string(p))
	if err != nil {
		return err
	}
	e.stopProtocol()
	e.protocol = p
	if e.playing {
		e.startProtocol()
		e.syncEntrainment()
	}
	return nil
}

// Protocol returns the selected glide.
func (e *Engine) Protocol() Protocol { return e.protocol }

// CurrentFrequency returns the beat frequency being aimed for: the running
// glide's value, or the settings value. LiveFrequency reports what the
// graph is producing while it ramps there.
func (e *Engine) CurrentFrequency() float64 {
	if e.playing && e.protocol != NoProtocol {
		return e.protoFreq
	}
	return e.settings.BinauralFreq
}

// LiveFrequency returns the beat the entrainment graph is sounding now. It
// differs from CurrentFrequency for a moment after every retune.
func (e *Engine) LiveFrequency() float64 {
	if e.entrainment.Active() {
		return e.entrainment.LiveFrequency()
	}
	return e.CurrentFrequency()
}

// Band returns the brainwave band of the current frequency.
func (e *Engine) Band() audio.Band { return audio.BandFor(e.CurrentFrequency()) }

func (e *Engine) startProtocol() {
	ramp, ok := Protocols[e.protocol]
	if !ok {
		return
	}
	e.protoStep = 0
	e.protoFreq = ramp.Start
	e.logger.Debug("protocol", "name", e.protocol, "from", ramp.Start, "to", ramp.End)
	var tick func()
	tick = func() {
		if !e.playing {
			e.protoTick = nil
			return
		}
		e.protoStep++
		e.protoFreq = ramp.At(e.protoStep)
		if e.entrainment.Active() {
			e.entrainment.SetFrequency(e.protoFreq)
		}
		if e.protoStep >= ramp.Steps() {
			e.protoTick = nil
			return
		}
		e.protoTick = e.sched.AfterFunc(ProtocolStep, tick)
	}
	e.protoTick = e.sched.AfterFunc(ProtocolStep, tick)
}

func (e *Engine) stopProtocol() {
	sched.Stop(e.protoTick)
	e.protoTick = nil
}

// Dispose stops everything and closes the audio context. The engine cannot
// be used again; repeated calls do nothing.
func (e *Engine) Dispose() {
	if e.disposed {
		return
	}
	if e.poller != nil {
		e.poller.Stop()
	}
	e.stop()
	e.soundscape.Release()
	e.driver.Reset()
	e.out.Dispose()
	e.disposed = true
	e.logger.Debug("disposed")
}

// Disposed reports whether Dispose has run.
func (e *Engine) Disposed() bool { return e.disposed }

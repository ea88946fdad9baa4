package audio

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/log"
)

// Mode is an entrainment technique.
type Mode string

const (
	// Binaural needs headphones: each ear gets its own tone and the beat is
	// their difference.
	Binaural Mode = "binaural"
	// Isochronic pulses a single tone and works on speakers.
	Isochronic Mode = "isochronic"
)

// ParseMode accepts a mode name in any case. An empty name is Binaural.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Binaural, nil
	case Binaural, Isochronic:
		return m, nil
	}
	return Binaural, fmt.Errorf("unknown entrainment mode %q", s)
}

// NormalizeVolume maps an unset (negative or NaN) volume to the default and
// keeps the result inside [floor, 1].
func NormalizeVolume(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		v = AudioConfig.EntrainmentVolume
	}
	if v < AudioConfig.VolumeFloor {
		v = AudioConfig.VolumeFloor
	}
	if v > 1 {
		v = 1
	}
	return v
}

// Entrainment plays a binaural or isochronic beat into the output's master
// gain. Frequency and volume changes ramp in place; only a mode change
// rebuilds the graph.
type Entrainment struct {
	out    *Output
	logger *log.Logger

	mode   Mode
	freq   float64
	volume float64

	graph  *builder
	built  Mode
	master Gain
	beat   Param // retuned by SetFrequency
}

// NewEntrainment returns a disabled generator.
func NewEntrainment(out *Output, logger *log.Logger) *Entrainment {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Entrainment{
		out:    out,
		logger: logger.WithPrefix("entrainment"),
		mode:   Binaural,
		freq:   6,
		volume: AudioConfig.EntrainmentVolume,
	}
}

// Mode returns the configured technique.
func (e *Entrainment) Mode() Mode { return e.mode }

// Frequency returns the target beat frequency.
func (e *Entrainment) Frequency() float64 { return e.freq }

// LiveFrequency returns the beat the graph is producing right now, which
// lags Frequency while a retune glides. Without a graph it is Frequency.
func (e *Entrainment) LiveFrequency() float64 {
	if e.beat == nil {
		return e.freq
	}
	v := e.beat.Value()
	if e.built == Binaural {
		v -= AudioConfig.CarrierFreq
	}
	return v
}

// Volume returns the normalized volume.
func (e *Entrainment) Volume() float64 { return e.volume }

// Active reports whether a graph is sounding.
func (e *Entrainment) Active() bool { return e.graph != nil }

// Enable starts the beat, or retunes it if the running graph already uses
// mode.
func (e *Entrainment) Enable(mode Mode, freq, volume float64) error {
	if e.graph != nil && e.built == mode {
		e.SetFrequency(freq)
		e.SetVolume(volume)
		return nil
	}
	e.Disable()
	e.mode, e.freq, e.volume = mode, freq, NormalizeVolume(volume)
	return e.build()
}

// SetMode records mode and rebuilds a running graph that uses another one.
func (e *Entrainment) SetMode(mode Mode) error {
	if mode == e.mode && (e.graph == nil || e.built == mode) {
		return nil
	}
	e.mode = mode
	if e.graph == nil {
		return nil
	}
	e.Disable()
	return e.build()
}

// Disable tears the graph down. The settings are kept.
func (e *Entrainment) Disable() {
	if e.graph == nil {
		return
	}
	e.graph.teardown()
	e.graph, e.master, e.beat = nil, nil, nil
	e.logger.Debug("stopped", "mode", e.built)
}

// SetFrequency glides the beat to freq.
func (e *Entrainment) SetFrequency(freq float64) {
	e.freq = freq
	if e.beat == nil {
		return
	}
	target := freq
	if e.built == Binaural {
		target = AudioConfig.CarrierFreq + freq
	}
	e.beat.SetTargetAtTime(target, e.out.Now(), AudioConfig.RampTimeConstant)
}

// SetVolume glides the beat's gain to v.
func (e *Entrainment) SetVolume(v float64) {
	e.volume = NormalizeVolume(v)
	if e.master == nil {
		return
	}
	e.master.Gain().SetTargetAtTime(e.volume, e.out.Now(), AudioConfig.RampTimeConstant)
}

func (e *Entrainment) build() error {
	ctx, out := e.out.Context(), e.out.Master()
	if ctx == nil || out == nil {
		return ErrNoContext
	}

	b := newBuilder(ctx, "entrainment")
	master := b.gain(e.volume)
	b.connect(master, out)

	var beat Param
	switch e.mode {
	case Binaural:
		beat = e.buildBinaural(b, master)
	case Isochronic:
		beat = e.buildIsochronic(b, master)
	default:
		b.fail(string(e.mode), ErrUnsupported)
	}

	if b.err != nil {
		b.teardown()
		e.logger.Warn("build failed", "mode", e.mode, "err", b.err)
		return b.err
	}
	b.start()
	e.graph, e.built, e.master, e.beat = b, e.mode, master, beat
	e.logger.Debug("started", "mode", e.mode, "freq", e.freq, "volume", e.volume)
	return nil
}

// buildBinaural pans the carrier hard left and carrier+freq hard right.
func (e *Entrainment) buildBinaural(b *builder, master Gain) Param {
	left := b.oscillator(Sine, AudioConfig.CarrierFreq)
	right := b.oscillator(Sine, AudioConfig.CarrierFreq+e.freq)
	for _, side := range []struct {
		osc Oscillator
		pan float64
	}{{left, -1}, {right, 1}} {
		if b.err != nil {
			return nil
		}
		p, err := b.panner(side.pan)
		if err != nil {
			e.logger.Warn("no stereo panner, connecting direct", "err", err)
			b.connect(side.osc, master)
			continue
		}
		b.connect(side.osc, p)
		b.connect(p, master)
	}
	if b.err != nil {
		return nil
	}
	return right.Frequency()
}

// buildIsochronic gates the carrier with a square LFO on its gain.
func (e *Entrainment) buildIsochronic(b *builder, master Gain) Param {
	carrier := b.oscillator(Sine, AudioConfig.CarrierFreq)
	amp := b.gain(AudioConfig.IsochronicBase)
	lfo := b.oscillator(Square, e.freq)
	depth := b.gain(AudioConfig.IsochronicDepth)
	b.connect(carrier, amp)
	b.connect(amp, master)
	b.connect(lfo, depth)
	if b.err != nil {
		return nil
	}
	b.connectParam(depth, amp.Gain())
	return lfo.Frequency()
}

package audio

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/simukka/trance/common"
	"github.com/simukka/trance/sched"
)

// Kind is an ambient texture.
type Kind string

const (
	None Kind = "none"
	Rain Kind = "rain"
	Wind Kind = "wind"
	Om   Kind = "om"
	Fire Kind = "fire"
)

// Kinds lists every soundscape in menu order.
var Kinds = []Kind{None, Rain, Wind, Om, Fire}

// ParseKind accepts a soundscape name in any case. An empty name is None.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return None, nil
	case "chant":
		return Om, nil
	case None, Rain, Wind, Om, Fire:
		return k, nil
	}
	return None, fmt.Errorf("unknown soundscape %q", s)
}

// Soundscape plays one ambient texture at a time into the output's master
// gain. Switching textures always tears the old graph down before building
// the new one.
type Soundscape struct {
	// FireURL is the sampled loop behind Fire.
	FireURL string

	out    *Output
	sched  sched.Scheduler
	rng    *common.SeededRNG
	logger *log.Logger

	kind    Kind
	running bool
	volume  float64

	graph  *builder
	bus    Gain
	panner Panner
	media  MediaPlayer // sounding fire loop, nil when stopped
	sweep  sched.Timer
	angle  float64

	// fire is kept across stop and start so the sample is opened once.
	fire    MediaPlayer
	fireSrc string
}

// NewSoundscape returns a stopped generator with nothing selected.
func NewSoundscape(out *Output, s sched.Scheduler, rng *common.SeededRNG, logger *log.Logger) *Soundscape {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if rng == nil {
		rng = common.NewTimeSeededRNG()
	}
	return &Soundscape{
		FireURL: AudioConfig.FireURL,
		out:     out,
		sched:   s,
		rng:     rng,
		logger:  logger.WithPrefix("soundscape"),
		kind:    None,
		volume:  0.5,
	}
}

// Kind returns the selected texture.
func (s *Soundscape) Kind() Kind { return s.kind }

// Running reports whether the generator has been started.
func (s *Soundscape) Running() bool { return s.running }

// Active reports whether a texture is currently sounding.
func (s *Soundscape) Active() bool { return s.graph != nil || s.media != nil }

// Volume returns the ambience level.
func (s *Soundscape) Volume() float64 { return s.volume }

// Select switches texture. While running the new texture is built straight
// away; otherwise it is remembered for the next Start. None only stops.
func (s *Soundscape) Select(k Kind) error {
	s.teardown()
	s.kind = k
	if !s.running {
		return nil
	}
	return s.build()
}

// Start builds the selected texture.
func (s *Soundscape) Start() error {
	s.running = true
	if s.Active() {
		return nil
	}
	return s.build()
}

// Stop tears down the current texture and keeps the selection.
func (s *Soundscape) Stop() {
	s.running = false
	s.teardown()
}

// SetVolume changes the ambience level without rebuilding.
func (s *Soundscape) SetVolume(v float64) {
	s.volume = clamp01(v)
	if s.bus != nil {
		s.bus.Gain().SetTargetAtTime(s.volume, s.out.Now(), AudioConfig.RampTimeConstant)
	}
	if s.media != nil {
		s.media.SetVolume(s.volume)
	}
}

func (s *Soundscape) build() error {
	if s.kind == None {
		return nil
	}
	ctx, master := s.out.Context(), s.out.Master()
	if ctx == nil || master == nil {
		return ErrNoContext
	}
	if s.kind == Fire {
		return s.buildFire(ctx)
	}

	b := newBuilder(ctx, "soundscape")
	bus := b.gain(s.volume)
	b.connect(bus, master)

	var input Node = bus
	if b.err == nil {
		p, err := b.panner(0)
		if err != nil {
			s.logger.Warn("no stereo panner, connecting direct", "err", err)
		} else {
			b.connect(p, bus)
			input = p
			s.panner = p
		}
	}

	switch s.kind {
	case Rain:
		s.buildRain(b, input)
	case Wind:
		s.buildWind(b, input)
	case Om:
		s.buildOm(b, input)
	default:
		b.fail(string(s.kind), ErrUnsupported)
	}

	if b.err != nil {
		b.teardown()
		s.panner = nil
		s.logger.Warn("build failed", "kind", s.kind, "err", b.err)
		return b.err
	}
	b.start()
	s.graph, s.bus = b, bus
	if s.kind == Wind && s.panner != nil {
		s.startSweep()
	}
	s.logger.Debug("started", "kind", s.kind, "nodes", len(b.nodes))
	return nil
}

// buildRain mixes a bright and a dark noise layer.
func (s *Soundscape) buildRain(b *builder, input Node) {
	layers := []struct{ cutoff, gain float64 }{
		{AudioConfig.RainHighCutoff, AudioConfig.RainHighGain},
		{AudioConfig.RainLowCutoff, AudioConfig.RainLowGain},
	}
	for _, l := range layers {
		src := b.noise(s.rng)
		lp := b.filter(Lowpass, l.cutoff, 1)
		g := b.gain(l.gain)
		b.connect(src, lp)
		b.connect(lp, g)
		b.connect(g, input)
	}
}

// buildWind band-passes noise and sweeps the band with a slow LFO.
func (s *Soundscape) buildWind(b *builder, input Node) {
	src := b.noise(s.rng)
	bp := b.filter(Bandpass, AudioConfig.WindCenter, AudioConfig.WindQ)
	lfo := b.oscillator(Sine, AudioConfig.WindGustRate)
	depth := b.gain(AudioConfig.WindGustDepth)
	b.connect(src, bp)
	b.connect(bp, input)
	b.connect(lfo, depth)
	if b.err == nil {
		b.connectParam(depth, bp.Frequency())
	}
}

// buildOm is a filtered sawtooth drone.
func (s *Soundscape) buildOm(b *builder, input Node) {
	osc := b.oscillator(Sawtooth, AudioConfig.OmFreq)
	lp := b.filter(Lowpass, AudioConfig.OmCutoff, 1)
	b.connect(osc, lp)
	b.connect(lp, input)
}

func (s *Soundscape) buildFire(ctx Context) error {
	if s.fire == nil || s.fireSrc != s.FireURL {
		s.releaseFire()
		m, err := ctx.NewMedia(s.FireURL)
		if err != nil {
			err = graphErr("soundscape", "fire sample", err)
			s.logger.Warn("build failed", "kind", Fire, "err", err)
			return err
		}
		s.fire, s.fireSrc = m, s.FireURL
	}
	m := s.fire
	m.SetLoop(true)
	m.SetVolume(s.volume)
	if err := m.Play(); err != nil {
		s.releaseFire()
		err = graphErr("soundscape", "fire playback", err)
		s.logger.Warn("build failed", "kind", Fire, "err", err)
		return err
	}
	s.media = m
	s.logger.Debug("started", "kind", Fire)
	return nil
}

func (s *Soundscape) releaseFire() {
	if s.fire != nil {
		s.fire.Close()
	}
	s.fire, s.fireSrc = nil, ""
}

// Release stops the texture and closes the fire sample. The selection is
// kept; a later Start reopens what it needs.
func (s *Soundscape) Release() {
	s.Stop()
	s.releaseFire()
}

// startSweep pans the wind slowly from side to side.
func (s *Soundscape) startSweep() {
	p := s.panner
	var tick func()
	tick = func() {
		if s.panner != p {
			return
		}
		s.angle += AudioConfig.SweepStep
		p.Pan().SetValue(math.Sin(s.angle) * AudioConfig.SweepDepth)
		s.sweep = s.sched.AfterFunc(AudioConfig.SweepInterval, tick)
	}
	s.sweep = s.sched.AfterFunc(AudioConfig.SweepInterval, tick)
}

// teardown is synchronous: when it returns no node of the old texture is
// connected or sounding.
func (s *Soundscape) teardown() {
	sched.Stop(s.sweep)
	s.sweep = nil
	if s.graph != nil {
		s.graph.teardown()
		s.logger.Debug("stopped", "kind", s.kind)
	}
	if s.media != nil {
		s.media.Pause()
		s.media.Rewind()
	}
	s.graph, s.bus, s.panner, s.media = nil, nil, nil, nil
	s.angle = 0
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

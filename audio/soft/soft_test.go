package soft

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/simukka/trance/audio"
)

const rate = 8000

func running(t *testing.T) *Context {
	t.Helper()
	c := NewContext(rate)
	if err := c.Resume(); err != nil {
		t.Fatal(err)
	}
	return c
}

// blocks renders n whole quanta so no frames are left pending.
func blocks(c *Context, n int) [][2]float64 {
	return c.Render(float64(n*Quantum) / rate)
}

func peak(frames [][2]float64, ch int) float64 {
	m := 0.0
	for _, f := range frames {
		m = math.Max(m, math.Abs(f[ch]))
	}
	return m
}

func tone(t *testing.T, c *Context, freq float64) audio.Oscillator {
	t.Helper()
	o, err := c.NewOscillator()
	if err != nil {
		t.Fatal(err)
	}
	o.Frequency().SetValue(freq)
	return o
}

func TestContext_SuspendedIsSilentAndStill(t *testing.T) {
	c := NewContext(rate)
	o := tone(t, c, 440)
	o.Connect(c.Destination())
	o.Start()

	out := c.Render(0.1)
	if p := peak(out, 0); p != 0 {
		t.Fatalf("peak = %v, want silence", p)
	}
	if now := c.CurrentTime(); now != 0 {
		t.Fatalf("clock moved to %v while suspended", now)
	}
}

func TestOscillator_NeedsStart(t *testing.T) {
	c := running(t)
	o := tone(t, c, 440)
	o.Connect(c.Destination())
	if p := peak(blocks(c, 3), 0); p != 0 {
		t.Fatalf("unstarted oscillator peak = %v", p)
	}
	o.Start()
	if p := peak(blocks(c, 3), 0); p < 0.9 {
		t.Fatalf("started oscillator peak = %v", p)
	}
	o.Stop()
	if p := peak(blocks(c, 3), 0); p != 0 {
		t.Fatalf("stopped oscillator peak = %v", p)
	}
}

func TestContext_ClockAdvances(t *testing.T) {
	c := running(t)
	c.Render(0.5)
	if got := c.CurrentTime(); math.Abs(got-0.5) > float64(Quantum)/rate {
		t.Fatalf("CurrentTime = %v, want about 0.5", got)
	}
}

func TestGain_Scales(t *testing.T) {
	c := running(t)
	o := tone(t, c, 200)
	g, _ := c.NewGain()
	g.Gain().SetValue(0.25)
	o.Connect(g)
	g.Connect(c.Destination())
	o.Start()
	if p := peak(c.Render(0.1), 0); math.Abs(p-0.25) > 0.01 {
		t.Fatalf("peak = %v, want 0.25", p)
	}
}

func TestPanner_HardLeft(t *testing.T) {
	c := running(t)
	o := tone(t, c, 200)
	p, _ := c.NewPanner()
	p.Pan().SetValue(-1)
	o.Connect(p)
	p.Connect(c.Destination())
	o.Start()

	out := c.Render(0.1)
	if l := peak(out, 0); l < 0.9 {
		t.Fatalf("left peak = %v", l)
	}
	if r := peak(out, 1); r > 1e-9 {
		t.Fatalf("right peak = %v, want silence", r)
	}
}

func TestParam_LinearRamp(t *testing.T) {
	c := running(t)
	g, _ := c.NewGain()
	g.Connect(c.Destination())
	g.Gain().SetValueAtTime(0, 0)
	g.Gain().LinearRampToValueAtTime(1, 1)

	c.Render(0.5)
	if v := g.Gain().Value(); v < 0.45 || v > 0.55 {
		t.Fatalf("value halfway = %v", v)
	}
	c.Render(0.6)
	if v := g.Gain().Value(); v != 1 {
		t.Fatalf("value after ramp = %v", v)
	}
}

func TestParam_SetTargetApproaches(t *testing.T) {
	c := running(t)
	g, _ := c.NewGain()
	g.Connect(c.Destination())
	g.Gain().SetValue(0)
	g.Gain().SetTargetAtTime(1, 0, 0.1)
	blocks(c, 6)
	if v := g.Gain().Value(); math.Abs(v-(1-math.Exp(-1))) > 0.05 {
		t.Fatalf("value after one time constant = %v", v)
	}
	c.Render(1)
	if v := g.Gain().Value(); math.Abs(v-1) > 1e-3 {
		t.Fatalf("value after ten time constants = %v", v)
	}
}

func TestParam_CancelScheduledValues(t *testing.T) {
	c := running(t)
	g, _ := c.NewGain()
	g.Connect(c.Destination())
	g.Gain().SetValue(0.5)
	g.Gain().SetValueAtTime(1, 0.5)
	g.Gain().CancelScheduledValues(0.25)
	c.Render(1)
	if v := g.Gain().Value(); v != 0.5 {
		t.Fatalf("value = %v, want 0.5", v)
	}
}

func TestParam_Modulation(t *testing.T) {
	c := running(t)
	carrier := tone(t, c, 200)
	amp, _ := c.NewGain()
	amp.Gain().SetValue(0.5)
	lfo := tone(t, c, 4)
	lfo.SetType(audio.Square)
	depth, _ := c.NewGain()
	depth.Gain().SetValue(0.5)

	carrier.Connect(amp)
	amp.Connect(c.Destination())
	lfo.Connect(depth)
	depth.ConnectParam(amp.Gain())
	carrier.Start()
	lfo.Start()

	// First half of a 4 Hz square is high: gain 1. Second half: gain 0.
	out := c.Render(0.25)
	if p := peak(out[:rate/8-Quantum], 0); p < 0.9 {
		t.Fatalf("on phase peak = %v", p)
	}
	if p := peak(out[rate/8+1:], 0); p > 1e-9 {
		t.Fatalf("off phase peak = %v", p)
	}
	if n := c.ParamInputCount(amp.Gain()); n != 1 {
		t.Fatalf("ParamInputCount = %d", n)
	}
}

func TestFilter_LowpassAttenuatesHighTone(t *testing.T) {
	c := running(t)
	o := tone(t, c, 3000)
	f, _ := c.NewFilter()
	f.SetType(audio.Lowpass)
	f.Frequency().SetValue(100)
	f.Q().SetValue(1)
	o.Connect(f)
	f.Connect(c.Destination())
	o.Start()
	out := c.Render(0.2)
	if p := peak(out[len(out)/2:], 0); p > 0.05 {
		t.Fatalf("peak = %v, want strong attenuation", p)
	}
}

func TestBufferSource_Loops(t *testing.T) {
	c := running(t)
	buf, _ := c.NewBuffer([]float64{1, -1})
	s, _ := c.NewBufferSource()
	s.SetBuffer(buf)
	s.SetLoop(true)
	s.Connect(c.Destination())
	s.Start()
	out := blocks(c, 6)
	if out[len(out)-1][0] == 0 {
		t.Fatal("looping source went quiet")
	}

	once, _ := c.NewBufferSource()
	once.SetBuffer(buf)
	s.Disconnect()
	once.Connect(c.Destination())
	once.Start()
	out = blocks(c, 1)
	if out[0][0] != 1 || out[1][0] != -1 || out[2][0] != 0 {
		t.Fatalf("one-shot source = %v", out[:3])
	}
}

func TestNode_DisconnectRemovesEdges(t *testing.T) {
	c := running(t)
	o := tone(t, c, 200)
	g, _ := c.NewGain()
	o.Connect(g)
	g.Connect(c.Destination())
	o.Start()

	if !c.Reaches(o, c.Destination()) {
		t.Fatal("oscillator does not reach destination")
	}
	if c.AudibleSources() != 1 {
		t.Fatalf("AudibleSources = %d", c.AudibleSources())
	}
	o.Disconnect()
	if c.Reaches(o, c.Destination()) {
		t.Fatal("disconnected oscillator still reaches destination")
	}
	if c.InputCount(g) != 0 {
		t.Fatalf("gain still has %d inputs", c.InputCount(g))
	}
	if c.AudibleSources() != 0 {
		t.Fatalf("AudibleSources = %d", c.AudibleSources())
	}
}

func TestNode_ConnectIsIdempotent(t *testing.T) {
	c := running(t)
	o := tone(t, c, 200)
	o.Connect(c.Destination())
	o.Connect(c.Destination())
	if n := c.InputCount(c.Destination()); n != 1 {
		t.Fatalf("InputCount = %d", n)
	}
}

func TestNode_ForeignRejected(t *testing.T) {
	a, b := running(t), running(t)
	o := tone(t, a, 200)
	if err := o.Connect(b.Destination()); !errors.Is(err, errForeign) {
		t.Fatalf("err = %v", err)
	}
}

func TestContext_FailAndBlockResume(t *testing.T) {
	c := NewContext(rate)
	c.Fail("panner")
	if _, err := c.NewPanner(); !errors.Is(err, audio.ErrUnsupported) {
		t.Fatalf("NewPanner err = %v", err)
	}
	boom := errors.New("no gesture")
	c.BlockResume(boom)
	if err := c.Resume(); !errors.Is(err, boom) {
		t.Fatalf("Resume err = %v", err)
	}
	c.BlockResume(nil)
	if err := c.Resume(); err != nil || c.State() != audio.StateRunning {
		t.Fatalf("Resume err = %v state = %v", err, c.State())
	}
}

func TestContext_Closed(t *testing.T) {
	c := running(t)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal("second Close failed")
	}
	if _, err := c.NewGain(); !errors.Is(err, ErrClosed) {
		t.Fatalf("NewGain err = %v", err)
	}
	if _, ok := c.Stream(make([][2]float64, 4)); ok {
		t.Fatal("closed context kept streaming")
	}
}

func TestMedia_RemoteUnsupported(t *testing.T) {
	c := running(t)
	m, err := c.NewMedia("https://example.org/fire.ogg")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Play(); !errors.Is(err, audio.ErrUnsupported) {
		t.Fatalf("Play err = %v", err)
	}
}

func writeTone(t *testing.T, path string, sampleRate int, seconds float64) {
	t.Helper()
	src := NewContext(float64(sampleRate))
	src.Resume()
	o := tone(t, src, 300)
	o.Connect(src.Destination())
	o.Start()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := WriteWAV(f, src, seconds); err != nil {
		t.Fatal(err)
	}
}

func TestWriteWAV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTone(t, path, rate, 0.5)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	s, format, err := wav.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if format.SampleRate != beep.SampleRate(rate) || format.NumChannels != 2 {
		t.Fatalf("format = %+v", format)
	}
	if s.Len() != rate/2 {
		t.Fatalf("Len = %d, want %d", s.Len(), rate/2)
	}
}

func TestMedia_PlaysAndLoops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.wav")
	writeTone(t, path, rate/2, 0.05)

	c := running(t)
	mp, err := c.NewMedia(path)
	if err != nil {
		t.Fatal(err)
	}
	m := mp.(*Media)
	m.SetLoop(true)
	m.SetVolume(0.5)
	if err := m.Play(); err != nil {
		t.Fatal(err)
	}
	out := blocks(c, 18)
	if p := peak(out[len(out)/2:], 0); p < 0.3 || p > 0.55 {
		t.Fatalf("looped media peak = %v", p)
	}
	if !m.Playing() {
		t.Fatal("looping media stopped")
	}

	m.Pause()
	m.Rewind()
	if p := peak(blocks(c, 3), 0); p != 0 {
		t.Fatalf("paused media peak = %v", p)
	}
}

func TestMedia_StopsWithoutLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "once.wav")
	writeTone(t, path, rate, 0.05)

	c := running(t)
	mp, _ := c.NewMedia(path)
	if err := mp.Play(); err != nil {
		t.Fatal(err)
	}
	c.Render(0.2)
	if mp.(*Media).Playing() {
		t.Fatal("one-shot media still playing")
	}
}

func TestNode_PrunedOnceSilentAndDisconnected(t *testing.T) {
	c := running(t)
	base := c.LiveNodes()
	o := tone(t, c, 200)
	g, _ := c.NewGain()
	o.Connect(g)
	g.Connect(c.Destination())
	o.Start()
	if got := c.LiveNodes(); got != base+2 {
		t.Fatalf("LiveNodes = %d, want %d", got, base+2)
	}

	o.Disconnect()
	if got := c.LiveNodes(); got != base+2 {
		t.Fatalf("sounding oscillator was pruned: LiveNodes = %d", got)
	}
	o.Stop()
	if got := c.LiveNodes(); got != base+1 {
		t.Fatalf("stopped oscillator kept: LiveNodes = %d", got)
	}
	g.Disconnect()
	if got := c.LiveNodes(); got != base {
		t.Fatalf("disconnected gain kept: LiveNodes = %d", got)
	}
	if got := c.NodeCount(); got != base+2 {
		t.Fatalf("NodeCount = %d, want the lifetime total %d", got, base+2)
	}

	g.Connect(c.Destination())
	if got := c.LiveNodes(); got != base+1 {
		t.Fatalf("reconnected gain not tracked: LiveNodes = %d", got)
	}
}

func TestMedia_CloseReleasesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "close.wav")
	writeTone(t, path, rate, 0.05)

	c := running(t)
	mp, err := c.NewMedia(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := mp.Play(); err != nil {
		t.Fatal(err)
	}
	if attached, open := c.MediaPlayers(); attached != 1 || open != 1 {
		t.Fatalf("attached = %d open = %d, want 1 1", attached, open)
	}

	mp.Close()
	mp.Close()
	if attached, open := c.MediaPlayers(); attached != 0 || open != 0 {
		t.Fatalf("attached = %d open = %d after Close", attached, open)
	}
	if err := mp.Play(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Play after Close err = %v", err)
	}
	if p := peak(blocks(c, 2), 0); p != 0 {
		t.Fatalf("closed media peak = %v", p)
	}
}

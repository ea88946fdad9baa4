// Package soft is a pure-Go audio graph with Web Audio semantics. It renders
// in 128-frame blocks, plays through the speaker via oto, renders offline to
// WAV via beep, and exposes its wiring so tests can assert on connections.
package soft

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/simukka/trance/audio"
)

// Quantum is the render block size in frames.
const Quantum = 128

// ErrClosed is returned by a closed context's factories.
var ErrClosed = errors.New("soft: context closed")

type block [2][Quantum]float64

// Context renders a node graph. It is safe to mutate the graph on one
// goroutine while the speaker pulls samples on another.
type Context struct {
	mu        sync.Mutex
	rate      float64
	frames    int64
	block     int64
	state     audio.State
	resumeErr error
	failing   map[string]bool

	dest    *node
	nodes   []*node // live nodes only; see prune
	created int
	media   []*Media
	pending [][2]float64
	pendBuf [Quantum][2]float64
}

var _ audio.Context = (*Context)(nil)

// NewContext returns a suspended context, the way browsers hand one out
// before a user gesture.
func NewContext(sampleRate float64) *Context {
	c := &Context{
		rate:    sampleRate,
		state:   audio.StateSuspended,
		failing: map[string]bool{},
	}
	c.dest = c.newNode("destination", passthrough)
	return c
}

// Factory adapts NewContext to audio.ContextFactory.
func Factory(sampleRate float64) audio.ContextFactory {
	return func() (audio.Context, error) {
		return NewContext(sampleRate), nil
	}
}

func (c *Context) State() audio.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resume starts the clock. It fails with the error set by BlockResume.
func (c *Context) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.state == audio.StateClosed:
		return ErrClosed
	case c.resumeErr != nil:
		return c.resumeErr
	}
	c.state = audio.StateRunning
	return nil
}

// Suspend stops the clock. A suspended context renders silence.
func (c *Context) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == audio.StateRunning {
		c.state = audio.StateSuspended
	}
}

// BlockResume makes Resume fail with err until called again with nil.
func (c *Context) BlockResume(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumeErr = err
}

// Fail makes the factory for kind ("gain", "oscillator", "filter",
// "panner", "buffer", "bufferSource", "media") return audio.ErrUnsupported.
func (c *Context) Fail(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing[kind] = true
}

func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == audio.StateClosed {
		return nil
	}
	c.state = audio.StateClosed
	for _, m := range c.media {
		m.playing = false
		if m.file != nil {
			m.file.Close()
		}
		m.file, m.stream = nil, nil
	}
	c.media = nil
	return nil
}

func (c *Context) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now()
}

func (c *Context) now() float64 {
	return float64(c.frames) / c.rate
}

func (c *Context) SampleRate() float64 { return c.rate }

func (c *Context) Destination() audio.Node { return &Destination{c.dest} }

func (c *Context) check(kind string) error {
	if c.state == audio.StateClosed {
		return ErrClosed
	}
	if c.failing[kind] {
		return fmt.Errorf("%w: %s", audio.ErrUnsupported, kind)
	}
	return nil
}

func (c *Context) newNode(kind string, process processFunc) *node {
	n := &node{ctx: c, kind: kind, process: process, channels: 1}
	c.created++
	c.track(n)
	return n
}

func (c *Context) track(n *node) {
	if !n.live {
		n.live = true
		c.nodes = append(c.nodes, n)
	}
}

// prune forgets n once it can no longer make or pass on sound: nothing
// downstream of it and, for a source, not sounding. The render graph only
// holds edges, so a pruned node is left for the garbage collector.
func (c *Context) prune(n *node) {
	if !n.live || n == c.dest || len(n.outputs) > 0 || len(n.targets) > 0 {
		return
	}
	if n.source && n.sounding() {
		return
	}
	n.live = false
	for i, live := range c.nodes {
		if live == n {
			c.nodes = append(c.nodes[:i], c.nodes[i+1:]...)
			return
		}
	}
}

func (c *Context) NewGain() (audio.Gain, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("gain"); err != nil {
		return nil, err
	}
	g := &Gain{gain: newParam(c, 1)}
	g.node = c.newNode("gain", g.process)
	g.gain.owner = g.node
	return g, nil
}

func (c *Context) NewOscillator() (audio.Oscillator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("oscillator"); err != nil {
		return nil, err
	}
	o := &Oscillator{wave: audio.Sine, freq: newParam(c, 440)}
	o.node = c.newNode("oscillator", o.process)
	o.node.source = true
	o.freq.owner = o.node
	return o, nil
}

func (c *Context) NewFilter() (audio.Filter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("filter"); err != nil {
		return nil, err
	}
	f := &Filter{typ: audio.Lowpass, freq: newParam(c, 350), q: newParam(c, 1)}
	f.node = c.newNode("filter", f.process)
	f.freq.owner, f.q.owner = f.node, f.node
	return f, nil
}

func (c *Context) NewPanner() (audio.Panner, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("panner"); err != nil {
		return nil, err
	}
	p := &Panner{pan: newParam(c, 0)}
	p.node = c.newNode("panner", p.process)
	p.pan.owner = p.node
	return p, nil
}

func (c *Context) NewBuffer(samples []float64) (audio.Buffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("buffer"); err != nil {
		return nil, err
	}
	return &Buffer{data: append([]float64(nil), samples...), rate: c.rate}, nil
}

func (c *Context) NewBufferSource() (audio.BufferSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("bufferSource"); err != nil {
		return nil, err
	}
	s := &BufferSource{}
	s.node = c.newNode("bufferSource", s.process)
	s.node.source = true
	return s, nil
}

// NewMedia returns a player for a local WAV file. The file is read on the
// first Play.
func (c *Context) NewMedia(src string) (audio.MediaPlayer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("media"); err != nil {
		return nil, err
	}
	m := &Media{ctx: c, src: src, volume: 1}
	c.media = append(c.media, m)
	return m, nil
}

// renderBlock renders one quantum into out.
func (c *Context) renderBlock(out *block) {
	c.block++
	f0 := c.frames
	c.renderNode(c.dest, f0)
	out[0] = c.dest.buf[0]
	if c.dest.channels == 2 {
		out[1] = c.dest.buf[1]
	} else {
		out[1] = c.dest.buf[0]
	}
	for _, m := range c.media {
		m.mix(out)
	}
	c.frames += Quantum
}

// renderNode pulls n's inputs and runs n once per block. A cycle reads the
// previous block's output.
func (c *Context) renderNode(n *node, f0 int64) {
	if n.rendered == c.block || n.visiting {
		return
	}
	n.visiting = true
	var in block
	ch := 0
	for _, src := range n.inputs {
		c.renderNode(src, f0)
		if src.channels > ch {
			ch = src.channels
		}
	}
	for _, src := range n.inputs {
		for i := 0; i < Quantum; i++ {
			in[0][i] += src.buf[0][i]
			if ch == 2 {
				if src.channels == 2 {
					in[1][i] += src.buf[1][i]
				} else {
					in[1][i] += src.buf[0][i]
				}
			}
		}
	}
	n.channels = n.process(&in, ch, &n.buf, f0)
	n.visiting = false
	n.rendered = c.block
}

// Stream implements beep.Streamer. A suspended context streams silence and
// its clock stands still; a closed one ends the stream.
func (c *Context) Stream(samples [][2]float64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == audio.StateClosed {
		return 0, false
	}
	n := 0
	for n < len(samples) {
		if c.state != audio.StateRunning {
			for i := n; i < len(samples); i++ {
				samples[i] = [2]float64{}
			}
			break
		}
		if len(c.pending) == 0 {
			var b block
			c.renderBlock(&b)
			for i := 0; i < Quantum; i++ {
				c.pendBuf[i] = [2]float64{b[0][i], b[1][i]}
			}
			c.pending = c.pendBuf[:]
		}
		k := copy(samples[n:], c.pending)
		c.pending = c.pending[k:]
		n += k
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (c *Context) Err() error { return nil }

// Render streams the given number of seconds of output and returns it.
func (c *Context) Render(seconds float64) [][2]float64 {
	out := make([][2]float64, int(math.Round(seconds*c.rate)))
	c.Stream(out)
	return out
}

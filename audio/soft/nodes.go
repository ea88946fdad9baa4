package soft

import (
	"errors"
	"math"

	"github.com/simukka/trance/audio"
)

var errForeign = errors.New("soft: node belongs to another context")

// processFunc renders one block from the mixed input and returns the number
// of output channels. inCh is 0 when nothing is connected.
type processFunc func(in *block, inCh int, out *block, f0 int64) int

type node struct {
	ctx     *Context
	kind    string
	process processFunc

	inputs  []*node
	outputs []*node
	targets []*Param

	source  bool
	started bool
	stopped bool
	live    bool // listed in ctx.nodes

	rendered int64
	visiting bool
	channels int
	buf      block
}

func (n *node) base() *node { return n }

type baser interface{ base() *node }

func (n *node) Connect(dst audio.Node) error {
	b, ok := dst.(baser)
	if !ok || b.base().ctx != n.ctx {
		return errForeign
	}
	d := b.base()
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	n.ctx.track(n)
	for _, o := range n.outputs {
		if o == d {
			return nil
		}
	}
	n.outputs = append(n.outputs, d)
	d.inputs = append(d.inputs, n)
	return nil
}

func (n *node) ConnectParam(dst audio.Param) error {
	p, ok := dst.(*Param)
	if !ok || p.ctx != n.ctx {
		return errForeign
	}
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	n.ctx.track(n)
	for _, t := range n.targets {
		if t == p {
			return nil
		}
	}
	n.targets = append(n.targets, p)
	p.inputs = append(p.inputs, n)
	return nil
}

func (n *node) Disconnect() {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	for _, o := range n.outputs {
		kept := o.inputs[:0]
		for _, in := range o.inputs {
			if in != n {
				kept = append(kept, in)
			}
		}
		o.inputs = kept
	}
	for _, p := range n.targets {
		p.removeInput(n)
	}
	n.outputs, n.targets = nil, nil
	n.ctx.prune(n)
}

func (n *node) Start() {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	n.started = true
	n.ctx.track(n)
}

func (n *node) Stop() {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	if n.started {
		n.stopped = true
	}
	n.ctx.prune(n)
}

func (n *node) sounding() bool { return n.started && !n.stopped }

func passthrough(in *block, inCh int, out *block, _ int64) int {
	*out = *in
	return max(inCh, 1)
}

// Destination is the context's output.
type Destination struct{ *node }

// Gain scales its input by an automatable factor.
type Gain struct {
	*node
	gain *Param
}

func (g *Gain) Gain() audio.Param { return g.gain }

func (g *Gain) process(in *block, inCh int, out *block, f0 int64) int {
	k := g.gain.compute(f0)
	ch := max(inCh, 1)
	for c := 0; c < ch; c++ {
		for i := range out[c] {
			out[c][i] = in[c][i] * k[i]
		}
	}
	return ch
}

// Oscillator is a naive phase-accumulator tone generator.
type Oscillator struct {
	*node
	wave  audio.Waveform
	freq  *Param
	phase float64
}

func (o *Oscillator) SetType(w audio.Waveform) {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	o.wave = w
}

func (o *Oscillator) Frequency() audio.Param { return o.freq }

func (o *Oscillator) process(_ *block, _ int, out *block, f0 int64) int {
	f := o.freq.compute(f0)
	if !o.sounding() {
		out[0] = [Quantum]float64{}
		return 1
	}
	for i := range out[0] {
		out[0][i] = shape(o.wave, o.phase)
		o.phase += f[i] / o.ctx.rate
		o.phase -= math.Floor(o.phase)
	}
	return 1
}

func shape(w audio.Waveform, phase float64) float64 {
	switch w {
	case audio.Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case audio.Sawtooth:
		return 2*phase - 1
	case audio.Triangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	}
	return math.Sin(2 * math.Pi * phase)
}

// Filter is a biquad with coefficients updated once per block.
type Filter struct {
	*node
	typ   audio.FilterType
	freq  *Param
	q     *Param
	state [2][4]float64 // x1 x2 y1 y2 per channel
}

func (f *Filter) SetType(t audio.FilterType) {
	f.ctx.mu.Lock()
	defer f.ctx.mu.Unlock()
	f.typ = t
}

func (f *Filter) Frequency() audio.Param { return f.freq }
func (f *Filter) Q() audio.Param         { return f.q }

// coefficients returns b0 b1 b2 a1 a2 normalized by a0. Lowpass and
// highpass take Q in dB; bandpass takes it linear.
func (f *Filter) coefficients(freq, q float64) [5]float64 {
	nyquist := f.ctx.rate / 2
	freq = math.Min(math.Max(freq, 10), 0.99*nyquist)
	w0 := 2 * math.Pi * freq / f.ctx.rate
	cos, sin := math.Cos(w0), math.Sin(w0)

	var b0, b1, b2 float64
	var alpha float64
	switch f.typ {
	case audio.Highpass:
		alpha = sin / (2 * math.Pow(10, q/20))
		b0, b1, b2 = (1+cos)/2, -(1 + cos), (1+cos)/2
	case audio.Bandpass:
		alpha = sin / (2 * math.Max(q, 1e-4))
		b0, b1, b2 = alpha, 0, -alpha
	default:
		alpha = sin / (2 * math.Pow(10, q/20))
		b0, b1, b2 = (1-cos)/2, 1-cos, (1-cos)/2
	}
	a0, a1, a2 := 1+alpha, -2*cos, 1-alpha
	return [5]float64{b0 / a0, b1 / a0, b2 / a0, a1 / a0, a2 / a0}
}

func (f *Filter) process(in *block, inCh int, out *block, f0 int64) int {
	freq := f.freq.compute(f0)
	q := f.q.compute(f0)
	k := f.coefficients(freq[0], q[0])
	ch := max(inCh, 1)
	for c := 0; c < ch; c++ {
		s := &f.state[c]
		for i, x := range in[c] {
			y := k[0]*x + k[1]*s[0] + k[2]*s[1] - k[3]*s[2] - k[4]*s[3]
			s[1], s[0] = s[0], x
			s[3], s[2] = s[2], y
			out[c][i] = y
		}
	}
	return ch
}

// Panner is an equal-power stereo panner.
type Panner struct {
	*node
	pan *Param
}

func (p *Panner) Pan() audio.Param { return p.pan }

func (p *Panner) process(in *block, inCh int, out *block, f0 int64) int {
	pan := p.pan.compute(f0)
	for i := 0; i < Quantum; i++ {
		v := math.Max(-1, math.Min(1, pan[i]))
		if inCh < 2 {
			x := (v + 1) / 2
			m := in[0][i]
			out[0][i] = m * math.Cos(x*math.Pi/2)
			out[1][i] = m * math.Sin(x*math.Pi/2)
			continue
		}
		l, r := in[0][i], in[1][i]
		if v <= 0 {
			x := v + 1
			out[0][i] = l + r*math.Cos(x*math.Pi/2)
			out[1][i] = r * math.Sin(x*math.Pi/2)
		} else {
			out[0][i] = l * math.Cos(v*math.Pi/2)
			out[1][i] = r + l*math.Sin(v*math.Pi/2)
		}
	}
	return 2
}

// Buffer is mono sample data.
type Buffer struct {
	data []float64
	rate float64
}

func (b *Buffer) Len() int          { return len(b.data) }
func (b *Buffer) Duration() float64 { return float64(len(b.data)) / b.rate }

// BufferSource plays a Buffer once or on a loop.
type BufferSource struct {
	*node
	buffer *Buffer
	loop   bool
	pos    int
}

func (s *BufferSource) SetBuffer(b audio.Buffer) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	s.buffer, _ = b.(*Buffer)
}

func (s *BufferSource) SetLoop(loop bool) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	s.loop = loop
}

func (s *BufferSource) process(_ *block, _ int, out *block, _ int64) int {
	out[0] = [Quantum]float64{}
	if !s.sounding() || s.buffer == nil || len(s.buffer.data) == 0 {
		return 1
	}
	data := s.buffer.data
	for i := range out[0] {
		if s.pos >= len(data) {
			if !s.loop {
				break
			}
			s.pos = 0
		}
		out[0][i] = data[s.pos]
		s.pos++
	}
	return 1
}

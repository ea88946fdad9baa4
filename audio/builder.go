package audio

import "github.com/simukka/trance/common"

// builder creates one generator's subgraph and remembers every node so the
// whole subgraph can be torn down at once. The first failure sticks; later
// calls are no-ops and return nil.
type builder struct {
	ctx     Context
	name    string
	err     error
	nodes   []Node
	sources []Source
}

func newBuilder(ctx Context, name string) *builder {
	return &builder{ctx: ctx, name: name}
}

func (b *builder) fail(node string, err error) {
	if b.err == nil {
		b.err = graphErr(b.name, node, err)
	}
}

func (b *builder) gain(v float64) Gain {
	if b.err != nil {
		return nil
	}
	g, err := b.ctx.NewGain()
	if err != nil {
		b.fail("gain", err)
		return nil
	}
	g.Gain().SetValue(v)
	b.nodes = append(b.nodes, g)
	return g
}

func (b *builder) oscillator(w Waveform, freq float64) Oscillator {
	if b.err != nil {
		return nil
	}
	osc, err := b.ctx.NewOscillator()
	if err != nil {
		b.fail("oscillator", err)
		return nil
	}
	osc.SetType(w)
	osc.Frequency().SetValue(freq)
	b.nodes = append(b.nodes, osc)
	b.sources = append(b.sources, osc)
	return osc
}

func (b *builder) filter(t FilterType, freq, q float64) Filter {
	if b.err != nil {
		return nil
	}
	f, err := b.ctx.NewFilter()
	if err != nil {
		b.fail(string(t)+" filter", err)
		return nil
	}
	f.SetType(t)
	f.Frequency().SetValue(freq)
	f.Q().SetValue(q)
	b.nodes = append(b.nodes, f)
	return f
}

// panner is optional: a failure is returned to the caller, who connects
// around it, and does not stop the build.
func (b *builder) panner(pan float64) (Panner, error) {
	if b.err != nil {
		return nil, b.err
	}
	p, err := b.ctx.NewPanner()
	if err != nil {
		return nil, graphErr(b.name, "stereo panner", err)
	}
	p.Pan().SetValue(pan)
	b.nodes = append(b.nodes, p)
	return p, nil
}

func (b *builder) noise(rng *common.SeededRNG) BufferSource {
	if b.err != nil {
		return nil
	}
	src, err := noiseSource(b.ctx, rng)
	if err != nil {
		b.fail("noise buffer", err)
		return nil
	}
	b.nodes = append(b.nodes, src)
	b.sources = append(b.sources, src)
	return src
}

func (b *builder) connect(src, dst Node) {
	if b.err != nil {
		return
	}
	if err := src.Connect(dst); err != nil {
		b.fail("connection", err)
	}
}

func (b *builder) connectParam(src Node, dst Param) {
	if b.err != nil {
		return
	}
	if err := src.ConnectParam(dst); err != nil {
		b.fail("param connection", err)
	}
}

func (b *builder) start() {
	for _, s := range b.sources {
		s.Start()
	}
}

// teardown stops every source and disconnects every node.
func (b *builder) teardown() {
	for _, s := range b.sources {
		s.Stop()
	}
	for _, n := range b.nodes {
		n.Disconnect()
	}
	b.sources, b.nodes = nil, nil
}

package soft

import (
	"math"
	"sort"
)

type eventKind int

const (
	evSet eventKind = iota
	evLinear
	evTarget
)

type event struct {
	kind    eventKind
	t       float64
	v       float64 // target value
	tc      float64 // setTarget time constant
	started bool
	v0      float64 // value when a setTarget began
}

// Param is an automatable value with Web Audio timing semantics. Node
// outputs connected to it are summed onto the automated value every sample.
type Param struct {
	ctx     *Context
	owner   *node
	value   float64
	anchorT float64 // time and value the next linear ramp starts from
	anchorV float64
	events  []event
	inputs  []*node

	rendered int64
	vals     [Quantum]float64
}

func newParam(c *Context, v float64) *Param {
	return &Param{ctx: c, value: v, anchorV: v}
}

func (p *Param) removeInput(n *node) {
	kept := p.inputs[:0]
	for _, in := range p.inputs {
		if in != n {
			kept = append(kept, in)
		}
	}
	p.inputs = kept
}

// Value returns the automated value as of the last rendered sample, without
// connected modulation.
func (p *Param) Value() float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.value
}

// SetValue sets the value now and drops any scheduled automation.
func (p *Param) SetValue(v float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.events = nil
	p.value = v
	p.anchorT, p.anchorV = p.ctx.now(), v
}

func (p *Param) SetValueAtTime(v, t float64) {
	p.schedule(event{kind: evSet, t: t, v: v})
}

func (p *Param) LinearRampToValueAtTime(v, t float64) {
	p.schedule(event{kind: evLinear, t: t, v: v})
}

func (p *Param) SetTargetAtTime(target, start, timeConstant float64) {
	if timeConstant <= 0 {
		p.SetValueAtTime(target, start)
		return
	}
	p.schedule(event{kind: evTarget, t: start, v: target, tc: timeConstant})
}

// CancelScheduledValues drops every event at or after t.
func (p *Param) CancelScheduledValues(t float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	kept := p.events[:0]
	for _, e := range p.events {
		if e.t < t {
			kept = append(kept, e)
		}
	}
	p.events = kept
}

func (p *Param) schedule(e event) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	if len(p.events) == 0 {
		p.anchorT, p.anchorV = p.ctx.now(), p.value
	}
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].t > e.t })
	p.events = append(p.events, event{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// advance moves the automation to time t and returns the value there.
func (p *Param) advance(t float64) float64 {
	for len(p.events) > 0 {
		e := &p.events[0]
		switch e.kind {
		case evSet:
			if t < e.t {
				return p.value
			}
			p.value = e.v
			p.anchorT, p.anchorV = e.t, e.v
			p.events = p.events[1:]

		case evLinear:
			if t >= e.t || e.t <= p.anchorT {
				p.value = e.v
				p.anchorT, p.anchorV = e.t, e.v
				p.events = p.events[1:]
				continue
			}
			frac := (t - p.anchorT) / (e.t - p.anchorT)
			if frac < 0 {
				frac = 0
			}
			p.value = p.anchorV + (e.v-p.anchorV)*frac
			return p.value

		case evTarget:
			if t < e.t {
				return p.value
			}
			if !e.started {
				e.started, e.v0 = true, p.value
			}
			if len(p.events) > 1 && t >= p.events[1].t {
				end := p.events[1].t
				p.value = e.v + (e.v0-e.v)*math.Exp(-(end-e.t)/e.tc)
				p.anchorT, p.anchorV = end, p.value
				p.events = p.events[1:]
				continue
			}
			p.value = e.v + (e.v0-e.v)*math.Exp(-(t-e.t)/e.tc)
			if len(p.events) == 1 && math.Abs(p.value-e.v) < 1e-9 {
				p.value = e.v
				p.anchorT, p.anchorV = t, e.v
				p.events = p.events[1:]
			}
			return p.value
		}
	}
	return p.value
}

// compute fills vals for the block starting at frame f0. It runs once per
// block however many nodes read the param.
func (p *Param) compute(f0 int64) *[Quantum]float64 {
	c := p.ctx
	if p.rendered == c.block {
		return &p.vals
	}
	p.rendered = c.block

	var mod [Quantum]float64
	for _, in := range p.inputs {
		c.renderNode(in, f0)
		for i := range mod {
			if in.channels == 2 {
				mod[i] += (in.buf[0][i] + in.buf[1][i]) / 2
			} else {
				mod[i] += in.buf[0][i]
			}
		}
	}
	for i := range p.vals {
		t := float64(f0+int64(i)) / c.rate
		p.vals[i] = p.advance(t) + mod[i]
	}
	return &p.vals
}

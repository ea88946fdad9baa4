//go:build js

// Package webaudio backs the audio graph interfaces with the browser's Web
// Audio API.
package webaudio

import (
	"errors"
	"fmt"

	"github.com/gopherjs/gopherjs/js"

	"github.com/simukka/trance/audio"
)

// ErrUnavailable is returned when the page has no AudioContext.
var ErrUnavailable = errors.New("webaudio: AudioContext unavailable")

// call runs fn and turns a thrown JavaScript exception into an error.
func call(what string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if jsErr, ok := r.(*js.Error); ok {
				err = fmt.Errorf("%s: %w", what, jsErr)
				return
			}
			err = fmt.Errorf("%s: %v", what, r)
		}
	}()
	fn()
	return nil
}

func defined(o *js.Object) bool {
	return o != nil && o != js.Undefined
}

// Context wraps an AudioContext.
type Context struct {
	ctx *js.Object
}

var _ audio.Context = (*Context)(nil)

// New creates an AudioContext, falling back to the webkit prefix.
func New() (audio.Context, error) {
	ctor := js.Global.Get("AudioContext")
	if !defined(ctor) {
		ctor = js.Global.Get("webkitAudioContext")
	}
	if !defined(ctor) {
		return nil, ErrUnavailable
	}
	c := &Context{}
	if err := call("create context", func() { c.ctx = ctor.New() }); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Context) State() audio.State {
	return audio.State(c.ctx.Get("state").String())
}

// Resume asks the browser to resume. The promise settles later; a context
// still suspended on the next gesture is resumed again.
func (c *Context) Resume() error {
	return call("resume", func() {
		p := c.ctx.Call("resume")
		if defined(p) {
			p.Call("catch", func(e *js.Object) {
				js.Global.Get("console").Call("warn", "audio resume rejected", e)
			})
		}
	})
}

func (c *Context) Close() error {
	if c.State() == audio.StateClosed {
		return nil
	}
	return call("close", func() { c.ctx.Call("close") })
}

func (c *Context) CurrentTime() float64 { return c.ctx.Get("currentTime").Float() }
func (c *Context) SampleRate() float64  { return c.ctx.Get("sampleRate").Float() }

func (c *Context) Destination() audio.Node {
	return &node{obj: c.ctx.Get("destination")}
}

func (c *Context) create(method string) (*js.Object, error) {
	if !defined(c.ctx.Get(method)) {
		return nil, fmt.Errorf("%w: %s", audio.ErrUnsupported, method)
	}
	var obj *js.Object
	err := call(method, func() { obj = c.ctx.Call(method) })
	return obj, err
}

func (c *Context) NewGain() (audio.Gain, error) {
	obj, err := c.create("createGain")
	if err != nil {
		return nil, err
	}
	return &gain{node{obj}}, nil
}

func (c *Context) NewOscillator() (audio.Oscillator, error) {
	obj, err := c.create("createOscillator")
	if err != nil {
		return nil, err
	}
	return &oscillator{source{node: node{obj}}}, nil
}

func (c *Context) NewFilter() (audio.Filter, error) {
	obj, err := c.create("createBiquadFilter")
	if err != nil {
		return nil, err
	}
	return &filter{node{obj}}, nil
}

func (c *Context) NewPanner() (audio.Panner, error) {
	obj, err := c.create("createStereoPanner")
	if err != nil {
		return nil, err
	}
	return &panner{node{obj}}, nil
}

func (c *Context) NewBuffer(samples []float64) (audio.Buffer, error) {
	var obj *js.Object
	err := call("createBuffer", func() {
		obj = c.ctx.Call("createBuffer", 1, len(samples), c.SampleRate())
		data := obj.Call("getChannelData", 0)
		for i, v := range samples {
			data.SetIndex(i, v)
		}
	})
	if err != nil {
		return nil, err
	}
	return &buffer{obj}, nil
}

func (c *Context) NewBufferSource() (audio.BufferSource, error) {
	obj, err := c.create("createBufferSource")
	if err != nil {
		return nil, err
	}
	return &bufferSource{source{node: node{obj}}}, nil
}

// NewMedia returns an HTML audio element for src.
func (c *Context) NewMedia(src string) (audio.MediaPlayer, error) {
	ctor := js.Global.Get("Audio")
	if !defined(ctor) {
		return nil, fmt.Errorf("%w: Audio element", audio.ErrUnsupported)
	}
	var el *js.Object
	if err := call("Audio", func() { el = ctor.New(src) }); err != nil {
		return nil, err
	}
	return &media{el}, nil
}

type param struct{ obj *js.Object }

func (p *param) Value() float64     { return p.obj.Get("value").Float() }
func (p *param) SetValue(v float64) { p.obj.Set("value", v) }

func (p *param) SetValueAtTime(v, t float64) {
	p.obj.Call("setValueAtTime", v, t)
}

func (p *param) LinearRampToValueAtTime(v, t float64) {
	p.obj.Call("linearRampToValueAtTime", v, t)
}

func (p *param) SetTargetAtTime(target, start, tc float64) {
	p.obj.Call("setTargetAtTime", target, start, tc)
}

func (p *param) CancelScheduledValues(t float64) {
	p.obj.Call("cancelScheduledValues", t)
}

type node struct{ obj *js.Object }

type jsObject interface{ object() *js.Object }

func (n *node) object() *js.Object { return n.obj }

func (n *node) Connect(dst audio.Node) error {
	d, ok := dst.(jsObject)
	if !ok {
		return fmt.Errorf("webaudio: cannot connect to %T", dst)
	}
	return call("connect", func() { n.obj.Call("connect", d.object()) })
}

func (n *node) ConnectParam(dst audio.Param) error {
	p, ok := dst.(*param)
	if !ok {
		return fmt.Errorf("webaudio: cannot connect to %T", dst)
	}
	return call("connect", func() { n.obj.Call("connect", p.obj) })
}

func (n *node) Disconnect() {
	_ = call("disconnect", func() { n.obj.Call("disconnect") })
}

type gain struct{ node }

func (g *gain) Gain() audio.Param { return &param{g.obj.Get("gain")} }

// source ignores the InvalidStateError a second start or stop throws.
type source struct {
	node
	started, stopped bool
}

func (s *source) Start() {
	if s.started {
		return
	}
	s.started = true
	_ = call("start", func() { s.obj.Call("start") })
}

func (s *source) Stop() {
	if !s.started || s.stopped {
		return
	}
	s.stopped = true
	_ = call("stop", func() { s.obj.Call("stop") })
}

type oscillator struct{ source }

func (o *oscillator) SetType(w audio.Waveform) { o.obj.Set("type", string(w)) }
func (o *oscillator) Frequency() audio.Param   { return &param{o.obj.Get("frequency")} }

type filter struct{ node }

func (f *filter) SetType(t audio.FilterType) { f.obj.Set("type", string(t)) }
func (f *filter) Frequency() audio.Param     { return &param{f.obj.Get("frequency")} }
func (f *filter) Q() audio.Param             { return &param{f.obj.Get("Q")} }

type panner struct{ node }

func (p *panner) Pan() audio.Param { return &param{p.obj.Get("pan")} }

type buffer struct{ obj *js.Object }

func (b *buffer) Len() int          { return b.obj.Get("length").Int() }
func (b *buffer) Duration() float64 { return b.obj.Get("duration").Float() }

type bufferSource struct{ source }

func (s *bufferSource) SetBuffer(b audio.Buffer) {
	if jb, ok := b.(*buffer); ok {
		s.obj.Set("buffer", jb.obj)
	}
}

func (s *bufferSource) SetLoop(loop bool) { s.obj.Set("loop", loop) }

type media struct{ el *js.Object }

// Play starts the element. A rejected play promise is logged; autoplay
// policy rejections surface there rather than as a thrown error.
func (m *media) Play() error {
	return call("play", func() {
		p := m.el.Call("play")
		if defined(p) {
			p.Call("catch", func(e *js.Object) {
				js.Global.Get("console").Call("warn", "media play rejected", e)
			})
		}
	})
}

func (m *media) Pause()              { _ = call("pause", func() { m.el.Call("pause") }) }
func (m *media) Rewind()             { m.el.Set("currentTime", 0) }
func (m *media) SetVolume(v float64) { m.el.Set("volume", v) }
func (m *media) SetLoop(loop bool)   { m.el.Set("loop", loop) }

// Close drops the source so the element releases its network stream.
func (m *media) Close() {
	_ = call("close media", func() {
		m.el.Call("pause")
		m.el.Call("removeAttribute", "src")
		m.el.Call("load")
	})
}

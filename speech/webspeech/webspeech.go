//go:build js
// +build js

// Package webspeech drives the browser's window.speechSynthesis.
package webspeech

import (
	"errors"

	"github.com/gopherjs/gopherjs/js"

	"github.com/simukka/trance/speech"
)

// Synth wraps window.speechSynthesis. Callbacks arrive on the page's event
// loop, which is the control thread in the browser build.
type Synth struct {
	synth   *js.Object
	current *js.Object
	voices  []speech.Voice
}

// New returns nil and speech.ErrUnavailable when the page has no speech
// engine.
func New() (*Synth, error) {
	synth := js.Global.Get("speechSynthesis")
	if synth == js.Undefined || synth == nil {
		return nil, speech.ErrUnavailable
	}
	s := &Synth{synth: synth}
	synth.Set("onvoiceschanged", func() { s.refresh() })
	return s, nil
}

// Warm speaks an empty, silent utterance. Some engines only populate their
// voice list after the first speak call.
func (s *Synth) Warm() {
	u := js.Global.Get("SpeechSynthesisUtterance").New("")
	u.Set("volume", 0)
	s.synth.Call("speak", u)
}

func (s *Synth) Voices() []speech.Voice {
	if len(s.voices) == 0 {
		s.refresh()
	}
	return s.voices
}

func (s *Synth) refresh() {
	list := s.synth.Call("getVoices")
	n := list.Length()
	voices := make([]speech.Voice, 0, n)
	for i := 0; i < n; i++ {
		v := list.Index(i)
		voices = append(voices, speech.Voice{
			URI:     v.Get("voiceURI").String(),
			Name:    v.Get("name").String(),
			Lang:    v.Get("lang").String(),
			Default: v.Get("default").Bool(),
		})
	}
	speech.SortVoices(voices)
	s.voices = voices
}

func (s *Synth) Speak(u speech.Utterance, done func(error)) (err error) {
	utt := js.Global.Get("SpeechSynthesisUtterance").New(u.Text)
	utt.Set("lang", u.Lang)
	utt.Set("rate", u.Rate)
	utt.Set("pitch", u.Pitch)
	utt.Set("volume", u.Volume)
	if u.Voice != nil {
		if v := s.find(u.Voice.URI); v != nil {
			utt.Set("voice", v)
		}
	}

	fired := false
	finish := func(err error) {
		if fired || s.current != utt {
			return
		}
		fired = true
		s.current = nil
		done(err)
	}
	utt.Set("onend", func() { finish(nil) })
	utt.Set("onerror", func(e *js.Object) {
		msg := "utterance failed"
		if code := e.Get("error"); code != js.Undefined {
			msg = code.String()
		}
		finish(errors.New(msg))
	})

	defer func() {
		if r := recover(); r != nil {
			s.current = nil
			err = errors.New("speechSynthesis.speak threw")
		}
	}()
	s.current = utt
	s.synth.Call("speak", utt)
	if s.synth.Get("paused").Bool() {
		s.synth.Call("resume")
	}
	return nil
}

func (s *Synth) Cancel() {
	if s.current != nil {
		s.current.Set("onend", nil)
		s.current.Set("onerror", nil)
		s.current = nil
	}
	s.synth.Call("cancel")
}

func (s *Synth) find(uri string) *js.Object {
	list := s.synth.Call("getVoices")
	for i := 0; i < list.Length(); i++ {
		if v := list.Index(i); v.Get("voiceURI").String() == uri {
			return v
		}
	}
	return nil
}

//go:build js
// +build js

package main

import (
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/gopherjs/gopherjs/js"

	"github.com/simukka/trance/audio"
	"github.com/simukka/trance/audio/webaudio"
	"github.com/simukka/trance/config"
	"github.com/simukka/trance/engine"
	"github.com/simukka/trance/sched"
	"github.com/simukka/trance/speech"
	"github.com/simukka/trance/speech/webspeech"
)

// consoleWriter sends log lines to the browser console.
type consoleWriter struct{}

func (consoleWriter) Write(p []byte) (int, error) {
	js.Global.Get("console").Call("log", string(p))
	return len(p), nil
}

func main() {
	logger := log.NewWithOptions(consoleWriter{}, log.Options{Level: log.InfoLevel, Prefix: "trance"})

	var synth speech.Synthesizer
	if s, err := webspeech.New(); err != nil {
		logger.Warn("speech synthesis unavailable", "err", err)
	} else {
		synth = s
	}

	var onLine, onComplete *js.Object
	e := engine.New(engine.Options{
		ContextFactory: webaudio.New,
		Synth:          synth,
		Scheduler:      sched.Browser{},
		Logger:         logger,
		Settings:       config.Defaults(),
		OnLineChange: func(line int) {
			if onLine != nil {
				onLine.Invoke(line)
			}
		},
		OnComplete: func() {
			if onComplete != nil {
				onComplete.Invoke()
			}
		},
	})

	// Expose the player to the page
	js.Global.Set("TranceEngine", map[string]interface{}{
		"load": func(script string) {
			if err := e.Load(script); err != nil {
				logger.Error("load", "err", err)
			}
		},
		"togglePlay": func() { e.TogglePlay() },
		"isPlaying":  func() bool { return e.IsPlaying() },
		"line":       func() int { return e.Line() },
		"selectSoundscape": func(kind string) {
			k, err := audio.ParseKind(kind)
			if err != nil {
				logger.Error("soundscape", "err", err)
				return
			}
			_ = e.SelectSoundscape(k)
		},
		"activeSoundscape": func() string { return string(e.ActiveSoundscape()) },
		"setEntrainmentType": func(mode string) {
			m, err := audio.ParseMode(mode)
			if err != nil {
				logger.Error("entrainment", "err", err)
				return
			}
			_ = e.SetEntrainmentType(m)
		},
		"entrainmentType": func() string { return string(e.EntrainmentType()) },
		"setProtocol": func(name string) {
			if err := e.SetProtocol(engine.Protocol(name)); err != nil {
				logger.Error("protocol", "err", err)
			}
		},
		"protocol":         func() string { return string(e.Protocol()) },
		"currentFrequency": func() float64 { return e.LiveFrequency() },
		"targetFrequency":  func() float64 { return e.CurrentFrequency() },
		"band":             func() string { return e.Band().Name },
		"settings": func() *js.Object {
			data, _ := json.Marshal(e.Settings())
			return js.Global.Get("JSON").Call("parse", string(data))
		},
		"updateSettings": func(obj *js.Object) bool {
			s := e.Settings()
			raw := js.Global.Get("JSON").Call("stringify", obj).String()
			if err := json.Unmarshal([]byte(raw), &s); err != nil {
				logger.Error("settings", "err", err)
				return false
			}
			if err := e.UpdateSettings(s); err != nil {
				logger.Error("settings", "err", err)
				return false
			}
			return true
		},
		"voices": func() []map[string]interface{} {
			var out []map[string]interface{}
			for _, v := range e.Voices() {
				out = append(out, map[string]interface{}{"name": v.Name, "lang": v.Lang, "uri": v.URI})
			}
			return out
		},
		"onLineChange": func(fn *js.Object) { onLine = fn },
		"onComplete":   func(fn *js.Object) { onComplete = fn },
		"dispose":      func() { e.Dispose() },
	})

	js.Global.Call("addEventListener", "beforeunload", func() {
		e.Dispose()
	})
}

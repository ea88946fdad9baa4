//go:build js
// +build js

package sched

import (
	"time"

	"github.com/gopherjs/gopherjs/js"
)

// Browser schedules callbacks with setTimeout on the page's event loop.
type Browser struct{}

type browserTimer struct {
	id      *js.Object
	fired   bool
	stopped bool
}

// AfterFunc wraps setTimeout.
func (Browser) AfterFunc(d time.Duration, fn func()) Timer {
	bt := &browserTimer{}
	bt.id = js.Global.Call("setTimeout", func() {
		if bt.stopped {
			return
		}
		bt.fired = true
		fn()
	}, float64(d)/float64(time.Millisecond))
	return bt
}

func (bt *browserTimer) Stop() bool {
	if bt.fired || bt.stopped {
		return false
	}
	bt.stopped = true
	js.Global.Call("clearTimeout", bt.id)
	return true
}

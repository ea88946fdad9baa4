package speech

import (
	"time"

	"github.com/simukka/trance/sched"
)

// VoicePoller polls a synthesizer for its voice list.
type VoicePoller struct {
	timer   sched.Timer
	stopped bool
}

// PollVoices asks synth for voices now and then every interval until it
// reports some or attempts run out, then calls done once with whatever it
// has. An empty list means the caller should fall back to Silent. A
// synthesizer that implements Warmer is warmed first. done may run before
// PollVoices returns.
func PollVoices(s sched.Scheduler, synth Synthesizer, interval time.Duration, attempts int, done func([]Voice)) *VoicePoller {
	p := &VoicePoller{}
	if w, ok := synth.(Warmer); ok {
		w.Warm()
	}
	if attempts < 1 {
		attempts = 1
	}
	n := 0
	var try func()
	try = func() {
		if p.stopped {
			return
		}
		n++
		voices := synth.Voices()
		if len(voices) > 0 || n >= attempts {
			p.stopped = true
			p.timer = nil
			done(voices)
			return
		}
		p.timer = s.AfterFunc(interval, try)
	}
	try()
	return p
}

// Stop abandons polling without calling done.
func (p *VoicePoller) Stop() {
	p.stopped = true
	sched.Stop(p.timer)
	p.timer = nil
}

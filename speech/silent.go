package speech

import (
	"strings"
	"time"

	"github.com/simukka/trance/sched"
)

const (
	silentWordTime    = 400 * time.Millisecond // 150 words per minute
	silentMinDuration = 400 * time.Millisecond
)

// Silent is the fallback synthesizer. It speaks nothing but takes roughly as
// long as speech would, so the teleprompter keeps moving.
type Silent struct {
	sched sched.Scheduler
	timer sched.Timer
}

func NewSilent(s sched.Scheduler) *Silent {
	return &Silent{sched: s}
}

func (s *Silent) Voices() []Voice { return nil }

func (s *Silent) Speak(u Utterance, done func(error)) error {
	s.Cancel()
	var t sched.Timer
	t = s.sched.AfterFunc(SilentDuration(u.Text, u.Rate), func() {
		if s.timer == t {
			s.timer = nil
		}
		done(nil)
	})
	s.timer = t
	return nil
}

func (s *Silent) Cancel() {
	sched.Stop(s.timer)
	s.timer = nil
}

// SilentDuration estimates how long text takes to say at rate.
func SilentDuration(text string, rate float64) time.Duration {
	if rate <= 0 {
		rate = 1
	}
	words := len(strings.Fields(text))
	d := time.Duration(float64(words) * float64(silentWordTime) / rate)
	if d < silentMinDuration {
		d = silentMinDuration
	}
	return d
}

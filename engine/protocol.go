package engine

import (
	"fmt"
	"strings"
	"time"
)

// Protocol is a scripted entrainment frequency glide.
type Protocol string

const (
	NoProtocol Protocol = "none"
	Relax      Protocol = "relax"
	Sleep      Protocol = "sleep"
	Focus      Protocol = "focus"
)

// ProtocolStep is how often a running protocol retunes the beat.
const ProtocolStep = time.Second

// Ramp glides linearly from Start to End Hz over Duration, then holds End.
type Ramp struct {
	Start    float64
	End      float64
	Duration time.Duration
}

// Protocols holds the glide behind each protocol.
var Protocols = map[Protocol]Ramp{
	Relax: {Start: 12, End: 7.83, Duration: 10 * time.Minute},
	Sleep: {Start: 10, End: 2, Duration: 15 * time.Minute},
	Focus: {Start: 14, End: 30, Duration: 5 * time.Minute},
}

// ParseProtocol accepts a protocol name in any case. An empty name is
// NoProtocol.
func ParseProtocol(s string) (Protocol, error) {
	switch p := Protocol(strings.ToLower(strings.TrimSpace(s))); p {
	case "", NoProtocol:
		return NoProtocol, nil
	case Relax, Sleep, Focus:
		return p, nil
	}
	return NoProtocol, fmt.Errorf("unknown protocol %q", s)
}

// Steps returns how many ProtocolStep ticks the glide takes.
func (r Ramp) Steps() int {
	return int(r.Duration / ProtocolStep)
}

// At returns the frequency after step ticks.
func (r Ramp) At(step int) float64 {
	n := r.Steps()
	if n <= 0 || step >= n {
		return r.End
	}
	if step <= 0 {
		return r.Start
	}
	return r.Start + (r.End-r.Start)*float64(step)/float64(n)
}

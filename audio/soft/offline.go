package soft

import (
	"errors"
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// ErrRateMismatch is returned when the output device is already open at
// another sample rate.
var ErrRateMismatch = errors.New("soft: output device open at another sample rate")

// Offline returns the next seconds of c's output as a finite stream. The
// context must be running for its clock to move.
func Offline(c *Context, seconds float64) beep.Streamer {
	return beep.Take(int(seconds*c.SampleRate()), c)
}

// WriteWAV renders seconds of c's output into w as 16-bit stereo.
func WriteWAV(w io.WriteSeeker, c *Context, seconds float64) error {
	format := beep.Format{
		SampleRate:  beep.SampleRate(int(c.SampleRate())),
		NumChannels: 2,
		Precision:   2,
	}
	return wav.Encode(w, Offline(c, seconds), format)
}

package soft

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoRate int
	otoErr  error
)

// Speaker pulls a Context through the default output device.
type Speaker struct {
	player *oto.Player
	src    *streamReader
}

// NewSpeaker opens the output device at the context's sample rate and
// starts playback. The device is opened once per process; later speakers
// must use the same rate.
func NewSpeaker(c *Context, buffer time.Duration) (*Speaker, error) {
	rate := int(c.SampleRate())
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
			BufferSize:   buffer,
		})
		if otoErr == nil {
			<-ready
			otoRate = rate
		}
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if rate != otoRate {
		return nil, ErrRateMismatch
	}
	r := &streamReader{c: c}
	p := otoCtx.NewPlayer(r)
	p.Play()
	return &Speaker{player: p, src: r}, nil
}

// Close stops playback. The context is left open.
func (s *Speaker) Close() error {
	return s.player.Close()
}

// streamReader encodes the context's output as interleaved float32 frames.
type streamReader struct {
	c       *Context
	samples [][2]float64
}

func (r *streamReader) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	if cap(r.samples) < frames {
		r.samples = make([][2]float64, frames)
	}
	s := r.samples[:frames]
	if _, ok := r.c.Stream(s); !ok {
		return 0, io.EOF
	}
	for i, f := range s {
		binary.LittleEndian.PutUint32(p[i*8:], math.Float32bits(float32(f[0])))
		binary.LittleEndian.PutUint32(p[i*8+4:], math.Float32bits(float32(f[1])))
	}
	return frames * 8, nil
}

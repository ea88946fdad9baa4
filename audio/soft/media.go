package soft

import (
	"fmt"
	"os"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/simukka/trance/audio"
)

// Media plays a local WAV file, mixed after the master gain.
type Media struct {
	ctx     *Context
	src     string
	volume  float64
	loop    bool
	playing bool
	closed  bool

	file   beep.StreamSeekCloser
	format beep.Format
	stream beep.Streamer
	buf    [Quantum][2]float64
}

var _ audio.MediaPlayer = (*Media)(nil)

// Play loads the file on first use and starts mixing it. Remote URLs are
// not fetched.
func (m *Media) Play() error {
	m.ctx.mu.Lock()
	defer m.ctx.mu.Unlock()
	if m.closed || m.ctx.state == audio.StateClosed {
		return ErrClosed
	}
	if m.file == nil {
		if err := m.load(); err != nil {
			return err
		}
	}
	m.playing = true
	return nil
}

func (m *Media) load() error {
	if strings.HasPrefix(m.src, "http://") || strings.HasPrefix(m.src, "https://") {
		return fmt.Errorf("%w: remote media %s", audio.ErrUnsupported, m.src)
	}
	f, err := os.Open(m.src)
	if err != nil {
		return err
	}
	s, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode %s: %w", m.src, err)
	}
	m.file, m.format = s, format
	m.reset()
	return nil
}

// reset seeks to the start and rebuilds the resampler, which cannot seek.
func (m *Media) reset() {
	if m.file == nil {
		return
	}
	if err := m.file.Seek(0); err != nil {
		m.playing = false
		return
	}
	m.stream = m.file
	target := beep.SampleRate(int(m.ctx.rate))
	if m.format.SampleRate != target {
		m.stream = beep.Resample(4, m.format.SampleRate, target, m.file)
	}
}

func (m *Media) Pause() {
	m.ctx.mu.Lock()
	defer m.ctx.mu.Unlock()
	m.playing = false
}

func (m *Media) Rewind() {
	m.ctx.mu.Lock()
	defer m.ctx.mu.Unlock()
	m.reset()
}

func (m *Media) SetVolume(v float64) {
	m.ctx.mu.Lock()
	defer m.ctx.mu.Unlock()
	m.volume = v
}

func (m *Media) SetLoop(loop bool) {
	m.ctx.mu.Lock()
	defer m.ctx.mu.Unlock()
	m.loop = loop
}

// Close stops mixing, closes the file and detaches the player from its
// context. Repeated calls are no-ops.
func (m *Media) Close() {
	m.ctx.mu.Lock()
	defer m.ctx.mu.Unlock()
	m.closed, m.playing = true, false
	if m.file != nil {
		m.file.Close()
	}
	m.file, m.stream = nil, nil
	kept := m.ctx.media[:0]
	for _, other := range m.ctx.media {
		if other != m {
			kept = append(kept, other)
		}
	}
	m.ctx.media = kept
}

// Playing reports whether the file is being mixed.
func (m *Media) Playing() bool {
	m.ctx.mu.Lock()
	defer m.ctx.mu.Unlock()
	return m.playing
}

func (m *Media) mix(out *block) {
	if !m.playing || m.stream == nil {
		return
	}
	n, empty := 0, 0
	for n < Quantum {
		k, ok := m.stream.Stream(m.buf[n:])
		n += k
		if ok && k > 0 {
			empty = 0
			continue
		}
		if empty++; !m.loop || empty > 1 {
			m.playing = false
			break
		}
		m.reset()
	}
	for i := 0; i < n; i++ {
		out[0][i] += m.buf[i][0] * m.volume
		out[1][i] += m.buf[i][1] * m.volume
	}
}

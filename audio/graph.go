// Package audio owns the shared output graph and the two generators that
// feed it: ambient soundscapes and brainwave entrainment tones.
//
// Generators only talk to the interfaces in this file. The browser build
// backs them with the Web Audio API (audio/webaudio); native builds and
// tests use the pure-Go renderer in audio/soft.
package audio

// State is an audio context's run state.
type State string

const (
	StateSuspended State = "suspended"
	StateRunning   State = "running"
	StateClosed    State = "closed"
)

// Waveform is an oscillator shape.
type Waveform string

const (
	Sine     Waveform = "sine"
	Square   Waveform = "square"
	Sawtooth Waveform = "sawtooth"
	Triangle Waveform = "triangle"
)

// FilterType selects a biquad response.
type FilterType string

const (
	Lowpass  FilterType = "lowpass"
	Highpass FilterType = "highpass"
	Bandpass FilterType = "bandpass"
)

// Context creates nodes and owns the audio clock. Times are in seconds on
// the context clock.
type Context interface {
	State() State
	Resume() error
	Close() error
	CurrentTime() float64
	SampleRate() float64
	Destination() Node

	NewGain() (Gain, error)
	NewOscillator() (Oscillator, error)
	NewFilter() (Filter, error)
	NewPanner() (Panner, error)
	NewBuffer(samples []float64) (Buffer, error)
	NewBufferSource() (BufferSource, error)
	NewMedia(src string) (MediaPlayer, error)
}

// Param is an automatable node parameter.
type Param interface {
	Value() float64
	SetValue(v float64)
	SetValueAtTime(v, t float64)
	LinearRampToValueAtTime(v, t float64)
	SetTargetAtTime(target, start, timeConstant float64)
	CancelScheduledValues(t float64)
}

// Node is a vertex in the graph.
type Node interface {
	Connect(dst Node) error
	// ConnectParam sums this node's output onto an audio-rate parameter.
	ConnectParam(dst Param) error
	// Disconnect removes every outgoing connection.
	Disconnect()
}

type Gain interface {
	Node
	Gain() Param
}

// Source is a node that produces sound once started. A source can be started
// and stopped once; further calls are no-ops.
type Source interface {
	Node
	Start()
	Stop()
}

type Oscillator interface {
	Source
	SetType(w Waveform)
	Frequency() Param
}

type Filter interface {
	Node
	SetType(t FilterType)
	Frequency() Param
	Q() Param
}

type Panner interface {
	Node
	// Pan runs from -1 (left) to 1 (right).
	Pan() Param
}

// Buffer is mono sample data at the context's sample rate.
type Buffer interface {
	Len() int
	Duration() float64
}

type BufferSource interface {
	Source
	SetBuffer(b Buffer)
	SetLoop(loop bool)
}

// MediaPlayer plays a sampled asset outside the node graph. Its volume does
// not pass through the master gain.
type MediaPlayer interface {
	Play() error
	Pause()
	Rewind()
	SetVolume(v float64)
	SetLoop(loop bool)
	// Close stops playback and releases the asset. The player cannot be
	// used again.
	Close()
}

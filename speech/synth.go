package speech

import "errors"

// ErrUnavailable is returned by a synthesizer that cannot speak at all.
var ErrUnavailable = errors.New("speech synthesis unavailable")

// Utterance is one fully resolved request to the synthesizer.
type Utterance struct {
	Text   string
	Voice  *Voice // nil lets the platform choose
	Lang   string
	Rate   float64
	Pitch  float64
	Volume float64
	Pan    float64 // hint only; most engines cannot pan
}

// Synthesizer speaks one utterance at a time.
//
// Speak starts u and returns; done is called at most once when it finishes
// or fails. A Speak error means nothing started and done will not be called.
// After Cancel, done is not called for the cancelled utterance.
type Synthesizer interface {
	Voices() []Voice
	Speak(u Utterance, done func(error)) error
	Cancel()
}

// Warmer is implemented by synthesizers that need a silent utterance before
// they start reporting voices.
type Warmer interface {
	Warm()
}

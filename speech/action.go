package speech

import "fmt"

// Kind identifies what an Action does when the driver reaches it.
type Kind int

const (
	Speak Kind = iota
	ExplicitPause
	ImplicitPause
)

func (k Kind) String() string {
	switch k {
	case Speak:
		return "Speak"
	case ExplicitPause:
		return "ExplicitPause"
	case ImplicitPause:
		return "ImplicitPause"
	default:
		return "Unknown"
	}
}

// Prosody is the modifier state stamped onto a spoken fragment.
type Prosody struct {
	Rate   float64
	Pitch  float64
	Volume float64
	Pan    float64 // -1 left, 0 center, 1 right
}

// Neutral is the prosody every script starts with.
var Neutral = Prosody{Rate: 1, Pitch: 1, Volume: 1, Pan: 0}

// Action is one step of a tokenized script.
type Action struct {
	Kind     Kind
	Text     string  // Speak only
	Prosody  Prosody // Speak only
	Duration float64 // ExplicitPause only, seconds
	Line     int     // segment index used for teleprompter highlighting
}

func (a Action) String() string {
	switch a.Kind {
	case Speak:
		return fmt.Sprintf("Speak(%q, line=%d, rate=%.2f pitch=%.2f vol=%.2f pan=%.0f)",
			a.Text, a.Line, a.Prosody.Rate, a.Prosody.Pitch, a.Prosody.Volume, a.Prosody.Pan)
	case ExplicitPause:
		return fmt.Sprintf("ExplicitPause(%gs, line=%d)", a.Duration, a.Line)
	default:
		return fmt.Sprintf("%s(line=%d)", a.Kind, a.Line)
	}
}

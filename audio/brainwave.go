package audio

// Band describes the brainwave range an entrainment frequency targets.
type Band struct {
	Name        string
	State       string
	Description string
}

var bands = []struct {
	below float64
	band  Band
}{
	{4, Band{"Delta", "Deep Sleep", "Restorative sleep, healing, detachment from awareness."}},
	{8, Band{"Theta", "Meditation", "Deep meditation, intuition, creativity, dreaming."}},
	{14, Band{"Alpha", "Relaxed Focus", "Stress reduction, super-learning, flow state."}},
	{32, Band{"Beta", "Active Thinking", "Alertness, concentration, cognitive processing."}},
}

var gamma = Band{"Gamma", "Peak Performance", "High-level information processing, insight."}

// BandFor returns the band freq falls in.
func BandFor(freq float64) Band {
	for _, b := range bands {
		if freq < b.below {
			return b.band
		}
	}
	return gamma
}

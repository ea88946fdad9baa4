package speech

import (
	"sort"
	"strings"
)

// Voice is one voice a synthesizer offers.
type Voice struct {
	URI     string `json:"voiceURI"`
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Default bool   `json:"default"`
}

// SelectVoice resolves the voice for an utterance: the exact URI if present,
// then the platform default, then en-US, then any English locale, then the
// first voice. It reports false only when voices is empty.
func SelectVoice(voices []Voice, uri string) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}
	if uri != "" {
		for _, v := range voices {
			if v.URI == uri {
				return v, true
			}
		}
	}
	for _, v := range voices {
		if v.Default {
			return v, true
		}
	}
	for _, v := range voices {
		if normLang(v.Lang) == "en-us" {
			return v, true
		}
	}
	for _, v := range voices {
		if strings.HasPrefix(normLang(v.Lang), "en") {
			return v, true
		}
	}
	return voices[0], true
}

// SortVoices orders voices by language, then name.
func SortVoices(voices []Voice) {
	sort.SliceStable(voices, func(i, j int) bool {
		if voices[i].Lang != voices[j].Lang {
			return voices[i].Lang < voices[j].Lang
		}
		return voices[i].Name < voices[j].Name
	})
}

// PacingFactor slows speech down at deep entrainment frequencies.
func PacingFactor(entrainmentEnabled bool, freq float64) float64 {
	if !entrainmentEnabled {
		return 1.0
	}
	switch {
	case freq <= 4:
		return 0.8
	case freq <= 8:
		return 0.9
	default:
		return 1.0
	}
}

func normLang(lang string) string {
	return strings.ToLower(strings.ReplaceAll(lang, "_", "-"))
}

// Package config holds the caller-owned settings record and the session files
// the CLI plays.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a setting is out of range.
var ErrInvalid = errors.New("invalid setting")

// Settings is read live by the engine at every decision point.
type Settings struct {
	Speed            float64 `yaml:"speed" json:"speed"`                        // speech rate multiplier
	VoiceVolume      float64 `yaml:"voice_volume" json:"voiceVol"`              // 0.0 - 1.0
	Pause            float64 `yaml:"pause" json:"pause"`                        // inter-sentence pause, seconds
	AmbienceVolume   float64 `yaml:"ambience_volume" json:"ambVol"`             // 0.0 - 1.0
	BinauralEnabled  bool    `yaml:"binaural_enabled" json:"binauralEnabled"`   // entrainment on/off
	BinauralFreq     float64 `yaml:"binaural_freq" json:"binauralFreq"`         // target beat, Hz
	BinauralVolume   float64 `yaml:"binaural_volume" json:"binauralVol"`        // negative means unset
	BreathingRate    float64 `yaml:"breathing_rate" json:"breathingRate"`       // breaths per minute, UI only
	BreathingEnabled bool    `yaml:"breathing_enabled" json:"breathingEnabled"` // UI only
	SelectedVoiceURI string  `yaml:"selected_voice_uri" json:"selectedVoiceURI"`
}

// Defaults returns the settings a fresh profile starts with.
func Defaults() Settings {
	return Settings{
		Speed:          0.9,
		VoiceVolume:    1.0,
		Pause:          2,
		AmbienceVolume: 0.5,
		BinauralFreq:   6,
		BinauralVolume: 0.3,
		BreathingRate:  6,
	}
}

// Validate checks ranges the engine relies on.
func (s Settings) Validate() error {
	switch {
	case s.Speed <= 0 || s.Speed > 10:
		return fmt.Errorf("%w: speed %.2f outside (0, 10]", ErrInvalid, s.Speed)
	case s.VoiceVolume < 0 || s.VoiceVolume > 1:
		return fmt.Errorf("%w: voice_volume %.2f outside [0, 1]", ErrInvalid, s.VoiceVolume)
	case s.Pause < 0:
		return fmt.Errorf("%w: pause %.2f is negative", ErrInvalid, s.Pause)
	case s.AmbienceVolume < 0 || s.AmbienceVolume > 1:
		return fmt.Errorf("%w: ambience_volume %.2f outside [0, 1]", ErrInvalid, s.AmbienceVolume)
	case s.BinauralFreq <= 0 || s.BinauralFreq > 100:
		return fmt.Errorf("%w: binaural_freq %.2f outside (0, 100]", ErrInvalid, s.BinauralFreq)
	case s.BinauralVolume > 1:
		return fmt.Errorf("%w: binaural_volume %.2f above 1", ErrInvalid, s.BinauralVolume)
	}
	return nil
}

// Session is a playable script plus the settings and layers to play it with.
type Session struct {
	Title       string   `yaml:"title"`
	Script      string   `yaml:"script"`
	Settings    Settings `yaml:"settings"`
	Soundscape  string   `yaml:"soundscape"`  // none, rain, wind, om, fire
	Entrainment string   `yaml:"entrainment"` // binaural, isochronic
	Protocol    string   `yaml:"protocol"`    // none, relax, sleep, focus
}

// ParseSession decodes a YAML session. Settings left out of the document keep
// their defaults.
func ParseSession(data []byte) (*Session, error) {
	sess := &Session{Settings: Defaults()}
	if err := yaml.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if err := sess.Settings.Validate(); err != nil {
		return nil, err
	}
	return sess, nil
}

// LoadSession reads a YAML session file.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	return ParseSession(data)
}

// Env holds process-level overrides.
type Env struct {
	VoiceURI string
	Synth    string // auto, exec, silent
	Speed    float64
	Pause    float64
	hasSpeed bool
	hasPause bool
}

// LoadEnv loads the optional dotenv files (missing files are fine) and reads
// the TRANCE_* variables.
func LoadEnv(files ...string) (Env, error) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Env{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	env := Env{
		VoiceURI: os.Getenv("TRANCE_VOICE_URI"),
		Synth:    os.Getenv("TRANCE_SYNTH"),
	}
	if v := os.Getenv("TRANCE_SPEED"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Env{}, fmt.Errorf("%w: TRANCE_SPEED=%q", ErrInvalid, v)
		}
		env.Speed, env.hasSpeed = f, true
	}
	if v := os.Getenv("TRANCE_PAUSE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Env{}, fmt.Errorf("%w: TRANCE_PAUSE=%q", ErrInvalid, v)
		}
		env.Pause, env.hasPause = f, true
	}
	if env.Synth == "" {
		env.Synth = "auto"
	}
	return env, nil
}

// Apply overlays the environment onto s.
func (e Env) Apply(s Settings) Settings {
	if e.VoiceURI != "" {
		s.SelectedVoiceURI = e.VoiceURI
	}
	if e.hasSpeed {
		s.Speed = e.Speed
	}
	if e.hasPause {
		s.Pause = e.Pause
	}
	return s
}

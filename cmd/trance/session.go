package main

import (
	"fmt"

	"github.com/simukka/trance/audio"
	"github.com/simukka/trance/config"
	"github.com/simukka/trance/engine"
)

// sessionFlags override fields of a loaded session.
type sessionFlags struct {
	soundscape  string
	entrainment string
	protocol    string
	freq        float64
	fire        string
}

func (f sessionFlags) apply(sess *config.Session) {
	if f.soundscape != "" {
		sess.Soundscape = f.soundscape
	}
	if f.entrainment != "" {
		sess.Entrainment = f.entrainment
		sess.Settings.BinauralEnabled = true
	}
	if f.protocol != "" {
		sess.Protocol = f.protocol
		sess.Settings.BinauralEnabled = true
	}
	if f.freq > 0 {
		sess.Settings.BinauralFreq = f.freq
		sess.Settings.BinauralEnabled = true
	}
}

func loadSession(path string, f sessionFlags) (*config.Session, error) {
	sess, err := config.LoadSession(path)
	if err != nil {
		return nil, err
	}
	f.apply(sess)
	sess.Settings = env.Apply(sess.Settings)
	if err := sess.Settings.Validate(); err != nil {
		return nil, err
	}
	return sess, nil
}

// configure loads the session's script and layers into e.
func configure(e *engine.Engine, sess *config.Session, fire string) error {
	kind, err := audio.ParseKind(sess.Soundscape)
	if err != nil {
		return err
	}
	mode, err := audio.ParseMode(sess.Entrainment)
	if err != nil {
		return err
	}
	if fire != "" {
		e.SetFireSource(fire)
	}
	if err := e.SelectSoundscape(kind); err != nil {
		return err
	}
	if err := e.SetEntrainmentType(mode); err != nil {
		return err
	}
	if err := e.SetProtocol(engine.Protocol(sess.Protocol)); err != nil {
		return fmt.Errorf("protocol: %w", err)
	}
	return e.Load(sess.Script)
}

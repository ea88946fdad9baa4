package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gopxl/beep/wav"
	"github.com/spf13/cobra"

	"github.com/simukka/trance/config"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTokenize_PrintsLinesAndActions(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("Relax. [pause 2s] [BINAURAL: 6 Hz] Let go."))

	if err := runTokenize(cmd, nil); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{"Lines:", "Actions:", "ExplicitPause(2s", "Binaural hints: [6] Hz"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, got)
		}
	}
}

func TestTokenize_MissingFile(t *testing.T) {
	cmd := &cobra.Command{}
	if err := runTokenize(cmd, []string{filepath.Join(t.TempDir(), "missing.txt")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSessionFlags_EnableEntrainment(t *testing.T) {
	sess := &config.Session{Settings: config.Defaults()}
	sessionFlags{soundscape: "rain", protocol: "sleep"}.apply(sess)
	if sess.Soundscape != "rain" || sess.Protocol != "sleep" {
		t.Errorf("expected overrides applied, got %+v", sess)
	}
	if !sess.Settings.BinauralEnabled {
		t.Error("expected a protocol to enable entrainment")
	}
}

func TestRenderSession_FixedLength(t *testing.T) {
	sess, err := config.ParseSession([]byte(`
script: "Breathe in. Breathe out."
soundscape: rain
entrainment: isochronic
settings:
  binaural_enabled: true
  binaural_freq: 6
`))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	secs, err := renderSession(f, sess, renderOptions{rate: 8000, seconds: 1.5})
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	if secs != 1.5 {
		t.Errorf("expected 1.5s, got %v", secs)
	}

	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	stream, format, err := wav.Decode(r)
	if err != nil {
		t.Fatal(err)
	}
	if format.SampleRate != 8000 || format.NumChannels != 2 {
		t.Errorf("expected 8000 Hz stereo, got %+v", format)
	}
	if stream.Len() != 12000 {
		t.Errorf("expected 12000 frames, got %d", stream.Len())
	}
	buf := make([][2]float64, 12000)
	n, _ := stream.Stream(buf)
	var peak float64
	for _, s := range buf[:n] {
		if s[0] > peak {
			peak = s[0]
		}
	}
	if peak == 0 {
		t.Error("expected audible output")
	}
}

func TestRenderSession_UntilComplete(t *testing.T) {
	sess, err := config.ParseSession([]byte(`
script: "Sleep now."
settings:
  pause: 0
`))
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(t.TempDir(), "out.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	secs, err := renderSession(f, sess, renderOptions{rate: 8000})
	if err != nil {
		t.Fatal(err)
	}
	if secs <= 0 || secs > 60 {
		t.Errorf("expected the render to end with the script, got %vs", secs)
	}
}

func TestRenderSession_EmptyScript(t *testing.T) {
	sess, err := config.ParseSession([]byte(`script: ""`))
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(t.TempDir(), "out.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := renderSession(f, sess, renderOptions{rate: 8000}); !errors.Is(err, errNothingToPlay) {
		t.Errorf("expected errNothingToPlay, got %v", err)
	}
}

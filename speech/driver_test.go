package speech

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/simukka/trance/config"
	"github.com/simukka/trance/sched"
)

type fakeSynth struct {
	voices   []Voice
	spoken   []Utterance
	pending  func(error)
	cancels  int
	failNext error
}

func (f *fakeSynth) Voices() []Voice { return f.voices }

func (f *fakeSynth) Speak(u Utterance, done func(error)) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.spoken = append(f.spoken, u)
	f.pending = done
	return nil
}

func (f *fakeSynth) Cancel() {
	f.cancels++
	f.pending = nil
}

func (f *fakeSynth) finish(err error) {
	done := f.pending
	f.pending = nil
	done(err)
}

func (f *fakeSynth) texts() []string {
	var out []string
	for _, u := range f.spoken {
		out = append(out, u.Text)
	}
	return out
}

type driverHarness struct {
	clock     *sched.Manual
	synth     *fakeSynth
	settings  config.Settings
	lines     []int
	completed int
	driver    *Driver
}

func newHarness() *driverHarness {
	h := &driverHarness{
		clock:    sched.NewManual(),
		synth:    &fakeSynth{},
		settings: config.Defaults(),
	}
	h.driver = NewDriver(DriverOptions{
		Synth:      h.synth,
		Scheduler:  h.clock,
		Settings:   func() config.Settings { return h.settings },
		OnLine:     func(line int) { h.lines = append(h.lines, line) },
		OnComplete: func() { h.completed++ },
	})
	return h
}

func TestDriver_ScenarioTiming(t *testing.T) {
	h := newHarness()
	h.settings.Pause = 1

	h.driver.Play("Relax now. [PAUSE 3] You are calm.")
	if !reflect.DeepEqual(h.synth.texts(), []string{"Relax now."}) {
		t.Fatalf("Expected first sentence spoken, got %v", h.synth.texts())
	}
	h.synth.finish(nil)

	// gap, implicit pause, then most of the explicit pause
	h.clock.Advance(10*time.Millisecond + time.Second + 3*time.Second - time.Millisecond)
	if len(h.synth.spoken) != 1 {
		t.Fatalf("Expected second sentence to wait for the explicit pause, got %v", h.synth.texts())
	}
	if h.driver.State() != Waiting {
		t.Errorf("Expected waiting state, got %v", h.driver.State())
	}
	h.clock.Advance(time.Millisecond)
	if len(h.synth.spoken) != 2 || h.synth.spoken[1].Text != "You are calm." {
		t.Fatalf("Expected second sentence after 3s, got %v", h.synth.texts())
	}

	h.synth.finish(nil)
	h.clock.Advance(10*time.Millisecond + time.Second)
	if h.completed != 1 {
		t.Errorf("Expected one completion, got %d", h.completed)
	}
	if !reflect.DeepEqual(h.lines, []int{0, 0, 1, 2, 2}) {
		t.Errorf("Expected lines [0 0 1 2 2], got %v", h.lines)
	}
	if h.driver.Playing() || h.driver.State() != Idle {
		t.Errorf("Expected idle after completion, got %v", h.driver.State())
	}
	if h.clock.Pending() != 0 {
		t.Errorf("Expected no pending timers, got %d", h.clock.Pending())
	}
}

func TestDriver_PacingAtDeepFrequency(t *testing.T) {
	h := newHarness()
	h.settings.Speed = 1
	h.settings.BinauralEnabled = true
	h.settings.BinauralFreq = 3

	h.driver.Play("Sink. [SLOW]Deeper.")
	h.synth.finish(nil)
	h.clock.Advance(10*time.Millisecond + 2*time.Second)

	if len(h.synth.spoken) != 2 {
		t.Fatalf("Expected two utterances, got %v", h.synth.texts())
	}
	if math.Abs(h.synth.spoken[0].Rate-0.8) > 1e-9 {
		t.Errorf("Expected rate 0.8, got %f", h.synth.spoken[0].Rate)
	}
	if math.Abs(h.synth.spoken[1].Rate-0.56) > 1e-9 {
		t.Errorf("Expected rate 0.56, got %f", h.synth.spoken[1].Rate)
	}
}

func TestDriver_EmptyScriptCompletesImmediately(t *testing.T) {
	h := newHarness()
	h.driver.Play("")
	if h.completed != 1 {
		t.Errorf("Expected immediate completion, got %d", h.completed)
	}
	if len(h.lines) != 0 {
		t.Errorf("Expected no line changes, got %v", h.lines)
	}
	if h.driver.Playing() {
		t.Error("Expected driver to stop after completion")
	}
}

func TestDriver_ResumeReplaysInterruptedSentence(t *testing.T) {
	h := newHarness()
	h.settings.Pause = 0

	h.driver.Play("One. Two. Three.")
	h.synth.finish(nil)
	h.clock.Advance(10 * time.Millisecond)
	if h.synth.texts()[1] != "Two." {
		t.Fatalf("Expected second sentence in flight, got %v", h.synth.texts())
	}

	h.driver.Pause()
	if h.synth.cancels != 1 {
		t.Errorf("Expected one cancel, got %d", h.synth.cancels)
	}
	if h.driver.State() != Paused {
		t.Errorf("Expected paused state, got %v", h.driver.State())
	}

	h.driver.Play("One. Two. Three.")
	want := []string{"One.", "Two.", "Two."}
	if !reflect.DeepEqual(h.synth.texts(), want) {
		t.Errorf("Expected %v, got %v", want, h.synth.texts())
	}
}

func TestDriver_PauseDuringWaitSkipsRemainder(t *testing.T) {
	h := newHarness()
	h.settings.Pause = 5

	h.driver.Play("One. Two.")
	h.synth.finish(nil)
	h.clock.Advance(time.Second)
	h.driver.Pause()
	if h.clock.Pending() != 0 {
		t.Errorf("Expected pause to cancel timers, got %d pending", h.clock.Pending())
	}
	h.clock.Advance(time.Minute)
	if len(h.synth.spoken) != 1 {
		t.Fatalf("Expected nothing spoken while paused, got %v", h.synth.texts())
	}

	h.driver.Play("One. Two.")
	if len(h.synth.spoken) != 2 || h.synth.spoken[1].Text != "Two." {
		t.Errorf("Expected next sentence on resume, got %v", h.synth.texts())
	}
}

func TestDriver_StaleCompletionIgnored(t *testing.T) {
	h := newHarness()
	h.driver.Play("One. Two.")
	stale := h.synth.pending
	h.driver.Pause()

	stale(nil)
	if h.clock.Pending() != 0 {
		t.Errorf("Expected stale completion to schedule nothing, got %d", h.clock.Pending())
	}
	h.clock.Advance(time.Minute)
	if len(h.synth.spoken) != 1 {
		t.Errorf("Expected no further speech, got %v", h.synth.texts())
	}
}

func TestDriver_UtteranceErrorSkipsAfterBackoff(t *testing.T) {
	h := newHarness()
	h.settings.Pause = 0

	h.driver.Play("Broken. Fine.")
	h.synth.finish(errors.New("synthesis-failed"))
	h.clock.Advance(99 * time.Millisecond)
	if len(h.synth.spoken) != 1 {
		t.Fatalf("Expected backoff before advancing, got %v", h.synth.texts())
	}
	h.clock.Advance(time.Millisecond)
	if len(h.synth.spoken) != 2 {
		t.Errorf("Expected playback to continue after error, got %v", h.synth.texts())
	}
}

func TestDriver_SpeakFailureRetriesNextAction(t *testing.T) {
	h := newHarness()
	h.settings.Pause = 0
	h.synth.failNext = errors.New("busy")

	h.driver.Play("Lost. Kept.")
	if len(h.synth.spoken) != 0 {
		t.Fatalf("Expected nothing started, got %v", h.synth.texts())
	}
	h.clock.Advance(499 * time.Millisecond)
	if len(h.synth.spoken) != 0 {
		t.Fatalf("Expected 500ms backoff, got %v", h.synth.texts())
	}
	h.clock.Advance(time.Millisecond)
	if !reflect.DeepEqual(h.synth.texts(), []string{"Kept."}) {
		t.Errorf("Expected failed sentence skipped, got %v", h.synth.texts())
	}
}

func TestDriver_ZeroPauseAdvancesSynchronously(t *testing.T) {
	h := newHarness()
	h.driver.Play("[PAUSE 0] Go.")
	if !reflect.DeepEqual(h.synth.texts(), []string{"Go."}) {
		t.Errorf("Expected speech without yielding, got %v", h.synth.texts())
	}
	if h.clock.Pending() != 0 {
		t.Errorf("Expected no timer for a zero pause, got %d", h.clock.Pending())
	}
}

func TestDriver_UtteranceResolution(t *testing.T) {
	h := newHarness()
	h.synth.voices = []Voice{
		{URI: "fr", Name: "Amelie", Lang: "fr-FR"},
		{URI: "samantha", Name: "Samantha", Lang: "en-US"},
	}
	h.settings.VoiceVolume = 0.5
	h.settings.SelectedVoiceURI = "fr"

	h.driver.Play("[WHISPER][UP]Hush.")
	u := h.synth.spoken[0]
	if u.Voice == nil || u.Voice.URI != "fr" || u.Lang != "fr-FR" {
		t.Errorf("Expected selected voice, got %+v", u.Voice)
	}
	if math.Abs(u.Volume-0.15) > 1e-9 {
		t.Errorf("Expected volume 0.15, got %f", u.Volume)
	}
	if u.Pitch != UpPitch {
		t.Errorf("Expected pitch %f, got %f", UpPitch, u.Pitch)
	}
}

func TestDriver_LiveSettingsAtEachPause(t *testing.T) {
	h := newHarness()
	h.settings.Pause = 10

	h.driver.Play("One. Two.")
	h.settings.Pause = 0
	h.synth.finish(nil)
	h.clock.Advance(10 * time.Millisecond)
	if len(h.synth.spoken) != 2 {
		t.Errorf("Expected pause read when reached, got %v", h.synth.texts())
	}
}

func TestDriver_ScriptChangeRestarts(t *testing.T) {
	h := newHarness()
	h.driver.Play("Old session. More.")
	h.driver.Play("New session.")
	if h.synth.cancels != 1 {
		t.Errorf("Expected old utterance cancelled, got %d", h.synth.cancels)
	}
	if got := h.synth.texts(); got[len(got)-1] != "New session." {
		t.Errorf("Expected new script from the start, got %v", got)
	}
	if h.driver.Cursor() != 1 {
		t.Errorf("Expected cursor 1, got %d", h.driver.Cursor())
	}
}

func TestDriver_ResetForgetsScript(t *testing.T) {
	h := newHarness()
	h.settings.Pause = 0
	h.driver.Play("One. Two.")
	h.synth.finish(nil)
	h.clock.Advance(10 * time.Millisecond)
	h.driver.Reset()

	if len(h.driver.Actions()) != 0 || h.driver.Line() != -1 {
		t.Errorf("Expected cleared queue, got %v", h.driver.Actions())
	}
	h.driver.Play("One. Two.")
	if got := h.synth.texts(); got[len(got)-1] != "One." {
		t.Errorf("Expected restart from the top, got %v", got)
	}
}

func TestDriver_SilentFallback(t *testing.T) {
	clock := sched.NewManual()
	completed := 0
	d := NewDriver(DriverOptions{
		Scheduler:  clock,
		Settings:   func() config.Settings { s := config.Defaults(); s.Pause = 0; return s },
		OnComplete: func() { completed++ },
	})
	if _, ok := d.Synthesizer().(*Silent); !ok {
		t.Fatalf("Expected silent synthesizer, got %T", d.Synthesizer())
	}
	d.Play("One two three. Four.")
	clock.RunPending(100)
	if completed != 1 {
		t.Errorf("Expected silent playback to complete, got %d", completed)
	}
}

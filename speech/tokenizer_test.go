package speech

import (
	"reflect"
	"testing"
)

func TestTokenize_PauseBetweenSentences(t *testing.T) {
	got := Tokenize("Relax now. [PAUSE 3] You are calm.")
	want := []Action{
		{Kind: Speak, Text: "Relax now.", Prosody: Neutral, Line: 0},
		{Kind: ImplicitPause, Line: 0},
		{Kind: ExplicitPause, Duration: 3, Line: 1},
		{Kind: Speak, Text: "You are calm.", Prosody: Neutral, Line: 2},
		{Kind: ImplicitPause, Line: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestTokenize_LeadingPauseIsDistinctFromImplicit(t *testing.T) {
	got := Tokenize("[PAUSE 5] Text.")
	want := []Action{
		{Kind: ExplicitPause, Duration: 5, Line: 0},
		{Kind: Speak, Text: "Text.", Prosody: Neutral, Line: 1},
		{Kind: ImplicitPause, Line: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestTokenize_ModifierScoping(t *testing.T) {
	actions := Tokenize("[WHISPER]Hello. World. [/WHISPER]Loud.")
	vols := map[string]float64{}
	for _, a := range actions {
		if a.Kind == Speak {
			vols[a.Text] = a.Prosody.Volume
		}
	}
	if vols["Hello."] != 0.3 || vols["World."] != 0.3 {
		t.Errorf("Expected whispered volume 0.3, got %v", vols)
	}
	if vols["Loud."] != 1.0 {
		t.Errorf("Expected volume 1.0 after reset, got %v", vols["Loud."])
	}
}

func TestTokenize_ModifiersAreSnapshots(t *testing.T) {
	actions := Tokenize("Start [SLOW] slower [FAST] faster.")
	var rates []float64
	for _, a := range actions {
		if a.Kind == Speak {
			rates = append(rates, a.Prosody.Rate)
		}
	}
	want := []float64{1.0, SlowRate, FastRate}
	if !reflect.DeepEqual(rates, want) {
		t.Errorf("Expected rates %v, got %v", want, rates)
	}
	// one implicit pause for the whole sentence
	last := actions[len(actions)-1]
	if last.Kind != ImplicitPause || len(actions) != 4 {
		t.Errorf("Expected three fragments and one implicit pause, got %v", actions)
	}
}

func TestTokenize_UnterminatedModifierPersists(t *testing.T) {
	actions := Tokenize("[LEFT][DOWN]One. Two. Three.")
	for _, a := range actions {
		if a.Kind != Speak {
			continue
		}
		if a.Prosody.Pan != -1 || a.Prosody.Pitch != DownPitch {
			t.Errorf("Expected left pan and low pitch on %q, got %+v", a.Text, a.Prosody)
		}
	}
}

func TestTokenize_PresetsAndReset(t *testing.T) {
	actions := Tokenize("[RIGHT][CALM]Breathe. [/CALM]Wake up.")
	if actions[0].Prosody != (Prosody{Rate: 0.8, Pitch: 0.9, Volume: 0.8, Pan: 1}) {
		t.Errorf("Expected calm preset with right pan, got %+v", actions[0].Prosody)
	}
	if actions[2].Prosody != (Prosody{Rate: 1, Pitch: 1, Volume: 1, Pan: 1}) {
		t.Errorf("Expected reset to default keeping pan, got %+v", actions[2].Prosody)
	}
}

func TestTokenize_CaseInsensitiveTags(t *testing.T) {
	actions := Tokenize("[whisper]Soft. [ /Whisper ]Normal.")
	if actions[0].Prosody.Volume != WhisperVolume {
		t.Errorf("Expected lower-case tag to apply, got %+v", actions[0].Prosody)
	}
	if actions[2].Prosody.Volume != 1 {
		t.Errorf("Expected spaced reset tag to apply, got %+v", actions[2].Prosody)
	}
}

func TestTokenize_UnknownAndBinauralTagsAreInert(t *testing.T) {
	got := Tokenize("[BINAURAL: 4.5 Hz] Sink [SPARKLE]deeper.")
	want := []Action{
		{Kind: Speak, Text: "Sink", Prosody: Neutral, Line: 0},
		{Kind: Speak, Text: "deeper.", Prosody: Neutral, Line: 0},
		{Kind: ImplicitPause, Line: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestTokenize_PauseValues(t *testing.T) {
	var durations []float64
	for _, a := range Tokenize("[PAUSE] a. [PAUSE 1.5] b. [pause -2] c. [PAUSE 0] d.") {
		if a.Kind == ExplicitPause {
			durations = append(durations, a.Duration)
		}
	}
	want := []float64{1, 1.5, 0, 0}
	if !reflect.DeepEqual(durations, want) {
		t.Errorf("Expected durations %v, got %v", want, durations)
	}
}

func TestTokenize_PauseOutOfRange(t *testing.T) {
	var durations []float64
	for _, a := range Tokenize("[PAUSE INF] a. [PAUSE NaN] b. [PAUSE 1e300] c.") {
		if a.Kind == ExplicitPause {
			durations = append(durations, a.Duration)
		}
	}
	want := []float64{DefaultPauseSeconds, DefaultPauseSeconds, MaxPauseSeconds}
	if !reflect.DeepEqual(durations, want) {
		t.Errorf("Expected durations %v, got %v", want, durations)
	}
}

func TestTokenize_MidSentencePauseStaysInSentence(t *testing.T) {
	got := Tokenize("Breathe in [PAUSE 2] and out.")
	want := []Action{
		{Kind: Speak, Text: "Breathe in", Prosody: Neutral, Line: 0},
		{Kind: ExplicitPause, Duration: 2, Line: 0},
		{Kind: Speak, Text: "and out.", Prosody: Neutral, Line: 0},
		{Kind: ImplicitPause, Line: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestTokenize_EmptyAndPunctuationOnly(t *testing.T) {
	for _, script := range []string{"", "   ", "... !!! ??", "[SLOW]"} {
		if got := Tokenize(script); len(got) != 0 {
			t.Errorf("Expected no actions for %q, got %v", script, got)
		}
	}
}

func TestTokenize_StrayBrackets(t *testing.T) {
	actions := Tokenize("Look ]up. Then [rest.")
	if len(actions) != 4 {
		t.Fatalf("Expected two spoken sentences, got %v", actions)
	}
	if actions[0].Text != "Look up." || actions[2].Text != "Then rest." {
		t.Errorf("Expected brackets stripped, got %q and %q", actions[0].Text, actions[2].Text)
	}
}

func TestTokenize_DeterministicAndOrdered(t *testing.T) {
	scripts := []string{
		"Relax now. [PAUSE 3] You are calm.",
		"[CALM]Let go... [SLOW]deeper [PAUSE 2] and deeper! [/SLOW]Good? Yes.",
		"One.Two. Three!\n\n[PAUSE 1]\nFour [LOUD]five.",
	}
	for _, s := range scripts {
		a, b := Tokenize(s), Tokenize(s)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Expected identical output for %q", s)
		}
		for i := 1; i < len(a); i++ {
			if a[i].Line < a[i-1].Line {
				t.Errorf("Expected non-decreasing lines in %q, got %v", s, a)
				break
			}
		}
	}
}

func TestSegments_Boundaries(t *testing.T) {
	got := Segments("Hello.World. Done! [PAUSE 1.5] Really?  Yes")
	want := []string{"Hello.World.", "Done!", "[PAUSE 1.5]", "Really?", "Yes"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestSegments_LineIndexesMatchActions(t *testing.T) {
	script := "Close your eyes. ... [PAUSE 2] Breathe."
	lines := Segments(script)
	for _, a := range Tokenize(script) {
		if a.Line >= len(lines) {
			t.Fatalf("Action line %d out of range %q", a.Line, lines)
		}
	}
	if len(lines) != 3 {
		t.Errorf("Expected punctuation-only segment dropped, got %q", lines)
	}
}

func TestBinauralHints(t *testing.T) {
	got := BinauralHints("[BINAURAL: 4.5 Hz] Sink. [binaural 10hz] Rise. [BINAURAL] none.")
	want := []float64{4.5, 10}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

package speech

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseEspeakVoices(t *testing.T) {
	out := `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 2  en-gb           --/M      English_(Great_Britain) gmw/en            (en 2)
 2  en-us           --/M      English_(America)  gmw/en-US            (en 3)
`
	got := parseEspeakVoices(out)
	want := []Voice{
		{URI: "gmw/af", Name: "Afrikaans", Lang: "af"},
		{URI: "gmw/en", Name: "English (Great Britain)", Lang: "en-gb"},
		{URI: "gmw/en-US", Name: "English (America)", Lang: "en-us"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestParseSayVoices(t *testing.T) {
	out := `Alex                en_US    # Most people recognize me by my voice.
Bad News            en_US    # The light you see at the end of the tunnel is the headlamp of a fast approaching train.
Amelie              fr_CA    # Bonjour, je m’appelle Amelie.
garbage line
`
	got := parseSayVoices(out)
	if len(got) != 3 {
		t.Fatalf("Expected 3 voices, got %+v", got)
	}
	if got[1].Name != "Bad News" || got[1].Lang != "en-US" {
		t.Errorf("Expected multi-word name, got %+v", got[1])
	}
	if got[2].URI != "Amelie" || got[2].Lang != "fr-CA" {
		t.Errorf("Expected Amelie fr-CA, got %+v", got[2])
	}
}

func TestCommand_EspeakArgs(t *testing.T) {
	c := &Command{path: "/usr/bin/espeak-ng", flavor: "espeak"}
	u := Utterance{Text: "-starts with a dash", Rate: 0.5, Pitch: 1.3, Volume: 0.3, Voice: &Voice{URI: "gmw/en-US"}}
	got := strings.Join(c.args(u), " ")
	want := "--stdin -s 87 -p 65 -a 30 -v gmw/en-US"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if c.text(u) != u.Text {
		t.Errorf("Expected text on stdin unchanged, got %q", c.text(u))
	}
}

func TestCommand_SayEmbedsVolume(t *testing.T) {
	c := &Command{path: "/usr/bin/say", flavor: "say"}
	u := Utterance{Text: "Relax.", Rate: 1, Pitch: 1, Volume: 0.5}
	if got := strings.Join(c.args(u), " "); got != "-r 180" {
		t.Errorf("Expected -r 180, got %q", got)
	}
	if got := c.text(u); got != "[[volm 0.50]] [[pbas 50]] Relax." {
		t.Errorf("Expected embedded commands, got %q", got)
	}
}

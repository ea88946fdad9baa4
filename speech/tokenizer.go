package speech

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// tagPattern matches one bracket tag. Nested or unmatched brackets are not
// tags; stray bracket characters are stripped from spoken text instead.
var tagPattern = regexp.MustCompile(`\[[^\[\]]*\]`)

var hintNumber = regexp.MustCompile(`[0-9]*\.?[0-9]+`)

// Presets are the named emotional tones. Opening one replaces rate, pitch and
// volume; pan is left alone.
var Presets = map[string]Prosody{
	"CALM":          {Rate: 0.8, Pitch: 0.9, Volume: 0.8},
	"AUTHORITATIVE": {Rate: 1.0, Pitch: 0.8, Volume: 1.0},
	"NURTURING":     {Rate: 0.85, Pitch: 1.1, Volume: 0.7},
	"ENERGETIC":     {Rate: 1.2, Pitch: 1.2, Volume: 1.0},
	"DEFAULT":       {Rate: 1.0, Pitch: 1.0, Volume: 1.0},
}

// Prosody values set by the single-dimension tags.
const (
	SlowRate      = 0.7
	FastRate      = 1.3
	WhisperVolume = 0.3
	LoudVolume    = 1.0
	UpPitch       = 1.3
	DownPitch     = 0.8

	// DefaultPauseSeconds is used by a [PAUSE] tag without a usable number.
	DefaultPauseSeconds = 1.0
	// MaxPauseSeconds caps a single [PAUSE n].
	MaxPauseSeconds = 3600.0
)

// Tokenize turns a marked-up script into the ordered action list the driver
// walks. It is a pure function of its input.
func Tokenize(script string) []Action {
	var actions []Action
	cur := Neutral

	for line, seg := range Segments(script) {
		spoke := false
		for _, frag := range fragments(seg) {
			if frag.tag {
				if secs, ok := parsePause(frag.content); ok {
					actions = append(actions, Action{Kind: ExplicitPause, Duration: secs, Line: line})
					continue
				}
				cur = applyTag(cur, frag.content)
				continue
			}
			text := strings.TrimSpace(stripBrackets(frag.content))
			if !speakable(text) {
				continue
			}
			actions = append(actions, Action{Kind: Speak, Text: text, Prosody: cur, Line: line})
			spoke = true
		}
		if spoke {
			actions = append(actions, Action{Kind: ImplicitPause, Line: line})
		}
	}
	return actions
}

// Segments splits a script into the sentence-level lines a teleprompter
// shows. Action line indexes refer to positions in this slice.
//
// A sentence ends at a run of '.', '!' or '?' followed by whitespace or the
// end of the script, never inside a tag. A [PAUSE n] tag with nothing but
// whitespace before it in its sentence becomes a line of its own. Segments
// without any letters are dropped.
func Segments(script string) []string {
	spans := tagPattern.FindAllStringIndex(script, -1)
	var raw []string
	start, si, i := 0, 0, 0

	for i < len(script) {
		if si < len(spans) && i == spans[si][0] {
			end := spans[si][1]
			if _, ok := parsePause(tagContent(script[i:end])); ok && strings.TrimSpace(script[start:i]) == "" {
				raw = append(raw, script[start:end])
				start = end
			}
			i = end
			si++
			continue
		}
		if !isTerminal(script[i]) {
			i++
			continue
		}
		j := i
		for j < len(script) && isTerminal(script[j]) {
			j++
		}
		if j == len(script) || isSpace(script[j]) {
			end := j
			if end < len(script) {
				end++
			}
			raw = append(raw, script[start:end])
			start = end
			i = end
			continue
		}
		i = j
	}
	if start < len(script) {
		raw = append(raw, script[start:])
	}

	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if hasLetter(s) {
			segs = append(segs, s)
		}
	}
	return segs
}

// BinauralHints returns the frequencies named by [BINAURAL: X Hz] tags, in
// document order. The tokenizer itself ignores these tags.
func BinauralHints(script string) []float64 {
	var hints []float64
	for _, tag := range tagPattern.FindAllString(script, -1) {
		content := tagContent(tag)
		if !strings.HasPrefix(content, "BINAURAL") {
			continue
		}
		num := hintNumber.FindString(content[len("BINAURAL"):])
		if num == "" {
			continue
		}
		if f, err := strconv.ParseFloat(num, 64); err == nil {
			hints = append(hints, f)
		}
	}
	return hints
}

type fragment struct {
	tag     bool
	content string // normalized tag keyword, or raw text
}

func fragments(seg string) []fragment {
	var out []fragment
	last := 0
	for _, span := range tagPattern.FindAllStringIndex(seg, -1) {
		if span[0] > last {
			out = append(out, fragment{content: seg[last:span[0]]})
		}
		out = append(out, fragment{tag: true, content: tagContent(seg[span[0]:span[1]])})
		last = span[1]
	}
	if last < len(seg) {
		out = append(out, fragment{content: seg[last:]})
	}
	return out
}

// tagContent upper-cases a tag body and collapses its inner whitespace.
func tagContent(tag string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(tag, "["), "]")
	return strings.ToUpper(strings.Join(strings.Fields(inner), " "))
}

func parsePause(content string) (float64, bool) {
	if !strings.HasPrefix(content, "PAUSE") {
		return 0, false
	}
	rest := content[len("PAUSE"):]
	if rest != "" {
		switch c := rest[0]; {
		case c == ' ' || c == ':' || c == '.' || (c >= '0' && c <= '9'):
		default:
			return 0, false
		}
	}
	rest = strings.TrimSpace(strings.TrimLeft(rest, ": "))
	rest = strings.TrimSpace(strings.TrimRight(rest, "SECOND "))
	if rest == "" {
		return DefaultPauseSeconds, true
	}
	secs, err := strconv.ParseFloat(rest, 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return DefaultPauseSeconds, true
	}
	return math.Min(math.Max(secs, 0), MaxPauseSeconds), true
}

// applyTag returns the modifier state after a tag. Unknown tags change
// nothing.
func applyTag(p Prosody, content string) Prosody {
	switch content {
	case "SLOW":
		p.Rate = SlowRate
	case "FAST":
		p.Rate = FastRate
	case "WHISPER":
		p.Volume = WhisperVolume
	case "LOUD":
		p.Volume = LoudVolume
	case "UP":
		p.Pitch = UpPitch
	case "DOWN":
		p.Pitch = DownPitch
	case "LEFT":
		p.Pan = -1
	case "RIGHT":
		p.Pan = 1
	case "CENTER":
		p.Pan = 0
	case "/SLOW", "/FAST":
		p.Rate = Neutral.Rate
	case "/WHISPER", "/LOUD":
		p.Volume = Neutral.Volume
	case "/UP", "/DOWN":
		p.Pitch = Neutral.Pitch
	case "/LEFT", "/RIGHT", "/CENTER":
		p.Pan = Neutral.Pan
	case "/", "/CALM", "/AUTHORITATIVE", "/NURTURING", "/ENERGETIC", "/DEFAULT":
		def := Presets["DEFAULT"]
		p.Rate, p.Pitch, p.Volume = def.Rate, def.Pitch, def.Volume
	default:
		if tone, ok := Presets[content]; ok {
			p.Rate, p.Pitch, p.Volume = tone.Rate, tone.Pitch, tone.Volume
		}
	}
	return p
}

func stripBrackets(s string) string {
	if !strings.ContainsAny(s, "[]") {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == '[' || r == ']' {
			return -1
		}
		return r
	}, s)
}

func speakable(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isTerminal(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

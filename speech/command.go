package speech

import (
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/simukka/trance/sched"
)

// Base speaking rates in words per minute at Rate 1.
const (
	espeakBaseRate = 175
	sayBaseRate    = 180
)

// Command speaks through a local TTS command: espeak-ng or espeak on Linux,
// say on macOS. The process plays straight to the speaker.
type Command struct {
	path   string
	flavor string // "espeak" or "say"
	sched  sched.Scheduler
	logger *log.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	seq    uint64
	voices []Voice
	listed bool
}

// NewCommand finds a usable TTS command. Completions are posted to s.
func NewCommand(s sched.Scheduler, logger *log.Logger) (*Command, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	for _, name := range []string{"espeak-ng", "espeak", "say"} {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		flavor := "espeak"
		if name == "say" {
			flavor = "say"
		}
		return &Command{
			path:   path,
			flavor: flavor,
			sched:  s,
			logger: logger.WithPrefix("tts"),
		}, nil
	}
	return nil, fmt.Errorf("%w: no espeak-ng, espeak or say on PATH", ErrUnavailable)
}

// Name returns the command being run.
func (c *Command) Name() string { return filepath.Base(c.path) }

// Voices lists the command's voices. The list is read once.
func (c *Command) Voices() []Voice {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listed {
		return c.voices
	}
	c.listed = true

	var args []string
	if c.flavor == "say" {
		args = []string{"-v", "?"}
	} else {
		args = []string{"--voices"}
	}
	out, err := exec.Command(c.path, args...).Output()
	if err != nil {
		c.logger.Warn("list voices", "cmd", c.Name(), "err", err)
		return nil
	}
	if c.flavor == "say" {
		c.voices = parseSayVoices(string(out))
	} else {
		c.voices = parseEspeakVoices(string(out))
	}
	SortVoices(c.voices)
	return c.voices
}

func (c *Command) Speak(u Utterance, done func(error)) error {
	cmd := exec.Command(c.path, c.args(u)...)
	cmd.Stdin = strings.NewReader(c.text(u))

	c.mu.Lock()
	c.stopLocked()
	if err := cmd.Start(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("start %s: %w", c.Name(), err)
	}
	c.seq++
	my := c.seq
	c.cmd = cmd
	c.mu.Unlock()

	go func() {
		err := cmd.Wait()
		c.mu.Lock()
		current := c.seq == my
		if current {
			c.cmd = nil
		}
		c.mu.Unlock()
		if !current {
			return
		}
		if err != nil {
			err = fmt.Errorf("%s: %w", c.Name(), err)
		}
		sched.Post(c.sched, func() { done(err) })
	}()
	return nil
}

func (c *Command) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Command) stopLocked() {
	c.seq++
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	c.cmd = nil
}

func (c *Command) args(u Utterance) []string {
	if c.flavor == "say" {
		args := []string{"-r", strconv.Itoa(wordsPerMinute(sayBaseRate, u.Rate))}
		if u.Voice != nil {
			args = append(args, "-v", u.Voice.URI)
		}
		return args
	}
	args := []string{
		"--stdin",
		"-s", strconv.Itoa(wordsPerMinute(espeakBaseRate, u.Rate)),
		"-p", strconv.Itoa(clampInt(int(50*u.Pitch), 0, 99)),
		"-a", strconv.Itoa(clampInt(int(100*u.Volume), 0, 200)),
	}
	if u.Voice != nil {
		args = append(args, "-v", u.Voice.URI)
	}
	return args
}

// text embeds volume and pitch commands for say, which has no flags for them.
func (c *Command) text(u Utterance) string {
	if c.flavor != "say" {
		return u.Text
	}
	return fmt.Sprintf("[[volm %.2f]] [[pbas %d]] %s",
		clampFloat(u.Volume, 0, 1), clampInt(int(50*u.Pitch), 1, 127), u.Text)
}

func wordsPerMinute(base int, rate float64) int {
	if rate <= 0 {
		rate = 1
	}
	return clampInt(int(float64(base)*rate), 80, 450)
}

// parseEspeakVoices reads `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US            (en 3)
func parseEspeakVoices(out string) []Voice {
	var voices []Voice
	for i, line := range strings.Split(out, "\n") {
		f := strings.Fields(line)
		if i == 0 || len(f) < 5 {
			continue
		}
		voices = append(voices, Voice{
			URI:  f[4],
			Name: strings.ReplaceAll(f[3], "_", " "),
			Lang: f[1],
		})
	}
	return voices
}

var sayVoiceLine = regexp.MustCompile(`^(.+?)\s+([a-z]{2,3}[_-][A-Za-z0-9]+)\s+#`)

// parseSayVoices reads `say -v ?`:
//
//	Alex                en_US    # Most people recognize me by my voice.
func parseSayVoices(out string) []Voice {
	var voices []Voice
	for _, line := range strings.Split(out, "\n") {
		m := sayVoiceLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		voices = append(voices, Voice{
			URI:  name,
			Name: name,
			Lang: strings.ReplaceAll(m[2], "_", "-"),
		})
	}
	return voices
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

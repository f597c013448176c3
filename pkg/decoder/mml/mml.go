// Package mml parses Music Macro Language text (spec.md §6's grammar)
// into a sequence of notes and renders them as band-limited sine tones
// at the engine's internal sample rate. Nothing in the example pack
// carries an MML parser — this is a hand-written recursive scan over
// the token grammar spec.md §6 spells out letter-by-letter, kept in
// the same shape as pkg/decoder/aiff's chunk walk: one pass over the
// input building a flat event list, then a renderer that turns events
// into float32 samples on demand.
package mml

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/decoder"
	"github.com/ijakenorton/musac-go/pkg/iostream"
)

// renderRate is the fixed sample rate MML is synthesised at; the
// mixer's resampler handles conversion to the device's actual rate
// like any other native-rate decoder.
const renderRate = 44100

var errEmpty = errors.New("mml: no recognisable note or command letters found")

// Decoder implements decoder.Concrete for MML text.
type Decoder struct {
	events      []event
	cursor      int // sample cursor into the virtual rendered stream
	totalFrames int
}

type event struct {
	freq       float64 // 0 for a rest
	startFrame int
	numFrames  int
	volume     float32 // 0..1
}

// New is a decoder.Factory for mml.Decoder.
func New() decoder.Concrete { return &Decoder{} }

// Accept is intentionally permissive: per spec.md §9's open question,
// MML text is "mostly text" containing note and command letters, so
// any stream with a plausible density of MML tokens is accepted. This
// decoder must be registered at the lowest priority (spec.md §9) so it
// never hijacks a better-specified format.
func Accept(stream iostream.Stream) bool {
	buf := make([]byte, 4096)
	n := stream.Read(buf)
	if n == 0 {
		return false
	}
	text := string(buf[:n])
	return looksLikeMML(text)
}

func looksLikeMML(text string) bool {
	var tokenish, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		up := unicode.ToUpper(r)
		switch {
		case up >= 'A' && up <= 'G', up == 'R', up == 'P', up == 'O', up == 'T', up == 'L', up == 'V', up == 'M':
			tokenish++
		case unicode.IsDigit(r), r == '.', r == '#', r == '+', r == '-', r == '<', r == '>':
			tokenish++
		}
	}
	if total == 0 {
		return false
	}
	return float64(tokenish)/float64(total) > 0.6
}

// noteSemitone maps a note letter to its semitone offset from C within
// an octave, per standard Western note naming.
var noteSemitone = map[rune]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

func (d *Decoder) Open(stream iostream.Stream) error {
	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n := stream.Read(buf)
		if n == 0 {
			break
		}
		sb.Write(buf[:n])
	}
	text := sb.String()
	if !looksLikeMML(text) {
		return errEmpty
	}

	p := &parser{
		src:         []rune(strings.ToUpper(text)),
		octave:      3, // spec.md §6: middle C starts octave 3
		tempo:       120,
		defaultLen:  4,
		volume:      15,
		articulation: articNormal,
	}
	p.run()

	d.events = p.events
	d.totalFrames = p.cursorFrame
	for _, e := range d.events {
		end := e.startFrame + e.numFrames
		if end > d.totalFrames {
			d.totalFrames = end
		}
	}
	d.cursor = 0
	return nil
}

type articulation int

const (
	articLegato articulation = iota
	articNormal
	articStaccato
)

type parser struct {
	src          []rune
	pos          int
	octave       int
	tempo        int
	defaultLen   int
	volume       int
	articulation articulation
	cursorFrame  int
	events       []event
}

func (p *parser) run() {
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		switch {
		case unicode.IsSpace(r):
			p.pos++
		case r >= 'A' && r <= 'G':
			p.parseNote(r)
		case r == 'R' || r == 'P':
			p.pos++
			p.parseRest()
		case r == 'O':
			p.pos++
			p.octave = p.parseInt(3)
		case r == '<':
			p.pos++
			if p.octave > 0 {
				p.octave--
			}
		case r == '>':
			p.pos++
			if p.octave < 6 {
				p.octave++
			}
		case r == 'T':
			p.pos++
			p.tempo = p.parseInt(120)
		case r == 'L':
			p.pos++
			p.defaultLen = p.parseInt(4)
		case r == 'V':
			p.pos++
			p.volume = p.parseInt(15)
		case r == 'M':
			p.pos++
			p.parseArticulation()
		default:
			p.pos++ // unrecognised character: warning in non-strict mode, skipped
		}
	}
}

func (p *parser) parseArticulation() {
	if p.pos >= len(p.src) {
		return
	}
	switch p.src[p.pos] {
	case 'L':
		p.articulation = articLegato
	case 'N':
		p.articulation = articNormal
	case 'S':
		p.articulation = articStaccato
	default:
		return
	}
	p.pos++
}

func (p *parser) parseNote(letter rune) {
	p.pos++
	semitone := noteSemitone[letter]
	if p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '#', '+':
			semitone++
			p.pos++
		case '-':
			semitone--
			p.pos++
		}
	}
	length, dots := p.parseLengthAndDots()
	freq := noteFrequency(p.octave, semitone)
	p.emit(freq, length, dots)
}

func (p *parser) parseRest() {
	length, dots := p.parseLengthAndDots()
	p.emit(0, length, dots)
}

func (p *parser) parseLengthAndDots() (int, int) {
	length := 0
	if p.pos < len(p.src) && unicode.IsDigit(p.src[p.pos]) {
		length = p.parseInt(p.defaultLen)
	} else {
		length = p.defaultLen
	}
	dots := 0
	for p.pos < len(p.src) && p.src[p.pos] == '.' {
		dots++
		p.pos++
	}
	return length, dots
}

func (p *parser) parseInt(def int) int {
	start := p.pos
	for p.pos < len(p.src) && unicode.IsDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return def
	}
	n := 0
	for _, r := range p.src[start:p.pos] {
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return def
	}
	return n
}

// emit appends one note/rest event and advances the parser's virtual
// time cursor. Note duration in whole-note fractions follows standard
// MML semantics: a length of N means a 1/N whole note at the current
// tempo, extended by dots the usual way (each dot adds half of the
// previous increment).
func (p *parser) emit(freq float64, length, dots int) {
	if length <= 0 {
		length = p.defaultLen
	}
	secondsPerWhole := 240.0 / float64(p.tempo) // 4 beats per whole note
	dur := secondsPerWhole / float64(length)
	extra := dur / 2
	for i := 0; i < dots; i++ {
		dur += extra
		extra /= 2
	}
	frames := int(dur * renderRate)

	sounding := frames
	switch p.articulation {
	case articNormal:
		sounding = frames * 7 / 8
	case articStaccato:
		sounding = frames * 3 / 4
	}
	if freq > 0 {
		p.events = append(p.events, event{
			freq:       freq,
			startFrame: p.cursorFrame,
			numFrames:  sounding,
			volume:     float32(p.volume) / 15.0,
		})
	}
	p.cursorFrame += frames
}

// noteFrequency computes equal-tempered frequency for a note at the
// given octave/semitone-from-C, with A4 = 440 Hz and middle C as the
// start of octave 3 (spec.md §6).
func noteFrequency(octave, semitoneFromC int) float64 {
	// MIDI-style numbering: octave 3's C sits 9 semitones below A4
	// once middle-C-as-octave-3 is accounted for.
	// semitonesFromA4 counts (octave-4)*12 + (semitoneFromC-9) relative
	// to A, then shifted by +12 because middle C (octave 3) plays the
	// role octave 4 holds in standard MIDI/scientific pitch notation.
	semitonesFromA4 := (octave-3)*12 + semitoneFromC - 9
	return 440.0 * math.Pow(2, float64(semitonesFromA4)/12.0)
}

func (d *Decoder) Channels() audiospec.Channels { return audiospec.Mono }
func (d *Decoder) Rate() audiospec.Rate { return renderRate }

func (d *Decoder) Duration() time.Duration {
	return time.Duration(d.totalFrames) * time.Second / renderRate
}

func (d *Decoder) Rewind() bool {
	d.cursor = 0
	return true
}

func (d *Decoder) SeekToTime(pos time.Duration) bool {
	idx := int(pos.Seconds() * renderRate)
	if idx < 0 {
		idx = 0
	}
	if idx > d.totalFrames {
		idx = d.totalFrames
	}
	d.cursor = idx
	return true
}

func (d *Decoder) DoDecode(buf []float32, callAgain *bool) int {
	n := 0
	for n < len(buf) && d.cursor < d.totalFrames {
		buf[n] = d.sampleAt(d.cursor)
		d.cursor++
		n++
	}
	*callAgain = d.cursor < d.totalFrames
	return n
}

// sampleAt sums every event sounding at frame, a simple additive
// synthesis appropriate for the monophonic-in-practice MML streams
// spec.md §6 describes (concurrent voices are rare but not
// disallowed by the grammar).
func (d *Decoder) sampleAt(frame int) float32 {
	var sum float32
	for _, e := range d.events {
		if frame < e.startFrame || frame >= e.startFrame+e.numFrames {
			continue
		}
		t := float64(frame-e.startFrame) / renderRate
		sum += e.volume * float32(math.Sin(2*math.Pi*e.freq*t))
	}
	if sum > 1 {
		sum = 1
	}
	if sum < -1 {
		sum = -1
	}
	return sum
}

// Package mp3 decodes MPEG-1/2 Layer III streams via
// github.com/hajimehoshi/go-mp3, the same pure-Go MP3 decoder the
// pack carries (_examples/other_examples' sukus21/go-mp3 is a fork of
// it). That library always emits 16-bit little-endian stereo PCM
// regardless of the source channel count — its own upstream upmix —
// so this decoder reports Stereo unconditionally and leans on
// pkg/sampleformat for the S16LE-to-float conversion instead of
// hand-rolling it, the same division of labour decoder/wav uses for
// github.com/go-audio/wav. Like wav, this eagerly drains the decoder
// into an in-memory float buffer on Open rather than re-entering the
// upstream decoder per DoDecode call.
package mp3

import (
	"io"
	"time"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ijakenorton/musac-go/internal/muserr"
	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/decoder"
	"github.com/ijakenorton/musac-go/pkg/iostream"
	"github.com/ijakenorton/musac-go/pkg/sampleformat"
)

// Decoder implements decoder.Concrete for MPEG Layer III streams.
type Decoder struct {
	rate    audiospec.Rate
	samples []float32 // interleaved stereo, [-1.0, 1.0]
	cursor  int
}

// New is a decoder.Factory for mp3.Decoder.
func New() decoder.Concrete { return &Decoder{} }

type streamReader struct {
	s iostream.Stream
}

func (r streamReader) Read(p []byte) (int, error) {
	n := r.s.Read(p)
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Accept sniffs either an ID3v2 tag or a raw MPEG frame sync (11 set
// bits) at the start of the stream, spec.md §4.C.
func Accept(stream iostream.Stream) bool {
	var header [3]byte
	n := stream.Read(header[:])
	if n < 2 {
		return false
	}
	if n == 3 && header[0] == 'I' && header[1] == 'D' && header[2] == '3' {
		return true
	}
	return header[0] == 0xFF && header[1]&0xE0 == 0xE0
}

func (d *Decoder) Open(stream iostream.Stream) error {
	dec, err := gomp3.NewDecoder(streamReader{s: stream})
	if err != nil {
		return muserr.New(muserr.KindDecoder, "mp3.open", err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return muserr.New(muserr.KindCodec, "mp3.open", err)
	}

	d.rate = audiospec.Rate(dec.SampleRate())
	sampleCount := len(pcm) / 2
	d.samples = make([]float32, sampleCount)
	sampleformat.ToFloat(d.samples, pcm, sampleCount, audiospec.FormatS16LE)
	d.cursor = 0
	return nil
}

func (d *Decoder) Channels() audiospec.Channels { return audiospec.Stereo }
func (d *Decoder) Rate() audiospec.Rate { return d.rate }

func (d *Decoder) Duration() time.Duration {
	if d.rate == 0 {
		return 0
	}
	frames := len(d.samples) / int(audiospec.Stereo)
	return time.Duration(frames) * time.Second / time.Duration(d.rate)
}

func (d *Decoder) Rewind() bool {
	d.cursor = 0
	return true
}

func (d *Decoder) SeekToTime(pos time.Duration) bool {
	if d.rate == 0 {
		return false
	}
	frame := int(pos.Seconds() * float64(d.rate))
	idx := frame * int(audiospec.Stereo)
	if idx < 0 {
		idx = 0
	}
	if idx > len(d.samples) {
		idx = len(d.samples)
	}
	d.cursor = idx
	return true
}

func (d *Decoder) DoDecode(buf []float32, callAgain *bool) int {
	n := copy(buf, d.samples[d.cursor:])
	d.cursor += n
	*callAgain = d.cursor < len(d.samples)
	return n
}

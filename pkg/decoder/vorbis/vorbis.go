// Package vorbis decodes Ogg Vorbis streams via
// github.com/jfreymuth/oggvorbis, a dependency the pack carries
// through several consumers (_examples/other_examples' Klopsch-engo
// and drgolem-musictools manifests both pull it in). Unlike the PCM
// codecs this module wraps elsewhere, oggvorbis.Reader.Read already
// writes normalized float32 samples directly — no sampleformat
// conversion step is needed, just the same eager-drain-to-memory
// shape decoder/wav and decoder/mp3 use.
package vorbis

import (
	"io"
	"time"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ijakenorton/musac-go/internal/muserr"
	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/decoder"
	"github.com/ijakenorton/musac-go/pkg/iostream"
)

// Decoder implements decoder.Concrete for Ogg Vorbis streams.
type Decoder struct {
	rate     audiospec.Rate
	channels audiospec.Channels
	samples  []float32 // interleaved native-channel, [-1.0, 1.0]
	cursor   int
}

// New is a decoder.Factory for vorbis.Decoder.
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

// Accept sniffs the 4-byte "OggS" capture pattern, spec.md §4.C.
func Accept(stream iostream.Stream) bool {
	var header [4]byte
	n := stream.Read(header[:])
	return n == 4 && string(header[:]) == "OggS"
}

func (d *Decoder) Open(stream iostream.Stream) error {
	r, err := oggvorbis.NewReader(streamReader{s: stream})
	if err != nil {
		return muserr.New(muserr.KindDecoder, "vorbis.open", err)
	}

	d.rate = audiospec.Rate(r.SampleRate())
	d.channels = audiospec.Mono
	if r.Channels() > 1 {
		d.channels = audiospec.Stereo
	}

	chunk := make([]float32, 4096*r.Channels())
	for {
		n, readErr := r.Read(chunk)
		d.samples = append(d.samples, chunk[:n]...)
		if readErr != nil {
			break
		}
	}
	d.cursor = 0
	return nil
}

func (d *Decoder) Channels() audiospec.Channels { return d.channels }
func (d *Decoder) Rate() audiospec.Rate { return d.rate }

func (d *Decoder) Duration() time.Duration {
	if d.rate == 0 || d.channels == 0 {
		return 0
	}
	frames := len(d.samples) / int(d.channels)
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
	idx := frame * int(d.channels)
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

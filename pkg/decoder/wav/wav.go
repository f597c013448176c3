// Package wav decodes RIFF/WAVE PCM data via github.com/go-audio/wav,
// grounded directly on the teacher's FileAudioInputDevice
// (pkg/audiodevice/device/filedevice.go): same wav.NewDecoder +
// IsValidFile accept check, same eager FullPCMBuffer load. The
// teacher always loads the whole file up front before streaming it
// out over a channel; this decoder keeps that eager-load shape and
// serves DoDecode calls from the resulting in-memory float buffer
// instead of re-reading the stream per callback.
package wav

import (
	"io"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/decoder"
	"github.com/ijakenorton/musac-go/pkg/iostream"
)

// Decoder implements decoder.Concrete for RIFF/WAVE PCM files.
type Decoder struct {
	channels audiospec.Channels
	rate     audiospec.Rate
	samples  []float32 // native-channel interleaved, [-1.0, 1.0]
	cursor   int
}

// New is a decoder.Factory for wav.Decoder.
func New() decoder.Concrete { return &Decoder{} }

// Accept sniffs the RIFF/WAVE magic without constructing a decoder,
// for registry.Register (spec.md §4.C).
func Accept(stream iostream.Stream) bool {
	var header [12]byte
	n := stream.Read(header[:])
	if n < 12 {
		return false
	}
	return string(header[0:4]) == "RIFF" && string(header[8:12]) == "WAVE"
}

type streamReadSeeker struct {
	s iostream.Stream
}

func (r streamReadSeeker) Read(p []byte) (int, error) {
	n := r.s.Read(p)
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (r streamReadSeeker) Seek(offset int64, whence int) (int64, error) {
	var origin iostream.SeekOrigin
	switch whence {
	case io.SeekStart:
		origin = iostream.SeekStart
	case io.SeekCurrent:
		origin = iostream.SeekCurrent
	case io.SeekEnd:
		origin = iostream.SeekEnd
	}
	pos := r.s.Seek(offset, origin)
	if pos < 0 {
		return 0, io.ErrUnexpectedEOF
	}
	return pos, nil
}

func (d *Decoder) Open(stream iostream.Stream) error {
	rs := streamReadSeeker{s: stream}
	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return dec.Err()
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return err
	}

	d.channels = audiospec.Channels(dec.NumChans)
	if d.channels != audiospec.Mono {
		d.channels = audiospec.Stereo
	}
	d.rate = audiospec.Rate(dec.SampleRate)
	d.samples = intBufferToFloat(buf)
	d.cursor = 0
	return nil
}

func intBufferToFloat(buf *goaudio.IntBuffer) []float32 {
	out := make([]float32, len(buf.Data))
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	maxPos := float32(int64(1)<<(bitDepth-1) - 1)
	maxNeg := float32(int64(1) << (bitDepth - 1))
	for i, v := range buf.Data {
		if v >= 0 {
			out[i] = float32(v) / maxPos
		} else {
			out[i] = float32(v) / maxNeg
		}
	}
	return out
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

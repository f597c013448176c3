// Package flac decodes FLAC streams via github.com/drgolem/go-flac,
// same cgo/libFLAC wrapper the rest of the example pack carries. That
// library only opens files by path (FlacDecoder.Open(filePath
// string)), not an io.Reader, so this decoder spills the incoming
// iostream.Stream to a temp file on Open and lets libFLAC read it back
// from disk — the same "materialize to a real file first" shape the
// teacher's own file-based devices use, just forced here by the
// upstream API rather than chosen.
//
// Like pkg/backend/rtaudio, this package needs cgo and the libFLAC C
// library to actually link; it is gated the same way and is exercised
// by neither the teacher nor this module's tests for the same reason.
//go:build cgo

package flac

import (
	"errors"
	"io"
	"os"
	"time"

	goflac "github.com/drgolem/go-flac/flac"

	"github.com/ijakenorton/musac-go/internal/muserr"
	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/decoder"
	"github.com/ijakenorton/musac-go/pkg/iostream"
)

var errNotFLAC = errors.New("flac: stream does not start with \"fLaC\"")

// Decoder implements decoder.Concrete for FLAC streams.
type Decoder struct {
	dec       *goflac.FlacDecoder
	tmpPath   string
	channels  audiospec.Channels
	rate      audiospec.Rate
	bitDepth  int
	bytesPer  int
	totalSamp int64
}

// New is a decoder.Factory for flac.Decoder.
func New() decoder.Concrete { return &Decoder{} }

// Accept sniffs the 4-byte "fLaC" magic (spec.md §4.C).
func Accept(stream iostream.Stream) bool {
	var header [4]byte
	n := stream.Read(header[:])
	return n == 4 && string(header[:]) == "fLaC"
}

func (d *Decoder) Open(stream iostream.Stream) error {
	var magic [4]byte
	if n := stream.Read(magic[:]); n != 4 || string(magic[:]) != "fLaC" {
		return muserr.New(muserr.KindDecoder, "flac.open", errNotFLAC)
	}

	tmp, err := os.CreateTemp("", "musac-go-flac-*.flac")
	if err != nil {
		return muserr.New(muserr.KindResource, "flac.open", err)
	}
	defer tmp.Close()

	if _, err := tmp.Write(magic[:]); err != nil {
		os.Remove(tmp.Name())
		return muserr.New(muserr.KindIO, "flac.open", err)
	}
	buf := make([]byte, 64*1024)
	for {
		n := stream.Read(buf)
		if n == 0 {
			break
		}
		if _, err := tmp.Write(buf[:n]); err != nil {
			os.Remove(tmp.Name())
			return muserr.New(muserr.KindIO, "flac.open", err)
		}
	}

	dec, err := goflac.NewFlacFrameDecoder(16)
	if err != nil {
		os.Remove(tmp.Name())
		return muserr.New(muserr.KindDecoder, "flac.open", err)
	}
	if err := dec.Open(tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		return muserr.New(muserr.KindDecoder, "flac.open", err)
	}

	rate, channels, bitDepth := dec.GetFormat()
	d.dec = dec
	d.tmpPath = tmp.Name()
	d.rate = audiospec.Rate(rate)
	d.channels = audiospec.Mono
	if channels > 1 {
		d.channels = audiospec.Stereo
	}
	d.bitDepth = 16
	d.bytesPer = 2
	d.totalSamp = dec.TotalSamples()
	_ = bitDepth // native bit depth; output is fixed at 16 via NewFlacFrameDecoder above
	return nil
}

func (d *Decoder) Channels() audiospec.Channels { return d.channels }
func (d *Decoder) Rate() audiospec.Rate { return d.rate }

func (d *Decoder) Duration() time.Duration {
	if d.rate == 0 {
		return 0
	}
	return time.Duration(d.totalSamp) * time.Second / time.Duration(d.rate)
}

func (d *Decoder) Rewind() bool {
	if d.dec == nil {
		return false
	}
	_, err := d.dec.Seek(0, io.SeekStart)
	return err == nil
}

func (d *Decoder) SeekToTime(pos time.Duration) bool {
	if d.dec == nil || d.rate == 0 {
		return false
	}
	sample := int64(pos.Seconds() * float64(d.rate))
	_, err := d.dec.Seek(sample, io.SeekStart)
	return err == nil
}

func (d *Decoder) DoDecode(buf []float32, callAgain *bool) int {
	if d.dec == nil {
		*callAgain = false
		return 0
	}
	frames := len(buf) / int(d.channels)
	if frames <= 0 {
		*callAgain = false
		return 0
	}
	raw := make([]byte, frames*int(d.channels)*d.bytesPer)
	n, err := d.dec.DecodeSamples(frames, raw)

	for i := 0; i < n*int(d.channels); i++ {
		lo := raw[i*2]
		hi := raw[i*2+1]
		v := int16(uint16(lo) | uint16(hi)<<8)
		if v >= 0 {
			buf[i] = float32(v) / 32767.0
		} else {
			buf[i] = float32(v) / 32768.0
		}
	}

	*callAgain = err == nil && n > 0
	return n * int(d.channels)
}

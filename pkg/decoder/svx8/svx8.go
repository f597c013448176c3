// Package svx8 decodes uncompressed Amiga 8SVX sampled-sound files
// (FORM/8SVX), an IFF sibling of pkg/decoder/aiff. 8SVX is always
// mono, signed 8-bit PCM; spec.md §6 scopes this decoder to the
// uncompressed case only (the format's optional Fibonacci-delta
// compression is out of scope).
package svx8

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/ijakenorton/musac-go/internal/muserr"
	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/decoder"
	"github.com/ijakenorton/musac-go/pkg/iostream"
	"github.com/ijakenorton/musac-go/pkg/sampleformat"
)

var (
	errShortHeader   = errors.New("svx8: stream too short for a FORM header")
	errNot8SVX       = errors.New("svx8: not a FORM/8SVX stream")
	errMissingChunks = errors.New("svx8: missing VHDR or BODY chunk")
	errCompressed    = errors.New("svx8: compressed 8SVX (Fibonacci-delta) not supported")
)

// Decoder implements decoder.Concrete for uncompressed 8SVX files.
type Decoder struct {
	rate    audiospec.Rate
	samples []float32
	cursor  int
}

// New is a decoder.Factory for svx8.Decoder.
func New() decoder.Concrete { return &Decoder{} }

// Accept sniffs the FORM/8SVX magic (spec.md §4.C).
func Accept(stream iostream.Stream) bool {
	var header [12]byte
	n := stream.Read(header[:])
	if n < 12 {
		return false
	}
	return string(header[0:4]) == "FORM" && string(header[8:12]) == "8SVX"
}

func (d *Decoder) Open(stream iostream.Stream) error {
	var formHdr [12]byte
	if n := stream.Read(formHdr[:]); n < 12 {
		return muserr.New(muserr.KindDecoder, "svx8.open", errShortHeader)
	}
	if string(formHdr[0:4]) != "FORM" || string(formHdr[8:12]) != "8SVX" {
		return muserr.New(muserr.KindDecoder, "svx8.open", errNot8SVX)
	}

	var (
		haveVHDR   bool
		sampleRate uint16
		compType   byte
		body       []byte
	)

	for {
		var hdr [8]byte
		if n := stream.Read(hdr[:]); n < 8 {
			break
		}
		id := string(hdr[0:4])
		size := int64(binary.BigEndian.Uint32(hdr[4:8]))
		padded := size
		if size%2 == 1 {
			padded++
		}

		switch id {
		case "VHDR":
			chunk := make([]byte, size)
			stream.Read(chunk)
			if len(chunk) >= 14 {
				sampleRate = binary.BigEndian.Uint16(chunk[12:14])
			}
			if len(chunk) >= 15 {
				compType = chunk[14]
			}
			haveVHDR = true
			if extra := padded - size; extra > 0 {
				discard := make([]byte, extra)
				stream.Read(discard)
			}

		case "BODY":
			body = make([]byte, size)
			if n := stream.Read(body); int64(n) < size {
				body = body[:n]
			}
			if extra := padded - size; extra > 0 {
				discard := make([]byte, extra)
				stream.Read(discard)
			}

		default:
			discard := make([]byte, padded)
			stream.Read(discard)
		}
	}

	if !haveVHDR || body == nil {
		return muserr.New(muserr.KindDecoder, "svx8.open", errMissingChunks)
	}
	if compType != 0 {
		return muserr.New(muserr.KindCodec, "svx8.open", errCompressed)
	}

	out := make([]float32, len(body))
	sampleformat.ToFloat(out, body, len(body), audiospec.FormatS8)

	d.rate = audiospec.Rate(sampleRate)
	d.samples = out
	d.cursor = 0
	return nil
}

func (d *Decoder) Channels() audiospec.Channels { return audiospec.Mono }
func (d *Decoder) Rate() audiospec.Rate { return d.rate }

func (d *Decoder) Duration() time.Duration {
	if d.rate == 0 {
		return 0
	}
	return time.Duration(len(d.samples)) * time.Second / time.Duration(d.rate)
}

func (d *Decoder) Rewind() bool {
	d.cursor = 0
	return true
}

func (d *Decoder) SeekToTime(pos time.Duration) bool {
	if d.rate == 0 {
		return false
	}
	idx := int(pos.Seconds() * float64(d.rate))
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

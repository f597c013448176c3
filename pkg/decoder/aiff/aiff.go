// Package aiff decodes AIFF and AIFF-C (FORM/AIFF and FORM/AIFC) audio,
// hand-rolled directly against the IFF chunk layout since nothing in
// the example pack carries an AIFF library the way go-audio/wav covers
// WAV. It follows the same shape as pkg/decoder/wav: sniff the magic,
// eagerly load every sample into a float32 slice on Open, then serve
// DoDecode from that slice. Sample-format conversion is delegated to
// pkg/sampleformat so the int-to-float scaling rules stay in one place
// across every PCM-based decoder.
package aiff

import (
	"encoding/binary"
	"errors"
	"math"
	"time"

	"github.com/ijakenorton/musac-go/internal/g711"
	"github.com/ijakenorton/musac-go/internal/muserr"
	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/decoder"
	"github.com/ijakenorton/musac-go/pkg/iostream"
	"github.com/ijakenorton/musac-go/pkg/sampleformat"
)

var (
	errShortHeader         = errors.New("aiff: stream too short for a FORM header")
	errNotAIFF             = errors.New("aiff: not a FORM/AIFF or FORM/AIFC stream")
	errTruncated           = errors.New("aiff: chunk truncated")
	errMissingChunks       = errors.New("aiff: missing COMM or SSND chunk")
	errIMA4Unsupported     = errors.New("aiff: ima4 ADPCM compression not supported")
	errUnknownCompression  = errors.New("aiff: unknown AIFF-C compression type")
	errUnsupportedBitDepth = errors.New("aiff: unsupported PCM bit depth")
)

// compression identifies the AIFF-C COMM chunk's compressionType field.
// NONE is also how plain (non-C) AIFF is represented internally.
type compression string

const (
	compNone compression = "NONE"
	compSowt compression = "sowt"
	compFl32 compression = "fl32"
	compFl64 compression = "fl64"
	compUlaw compression = "ULAW"
	compAlaw compression = "ALAW"
	compIma4 compression = "ima4"
)

// Decoder implements decoder.Concrete for AIFF/AIFF-C.
type Decoder struct {
	channels audiospec.Channels
	rate     audiospec.Rate
	samples  []float32
	cursor   int
}

// New is a decoder.Factory for aiff.Decoder.
func New() decoder.Concrete { return &Decoder{} }

// Accept sniffs the FORM/AIFF or FORM/AIFC magic (spec.md §4.C).
func Accept(stream iostream.Stream) bool {
	var header [12]byte
	n := stream.Read(header[:])
	if n < 12 {
		return false
	}
	if string(header[0:4]) != "FORM" {
		return false
	}
	formType := string(header[8:12])
	return formType == "AIFF" || formType == "AIFC"
}

type chunkHeader struct {
	id   string
	size uint32
}

func readChunkHeader(stream iostream.Stream) (chunkHeader, bool) {
	var hdr [8]byte
	if n := stream.Read(hdr[:]); n < 8 {
		return chunkHeader{}, false
	}
	return chunkHeader{id: string(hdr[0:4]), size: binary.BigEndian.Uint32(hdr[4:8])}, true
}

// extendedToUint converts an 80-bit IEEE 754 extended-precision float
// (AIFF's COMM.sampleRate encoding) to a plain sample-rate integer.
func extendedToUint(b [10]byte) uint32 {
	sign := b[0] & 0x80
	exponent := (uint16(b[0]&0x7f) << 8) | uint16(b[1])
	mantissa := binary.BigEndian.Uint64(b[2:10])
	if sign != 0 || exponent == 0 {
		return 0
	}
	shift := 16383 + 63 - int(exponent)
	if shift < 0 || shift > 63 {
		return 0
	}
	return uint32(mantissa >> uint(shift))
}

func (d *Decoder) Open(stream iostream.Stream) error {
	var formHdr [12]byte
	if n := stream.Read(formHdr[:]); n < 12 {
		return muserr.New(muserr.KindDecoder, "aiff.open", errShortHeader)
	}
	if string(formHdr[0:4]) != "FORM" {
		return muserr.New(muserr.KindDecoder, "aiff.open", errNotAIFF)
	}
	formType := string(formHdr[8:12])
	if formType != "AIFF" && formType != "AIFC" {
		return muserr.New(muserr.KindDecoder, "aiff.open", errNotAIFF)
	}

	var (
		haveCOMM    bool
		numChannels uint16
		sampleRate  uint32
		bitDepth    uint16
		comp        compression = compNone
		sampleBytes []byte
	)

	for {
		hdr, ok := readChunkHeader(stream)
		if !ok {
			break
		}
		size := int64(hdr.size)
		if hdr.size%2 == 1 {
			size++ // chunks are word-padded
		}

		switch hdr.id {
		case "COMM":
			body := make([]byte, hdr.size)
			if n := stream.Read(body); int64(n) < int64(hdr.size) {
				return muserr.New(muserr.KindDecoder, "aiff.open", errTruncated)
			}
			if len(body) < 18 {
				return muserr.New(muserr.KindDecoder, "aiff.open", errTruncated)
			}
			numChannels = binary.BigEndian.Uint16(body[0:2])
			bitDepth = binary.BigEndian.Uint16(body[6:8])
			var ext [10]byte
			copy(ext[:], body[8:18])
			sampleRate = extendedToUint(ext)
			if formType == "AIFC" && len(body) >= 22 {
				comp = compression(body[18:22])
			}
			haveCOMM = true
			if remainder := size - int64(hdr.size); remainder > 0 {
				discard := make([]byte, remainder)
				stream.Read(discard)
			}

		case "SSND":
			if hdr.size < 8 {
				return muserr.New(muserr.KindDecoder, "aiff.open", errTruncated)
			}
			var offsetBlock [8]byte
			stream.Read(offsetBlock[:])
			dataSize := int64(hdr.size) - 8
			sampleBytes = make([]byte, dataSize)
			if n := stream.Read(sampleBytes); int64(n) < dataSize {
				sampleBytes = sampleBytes[:n]
			}
			if remainder := size - int64(hdr.size); remainder > 0 {
				discard := make([]byte, remainder)
				stream.Read(discard)
			}

		default:
			discard := make([]byte, size)
			if n := stream.Read(discard); int64(n) < size {
				break
			}
		}
	}

	if !haveCOMM || sampleBytes == nil {
		return muserr.New(muserr.KindDecoder, "aiff.open", errMissingChunks)
	}

	samples, err := decodeSamples(sampleBytes, bitDepth, comp)
	if err != nil {
		return muserr.New(muserr.KindCodec, "aiff.open", err)
	}

	d.channels = audiospec.Mono
	if numChannels > 1 {
		d.channels = audiospec.Stereo
	}
	d.rate = audiospec.Rate(sampleRate)
	d.samples = samples
	d.cursor = 0
	return nil
}

// decodeSamples converts raw SSND bytes to float32 per the COMM
// chunk's announced compression type. AIFF's native PCM is big-endian;
// sowt is its little-endian twin, bundled by many encoders so 16-bit
// data can be memcpy'd on little-endian hosts.
func decodeSamples(raw []byte, bitDepth uint16, comp compression) ([]float32, error) {
	switch comp {
	case compNone, "":
		return pcmToFloat(raw, bitDepth, true)
	case compSowt:
		return pcmToFloat(raw, bitDepth, false)
	case compFl32:
		out := make([]float32, len(raw)/4)
		sampleformat.ToFloat(out, raw, len(out), audiospec.FormatF32BE)
		return out, nil
	case compFl64:
		out := make([]float32, len(raw)/8)
		for i := range out {
			bits := binary.BigEndian.Uint64(raw[i*8 : i*8+8])
			out[i] = float32(math.Float64frombits(bits))
		}
		return out, nil
	case compUlaw:
		out := make([]float32, len(raw))
		for i, b := range raw {
			out[i] = g711.ULawToFloat(b)
		}
		return out, nil
	case compAlaw:
		out := make([]float32, len(raw))
		for i, b := range raw {
			out[i] = g711.ALawToFloat(b)
		}
		return out, nil
	case compIma4:
		return nil, errIMA4Unsupported
	default:
		return nil, errUnknownCompression
	}
}

func pcmToFloat(raw []byte, bitDepth uint16, bigEndian bool) ([]float32, error) {
	var format audiospec.Format
	switch bitDepth {
	case 8:
		format = audiospec.FormatS8
	case 16:
		if bigEndian {
			format = audiospec.FormatS16BE
		} else {
			format = audiospec.FormatS16LE
		}
	case 32:
		if bigEndian {
			format = audiospec.FormatS32BE
		} else {
			format = audiospec.FormatS32LE
		}
	default:
		return nil, errUnsupportedBitDepth
	}
	stride := format.BytesPerSample()
	count := len(raw) / stride
	out := make([]float32, count)
	sampleformat.ToFloat(out, raw, count, format)
	return out, nil
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

// Package voc decodes Creative Voice files (VOC). spec.md §6 scopes
// this decoder to PCM u8/s16le and the two G.711 companded blocks
// (A-law/µ-law, via the internal/g711 expansion pkg/decoder/aiff also
// uses); the three
// Creative ADPCM block types (4-bit, 2.6-bit, 2-bit) are recognised by
// block type but rejected with codec_error rather than decoded, since
// Creative's ADPCM variant is undocumented outside the original
// Sound Blaster driver source.
package voc

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/ijakenorton/musac-go/internal/g711"
	"github.com/ijakenorton/musac-go/internal/muserr"
	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/decoder"
	"github.com/ijakenorton/musac-go/pkg/iostream"
	"github.com/ijakenorton/musac-go/pkg/sampleformat"
)

const magic = "Creative Voice File\x1a"

var (
	errShortHeader  = errors.New("voc: stream too short for a VOC header")
	errBadMagic     = errors.New("voc: missing \"Creative Voice File\" magic")
	errNoAudioData  = errors.New("voc: no sound-data blocks found")
	errADPCM        = errors.New("voc: Creative ADPCM compression not supported")
	errUnknownCodec = errors.New("voc: unrecognised sound-data codec id")
)

const (
	blockTerminator    = 0x00
	blockSoundData     = 0x01
	blockSoundContinue = 0x02
	blockSilence       = 0x03
	blockMarker        = 0x04
	blockText          = 0x05
	blockRepeatStart   = 0x06
	blockRepeatEnd     = 0x07
	blockExtraInfo     = 0x08
	blockSoundData16   = 0x09
)

// codec ids as they appear in a type-0x01 block's codec byte.
const (
	codecPCM8   = 0x00
	codecADPCM4 = 0x01
	codecADPCM3 = 0x02 // 2.6-bit
	codecADPCM2 = 0x03
	codecPCM16  = 0x04 // only valid inside a type-0x09 block
	codecALaw   = 0x06
	codecULaw   = 0x07
)

// Decoder implements decoder.Concrete for Creative Voice files.
type Decoder struct {
	rate    audiospec.Rate
	samples []float32 // mono
	cursor  int
}

// New is a decoder.Factory for voc.Decoder.
func New() decoder.Concrete { return &Decoder{} }

// Accept sniffs the VOC text magic (spec.md §4.C).
func Accept(stream iostream.Stream) bool {
	header := make([]byte, len(magic))
	n := stream.Read(header)
	if n < len(magic) {
		return false
	}
	return string(header) == magic
}

func (d *Decoder) Open(stream iostream.Stream) error {
	header := make([]byte, 26)
	if n := stream.Read(header); n < 26 {
		return muserr.New(muserr.KindDecoder, "voc.open", errShortHeader)
	}
	if string(header[0:20]) != magic {
		return muserr.New(muserr.KindDecoder, "voc.open", errBadMagic)
	}
	dataOffset := binary.LittleEndian.Uint16(header[20:22])

	if dataOffset > 26 {
		discard := make([]byte, dataOffset-26)
		stream.Read(discard)
	}

	var (
		rate    audiospec.Rate
		samples []float32
	)

	for {
		var blockHdr [4]byte
		n := stream.Read(blockHdr[:1])
		if n < 1 {
			break
		}
		blockType := blockHdr[0]
		if blockType == blockTerminator {
			break
		}

		var sizeBytes [3]byte
		if n := stream.Read(sizeBytes[:]); n < 3 {
			break
		}
		blockSize := int(sizeBytes[0]) | int(sizeBytes[1])<<8 | int(sizeBytes[2])<<16

		switch blockType {
		case blockSoundData:
			body := make([]byte, blockSize)
			stream.Read(body)
			if len(body) < 2 {
				continue
			}
			timeConstant := body[0]
			codec := body[1]
			if rate == 0 {
				rate = audiospec.Rate(1000000 / (256 - int(timeConstant)))
			}
			decoded, err := decodeBlock(codec, body[2:])
			if err != nil {
				return muserr.New(muserr.KindCodec, "voc.open", err)
			}
			samples = append(samples, decoded...)

		case blockSoundData16:
			body := make([]byte, blockSize)
			stream.Read(body)
			if len(body) < 12 {
				continue
			}
			sampleRate := binary.LittleEndian.Uint32(body[0:4])
			bitsPerSample := body[4]
			channels := body[5]
			codec := binary.LittleEndian.Uint16(body[6:8])
			if rate == 0 {
				rate = audiospec.Rate(sampleRate)
			}
			_ = channels // mono-only per spec.md §6; multi-channel VOC is unsupported
			var format audiospec.Format
			switch {
			case bitsPerSample == 8 && codec == codecPCM8:
				format = audiospec.FormatU8
			case bitsPerSample == 16 && codec == codecPCM16:
				format = audiospec.FormatS16LE
			default:
				return muserr.New(muserr.KindCodec, "voc.open", errUnknownCodec)
			}
			stride := format.BytesPerSample()
			pcm := body[12:]
			count := len(pcm) / stride
			chunk := make([]float32, count)
			sampleformat.ToFloat(chunk, pcm, count, format)
			samples = append(samples, chunk...)

		case blockSilence:
			body := make([]byte, blockSize)
			stream.Read(body)
			if len(body) >= 3 {
				length := binary.LittleEndian.Uint16(body[0:2])
				for i := 0; i < int(length); i++ {
					samples = append(samples, 0)
				}
			}

		default:
			discard := make([]byte, blockSize)
			stream.Read(discard)
		}
	}

	if rate == 0 || samples == nil {
		return muserr.New(muserr.KindDecoder, "voc.open", errNoAudioData)
	}

	d.rate = rate
	d.samples = samples
	d.cursor = 0
	return nil
}

func decodeBlock(codec byte, pcm []byte) ([]float32, error) {
	switch codec {
	case codecPCM8:
		out := make([]float32, len(pcm))
		sampleformat.ToFloat(out, pcm, len(pcm), audiospec.FormatU8)
		return out, nil
	case codecALaw:
		out := make([]float32, len(pcm))
		for i, b := range pcm {
			out[i] = g711.ALawToFloat(b)
		}
		return out, nil
	case codecULaw:
		out := make([]float32, len(pcm))
		for i, b := range pcm {
			out[i] = g711.ULawToFloat(b)
		}
		return out, nil
	case codecADPCM4, codecADPCM3, codecADPCM2:
		return nil, errADPCM
	default:
		return nil, errUnknownCodec
	}
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

package aac

import (
	"testing"

	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/iostream"
)

// buildADTSFrame assembles a single 7-byte ADTS fixed+variable header
// (no CRC) for the given sampling-frequency index and channel
// configuration, followed by dummy payload bytes.
func buildADTSFrame(sfIndex, channelConfig byte, payloadLen int) []byte {
	frameLen := 7 + payloadLen
	hdr := make([]byte, 7)
	hdr[0] = 0xFF
	hdr[1] = 0xF1 // syncword low nibble=1111, MPEG-4, layer 00, protection_absent=1
	hdr[2] = (1 << 6) | (sfIndex << 2) | (channelConfig >> 2)
	hdr[3] = (channelConfig&0x03)<<6 | byte((frameLen>>11)&0x03)
	hdr[4] = byte((frameLen >> 3) & 0xFF)
	hdr[5] = byte((frameLen&0x07)<<5) | 0x1F
	hdr[6] = 0xFC

	out := make([]byte, frameLen)
	copy(out, hdr)
	return out
}

func TestAcceptRecognizesADTSSyncword(t *testing.T) {
	frame := buildADTSFrame(4, 2, 100) // 44100 Hz, stereo
	s := iostream.FromMemory(frame, false)
	if !Accept(s) {
		t.Fatal("expected Accept to recognize the ADTS syncword")
	}
}

func TestAcceptRejectsOtherMagic(t *testing.T) {
	s := iostream.FromMemory([]byte("not an aac stream"), false)
	if Accept(s) {
		t.Fatal("expected Accept to reject non-ADTS data")
	}
}

func TestOpenParsesRateAndChannels(t *testing.T) {
	frame := buildADTSFrame(4, 2, 200) // sfIndex 4 = 44100 Hz, channelConfig 2 = stereo
	s := iostream.FromMemory(frame, false)

	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}
	if d.Rate() != audiospec.Rate(44100) {
		t.Fatalf("expected rate 44100, got %v", d.Rate())
	}
	if d.Channels() != audiospec.Stereo {
		t.Fatalf("expected stereo, got %v", d.Channels())
	}
}

func TestOpenMonoConfiguration(t *testing.T) {
	frame := buildADTSFrame(11, 1, 50) // sfIndex 11 = 8000 Hz, channelConfig 1 = mono
	s := iostream.FromMemory(frame, false)

	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}
	if d.Rate() != audiospec.Rate(8000) {
		t.Fatalf("expected rate 8000, got %v", d.Rate())
	}
	if d.Channels() != audiospec.Mono {
		t.Fatalf("expected mono, got %v", d.Channels())
	}
}

func TestOpenRejectsNonADTS(t *testing.T) {
	s := iostream.FromMemory([]byte("garbage not aac"), false)
	d := &Decoder{}
	if err := d.Open(s); err == nil {
		t.Fatal("expected an error opening a non-ADTS stream")
	}
}

// TestDoDecodeEmitsSilence documents the wrapped upstream stub's
// current behaviour (see the package doc comment): with no real
// bitstream synthesis available, every DoDecode call must still
// satisfy the decoder.Concrete contract by writing a full buffer of
// silence rather than garbage or a panic.
func TestDoDecodeEmitsSilence(t *testing.T) {
	frame := buildADTSFrame(4, 2, 200)
	s := iostream.FromMemory(frame, false)

	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}

	buf := make([]float32, 16)
	for i := range buf {
		buf[i] = 99 // sentinel, should be overwritten with silence
	}
	var callAgain bool
	n := d.DoDecode(buf, &callAgain)
	if n != len(buf) {
		t.Fatalf("expected %d samples reported, got %d", len(buf), n)
	}
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("expected silence at index %d, got %v", i, s)
		}
	}
}

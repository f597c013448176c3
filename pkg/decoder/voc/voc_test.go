package voc

import (
	"testing"
	"time"

	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/iostream"
)

// buildVOC assembles a minimal VOC file: the 26-byte header followed
// by one type-0x01 sound-data block at the given time constant and
// codec, then a terminator block.
func buildVOC(t *testing.T, timeConstant byte, codec byte, pcm []byte) []byte {
	t.Helper()
	var buf []byte
	buf = append(buf, magic...)     // 20 bytes
	buf = append(buf, 26, 0)        // dataOffset = 26 (header ends right here)
	buf = append(buf, 0, 0)         // version (unused by this decoder)
	buf = append(buf, 0, 0)         // checksum (unused by this decoder)

	blockSize := 2 + len(pcm)
	buf = append(buf, blockSoundData)
	buf = append(buf, byte(blockSize), byte(blockSize>>8), byte(blockSize>>16))
	buf = append(buf, timeConstant, codec)
	buf = append(buf, pcm...)

	buf = append(buf, blockTerminator)
	return buf
}

func TestAcceptRecognizesVOCMagic(t *testing.T) {
	data := buildVOC(t, 0, codecPCM8, []byte{128, 129, 127})
	s := iostream.FromMemory(data, false)
	if !Accept(s) {
		t.Fatal("expected Accept to recognize the VOC magic")
	}
}

func TestAcceptRejectsOtherMagic(t *testing.T) {
	s := iostream.FromMemory([]byte("not a voc file at all here"), false)
	if Accept(s) {
		t.Fatal("expected Accept to reject non-VOC data")
	}
}

func TestOpenReadsPCM8(t *testing.T) {
	// time constant 256-100=156 -> rate = 1000000/100 = 10000
	pcm := []byte{128, 255, 0, 64}
	data := buildVOC(t, 156, codecPCM8, pcm)
	s := iostream.FromMemory(data, false)

	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}
	if d.Channels() != audiospec.Mono {
		t.Fatal("VOC decoder is always mono")
	}
	if d.Rate() != audiospec.Rate(10000) {
		t.Fatalf("expected rate 10000, got %v", d.Rate())
	}
	if len(d.samples) != len(pcm) {
		t.Fatalf("expected %d samples, got %d", len(pcm), len(d.samples))
	}
	if d.samples[0] != 0 {
		t.Fatalf("expected silence sample (128) to decode to 0, got %v", d.samples[0])
	}
}

func TestOpenRejectsADPCM(t *testing.T) {
	data := buildVOC(t, 156, codecADPCM4, []byte{0x12, 0x34})
	s := iostream.FromMemory(data, false)

	d := &Decoder{}
	if err := d.Open(s); err == nil {
		t.Fatal("expected an error opening an ADPCM-coded VOC stream")
	}
}

func TestOpenDecodesULaw(t *testing.T) {
	data := buildVOC(t, 156, codecULaw, []byte{0xff, 0x7f})
	s := iostream.FromMemory(data, false)

	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(d.samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(d.samples))
	}
}

func TestDoDecodeAndRewind(t *testing.T) {
	pcm := []byte{128, 200, 50, 100, 150, 30}
	data := buildVOC(t, 156, codecPCM8, pcm)
	s := iostream.FromMemory(data, false)

	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}

	buf := make([]float32, 4)
	var callAgain bool
	n := d.DoDecode(buf, &callAgain)
	if n != 4 {
		t.Fatalf("expected 4 samples, got %d", n)
	}
	if !callAgain {
		t.Fatal("expected callAgain true, two samples remain")
	}

	d.Rewind()
	if d.cursor != 0 {
		t.Fatal("expected rewind to reset cursor")
	}
}

func TestDuration(t *testing.T) {
	pcm := make([]byte, 10000)
	data := buildVOC(t, 156, codecPCM8, pcm)
	s := iostream.FromMemory(data, false)

	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}
	if d.Duration() != time.Second {
		t.Fatalf("expected 1s duration, got %v", d.Duration())
	}
}

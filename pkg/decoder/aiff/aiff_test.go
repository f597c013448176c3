package aiff

import (
	"encoding/binary"
	"math/bits"
	"testing"
	"time"

	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/iostream"
)

// encodeExtended is the inverse of extendedToUint, used only to
// synthesize test fixtures: AIFF's COMM.sampleRate field is an 80-bit
// IEEE-754 extended-precision float with an explicit integer bit.
func encodeExtended(rate uint32) [10]byte {
	var out [10]byte
	if rate == 0 {
		return out
	}
	b := bits.Len32(rate) - 1
	shift := 63 - b
	mantissa := uint64(rate) << uint(shift)
	exponent := uint16(16383 + b)
	out[0] = byte(exponent >> 8)
	out[1] = byte(exponent)
	binary.BigEndian.PutUint64(out[2:10], mantissa)
	return out
}

func putChunk(buf []byte, id string, body []byte) []byte {
	hdr := make([]byte, 8)
	copy(hdr[0:4], id)
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(body)))
	buf = append(buf, hdr...)
	buf = append(buf, body...)
	if len(body)%2 == 1 {
		buf = append(buf, 0)
	}
	return buf
}

// buildAIFF assembles a minimal FORM/AIFF file with COMM + SSND chunks
// holding 16-bit big-endian PCM.
func buildAIFF(t *testing.T, channels int, rate uint32, samples []int16) []byte {
	t.Helper()

	comm := make([]byte, 18)
	binary.BigEndian.PutUint16(comm[0:2], uint16(channels))
	binary.BigEndian.PutUint32(comm[2:6], uint32(len(samples)/channels))
	binary.BigEndian.PutUint16(comm[6:8], 16)
	ext := encodeExtended(rate)
	copy(comm[8:18], ext[:])

	ssnd := make([]byte, 8+len(samples)*2)
	for i, s := range samples {
		binary.BigEndian.PutUint16(ssnd[8+i*2:10+i*2], uint16(s))
	}

	var chunks []byte
	chunks = putChunk(chunks, "COMM", comm)
	chunks = putChunk(chunks, "SSND", ssnd)

	var buf []byte
	buf = append(buf, "FORM"...)
	sizePos := len(buf)
	buf = append(buf, 0, 0, 0, 0)
	buf = append(buf, "AIFF"...)
	buf = append(buf, chunks...)
	binary.BigEndian.PutUint32(buf[sizePos:sizePos+4], uint32(len(buf)-sizePos-4))
	return buf
}

func TestAcceptRecognizesFORMAIFF(t *testing.T) {
	data := buildAIFF(t, 1, 44100, []int16{0, 100, -100})
	s := iostream.FromMemory(data, false)
	if !Accept(s) {
		t.Fatal("expected Accept to recognize FORM/AIFF")
	}
}

func TestAcceptRejectsOtherMagic(t *testing.T) {
	s := iostream.FromMemory([]byte("FORM____WAVEjunkjunk"), false)
	if Accept(s) {
		t.Fatal("expected Accept to reject a non-AIFF FORM type")
	}
}

func TestOpenReadsMonoPCM16(t *testing.T) {
	samples := []int16{0, 16384, -16384, 32767, -32768}
	data := buildAIFF(t, 1, 8000, samples)
	s := iostream.FromMemory(data, false)

	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}
	if d.Channels() != audiospec.Mono {
		t.Fatalf("expected mono, got %v", d.Channels())
	}
	if d.Rate() != audiospec.Rate(8000) {
		t.Fatalf("expected rate 8000, got %v", d.Rate())
	}
	if len(d.samples) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(d.samples))
	}
	if d.samples[3] != 1 {
		t.Fatalf("expected 32767 to decode to 1.0, got %v", d.samples[3])
	}
	if d.samples[4] != -1 {
		t.Fatalf("expected -32768 to decode to -1.0, got %v", d.samples[4])
	}
}

func TestOpenStereo(t *testing.T) {
	samples := []int16{0, 0, 1000, -1000}
	data := buildAIFF(t, 2, 44100, samples)
	s := iostream.FromMemory(data, false)

	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}
	if d.Channels() != audiospec.Stereo {
		t.Fatalf("expected stereo, got %v", d.Channels())
	}
}

func TestOpenRejectsNonAIFF(t *testing.T) {
	s := iostream.FromMemory([]byte("not an aiff file"), false)
	d := &Decoder{}
	if err := d.Open(s); err == nil {
		t.Fatal("expected an error opening a non-AIFF stream")
	}
}

func TestDurationAndSeek(t *testing.T) {
	samples := make([]int16, 8000)
	data := buildAIFF(t, 1, 8000, samples)
	s := iostream.FromMemory(data, false)

	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}
	if d.Duration() != time.Second {
		t.Fatalf("expected 1s duration, got %v", d.Duration())
	}
	if !d.SeekToTime(500 * time.Millisecond) {
		t.Fatal("expected seek to succeed")
	}
	if d.cursor != 4000 {
		t.Fatalf("expected cursor at 4000, got %d", d.cursor)
	}
}

func TestRewind(t *testing.T) {
	samples := []int16{1, 2, 3, 4}
	data := buildAIFF(t, 1, 8000, samples)
	s := iostream.FromMemory(data, false)

	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}
	buf := make([]float32, 2)
	var callAgain bool
	d.DoDecode(buf, &callAgain)
	if d.cursor != 2 {
		t.Fatalf("expected cursor 2, got %d", d.cursor)
	}
	d.Rewind()
	if d.cursor != 0 {
		t.Fatal("expected rewind to reset cursor")
	}
}

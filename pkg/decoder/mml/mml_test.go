package mml

import (
	"testing"
	"time"

	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/iostream"
)

func TestAcceptRecognizesNoteStream(t *testing.T) {
	s := iostream.FromMemory([]byte("T120 L4 O4 CDEFGAB"), false)
	if !Accept(s) {
		t.Fatal("expected Accept to recognize MML-shaped text")
	}
}

func TestAcceptRejectsProseText(t *testing.T) {
	s := iostream.FromMemory([]byte("This is an ordinary English sentence, not music."), false)
	if Accept(s) {
		t.Fatal("expected Accept to reject prose text")
	}
}

func TestOpenSingleNoteProducesExpectedDuration(t *testing.T) {
	// T120, L4: one quarter note = 240/120/4 = 0.5s
	s := iostream.FromMemory([]byte("T120 L4 C"), false)
	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}
	if d.Channels() != audiospec.Mono {
		t.Fatal("expected mono output")
	}
	got := d.Duration()
	want := 500 * time.Millisecond
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if diff > 5*time.Millisecond {
		t.Fatalf("expected duration ~%v, got %v", want, got)
	}
}

func TestOpenRestAdvancesCursorWithoutSound(t *testing.T) {
	s := iostream.FromMemory([]byte("T120 L4 R"), false)
	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(d.events) != 0 {
		t.Fatalf("expected no sounding events for a rest, got %d", len(d.events))
	}
	if d.totalFrames == 0 {
		t.Fatal("expected the rest to still advance total frames")
	}
}

func TestDoDecodeProducesNonZeroSamples(t *testing.T) {
	s := iostream.FromMemory([]byte("T120 L4 O4 C"), false)
	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}

	buf := make([]float32, 1000)
	var callAgain bool
	n := d.DoDecode(buf, &callAgain)
	if n != 1000 {
		t.Fatalf("expected 1000 samples, got %d", n)
	}

	var nonZero bool
	for _, v := range buf {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected at least one non-zero sample from a sounding note")
	}
}

func TestRewindAndSeek(t *testing.T) {
	s := iostream.FromMemory([]byte("T120 L4 CDEFGAB"), false)
	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}

	buf := make([]float32, 100)
	var callAgain bool
	d.DoDecode(buf, &callAgain)
	if d.cursor != 100 {
		t.Fatalf("expected cursor 100, got %d", d.cursor)
	}

	d.Rewind()
	if d.cursor != 0 {
		t.Fatal("expected rewind to reset cursor")
	}

	if !d.SeekToTime(250 * time.Millisecond) {
		t.Fatal("expected seek to succeed")
	}
	wantFrame := int(0.25 * 44100)
	if d.cursor != wantFrame {
		t.Fatalf("expected cursor at frame %d, got %d", wantFrame, d.cursor)
	}
}

func TestNoteFrequencyA4Is440(t *testing.T) {
	freq := noteFrequency(3, noteSemitone['A'])
	if freq < 439.9 || freq > 440.1 {
		t.Fatalf("expected A in octave 3 (this dialect's middle-C octave) to be ~440Hz, got %v", freq)
	}
}

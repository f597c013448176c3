package mod

import (
	"testing"

	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/iostream"
)

func buildMODHeader(signature string) []byte {
	buf := make([]byte, 1084)
	copy(buf[1080:1084], signature)
	return buf
}

func TestAcceptRecognizesProTrackerSignature(t *testing.T) {
	data := buildMODHeader("M.K.")
	s := iostream.FromMemory(data, false)
	if !Accept(s) {
		t.Fatal("expected Accept to recognize the M.K. MOD signature")
	}
}

func TestAcceptRecognizesXM(t *testing.T) {
	data := append([]byte("Extended Module: test song"), make([]byte, 100)...)
	s := iostream.FromMemory(data, false)
	if !Accept(s) {
		t.Fatal("expected Accept to recognize an XM header")
	}
}

func TestAcceptRecognizesIT(t *testing.T) {
	data := append([]byte("IMPM"), make([]byte, 100)...)
	s := iostream.FromMemory(data, false)
	if !Accept(s) {
		t.Fatal("expected Accept to recognize an IT header")
	}
}

func TestAcceptRecognizesS3M(t *testing.T) {
	data := make([]byte, 100)
	copy(data[44:48], "SCRM")
	s := iostream.FromMemory(data, false)
	if !Accept(s) {
		t.Fatal("expected Accept to recognize an S3M header")
	}
}

func TestAcceptRejectsUnrelatedData(t *testing.T) {
	s := iostream.FromMemory(make([]byte, 1084), false)
	if Accept(s) {
		t.Fatal("expected Accept to reject a blank buffer with no tracker magic")
	}
}

func TestOpenSetsFamilyAndReportsSilence(t *testing.T) {
	data := buildMODHeader("4CHN")
	s := iostream.FromMemory(data, false)

	d := &Decoder{}
	if err := d.Open(s); err != nil {
		t.Fatalf("open: %v", err)
	}
	if d.Family() != FamilyMOD {
		t.Fatalf("expected FamilyMOD, got %v", d.Family())
	}
	if d.Channels() != audiospec.Stereo {
		t.Fatal("expected stereo output")
	}
	if d.Duration() != 0 {
		t.Fatal("expected unknown (zero) duration, tracker playback is not implemented")
	}

	buf := make([]float32, 10)
	var callAgain bool
	n := d.DoDecode(buf, &callAgain)
	if n != len(buf) {
		t.Fatalf("expected %d samples, got %d", len(buf), n)
	}
	for _, v := range buf {
		if v != 0 {
			t.Fatal("expected silence from the unimplemented tracker engine")
		}
	}
	if callAgain {
		t.Fatal("expected callAgain false so playback finishes immediately")
	}
}

func TestOpenRejectsUnknownData(t *testing.T) {
	s := iostream.FromMemory(make([]byte, 1084), false)
	d := &Decoder{}
	if err := d.Open(s); err == nil {
		t.Fatal("expected an error opening unrecognised data")
	}
}

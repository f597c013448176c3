package mp3

import (
	"testing"

	"github.com/ijakenorton/musac-go/pkg/iostream"
)

func TestAcceptRecognizesID3Tag(t *testing.T) {
	s := iostream.FromMemory([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), false)
	if !Accept(s) {
		t.Fatal("expected Accept to recognize an ID3v2 tag")
	}
}

func TestAcceptRecognizesFrameSync(t *testing.T) {
	s := iostream.FromMemory([]byte{0xFF, 0xFB, 0x90, 0x00}, false)
	if !Accept(s) {
		t.Fatal("expected Accept to recognize a raw MPEG frame sync")
	}
}

func TestAcceptRejectsOtherMagic(t *testing.T) {
	s := iostream.FromMemory([]byte("RIFF is not an mp3 stream"), false)
	if Accept(s) {
		t.Fatal("expected Accept to reject non-MP3 data")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	s := iostream.FromMemory([]byte("not a valid mp3 bitstream at all"), false)
	d := &Decoder{}
	if err := d.Open(s); err == nil {
		t.Fatal("expected an error opening a non-MP3 stream")
	}
}

package registry

import (
	"testing"

	"github.com/ijakenorton/musac-go/pkg/iostream"
)

func TestRegisterDefaultsWavWinsOverMML(t *testing.T) {
	r := New()
	RegisterDefaults(r)

	// A minimal RIFF/WAVE header also happens to contain letters MML's
	// accept would treat as tokenish; wav must win on priority alone.
	data := []byte("RIFF\x00\x00\x00\x00WAVEfmt ")
	s := iostream.FromMemory(data, false)
	if !r.CanDecode(s) {
		t.Fatal("expected a registered decoder to accept a WAV header")
	}
	for _, e := range r.entries {
		s.Seek(0, iostream.SeekStart)
		if e.accept(s) {
			if e.name != "wav" {
				t.Fatalf("expected wav to be the first decoder to accept, got %s", e.name)
			}
			break
		}
	}
}

func TestRegisterDefaultsMMLIsLowestPriority(t *testing.T) {
	r := New()
	RegisterDefaults(r)

	var mmlPriority, otherMin int
	otherMin = -1
	for _, e := range r.entries {
		if e.name == "mml" {
			mmlPriority = e.priority
			continue
		}
		if otherMin == -1 || e.priority < otherMin {
			otherMin = e.priority
		}
	}
	if mmlPriority >= otherMin {
		t.Fatalf("expected mml's priority (%d) below every other registered decoder's (min %d)", mmlPriority, otherMin)
	}
}

func TestRegisterDefaultsPopulatesRegistry(t *testing.T) {
	r := New()
	RegisterDefaults(r)
	if r.Size() < 8 {
		t.Fatalf("expected at least 8 registered decoders, got %d", r.Size())
	}
}

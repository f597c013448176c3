package registry

import (
	"testing"
	"time"

	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/decoder"
	"github.com/ijakenorton/musac-go/pkg/iostream"
)

type fakeConcrete struct {
	channels audiospec.Channels
	rate     audiospec.Rate
}

func (f *fakeConcrete) Open(iostream.Stream) error             { return nil }
func (f *fakeConcrete) Channels() audiospec.Channels            { return f.channels }
func (f *fakeConcrete) Rate() audiospec.Rate                    { return f.rate }
func (f *fakeConcrete) Duration() time.Duration                 { return 0 }
func (f *fakeConcrete) Rewind() bool                            { return true }
func (f *fakeConcrete) SeekToTime(time.Duration) bool           { return false }
func (f *fakeConcrete) DoDecode(buf []float32, callAgain *bool) int {
	*callAgain = false
	return 0
}

func alwaysAccept(iostream.Stream) bool { return true }
func neverAccept(iostream.Stream) bool  { return false }

// TestRegistryPositionPreservation is spec.md §8 property 1.
func TestRegistryPositionPreservation(t *testing.T) {
	r := New()
	r.Register("never", neverAccept, func() decoder.Concrete { return &fakeConcrete{} }, 50)
	r.Register("always", alwaysAccept, func() decoder.Concrete { return &fakeConcrete{channels: audiospec.Stereo, rate: 44100} }, 10)

	s := iostream.FromMemory([]byte{1, 2, 3, 4, 5, 6, 7, 8}, false)
	s.Seek(3, iostream.SeekStart)

	before := s.Tell()
	d := r.FindDecoder(s)
	after := s.Tell()

	if d == nil {
		t.Fatal("expected a decoder to be found")
	}
	if before != after {
		t.Fatalf("position not preserved: before=%d after=%d", before, after)
	}
}

// TestRegistryPriorityOrdering is spec.md §8 scenario S3: a dummy
// decoder registered at a higher priority than the real one wins.
func TestRegistryPriorityOrdering(t *testing.T) {
	r := New()
	var built []string
	makeFactory := func(name string) decoder.Factory {
		return func() decoder.Concrete {
			built = append(built, name)
			return &fakeConcrete{channels: audiospec.Mono, rate: 8000}
		}
	}
	r.Register("real-low-priority", alwaysAccept, makeFactory("real"), 80)
	r.Register("dummy-high-priority", alwaysAccept, makeFactory("dummy"), 100)

	s := iostream.FromMemory([]byte{0}, false)
	if d := r.FindDecoder(s); d == nil {
		t.Fatal("expected a decoder")
	}
	if len(built) != 1 || built[0] != "dummy" {
		t.Fatalf("expected the higher priority decoder to win, built=%v", built)
	}
}

func TestRegistryTieBreakIsInsertionOrder(t *testing.T) {
	r := New()
	var built []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		r.Register(name, alwaysAccept, func() decoder.Concrete {
			built = append(built, name)
			return &fakeConcrete{}
		}, 50)
	}
	r.FindDecoder(iostream.FromMemory([]byte{0}, false))
	if len(built) != 1 || built[0] != "first" {
		t.Fatalf("expected first-registered entry to win ties, built=%v", built)
	}
}

func TestAcceptPanicIsTreatedAsNotAccepted(t *testing.T) {
	r := New()
	r.Register("panics", func(iostream.Stream) bool { panic("boom") }, func() decoder.Concrete { return &fakeConcrete{} }, 100)
	r.Register("fallback", alwaysAccept, func() decoder.Concrete { return &fakeConcrete{channels: audiospec.Mono, rate: 1} }, 10)

	d := r.FindDecoder(iostream.FromMemory([]byte{0}, false))
	if d == nil {
		t.Fatal("expected fallback decoder despite panicking higher-priority entry")
	}
}

func TestCanDecodeWithoutConstructing(t *testing.T) {
	r := New()
	built := false
	r.Register("x", alwaysAccept, func() decoder.Concrete { built = true; return &fakeConcrete{} }, 1)
	if !r.CanDecode(iostream.FromMemory([]byte{0}, false)) {
		t.Fatal("expected CanDecode true")
	}
	if built {
		t.Fatal("CanDecode must not construct a decoder")
	}
}

func TestNoDecoderAccepts(t *testing.T) {
	r := New()
	r.Register("never", neverAccept, func() decoder.Concrete { return &fakeConcrete{} }, 1)
	if d := r.FindDecoder(iostream.FromMemory([]byte{0}, false)); d != nil {
		t.Fatal("expected nil decoder")
	}
}

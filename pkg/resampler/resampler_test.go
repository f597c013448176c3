package resampler

import (
	"testing"
	"time"

	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/iostream"
)

// fakeDecoder emits a fixed ramp of mono samples at a configurable
// native rate, then reports EOS.
type fakeDecoder struct {
	rate      audiospec.Rate
	remaining int
	next      float32
}

func (f *fakeDecoder) IsOpen() bool                        { return true }
func (f *fakeDecoder) Open(iostream.Stream) error           { return nil }
func (f *fakeDecoder) Channels() audiospec.Channels         { return audiospec.Mono }
func (f *fakeDecoder) Rate() audiospec.Rate                 { return f.rate }
func (f *fakeDecoder) Duration() time.Duration              { return 0 }
func (f *fakeDecoder) Rewind() bool                         { return true }
func (f *fakeDecoder) SeekToTime(time.Duration) bool        { return false }

func (f *fakeDecoder) Decode(buf []float32, callAgain *bool, deviceChannels audiospec.Channels) int {
	n := len(buf)
	if n > f.remaining {
		n = f.remaining
	}
	for i := 0; i < n; i++ {
		buf[i] = f.next
		f.next += 0.001
	}
	f.remaining -= n
	*callAgain = f.remaining > 0
	return n
}

func TestResamplePassthroughSameRate(t *testing.T) {
	dec := &fakeDecoder{rate: 44100, remaining: 1000}
	r := New()
	r.SetDecoder(dec)
	r.SetSpec(44100, audiospec.Mono, 256)

	dst := make([]float32, 1000)
	total := 0
	for i := 0; i < 10 && total < 1000; i++ {
		total += r.Resample(dst[total:], len(dst)-total)
	}
	if total == 0 {
		t.Fatal("expected some samples resampled at matching rate")
	}
}

func TestResampleUpsampleProducesOutput(t *testing.T) {
	dec := &fakeDecoder{rate: 22050, remaining: 2000}
	r := New()
	r.SetDecoder(dec)
	r.SetSpec(44100, audiospec.Mono, 512)

	dst := make([]float32, 8192)
	total := 0
	for i := 0; i < 20; i++ {
		n := r.Resample(dst[total:], len(dst)-total)
		total += n
		if n == 0 {
			break
		}
	}
	if total == 0 {
		t.Fatal("expected upsampled output")
	}
}

func TestResampleStopsAtDecoderEOS(t *testing.T) {
	dec := &fakeDecoder{rate: 44100, remaining: 100}
	r := New()
	r.SetDecoder(dec)
	r.SetSpec(44100, audiospec.Mono, 256)

	dst := make([]float32, 10000)
	total := 0
	for i := 0; i < 50; i++ {
		n := r.Resample(dst[total:], len(dst)-total)
		total += n
		if n == 0 {
			break
		}
	}
	if total >= len(dst) {
		t.Fatalf("expected EOS to bound output well below requested length, got %d", total)
	}
}

func TestDiscardPendingSamplesResetsState(t *testing.T) {
	dec := &fakeDecoder{rate: 22050, remaining: 5000}
	r := New()
	r.SetDecoder(dec)
	r.SetSpec(44100, audiospec.Mono, 256)

	dst := make([]float32, 512)
	r.Resample(dst, len(dst))
	if r.pendingFrames() == 0 {
		t.Skip("no leftover pending in this run, nothing to discard")
	}

	r.DiscardPendingSamples()
	if r.pendingFrames() != 0 {
		t.Fatalf("expected pending buffers cleared after discard, got %d", r.pendingFrames())
	}
}

func TestStereoOutputIsWholeFrames(t *testing.T) {
	dec := &fakeDecoder{rate: 22050, remaining: 4000}
	r := New()
	r.SetDecoder(dec)
	r.SetSpec(44100, audiospec.Stereo, 256)

	dst := make([]float32, 4096)
	total := 0
	for i := 0; i < 20; i++ {
		n := r.Resample(dst[total:], len(dst)-total)
		total += n
		if n == 0 {
			break
		}
	}
	if total%2 != 0 {
		t.Fatalf("expected interleaved stereo output to be even length, got %d", total)
	}
}

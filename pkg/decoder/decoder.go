// Package decoder defines the format-agnostic decoder contract every
// concrete codec implements, plus the channel fan-out/down-mix logic
// shared by all of them. Concrete decoders implement native-rate,
// native-channel decoding only (DoDecode); Decode (this package) does
// the mono<->stereo conversion, generalizing the teacher's
// monoToStereo/stereoToMono closures in
// pkg/audiodevice/device/audioformatconversiondevice.go from
// streaming-pipeline functions into a buffer-owning method shared by
// every decoder.
package decoder

import (
	"time"

	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/iostream"
)

// Concrete implements the per-format half of the decoder contract
// (spec.md §4.D): everything except the channel fan-out, which the
// shared Base embeds.
type Concrete interface {
	// Open parses just enough of stream to know the native channel
	// count and rate. On success the decoder is open; native_rate is
	// positive and native_channels is Mono or Stereo (spec.md §3's
	// decoder invariant).
	Open(stream iostream.Stream) error
	Channels() audiospec.Channels
	Rate() audiospec.Rate
	Duration() time.Duration
	Rewind() bool
	SeekToTime(pos time.Duration) bool

	// DoDecode decodes up to len(buf) native-channel samples,
	// reporting whether more data remains after this call.
	DoDecode(buf []float32, callAgain *bool) int
}

// Factory creates a zero-value Concrete decoder instance, ready for
// Open. Registries hold these instead of concrete types so the
// registry package never needs to import every codec (spec.md §4.C).
type Factory func() Concrete

// AcceptFunc probes stream to see whether a decoder recognises its
// format. Implementations must be total: any internal fault is
// reported as false, never a panic, and the stream position must be
// unchanged on return (enforced by the registry, which saves and
// restores the position around every probe, not by the implementation).
type AcceptFunc func(stream iostream.Stream) bool

// Decoder is the full, fan-out-aware decoder contract the mixer and
// audio source consume.
type Decoder interface {
	IsOpen() bool
	Open(stream iostream.Stream) error
	Channels() audiospec.Channels
	Rate() audiospec.Rate
	Duration() time.Duration
	Rewind() bool
	SeekToTime(pos time.Duration) bool

	// Decode writes up to len(buf) samples at deviceChannels channel
	// count, converting from the concrete decoder's native channel
	// count as needed. Returns samples written; callAgain indicates
	// more data remains. Zero samples with callAgain false is EOS.
	Decode(buf []float32, callAgain *bool, deviceChannels audiospec.Channels) int
}

// Base wraps a Concrete decoder and performs the channel fan-out/
// down-mix spec.md §4.D assigns to the decoder base, not to each
// concrete codec.
type Base struct {
	concrete Concrete
	isOpen   bool
	scratch  []float32 // down-mix scratch, sized 2x the largest buf seen
}

// NewBase wraps concrete in a fan-out-aware Decoder.
func NewBase(concrete Concrete) *Base {
	return &Base{concrete: concrete}
}

func (b *Base) IsOpen() bool { return b.isOpen }

func (b *Base) Open(stream iostream.Stream) error {
	if err := b.concrete.Open(stream); err != nil {
		return err
	}
	b.isOpen = true
	return nil
}

func (b *Base) Channels() audiospec.Channels { return b.concrete.Channels() }
func (b *Base) Rate() audiospec.Rate { return b.concrete.Rate() }
func (b *Base) Duration() time.Duration { return b.concrete.Duration() }
func (b *Base) Rewind() bool { return b.concrete.Rewind() }
func (b *Base) SeekToTime(p time.Duration) bool { return b.concrete.SeekToTime(p) }

func (b *Base) Decode(buf []float32, callAgain *bool, deviceChannels audiospec.Channels) int {
	native := b.concrete.Channels()

	switch {
	case native == deviceChannels:
		return b.concrete.DoDecode(buf, callAgain)

	case native == audiospec.Mono && deviceChannels == audiospec.Stereo:
		half := len(buf) / 2
		n := b.concrete.DoDecode(buf[:half], callAgain)
		// Expand back-to-front so the in-place duplication never
		// overwrites a sample before it's been duplicated.
		for i := n - 1; i >= 0; i-- {
			buf[2*i] = buf[i]
			buf[2*i+1] = buf[i]
		}
		return n * 2

	case native == audiospec.Stereo && deviceChannels == audiospec.Mono:
		need := len(buf) * 2
		if cap(b.scratch) < need {
			b.scratch = make([]float32, need)
		}
		scratch := b.scratch[:need]
		n := b.concrete.DoDecode(scratch, callAgain)
		pairs := n / 2
		for i := 0; i < pairs; i++ {
			buf[i] = 0.5 * (scratch[2*i] + scratch[2*i+1])
		}
		return pairs

	default:
		return b.concrete.DoDecode(buf, callAgain)
	}
}

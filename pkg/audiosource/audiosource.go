// Package audiosource composites a decoder, an optional resampler,
// and the byte stream they read from into the single pull-based
// source a playback.Stream reads from. Per spec.md §4.F this is a
// thin owning wrapper; its open/read_samples branching mirrors the
// per-frame transform pipeline in the teacher's
// AudioFormatConversionDevice.SetStream
// (pkg/audiodevice/device/audioformatconversiondevice.go), restructured
// from a push closure chain into a pull method.
package audiosource

import (
	"fmt"
	"time"

	"github.com/ijakenorton/musac-go/internal/muserr"
	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/decoder"
	"github.com/ijakenorton/musac-go/pkg/iostream"
	"github.com/ijakenorton/musac-go/pkg/registry"
	"github.com/ijakenorton/musac-go/pkg/resampler"
)

// Source is the decoder+resampler+stream composite spec.md §4.F
// describes. The zero value is not usable; construct with one of the
// New* functions below.
type Source struct {
	dec    decoder.Decoder
	res    *resampler.Resampler
	stream iostream.Stream
}

// NewWithDecoder builds a source with no resampling — the decoder's
// native rate is presumed acceptable (spec.md §4.F's first
// construction variant).
func NewWithDecoder(dec decoder.Decoder, stream iostream.Stream) *Source {
	return &Source{dec: dec, stream: stream}
}

// NewWithResampler stacks a resampler atop the decoder (spec.md §4.F's
// second construction variant).
func NewWithResampler(dec decoder.Decoder, res *resampler.Resampler, stream iostream.Stream) *Source {
	return &Source{dec: dec, res: res, stream: stream}
}

// NewAuto uses reg to pick a decoder for stream and wraps it in a
// default resampler (spec.md §4.F's third construction variant).
func NewAuto(stream iostream.Stream, reg *registry.Registry) (*Source, error) {
	dec := reg.FindDecoder(stream)
	if dec == nil {
		return nil, muserr.New(muserr.KindFormat, "audiosource.new_auto", fmt.Errorf("no registered decoder accepts this stream"))
	}
	return &Source{dec: dec, res: resampler.New(), stream: stream}, nil
}

// Open opens the decoder against the bound byte stream and, if a
// resampler is present, configures it for targetRate/targetChannels.
// frameSize sizes the resampler's internal pull chunks.
func (s *Source) Open(targetRate audiospec.Rate, targetChannels audiospec.Channels, frameSize int) error {
	if err := s.dec.Open(s.stream); err != nil {
		return muserr.New(muserr.KindDecoder, "audiosource.open", err)
	}
	if s.res != nil {
		s.res.SetDecoder(s.dec)
		s.res.SetSpec(targetRate, targetChannels, frameSize)
	}
	return nil
}

// ReadSamples is the main pull operation. If a resampler is present it
// resamples directly into buf[cursor:totalLen]; otherwise it loops the
// decoder (which performs its own channel fan-out) until callAgain is
// false or cursor reaches totalLen. cursor is advanced in place.
func (s *Source) ReadSamples(buf []float32, cursor *int, totalLen int, deviceChannels audiospec.Channels) {
	if s.res != nil {
		n := s.res.Resample(buf[*cursor:totalLen], totalLen-*cursor)
		*cursor += n
		return
	}

	for *cursor < totalLen {
		var callAgain bool
		n := s.dec.Decode(buf[*cursor:totalLen], &callAgain, deviceChannels)
		*cursor += n
		if !callAgain {
			break
		}
		if n == 0 {
			break
		}
	}
}

// Duration forwards to the decoder.
func (s *Source) Duration() time.Duration { return s.dec.Duration() }

// SeekToTime forwards to the decoder, discarding any resampler
// pending state so stale pre-seek samples are never emitted.
func (s *Source) SeekToTime(pos time.Duration) bool {
	ok := s.dec.SeekToTime(pos)
	if ok && s.res != nil {
		s.res.DiscardPendingSamples()
	}
	return ok
}

// Rewind forwards to the decoder, discarding any resampler pending
// state.
func (s *Source) Rewind() bool {
	ok := s.dec.Rewind()
	if ok && s.res != nil {
		s.res.DiscardPendingSamples()
	}
	return ok
}

// Package resampler converts a decoder's native sample rate to a
// device's target rate, generalizing the teacher's
// newResampleFunction in
// pkg/audiodevice/device/audioformatconversiondevice.go — which wraps
// github.com/oov/audio/resampler in a one-shot streaming closure —
// into the stateful pull contract spec.md §4.E requires: a resampler
// sits atop a decoder, tops up an internal pending buffer, and may
// consume fewer input samples or produce fewer output samples than
// requested in any one call.
package resampler

import (
	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/decoder"
	oovresampler "github.com/oov/audio/resampler"
)

// DefaultQuality matches the teacher's hard-coded resampleQuality
// constant in audioformatconversiondevice.go.
const DefaultQuality = 10

const defaultChunkSize = 4096

// Resampler is the bundled Speex-style implementation spec.md §4.E
// calls out as the one concrete algorithm this module ships.
type Resampler struct {
	dec      decoder.Decoder
	srcRate  audiospec.Rate
	dstRate  audiospec.Rate
	channels audiospec.Channels
	chunk    int
	quality  int

	inner *oovresampler.Resampler

	// pending holds decoded-but-not-yet-resampled samples, one planar
	// slice per channel (re-sliced from the front as consumed, per
	// spec.md §4.E's "it is legal to consume fewer input samples than
	// available; unused input is preserved for the next call").
	pending     [2][]float32
	decodeBuf   []float32 // scratch interleaved buffer pulled from dec
	decoderDone bool
}

// New constructs a resampler with no decoder bound yet; call
// SetDecoder and SetSpec before Resample.
func New() *Resampler {
	return &Resampler{quality: DefaultQuality, chunk: defaultChunkSize}
}

// SetDecoder binds the decoder this resampler pulls from.
func (r *Resampler) SetDecoder(dec decoder.Decoder) {
	r.dec = dec
}

// SetSpec configures the destination rate, channel count, and the
// chunk size used to top up the pending buffer, deriving the source
// rate from the bound decoder (spec.md §4.E).
func (r *Resampler) SetSpec(dstRate audiospec.Rate, channels audiospec.Channels, chunkSize int) {
	r.dstRate = dstRate
	r.channels = channels
	if chunkSize > 0 {
		r.chunk = chunkSize
	}
	r.srcRate = r.dec.Rate()
	r.rebuild()
}

func (r *Resampler) rebuild() {
	r.inner = oovresampler.New(int(r.channels), int(r.srcRate), int(r.dstRate), r.quality)
	r.pending[0] = nil
	r.pending[1] = nil
	r.decoderDone = false
}

// DiscardPendingSamples clears internal buffers after a seek on the
// underlying decoder. The oov/audio resampler exposes no reset, so
// per spec.md §4.E's fallback clause the handle is re-created from
// scratch at the current (dst_rate, src_rate, channels).
func (r *Resampler) DiscardPendingSamples() {
	r.rebuild()
}

// Resample pulls from the bound decoder as needed and fills at most
// dstLen floats of dst, returning the number of samples written. May
// write fewer on decoder EOS.
func (r *Resampler) Resample(dst []float32, dstLen int) int {
	if dstLen > len(dst) {
		dstLen = len(dst)
	}
	ch := int(r.channels)
	filled := 0

	for filled < dstLen {
		if r.pendingFrames() == 0 {
			if r.decoderDone {
				break
			}
			r.topUp()
			if r.pendingFrames() == 0 {
				break
			}
		}

		wantFrames := (dstLen - filled) / ch
		if wantFrames == 0 {
			break
		}
		readFrames, writtenFrames := r.processChunk(wantFrames, dst[filled:])
		filled += writtenFrames * ch
		r.advance(readFrames)

		if readFrames == 0 && writtenFrames == 0 {
			break
		}
	}
	return filled
}

func (r *Resampler) pendingFrames() int {
	return len(r.pending[0])
}

// topUp decodes one more chunk from the bound decoder and appends it,
// de-interleaved, onto the pending planar buffers.
func (r *Resampler) topUp() {
	ch := int(r.channels)
	need := r.chunk * ch
	if cap(r.decodeBuf) < need {
		r.decodeBuf = make([]float32, need)
	}
	buf := r.decodeBuf[:need]

	var callAgain bool
	n := r.dec.Decode(buf, &callAgain, r.channels)
	if n == 0 && !callAgain {
		r.decoderDone = true
	}
	frames := n / ch
	for c := 0; c < ch; c++ {
		grown := make([]float32, len(r.pending[c])+frames)
		copy(grown, r.pending[c])
		for i := 0; i < frames; i++ {
			grown[len(r.pending[c])+i] = buf[i*ch+c]
		}
		r.pending[c] = grown
	}
}

// processChunk resamples up to wantFrames frames of pending input
// into dst (interleaved), returning frames consumed and frames
// produced.
func (r *Resampler) processChunk(wantFrames int, dst []float32) (readFrames, writtenFrames int) {
	ch := int(r.channels)
	srcFrames := r.pendingFrames()
	if srcFrames == 0 {
		return 0, 0
	}

	planarDst := make([][]float32, ch)
	minWritten := -1
	minRead := -1
	for c := 0; c < ch; c++ {
		planarDst[c] = make([]float32, wantFrames)
		read, written := r.inner.ProcessFloat32(c, r.pending[c], planarDst[c])
		if minWritten == -1 || written < minWritten {
			minWritten = written
		}
		if minRead == -1 || read < minRead {
			minRead = read
		}
	}
	for c := 0; c < ch; c++ {
		for i := 0; i < minWritten; i++ {
			dst[i*ch+c] = planarDst[c][i]
		}
	}
	return minRead, minWritten
}

func (r *Resampler) advance(readFrames int) {
	if readFrames <= 0 {
		return
	}
	for c := range r.pending {
		if readFrames >= len(r.pending[c]) {
			r.pending[c] = r.pending[c][:0]
		} else {
			r.pending[c] = append([]float32(nil), r.pending[c][readFrames:]...)
		}
	}
}

// Package playback implements the per-stream state machine spec.md
// §4.G describes: state, volume, pan, fade envelope, loop policy, and
// the finish-callback guarantee. It is new relative to the teacher,
// whose AudioAugmentationDevice only ever applies a constant gain
// (pkg/audiodevice/device/audioaugmentationdevice.go:
// "sourceFrame[i] *= magnitude"); that one multiply is generalized
// here into per-channel gain from volume × fade × pan. The field
// layout mirrors _examples/original_source/src/musac/mixer_snapshot.hh's
// stream_state struct, renamed to Go idiom. None of Stream's methods
// take a lock of their own: per spec.md §5 the owning mixer acquires
// its single mutex before calling into any of them.
package playback

import (
	"time"

	"github.com/ijakenorton/musac-go/pkg/audiosource"
)

// State is one node of the per-stream state machine.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateStopping
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// FadeKind names which leg of the envelope a stream is in.
type FadeKind int

const (
	FadeInactive FadeKind = iota
	FadeIn
	FadeSustained
	FadeOut
)

// Fade is the envelope state spec.md §4.G carries per stream.
type Fade struct {
	Kind      FadeKind
	Remaining time.Duration
	Total     time.Duration
}

// Gain returns the linear envelope multiplier for the current fade
// state (spec.md §4.G: "gain = remaining/total for fade-out;
// gain = 1 - remaining/total for fade-in; gain = 1 for
// Sustained/Inactive").
func (f Fade) Gain() float32 {
	switch f.Kind {
	case FadeOut:
		if f.Total <= 0 {
			return 0
		}
		return float32(f.Remaining) / float32(f.Total)
	case FadeIn:
		if f.Total <= 0 {
			return 1
		}
		return 1 - float32(f.Remaining)/float32(f.Total)
	default:
		return 1
	}
}

// advance subtracts d from the envelope's remaining time, reporting
// whether the envelope just completed (Remaining hit zero).
func (f *Fade) advance(d time.Duration) (completed bool) {
	if f.Kind != FadeIn && f.Kind != FadeOut {
		return false
	}
	f.Remaining -= d
	if f.Remaining <= 0 {
		f.Remaining = 0
		if f.Kind == FadeIn {
			f.Kind = FadeSustained
		}
		return f.Kind == FadeOut
	}
	return false
}

// LoopPolicy controls how many times a stream's decoder EOS restarts
// playback before the stream finishes.
type LoopPolicy struct {
	infinite bool
	n        uint32
}

// Finite loops the stream n additional times after the first
// play-through before it finishes.
func Finite(n uint32) LoopPolicy { return LoopPolicy{n: n} }

// Infinite loops the stream forever.
func Infinite() LoopPolicy { return LoopPolicy{infinite: true} }

// FinishFunc is invoked exactly once when a stream transitions to
// StateFinished (spec.md §4.G's finish-callback guarantee). It is
// always called outside the mixer's lock.
type FinishFunc func(s *Stream)

// Stream is one mixer-registered playback voice: a source plus the
// full state-machine fields of spec.md §4.G.
type Stream struct {
	Source *audiosource.Source

	state State

	Volume  float32
	Pan     float32 // stereo_position, -1.0..+1.0
	Muted   bool

	fade Fade

	loop             LoopPolicy
	currentIteration uint32

	frameCursor    uint64
	onFinish       FinishFunc
	finishInvoked  bool
}

// New wraps src in an idle stream with unity volume, centered pan, and
// a single-shot (non-looping) policy.
func New(src *audiosource.Source) *Stream {
	return &Stream{
		Source: src,
		state:  StateIdle,
		Volume: 1.0,
		loop:   Finite(0),
	}
}

// State reports the current node of the state machine.
func (s *Stream) State() State { return s.state }

// SetLoopPolicy configures looping. Valid before or during playback.
func (s *Stream) SetLoopPolicy(p LoopPolicy) { s.loop = p }

// SetFinishFunc registers the callback invoked exactly once on
// transition to StateFinished.
func (s *Stream) SetFinishFunc(fn FinishFunc) { s.onFinish = fn }

// Play transitions idle -> playing, resetting the cursor and
// registering a fade-in if one was pre-set via PlayWithFadeIn.
func (s *Stream) Play() {
	s.frameCursor = 0
	s.currentIteration = 0
	if s.fade.Kind != FadeIn {
		s.fade = Fade{Kind: FadeInactive}
	}
	s.state = StatePlaying
}

// PlayWithFadeIn transitions idle -> playing with envelope =
// FadingIn(d, d).
func (s *Stream) PlayWithFadeIn(d time.Duration) {
	s.fade = Fade{Kind: FadeIn, Remaining: d, Total: d}
	s.Play()
}

// Pause transitions playing -> paused. The mixer continues to track
// the stream but skips pulling samples from it.
func (s *Stream) Pause() {
	if s.state == StatePlaying {
		s.state = StatePaused
	}
}

// Resume transitions paused -> playing.
func (s *Stream) Resume() {
	if s.state == StatePaused {
		s.state = StatePlaying
	}
}

// Stop transitions playing/paused -> finished. It only flips state;
// the owning mixer invokes the finish callback via InvokeFinish once
// its lock is released (spec.md §4.G: "never re-entrant into the
// mixer lock").
func (s *Stream) Stop() {
	if s.state == StatePlaying || s.state == StatePaused {
		s.state = StateFinished
	}
}

// StopWithFadeOut transitions playing -> stopping; the stream remains
// mixed, scaled by the fade-out envelope, until it completes.
func (s *Stream) StopWithFadeOut(d time.Duration) {
	if s.state != StatePlaying {
		s.Stop()
		return
	}
	s.fade = Fade{Kind: FadeOut, Remaining: d, Total: d}
	s.state = StateStopping
}

// Rewind restarts the underlying source and resets the frame cursor,
// valid from any state.
func (s *Stream) Rewind() bool {
	ok := s.Source.Rewind()
	s.frameCursor = 0
	return ok
}

// Active reports whether the mixer should pull samples from this
// stream this callback (spec.md §4.H step 3a).
func (s *Stream) Active() bool {
	return (s.state == StatePlaying || s.state == StateStopping) && !s.Muted
}

// Gains returns the left/right channel multipliers derived from
// volume, the fade envelope, and the constant-gain pan law of
// spec.md §4.G.
func (s *Stream) Gains() (left, right float32) {
	v := s.Volume * s.fade.Gain()
	p := s.Pan

	gl := float32(1)
	if p >= 0 {
		gl = (1 - p) / 2
	}
	gr := float32(1)
	if p <= 0 {
		gr = (1 + p) / 2
	}
	return v * gl, v * gr
}

// AdvanceFade progresses the fade envelope by the duration represented
// by the samples just mixed. If a fade-out just completed, the stream
// transitions to finished and the caller must invoke the finish
// callback once the mixer's lock is released.
func (s *Stream) AdvanceFade(d time.Duration) (justFinishedFadeOut bool) {
	if s.fade.advance(d) {
		s.state = StateFinished
		return true
	}
	return false
}

// HandleEOS applies the loop policy when the source reports
// end-of-stream. It returns true if the stream should transition to
// finished (the caller invokes the finish callback after unlocking).
func (s *Stream) HandleEOS() (justFinished bool) {
	if s.loop.infinite || s.currentIteration < s.loop.n {
		s.currentIteration++
		s.Source.Rewind()
		s.frameCursor = 0
		return false
	}
	s.state = StateFinished
	return true
}

// InvokeFinish calls the registered finish callback, exactly once
// regardless of how many times it is invoked. Callers use this after
// Stop, HandleEOS, or AdvanceFade report a transition to finished, and
// only once the mixer's lock has been released.
func (s *Stream) InvokeFinish() {
	if s.finishInvoked {
		return
	}
	s.finishInvoked = true
	if s.onFinish != nil {
		s.onFinish(s)
	}
}

// AdvanceCursor advances the stream's frame cursor by n frames, used
// by the mixer for bookkeeping/telemetry.
func (s *Stream) AdvanceCursor(n uint64) { s.frameCursor += n }

// FrameCursor reports frames mixed since the last Play/Rewind.
func (s *Stream) FrameCursor() uint64 { return s.frameCursor }

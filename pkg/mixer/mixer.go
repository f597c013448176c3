// Package mixer sums the active streams registered with it into one
// float buffer per device callback. Its snapshot-under-lock,
// invoke-callbacks-after-unlock shape is grounded on the teacher's
// FanOutDevice (pkg/audiodevice/device/faninfanoutdevice.go), which
// snapshots its sink set under a mutex before fanning a frame out;
// here the same discipline guards summation instead of distribution.
// The adaptive buffer-sizing algorithm has no teacher analogue (it
// always allocates per callback via make(frame.PCMFrame, ...)) and
// follows spec.md §4.H's constants and thresholds directly.
package mixer

import (
	"sync"
	"time"

	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/playback"
)

// Adaptive sizing constants, spec.md §4.H.
const (
	MinBufferSamples    = 4096
	MaxRetainedSamples  = 262144
	StabilityFrames     = 100
)

// Mixer owns the set of registered streams and the scratch buffers
// used to sum them, all behind one mutex (spec.md §5).
type Mixer struct {
	mu sync.Mutex

	rate    audiospec.Rate
	streams map[*playback.Stream]struct{}

	mixBuf           []float32
	scratchBuf       []float32
	allocatedSamples int
	smallRequestRun  uint32
}

// New creates a mixer that computes fade durations against rate (the
// device's negotiated sample rate).
func New(rate audiospec.Rate) *Mixer {
	return &Mixer{
		rate:    rate,
		streams: make(map[*playback.Stream]struct{}),
	}
}

// Register adds s to the mixer without changing its playback state.
func (m *Mixer) Register(s *playback.Stream) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streams[s] = struct{}{}
}

// Unregister removes s from the mixer.
func (m *Mixer) Unregister(s *playback.Stream) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.streams, s)
}

// Play transitions s to playing and registers it (spec.md §4.G:
// "play() idle -> playing ... registers with mixer").
func (m *Mixer) Play(s *playback.Stream) {
	m.mu.Lock()
	s.Play()
	m.streams[s] = struct{}{}
	m.mu.Unlock()
}

// PlayWithFadeIn is Play with a pre-set fade-in envelope.
func (m *Mixer) PlayWithFadeIn(s *playback.Stream, d time.Duration) {
	m.mu.Lock()
	s.PlayWithFadeIn(d)
	m.streams[s] = struct{}{}
	m.mu.Unlock()
}

// Pause transitions s to paused; the mixer keeps it registered but
// skips pulling samples from it.
func (m *Mixer) Pause(s *playback.Stream) {
	m.mu.Lock()
	s.Pause()
	m.mu.Unlock()
}

// Resume transitions s back to playing.
func (m *Mixer) Resume(s *playback.Stream) {
	m.mu.Lock()
	s.Resume()
	m.mu.Unlock()
}

// Stop transitions s to finished immediately and invokes its finish
// callback once the lock is released (spec.md §4.G).
func (m *Mixer) Stop(s *playback.Stream) {
	m.mu.Lock()
	s.Stop()
	finished := s.State() == playback.StateFinished
	if finished {
		delete(m.streams, s)
	}
	m.mu.Unlock()

	if finished {
		s.InvokeFinish()
	}
}

// StopWithFadeOut schedules a fade-out; s remains mixed, scaled by the
// envelope, until Mix() observes the fade complete.
func (m *Mixer) StopWithFadeOut(s *playback.Stream, d time.Duration) {
	m.mu.Lock()
	s.StopWithFadeOut(d)
	m.mu.Unlock()
}

// AllocatedSamples reports the mixer's current buffer allocation, for
// tests observing the adaptive sizing policy.
func (m *Mixer) AllocatedSamples() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocatedSamples
}

// CompactBuffers unconditionally shrinks the mixer's buffers to
// MinBufferSamples, but only if the current allocation exceeds
// 4*MinBufferSamples (spec.md §4.H); otherwise it is a no-op.
func (m *Mixer) CompactBuffers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.allocatedSamples > 4*MinBufferSamples {
		m.allocatedSamples = MinBufferSamples
		m.mixBuf = make([]float32, MinBufferSamples)
		m.scratchBuf = make([]float32, MinBufferSamples)
		m.smallRequestRun = 0
	}
}

// Mix is the per-callback entry point (spec.md §4.H's callback
// algorithm): it sums every active, unmuted stream into a buffer of n
// float samples at deviceChannels channel count, applying each
// stream's volume/fade/pan gain, and returns the buffer. The returned
// slice is only valid until the next call to Mix.
func (m *Mixer) Mix(n int, deviceChannels audiospec.Channels) []float32 {
	m.mu.Lock()

	m.resizeBuffers(n)
	buf := m.mixBuf[:n]
	for i := range buf {
		buf[i] = 0
	}

	var toFinish []*playback.Stream
	var toRemove []*playback.Stream
	ch := int(deviceChannels)
	frameDuration := time.Duration(0)
	if m.rate > 0 && ch > 0 {
		frames := n / ch
		frameDuration = time.Duration(float64(frames) / float64(m.rate) * float64(time.Second))
	}

	for s := range m.streams {
		if !s.Active() {
			continue
		}

		scratch := m.scratchBuf[:n]
		cursor := 0
		s.Source.ReadSamples(scratch, &cursor, n, deviceChannels)
		for i := cursor; i < n; i++ {
			scratch[i] = 0
		}

		gl, gr := s.Gains()
		if ch == 2 {
			for i := 0; i < n; i += 2 {
				buf[i] += scratch[i] * gl
				if i+1 < n {
					buf[i+1] += scratch[i+1] * gr
				}
			}
		} else {
			for i := 0; i < n; i++ {
				buf[i] += scratch[i] * gl
			}
		}

		finishedThisStream := false
		if cursor < n {
			if s.HandleEOS() {
				finishedThisStream = true
			}
		}
		if s.AdvanceFade(frameDuration) {
			finishedThisStream = true
		}
		if ch > 0 {
			s.AdvanceCursor(uint64(n / ch))
		}

		if finishedThisStream {
			toFinish = append(toFinish, s)
			toRemove = append(toRemove, s)
		}
	}

	for _, s := range toRemove {
		delete(m.streams, s)
	}
	m.mu.Unlock()

	for _, s := range toFinish {
		s.InvokeFinish()
	}
	return buf
}

// resizeBuffers implements spec.md §4.H's adaptive sizing policy.
// Must be called with mu held.
func (m *Mixer) resizeBuffers(n int) {
	if n > m.allocatedSamples {
		m.allocatedSamples = n
		m.mixBuf = make([]float32, n)
		m.scratchBuf = make([]float32, n)
		m.smallRequestRun = 0
		return
	}

	if m.allocatedSamples > MaxRetainedSamples && n < m.allocatedSamples/4 {
		m.smallRequestRun++
		if m.smallRequestRun > StabilityFrames {
			newSize := n
			if newSize < MinBufferSamples {
				newSize = MinBufferSamples
			}
			m.allocatedSamples = newSize
			m.mixBuf = make([]float32, newSize)
			m.scratchBuf = make([]float32, newSize)
			m.smallRequestRun = 0
		}
		return
	}

	if n >= m.allocatedSamples/4 {
		m.smallRequestRun = 0
	}
}

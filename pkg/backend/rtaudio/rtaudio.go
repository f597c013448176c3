// Package rtaudio adapts the teacher's internal/rtaudio cgo bindings
// (internal/rtaudio/device.go's RtAudio interface) into the
// backend.Backend capability set spec.md §4.K requires. Like the
// teacher's own package, it needs the vendored RtAudio C++ sources to
// actually link — they were never committed to the teacher repo
// either, so this backend is exercised by neither the teacher nor
// this module's tests; it exists as the real-hardware counterpart to
// backend/dummy, gated behind the cgo build tag so the rest of the
// module never depends on it compiling. Concrete backends are out of
// scope for the core per spec.md §1 — the upstream musac project's
// own SDL2/SDL3 backends are external in exactly the same way.
//go:build cgo

package rtaudio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ijakenorton/musac-go/internal/rtaudio"
	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/backend"
)

// Backend adapts one internal/rtaudio.RtAudio controller to
// backend.Backend.
type Backend struct {
	mu          sync.Mutex
	initialized bool
	audio       rtaudio.RtAudio

	nextHandle uint64
	handles    map[backend.Handle]*openStream
}

type openStream struct {
	spec     audiospec.Spec
	gain     float32
	paused   bool
	callback backend.StreamCallback
}

// New constructs an uninitialized rtaudio backend.
func New() *Backend {
	return &Backend{handles: make(map[backend.Handle]*openStream), initialized: false}
}

func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	audio, err := rtaudio.Create(rtaudio.APIUnspecified)
	if err != nil {
		return fmt.Errorf("rtaudio: create: %w", err)
	}
	b.audio = audio
	b.initialized = true
	return nil
}

func (b *Backend) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.audio != nil {
		b.audio.Destroy()
	}
	b.initialized = false
}

func (b *Backend) IsInitialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized
}

func (b *Backend) Name() string { return "rtaudio" }

func (b *Backend) EnumerateDevices(playback bool) ([]backend.DeviceInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	devices, err := b.audio.Devices()
	if err != nil {
		return nil, err
	}
	out := make([]backend.DeviceInfo, 0, len(devices))
	for i, d := range devices {
		if playback && d.NumOutputChannels == 0 {
			continue
		}
		if !playback && d.NumInputChannels == 0 {
			continue
		}
		out = append(out, backend.DeviceInfo{ID: i, Name: d.Name, Playback: playback})
	}
	return out, nil
}

func (b *Backend) DefaultDevice(playback bool) (backend.DeviceInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if playback {
		d := b.audio.DefaultOutputDevice()
		return backend.DeviceInfo{ID: b.audio.DefaultOutputDeviceId(), Name: d.Name, Playback: true}, nil
	}
	d := b.audio.DefaultInputDevice()
	return backend.DeviceInfo{ID: b.audio.DefaultInputDeviceId(), Name: d.Name, Playback: false}, nil
}

// OpenDevice opens desired on device id and wires cb as the
// callback invoked from RtAudio's own audio thread, converting its
// float32 buffer view into the byte-oriented contract backend.Backend
// callers expect (spec.md §4.K's stream_interface uses push
// semantics: the core writes float-converted bytes on each callback).
func (b *Backend) OpenDevice(id int, desired audiospec.Spec, bufferFrames int, cb backend.StreamCallback) (backend.Handle, audiospec.Spec, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	params := &rtaudio.StreamParams{
		DeviceID:    uint(id),
		NumChannels: uint(desired.Channels),
	}

	b.nextHandle++
	h := backend.Handle(b.nextHandle)
	st := &openStream{spec: desired, gain: 1.0, callback: cb}
	b.handles[h] = st

	rtCallback := func(out, in rtaudio.Buffer, dur time.Duration, status rtaudio.StreamStatus) int {
		floats := out.Float32()
		if floats == nil {
			return 0
		}
		buf := make([]byte, len(floats)*4)
		st.callback(buf, len(buf))
		for i := range floats {
			floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4 : i*4+4]))
		}
		return 0
	}

	err := b.audio.Open(params, nil, rtaudio.FormatFloat32, uint(desired.Rate), uint(bufferFrames), rtCallback, nil)
	if err != nil {
		delete(b.handles, h)
		return 0, audiospec.Spec{}, fmt.Errorf("rtaudio: open: %w", err)
	}
	if err := b.audio.Start(); err != nil {
		delete(b.handles, h)
		return 0, audiospec.Spec{}, fmt.Errorf("rtaudio: start: %w", err)
	}

	return h, desired, nil
}

func (b *Backend) CloseDevice(h backend.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handles, h)
	return b.audio.Stop()
}

func (b *Backend) DeviceFormat(h backend.Handle) audiospec.Spec {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.handles[h]; ok {
		return st.spec
	}
	return audiospec.Spec{}
}

func (b *Backend) Gain(h backend.Handle) float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.handles[h]; ok {
		return st.gain
	}
	return 0
}

func (b *Backend) SetGain(h backend.Handle, gain float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.handles[h]; ok {
		st.gain = gain
	}
	return nil
}

func (b *Backend) Pause(h backend.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.handles[h]; ok {
		st.paused = true
	}
	return b.audio.Stop()
}

func (b *Backend) Resume(h backend.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.handles[h]; ok {
		st.paused = false
	}
	return b.audio.Start()
}

func (b *Backend) IsPaused(h backend.Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.handles[h]; ok {
		return st.paused
	}
	return false
}

// HasHardwareMute always reports false: RtAudio exposes gain control
// through the stream's own volume, not a hardware mute switch, so
// callers fall back to SetGain(0) (spec.md §4.I).
func (b *Backend) HasHardwareMute(h backend.Handle) bool { return false }

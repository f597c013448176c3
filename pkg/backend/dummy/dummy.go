// Package dummy is a real, always-available backend with no cgo
// dependency: one input-less output device that pulls and discards
// frames. Grounded on the teacher's
// internal/audioapi/dummyapi.go DummyAudioIODeviceAPI, which lists
// exactly one dummy input and one dummy output device; this backend
// narrows that to the single playback device spec.md §4.K needs and
// actually drives the pull callback on a goroutine so tests can
// observe real callback traffic instead of a device that "consumes
// all frames and does nothing".
package dummy

import (
	"sync"
	"time"

	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/backend"
)

const deviceID = 0

// Backend is the zero-dependency default used by tests and by callers
// who don't need real hardware output.
type Backend struct {
	mu          sync.Mutex
	initialized bool

	handle   backend.Handle
	open     bool
	spec     audiospec.Spec
	gain     float32
	paused   bool
	callback backend.StreamCallback

	stop chan struct{}
	wg   sync.WaitGroup

	nextHandle uint64
}

// New constructs an uninitialized dummy backend.
func New() *Backend {
	return &Backend{gain: 1.0}
}

func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = true
	return nil
}

func (b *Backend) Shutdown() {
	b.mu.Lock()
	open := b.open
	b.initialized = false
	b.mu.Unlock()
	if open {
		b.CloseDevice(b.handle)
	}
}

func (b *Backend) IsInitialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized
}

func (b *Backend) Name() string { return "dummy" }

func (b *Backend) EnumerateDevices(playback bool) ([]backend.DeviceInfo, error) {
	if !playback {
		return nil, nil
	}
	return []backend.DeviceInfo{{ID: deviceID, Name: "DummyOutput", Playback: true}}, nil
}

func (b *Backend) DefaultDevice(playback bool) (backend.DeviceInfo, error) {
	return backend.DeviceInfo{ID: deviceID, Name: "DummyOutput", Playback: playback}, nil
}

func (b *Backend) OpenDevice(id int, desired audiospec.Spec, bufferFrames int, cb backend.StreamCallback) (backend.Handle, audiospec.Spec, error) {
	b.mu.Lock()
	b.nextHandle++
	h := backend.Handle(b.nextHandle)
	b.handle = h
	b.open = true
	b.spec = desired
	b.callback = cb
	b.stop = make(chan struct{})
	if bufferFrames <= 0 {
		bufferFrames = 1024
	}
	bytesPerCallback := bufferFrames * int(desired.Channels) * desired.Format.BytesPerSample()
	b.mu.Unlock()

	b.wg.Add(1)
	go b.pumpLoop(h, bytesPerCallback)

	return h, desired, nil
}

// pumpLoop periodically invokes the bound callback, standing in for
// the real audio thread a hardware backend would drive.
func (b *Backend) pumpLoop(h backend.Handle, bytesPerCallback int) {
	defer b.wg.Done()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.mu.Lock()
			paused := b.paused
			cb := b.callback
			b.mu.Unlock()
			if paused || cb == nil {
				continue
			}
			buf := make([]byte, bytesPerCallback)
			cb(buf, bytesPerCallback)
		}
	}
}

func (b *Backend) CloseDevice(h backend.Handle) error {
	b.mu.Lock()
	if !b.open {
		b.mu.Unlock()
		return nil
	}
	close(b.stop)
	b.open = false
	b.mu.Unlock()
	b.wg.Wait()
	return nil
}

func (b *Backend) DeviceFormat(h backend.Handle) audiospec.Spec {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spec
}

func (b *Backend) Gain(h backend.Handle) float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gain
}

func (b *Backend) SetGain(h backend.Handle, gain float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gain = gain
	return nil
}

func (b *Backend) Pause(h backend.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = true
	return nil
}

func (b *Backend) Resume(h backend.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = false
	return nil
}

func (b *Backend) IsPaused(h backend.Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

// HasHardwareMute always reports false: the dummy backend has no
// hardware concept of mute, so callers fall back to SetGain(0) per
// spec.md §4.I.
func (b *Backend) HasHardwareMute(h backend.Handle) bool { return false }

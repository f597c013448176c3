// Package device binds a mixer to one opened backend device handle
// and performs the pull-via-callback loop spec.md §4.I describes.
// Device identity (uuid.UUID + *slog.Logger) and the fill-or-silence,
// log-on-underflow shape of Callback are grounded directly on the
// teacher's RtAudioOutputDevice
// (pkg/audiodevice/device/rtaudiooutputdevice.go), restructured from
// a push-via-channel model — the teacher feeds a frameQueue from a
// goroutine and lets RtAudio's own callback drain it — into the
// pull-via-callback model spec.md §4.I requires: here the backend
// calls Device.Callback directly instead of the device feeding a
// channel.
package device

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ijakenorton/musac-go/internal/muserr"
	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/backend"
	"github.com/ijakenorton/musac-go/pkg/mixer"
	"github.com/ijakenorton/musac-go/pkg/playback"
	"github.com/ijakenorton/musac-go/pkg/sampleformat"
)

// DefaultFrameSize is the per-callback sample count spec.md §4.I
// names as the default.
const DefaultFrameSize = 4096

// Device binds one backend handle to a shared mixer.
type Device struct {
	logger *slog.Logger
	uuid   uuid.UUID

	be     backend.Backend
	handle backend.Handle
	spec   audiospec.Spec

	mixer     *mixer.Mixer
	frameSize int

	mu             sync.Mutex
	previousGain   float32
	hardwareMuted  bool
}

// OpenDefault negotiates with be's default playback device (spec.md
// §4.I's open_default operation) using DefaultFrameSize.
func OpenDefault(be backend.Backend, desired audiospec.Spec) (*Device, error) {
	return OpenDefaultWithFrameSize(be, desired, DefaultFrameSize)
}

// OpenDefaultWithFrameSize is OpenDefault with an explicit per-callback
// frame count, as internal/config.Config.FrameSize supplies when a
// caller loads one.
func OpenDefaultWithFrameSize(be backend.Backend, desired audiospec.Spec, frameSize int) (*Device, error) {
	info, err := be.DefaultDevice(true)
	if err != nil {
		return nil, muserr.New(muserr.KindDevice, "device.open_default", err)
	}
	return OpenWithFrameSize(be, info.ID, desired, frameSize)
}

// Open negotiates with be's device deviceID (spec.md §4.I's open
// operation) using DefaultFrameSize.
func Open(be backend.Backend, deviceID int, desired audiospec.Spec) (*Device, error) {
	return OpenWithFrameSize(be, deviceID, desired, DefaultFrameSize)
}

// OpenWithFrameSize is Open with an explicit per-callback frame count:
// it asks the backend for an actual (format, channels, rate), then
// looks up the from-float converter for that format and creates the
// shared mixer.
func OpenWithFrameSize(be backend.Backend, deviceID int, desired audiospec.Spec, frameSize int) (*Device, error) {
	id := uuid.New()
	logger := slog.Default().With("device_uuid", id)

	if frameSize <= 0 {
		frameSize = DefaultFrameSize
	}

	d := &Device{
		logger:       logger,
		uuid:         id,
		be:           be,
		frameSize:    frameSize,
		previousGain: 1.0,
	}

	handle, obtained, err := be.OpenDevice(deviceID, desired, d.frameSize, d.Callback)
	if err != nil {
		logger.Error("failed to open backend device", "err", err)
		return nil, muserr.New(muserr.KindDevice, "device.open", err)
	}

	d.handle = handle
	d.spec = obtained
	d.mixer = mixer.New(obtained.Rate)
	d.hardwareMuted = be.HasHardwareMute(handle)

	logger.Info("opened audio device",
		"format", obtained.Format,
		"channels", obtained.Channels,
		"rate", obtained.Rate,
	)
	return d, nil
}

// Callback computes the requested sample count from additionalBytes,
// pulls that many samples from the mixer, and writes them into out in
// the device's negotiated byte format (spec.md §4.I's device
// callback). Driven by the backend, on its audio thread.
func (d *Device) Callback(out []byte, additionalBytes int) {
	bytesPerSample := d.spec.Format.BytesPerSample()
	if bytesPerSample == 0 {
		return
	}
	samplesNeeded := additionalBytes / bytesPerSample

	mixed := d.mixer.Mix(samplesNeeded, d.spec.Channels)

	written, ok := sampleformat.FromFloat(out, mixed, d.spec.Format)
	if !ok {
		d.logger.Warn("no from-float converter for device format", "format", d.spec.Format)
		return
	}
	if written*bytesPerSample < len(out) {
		d.logger.Warn("output underflow detected", "written", written, "needed", samplesNeeded)
	}
}

// CreateStream registers src, an already-built playback.Stream, with
// this device's mixer and returns it (spec.md §4.I's create_stream
// operation). It does not build a stream from an audio source.
func (d *Device) CreateStream(src *playback.Stream) *playback.Stream {
	d.mixer.Register(src)
	return src
}

// Mixer exposes the shared mixer so callers can drive play/pause/stop
// transitions.
func (d *Device) Mixer() *mixer.Mixer { return d.mixer }

// Pause pauses the backend device (not to be confused with pausing an
// individual stream).
func (d *Device) Pause() error { return d.be.Pause(d.handle) }

// Resume resumes the backend device.
func (d *Device) Resume() error { return d.be.Resume(d.handle) }

// IsPaused reports whether the backend device is paused.
func (d *Device) IsPaused() bool { return d.be.IsPaused(d.handle) }

// Gain reports the backend device's output gain.
func (d *Device) Gain() float32 { return d.be.Gain(d.handle) }

// SetGain sets the backend device's output gain.
func (d *Device) SetGain(gain float32) error { return d.be.SetGain(d.handle, gain) }

// Mute silences the device. If the backend has no hardware mute,
// Mute stashes the current gain and falls back to SetGain(0) (spec.md
// §4.I's hardware mute fallback). If the backend reports hardware
// mute, Mute returns nil and changes nothing: backend.Backend has no
// hardware-mute call.
func (d *Device) Mute() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hardwareMuted {
		return nil
	}
	d.previousGain = d.be.Gain(d.handle)
	return d.be.SetGain(d.handle, 0)
}

// Unmute restores the gain stashed by Mute. Like Mute, it changes
// nothing when the backend reports hardware mute.
func (d *Device) Unmute() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hardwareMuted {
		return nil
	}
	return d.be.SetGain(d.handle, d.previousGain)
}

// Close closes the backend device handle.
func (d *Device) Close() error {
	return d.be.CloseDevice(d.handle)
}


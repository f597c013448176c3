// Package backend defines the capability set spec.md §4.K requires of
// a concrete audio backend. It is grounded directly on the teacher's
// internal/rtaudio.RtAudio interface (Devices, DefaultOutputDevice,
// Open, Close, Start, Stop) and internal/audioapi.AudioIODeviceAPI;
// concrete backends are out of scope for the core (spec.md §1), so
// this package holds only the interface plus the types it trades in.
package backend

import "github.com/ijakenorton/musac-go/pkg/audiospec"

// DeviceInfo describes one enumerated playback or capture device.
type DeviceInfo struct {
	ID       int
	Name     string
	Playback bool
}

// Handle is an opaque, nonzero device handle returned by OpenDevice.
type Handle uint64

// StreamCallback is invoked by the backend on its audio thread to pull
// additional_bytes worth of already-converted PCM.
type StreamCallback func(out []byte, additionalBytes int)

// Backend is the capability set spec.md §4.K describes. Concrete
// implementations (dummy, rtaudio) adapt a real audio API to this
// shape.
type Backend interface {
	Init() error
	Shutdown()
	IsInitialized() bool
	Name() string

	EnumerateDevices(playback bool) ([]DeviceInfo, error)
	DefaultDevice(playback bool) (DeviceInfo, error)

	// OpenDevice opens device id at the desired spec, driving cb from
	// bufferFrames-sized chunks where the backend supports choosing
	// (spec.md §4.I's frame_size, default 4096). A backend may ignore
	// bufferFrames and pick its own chunk size.
	OpenDevice(id int, desired audiospec.Spec, bufferFrames int, cb StreamCallback) (Handle, audiospec.Spec, error)
	CloseDevice(h Handle) error

	DeviceFormat(h Handle) audiospec.Spec
	Gain(h Handle) float32
	SetGain(h Handle, gain float32) error
	Pause(h Handle) error
	Resume(h Handle) error
	IsPaused(h Handle) bool

	// HasHardwareMute reports whether this backend offers a mute of its
	// own; when it reports false, SetGain(0) is the only mute mechanism
	// (spec.md §4.I's mute fallback).
	HasHardwareMute(h Handle) bool
}

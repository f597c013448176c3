// Package system is the process-wide audio system singleton spec.md
// §4.J describes: one-shot init/done around a chosen backend, with
// device enumeration as a thin wrapper. Grounded on the teacher's
// cmd/config.LoadConfig one-shot init/validate pattern and
// internal/utils.ConfigureDefaultLogger, restructured from
// package-level config loading into a mutex-guarded object since
// spec.md §4.J's lifecycle invariant ("between init and done the
// backend's is_initialized() returns true; calling any device-opening
// API outside this window is an error") needs a concrete receiver to
// hold the guarded state on. The guard is a plain mutex + started
// flag rather than sync.Once: Once.Do consumes itself even when the
// function passed to it fails, which would permanently strand a
// caller whose first Init attempt hit a transient backend error.
package system

import (
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/ijakenorton/musac-go/internal/config"
	"github.com/ijakenorton/musac-go/internal/logging"
	"github.com/ijakenorton/musac-go/internal/muserr"
	"github.com/ijakenorton/musac-go/pkg/backend"
)

var errNotInitialized = errors.New("system not initialized: call Init first")

// System is a process-wide singleton. The zero value is usable; call
// Init before opening any devices.
type System struct {
	mu      sync.Mutex
	be      backend.Backend
	started bool
}

var shared System

// Init wires be as the chosen backend and calls its Init, matching
// spec.md §4.J's one-shot init(backend) -> bool. A call while already
// started is a no-op; after Done, Init binds a backend again. A
// failed be.Init() leaves started false, so a later Init(be) call
// retries instead of silently reporting success — guarding with the
// mutex and a started check, rather than sync.Once, is what makes
// that retry possible: sync.Once consumes itself on a failed attempt
// just as surely as a successful one.
func Init(be backend.Backend) error {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.started {
		return nil
	}
	if initErr := be.Init(); initErr != nil {
		return muserr.New(muserr.KindDevice, "system.init", initErr)
	}
	shared.be = be
	shared.started = true
	return nil
}

// InitFromConfig applies cfg's ambient settings (log level/file via
// internal/logging.Configure) before performing the same one-shot
// Init as above. The returned *os.File, if non-nil, is the opened log
// file the caller should Close on shutdown; see internal/logging.Configure.
func InitFromConfig(cfg config.Config, be backend.Backend) (*os.File, error) {
	f, logErr := logging.Configure(cfg.LogLevel, cfg.LogFile, slog.HandlerOptions{})
	if logErr != nil {
		return nil, muserr.New(muserr.KindState, "system.init_from_config", logErr)
	}
	if initErr := Init(be); initErr != nil {
		return f, initErr
	}
	return f, nil
}

// Done shuts the backend down. It does not close devices that are
// still open: each Device is closed only by its own Close
// (pkg/device.Close).
func Done() {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if !shared.started {
		return
	}
	shared.be.Shutdown()
	shared.started = false
}

// IsInitialized reports whether the system is between Init and Done.
func IsInitialized() bool {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	return shared.started && shared.be != nil && shared.be.IsInitialized()
}

// Backend returns the backend bound by Init, or an error if the
// system has not been initialized (spec.md §4.J's lifecycle
// invariant).
func Backend() (backend.Backend, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if !shared.started {
		return nil, muserr.New(muserr.KindState, "system.backend", errNotInitialized)
	}
	return shared.be, nil
}

// EnumerateDevices is a convenience wrapper over the bound backend's
// enumerate_devices (spec.md §4.J).
func EnumerateDevices(playback bool) ([]backend.DeviceInfo, error) {
	be, err := Backend()
	if err != nil {
		return nil, err
	}
	return be.EnumerateDevices(playback)
}

// Package config loads the ambient settings spec.md's distillation is
// silent on (log level/destination, default per-callback frame size,
// preferred backend name) via github.com/spf13/viper, the same
// library and default-then-override shape as the teacher's
// cmd/config.LoadConfig and internal/utils.SetViperDefaults. Unlike
// the teacher's CLI, which panics on a bad config since there is no
// caller to hand an error back to, LoadConfig here returns an error:
// this package is consumed by a library, and a library must let its
// caller decide how to react to a bad config file.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the settings pkg/system and pkg/device need before a
// backend is opened.
type Config struct {
	LogLevel  string // "none", "error", "warn", "info", "debug"
	LogFile   string // empty means stdout
	FrameSize int    // per-callback sample count, spec.md §4.I
	Backend   string // preferred backend name, matched against backend.Backend.Name()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("loglevel", "info")
	v.SetDefault("logfile", "")
	v.SetDefault("framesize", 4096)
	v.SetDefault("backend", "dummy")
}

// LoadConfig reads configFilePath (if non-empty) over the defaults
// above, exactly as the teacher's LoadConfig layers a file over
// SetViperDefaults. A missing file is not an error — the defaults
// stand — but a malformed one is.
func LoadConfig(configFilePath string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFilePath != "" {
		v.SetConfigFile(configFilePath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("config: read %s: %w", configFilePath, err)
			}
		}
	}

	cfg := Config{
		LogLevel:  v.GetString("loglevel"),
		LogFile:   v.GetString("logfile"),
		FrameSize: v.GetInt("framesize"),
		Backend:   v.GetString("backend"),
	}
	if cfg.FrameSize <= 0 {
		return Config{}, fmt.Errorf("config: framesize must be positive, got %d", cfg.FrameSize)
	}
	return cfg, nil
}

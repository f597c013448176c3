package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaultsWithNoFile(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.FrameSize != 4096 || cfg.Backend != "dummy" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("expected missing file to be non-fatal, got %v", err)
	}
	if cfg.FrameSize != 4096 {
		t.Fatalf("expected default framesize, got %d", cfg.FrameSize)
	}
}

func TestLoadConfigOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "musac.yaml")
	contents := "loglevel: debug\nframesize: 2048\nbackend: rtaudio\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.FrameSize != 2048 || cfg.Backend != "rtaudio" {
		t.Fatalf("expected overrides to apply, got %+v", cfg)
	}
}

func TestLoadConfigRejectsNonPositiveFrameSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "musac.yaml")
	if err := os.WriteFile(path, []byte("framesize: 0\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error for a non-positive framesize")
	}
}

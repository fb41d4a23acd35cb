// Package config builds the immutable configuration value the rest of the
// controller receives at startup. Configuration comes from defaults, an
// optional YAML file, and the platform profile selected for the host OS.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/lionking1994/moodsart/internal/model"
	atomicyaml "github.com/lionking1994/moodsart/internal/yaml"
)

// DefaultFileName is the config file looked up in the session directory.
const DefaultFileName = "moodsart.yaml"

// Default returns the configuration used when no file is present. The
// platform section is filled for the current host.
func Default() *model.Config {
	return &model.Config{
		Session: model.SessionConfig{
			Mode:      model.ModeFull,
			Condition: 0,
		},
		Paths: model.PathsConfig{
			DataDir:    "data",
			StimuliDir: "stimuli",
		},
		Daemon: model.DaemonConfig{
			SocketName:     "session.sock",
			SpoolDirName:   "spool",
			ConnTimeoutSec: 10,
			LogLevel:       "info",
		},
		Timing: model.TimingConfig{
			StimulusDurationSec: 0.25,
			ISIDurationSec:      0.9,
			FixationDurationSec: 0.5,
			VeltenStatementSec:  12.0,
		},
		Platform: PlatformFor(runtime.GOOS),
	}
}

// Load reads the config file at path, layered over Default. A missing file
// is not an error; the defaults are returned as-is.
func Load(path string) (*model.Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if err := atomicyaml.Read(path, cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write persists the configuration, for `moodsart setup`.
func Write(path string, cfg *model.Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	return atomicyaml.AtomicWrite(path, cfg)
}

// Validate checks every field a loaded file can break.
func Validate(cfg *model.Config) error {
	if !cfg.Session.Mode.Valid() {
		return model.NewConfigurationError("session.mode", "must be %q or %q, got %q",
			model.ModeFull, model.ModeDemo, cfg.Session.Mode)
	}
	if c := cfg.Session.Condition; c != 0 && (c < 1 || c > 4) {
		return model.NewConfigurationError("session.condition", "must be 0 (random) or 1-4, got %d", c)
	}
	if cfg.Paths.DataDir == "" {
		return model.NewConfigurationError("paths.data_dir", "must not be empty")
	}
	if cfg.Paths.StimuliDir == "" {
		return model.NewConfigurationError("paths.stimuli_dir", "must not be empty")
	}
	if cfg.Daemon.SocketName == "" {
		return model.NewConfigurationError("daemon.socket_name", "must not be empty")
	}
	if cfg.Daemon.SpoolDirName == "" {
		return model.NewConfigurationError("daemon.spool_dir_name", "must not be empty")
	}
	if cfg.Daemon.ConnTimeoutSec < 1 {
		return model.NewConfigurationError("daemon.conn_timeout_sec", "must be at least 1, got %d", cfg.Daemon.ConnTimeoutSec)
	}
	switch cfg.Daemon.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return model.NewConfigurationError("daemon.log_level", "must be debug, info, warn or error, got %q", cfg.Daemon.LogLevel)
	}
	if cfg.Timing.StimulusDurationSec <= 0 {
		return model.NewConfigurationError("timing.stimulus_duration_sec", "must be positive")
	}
	if cfg.Timing.ISIDurationSec <= 0 {
		return model.NewConfigurationError("timing.isi_duration_sec", "must be positive")
	}
	if cfg.Platform.Font == "" {
		return model.NewConfigurationError("platform.font", "must not be empty")
	}
	if cfg.Platform.AudioBufferSize < 64 {
		return model.NewConfigurationError("platform.audio_buffer_size", "must be at least 64, got %d", cfg.Platform.AudioBufferSize)
	}
	return nil
}

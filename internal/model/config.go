// Package model defines the data structures shared across the moodsart
// session controller: modes, the counterbalancing vocabulary, phase
// descriptors, plans, flat records, and configuration.
package model

// Config is the explicit, immutable configuration value for one process.
// It is constructed once at startup (from file or defaults) and passed by
// reference; no component reads ambient global parameters.
type Config struct {
	Session  SessionConfig   `yaml:"session"`
	Paths    PathsConfig     `yaml:"paths"`
	Daemon   DaemonConfig    `yaml:"daemon"`
	Timing   TimingConfig    `yaml:"timing"`
	Platform PlatformProfile `yaml:"platform"`
}

type SessionConfig struct {
	Mode Mode `yaml:"mode"`
	// Condition 0 means "draw uniformly from {1,2,3,4}".
	Condition int   `yaml:"condition"`
	Seed      int64 `yaml:"seed"`
}

type PathsConfig struct {
	DataDir    string `yaml:"data_dir"`
	StimuliDir string `yaml:"stimuli_dir"`
}

type DaemonConfig struct {
	SocketName     string `yaml:"socket_name"`
	SpoolDirName   string `yaml:"spool_dir_name"`
	ConnTimeoutSec int    `yaml:"conn_timeout_sec"`
	LogLevel       string `yaml:"log_level"`
}

// TimingConfig holds the presentation timing constants. The core only uses
// them for duration estimates; the presentation layer is the real consumer.
type TimingConfig struct {
	StimulusDurationSec float64 `yaml:"stimulus_duration_sec"`
	ISIDurationSec      float64 `yaml:"isi_duration_sec"`
	FixationDurationSec float64 `yaml:"fixation_duration_sec"`
	VeltenStatementSec  float64 `yaml:"velten_statement_sec"`
}

// PlatformProfile is the capability configuration selected once at startup.
// The planner and scheduler never branch on platform; only the excluded
// presentation and audio collaborators consume these values.
type PlatformProfile struct {
	Font             string   `yaml:"font"`
	FontBold         string   `yaml:"font_bold"`
	AudioBufferSize  int      `yaml:"audio_buffer_size"`
	WarningFilters   []string `yaml:"warning_filters,omitempty"`
	FrameToleranceMS float64  `yaml:"frame_tolerance_ms"`
}

// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all server configuration. Command-line flags override the
// values parsed here.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"MATHPROBE_ADDR" envDefault:":8000"`

	// RulesDir holds one <task>.yaml rule document per task.
	RulesDir string `env:"MATHPROBE_RULES_DIR" envDefault:"rules"`

	// StaticDir is served under /static/; its index.html is served at /.
	StaticDir string `env:"MATHPROBE_STATIC_DIR" envDefault:"static"`

	// DefaultTask is used when the first frame of a connection names no task.
	DefaultTask string `env:"MATHPROBE_DEFAULT_TASK" envDefault:"6x8"`

	// DrawingProbe is the probe asked once drawing evidence exists.
	DrawingProbe string `env:"MATHPROBE_DRAWING_PROBE" envDefault:"P1_HOW_SOLVE"`

	// DBPath is the event log database. Empty selects the XDG default.
	DBPath string `env:"MATHPROBE_DB"`

	// EventLog enables the SQLite event log.
	EventLog bool `env:"MATHPROBE_EVENT_LOG" envDefault:"true"`

	LogLevel  string `env:"MATHPROBE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"MATHPROBE_LOG_FORMAT" envDefault:"text"`

	// MaxDecodeErrors is the number of consecutive non-JSON frames
	// tolerated before a connection is closed.
	MaxDecodeErrors int `env:"MATHPROBE_MAX_DECODE_ERRORS" envDefault:"5"`

	ShutdownTimeout time.Duration `env:"MATHPROBE_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses configuration from environment variables and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env parsing cannot.
func (c Config) Validate() error {
	var errs []string
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, "listen address is empty")
	}
	if strings.TrimSpace(c.RulesDir) == "" {
		errs = append(errs, "rules directory is empty")
	}
	if strings.TrimSpace(c.DefaultTask) == "" {
		errs = append(errs, "default task is empty")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("unknown log format %q (want text or json)", c.LogFormat))
	}
	if c.MaxDecodeErrors < 1 {
		errs = append(errs, "max decode errors must be at least 1")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

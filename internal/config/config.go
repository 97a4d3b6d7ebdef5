// Package config loads and validates the YAML link configuration file.
// Command-line overrides are layered on top by cmd/pppos-link, the way
// the teacher's AppServerMain parses pflag options for its own entry
// point.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-pppos/pppos/internal/framer"
)

// Config is one link's complete static configuration.
type Config struct {
	Device   string        `yaml:"device"`
	Baud     int           `yaml:"baud"`
	QueueDepth int         `yaml:"queue_depth"`
	IdleFlag time.Duration `yaml:"idle_flag"`
	ACFC     bool          `yaml:"acfc"`
	PFC      bool          `yaml:"pfc"`
	ACCM     *ACCMOverride `yaml:"accm,omitempty"`
	GPIOChip string        `yaml:"gpio_chip,omitempty"`
	GPIOLine int           `yaml:"gpio_line,omitempty"`
	LogDir   string        `yaml:"log_dir,omitempty"`
	LogLevel string        `yaml:"log_level,omitempty"`
	Advertise bool         `yaml:"advertise,omitempty"`
	InstanceName string    `yaml:"instance_name,omitempty"`
}

// ACCMOverride lets a config file escape additional control characters
// beyond the mandatory flag/escape bits (spec.md §4.2's "upper engine
// may widen the map; it may never narrow it below the mandatory bits").
type ACCMOverride struct {
	// Chars lists byte values (0-31) that must additionally be escaped.
	Chars []int `yaml:"chars"`
}

// Default returns a Config with the framer's own defaults, for callers
// that want to start from a baseline and override individual fields
// from flags.
func Default() Config {
	return Config{
		Baud:       115200,
		QueueDepth: 64,
		IdleFlag:   framer.MaxIdleFlag,
		LogLevel:   "info",
	}
}

// Load reads and parses a YAML config file, starting from Default()
// so a minimal file only needs to name the fields it overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a working link.
func (c Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("device is required")
	}
	if c.QueueDepth < 0 {
		return fmt.Errorf("queue_depth must be >= 0, got %d", c.QueueDepth)
	}
	if c.IdleFlag < 0 {
		return fmt.Errorf("idle_flag must be >= 0, got %s", c.IdleFlag)
	}
	for _, ch := range c.ACCMCharsOrEmpty() {
		if ch < 0 || ch > 31 {
			return fmt.Errorf("accm.chars entries must be in 0-31, got %d", ch)
		}
	}
	return nil
}

// ACCMCharsOrEmpty returns the configured override list, or nil if
// none was given.
func (c Config) ACCMCharsOrEmpty() []int {
	if c.ACCM == nil {
		return nil
	}
	return c.ACCM.Chars
}

// Package config loads gpudbg's settings from an optional TOML file
// plus CLI flags, following the override order flag > config file >
// default (§2 "[AMBIENT] Configuration").
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultPort is the listener's default TCP port (§6 "External interfaces").
const DefaultPort = 19020

// Config holds every setting the server needs at startup.
type Config struct {
	Port                int    `toml:"port"`
	Log                 bool   `toml:"log"`
	LogOutput           string `toml:"log-output"`
	SanitizeClientNames bool   `toml:"sanitize-client-names"`
	Demo                bool   `toml:"-"`
}

// Default returns a Config with every field at its documented default.
func Default() Config {
	return Config{Port: DefaultPort}
}

// Load reads path as TOML over a Default() base, returning the merged
// Config. A missing file is not an error — callers that want an
// explicit "no such file" failure should os.Stat first.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: cannot read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse error in %s: %w", path, err)
	}
	return cfg, nil
}

// Overrides carries the CLI flag values runServe collected, alongside
// which of them the user actually set, so ApplyFlags can give an
// explicit flag the final word over both the config file and the
// built-in default without a set flag silently clobbering a configured
// value with its zero value.
type Overrides struct {
	Port          int
	PortSet       bool
	Log           bool
	LogSet        bool
	LogOutput     string
	LogOutputSet  bool
	Sanitize      bool
	SanitizeSet   bool
	Demo          bool
}

// ApplyFlags overlays o onto c, field by field, for every field o marks
// as explicitly set. Demo has no set marker and is always taken from o.
func (c Config) ApplyFlags(o Overrides) Config {
	if o.PortSet {
		c.Port = o.Port
	}
	if o.LogSet {
		c.Log = o.Log
	}
	if o.LogOutputSet {
		c.LogOutput = o.LogOutput
	}
	if o.SanitizeSet {
		c.SanitizeClientNames = o.Sanitize
	}
	c.Demo = o.Demo
	return c
}

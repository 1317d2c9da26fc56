// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"cellid/internal/merge"
	"cellid/internal/writers"
)

// Config mirrors the cellid YAML file. Command-line flags override it.
type Config struct {
	Root            string        `yaml:"root"`
	DataPattern     string        `yaml:"data_pattern"`
	MetadataPattern string        `yaml:"metadata_pattern"`
	Pairing         merge.Pairing `yaml:"pairing"`
	Output          string        `yaml:"output"`
	MetricsFile     string        `yaml:"metrics_file"`
	Log             LogConfig     `yaml:"log"`
}

// LogConfig configures logging.
type LogConfig struct {
	Verbose bool `yaml:"verbose"`
	Quiet   bool `yaml:"quiet"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataPattern:     merge.DefaultDataPattern,
		MetadataPattern: merge.DefaultMetadataPattern,
		Pairing:         merge.PairingKeyed,
		Output:          writers.FormatTSV,
	}
}

// Load returns Default overridden by the YAML file at path. An empty path
// yields the defaults; a named file that can't be read is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Pairing {
	case merge.PairingKeyed, merge.PairingLockstep:
	default:
		return fmt.Errorf("invalid pairing %q (keyed | lockstep)", c.Pairing)
	}
	if !writers.Known(c.Output) {
		return fmt.Errorf("invalid output %q (%s)", c.Output, strings.Join(writers.Formats(), " | "))
	}
	if c.Log.Verbose && c.Log.Quiet {
		return errors.New("log.verbose and log.quiet are exclusive")
	}
	return nil
}

// MergeOptions converts the file/flag settings into merge options.
func (c *Config) MergeOptions() merge.Options {
	return merge.Options{
		Root:            c.Root,
		DataPattern:     c.DataPattern,
		MetadataPattern: c.MetadataPattern,
		Pairing:         c.Pairing,
	}
}

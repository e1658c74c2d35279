// Package config handles bzwgen batch configuration.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/bzwgen/internal/logger"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config describes one batch generation run.
type Config struct {
	Generator GeneratorConfig  `yaml:"generator"`
	Output    OutputConfig     `yaml:"output"`
	Materials []MaterialConfig `yaml:"materials,omitempty"`
	Targets   []TargetConfig   `yaml:"targets,omitempty"`
	Floors    []FloorConfig    `yaml:"floors,omitempty"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// GeneratorConfig holds grammar and expansion settings.
type GeneratorConfig struct {
	Seed     uint64 `yaml:"seed"`
	MaxDepth int    `yaml:"max_depth"`
	Grammar  string `yaml:"grammar"` // Path to the grammar file
	Rule     string `yaml:"rule"`    // Start rule for targets that name none
}

// OutputConfig holds where the world file goes.
type OutputConfig struct {
	Path string `yaml:"path"` // "-" writes to stdout
}

// MaterialConfig registers a material id.
type MaterialConfig struct {
	ID      int    `yaml:"id"`
	Name    string `yaml:"name"`
	Texture string `yaml:"texture"`
	NoRadar bool   `yaml:"noradar"`
}

// TargetConfig is one footprint to build on.
type TargetConfig struct {
	Name       string             `yaml:"name"`
	Rule       string             `yaml:"rule,omitempty"`
	Footprint  Footprint          `yaml:"footprint"`
	Material   int                `yaml:"material"`
	Attributes map[string]float64 `yaml:"attributes,omitempty"`
}

// Footprint is an axis-aligned rectangle on the ground.
type Footprint struct {
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Width     float64 `yaml:"width"`
	Depth     float64 `yaml:"depth"`
	Elevation float64 `yaml:"elevation"`
}

// FloorConfig is a flat textured ground zone.
type FloorConfig struct {
	A       [2]float64 `yaml:"a"`
	B       [2]float64 `yaml:"b"`
	Step    float64    `yaml:"step"`
	MatRef  string     `yaml:"matref"`
	Rotated bool       `yaml:"rotated"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Generator: GeneratorConfig{
			Seed:     1,
			MaxDepth: 64,
			Rule:     "start",
		},
		Output: OutputConfig{
			Path: "-",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// StartRule returns the rule a target expands.
func (c *Config) StartRule(t TargetConfig) string {
	if t.Rule != "" {
		return t.Rule
	}
	return c.Generator.Rule
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Generator.MaxDepth <= 0 {
		bad("generator.max_depth must be positive, got %d", c.Generator.MaxDepth)
	}
	if len(c.Targets) > 0 && c.Generator.Grammar == "" {
		bad("generator.grammar is required when targets are set")
	}

	seen := make(map[int]bool)
	for _, m := range c.Materials {
		if seen[m.ID] {
			bad("material %d defined twice", m.ID)
		}
		seen[m.ID] = true
	}

	for i, t := range c.Targets {
		if t.Footprint.Width <= 0 || t.Footprint.Depth <= 0 {
			bad("target %d (%s): footprint needs positive width and depth", i, t.Name)
		}
		if c.StartRule(t) == "" {
			bad("target %d (%s): no rule", i, t.Name)
		}
	}

	for i, f := range c.Floors {
		if f.Step <= 0 {
			bad("floor %d: step must be positive, got %g", i, f.Step)
		}
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		bad("%v", err)
	}
	return errors.Join(errs...)
}

package config

import (
	"flag"
	"fmt"
)

// Flags are the command-line overrides for a Config.
type Flags struct {
	fs *flag.FlagSet

	config  *string
	grammar *string
	rule    *string
	seed    *uint64
	depth   *int
	output  *string
	width   *float64
	depthY  *float64
	debug   *bool
}

// RegisterFlags defines the override flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		fs:      fs,
		config:  fs.String("config", "", "Path to config file"),
		grammar: fs.String("grammar", "", "Grammar file"),
		rule:    fs.String("rule", "", "Start rule"),
		seed:    fs.Uint64("seed", 0, "Random seed"),
		depth:   fs.Int("depth", 0, "Maximum rule nesting depth"),
		output:  fs.String("o", "", "Output file (- for stdout)"),
		width:   fs.Float64("width", 0, "Build a single footprint of this width"),
		depthY:  fs.Float64("depth-y", 0, "Depth of the single footprint"),
		debug:   fs.Bool("debug", false, "Enable debug logging"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// set reports whether the named flag was given on the command line.
func (f *Flags) set(name string) bool {
	found := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) error {
	if f == nil {
		return nil
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.grammar != "" {
		cfg.Generator.Grammar = *f.grammar
	}
	if *f.rule != "" {
		cfg.Generator.Rule = *f.rule
	}
	if f.set("seed") {
		cfg.Generator.Seed = *f.seed
	}
	if *f.depth > 0 {
		cfg.Generator.MaxDepth = *f.depth
	}
	if *f.output != "" {
		cfg.Output.Path = *f.output
	}
	switch width, depth := f.set("width"), f.set("depth-y"); {
	case width && depth:
		cfg.Targets = []TargetConfig{{
			Name:      "footprint",
			Footprint: Footprint{Width: *f.width, Depth: *f.depthY},
		}}
	case width:
		return fmt.Errorf("%w: -width needs -depth-y", ErrInvalid)
	case depth:
		return fmt.Errorf("%w: -depth-y needs -width", ErrInvalid)
	}
	return nil
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/bzwgen/internal/config"
	"github.com/Faultbox/bzwgen/internal/generator"
	"github.com/Faultbox/bzwgen/internal/grammar"
	"github.com/Faultbox/bzwgen/internal/logger"
	"github.com/Faultbox/bzwgen/internal/mesh"
	"github.com/Faultbox/bzwgen/internal/output"
	"github.com/Faultbox/bzwgen/pkg/math"
)

var errNothingToDo = errors.New("no targets or floors configured")

func cmdGenerate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(cfg.Targets) == 0 && len(cfg.Floors) == 0 {
		return errNothingToDo
	}

	write := func(w io.Writer) error { return generate(cfg, w) }
	if cfg.Output.Path == "" || cfg.Output.Path == "-" {
		return write(stdout)
	}
	f, err := os.Create(cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	return closeAfter(f, write)
}

// closeAfter runs write against wc and closes it. A failed close is
// reported when the write itself succeeded.
func closeAfter(wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

// generate builds every target into one mesh and writes the world.
func generate(cfg *config.Config, out io.Writer) error {
	materials := generator.NewMaterials()
	for _, mc := range cfg.Materials {
		materials.Define(mc.ID, output.Material{Name: mc.Name, Texture: mc.Texture, NoRadar: mc.NoRadar})
	}

	m := mesh.New()
	var stats generator.Stats
	if len(cfg.Targets) > 0 {
		rules, err := grammar.ParseFile(cfg.Generator.Grammar)
		if err != nil {
			return err
		}
		if err := rules.Validate(); err != nil {
			return err
		}
		logger.Info("grammar loaded",
			zap.String("path", cfg.Generator.Grammar),
			zap.Int("rules", rules.Len()),
		)

		g := generator.New(rules, m, generator.Options{
			Seed:      cfg.Generator.Seed,
			MaxDepth:  cfg.Generator.MaxDepth,
			Materials: materials,
		})
		for _, t := range cfg.Targets {
			if err := buildTarget(g, cfg.StartRule(t), t); err != nil {
				return fmt.Errorf("target %q: %w", t.Name, err)
			}
		}
		stats = g.Stats()
	}

	w := output.NewWriter(out)
	w.Linef("# bzwgen seed %d", cfg.Generator.Seed)
	w.Line("")
	if err := materials.Write(w); err != nil {
		return err
	}
	for _, fc := range cfg.Floors {
		output.FloorZone{
			A:       math.Vec2{X: fc.A[0], Y: fc.A[1]},
			B:       math.Vec2{X: fc.B[0], Y: fc.B[1]},
			Step:    fc.Step,
			MatRef:  fc.MatRef,
			Rotated: fc.Rotated,
		}.Write(w)
	}
	if err := m.Write(w, materials); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.Info("world written",
		zap.Int("targets", len(cfg.Targets)),
		zap.Int("floors", len(cfg.Floors)),
		zap.Int("faces", len(m.LiveFaces())),
		zap.Int("vertices", m.NumVertices()),
		zap.Int("invocations", stats.Invocations),
		zap.Int("assert_prunes", stats.AssertPrunes),
		zap.Int("depth_prunes", stats.DepthPrunes),
		zap.Int("empty_prunes", stats.EmptyPrunes),
	)
	return nil
}

func buildTarget(g *generator.Generator, rule string, t config.TargetConfig) error {
	fp := t.Footprint
	m := g.Mesh()
	face := m.AddQuad(
		math.Vec3{X: fp.X, Y: fp.Y, Z: fp.Elevation},
		math.Vec3{X: fp.X + fp.Width, Y: fp.Y, Z: fp.Elevation},
		math.Vec3{X: fp.X + fp.Width, Y: fp.Y + fp.Depth, Z: fp.Elevation},
		math.Vec3{X: fp.X, Y: fp.Y + fp.Depth, Z: fp.Elevation},
		t.Material,
	)

	env := grammar.NewEnv(nil)
	for name, v := range t.Attributes {
		env.Define(name, v)
	}
	logger.Debug("building target", zap.String("target", t.Name), zap.String("rule", rule))
	return g.Run(rule, face, env)
}

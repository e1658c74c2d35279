package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/bzwgen/internal/output"
	"github.com/Faultbox/bzwgen/pkg/math"
)

func cmdFloor(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("floor", flag.ContinueOnError)
	a := fs.String("a", "0,0", "First corner x,y")
	b := fs.String("b", "", "Opposite corner x,y")
	step := fs.Float64("step", 1, "Texture tile size")
	matref := fs.String("matref", "floor", "Material reference")
	rotated := fs.Bool("rotated", false, "Swap texture axes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pa, err := parsePoint(*a)
	if err != nil {
		return fmt.Errorf("-a: %w", err)
	}
	pb, err := parsePoint(*b)
	if err != nil {
		return fmt.Errorf("-b: %w", err)
	}

	w := output.NewWriter(stdout)
	output.FloorZone{A: pa, B: pb, Step: *step, MatRef: *matref, Rotated: *rotated}.Write(w)
	return w.Flush()
}

func parsePoint(s string) (math.Vec2, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return math.Vec2{}, fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return math.Vec2{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return math.Vec2{}, err
	}
	return math.Vec2{X: x, Y: y}, nil
}

package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/bzwgen/internal/config"
	"github.com/Faultbox/bzwgen/internal/logger"
)

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	defer logger.Use(logger.Log)()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const houseGrammar = `
# a box with a row of windows on every wall
house  -> extrude(height)[roof wall];
roof   -> material(2);
wall   -> repeath(2)[@window];
window -> 3: material(1) -> 1: material(3) chamfer(0.2);
`

func TestUsage(t *testing.T) {
	code, _, stderr := runCLI(t)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "Commands:")

	code, stdout, _ := runCLI(t, "help")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "bzwgen generate")

	code, _, stderr = runCLI(t, "explode")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "Unknown command: explode")
}

func TestFloor(t *testing.T) {
	code, stdout, stderr := runCLI(t, "floor", "-a", "0,0", "-b", "20, 10", "-step", "5", "-matref", "ground")
	require.Equal(t, 0, code, stderr)
	require.Equal(t, `mesh
  noradar
  matref ground
  vertex 0 0 0.001
  vertex 20 0 0.001
  vertex 20 10 0.001
  vertex 0 10 0.001
  texcoord 0 0
  texcoord 4 0
  texcoord 4 2
  texcoord 0 2
  passable
  face 0/0 1/1 2/2 3/3
end

`, stdout)

	code, _, stderr = runCLI(t, "floor", "-b", "20")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "-b")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "house.grammar", houseGrammar)

	code, stdout, stderr := runCLI(t, "check", "-v", path)
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "ok: 4 rules")
	require.Contains(t, stdout, "extrude(height)[roof wall]")

	bad := writeFile(t, dir, "bad.grammar", "house -> extrude(3) rooof; roof -> material(1);")
	code, _, stderr = runCLI(t, "check", bad)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, `undefined rule "rooof"`)
	require.Contains(t, stderr, `did you mean "roof"`)

	broken := writeFile(t, dir, "broken.grammar", "house -> extrude(3;")
	code, _, stderr = runCLI(t, "check", broken)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, broken+":1:")
}

func TestGenerateSingleFootprint(t *testing.T) {
	dir := t.TempDir()
	grammarPath := writeFile(t, dir, "house.grammar", strings.Replace(houseGrammar, "height", "8", 1))
	out := filepath.Join(dir, "house.bzw")

	args := []string{"generate", "-grammar", grammarPath, "-rule", "house",
		"-width", "10", "-depth-y", "6", "-seed", "7", "-o", out}
	code, _, stderr := runCLI(t, args...)
	require.Equal(t, 0, code, stderr)

	first, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(first)
	require.True(t, strings.HasPrefix(text, "# bzwgen seed 7\n"))
	require.Contains(t, text, "matref mat2")
	require.Regexp(t, `matref mat[13]\n`, text)

	code, _, stderr = runCLI(t, args...)
	require.Equal(t, 0, code, stderr)
	second, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

type closeRecorder struct {
	bytes.Buffer
	closed   bool
	closeErr error
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.closeErr
}

func TestCloseAfter(t *testing.T) {
	errDisk := errors.New("disk full")
	errWrite := errors.New("write failed")

	wc := &closeRecorder{closeErr: errDisk}
	err := closeAfter(wc, func(w io.Writer) error {
		_, err := io.WriteString(w, "world\n")
		return err
	})
	require.ErrorIs(t, err, errDisk)
	require.True(t, wc.closed)
	require.Equal(t, "world\n", wc.String())

	wc = &closeRecorder{closeErr: errDisk}
	err = closeAfter(wc, func(io.Writer) error { return errWrite })
	require.ErrorIs(t, err, errWrite)
	require.True(t, wc.closed)

	wc = &closeRecorder{}
	require.NoError(t, closeAfter(wc, func(io.Writer) error { return nil }))
	require.True(t, wc.closed)
}

func TestGenerateFromConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "house.grammar", houseGrammar)
	cfgPath := writeFile(t, dir, "city.yaml", `
generator:
  seed: 3
  grammar: house.grammar
  rule: house
materials:
  - id: 1
    name: window
    texture: glass.png
    noradar: true
targets:
  - name: corner
    footprint: {x: 0, y: 0, width: 8, depth: 8}
    attributes: {height: 12}
  - name: shed
    footprint: {x: 20, y: 0, width: 4, depth: 4}
    attributes: {height: 3}
floors:
  - a: [0, 0]
    b: [40, 40]
    step: 10
    matref: grass
`)

	code, stdout, stderr := runCLI(t, "generate", "-config", cfgPath)
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "material\n  name window\n  texture glass.png\nend\n")
	require.Contains(t, stdout, "matref grass")
	require.Contains(t, stdout, "  noradar\n  matref window\n")
	require.Contains(t, stdout, "matref mat2")
}

func TestGenerateErrors(t *testing.T) {
	dir := t.TempDir()
	grammarPath := writeFile(t, dir, "tall.grammar", "tower -> extrude(floors * 3);")

	code, _, stderr := runCLI(t, "generate", "-grammar", grammarPath, "-rule", "tower", "-width", "5", "-depth-y", "5")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, `"floors"`)
	require.Contains(t, stderr, `target "footprint"`)

	code, _, stderr = runCLI(t, "generate", "-grammar", grammarPath)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "no targets")

	code, _, stderr = runCLI(t, "generate", "-config", filepath.Join(dir, "missing.yaml"))
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "missing.yaml")

	code, _, stderr = runCLI(t, "generate", "-grammar", grammarPath, "-width", "5")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "-width needs -depth-y")
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bzwgen.yaml")

	code, stdout, stderr := runCLI(t, "init", path)
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "wrote "+path)

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Len(t, cfg.Targets, 1)

	code, _, stderr = runCLI(t, "init", path)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "exists")

	code, _, _ = runCLI(t, "init", "-f", path)
	require.Equal(t, 0, code)
}

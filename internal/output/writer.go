// Package output writes the line-oriented BZW geometry description consumed by
// the renderer.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Writer emits BZW lines. It records the first write error and turns every
// later call into a no-op; check Err or Flush once at the end.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Line writes s followed by a newline.
func (w *Writer) Line(s string) {
	if w.err != nil {
		return
	}
	if _, err := w.w.WriteString(s); err != nil {
		w.err = err
		return
	}
	w.err = w.w.WriteByte('\n')
}

// Linef writes a formatted line.
func (w *Writer) Linef(format string, args ...any) {
	w.Line(fmt.Sprintf(format, args...))
}

// MatRef writes the material reference of a mesh block.
func (w *Writer) MatRef(name string) {
	w.Line("  matref " + name)
}

// Vertex writes one vertex line.
func (w *Writer) Vertex(x, y, z float64) {
	w.Line("  vertex " + Number(x) + " " + Number(y) + " " + Number(z))
}

// TexCoord writes one texture coordinate line.
func (w *Writer) TexCoord(u, v float64) {
	w.Line("  texcoord " + Number(u) + " " + Number(v))
}

// Face writes a face line pairing vertex and texcoord indices, "v/t" per corner.
func (w *Writer) Face(vertices, texcoords []int) {
	if w.err != nil {
		return
	}
	if len(vertices) != len(texcoords) {
		w.err = fmt.Errorf("face has %d vertices but %d texcoords", len(vertices), len(texcoords))
		return
	}
	var b strings.Builder
	b.WriteString("  face")
	for i := range vertices {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(vertices[i]))
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(texcoords[i]))
	}
	w.Line(b.String())
}

// End closes a block and leaves a blank separator line.
func (w *Writer) End() {
	w.Line("end")
	w.Line("")
}

// Err returns the first error encountered.
func (w *Writer) Err() error {
	return w.err
}

// Flush flushes buffered output and returns the first error encountered.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

// Number formats a coordinate with at most four decimals and no trailing
// zeros, so output is stable across platforms.
func Number(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/df07/go-pathtracer/pkg/renderer"
)

// PPMWriter streams pixels as an ASCII "P3" portable pixmap
type PPMWriter struct {
	w       *bufio.Writer
	width   int
	height  int
	nextRow int
	began   bool
	line    []byte
}

// NewPPMWriter creates a PPM writer on top of w. Call Close to flush.
func NewPPMWriter(w io.Writer) *PPMWriter {
	return &PPMWriter{w: bufio.NewWriter(w)}
}

// Begin writes the header
func (p *PPMWriter) Begin(width, height int) error {
	if p.began {
		return fmt.Errorf("ppm header already written")
	}
	if width < 1 || height < 1 {
		return fmt.Errorf("invalid ppm dimensions %dx%d", width, height)
	}
	p.width, p.height, p.began = width, height, true

	if _, err := fmt.Fprintf(p.w, "P3\n%d %d\n255\n", width, height); err != nil {
		return fmt.Errorf("failed to write ppm header: %w", err)
	}
	return nil
}

// WriteRow writes one "R G B" line per pixel. Rows must arrive in order.
func (p *PPMWriter) WriteRow(y int, row []renderer.RGB8) error {
	if !p.began {
		return fmt.Errorf("ppm row %d written before header", y)
	}
	if y != p.nextRow {
		return fmt.Errorf("ppm row %d out of order, expected %d", y, p.nextRow)
	}
	if len(row) != p.width {
		return fmt.Errorf("ppm row %d has %d pixels, expected %d", y, len(row), p.width)
	}

	for _, px := range row {
		p.line = p.line[:0]
		p.line = strconv.AppendUint(p.line, uint64(px.R), 10)
		p.line = append(p.line, ' ')
		p.line = strconv.AppendUint(p.line, uint64(px.G), 10)
		p.line = append(p.line, ' ')
		p.line = strconv.AppendUint(p.line, uint64(px.B), 10)
		p.line = append(p.line, '\n')
		if _, err := p.w.Write(p.line); err != nil {
			return fmt.Errorf("failed to write ppm row %d: %w", y, err)
		}
	}
	p.nextRow++
	return nil
}

// Close flushes buffered output
func (p *PPMWriter) Close() error {
	if err := p.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush ppm output: %w", err)
	}
	return nil
}

package output

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/df07/go-pathtracer/pkg/renderer"
)

// ImageSink collects rendered rows into an in-memory RGBA image
type ImageSink struct {
	img *image.RGBA
}

// NewImageSink creates an empty image sink
func NewImageSink() *ImageSink {
	return &ImageSink{}
}

// Begin allocates the image
func (s *ImageSink) Begin(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

// WriteRow copies a scanline into the image
func (s *ImageSink) WriteRow(y int, row []renderer.RGB8) error {
	if s.img == nil {
		return fmt.Errorf("image row %d written before Begin", y)
	}
	bounds := s.img.Bounds()
	if y < 0 || y >= bounds.Dy() || len(row) != bounds.Dx() {
		return fmt.Errorf("image row %d with %d pixels does not fit %dx%d", y, len(row), bounds.Dx(), bounds.Dy())
	}
	for x, px := range row {
		s.img.SetRGBA(x, y, color.RGBA{R: px.R, G: px.G, B: px.B, A: 255})
	}
	return nil
}

// Image returns the collected image, or nil before Begin
func (s *ImageSink) Image() *image.RGBA {
	return s.img
}

// EncodePNG writes img as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

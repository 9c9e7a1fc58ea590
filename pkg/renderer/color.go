package renderer

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// RGB8 is a quantized output pixel
type RGB8 struct {
	R, G, B uint8
}

var intensity = core.NewInterval(0.000, 0.999)

// ToRGB8 converts a linear color to 8-bit channels with gamma 2 correction
func ToRGB8(pixel core.Vec3) RGB8 {
	return RGB8{
		R: quantize(pixel.X),
		G: quantize(pixel.Y),
		B: quantize(pixel.Z),
	}
}

func quantize(linear float64) uint8 {
	return uint8(int(256 * intensity.Clamp(linearToGamma(linear))))
}

// linearToGamma maps non-positive and NaN components to zero
func linearToGamma(linear float64) float64 {
	if linear > 0 {
		return math.Sqrt(linear)
	}
	return 0
}

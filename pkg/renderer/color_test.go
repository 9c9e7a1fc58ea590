package renderer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/df07/go-pathtracer/pkg/core"
)

func TestToRGB8(t *testing.T) {
	tests := []struct {
		name     string
		linear   float64
		expected uint8
	}{
		{"black", 0, 0},
		{"negative", -0.5, 0},
		{"nan", math.NaN(), 0},
		{"quarter", 0.25, 128},
		{"white", 1, 255},
		{"overexposed", 4, 255},
		{"infinite", math.Inf(1), 255},
		{"negative infinite", math.Inf(-1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToRGB8(core.NewVec3(tt.linear, tt.linear, tt.linear))
			assert.Equal(t, RGB8{tt.expected, tt.expected, tt.expected}, got)
		})
	}
}

func TestToRGB8_ChannelsAreIndependent(t *testing.T) {
	assert.Equal(t, RGB8{255, 0, 128}, ToRGB8(core.NewVec3(1, 0, 0.25)))
}

func TestToRGB8_IsMonotonic(t *testing.T) {
	previous := uint8(0)
	for x := 0.0; x <= 1.5; x += 0.001 {
		got := ToRGB8(core.NewVec3(x, 0, 0)).R
		assert.GreaterOrEqual(t, got, previous, "at %v", x)
		previous = got
	}
	assert.Equal(t, uint8(255), previous)
}

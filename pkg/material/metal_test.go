package material

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-pathtracer/pkg/core"
)

func TestNewMetal_FuzzClamp(t *testing.T) {
	tests := []struct {
		name          string
		inputFuzz     float64
		expectedFuzz  float64
	}{
		{"Valid fuzz 0.0", 0.0, 0.0},
		{"Valid fuzz 0.5", 0.5, 0.5},
		{"Valid fuzz 1.0", 1.0, 1.0},
		{"Clamp above 1.0", 1.5, 1.0},
		{"Clamp below 0.0", -0.5, 0.0},
	}

	albedo := core.NewVec3(0.8, 0.8, 0.8)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metal := NewMetal(albedo, tt.inputFuzz)
			assert.Equal(t, tt.expectedFuzz, metal.Fuzz)
		})
	}
}

func TestMetal_PerfectReflection(t *testing.T) {
	albedo := core.NewVec3(0.9, 0.9, 0.9)
	metal := NewMetal(albedo, 0.0)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	// Ray hitting surface at 45 degrees
	rayIn := core.NewRay(core.NewVec3(0, 1, 1), core.NewVec3(0, -1, -1).Multiply(3))
	hit := HitRecord{
		Point:  core.NewVec3(0, 0, 0),
		Normal: core.NewVec3(0, 0, 1),
	}

	scatter, didScatter := metal.Scatter(rayIn, hit, sampler)
	require.True(t, didScatter, "Metal should scatter")

	expected := core.NewVec3(0, -1, 1).Normalize()
	actual := scatter.Scattered.Direction
	assert.InDelta(t, 0.0, actual.Subtract(expected).Length(), 1e-12)
	assert.Equal(t, albedo, scatter.Attenuation)
	assert.Equal(t, hit.Point, scatter.Scattered.Origin)
}

func TestMetal_FuzzyReflectionStaysNearMirror(t *testing.T) {
	metal := NewMetal(core.NewVec3(0.8, 0.8, 0.8), 0.3)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	rayIn := core.NewRay(core.NewVec3(0, 0, 1), core.NewVec3(0, 0, -1))
	hit := HitRecord{Point: core.NewVec3(0, 0, 0), Normal: core.NewVec3(0, 0, 1)}
	mirror := core.NewVec3(0, 0, 1)

	for i := 0; i < 500; i++ {
		scatter, didScatter := metal.Scatter(rayIn, hit, sampler)
		require.True(t, didScatter, "head-on rays cannot be fuzzed below the surface")
		// The perturbation is a vector of length fuzz added to the unit mirror direction
		assert.InDelta(t, 0.3, scatter.Scattered.Direction.Subtract(mirror).Length(), 1e-9)
	}
}

func TestMetal_AbsorbsRaysFuzzedBelowSurface(t *testing.T) {
	normal := core.NewVec3(0, 1, 0)
	metal := NewMetal(core.NewVec3(0.8, 0.8, 0.8), 1.0)

	// Grazing ray whose mirror direction is barely above the surface
	rayIn := core.NewRay(core.NewVec3(-1, 0.01, 0), core.NewVec3(1, -0.01, 0))
	hit := HitRecord{Point: core.NewVec3(0, 0, 0), Normal: normal, FrontFace: true}

	_, didScatter := metal.Scatter(rayIn, hit, samplerForUnitVector(normal.Negate()))
	assert.False(t, didScatter)

	_, didScatter = metal.Scatter(rayIn, hit, samplerForUnitVector(normal))
	assert.True(t, didScatter)
}

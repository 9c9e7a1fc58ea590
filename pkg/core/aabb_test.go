package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAABB_Hit(t *testing.T) {
	box := NewAABBFromPoints(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	tests := []struct {
		name     string
		ray      Ray
		rayT     Interval
		expected bool
	}{
		{"straight through", NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, -1)), UniverseInterval, true},
		{"misses to the side", NewRay(NewVec3(3, 0, 5), NewVec3(0, 0, -1)), UniverseInterval, false},
		{"diagonal", NewRay(NewVec3(-5, -5, -5), NewVec3(1, 1, 1)), UniverseInterval, true},
		{"parallel inside slab", NewRay(NewVec3(0.5, 0.5, 5), NewVec3(0, 0, -1)), UniverseInterval, true},
		{"parallel outside slab", NewRay(NewVec3(0.5, 2, 5), NewVec3(0, 0, -1)), UniverseInterval, false},
		{"box behind interval", NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, -1)), NewInterval(0, 3), false},
		{"pointing away", NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, 1)), NewInterval(0, math.Inf(1)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, box.Hit(tt.ray, tt.rayT))
		})
	}
}

func TestAABB_UnionAndMeasures(t *testing.T) {
	a := NewAABBFromPoints(NewVec3(0, 0, 0), NewVec3(1, 1, 1))
	b := NewAABBFromPoints(NewVec3(-2, 0.5, 0), NewVec3(0, 3, 1))

	u := a.Union(b)
	assert.Equal(t, NewVec3(-2, 0, 0), u.Min())
	assert.Equal(t, NewVec3(1, 3, 1), u.Max())
	assert.Equal(t, NewVec3(3, 3, 1), u.Size())
	assert.Equal(t, NewVec3(-0.5, 1.5, 0.5), u.Center())
	assert.Equal(t, 1, u.LongestAxis())

	assert.Equal(t, a, EmptyAABB.Union(a))
	assert.False(t, EmptyAABB.IsValid())
	assert.True(t, u.IsValid())
}

func TestAABB_FromPointsOrdersCorners(t *testing.T) {
	box := NewAABBFromPoints(NewVec3(2, -1, 5), NewVec3(-2, 1, 3))
	assert.Equal(t, NewInterval(-2, 2), box.X)
	assert.Equal(t, NewInterval(-1, 1), box.Y)
	assert.Equal(t, NewInterval(3, 5), box.Z)
	assert.Equal(t, 0, box.LongestAxis())
}

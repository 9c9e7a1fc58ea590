package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
)

func randomSpheres(sampler core.Sampler, n int) []Shape {
	shapes := make([]Shape, 0, n)
	for i := 0; i < n; i++ {
		center := core.RandomVec3(sampler, -10, 10)
		radius := core.RandomFloat(sampler, 0.1, 1.5)
		mat := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
		if i%5 == 0 {
			shapes = append(shapes, NewMovingSphere(center, center.Add(core.NewVec3(0, 1, 0)), radius, mat))
		} else {
			shapes = append(shapes, NewSphere(center, radius, mat))
		}
	}
	return shapes
}

func TestBVH_Empty(t *testing.T) {
	bvh := NewBVH(nil)
	_, isHit := bvh.Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), defaultRange)
	assert.False(t, isHit)
	assert.False(t, bvh.BoundingBox().IsValid())
	assert.Equal(t, BVHStats{}, bvh.Stats())
}

func TestBVH_MatchesHittableList(t *testing.T) {
	sampler := core.NewSeededSampler(11)
	shapes := randomSpheres(sampler, 200)
	list := NewHittableList(shapes...)
	bvh := NewBVH(shapes)

	assert.Equal(t, list.BoundingBox(), bvh.BoundingBox())

	hits := 0
	for i := 0; i < 2000; i++ {
		origin := core.RandomVec3(sampler, -15, 15)
		ray := core.NewRayAtTime(origin, core.RandomUnitVector(sampler), sampler.Get1D())

		listHit, listIsHit := list.Hit(ray, defaultRange)
		bvhHit, bvhIsHit := bvh.Hit(ray, defaultRange)
		require.Equal(t, listIsHit, bvhIsHit, "ray %d", i)
		if listIsHit {
			hits++
			assert.InDelta(t, listHit.T, bvhHit.T, 1e-12)
			assert.Same(t, listHit.Material, bvhHit.Material)
		}
	}
	assert.Greater(t, hits, 200)
}

func TestBVH_RespectsInterval(t *testing.T) {
	mat := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	var shapes []Shape
	for z := 1; z <= 10; z++ {
		shapes = append(shapes, NewSphere(core.NewVec3(0, 0, -3*float64(z)), 1, mat))
	}
	bvh := NewBVH(shapes)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	hit, isHit := bvh.Hit(ray, defaultRange)
	require.True(t, isHit)
	assert.InDelta(t, 2.0, hit.T, 1e-9)

	hit, isHit = bvh.Hit(ray, core.NewInterval(4.5, math.Inf(1)))
	require.True(t, isHit)
	assert.InDelta(t, 5.0, hit.T, 1e-9)

	_, isHit = bvh.Hit(ray, core.NewInterval(0.001, 1.5))
	assert.False(t, isHit)
}

func TestBVH_DoesNotReorderInput(t *testing.T) {
	shapes := randomSpheres(core.NewSeededSampler(3), 50)
	original := append([]Shape(nil), shapes...)
	NewBVH(shapes)
	assert.Equal(t, original, shapes)
}

func TestBVH_Stats(t *testing.T) {
	stats := NewBVH(randomSpheres(core.NewSeededSampler(5), 100)).Stats()
	assert.Equal(t, 100, stats.Shapes)
	assert.Equal(t, stats.Leaves*2-1, stats.Nodes)
	assert.GreaterOrEqual(t, stats.MaxDepth, 4)
	assert.LessOrEqual(t, stats.MaxDepth, 6)
}

package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-pathtracer/pkg/core"
)

var defaultRange = core.NewInterval(0.001, math.Inf(1))

func TestSphere_Hit_Miss(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)
	ray := core.NewRay(core.NewVec3(2, 0, 0), core.NewVec3(0, 1, 0))

	hit, isHit := sphere.Hit(ray, defaultRange)
	assert.False(t, isHit)
	assert.Nil(t, hit)
}

func TestSphere_Hit_FrontAndBackFace(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)

	tests := []struct {
		name           string
		rayOrigin      core.Vec3
		rayDirection   core.Vec3
		expectedT      float64
		expectedFront  bool
		expectedNormal core.Vec3
	}{
		{
			name:           "front face hit",
			rayOrigin:      core.NewVec3(0, 0, 2),
			rayDirection:   core.NewVec3(0, 0, -1),
			expectedT:      1.0,
			expectedFront:  true,
			expectedNormal: core.NewVec3(0, 0, 1),
		},
		{
			name:           "back face hit",
			rayOrigin:      core.NewVec3(0, 0, 0),
			rayDirection:   core.NewVec3(0, 0, 1),
			expectedT:      1.0,
			expectedFront:  false,
			expectedNormal: core.NewVec3(0, 0, -1),
		},
		{
			name:           "unnormalized direction",
			rayOrigin:      core.NewVec3(0, 0, 3),
			rayDirection:   core.NewVec3(0, 0, -2),
			expectedT:      1.0,
			expectedFront:  true,
			expectedNormal: core.NewVec3(0, 0, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRay(tt.rayOrigin, tt.rayDirection)
			hit, isHit := sphere.Hit(ray, defaultRange)
			require.True(t, isHit, "Expected hit, but got miss")

			assert.InDelta(t, tt.expectedT, hit.T, 1e-9)
			assert.Equal(t, tt.expectedFront, hit.FrontFace)
			assert.InDelta(t, 0.0, hit.Normal.Subtract(tt.expectedNormal).Length(), 1e-9)
		})
	}
}

func TestSphere_Hit_Bounds(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)
	ray := core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1))

	_, isHit := sphere.Hit(ray, core.NewInterval(0.001, 0.5))
	assert.False(t, isHit, "Expected miss due to max bound")

	_, isHit = sphere.Hit(ray, core.NewInterval(3.5, 1000))
	assert.False(t, isHit, "Expected miss due to min bound")

	// Near root excluded, far root admissible
	hit, isHit := sphere.Hit(ray, core.NewInterval(1.5, 1000))
	require.True(t, isHit)
	assert.InDelta(t, 3.0, hit.T, 1e-9)
	assert.False(t, hit.FrontFace)
}

func TestSphere_Hit_BoundaryRootIsRejected(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)
	ray := core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1))

	// Both roots sit exactly on the open interval's ends
	_, isHit := sphere.Hit(ray, core.NewInterval(1, 3))
	assert.False(t, isHit)
}

func TestSphere_NegativeRadiusClampedToZero(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), -2, nil)
	assert.Equal(t, 0.0, sphere.Radius)

	_, isHit := sphere.Hit(core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1)), defaultRange)
	assert.False(t, isHit)
}

func TestSphere_HitPointLiesOnSurface(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	randVec := func(scale float64) core.Vec3 {
		return core.NewVec3(random.NormFloat64(), random.NormFloat64(), random.NormFloat64()).Multiply(scale)
	}

	hits := 0
	for i := 0; i < 2000; i++ {
		center0 := randVec(2)
		var sphere *Sphere
		if i%2 == 0 {
			sphere = NewSphere(center0, 0.2+random.Float64(), nil)
		} else {
			sphere = NewMovingSphere(center0, center0.Add(randVec(1)), 0.2+random.Float64(), nil)
		}

		origin := randVec(4)
		target := sphere.Center(0.5).Add(randVec(0.7))
		ray := core.NewRayAtTime(origin, target.Subtract(origin), random.Float64())

		hit, isHit := sphere.Hit(ray, defaultRange)
		if !isHit {
			continue
		}
		hits++

		assert.True(t, defaultRange.Surrounds(hit.T))
		distance := ray.At(hit.T).Subtract(sphere.Center(ray.Time)).Length()
		assert.InDelta(t, sphere.Radius, distance, 1e-9)
		assert.InDelta(t, 1.0, hit.Normal.Length(), 1e-9)
		assert.LessOrEqual(t, ray.Direction.Dot(hit.Normal), 0.0)
	}
	assert.Greater(t, hits, 500)
}

func TestSphere_MovingCenter(t *testing.T) {
	sphere := NewMovingSphere(core.NewVec3(0, 0, -1), core.NewVec3(0, 1, -1), 0.5, nil)
	assert.True(t, sphere.IsMoving())
	assert.Equal(t, core.NewVec3(0, 0, -1), sphere.Center(0))
	assert.Equal(t, core.NewVec3(0, 0.5, -1), sphere.Center(0.5))
	assert.Equal(t, core.NewVec3(0, 1, -1), sphere.Center(1))

	ray := core.NewRay(core.NewVec3(0, 1, 1), core.NewVec3(0, 0, -1))

	// At time 0 the sphere sits below the ray
	_, isHit := sphere.Hit(ray, defaultRange)
	assert.False(t, isHit)

	// At time 1 it has moved into the ray's path
	ray.Time = 1
	hit, isHit := sphere.Hit(ray, defaultRange)
	require.True(t, isHit)
	assert.InDelta(t, 1.5, hit.T, 1e-9)
}

func TestSphere_BoundingBox(t *testing.T) {
	stationary := NewSphere(core.NewVec3(1, 2, 3), 0.5, nil)
	box := stationary.BoundingBox()
	assert.Equal(t, core.NewVec3(0.5, 1.5, 2.5), box.Min())
	assert.Equal(t, core.NewVec3(1.5, 2.5, 3.5), box.Max())

	moving := NewMovingSphere(core.NewVec3(0, 0, 0), core.NewVec3(2, 0, 0), 1, nil)
	box = moving.BoundingBox()
	assert.Equal(t, core.NewVec3(-1, -1, -1), box.Min())
	assert.Equal(t, core.NewVec3(3, 1, 1), box.Max())
}

package renderer

import (
	"errors"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// fixedSampler returns the same values on every call
type fixedSampler struct {
	v1 float64
	v2 core.Vec2
	v3 core.Vec3
}

func (s fixedSampler) Get1D() float64 { return s.v1 }
func (s fixedSampler) Get2D() core.Vec2 { return s.v2 }
func (s fixedSampler) Get3D() core.Vec3 { return s.v3 }

// centerSampler hits the middle of the pixel at time 0
var centerSampler = fixedSampler{v2: core.NewVec2(0.5, 0.5), v3: core.NewVec3(0.5, 0.5, 0.5)}

// MockMaterial implements material.Material for testing
type MockMaterial struct {
	scatterFn func(rayIn core.Ray, hit material.HitRecord) (material.ScatterResult, bool)
}

func (m MockMaterial) Scatter(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
	return m.scatterFn(rayIn, hit)
}

// absorbing never scatters
var absorbing = MockMaterial{
	scatterFn: func(core.Ray, material.HitRecord) (material.ScatterResult, bool) {
		return material.ScatterResult{}, false
	},
}

// MockShape implements geometry.Shape for testing
type MockShape struct {
	hitFn func(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool)
}

func (m MockShape) Hit(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool) {
	return m.hitFn(ray, rayT)
}

func (m MockShape) BoundingBox() core.AABB { return core.EmptyAABB }

// testScene implements Scene for testing
type testScene struct {
	world  geometry.Shape
	config CameraConfig
}

func (s testScene) GetWorld() geometry.Shape       { return s.world }
func (s testScene) GetCameraConfig() CameraConfig { return s.config }

// memorySink collects rendered rows
type memorySink struct {
	width, height int
	rows          [][]RGB8
	order         []int
	failAt        int // Row index that fails, -1 for never
}

var errSinkFull = errors.New("sink full")

func newMemorySink() *memorySink {
	return &memorySink{failAt: -1}
}

func (s *memorySink) Begin(width, height int) error {
	s.width, s.height = width, height
	return nil
}

func (s *memorySink) WriteRow(y int, row []RGB8) error {
	if y == s.failAt {
		return errSinkFull
	}
	s.order = append(s.order, y)
	s.rows = append(s.rows, append([]RGB8(nil), row...))
	return nil
}

// newMixedWorld returns a small world exercising every material
func newMixedWorld() *geometry.HittableList {
	return geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))),
		geometry.NewSphere(core.NewVec3(0, 0, -1.2), 0.5, material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, material.NewDielectric(1.5)),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.4, material.NewDielectric(1.0/1.5)),
		geometry.NewMovingSphere(core.NewVec3(1, 0, -1), core.NewVec3(1, 0.2, -1), 0.5, material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)),
	)
}

// newAbsorbingWall returns a world whose only sphere encloses the camera and absorbs everything
func newAbsorbingWall() *geometry.HittableList {
	return geometry.NewHittableList(geometry.NewSphere(core.NewVec3(0, 0, 0), 50, absorbing))
}

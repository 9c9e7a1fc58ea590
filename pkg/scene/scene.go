package scene

import (
	"errors"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

var (
	// ErrUnknownScene is returned for a scene name that is not built in
	ErrUnknownScene = errors.New("unknown scene")
	// ErrInvalidScene wraps every scene file validation error
	ErrInvalidScene = errors.New("invalid scene")
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name   string
	World  *geometry.HittableList // Objects in the scene
	Camera renderer.CameraConfig

	bvh *geometry.BVH // Set by BuildBVH, cleared by Add
}

// NewScene creates an empty scene with the given camera
func NewScene(name string, camera renderer.CameraConfig) *Scene {
	return &Scene{
		Name:   name,
		World:  geometry.NewHittableList(),
		Camera: camera,
	}
}

// Add appends shapes to the world
func (s *Scene) Add(shapes ...geometry.Shape) {
	for _, shape := range shapes {
		s.World.Add(shape)
	}
	s.bvh = nil
}

// BuildBVH makes GetWorld return a bounding volume hierarchy over the current objects
func (s *Scene) BuildBVH() geometry.BVHStats {
	s.bvh = geometry.NewBVH(s.World.Objects())
	return s.bvh.Stats()
}

// GetWorld implements renderer.Scene
func (s *Scene) GetWorld() geometry.Shape {
	if s.bvh != nil {
		return s.bvh
	}
	return s.World
}

// GetCameraConfig implements renderer.Scene
func (s *Scene) GetCameraConfig() renderer.CameraConfig {
	return s.Camera
}

// GetPrimitiveCount returns the number of objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return s.World.Len()
}

// Bounds returns the box enclosing every object at every time
func (s *Scene) Bounds() core.AABB {
	return s.World.BoundingBox()
}

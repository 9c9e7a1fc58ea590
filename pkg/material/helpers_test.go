package material

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// fixedSampler returns the same values on every draw
type fixedSampler struct {
	v1 float64
	v2 core.Vec2
	v3 core.Vec3
}

func (s fixedSampler) Get1D() float64   { return s.v1 }
func (s fixedSampler) Get2D() core.Vec2 { return s.v2 }
func (s fixedSampler) Get3D() core.Vec3 { return s.v3 }

// samplerForUnitVector makes core.RandomUnitVector return exactly u (u must have unit length)
func samplerForUnitVector(u core.Vec3) fixedSampler {
	return fixedSampler{
		v1: 0.5,
		v2: core.NewVec2(0.5, 0.5),
		v3: core.NewVec3((u.X+1)/2, (u.Y+1)/2, (u.Z+1)/2),
	}
}

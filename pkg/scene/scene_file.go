package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"sigs.k8s.io/yaml"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// FileSpec is the on-disk form of a scene. Materials are declared once by name
// and shared by every sphere that references them.
type FileSpec struct {
	Name      string                  `json:"name,omitempty"`
	Camera    CameraSpec              `json:"camera,omitempty"`
	Materials map[string]MaterialSpec `json:"materials"`
	Spheres   []SphereSpec            `json:"spheres"`
}

// CameraSpec overrides fields of renderer.DefaultCameraConfig; unset fields keep their default
type CameraSpec struct {
	AspectRatio     *float64  `json:"aspectRatio,omitempty"`
	ImageWidth      *int      `json:"imageWidth,omitempty"`
	SamplesPerPixel *int      `json:"samplesPerPixel,omitempty"`
	MaxDepth        *int      `json:"maxDepth,omitempty"`
	VFov            *float64  `json:"vfov,omitempty"`
	LookFrom        []float64 `json:"lookFrom,omitempty"`
	LookAt          []float64 `json:"lookAt,omitempty"`
	VUp             []float64 `json:"vup,omitempty"`
	DefocusAngle    *float64  `json:"defocusAngle,omitempty"`
	FocusDist       *float64  `json:"focusDist,omitempty"`
}

// MaterialSpec describes a lambertian, metal or dielectric material
type MaterialSpec struct {
	Type            string    `json:"type"`
	Albedo          []float64 `json:"albedo,omitempty"`
	Fuzz            float64   `json:"fuzz,omitempty"`
	RefractionIndex float64   `json:"refractionIndex,omitempty"`
}

// SphereSpec describes a sphere; Center1 makes it move during the shutter interval
type SphereSpec struct {
	Center   []float64 `json:"center"`
	Center1  []float64 `json:"center1,omitempty"`
	Radius   float64   `json:"radius"`
	Material string    `json:"material"`
}

const (
	materialLambertian = "lambertian"
	materialMetal      = "metal"
	materialDielectric = "dielectric"
)

// LoadSceneFile reads and builds a scene file. The scene is named after the file
// unless the file names itself.
func LoadSceneFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	s, err := ParseScene(data)
	if err != nil {
		return nil, fmt.Errorf("scene file %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// ParseScene builds a scene from YAML (or JSON). Every validation problem is reported.
func ParseScene(data []byte) (*Scene, error) {
	var spec FileSpec
	if err := yaml.UnmarshalStrict(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	return spec.Build()
}

// Build validates the parsed file and constructs the scene
func (spec FileSpec) Build() (*Scene, error) {
	var errs error
	invalid := func(format string, args ...interface{}) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidScene}, args...)...))
	}

	camera, err := spec.Camera.config()
	if err != nil {
		invalid("camera: %v", err)
	} else if err := camera.Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}

	// Sorted for stable error order
	names := make([]string, 0, len(spec.Materials))
	for name := range spec.Materials {
		names = append(names, name)
	}
	sort.Strings(names)

	materials := make(map[string]material.Material, len(spec.Materials))
	for _, name := range names {
		m, err := spec.Materials[name].build()
		if err != nil {
			invalid("material %q: %v", name, err)
			continue
		}
		materials[name] = m
	}

	var shapes []geometry.Shape
	for i, sphere := range spec.Spheres {
		center, err := toVec3(sphere.Center)
		if err != nil {
			invalid("sphere %d center: %v", i, err)
		}
		center1 := center
		if sphere.Center1 != nil {
			if center1, err = toVec3(sphere.Center1); err != nil {
				invalid("sphere %d center1: %v", i, err)
			}
		}
		if sphere.Radius < 0 {
			invalid("sphere %d radius must not be negative, got %v", i, sphere.Radius)
		}

		m, ok := materials[sphere.Material]
		if !ok {
			if _, declared := spec.Materials[sphere.Material]; !declared {
				invalid("sphere %d references unknown material %q", i, sphere.Material)
			}
			continue
		}

		if sphere.Center1 != nil {
			shapes = append(shapes, geometry.NewMovingSphere(center, center1, sphere.Radius, m))
		} else {
			shapes = append(shapes, geometry.NewSphere(center, sphere.Radius, m))
		}
	}

	if errs != nil {
		return nil, errs
	}

	s := NewScene(spec.Name, camera)
	s.Add(shapes...)
	return s, nil
}

func (m MaterialSpec) build() (material.Material, error) {
	switch strings.ToLower(m.Type) {
	case materialLambertian, materialMetal:
		albedo, err := toVec3(m.Albedo)
		if err != nil {
			return nil, fmt.Errorf("albedo: %v", err)
		}
		if albedo.X < 0 || albedo.Y < 0 || albedo.Z < 0 {
			return nil, fmt.Errorf("albedo must not be negative, got %v", albedo)
		}
		if strings.ToLower(m.Type) == materialLambertian {
			return material.NewLambertian(albedo), nil
		}
		return material.NewMetal(albedo, m.Fuzz), nil
	case materialDielectric:
		if m.RefractionIndex <= 0 {
			return nil, fmt.Errorf("refraction index must be positive, got %v", m.RefractionIndex)
		}
		return material.NewDielectric(m.RefractionIndex), nil
	default:
		return nil, fmt.Errorf("unknown material type %q", m.Type)
	}
}

func (c CameraSpec) config() (renderer.CameraConfig, error) {
	config := renderer.DefaultCameraConfig()
	if c.AspectRatio != nil {
		config.AspectRatio = *c.AspectRatio
	}
	if c.ImageWidth != nil {
		config.ImageWidth = *c.ImageWidth
	}
	if c.SamplesPerPixel != nil {
		config.SamplesPerPixel = *c.SamplesPerPixel
	}
	if c.MaxDepth != nil {
		config.MaxDepth = *c.MaxDepth
	}
	if c.VFov != nil {
		config.VFov = *c.VFov
	}
	if c.DefocusAngle != nil {
		config.DefocusAngle = *c.DefocusAngle
	}
	if c.FocusDist != nil {
		config.FocusDist = *c.FocusDist
	}

	var err error
	for _, field := range []struct {
		name  string
		value []float64
		dst   *core.Vec3
	}{
		{"lookFrom", c.LookFrom, &config.LookFrom},
		{"lookAt", c.LookAt, &config.LookAt},
		{"vup", c.VUp, &config.VUp},
	} {
		if field.value == nil {
			continue
		}
		v, vecErr := toVec3(field.value)
		if vecErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %v", field.name, vecErr))
			continue
		}
		*field.dst = v
	}
	return config, err
}

func toVec3(values []float64) (core.Vec3, error) {
	if len(values) != 3 {
		return core.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(values))
	}
	return core.NewVec3(values[0], values[1], values[2]), nil
}

package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

const validScene = `
name: shared
camera:
  imageWidth: 64
  samplesPerPixel: 8
  lookFrom: [0, 1, 3]
materials:
  red:
    type: lambertian
    albedo: [0.7, 0.1, 0.1]
  chrome:
    type: metal
    albedo: [0.9, 0.9, 0.9]
    fuzz: 2
  glass:
    type: Dielectric
    refractionIndex: 1.5
spheres:
  - center: [0, 0, -1]
    radius: 0.5
    material: red
  - center: [1, 0, -1]
    center1: [1, 0.5, -1]
    radius: 0.5
    material: chrome
  - center: [-1, 0, -1]
    radius: 0.5
    material: red
  - center: [0, 0, -3]
    radius: 1
    material: glass
`

func TestParseScene_Valid(t *testing.T) {
	s, err := ParseScene([]byte(validScene))
	require.NoError(t, err)

	assert.Equal(t, "shared", s.Name)
	require.Equal(t, 4, s.GetPrimitiveCount())

	objects := s.World.Objects()
	first := objects[0].(*geometry.Sphere)
	third := objects[2].(*geometry.Sphere)
	assert.Same(t, first.Material, third.Material, "spheres naming the same material share it")

	moving := objects[1].(*geometry.Sphere)
	assert.True(t, moving.IsMoving())
	assert.Equal(t, core.NewVec3(1, 0.5, -1), moving.Center(1))
	assert.Equal(t, 1.0, moving.Material.(*material.Metal).Fuzz, "fuzz is clamped")

	assert.IsType(t, &material.Dielectric{}, objects[3].(*geometry.Sphere).Material)
}

func TestParseScene_CameraDefaults(t *testing.T) {
	s, err := ParseScene([]byte(validScene))
	require.NoError(t, err)

	expected := renderer.DefaultCameraConfig()
	expected.ImageWidth = 64
	expected.SamplesPerPixel = 8
	expected.LookFrom = core.NewVec3(0, 1, 3)
	assert.Equal(t, expected, s.Camera)
}

func TestParseScene_EmptyWorld(t *testing.T) {
	s, err := ParseScene([]byte("materials: {}\nspheres: []\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.GetPrimitiveCount())
	assert.Equal(t, renderer.DefaultCameraConfig(), s.Camera)
}

func TestParseScene_CollectsAllErrors(t *testing.T) {
	input := `
camera:
  imageWidth: 0
  lookAt: [1, 2]
materials:
  mystery:
    type: plasma
  flat:
    type: dielectric
    refractionIndex: 0
  dark:
    type: lambertian
    albedo: [-0.1, 0, 0]
  good:
    type: lambertian
    albedo: [0.5, 0.5, 0.5]
spheres:
  - center: [0, 0, -1]
    radius: 0.5
    material: missing
  - center: [0, 0]
    radius: -1
    material: good
  - center: [0, 0, -1]
    radius: 0.5
    material: mystery
`
	_, err := ParseScene([]byte(input))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidScene))

	// camera vector, three bad materials, unknown reference, bad center, negative radius
	assert.Len(t, multierr.Errors(err), 7)
	assert.Contains(t, err.Error(), `unknown material type "plasma"`)
	assert.Contains(t, err.Error(), `unknown material "missing"`)
	assert.Contains(t, err.Error(), "refraction index must be positive")
	assert.Contains(t, err.Error(), "albedo must not be negative")
	assert.NotContains(t, err.Error(), `unknown material "mystery"`, "invalid materials are reported once")
}

func TestParseScene_InvalidCamera(t *testing.T) {
	_, err := ParseScene([]byte("camera:\n  imageWidth: 0\n  vfov: 200\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, renderer.ErrInvalidCamera)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestParseScene_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScene([]byte("materials: {}\nlights: []\n"))
	assert.ErrorIs(t, err, ErrInvalidScene)

	_, err = ParseScene([]byte("spheres: [ {center: [0,0,0], radius: 1, colour: red} ]"))
	assert.ErrorIs(t, err, ErrInvalidScene)
}

func TestParseScene_MalformedYAML(t *testing.T) {
	_, err := ParseScene([]byte("spheres: [ {center: "))
	assert.ErrorIs(t, err, ErrInvalidScene)
}

func TestLoadSceneFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "little-scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("materials: {}\nspheres: []\n"), 0o644))

	s, err := LoadSceneFile(path)
	require.NoError(t, err)
	assert.Equal(t, "little-scene", s.Name)

	_, err = LoadSceneFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadSceneFile_ShippedScenes(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "scenes", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadSceneFile(path)
			require.NoError(t, err)
			assert.Greater(t, s.GetPrimitiveCount(), 0)
		})
	}
}

package renderer

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/df07/go-pathtracer/pkg/core"
)

// ErrInvalidCamera is wrapped by every camera configuration error
var ErrInvalidCamera = errors.New("invalid camera configuration")

// CameraConfig contains the user-settable camera and sampling parameters
type CameraConfig struct {
	AspectRatio     float64   // Ratio of image width over height
	ImageWidth      int       // Rendered image width in pixels
	SamplesPerPixel int       // Number of random samples for each pixel
	MaxDepth        int       // Maximum number of ray bounces into the scene
	VFov            float64   // Vertical view angle in degrees
	LookFrom        core.Vec3 // Point camera is looking from
	LookAt          core.Vec3 // Point camera is looking at
	VUp             core.Vec3 // Camera-relative "up" direction
	DefocusAngle    float64   // Variation angle of rays through each pixel, in degrees
	FocusDist       float64   // Distance from LookFrom to the plane of perfect focus
}

// DefaultCameraConfig returns the default camera: a square 100px image looking down -Z
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		AspectRatio:     1.0,
		ImageWidth:      100,
		SamplesPerPixel: 10,
		MaxDepth:        10,
		VFov:            90,
		LookFrom:        core.NewVec3(0, 0, 0),
		LookAt:          core.NewVec3(0, 0, -1),
		VUp:             core.NewVec3(0, 1, 0),
		DefocusAngle:    0,
		FocusDist:       10,
	}
}

// Validate reports every problem with the configuration at once
func (c CameraConfig) Validate() error {
	var err error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidCamera}, args...)...))
		}
	}

	check(c.AspectRatio > 0 && !math.IsInf(c.AspectRatio, 0), "aspect ratio must be positive, got %v", c.AspectRatio)
	check(c.ImageWidth >= 1, "image width must be at least 1, got %d", c.ImageWidth)
	check(c.SamplesPerPixel >= 1, "samples per pixel must be at least 1, got %d", c.SamplesPerPixel)
	check(c.MaxDepth >= 0, "max depth must not be negative, got %d", c.MaxDepth)
	check(c.VFov > 0 && c.VFov < 180, "vertical fov must be in (0, 180) degrees, got %v", c.VFov)
	check(c.DefocusAngle >= 0 && c.DefocusAngle < 180, "defocus angle must be in [0, 180) degrees, got %v", c.DefocusAngle)
	check(c.FocusDist > 0 && !math.IsInf(c.FocusDist, 0), "focus distance must be positive, got %v", c.FocusDist)

	return err
}

// Camera generates primary rays for the configured view.
// All derived fields are computed once in NewCamera and never change.
type Camera struct {
	config CameraConfig

	imageHeight  int
	center       core.Vec3 // Camera center
	pixel00      core.Vec3 // Location of pixel 0, 0
	pixelDeltaU  core.Vec3 // Offset to pixel to the right
	pixelDeltaV  core.Vec3 // Offset to pixel below
	u, v, w      core.Vec3 // Camera frame basis vectors
	defocusDiskU core.Vec3 // Defocus disk horizontal radius
	defocusDiskV core.Vec3 // Defocus disk vertical radius
}

// NewCamera validates the configuration and derives the viewport geometry
func NewCamera(config CameraConfig) (*Camera, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Camera{config: config}

	c.imageHeight = int(float64(config.ImageWidth) / config.AspectRatio)
	if c.imageHeight < 1 {
		c.imageHeight = 1
	}

	c.center = config.LookFrom

	// Viewport dimensions
	theta := degreesToRadians(config.VFov)
	h := math.Tan(theta / 2)
	viewportHeight := 2 * h * config.FocusDist
	viewportWidth := viewportHeight * (float64(config.ImageWidth) / float64(c.imageHeight))

	c.w, c.u, c.v = cameraBasis(config.LookFrom, config.LookAt, config.VUp)

	// Vectors across the horizontal and down the vertical viewport edges
	viewportU := c.u.Multiply(viewportWidth)
	viewportV := c.v.Negate().Multiply(viewportHeight)

	c.pixelDeltaU = viewportU.Divide(float64(config.ImageWidth))
	c.pixelDeltaV = viewportV.Divide(float64(c.imageHeight))

	viewportUpperLeft := c.center.
		Subtract(c.w.Multiply(config.FocusDist)).
		Subtract(viewportU.Multiply(0.5)).
		Subtract(viewportV.Multiply(0.5))
	c.pixel00 = viewportUpperLeft.Add(c.pixelDeltaU.Add(c.pixelDeltaV).Multiply(0.5))

	defocusRadius := config.FocusDist * math.Tan(degreesToRadians(config.DefocusAngle/2))
	c.defocusDiskU = c.u.Multiply(defocusRadius)
	c.defocusDiskV = c.v.Multiply(defocusRadius)

	return c, nil
}

// cameraBasis returns the orthonormal frame (w, u, v) for the view.
// A camera looking at its own position looks down -Z, and an up vector
// parallel to the view direction is replaced by a world axis.
func cameraBasis(lookFrom, lookAt, vup core.Vec3) (w, u, v core.Vec3) {
	back := lookFrom.Subtract(lookAt)
	if back.NearZero() {
		w = core.NewVec3(0, 0, 1)
	} else {
		w = back.Normalize()
	}

	side := vup.Cross(w)
	if side.NearZero() {
		alternateUp := core.NewVec3(0, 1, 0)
		if math.Abs(w.Y) > 0.9 {
			alternateUp = core.NewVec3(1, 0, 0)
		}
		side = alternateUp.Cross(w)
	}
	u = side.Normalize()
	v = w.Cross(u)
	return w, u, v
}

// GetRay returns a randomly sampled camera ray for the pixel at column i, row j.
// The ray originates from the defocus disk and is jittered within the pixel square.
func (c *Camera) GetRay(i, j int, sampler core.Sampler) core.Ray {
	offset := sampler.Get2D()
	pixelSample := c.pixel00.
		Add(c.pixelDeltaU.Multiply(float64(i) + offset.X - 0.5)).
		Add(c.pixelDeltaV.Multiply(float64(j) + offset.Y - 0.5))

	origin := c.center
	if c.config.DefocusAngle > 0 {
		origin = c.defocusDiskSample(sampler)
	}

	return core.NewRayAtTime(origin, pixelSample.Subtract(origin), sampler.Get1D())
}

// GetCenterRay returns the unjittered ray from the camera center through the middle of a pixel
func (c *Camera) GetCenterRay(i, j int) core.Ray {
	pixelCenter := c.pixel00.
		Add(c.pixelDeltaU.Multiply(float64(i))).
		Add(c.pixelDeltaV.Multiply(float64(j)))
	return core.NewRay(c.center, pixelCenter.Subtract(c.center))
}

func (c *Camera) defocusDiskSample(sampler core.Sampler) core.Vec3 {
	p := core.RandomInUnitDisk(sampler)
	return c.center.Add(c.defocusDiskU.Multiply(p.X)).Add(c.defocusDiskV.Multiply(p.Y))
}

// ImageWidth returns the image width in pixels
func (c *Camera) ImageWidth() int { return c.config.ImageWidth }

// ImageHeight returns the derived image height in pixels
func (c *Camera) ImageHeight() int { return c.imageHeight }

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig { return c.config }

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

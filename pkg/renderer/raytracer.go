package renderer

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
)

// Scene interface to avoid circular imports
type Scene interface {
	GetWorld() geometry.Shape
	GetCameraConfig() CameraConfig
}

// PixelSink receives finished scanlines. Rows arrive strictly top to bottom.
type PixelSink interface {
	Begin(width, height int) error
	WriteRow(y int, row []RGB8) error
}

// ProgressFunc is called after each emitted scanline with the number of rows still to go
type ProgressFunc func(remaining int)

// RenderOptions controls how a render is scheduled
type RenderOptions struct {
	NumWorkers int          // Number of parallel workers (0 = auto-detect)
	Seed       int64        // Base seed; row j samples from Seed+j
	Progress   ProgressFunc // Optional progress callback
	Logger     core.Logger  // Optional logger
}

// shadowAcneEpsilon keeps scattered rays from re-hitting their own surface
const shadowAcneEpsilon = 0.001

var (
	skyBottom = core.NewVec3(1.0, 1.0, 1.0)
	skyTop    = core.NewVec3(0.5, 0.7, 1.0)
)

// Raytracer traces camera rays through a scene
type Raytracer struct {
	world   geometry.Shape
	camera  *Camera
	options RenderOptions
}

// NewRaytracer creates a raytracer for the scene's world and camera
func NewRaytracer(scene Scene, options RenderOptions) (*Raytracer, error) {
	camera, err := NewCamera(scene.GetCameraConfig())
	if err != nil {
		return nil, err
	}
	if options.Logger == nil {
		options.Logger = core.NopLogger{}
	}
	return &Raytracer{
		world:   scene.GetWorld(),
		camera:  camera,
		options: options,
	}, nil
}

// Camera returns the camera used for primary rays
func (rt *Raytracer) Camera() *Camera {
	return rt.camera
}

// RayColor returns the radiance carried back along r, bouncing at most depth times
func (rt *Raytracer) RayColor(r core.Ray, depth int, sampler core.Sampler) core.Vec3 {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Vec3{}
	}

	hit, isHit := rt.world.Hit(r, core.NewInterval(shadowAcneEpsilon, math.Inf(1)))
	if !isHit {
		return backgroundGradient(r)
	}

	scatter, didScatter := hit.Material.Scatter(r, *hit, sampler)
	if !didScatter {
		return core.Vec3{}
	}

	return scatter.Attenuation.MultiplyVec(rt.RayColor(scatter.Scattered, depth-1, sampler))
}

// backgroundGradient blends white at the bottom into sky blue at the top
func backgroundGradient(r core.Ray) core.Vec3 {
	unitDirection := r.Direction.Normalize()
	a := 0.5 * (unitDirection.Y + 1.0)
	return skyBottom.Multiply(1.0 - a).Add(skyTop.Multiply(a))
}

// PixelColor returns the mean linear color of the configured number of samples for pixel (i, j)
func (rt *Raytracer) PixelColor(i, j int, sampler core.Sampler) core.Vec3 {
	config := rt.camera.Config()
	var ps PixelStats
	for s := 0; s < config.SamplesPerPixel; s++ {
		ray := rt.camera.GetRay(i, j, sampler)
		ps.AddSample(rt.RayColor(ray, config.MaxDepth, sampler))
	}
	return ps.GetColor()
}

// RenderRow renders scanline j into quantized pixels and their linear luminance
func (rt *Raytracer) RenderRow(j int, sampler core.Sampler) RowResult {
	width := rt.camera.ImageWidth()
	result := RowResult{
		Row:       j,
		Pixels:    make([]RGB8, width),
		Luminance: make([]float64, width),
		Samples:   width * rt.camera.Config().SamplesPerPixel,
	}
	for i := 0; i < width; i++ {
		color := rt.PixelColor(i, j, sampler)
		result.Pixels[i] = ToRGB8(color)
		result.Luminance[i] = color.Luminance()
	}
	return result
}

// Render traces every pixel and streams the scanlines to sink in order.
// Rows are rendered in parallel; a sink error stops the workers and is returned.
func (rt *Raytracer) Render(ctx context.Context, sink PixelSink) (RenderStats, error) {
	width, height := rt.camera.ImageWidth(), rt.camera.ImageHeight()
	stats := RenderStats{Width: width, Height: height}

	if err := sink.Begin(width, height); err != nil {
		return stats, fmt.Errorf("failed to begin output: %w", err)
	}

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)

	pool := NewWorkerPool(rt, height, rt.options.NumWorkers, rt.options.Seed)
	stats.NumWorkers = pool.GetNumWorkers()
	rt.options.Logger.Printf("Rendering %dx%d at %d samples/pixel using %d workers...\n",
		width, height, rt.camera.Config().SamplesPerPixel, stats.NumWorkers)

	pool.Start(ctx, g)

	g.Go(func() error {
		defer pool.Close()
		for j := 0; j < height; j++ {
			if err := pool.SubmitTask(ctx, RowTask{Row: j}); err != nil {
				return err
			}
		}
		return nil
	})

	luminance := make([]float64, 0, width*height)
	g.Go(func() error {
		pending := make(map[int]RowResult)
		next := 0
		for next < height {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case result := <-pool.Results():
				pending[result.Row] = result
			}

			for {
				result, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)

				if err := sink.WriteRow(next, result.Pixels); err != nil {
					return fmt.Errorf("failed to write row %d: %w", next, err)
				}
				stats.TotalPixels += len(result.Pixels)
				stats.TotalSamples += result.Samples
				luminance = append(luminance, result.Luminance...)
				next++

				if rt.options.Progress != nil {
					rt.options.Progress(height - next)
				}
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	if len(luminance) > 1 {
		stats.MeanLuminance, stats.LuminanceStdDev = stat.MeanStdDev(luminance, nil)
	} else {
		stats.MeanLuminance = stat.Mean(luminance, nil)
	}
	return stats, nil
}

package renderer

import (
	"image"
	"image/color"

	"github.com/df07/go-postcard-raytracer/pkg/core"
	"github.com/df07/go-postcard-raytracer/pkg/integrator"
	"github.com/df07/go-postcard-raytracer/pkg/scene"
)

// toneBias lifts every pixel slightly before Reinhard compression
const toneBias float32 = 14.0 / 241

// Raytracer renders the whole image on one goroutine with a single random stream,
// visiting pixels and samples in the canonical postcard order.
type Raytracer struct {
	scene      *scene.Scene
	width      int
	height     int
	samples    int
	camera     *Camera
	integrator integrator.Integrator
	sampler    core.Sampler
}

// NewRaytracer creates a raytracer using the scene's sampling configuration
func NewRaytracer(s *scene.Scene, sampler core.Sampler) *Raytracer {
	config := s.SamplingConfig
	return &Raytracer{
		scene:      s,
		width:      config.Width,
		height:     config.Height,
		samples:    config.SamplesPerPixel,
		camera:     NewCamera(s.CameraConfig, config.Width, config.Height),
		integrator: integrator.NewPathTracingIntegrator(s),
		sampler:    sampler,
	}
}

// RenderPass renders every pixel and returns the tone-mapped image.
// Image rows run from the top scan-line down and columns from the camera's
// rightmost x leftwards, which is the order the pixel map is written in.
func (rt *Raytracer) RenderPass() (*image.RGBA, RenderStats) {
	img := image.NewRGBA(image.Rect(0, 0, rt.width, rt.height))
	stats := RenderStats{
		TotalPixels:    rt.width * rt.height,
		MaxSamples:     rt.samples,
		MinSamples:     rt.samples,
		MaxSamplesUsed: rt.samples,
	}

	for row := 0; row < rt.height; row++ {
		for col := 0; col < rt.width; col++ {
			colorAccum := core.Vec3{}
			for sample := 0; sample < rt.samples; sample++ {
				ray := rt.camera.GetPixelRay(col, row, rt.sampler)
				colorAccum = colorAccum.Add(rt.integrator.RayColor(ray, rt.sampler))
			}
			img.SetRGBA(col, row, ToneMap(colorAccum.Multiply(1/float32(rt.samples))))
			stats.TotalSamples += rt.samples
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return img, stats
}

// ToneMap converts an averaged radiance into an opaque 8-bit color with
// Reinhard compression c/(c+1) after adding a small bias.
func ToneMap(radiance core.Vec3) color.RGBA {
	c := radiance.Add(core.Broadcast(toneBias))
	o := c.Add(core.Broadcast(1))
	c = core.NewVec3(c.X/o.X, c.Y/o.Y, c.Z/o.Z).Multiply(255)

	return color.RGBA{
		R: uint8(int32(c.X)),
		G: uint8(int32(c.Y)),
		B: uint8(int32(c.Z)),
		A: 255,
	}
}

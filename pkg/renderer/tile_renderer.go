package renderer

import (
	"image"

	"github.com/df07/go-postcard-raytracer/pkg/core"
	"github.com/df07/go-postcard-raytracer/pkg/integrator"
)

// TileRenderer handles the actual rendering of individual tiles using an integrator
type TileRenderer struct {
	camera     *Camera
	integrator integrator.Integrator
}

// NewTileRenderer creates a new tile renderer with the given camera and integrator
func NewTileRenderer(camera *Camera, integratorInst integrator.Integrator) *TileRenderer {
	return &TileRenderer{
		camera:     camera,
		integrator: integratorInst,
	}
}

// RenderTileBounds tops up every pixel inside bounds to targetSamples samples
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, pixelStats [][]PixelStats, sampler core.Sampler, targetSamples int) RenderStats {
	stats := tr.initRenderStatsForBounds(bounds, targetSamples)

	for row := bounds.Min.Y; row < bounds.Max.Y; row++ {
		for col := bounds.Min.X; col < bounds.Max.X; col++ {
			samplesUsed := tr.samplePixel(col, row, &pixelStats[row][col], sampler, targetSamples)
			tr.updateStats(&stats, samplesUsed)
		}
	}

	tr.finalizeStats(&stats)
	return stats
}

// samplePixel takes samples until the pixel holds targetSamples
func (tr *TileRenderer) samplePixel(col, row int, ps *PixelStats, sampler core.Sampler, targetSamples int) int {
	initialSampleCount := ps.SampleCount

	for ps.SampleCount < targetSamples {
		ray := tr.camera.GetPixelRay(col, row, sampler)
		ps.AddSample(tr.integrator.RayColor(ray, sampler))
	}

	return ps.SampleCount - initialSampleCount
}

// initRenderStatsForBounds initializes the render statistics tracking for specific bounds
func (tr *TileRenderer) initRenderStatsForBounds(bounds image.Rectangle, maxSamples int) RenderStats {
	return RenderStats{
		TotalPixels: bounds.Dx() * bounds.Dy(),
		MaxSamples:  maxSamples,
		MinSamples:  maxSamples, // Start with max, will be reduced
	}
}

// updateStats updates the render statistics with data from a single pixel
func (tr *TileRenderer) updateStats(stats *RenderStats, samplesUsed int) {
	stats.TotalSamples += samplesUsed
	stats.MinSamples = min(stats.MinSamples, samplesUsed)
	stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, samplesUsed)
}

// finalizeStats calculates final statistics after all pixels are rendered
func (tr *TileRenderer) finalizeStats(stats *RenderStats) {
	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
}

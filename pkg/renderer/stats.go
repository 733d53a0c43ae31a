package renderer

import (
	"time"

	"github.com/df07/go-volume-raymarcher/pkg/raster"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int           // Pixels in the image
	TilesRendered  int           // Tiles traced
	TilesCulled    int           // Tiles skipped because no ray could reach the volume
	NonBlackPixels int           // Pixels with any non-zero channel after clamping
	PrimarySamples int           // Density samples along camera rays
	ShadowSamples  int           // Density samples along shadow rays
	EarlyExits     int           // Camera rays stopped at the transmittance cutoff
	Duration       time.Duration // Wall time of the render
}

// Merge adds the counters of another tile's statistics
func (rs *RenderStats) Merge(other RenderStats) {
	rs.TotalPixels += other.TotalPixels
	rs.TilesRendered += other.TilesRendered
	rs.TilesCulled += other.TilesCulled
	rs.NonBlackPixels += other.NonBlackPixels
	rs.PrimarySamples += other.PrimarySamples
	rs.ShadowSamples += other.ShadowSamples
	rs.EarlyExits += other.EarlyExits
}

// SamplesPerPixel returns the average number of primary samples per pixel
func (rs RenderStats) SamplesPerPixel() float64 {
	if rs.TotalPixels == 0 {
		return 0
	}
	return float64(rs.PrimarySamples) / float64(rs.TotalPixels)
}

// AverageLuminance returns the mean luminance of the image
func AverageLuminance(img *raster.Image) float64 {
	if img.Width == 0 || img.Height == 0 {
		return 0
	}
	total := 0.0
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			total += img.At(x, y).Luminance()
		}
	}
	return total / float64(img.Width*img.Height)
}

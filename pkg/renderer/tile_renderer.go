package renderer

import (
	"image"

	"github.com/df07/go-volume-raymarcher/pkg/core"
	"github.com/df07/go-volume-raymarcher/pkg/integrator"
	"github.com/df07/go-volume-raymarcher/pkg/raster"
)

// TileRenderer handles the actual rendering of individual tiles using an integrator
type TileRenderer struct {
	camera     *Camera
	integrator core.Integrator
	counted    integrator.Counted // Same integrator when it reports sample counts
}

// NewTileRenderer creates a new tile renderer with the given camera and integrator
func NewTileRenderer(camera *Camera, integratorInst core.Integrator) *TileRenderer {
	counted, _ := integratorInst.(integrator.Counted)
	return &TileRenderer{
		camera:     camera,
		integrator: integratorInst,
		counted:    counted,
	}
}

// RenderTileBounds renders one ray per pixel within bounds into img. Tiles
// write disjoint pixel ranges, so concurrent calls with non-overlapping
// bounds are safe.
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, img *raster.Image) RenderStats {
	stats := RenderStats{
		TotalPixels:   bounds.Dx() * bounds.Dy(),
		TilesRendered: 1,
	}

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			ray := tr.camera.GetPixelRay(i, j, img.Width, img.Height)
			color := tr.rayColor(ray, &stats)
			img.Set(i, j, color)

			if r, g, b := img.Bytes(i, j); r != 0 || g != 0 || b != 0 {
				stats.NonBlackPixels++
			}
		}
	}

	return stats
}

func (tr *TileRenderer) rayColor(ray core.Ray, stats *RenderStats) core.Vec3 {
	if tr.counted == nil {
		return tr.integrator.RayColor(ray)
	}

	result := tr.counted.Trace(ray)
	stats.PrimarySamples += result.Steps
	stats.ShadowSamples += result.ShadowSteps
	if result.EarlyExit {
		stats.EarlyExits++
	}
	return result.Color
}

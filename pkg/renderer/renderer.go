// Package renderer drives tile-parallel rendering of a camera view through
// an integrator into a raster image.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"time"

	"github.com/df07/go-volume-raymarcher/pkg/core"
	"github.com/df07/go-volume-raymarcher/pkg/raster"
)

// ErrInvalidSize is returned for images without pixels
var ErrInvalidSize = errors.New("renderer: image dimensions must be positive")

// cullMargin widens the projected volume rectangle, in pixels
const cullMargin = 2.0

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// WriterLogger implements core.Logger on top of any writer
type WriterLogger struct {
	W io.Writer
}

func (wl *WriterLogger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(wl.W, format, args...)
}

// Config contains configuration for a render
type Config struct {
	TileSize   int  // Size of each square tile in pixels
	NumWorkers int  // Number of parallel workers (0 = use CPU count)
	CullTiles  bool // Skip tiles no camera ray through which can reach the integrator's bounds
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		TileSize:   32,
		NumWorkers: 0, // Auto-detect CPU count
		CullTiles:  true,
	}
}

// Renderer renders one image of a camera view
type Renderer struct {
	camera        *Camera
	integrator    core.Integrator
	width, height int
	config        Config
	logger        core.Logger
}

// NewRenderer creates a renderer. A nil logger discards output.
func NewRenderer(camera *Camera, integratorInst core.Integrator, width, height int, config Config, logger core.Logger) *Renderer {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Renderer{
		camera:     camera,
		integrator: integratorInst,
		width:      width,
		height:     height,
		config:     config,
		logger:     logger,
	}
}

// Render traces one ray per pixel and returns the finished image. All tiles
// complete before Render returns.
func (r *Renderer) Render() (*raster.Image, RenderStats, error) {
	if r.width <= 0 || r.height <= 0 {
		return nil, RenderStats{}, fmt.Errorf("%w: %dx%d", ErrInvalidSize, r.width, r.height)
	}

	start := time.Now()
	img := raster.NewImage(r.width, r.height)
	tiles := NewTileGrid(r.width, r.height, r.config.TileSize)

	cullRect, cull := r.cullRect()
	var stats RenderStats
	var work []*Tile
	for _, tile := range tiles {
		if cull && !tile.Bounds.Overlaps(cullRect) {
			stats.TotalPixels += tile.Bounds.Dx() * tile.Bounds.Dy()
			stats.TilesCulled++
			continue
		}
		work = append(work, tile)
	}

	workerPool := NewWorkerPool(r.camera, r.integrator, len(work), r.config.NumWorkers)
	r.logger.Printf("Rendering %dx%d in %d tiles (%d culled) using %d workers...\n",
		r.width, r.height, len(tiles), stats.TilesCulled, workerPool.GetNumWorkers())

	workerPool.Start()
	for i, tile := range work {
		workerPool.SubmitTask(TileTask{Tile: tile, TaskID: i, Image: img})
	}

	var firstErr error
	for range work {
		result, ok := workerPool.GetResult()
		if !ok {
			firstErr = fmt.Errorf("worker pool closed unexpectedly")
			break
		}
		if result.Error != nil && firstErr == nil {
			firstErr = result.Error
		}
		stats.Merge(result.Stats)
	}
	workerPool.Stop()

	if firstErr != nil {
		return nil, RenderStats{}, firstErr
	}

	stats.Duration = time.Since(start)
	r.logger.Printf("Render completed in %v: %d non-black pixels, %.1f samples/pixel, %d shadow samples, average luminance %.4f\n",
		stats.Duration, stats.NonBlackPixels, stats.SamplesPerPixel(), stats.ShadowSamples, AverageLuminance(img))

	return img, stats, nil
}

// cullRect returns the pixel rectangle, as a half-open image rectangle,
// that contains every pixel whose center ray can hit the integrator's
// bounds. ok is false when culling does not apply: it is disabled, the
// integrator is unbounded, or part of the box lies behind the camera.
func (r *Renderer) cullRect() (rect image.Rectangle, ok bool) {
	if !r.config.CullTiles {
		return image.Rectangle{}, false
	}
	bounded, isBounded := r.integrator.(core.Bounded)
	if !isBounded {
		return image.Rectangle{}, false
	}
	box := bounded.Bounds()
	if !box.IsValid() {
		return image.Rectangle{}, false
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, corner := range box.Corners() {
		u, v, inFront := r.camera.Project(corner)
		if !inFront {
			return image.Rectangle{}, false
		}
		// Pixel (x, y) has its center at u = (x+0.5)/W, v = 1-(y+0.5)/H
		x := u*float64(r.width) - 0.5
		y := (1-v)*float64(r.height) - 0.5
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	for _, v := range []float64{minX, minY, maxX, maxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return image.Rectangle{}, false
		}
	}

	x0 := clampPixel(math.Floor(minX-cullMargin), r.width)
	y0 := clampPixel(math.Floor(minY-cullMargin), r.height)
	x1 := clampPixel(math.Ceil(maxX+cullMargin)+1, r.width)
	y1 := clampPixel(math.Ceil(maxY+cullMargin)+1, r.height)
	return image.Rect(x0, y0, x1, y1), true
}

// clampPixel converts a pixel coordinate to int within [0, limit]
func clampPixel(v float64, limit int) int {
	return int(math.Max(0, math.Min(float64(limit), v)))
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

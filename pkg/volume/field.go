package volume

import (
	"errors"
	"fmt"

	"github.com/df07/go-volume-raymarcher/pkg/core"
)

// ErrEmptyGrid is returned when a grid has no active voxels
var ErrEmptyGrid = errors.New("volume: grid has no active voxels")

// Field exposes a float grid as a core.ScalarField using nearest,
// cell-centered lookups. Concurrent SampleAt calls are safe as long as
// the grid is no longer modified.
type Field struct {
	grid   *FloatGrid
	bounds core.AABB
}

// NewField wraps a grid. The bounding region is the world-space extent of
// the active voxels' cells.
func NewField(grid *FloatGrid) (*Field, error) {
	bbox, ok := grid.ActiveBoundingBox()
	if !ok {
		return nil, fmt.Errorf("grid %q: %w", grid.Name(), ErrEmptyGrid)
	}

	xf := grid.Transform()
	lo := xf.IndexToWorld(core.NewVec3(float64(bbox.Min.X)-0.5, float64(bbox.Min.Y)-0.5, float64(bbox.Min.Z)-0.5))
	hi := xf.IndexToWorld(core.NewVec3(float64(bbox.Max.X)+0.5, float64(bbox.Max.Y)+0.5, float64(bbox.Max.Z)+0.5))

	return &Field{
		grid:   grid,
		bounds: core.NewAABBFromPoints(lo, hi),
	}, nil
}

// BoundingRegion returns the world-space box of the active voxels
func (f *Field) BoundingRegion() core.AABB {
	return f.bounds
}

// SampleAt returns the value of the voxel containing p
func (f *Field) SampleAt(p core.Vec3) float64 {
	return float64(f.grid.Value(f.grid.transform.WorldToIndexCellCentered(p)))
}

// Grid returns the backing grid
func (f *Field) Grid() *FloatGrid {
	return f.grid
}

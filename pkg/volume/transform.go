package volume

import (
	"math"

	"github.com/df07/go-volume-raymarcher/pkg/core"
)

// indexLimit keeps rounded world positions inside the int32 index range
const indexLimit = 1 << 30

// Transform maps index space to world space:
// world = index * VoxelSize + Translation
type Transform struct {
	VoxelSize   core.Vec3
	Translation core.Vec3
}

// NewUniformTransform returns a transform with cubic voxels and no offset
func NewUniformTransform(voxelSize float64) Transform {
	return Transform{VoxelSize: core.NewVec3(voxelSize, voxelSize, voxelSize)}
}

// IndexToWorld maps a (possibly fractional) index position to world space
func (t Transform) IndexToWorld(ijk core.Vec3) core.Vec3 {
	return ijk.MultiplyVec(t.VoxelSize).Add(t.Translation)
}

// CoordToWorld returns the world position of a voxel center
func (t Transform) CoordToWorld(c Coord) core.Vec3 {
	return t.IndexToWorld(core.NewVec3(float64(c.X), float64(c.Y), float64(c.Z)))
}

// WorldToIndex maps a world position to fractional index space
func (t Transform) WorldToIndex(p core.Vec3) core.Vec3 {
	d := p.Subtract(t.Translation)
	return core.NewVec3(d.X/t.VoxelSize.X, d.Y/t.VoxelSize.Y, d.Z/t.VoxelSize.Z)
}

// WorldToIndexCellCentered returns the voxel whose cell contains p. Voxel
// centers sit on integer indices, so the cell of voxel i spans [i-0.5, i+0.5).
func (t Transform) WorldToIndexCellCentered(p core.Vec3) Coord {
	ijk := t.WorldToIndex(p)
	return Coord{roundIndex(ijk.X), roundIndex(ijk.Y), roundIndex(ijk.Z)}
}

func roundIndex(v float64) int32 {
	r := math.Floor(v + 0.5)
	if math.IsNaN(r) {
		return 0
	}
	return int32(max(-indexLimit, min(indexLimit, r)))
}

package volume

import (
	"fmt"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the active values of a float grid
type Stats struct {
	ActiveVoxels int
	Min, Max     float32
	Mean         float64
	StdDev       float64
}

// FloatStats computes statistics over the active voxels of g
func FloatStats(g *FloatGrid) (Stats, error) {
	values := make([]float64, 0, g.ActiveVoxelCount())
	s := Stats{Min: math32.MaxFloat32, Max: -math32.MaxFloat32}

	g.ForEachActive(func(_ Coord, v float32) {
		s.Min = math32.Min(s.Min, v)
		s.Max = math32.Max(s.Max, v)
		values = append(values, float64(v))
	})
	if len(values) == 0 {
		return Stats{}, fmt.Errorf("grid %q: %w", g.Name(), ErrEmptyGrid)
	}

	s.ActiveVoxels = len(values)
	if len(values) < 2 {
		s.Mean = values[0]
		return s, nil
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	return s, nil
}

// VectorStats holds per-component extremes of a vector grid
type VectorStats struct {
	ActiveVoxels int
	Min, Max     Vec3f
}

// Vec3Stats computes per-component minimum and maximum over active voxels
func Vec3Stats(g *Vec3Grid) (VectorStats, error) {
	s := VectorStats{
		Min: Vec3f{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Max: Vec3f{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}

	g.ForEachActive(func(_ Coord, v Vec3f) {
		for i := range v {
			s.Min[i] = math32.Min(s.Min[i], v[i])
			s.Max[i] = math32.Max(s.Max[i], v[i])
		}
		s.ActiveVoxels++
	})
	if s.ActiveVoxels == 0 {
		return VectorStats{}, fmt.Errorf("grid %q: %w", g.Name(), ErrEmptyGrid)
	}
	return s, nil
}

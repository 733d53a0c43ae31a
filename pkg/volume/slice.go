package volume

import (
	"github.com/chewxy/math32"

	"github.com/df07/go-volume-raymarcher/pkg/raster"
)

// HeatColor maps v within [minVal, maxVal] onto a black, blue, green, red,
// white ramp. Each quarter of the range blends between two neighbours.
func HeatColor(v, minVal, maxVal float32) (r, g, b uint8) {
	var t float32
	if maxVal > minVal {
		t = (v - minVal) / (maxVal - minVal)
	} else if v >= maxVal {
		t = 1
	}
	t = math32.Max(0, math32.Min(1, t))

	ramp := func(x float32) uint8 { return uint8(x * 4 * 255) }
	switch {
	case t < 0.25:
		b = ramp(t)
	case t < 0.5:
		b = ramp(0.5 - t)
		g = ramp(t - 0.25)
	case t < 0.75:
		g = ramp(0.75 - t)
		r = ramp(t - 0.5)
	default:
		r = 255
		g = ramp(t - 0.75)
		b = g
	}
	return r, g, b
}

// SliceImage renders the XY plane of bbox at index z as a heat map, one
// pixel per voxel. Row y of the image is index bbox.Min.Y + y.
func SliceImage(g *FloatGrid, bbox CoordBBox, z int32, minVal, maxVal float32) *raster.Image {
	dim := bbox.Dim()
	img := raster.NewImage(int(dim.X), int(dim.Y))

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := Coord{bbox.Min.X + int32(x), bbox.Min.Y + int32(y), z}
			r, gr, b := HeatColor(g.Value(c), minVal, maxVal)
			img.Set(x, y, raster.ColorFromBytes(r, gr, b))
		}
	}
	return img
}

// MidSliceImage renders the slice through the middle of the active
// bounding box using the grid's own value range
func MidSliceImage(g *FloatGrid) (*raster.Image, error) {
	bbox, ok := g.ActiveBoundingBox()
	if !ok {
		return nil, ErrEmptyGrid
	}
	s, err := FloatStats(g)
	if err != nil {
		return nil, err
	}
	midZ := (bbox.Min.Z + bbox.Max.Z) / 2
	return SliceImage(g, bbox, midZ, s.Min, s.Max), nil
}

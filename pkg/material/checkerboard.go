package material

import (
	"math"

	"github.com/df07/go-volume-raymarcher/pkg/core"
)

// Checkerboard alternates two colors over squares of Size world units in
// the XZ plane
type Checkerboard struct {
	Size float64
	Even core.Vec3
	Odd  core.Vec3
}

// NewCheckerboard creates the default ground pattern: 2 unit squares of
// light and dark gray
func NewCheckerboard() *Checkerboard {
	return &Checkerboard{
		Size: 2.0,
		Even: core.NewVec3(0.8, 0.8, 0.8),
		Odd:  core.NewVec3(0.2, 0.2, 0.2),
	}
}

// Evaluate returns Even when the square indices sum to an even number. The
// sum uses Go's truncated remainder, so a negative odd sum yields -1 and
// reads as Odd.
func (c *Checkerboard) Evaluate(point core.Vec3) core.Vec3 {
	x := int(math.Floor(point.X / c.Size))
	z := int(math.Floor(point.Z / c.Size))

	if (x+z)%2 == 0 {
		return c.Even
	}
	return c.Odd
}

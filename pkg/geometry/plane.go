// Package geometry holds the analytic surfaces used by the ground-plane scene.
package geometry

import (
	"math"

	"github.com/df07/go-volume-raymarcher/pkg/core"
)

// parallelEpsilon is the smallest |direction · normal| that still counts as
// crossing the plane
const parallelEpsilon = 1e-6

// HitRecord describes a ray/surface intersection
type HitRecord struct {
	T      float64
	Point  core.Vec3
	Normal core.Vec3 // Surface normal as stored on the shape, not flipped toward the ray
}

// Plane represents an infinite plane defined by a point and normal
type Plane struct {
	Point  core.Vec3 // A point on the plane
	Normal core.Vec3 // Unit normal
}

// NewPlane creates a new plane
func NewPlane(point, normal core.Vec3) *Plane {
	return &Plane{
		Point:  point,
		Normal: normal.Normalize(),
	}
}

// NewGroundPlane returns the plane y = 0 facing +Y
func NewGroundPlane() *Plane {
	return NewPlane(core.Vec3{}, core.NewVec3(0, 1, 0))
}

// Hit tests if a ray intersects the plane at a parameter greater than tMin
func (p *Plane) Hit(ray core.Ray, tMin float64) (HitRecord, bool) {
	denominator := ray.Direction.Dot(p.Normal)

	// Parallel rays never reach the plane
	if math.Abs(denominator) < parallelEpsilon {
		return HitRecord{}, false
	}

	t := p.Point.Subtract(ray.Origin).Dot(p.Normal) / denominator
	if !(t > tMin) {
		return HitRecord{}, false
	}

	return HitRecord{
		T:      t,
		Point:  ray.At(t),
		Normal: p.Normal,
	}, true
}

package core

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// ScalarField is a read-only density source over continuous world space.
// Implementations must be safe for concurrent use by multiple goroutines.
type ScalarField interface {
	// BoundingRegion returns the world-space box that contains every
	// non-zero value of the field.
	BoundingRegion() AABB
	// SampleAt returns the value at a world-space point. Points outside the
	// bounding region return the field's background value.
	SampleAt(p Vec3) float64
}

// Integrator computes the radiance carried back along a camera ray
type Integrator interface {
	RayColor(ray Ray) Vec3
}

// Bounded is implemented by integrators whose non-zero output is confined
// to rays that hit a finite world-space box.
type Bounded interface {
	Bounds() AABB
}

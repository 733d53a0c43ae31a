// Package material provides the surface colors of the ground-plane scene.
package material

import (
	"github.com/df07/go-volume-raymarcher/pkg/core"
)

// ColorSource provides spatially-varying colors for surfaces
type ColorSource interface {
	// Evaluate returns the base color at a world-space point
	Evaluate(point core.Vec3) core.Vec3
}

// Package integrator computes the radiance carried back along camera rays,
// either by marching a participating medium or by shading an analytic
// surface.
package integrator

import (
	"github.com/df07/go-volume-raymarcher/pkg/core"
)

// Both integrators plug into the renderer through core.Integrator
var (
	_ core.Integrator = (*VolumeIntegrator)(nil)
	_ core.Bounded    = (*VolumeIntegrator)(nil)
	_ core.Integrator = (*PhongIntegrator)(nil)
)

// MarchResult is everything one primary ray march produced
type MarchResult struct {
	Color         core.Vec3 // Scattered radiance, unclamped
	Transmittance float64   // Transmittance left after the last sample
	Steps         int       // Primary samples taken
	ShadowSteps   int       // Shadow samples taken across all shadow rays
	EarlyExit     bool      // March stopped at the transmittance cutoff
}

// Counted is implemented by integrators that can report per-ray sample
// counts alongside the color
type Counted interface {
	Trace(ray core.Ray) MarchResult
}

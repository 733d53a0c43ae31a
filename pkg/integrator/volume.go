package integrator

import (
	"math"

	"github.com/df07/go-volume-raymarcher/pkg/core"
	"github.com/df07/go-volume-raymarcher/pkg/lights"
)

// VolumeConfig controls the ray march
type VolumeConfig struct {
	StepSize            float64 // Distance between samples along primary and shadow rays
	ShadowMaxDistance   float64 // How far shadow rays march toward the light
	TransmittanceCutoff float64 // Marching stops once transmittance falls to this value
	Phase               float64 // Phase function value, constant for isotropic scattering
}

// DefaultVolumeConfig returns the standard march settings
func DefaultVolumeConfig() VolumeConfig {
	return VolumeConfig{
		StepSize:            0.1,
		ShadowMaxDistance:   20.0,
		TransmittanceCutoff: 0.01,
		Phase:               1.0 / (4.0 * math.Pi),
	}
}

// VolumeIntegrator renders a density field with single scattering from one
// directional light. It holds no mutable state and is safe for concurrent
// use.
type VolumeIntegrator struct {
	field  core.ScalarField
	light  lights.DirectionalLight
	config VolumeConfig
	bounds core.AABB
}

// NewVolumeIntegrator creates a volume integrator. The light direction is
// normalized and the field's bounding region is captured once.
func NewVolumeIntegrator(field core.ScalarField, light lights.DirectionalLight, config VolumeConfig) *VolumeIntegrator {
	light.Direction = light.Direction.Normalize()
	return &VolumeIntegrator{
		field:  field,
		light:  light,
		config: config,
		bounds: field.BoundingRegion(),
	}
}

// Bounds returns the region outside of which every ray is black
func (vi *VolumeIntegrator) Bounds() core.AABB {
	return vi.bounds
}

// Config returns the march settings
func (vi *VolumeIntegrator) Config() VolumeConfig {
	return vi.config
}

// RayColor returns the scattered radiance along ray
func (vi *VolumeIntegrator) RayColor(ray core.Ray) core.Vec3 {
	return vi.Trace(ray).Color
}

// Trace marches ray through the bounding region. Sample i sits at
// start + i*StepSize where start = max(tMin, 0). Each sample with density
// adds LightColor * Phase * Ts * T * e, using the transmittance T from
// before the sample attenuates it.
func (vi *VolumeIntegrator) Trace(ray core.Ray) MarchResult {
	return vi.march(ray, nil)
}

// march is Trace with an optional observer that receives the transmittance
// arriving at each sample
func (vi *VolumeIntegrator) march(ray core.Ray, observe func(transmittance float64)) MarchResult {
	result := MarchResult{Transmittance: 1}

	tMin, tMax, hit := vi.bounds.Intersect(ray)
	if !hit {
		return result
	}

	step := vi.config.StepSize
	start := math.Max(tMin, 0)
	n := sampleCount(tMax-start, step)

	radiance := vi.light.Color.Multiply(vi.config.Phase)
	transmittance := 1.0

	for i := 0; i < n; i++ {
		if transmittance <= vi.config.TransmittanceCutoff {
			result.EarlyExit = true
			break
		}

		if observe != nil {
			observe(transmittance)
		}

		p := ray.At(start + float64(i)*step)
		density := sanitize(vi.field.SampleAt(p))
		result.Steps++
		if density <= 0 {
			continue
		}

		extinction := density * step
		shadow, shadowSteps := vi.shadowMarch(p)
		result.ShadowSteps += shadowSteps

		result.Color = result.Color.Add(radiance.Multiply(shadow * transmittance * extinction))
		transmittance = attenuate(transmittance, extinction)
	}

	result.Transmittance = transmittance
	return result
}

// ShadowTransmittance returns the fraction of light reaching p through the
// medium, in (0, 1] for finite densities
func (vi *VolumeIntegrator) ShadowTransmittance(p core.Vec3) float64 {
	t, _ := vi.shadowMarch(p)
	return t
}

// shadowMarch samples from p toward the light at j*StepSize, j >= 0
func (vi *VolumeIntegrator) shadowMarch(p core.Vec3) (float64, int) {
	step := vi.config.StepSize
	n := sampleCount(vi.config.ShadowMaxDistance, step)
	ray := vi.light.ShadowRay(p)

	transmittance := 1.0
	steps := 0
	for j := 0; j < n; j++ {
		if transmittance <= vi.config.TransmittanceCutoff {
			break
		}
		density := sanitize(vi.field.SampleAt(ray.At(float64(j) * step)))
		steps++
		transmittance = attenuate(transmittance, density*step)
	}
	return transmittance, steps
}

// sampleCount returns ceil(length/step), or 0 for an empty, unbounded or
// invalid span. Unbounded spans only come from zero-direction rays.
func sampleCount(length, step float64) int {
	if !(step > 0) || !(length > 0) || math.IsInf(length, 1) {
		return 0
	}
	n := math.Ceil(length / step)
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// attenuate applies Beer-Lambert extinction, never letting transmittance
// underflow to zero
func attenuate(transmittance, extinction float64) float64 {
	return math.Max(transmittance*math.Exp(-extinction), math.SmallestNonzeroFloat64)
}

// sanitize maps negative, NaN and infinite densities to zero
func sanitize(density float64) float64 {
	if !(density > 0) || math.IsInf(density, 1) {
		return 0
	}
	return density
}

package integrator

import (
	"github.com/df07/go-volume-raymarcher/pkg/core"
	"github.com/df07/go-volume-raymarcher/pkg/geometry"
	"github.com/df07/go-volume-raymarcher/pkg/lights"
	"github.com/df07/go-volume-raymarcher/pkg/material"
)

// PhongIntegrator shades a single plane with the Phong model under a set of
// point lights. Rays that miss the plane see a black sky.
type PhongIntegrator struct {
	plane  *geometry.Plane
	color  material.ColorSource
	model  lights.Phong
	lights []lights.PointLight
}

// NewPhongIntegrator creates a Phong integrator
func NewPhongIntegrator(plane *geometry.Plane, color material.ColorSource, model lights.Phong, pointLights []lights.PointLight) *PhongIntegrator {
	return &PhongIntegrator{
		plane:  plane,
		color:  color,
		model:  model,
		lights: pointLights,
	}
}

// SurfaceHit is what a ray sees where it meets the plane
type SurfaceHit struct {
	geometry.HitRecord
	BaseColor core.Vec3 // Pattern color before lighting
	Color     core.Vec3 // Shaded, clamped color
}

// Inspect shades the plane hit along the ray; ok is false on a miss
func (pi *PhongIntegrator) Inspect(ray core.Ray) (hit SurfaceHit, ok bool) {
	rec, ok := pi.plane.Hit(ray, 0)
	if !ok {
		return SurfaceHit{}, false
	}

	viewDir := ray.Direction.Negate().Normalize()
	baseColor := pi.color.Evaluate(rec.Point)
	return SurfaceHit{
		HitRecord: rec,
		BaseColor: baseColor,
		Color:     pi.model.Shade(rec.Point, rec.Normal, viewDir, baseColor, pi.lights),
	}, true
}

// RayColor returns the shaded plane color, or black when the ray misses
func (pi *PhongIntegrator) RayColor(ray core.Ray) core.Vec3 {
	hit, _ := pi.Inspect(ray)
	return hit.Color
}

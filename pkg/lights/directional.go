package lights

import "github.com/df07/go-volume-raymarcher/pkg/core"

// DirectionalLight is a light at infinity. Direction points from the lit
// point toward the light and is always unit length.
type DirectionalLight struct {
	Direction core.Vec3
	Color     core.Vec3
}

// NewDirectionalLight creates a directional light, normalizing dir
func NewDirectionalLight(dir, color core.Vec3) DirectionalLight {
	return DirectionalLight{Direction: dir.Normalize(), Color: color}
}

// ShadowRay returns the ray from p toward the light
func (l DirectionalLight) ShadowRay(p core.Vec3) core.Ray {
	return core.Ray{Origin: p, Direction: l.Direction}
}

package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-volume-raymarcher/pkg/core"
)

// CameraConfig describes a pinhole camera
type CameraConfig struct {
	Position    core.Vec3 `json:"position"`
	LookAt      core.Vec3 `json:"lookAt"`
	Up          core.Vec3 `json:"up"`
	VFov        float64   `json:"vfov"` // Vertical field of view in degrees
	AspectRatio float64   `json:"aspectRatio"`
	Near        float64   `json:"near"`
	Far         float64   `json:"far"`
}

// DefaultCameraConfig returns a camera at the origin looking down -Z
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Position:    core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        60.0,
		AspectRatio: 16.0 / 9.0,
		Near:        0.1,
		Far:         1000.0,
	}
}

// Camera generates primary rays. The basis is rebuilt whenever position,
// look-at point or up vector change. A camera must not be modified while a
// render is using it.
type Camera struct {
	config CameraConfig

	forward core.Vec3
	right   core.Vec3
	up      core.Vec3
}

// NewCamera creates a camera from the given configuration
func NewCamera(config CameraConfig) *Camera {
	c := &Camera{config: config}
	c.updateBasis()
	return c
}

func (c *Camera) updateBasis() {
	c.forward = c.config.LookAt.Subtract(c.config.Position).Normalize()
	c.right = c.forward.Cross(c.config.Up).Normalize()
	c.up = c.right.Cross(c.forward).Normalize()
}

// Config returns the camera configuration
func (c *Camera) Config() CameraConfig { return c.config }

// Position returns the eye position
func (c *Camera) Position() core.Vec3 { return c.config.Position }

// Basis returns the orthonormal forward, right and up vectors
func (c *Camera) Basis() (forward, right, up core.Vec3) {
	return c.forward, c.right, c.up
}

// SetPosition moves the eye
func (c *Camera) SetPosition(p core.Vec3) {
	c.config.Position = p
	c.updateBasis()
}

// SetLookAt changes the point the camera faces
func (c *Camera) SetLookAt(target core.Vec3) {
	c.config.LookAt = target
	c.updateBasis()
}

// SetUp changes the reference up vector
func (c *Camera) SetUp(up core.Vec3) {
	c.config.Up = up
	c.updateBasis()
}

// SetVFov sets the vertical field of view in degrees
func (c *Camera) SetVFov(degrees float64) { c.config.VFov = degrees }

// SetAspectRatio sets width / height
func (c *Camera) SetAspectRatio(ratio float64) { c.config.AspectRatio = ratio }

// SetClipPlanes sets the near and far distances used by ProjectionMatrix
func (c *Camera) SetClipPlanes(near, far float64) {
	c.config.Near = near
	c.config.Far = far
}

func (c *Camera) tanHalfFov() float64 {
	return math.Tan(mgl64.DegToRad(c.config.VFov) / 2)
}

// GetRay returns the ray through normalized image coordinates (u, v), where
// (0, 0) is the bottom-left corner and (1, 1) the top-right
func (c *Camera) GetRay(u, v float64) core.Ray {
	h := c.tanHalfFov()
	w := h * c.config.AspectRatio

	direction := c.forward.
		Add(c.right.Multiply((2*u - 1) * w)).
		Add(c.up.Multiply((2*v - 1) * h))

	return core.NewRay(c.config.Position, direction)
}

// GetPixelRay returns the ray through the center of pixel (x, y) of a
// width x height image whose row 0 is the top row
func (c *Camera) GetPixelRay(x, y, width, height int) core.Ray {
	u := (float64(x) + 0.5) / float64(width)
	v := 1 - (float64(y)+0.5)/float64(height)
	return c.GetRay(u, v)
}

func toMgl(v core.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// ViewMatrix returns the world-to-camera transform
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	eye := toMgl(c.config.Position)
	return mgl64.LookAtV(eye, eye.Add(toMgl(c.forward)), toMgl(c.up))
}

// ProjectionMatrix returns the OpenGL-style perspective projection
func (c *Camera) ProjectionMatrix() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.config.VFov), c.config.AspectRatio, c.config.Near, c.config.Far)
}

// Project maps a world point to the normalized image coordinates (u, v) of
// the ray through it, so that GetRay(Project(p)) passes through p. ok is
// false for points on or behind the eye plane.
func (c *Camera) Project(p core.Vec3) (u, v float64, ok bool) {
	clip := c.ProjectionMatrix().Mul4(c.ViewMatrix()).Mul4x1(toMgl(p).Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, false
	}
	u = (clip.X()/clip.W() + 1) / 2
	v = (clip.Y()/clip.W() + 1) / 2
	return u, v, true
}

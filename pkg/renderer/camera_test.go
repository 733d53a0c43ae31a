package renderer

import (
	"math"
	"testing"

	"github.com/df07/go-volume-raymarcher/pkg/core"
)

func vecNear(a, b core.Vec3, tolerance float64) bool {
	return math.Abs(a.X-b.X) <= tolerance &&
		math.Abs(a.Y-b.Y) <= tolerance &&
		math.Abs(a.Z-b.Z) <= tolerance
}

func volumeCamera() *Camera {
	config := DefaultCameraConfig()
	config.Position = core.NewVec3(5, 3, 5)
	config.LookAt = core.NewVec3(0, 0, 0)
	config.AspectRatio = 800.0 / 600.0
	return NewCamera(config)
}

func assertOrthonormal(t *testing.T, c *Camera) {
	t.Helper()
	forward, right, up := c.Basis()
	for name, v := range map[string]core.Vec3{"forward": forward, "right": right, "up": up} {
		if math.Abs(v.Length()-1) > 1e-12 {
			t.Errorf("%s has length %f", name, v.Length())
		}
	}
	if math.Abs(forward.Dot(right)) > 1e-12 || math.Abs(forward.Dot(up)) > 1e-12 || math.Abs(right.Dot(up)) > 1e-12 {
		t.Errorf("Basis not orthogonal: forward=%v right=%v up=%v", forward, right, up)
	}
}

func TestCamera_Basis(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	forward, right, up := camera.Basis()

	if !vecNear(forward, core.NewVec3(0, 0, -1), 1e-12) {
		t.Errorf("Expected forward (0,0,-1), got %v", forward)
	}
	if !vecNear(right, core.NewVec3(1, 0, 0), 1e-12) {
		t.Errorf("Expected right (1,0,0), got %v", right)
	}
	if !vecNear(up, core.NewVec3(0, 1, 0), 1e-12) {
		t.Errorf("Expected up (0,1,0), got %v", up)
	}
	assertOrthonormal(t, camera)
}

func TestCamera_SettersRebuildBasis(t *testing.T) {
	camera := volumeCamera()
	assertOrthonormal(t, camera)

	camera.SetPosition(core.NewVec3(-3, 8, 1))
	assertOrthonormal(t, camera)
	if forward, _, _ := camera.Basis(); !vecNear(forward, core.NewVec3(3, -8, -1).Normalize(), 1e-12) {
		t.Errorf("Forward not updated after SetPosition: %v", forward)
	}

	camera.SetLookAt(core.NewVec3(1, 1, 1))
	assertOrthonormal(t, camera)
	if forward, _, _ := camera.Basis(); !vecNear(forward, core.NewVec3(4, -7, 0).Normalize(), 1e-12) {
		t.Errorf("Forward not updated after SetLookAt: %v", forward)
	}

	camera.SetUp(core.NewVec3(1, 0, 0))
	assertOrthonormal(t, camera)
	if _, _, up := camera.Basis(); up.Dot(core.NewVec3(1, 0, 0)) <= 0 {
		t.Errorf("Expected up to lean toward +X after SetUp, got %v", up)
	}
}

func TestCamera_GetRay(t *testing.T) {
	config := DefaultCameraConfig()
	config.VFov = 90
	config.AspectRatio = 2
	camera := NewCamera(config)

	tests := []struct {
		name     string
		u, v     float64
		expected core.Vec3
	}{
		{"center", 0.5, 0.5, core.NewVec3(0, 0, -1)},
		{"top", 0.5, 1, core.NewVec3(0, 1, -1).Normalize()},
		{"bottom left", 0, 0, core.NewVec3(-2, -1, -1).Normalize()},
		{"right", 1, 0.5, core.NewVec3(2, 0, -1).Normalize()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := camera.GetRay(tt.u, tt.v)
			if ray.Origin != camera.Position() {
				t.Errorf("Expected origin at camera position, got %v", ray.Origin)
			}
			if !vecNear(ray.Direction, tt.expected, 1e-12) {
				t.Errorf("Expected direction %v, got %v", tt.expected, ray.Direction)
			}
		})
	}
}

func TestCamera_GetPixelRay(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())

	// Row 0 is the top row
	top := camera.GetPixelRay(1, 0, 3, 3)
	bottom := camera.GetPixelRay(1, 2, 3, 3)
	if top.Direction.Y <= 0 || bottom.Direction.Y >= 0 {
		t.Errorf("Expected top ray upward and bottom ray downward, got %v and %v", top.Direction, bottom.Direction)
	}

	center := camera.GetPixelRay(1, 1, 3, 3)
	if !vecNear(center.Direction, core.NewVec3(0, 0, -1), 1e-12) {
		t.Errorf("Expected center pixel ray straight ahead, got %v", center.Direction)
	}
}

func TestCamera_ProjectMatchesGetRay(t *testing.T) {
	camera := volumeCamera()

	points := []core.Vec3{
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 1, -1),
		core.NewVec3(-0.5, 0.25, 0.75),
		core.NewVec3(2, -1, 0),
	}

	for _, p := range points {
		u, v, ok := camera.Project(p)
		if !ok {
			t.Errorf("Expected %v in front of the camera", p)
			continue
		}

		ray := camera.GetRay(u, v)
		toPoint := p.Subtract(ray.Origin).Normalize()
		if !vecNear(ray.Direction, toPoint, 1e-9) {
			t.Errorf("Point %v projects to (%f,%f) whose ray %v misses it (expected %v)", p, u, v, ray.Direction, toPoint)
		}
	}

	if u, v, ok := camera.Project(core.NewVec3(0, 0, 0)); !ok || math.Abs(u-0.5) > 1e-9 || math.Abs(v-0.5) > 1e-9 {
		t.Errorf("Expected look-at point at image center, got (%f,%f) ok=%v", u, v, ok)
	}

	if _, _, ok := camera.Project(core.NewVec3(10, 6, 10)); ok {
		t.Error("Expected point behind the camera to fail projection")
	}
}

func TestCamera_Matrices(t *testing.T) {
	camera := volumeCamera()

	// The eye maps to the view-space origin
	eye := camera.ViewMatrix().Mul4x1(toMgl(camera.Position()).Vec4(1))
	if math.Abs(eye.X())+math.Abs(eye.Y())+math.Abs(eye.Z()) > 1e-12 {
		t.Errorf("Expected eye at view origin, got %v", eye)
	}

	// The look-at point lies on the -Z view axis
	target := camera.ViewMatrix().Mul4x1(toMgl(core.Vec3{}).Vec4(1))
	if math.Abs(target.X()) > 1e-12 || math.Abs(target.Y()) > 1e-12 || target.Z() >= 0 {
		t.Errorf("Expected look-at point on -Z, got %v", target)
	}

	proj := camera.ProjectionMatrix()
	if math.Abs(proj.At(1, 1)-1/math.Tan(math.Pi/6)) > 1e-12 {
		t.Errorf("Expected y scale cot(30deg), got %f", proj.At(1, 1))
	}
	if proj.At(3, 2) != -1 {
		t.Errorf("Expected perspective divide row, got %f", proj.At(3, 2))
	}
}

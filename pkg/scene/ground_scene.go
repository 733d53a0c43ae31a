package scene

import (
	"fmt"

	"github.com/df07/go-volume-raymarcher/pkg/core"
	"github.com/df07/go-volume-raymarcher/pkg/geometry"
	"github.com/df07/go-volume-raymarcher/pkg/integrator"
	"github.com/df07/go-volume-raymarcher/pkg/lights"
	"github.com/df07/go-volume-raymarcher/pkg/material"
	"github.com/df07/go-volume-raymarcher/pkg/renderer"
)

// LightGridCfg places a square grid of point lights above the ground
type LightGridCfg struct {
	Size      int     `json:"size"`
	Spacing   float64 `json:"spacing"`
	Height    float64 `json:"height"`
	Intensity float64 `json:"intensity"`
	Radius    float64 `json:"radius"`
}

// CheckerCfg is the ground pattern
type CheckerCfg struct {
	Size float64   `json:"size"`
	Even core.Vec3 `json:"even"`
	Odd  core.Vec3 `json:"odd"`
}

// GroundScene is a checkerboard plane at y = 0 under a grid of point lights
type GroundScene struct {
	Image     ImageCfg              `json:"image"`
	Camera    renderer.CameraConfig `json:"camera"`
	LightGrid LightGridCfg          `json:"lightGrid"`
	Phong     lights.Phong          `json:"phong"`
	Checker   CheckerCfg            `json:"checker"`
}

// DefaultGroundScene returns the 800x600 scene seen from (0,10,20), written
// as ASCII PPM
func DefaultGroundScene() GroundScene {
	camera := renderer.DefaultCameraConfig()
	camera.Position = core.NewVec3(0, 10, 20)
	camera.LookAt = core.NewVec3(0, 0, 0)
	camera.VFov = 60

	checker := material.NewCheckerboard()

	return GroundScene{
		Image: ImageCfg{
			Width:  800,
			Height: 600,
			Output: "lighted_scene.ppm",
			Format: "ppm-ascii",
		},
		Camera: camera,
		LightGrid: LightGridCfg{
			Size:      5,
			Spacing:   1.0,
			Height:    5.0,
			Intensity: 2.0,
			Radius:    0.001,
		},
		Phong: lights.DefaultPhong(),
		Checker: CheckerCfg{
			Size: checker.Size,
			Even: checker.Even,
			Odd:  checker.Odd,
		},
	}
}

// LoadGroundScene reads a JSON ground scene; absent fields keep the values
// of DefaultGroundScene
func LoadGroundScene(path string) (*GroundScene, error) {
	gs := DefaultGroundScene()
	if err := loadJSON(path, &gs); err != nil {
		return nil, err
	}
	if err := gs.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &gs, nil
}

// Validate reports the first setting that would make the render meaningless
func (gs *GroundScene) Validate() error {
	if err := gs.Image.validate(); err != nil {
		return err
	}
	if err := validateCamera(gs.Camera); err != nil {
		return err
	}
	if gs.LightGrid.Size < 0 {
		return fmt.Errorf("%w: light grid size %d", ErrInvalidScene, gs.LightGrid.Size)
	}
	if !(gs.Checker.Size > 0) {
		return fmt.Errorf("%w: checker size %g", ErrInvalidScene, gs.Checker.Size)
	}
	return nil
}

// NewCamera builds the scene camera with the image's aspect ratio
func (gs *GroundScene) NewCamera() *renderer.Camera {
	return newCamera(gs.Camera, gs.Image)
}

// Lights returns the point lights of the grid
func (gs *GroundScene) Lights() []lights.PointLight {
	lg := gs.LightGrid
	return lights.LightGrid(lg.Size, lg.Spacing, lg.Height, lg.Intensity, lg.Radius)
}

// NewIntegrator builds the Phong integrator for the scene
func (gs *GroundScene) NewIntegrator() *integrator.PhongIntegrator {
	checker := &material.Checkerboard{Size: gs.Checker.Size, Even: gs.Checker.Even, Odd: gs.Checker.Odd}
	return integrator.NewPhongIntegrator(geometry.NewGroundPlane(), checker, gs.Phong, gs.Lights())
}

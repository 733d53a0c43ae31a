package scene

import (
	"fmt"

	"github.com/df07/go-volume-raymarcher/pkg/core"
	"github.com/df07/go-volume-raymarcher/pkg/integrator"
	"github.com/df07/go-volume-raymarcher/pkg/lights"
	"github.com/df07/go-volume-raymarcher/pkg/renderer"
)

// DirectionalLightCfg is a light at infinity; Direction points toward it
type DirectionalLightCfg struct {
	Direction core.Vec3 `json:"direction"`
	Color     core.Vec3 `json:"color"`
}

// MarchCfg mirrors integrator.VolumeConfig
type MarchCfg struct {
	StepSize            float64 `json:"stepSize"`
	ShadowMaxDistance   float64 `json:"shadowMaxDistance"`
	TransmittanceCutoff float64 `json:"transmittanceCutoff"`
	Phase               float64 `json:"phase"`
}

// VolumeScene describes a render of one density grid
type VolumeScene struct {
	Image  ImageCfg              `json:"image"`
	Grid   string                `json:"grid"`
	Camera renderer.CameraConfig `json:"camera"`
	Light  DirectionalLightCfg   `json:"light"`
	March  MarchCfg              `json:"march"`
}

// DefaultVolumeScene returns an 800x600 view from (5,3,5) toward the origin
// lit from (-1,1,-1)
func DefaultVolumeScene() VolumeScene {
	camera := renderer.DefaultCameraConfig()
	camera.Position = core.NewVec3(5, 3, 5)
	camera.LookAt = core.NewVec3(0, 0, 0)
	camera.VFov = 60

	march := integrator.DefaultVolumeConfig()

	return VolumeScene{
		Image: ImageCfg{
			Width:  800,
			Height: 600,
			Output: "volume_render.ppm",
		},
		Grid:   "density",
		Camera: camera,
		Light: DirectionalLightCfg{
			Direction: core.NewVec3(-1, 1, -1),
			Color:     core.NewVec3(1, 1, 1),
		},
		March: MarchCfg{
			StepSize:            march.StepSize,
			ShadowMaxDistance:   march.ShadowMaxDistance,
			TransmittanceCutoff: march.TransmittanceCutoff,
			Phase:               march.Phase,
		},
	}
}

// LoadVolumeScene reads a JSON volume scene; absent fields keep the values
// of DefaultVolumeScene
func LoadVolumeScene(path string) (*VolumeScene, error) {
	vs := DefaultVolumeScene()
	if err := loadJSON(path, &vs); err != nil {
		return nil, err
	}
	if err := vs.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &vs, nil
}

// Validate reports the first setting that would make the render meaningless
func (vs *VolumeScene) Validate() error {
	if err := vs.Image.validate(); err != nil {
		return err
	}
	if err := validateCamera(vs.Camera); err != nil {
		return err
	}
	if vs.Grid == "" {
		return fmt.Errorf("%w: empty grid name", ErrInvalidScene)
	}
	if vs.Light.Direction.IsZero() {
		return fmt.Errorf("%w: zero light direction", ErrInvalidScene)
	}
	if !(vs.March.StepSize > 0) {
		return fmt.Errorf("%w: step size %g", ErrInvalidScene, vs.March.StepSize)
	}
	if vs.March.ShadowMaxDistance < 0 || vs.March.TransmittanceCutoff < 0 || vs.March.TransmittanceCutoff >= 1 {
		return fmt.Errorf("%w: march settings %+v", ErrInvalidScene, vs.March)
	}
	return nil
}

// NewCamera builds the scene camera with the image's aspect ratio
func (vs *VolumeScene) NewCamera() *renderer.Camera {
	return newCamera(vs.Camera, vs.Image)
}

// VolumeConfig returns the march settings
func (vs *VolumeScene) VolumeConfig() integrator.VolumeConfig {
	return integrator.VolumeConfig{
		StepSize:            vs.March.StepSize,
		ShadowMaxDistance:   vs.March.ShadowMaxDistance,
		TransmittanceCutoff: vs.March.TransmittanceCutoff,
		Phase:               vs.March.Phase,
	}
}

// DirectionalLight returns the scene light
func (vs *VolumeScene) DirectionalLight() lights.DirectionalLight {
	return lights.NewDirectionalLight(vs.Light.Direction, vs.Light.Color)
}

// NewIntegrator builds the volume integrator over field
func (vs *VolumeScene) NewIntegrator(field core.ScalarField) *integrator.VolumeIntegrator {
	return integrator.NewVolumeIntegrator(field, vs.DirectionalLight(), vs.VolumeConfig())
}

// Package scene describes the two renderable scenes, the volume scene and
// the ground-plane scene, and loads them from JSON.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/df07/go-volume-raymarcher/pkg/renderer"
)

// ErrInvalidScene is returned when a scene description cannot be rendered
var ErrInvalidScene = errors.New("scene: invalid scene")

// ImageCfg is the output image size and destination
type ImageCfg struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Output string `json:"output"`
	Format string `json:"format,omitempty"` // Empty picks the encoder from the output extension
}

// AspectRatio returns width / height
func (ic ImageCfg) AspectRatio() float64 {
	return float64(ic.Width) / float64(ic.Height)
}

func (ic ImageCfg) validate() error {
	if ic.Width <= 0 || ic.Height <= 0 {
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidScene, ic.Width, ic.Height)
	}
	return nil
}

// newCamera builds the camera for an image, forcing its aspect ratio to the
// image's
func newCamera(config renderer.CameraConfig, img ImageCfg) *renderer.Camera {
	config.AspectRatio = img.AspectRatio()
	return renderer.NewCamera(config)
}

func validateCamera(config renderer.CameraConfig) error {
	if !(config.VFov > 0 && config.VFov < 180) {
		return fmt.Errorf("%w: vertical field of view %g", ErrInvalidScene, config.VFov)
	}
	if config.LookAt.Subtract(config.Position).IsZero() {
		return fmt.Errorf("%w: camera looks at its own position", ErrInvalidScene)
	}
	return nil
}

// loadJSON reads path and decodes it over the values already held by v, so
// fields absent from the file keep their defaults
func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read scene: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse scene %s: %w", path, err)
	}
	return nil
}

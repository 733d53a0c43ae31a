package lights

import "github.com/df07/go-volume-raymarcher/pkg/core"

// PointLight emits from a single position. Radius is kept for scene
// descriptions and does not affect shading.
type PointLight struct {
	Position  core.Vec3
	Color     core.Vec3
	Intensity float64
	Radius    float64
}

// NewPointLight creates a point light
func NewPointLight(position, color core.Vec3, intensity, radius float64) PointLight {
	return PointLight{Position: position, Color: color, Intensity: intensity, Radius: radius}
}

// Attenuation returns the distance falloff 1/(1 + 0.05d + 0.001d^2)
func Attenuation(distance float64) float64 {
	return 1.0 / (1.0 + 0.05*distance + 0.001*distance*distance)
}

// LightGrid places size x size lights at the given height, spaced evenly and
// centered on the y axis. The light at grid index (i, j) is tinted
// (i/10, j/10, 0).
func LightGrid(size int, spacing, height, intensity, radius float64) []PointLight {
	half := size / 2
	lights := make([]PointLight, 0, size*size)
	for i := -half; i <= half; i++ {
		for j := -half; j <= half; j++ {
			lights = append(lights, NewPointLight(
				core.NewVec3(float64(i)*spacing, height, float64(j)*spacing),
				core.NewVec3(float64(i)/10.0, float64(j)/10.0, 0),
				intensity,
				radius,
			))
		}
	}
	return lights
}

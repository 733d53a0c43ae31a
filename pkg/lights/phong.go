package lights

import (
	"math"

	"github.com/df07/go-volume-raymarcher/pkg/core"
)

// Phong is the classic ambient + diffuse + specular reflection model
type Phong struct {
	Ambient   float64 `json:"ambient"`
	Diffuse   float64 `json:"diffuse"`
	Specular  float64 `json:"specular"`
	Shininess float64 `json:"shininess"`
}

// DefaultPhong returns the coefficients used by the ground-plane scene
func DefaultPhong() Phong {
	return Phong{
		Ambient:   0.2,
		Diffuse:   0.8,
		Specular:  0.5,
		Shininess: 16.0,
	}
}

// Shade sums every light's contribution at point. normal and viewDir must be
// unit length; viewDir points from the surface toward the viewer. Each light
// adds its own ambient term, scaled like the rest of its contribution by
// attenuation and intensity. The result is clamped to [0,1].
func (p Phong) Shade(point, normal, viewDir, baseColor core.Vec3, lights []PointLight) core.Vec3 {
	total := core.Vec3{}

	for _, light := range lights {
		toLight := light.Position.Subtract(point)
		distance := toLight.Length()
		lightDir := toLight.Normalize()

		contribution := baseColor.Multiply(p.Ambient)

		diffuse := math.Max(0, normal.Dot(lightDir))
		contribution = contribution.Add(baseColor.Multiply(p.Diffuse * diffuse))

		reflectDir := lightDir.Negate().Reflect(normal)
		specular := math.Pow(math.Max(0, reflectDir.Dot(viewDir)), p.Shininess)
		contribution = contribution.Add(light.Color.Multiply(p.Specular * specular))

		total = total.Add(contribution.Multiply(Attenuation(distance) * light.Intensity))
	}

	return total.Clamp(0, 1)
}

package volume

import (
	"github.com/chewxy/math32"

	"github.com/df07/go-volume-raymarcher/pkg/core"
)

// NewSphere builds a fog volume of constant density filling a sphere of the
// given world radius centered at the origin
func NewSphere(name string, radius, voxelSize float64, density float32) *FloatGrid {
	return fill(name, radius, voxelSize, func(p core.Vec3) float32 {
		if p.Length() <= radius {
			return density
		}
		return 0
	})
}

// NewBox builds a fog volume of constant density filling the axis-aligned
// box [-halfExtent, halfExtent]
func NewBox(name string, halfExtent core.Vec3, voxelSize float64, density float32) *FloatGrid {
	reach := max(halfExtent.X, halfExtent.Y, halfExtent.Z)
	box := core.NewAABB(halfExtent.Negate(), halfExtent)
	return fill(name, reach, voxelSize, func(p core.Vec3) float32 {
		if box.Contains(p) {
			return density
		}
		return 0
	})
}

// NewCloud builds a sphere whose density fades toward the rim and is broken
// up by value noise. The same seed always yields the same grid.
func NewCloud(name string, radius, voxelSize float64, density float32, seed uint32) *FloatGrid {
	const frequency = 3.0
	return fill(name, radius, voxelSize, func(p core.Vec3) float32 {
		falloff := 1 - float32(p.Length()/radius)
		if falloff <= 0 {
			return 0
		}
		q := p.Multiply(frequency / radius)
		n := fractalNoise(float32(q.X), float32(q.Y), float32(q.Z), seed)
		return density * math32.Min(1, 2*falloff) * math32.Max(0, math32.Min(1, n*1.6-0.3))
	})
}

// fill evaluates fn at every voxel center within reach of the origin and
// stores the positive results
func fill(name string, reach, voxelSize float64, fn func(p core.Vec3) float32) *FloatGrid {
	xf := NewUniformTransform(voxelSize)
	g := NewGrid[float32](name, 0, xf)
	g.SetClass(ClassFogVolume)

	n := int32(math32.Ceil(float32(reach/voxelSize))) + 1
	for x := -n; x <= n; x++ {
		for y := -n; y <= n; y++ {
			for z := -n; z <= n; z++ {
				c := Coord{x, y, z}
				if v := fn(xf.CoordToWorld(c)); v > 0 {
					g.SetValue(c, v)
				}
			}
		}
	}
	return g
}

// fractalNoise sums three octaves of value noise, returning roughly [0,1]
func fractalNoise(x, y, z float32, seed uint32) float32 {
	var sum, amp, norm float32 = 0, 1, 0
	for octave := uint32(0); octave < 3; octave++ {
		sum += amp * valueNoise(x, y, z, seed+octave*1013)
		norm += amp
		amp *= 0.5
		x, y, z = x*2, y*2, z*2
	}
	return sum / norm
}

// valueNoise trilinearly interpolates hashed lattice values with a
// smoothstep fade
func valueNoise(x, y, z float32, seed uint32) float32 {
	x0, y0, z0 := math32.Floor(x), math32.Floor(y), math32.Floor(z)
	fx, fy, fz := fade(x-x0), fade(y-y0), fade(z-z0)
	ix, iy, iz := int32(x0), int32(y0), int32(z0)

	lerp := func(a, b, t float32) float32 { return a + (b-a)*t }
	corner := func(dx, dy, dz int32) float32 { return lattice(ix+dx, iy+dy, iz+dz, seed) }

	x00 := lerp(corner(0, 0, 0), corner(1, 0, 0), fx)
	x10 := lerp(corner(0, 1, 0), corner(1, 1, 0), fx)
	x01 := lerp(corner(0, 0, 1), corner(1, 0, 1), fx)
	x11 := lerp(corner(0, 1, 1), corner(1, 1, 1), fx)
	return lerp(lerp(x00, x10, fy), lerp(x01, x11, fy), fz)
}

func fade(t float32) float32 {
	return t * t * (3 - 2*t)
}

// lattice hashes an integer point to [0,1]
func lattice(x, y, z int32, seed uint32) float32 {
	h := uint32(x)*0x8da6b343 ^ uint32(y)*0xd8163841 ^ uint32(z)*0xcb1ab31f ^ seed*0x165667b1
	h ^= h >> 15
	h *= 0x2c1b3c6d
	h ^= h >> 12
	h *= 0x297a2d39
	h ^= h >> 15
	return float32(h&0xffffff) / float32(0xffffff)
}

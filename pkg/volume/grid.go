// Package volume implements a sparse voxel grid made of 8x8x8 leaf blocks
// and the density field accessor the volume integrator samples.
package volume

import (
	"fmt"
	"math/bits"
	"sort"
)

const (
	leafLog2  = 3
	leafDim   = 1 << leafLog2
	leafMask  = leafDim - 1
	leafSize  = leafDim * leafDim * leafDim
	maskWords = leafSize / 64
)

// Vec3f is the value type of vector grids
type Vec3f [3]float32

// Value is the set of voxel value types a grid can hold
type Value interface {
	float32 | Vec3f
}

// ValueType identifies the voxel type of a grid
type ValueType uint8

const (
	ValueFloat ValueType = iota
	ValueVec3
)

func (vt ValueType) String() string {
	switch vt {
	case ValueFloat:
		return "float"
	case ValueVec3:
		return "vec3s"
	default:
		return fmt.Sprintf("ValueType(%d)", uint8(vt))
	}
}

// Channels returns the number of float32 components per voxel
func (vt ValueType) Channels() int {
	if vt == ValueVec3 {
		return 3
	}
	return 1
}

// GridClass describes how the grid's values are meant to be interpreted
type GridClass uint8

const (
	ClassUnknown GridClass = iota
	ClassFogVolume
	ClassLevelSet
)

func (c GridClass) String() string {
	switch c {
	case ClassFogVolume:
		return "fog volume"
	case ClassLevelSet:
		return "level set"
	default:
		return "unknown"
	}
}

// Coord is an integer voxel index
type Coord struct {
	X, Y, Z int32
}

// Add returns the component-wise sum
func (c Coord) Add(o Coord) Coord {
	return Coord{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

func (c Coord) String() string {
	return fmt.Sprintf("[%d, %d, %d]", c.X, c.Y, c.Z)
}

// leafOrigin rounds each component down to a multiple of the leaf size
func leafOrigin(c Coord) Coord {
	return Coord{c.X &^ leafMask, c.Y &^ leafMask, c.Z &^ leafMask}
}

func leafOffset(c Coord) int {
	return int(c.X&leafMask)<<(2*leafLog2) | int(c.Y&leafMask)<<leafLog2 | int(c.Z&leafMask)
}

// offsetCoord is the inverse of leafOffset relative to a leaf origin
func offsetCoord(origin Coord, offset int) Coord {
	return Coord{
		X: origin.X + int32(offset>>(2*leafLog2)),
		Y: origin.Y + int32((offset>>leafLog2)&leafMask),
		Z: origin.Z + int32(offset&leafMask),
	}
}

// CoordBBox is an inclusive box of voxel indices
type CoordBBox struct {
	Min, Max Coord
}

// Dim returns the number of voxels along each axis
func (b CoordBBox) Dim() Coord {
	return Coord{b.Max.X - b.Min.X + 1, b.Max.Y - b.Min.Y + 1, b.Max.Z - b.Min.Z + 1}
}

func (b *CoordBBox) expand(c Coord) {
	b.Min = Coord{min(b.Min.X, c.X), min(b.Min.Y, c.Y), min(b.Min.Z, c.Z)}
	b.Max = Coord{max(b.Max.X, c.X), max(b.Max.Y, c.Y), max(b.Max.Z, c.Z)}
}

type leaf[T Value] struct {
	values [leafSize]T
	mask   [maskWords]uint64
}

func (l *leaf[T]) isOn(offset int) bool {
	return l.mask[offset>>6]&(1<<(offset&63)) != 0
}

func (l *leaf[T]) activeCount() int {
	n := 0
	for _, w := range l.mask {
		n += bits.OnesCount64(w)
	}
	return n
}

// GridBase is the value-type independent view of a grid
type GridBase interface {
	Name() string
	Class() GridClass
	ValueType() ValueType
	Transform() Transform
	ActiveVoxelCount() int
	LeafCount() int
	ActiveBoundingBox() (CoordBBox, bool)
	MemUsage() int
}

// Grid is a sparse voxel grid. Voxels that were never set, or were switched
// off, read as the background value. A Grid is not safe for concurrent
// mutation, but any number of goroutines may read it once it is built.
type Grid[T Value] struct {
	name       string
	class      GridClass
	background T
	transform  Transform
	leaves     map[Coord]*leaf[T]
}

// FloatGrid holds scalar voxels, e.g. density
type FloatGrid = Grid[float32]

// Vec3Grid holds vector voxels, e.g. velocity
type Vec3Grid = Grid[Vec3f]

// NewGrid creates an empty grid
func NewGrid[T Value](name string, background T, transform Transform) *Grid[T] {
	return &Grid[T]{
		name:       name,
		background: background,
		transform:  transform,
		leaves:     make(map[Coord]*leaf[T]),
	}
}

// Name returns the grid name
func (g *Grid[T]) Name() string { return g.name }

// SetName renames the grid
func (g *Grid[T]) SetName(name string) { g.name = name }

// Class returns the grid class
func (g *Grid[T]) Class() GridClass { return g.class }

// SetClass sets the grid class
func (g *Grid[T]) SetClass(class GridClass) { g.class = class }

// Background returns the value of inactive voxels
func (g *Grid[T]) Background() T { return g.background }

// Transform returns the index-to-world transform
func (g *Grid[T]) Transform() Transform { return g.transform }

// ValueType reports the voxel type
func (g *Grid[T]) ValueType() ValueType {
	var zero T
	if _, ok := any(zero).(Vec3f); ok {
		return ValueVec3
	}
	return ValueFloat
}

// SetValue stores v at c and marks the voxel active
func (g *Grid[T]) SetValue(c Coord, v T) {
	origin := leafOrigin(c)
	l, ok := g.leaves[origin]
	if !ok {
		l = &leaf[T]{}
		for i := range l.values {
			l.values[i] = g.background
		}
		g.leaves[origin] = l
	}
	offset := leafOffset(c)
	l.values[offset] = v
	l.mask[offset>>6] |= 1 << (offset & 63)
}

// SetValueOff deactivates the voxel at c, resetting it to the background.
// Leaves left without active voxels are released.
func (g *Grid[T]) SetValueOff(c Coord) {
	origin := leafOrigin(c)
	l, ok := g.leaves[origin]
	if !ok {
		return
	}
	offset := leafOffset(c)
	l.values[offset] = g.background
	l.mask[offset>>6] &^= 1 << (offset & 63)
	if l.activeCount() == 0 {
		delete(g.leaves, origin)
	}
}

// Value returns the voxel value at c, or the background when inactive
func (g *Grid[T]) Value(c Coord) T {
	l, ok := g.leaves[leafOrigin(c)]
	if !ok {
		return g.background
	}
	offset := leafOffset(c)
	if !l.isOn(offset) {
		return g.background
	}
	return l.values[offset]
}

// IsActive reports whether the voxel at c holds an explicit value
func (g *Grid[T]) IsActive(c Coord) bool {
	l, ok := g.leaves[leafOrigin(c)]
	return ok && l.isOn(leafOffset(c))
}

// ActiveVoxelCount returns the number of active voxels
func (g *Grid[T]) ActiveVoxelCount() int {
	n := 0
	for _, l := range g.leaves {
		n += l.activeCount()
	}
	return n
}

// LeafCount returns the number of allocated leaf blocks
func (g *Grid[T]) LeafCount() int {
	return len(g.leaves)
}

// LeafOrigins returns the origins of all leaf blocks in ascending
// (x, y, z) order
func (g *Grid[T]) LeafOrigins() []Coord {
	origins := make([]Coord, 0, len(g.leaves))
	for origin := range g.leaves {
		origins = append(origins, origin)
	}
	sort.Slice(origins, func(i, j int) bool {
		a, b := origins[i], origins[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return origins
}

// LeafMask returns the activity mask of the leaf at origin
func (g *Grid[T]) LeafMask(origin Coord) ([maskWords]uint64, bool) {
	l, ok := g.leaves[origin]
	if !ok {
		return [maskWords]uint64{}, false
	}
	return l.mask, true
}

// ForEachActive calls fn for every active voxel, leaf by leaf in
// LeafOrigins order and by offset within a leaf
func (g *Grid[T]) ForEachActive(fn func(c Coord, v T)) {
	for _, origin := range g.LeafOrigins() {
		l := g.leaves[origin]
		for offset := 0; offset < leafSize; offset++ {
			if l.isOn(offset) {
				fn(offsetCoord(origin, offset), l.values[offset])
			}
		}
	}
}

// ActiveBoundingBox returns the inclusive index box of all active voxels.
// ok is false for a grid without active voxels.
func (g *Grid[T]) ActiveBoundingBox() (bbox CoordBBox, ok bool) {
	for origin, l := range g.leaves {
		for offset := 0; offset < leafSize; offset++ {
			if !l.isOn(offset) {
				continue
			}
			c := offsetCoord(origin, offset)
			if !ok {
				bbox = CoordBBox{Min: c, Max: c}
				ok = true
				continue
			}
			bbox.expand(c)
		}
	}
	return bbox, ok
}

// MemUsage estimates the bytes held by the leaf blocks
func (g *Grid[T]) MemUsage() int {
	valueBytes := 4 * g.ValueType().Channels()
	perLeaf := leafSize*valueBytes + maskWords*8
	return len(g.leaves) * perLeaf
}

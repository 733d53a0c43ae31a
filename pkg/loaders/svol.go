package loaders

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"

	"github.com/klauspost/compress/zlib"

	"github.com/df07/go-volume-raymarcher/pkg/core"
	"github.com/df07/go-volume-raymarcher/pkg/volume"
)

// SVOLMagic starts every sparse volume file
const SVOLMagic = "SVOL"

// SVOLVersion is the only container version this package reads and writes
const SVOLVersion uint32 = 1

// Volume file errors
var (
	ErrBadMagic           = errors.New("loaders: not a sparse volume file")
	ErrUnsupportedVersion = errors.New("loaders: unsupported sparse volume version")
	ErrGridNotFound       = errors.New("loaders: grid not found")
	ErrGridType           = errors.New("loaders: unexpected grid value type")
)

// maxPayload bounds the size of a single compressed grid payload
const maxPayload = 1 << 31

// VolumeFile is the in-memory content of a sparse volume file
type VolumeFile struct {
	Path  string
	Grids []volume.GridBase
}

// Grid returns the grid with the given name
func (vf *VolumeFile) Grid(name string) (volume.GridBase, error) {
	for _, g := range vf.Grids {
		if g.Name() == name {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %s", ErrGridNotFound, name, vf.Path)
}

// FloatGrid returns the named grid, which must hold scalar values
func (vf *VolumeFile) FloatGrid(name string) (*volume.FloatGrid, error) {
	g, err := vf.Grid(name)
	if err != nil {
		return nil, err
	}
	fg, ok := g.(*volume.FloatGrid)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %s, expected float", ErrGridType, name, g.ValueType())
	}
	return fg, nil
}

// LoadVolumeFile reads every grid stored in a sparse volume file
func LoadVolumeFile(filename string) (*VolumeFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open volume file: %w", err)
	}
	defer file.Close()

	grids, err := ReadVolume(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return &VolumeFile{Path: filename, Grids: grids}, nil
}

// ReadVolume decodes a sparse volume stream
func ReadVolume(r io.Reader) ([]volume.GridBase, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", noEOF(err))
	}
	if string(magic[:]) != SVOLMagic {
		return nil, ErrBadMagic
	}

	var header struct {
		Version   uint32
		GridCount uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", noEOF(err))
	}
	if header.Version != SVOLVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header.Version)
	}

	var grids []volume.GridBase
	for i := uint32(0); i < header.GridCount; i++ {
		g, err := readGrid(r)
		if err != nil {
			return nil, fmt.Errorf("grid %d: %w", i, err)
		}
		grids = append(grids, g)
	}
	return grids, nil
}

// gridHeader is the fixed-size part of a grid record after its name
type gridHeader struct {
	ValueType   uint8
	Class       uint8
	VoxelSize   [3]float64
	Translation [3]float64
}

func readGrid(r io.Reader) (volume.GridBase, error) {
	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return nil, fmt.Errorf("failed to read name length: %w", noEOF(err))
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, fmt.Errorf("failed to read name: %w", noEOF(err))
	}

	var h gridHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to read grid header: %w", noEOF(err))
	}
	xf := volume.Transform{
		VoxelSize:   core.NewVec3(h.VoxelSize[0], h.VoxelSize[1], h.VoxelSize[2]),
		Translation: core.NewVec3(h.Translation[0], h.Translation[1], h.Translation[2]),
	}

	switch volume.ValueType(h.ValueType) {
	case volume.ValueFloat:
		var bg float32
		if err := binary.Read(r, binary.LittleEndian, &bg); err != nil {
			return nil, fmt.Errorf("failed to read background: %w", noEOF(err))
		}
		g := volume.NewGrid(string(name), bg, xf)
		g.SetClass(volume.GridClass(h.Class))
		err := readLeaves(r, func(c volume.Coord, vals []float32) { g.SetValue(c, vals[0]) }, 1)
		return g, err
	case volume.ValueVec3:
		var bg volume.Vec3f
		if err := binary.Read(r, binary.LittleEndian, &bg); err != nil {
			return nil, fmt.Errorf("failed to read background: %w", noEOF(err))
		}
		g := volume.NewGrid(string(name), bg, xf)
		g.SetClass(volume.GridClass(h.Class))
		err := readLeaves(r, func(c volume.Coord, vals []float32) {
			g.SetValue(c, volume.Vec3f{vals[0], vals[1], vals[2]})
		}, 3)
		return g, err
	default:
		return nil, fmt.Errorf("%w: %d", ErrGridType, h.ValueType)
	}
}

// readLeaves inflates the leaf payload and hands every active voxel to set
func readLeaves(r io.Reader, set func(c volume.Coord, vals []float32), channels int) error {
	var sizes struct {
		LeafCount  uint32
		PayloadLen uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &sizes); err != nil {
		return fmt.Errorf("failed to read leaf table: %w", noEOF(err))
	}
	if sizes.PayloadLen > maxPayload {
		return fmt.Errorf("payload of %d bytes exceeds limit", sizes.PayloadLen)
	}

	var compressed bytes.Buffer
	if _, err := io.CopyN(&compressed, r, int64(sizes.PayloadLen)); err != nil {
		return fmt.Errorf("failed to read payload: %w", noEOF(err))
	}
	zr, err := zlib.NewReader(&compressed)
	if err != nil {
		return fmt.Errorf("failed to open payload: %w", err)
	}
	defer zr.Close()
	payload := bufio.NewReader(zr)

	vals := make([]float32, channels)
	for i := uint32(0); i < sizes.LeafCount; i++ {
		var rec struct {
			Origin [3]int32
			Mask   [8]uint64
		}
		if err := binary.Read(payload, binary.LittleEndian, &rec); err != nil {
			return fmt.Errorf("leaf %d: %w", i, noEOF(err))
		}
		origin := volume.Coord{X: rec.Origin[0], Y: rec.Origin[1], Z: rec.Origin[2]}
		for word, mask := range rec.Mask {
			for mask != 0 {
				bit := bits.TrailingZeros64(mask)
				mask &= mask - 1
				if err := binary.Read(payload, binary.LittleEndian, vals); err != nil {
					return fmt.Errorf("leaf %d values: %w", i, noEOF(err))
				}
				set(leafVoxel(origin, word*64+bit), vals)
			}
		}
	}
	return nil
}

// leafVoxel maps a bit offset within a leaf mask to its voxel. Offsets are
// x-major: offset = x<<6 | y<<3 | z.
func leafVoxel(origin volume.Coord, offset int) volume.Coord {
	return volume.Coord{
		X: origin.X + int32(offset>>6),
		Y: origin.Y + int32((offset>>3)&7),
		Z: origin.Z + int32(offset&7),
	}
}

// WriteVolumeFile writes the grids to a sparse volume file
func WriteVolumeFile(filename string, grids ...volume.GridBase) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create volume file: %w", err)
	}

	bw := bufio.NewWriter(file)
	if err := WriteVolume(bw, grids...); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return file.Close()
}

// WriteVolume encodes grids as a sparse volume stream
func WriteVolume(w io.Writer, grids ...volume.GridBase) error {
	if _, err := io.WriteString(w, SVOLMagic); err != nil {
		return err
	}
	header := struct{ Version, GridCount uint32 }{SVOLVersion, uint32(len(grids))}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}

	for _, g := range grids {
		var err error
		switch grid := g.(type) {
		case *volume.FloatGrid:
			err = writeGrid(w, grid, func(v float32) []float32 { return []float32{v} })
		case *volume.Vec3Grid:
			err = writeGrid(w, grid, func(v volume.Vec3f) []float32 { return v[:] })
		default:
			err = fmt.Errorf("%w: %T", ErrGridType, g)
		}
		if err != nil {
			return fmt.Errorf("grid %q: %w", g.Name(), err)
		}
	}
	return nil
}

func writeGrid[T volume.Value](w io.Writer, g *volume.Grid[T], components func(T) []float32) error {
	name := g.Name()
	if len(name) > 0xffff {
		return fmt.Errorf("name too long (%d bytes)", len(name))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(name))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, name); err != nil {
		return err
	}

	xf := g.Transform()
	h := gridHeader{
		ValueType:   uint8(g.ValueType()),
		Class:       uint8(g.Class()),
		VoxelSize:   [3]float64{xf.VoxelSize.X, xf.VoxelSize.Y, xf.VoxelSize.Z},
		Translation: [3]float64{xf.Translation.X, xf.Translation.Y, xf.Translation.Z},
	}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, components(g.Background())); err != nil {
		return err
	}

	var payload bytes.Buffer
	zw := zlib.NewWriter(&payload)
	origins := g.LeafOrigins()
	for _, origin := range origins {
		mask, _ := g.LeafMask(origin)
		rec := struct {
			Origin [3]int32
			Mask   [8]uint64
		}{[3]int32{origin.X, origin.Y, origin.Z}, mask}
		if err := binary.Write(zw, binary.LittleEndian, rec); err != nil {
			return err
		}
		for word, m := range mask {
			for m != 0 {
				bit := bits.TrailingZeros64(m)
				m &= m - 1
				v := g.Value(leafVoxel(origin, word*64+bit))
				if err := binary.Write(zw, binary.LittleEndian, components(v)); err != nil {
					return err
				}
			}
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}

	sizes := struct{ LeafCount, PayloadLen uint32 }{uint32(len(origins)), uint32(payload.Len())}
	if err := binary.Write(w, binary.LittleEndian, sizes); err != nil {
		return err
	}
	_, err := w.Write(payload.Bytes())
	return err
}

// noEOF turns a clean EOF in the middle of a record into ErrUnexpectedEOF
func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

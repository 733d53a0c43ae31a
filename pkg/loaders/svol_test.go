package loaders

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-volume-raymarcher/pkg/core"
	"github.com/df07/go-volume-raymarcher/pkg/volume"
)

func createTestGrids() (*volume.FloatGrid, *volume.Vec3Grid) {
	xf := volume.Transform{VoxelSize: core.NewVec3(0.5, 0.5, 0.25), Translation: core.NewVec3(1, -2, 3)}

	density := volume.NewGrid[float32]("density", 0, xf)
	density.SetClass(volume.ClassFogVolume)
	density.SetValue(volume.Coord{X: 0, Y: 0, Z: 0}, 1)
	density.SetValue(volume.Coord{X: -1, Y: 5, Z: 9}, 0.25)
	density.SetValue(volume.Coord{X: 17, Y: -30, Z: 2}, 3.5)

	vel := volume.NewGrid("vel", volume.Vec3f{0, 1, 0}, volume.NewUniformTransform(1))
	vel.SetValue(volume.Coord{X: 2, Y: 3, Z: 4}, volume.Vec3f{1, 2, 3})
	vel.SetValue(volume.Coord{X: -8, Y: 0, Z: 0}, volume.Vec3f{-1, 0, 0.5})

	return density, vel
}

func TestVolumeFile_RoundTrip(t *testing.T) {
	density, vel := createTestGrids()
	path := filepath.Join(t.TempDir(), "test.svol")

	if err := WriteVolumeFile(path, density, vel); err != nil {
		t.Fatalf("WriteVolumeFile failed: %v", err)
	}

	vf, err := LoadVolumeFile(path)
	if err != nil {
		t.Fatalf("LoadVolumeFile failed: %v", err)
	}
	if len(vf.Grids) != 2 {
		t.Fatalf("Expected 2 grids, got %d", len(vf.Grids))
	}

	got, err := vf.FloatGrid("density")
	if err != nil {
		t.Fatalf("FloatGrid failed: %v", err)
	}
	if got.Class() != volume.ClassFogVolume {
		t.Errorf("Expected fog volume class, got %v", got.Class())
	}
	if got.Transform() != density.Transform() {
		t.Errorf("Transform mismatch: %+v vs %+v", got.Transform(), density.Transform())
	}
	if got.ActiveVoxelCount() != density.ActiveVoxelCount() {
		t.Errorf("Expected %d active voxels, got %d", density.ActiveVoxelCount(), got.ActiveVoxelCount())
	}
	density.ForEachActive(func(c volume.Coord, v float32) {
		if !got.IsActive(c) || got.Value(c) != v {
			t.Errorf("Voxel %v: expected active %f, got %f", c, v, got.Value(c))
		}
	})

	g, err := vf.Grid("vel")
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	gotVel, ok := g.(*volume.Vec3Grid)
	if !ok {
		t.Fatalf("Expected vector grid, got %T", g)
	}
	if gotVel.Background() != (volume.Vec3f{0, 1, 0}) {
		t.Errorf("Unexpected background %v", gotVel.Background())
	}
	if v := gotVel.Value(volume.Coord{X: 2, Y: 3, Z: 4}); v != (volume.Vec3f{1, 2, 3}) {
		t.Errorf("Expected (1,2,3), got %v", v)
	}
	if gotVel.ActiveVoxelCount() != 2 {
		t.Errorf("Expected 2 active voxels, got %d", gotVel.ActiveVoxelCount())
	}
}

func TestVolumeFile_GridLookupErrors(t *testing.T) {
	density, vel := createTestGrids()
	vf := &VolumeFile{Path: "mem", Grids: []volume.GridBase{density, vel}}

	if _, err := vf.Grid("temperature"); !errors.Is(err, ErrGridNotFound) {
		t.Errorf("Expected ErrGridNotFound, got %v", err)
	}
	if _, err := vf.FloatGrid("vel"); !errors.Is(err, ErrGridType) {
		t.Errorf("Expected ErrGridType for vector grid, got %v", err)
	}
}

func TestReadVolume_Errors(t *testing.T) {
	density, _ := createTestGrids()
	var valid bytes.Buffer
	if err := WriteVolume(&valid, density); err != nil {
		t.Fatalf("WriteVolume failed: %v", err)
	}

	badVersion := bytes.NewBufferString(SVOLMagic)
	binary.Write(badVersion, binary.LittleEndian, uint32(2))
	binary.Write(badVersion, binary.LittleEndian, uint32(0))

	hugeCount := bytes.NewBufferString(SVOLMagic)
	binary.Write(hugeCount, binary.LittleEndian, []uint32{SVOLVersion, 0xFFFFFFFF})

	hugePayload := bytes.NewBufferString(SVOLMagic)
	binary.Write(hugePayload, binary.LittleEndian, []uint32{SVOLVersion, 1})
	binary.Write(hugePayload, binary.LittleEndian, uint16(1))
	hugePayload.WriteString("d")
	binary.Write(hugePayload, binary.LittleEndian, gridHeader{
		ValueType: uint8(volume.ValueFloat),
		VoxelSize: [3]float64{1, 1, 1},
	})
	binary.Write(hugePayload, binary.LittleEndian, float32(0))
	binary.Write(hugePayload, binary.LittleEndian, []uint32{1, maxPayload - 1})

	tests := []struct {
		name     string
		data     []byte
		expected error
	}{
		{"bad magic", []byte("VDB0\x01\x00\x00\x00"), ErrBadMagic},
		{"empty", nil, io.ErrUnexpectedEOF},
		{"short magic", []byte("SV"), io.ErrUnexpectedEOF},
		{"version", badVersion.Bytes(), ErrUnsupportedVersion},
		{"truncated header", valid.Bytes()[:10], io.ErrUnexpectedEOF},
		{"truncated payload", valid.Bytes()[:valid.Len()-4], io.ErrUnexpectedEOF},
		{"grid count beyond data", hugeCount.Bytes(), io.ErrUnexpectedEOF},
		{"payload length beyond data", hugePayload.Bytes(), io.ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadVolume(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestReadVolume_ZeroGrids(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVolume(&buf); err != nil {
		t.Fatalf("WriteVolume failed: %v", err)
	}
	if buf.Len() != 12 {
		t.Errorf("Expected 12 byte header, got %d bytes", buf.Len())
	}
	grids, err := ReadVolume(&buf)
	if err != nil {
		t.Fatalf("ReadVolume failed: %v", err)
	}
	if len(grids) != 0 {
		t.Errorf("Expected no grids, got %d", len(grids))
	}
}

func TestLoadVolumeFile_Missing(t *testing.T) {
	_, err := LoadVolumeFile(filepath.Join(t.TempDir(), "missing.svol"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestVolumeFile_GeneratedSphere(t *testing.T) {
	sphere := volume.NewSphere("density", 1, 0.1, 2)
	path := filepath.Join(t.TempDir(), "sphere.svol")

	if err := WriteVolumeFile(path, sphere); err != nil {
		t.Fatalf("WriteVolumeFile failed: %v", err)
	}
	vf, err := LoadVolumeFile(path)
	if err != nil {
		t.Fatalf("LoadVolumeFile failed: %v", err)
	}
	got, err := vf.FloatGrid("density")
	if err != nil {
		t.Fatalf("FloatGrid failed: %v", err)
	}
	if got.LeafCount() != sphere.LeafCount() || got.ActiveVoxelCount() != sphere.ActiveVoxelCount() {
		t.Errorf("Expected %d leaves / %d voxels, got %d / %d",
			sphere.LeafCount(), sphere.ActiveVoxelCount(), got.LeafCount(), got.ActiveVoxelCount())
	}
}

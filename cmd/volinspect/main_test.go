package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-volume-raymarcher/pkg/loaders"
	"github.com/df07/go-volume-raymarcher/pkg/raster"
	"github.com/df07/go-volume-raymarcher/pkg/volume"
)

func writeTestVolume(t *testing.T, dir string) string {
	t.Helper()
	density := volume.NewSphere("density", 1, 0.25, 0.5)

	vel := volume.NewGrid("vel", volume.Vec3f{}, volume.NewUniformTransform(1))
	vel.SetValue(volume.Coord{X: 0, Y: 0, Z: 0}, volume.Vec3f{1, 2, 3})
	vel.SetValue(volume.Coord{X: 4, Y: -1, Z: 2}, volume.Vec3f{-1, 0, 0})

	path := filepath.Join(dir, "test.svol")
	if err := loaders.WriteVolumeFile(path, density, vel); err != nil {
		t.Fatalf("Failed to write volume: %v", err)
	}
	return path
}

func TestRun_Inspect(t *testing.T) {
	dir := t.TempDir()
	path := writeTestVolume(t, dir)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-dir", dir, path}, &stdout, &stderr); code != 0 {
		t.Fatalf("Expected exit code 0, got %d (stderr: %s)", code, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{
		"2 grid(s)",
		`Grid "density"`,
		"Type:          float",
		"Class:         fog volume",
		"Value at origin: 0.5",
		"Index bounds:  [-4, -4, -4] to [4, 4, 4] ([9, 9, 9])",
		`Grid "vel"`,
		"Type:          vec3s",
		"Active voxels: 2 in 2 leaves",
		"Value at origin: [1 2 3]",
		"Min: [-1 0 0]  Max: [1 2 3]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}

	file, err := os.Open(filepath.Join(dir, "density_slice.ppm"))
	if err != nil {
		t.Fatalf("Slice not written: %v", err)
	}
	defer file.Close()
	img, header, err := raster.DecodePPM(file)
	if err != nil {
		t.Fatalf("Failed to decode slice: %v", err)
	}
	if header.Magic != "P6" || img.Width != 9 || img.Height != 9 {
		t.Errorf("Expected 9x9 P6 slice, got %s %dx%d", header.Magic, img.Width, img.Height)
	}

	if _, err := os.Stat(filepath.Join(dir, "vel_slice.ppm")); !os.IsNotExist(err) {
		t.Error("Expected no slice for the vector grid")
	}
}

func TestRun_NoSlice(t *testing.T) {
	dir := t.TempDir()
	path := writeTestVolume(t, dir)
	sliceDir := filepath.Join(dir, "slices")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-noslice", "-dir", sliceDir, path}, &stdout, &stderr); code != 0 {
		t.Fatalf("Expected exit code 0, got %d (stderr: %s)", code, stderr.String())
	}
	if strings.Contains(stdout.String(), "Slice:") {
		t.Error("Expected no slice to be reported")
	}
}

func TestRun_EmptyGrid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.svol")
	empty := volume.NewGrid[float32]("density", 0, volume.NewUniformTransform(1))
	if err := loaders.WriteVolumeFile(path, empty); err != nil {
		t.Fatalf("Failed to write volume: %v", err)
	}

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-dir", dir, path}, &stdout, &stderr); code != 0 {
		t.Fatalf("Expected exit code 0, got %d (stderr: %s)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Bounds:        empty") {
		t.Errorf("Expected empty bounds, got:\n%s", stdout.String())
	}
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{"no arguments", nil, "Usage"},
		{"two files", []string{"a.svol", "b.svol"}, "Usage"},
		{"missing file", []string{filepath.Join(dir, "missing.svol")}, "Error: "},
		{"slice directory missing", []string{"-dir", filepath.Join(dir, "nodir"), writeTestVolume(t, dir)}, "failed to create"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != 1 {
				t.Errorf("Expected exit code 1, got %d", code)
			}
			if !strings.Contains(stderr.String(), tt.contains) {
				t.Errorf("Expected %q in %q", tt.contains, stderr.String())
			}
		})
	}
}

func TestRun_SliceStaysInDir(t *testing.T) {
	base := t.TempDir()
	sliceDir := filepath.Join(base, "slices")
	if err := os.Mkdir(sliceDir, 0o755); err != nil {
		t.Fatalf("Failed to create slice dir: %v", err)
	}
	path := filepath.Join(base, "escape.svol")
	if err := loaders.WriteVolumeFile(path, volume.NewSphere("../escape", 1, 0.5, 1)); err != nil {
		t.Fatalf("Failed to write volume: %v", err)
	}

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-dir", sliceDir, path}, &stdout, &stderr); code != 0 {
		t.Fatalf("Expected exit code 0, got %d (stderr: %s)", code, stderr.String())
	}
	if _, err := os.Stat(filepath.Join(sliceDir, "escape_slice.ppm")); err != nil {
		t.Errorf("Expected slice inside -dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "escape_slice.ppm")); !os.IsNotExist(err) {
		t.Error("Expected nothing written outside -dir")
	}
}

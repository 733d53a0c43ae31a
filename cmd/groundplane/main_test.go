package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-volume-raymarcher/pkg/raster"
)

func writeSmallScene(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "ground.json")
	config := `{"image": {"width": 40, "height": 30}, "lightGrid": {"size": 2}}`
	if err := os.WriteFile(path, []byte(config), 0644); err != nil {
		t.Fatalf("Failed to write scene: %v", err)
	}
	return path
}

func TestRun_RendersASCIIPixmap(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "ground.ppm")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", writeSmallScene(t, dir), "-o", output, "-workers", "3"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d (stderr: %s)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Rendered image saved to "+output) {
		t.Errorf("Expected success message, got %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "with 9 lights") {
		t.Errorf("Expected 3x3 light grid in log, got %q", stdout.String())
	}

	file, err := os.Open(output)
	if err != nil {
		t.Fatalf("Output not written: %v", err)
	}
	defer file.Close()

	img, header, err := raster.DecodePPM(file)
	if err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if header.Magic != "P3" || img.Width != 40 || img.Height != 30 {
		t.Fatalf("Expected 40x30 P3, got %s %dx%d", header.Magic, img.Width, img.Height)
	}

	// Top row looks over the horizon, the center looks at the lit origin
	for x := 0; x < img.Width; x++ {
		if r, g, b := img.Bytes(x, 0); r != 0 || g != 0 || b != 0 {
			t.Fatalf("Expected black sky at (%d,0), got (%d,%d,%d)", x, r, g, b)
		}
	}
	if r, g, b := img.Bytes(20, 15); r == 0 && g == 0 && b == 0 {
		t.Error("Expected the ground to be lit at the image center")
	}
}

func TestRun_PNGOutput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "ground.png")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-config", writeSmallScene(t, dir), "-o", output}, &stdout, &stderr); code != 0 {
		t.Fatalf("Expected exit code 0, got %d (stderr: %s)", code, stderr.String())
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("Output not written: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("Expected PNG signature")
	}
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	badScene := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badScene, []byte(`{"checker": {"size": 0}}`), 0644); err != nil {
		t.Fatalf("Failed to write scene: %v", err)
	}

	tests := []struct {
		name     string
		args     []string
		code     int
		contains string
	}{
		{"positional argument", []string{"scene.json"}, 1, "Usage"},
		{"unknown flag", []string{"-bogus"}, 1, "flag provided but not defined"},
		{"invalid scene", []string{"-config", badScene}, 1, "checker size"},
		{"unknown format", []string{"-config", writeSmallScene(t, dir), "-o", filepath.Join(dir, "out.bmp")}, 1, "unknown output format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != tt.code {
				t.Errorf("Expected exit code %d, got %d", tt.code, code)
			}
			if !strings.Contains(stderr.String(), tt.contains) {
				t.Errorf("Expected %q in %q", tt.contains, stderr.String())
			}
		})
	}
}

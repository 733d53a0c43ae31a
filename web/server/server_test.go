package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/df07/go-volume-raymarcher/pkg/loaders"
	"github.com/df07/go-volume-raymarcher/pkg/volume"
)

func createTestServer(withVolume bool) *Server {
	if !withVolume {
		return NewServer(0, nil)
	}
	vel := volume.NewGrid("vel", volume.Vec3f{}, volume.NewUniformTransform(1))
	vel.SetValue(volume.Coord{}, volume.Vec3f{1, 0, 0})
	vf := &loaders.VolumeFile{
		Path:  "test.svol",
		Grids: []volume.GridBase{volume.NewSphere("density", 1, 0.1, 1), vel},
	}
	return NewServer(0, vf)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHandleHealth(t *testing.T) {
	rec := get(t, createTestServer(true), "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	decodeJSON(t, rec, &body)
	if body["status"] != "ok" || body["volumeLoaded"] != true {
		t.Errorf("Unexpected health response %v", body)
	}
	if cores, _ := body["logicalCores"].(float64); cores < 1 {
		t.Errorf("Expected at least one core, got %v", body["logicalCores"])
	}
}

func TestHandleRender(t *testing.T) {
	tests := []struct {
		name   string
		target string
		volume bool
	}{
		{"volume", "/api/render?scene=volume&width=32&height=24&workers=2", true},
		{"ground", "/api/render?scene=ground&width=32&height=24", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, createTestServer(tt.volume), tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
			}

			var resp RenderResponse
			decodeJSON(t, rec, &resp)
			if resp.Stats.TotalPixels != 32*24 {
				t.Errorf("Expected %d pixels, got %d", 32*24, resp.Stats.TotalPixels)
			}
			if resp.Stats.NonBlackPixels == 0 {
				t.Error("Expected a visible render")
			}
			if len(resp.Console) == 0 {
				t.Error("Expected renderer log lines in the console")
			}

			data, err := base64.StdEncoding.DecodeString(resp.ImageData)
			if err != nil {
				t.Fatalf("Invalid base64 image: %v", err)
			}
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Invalid PNG: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
				t.Errorf("Expected 32x24 PNG, got %v", b)
			}
		})
	}
}

func TestHandleRender_Errors(t *testing.T) {
	tests := []struct {
		name     string
		volume   bool
		target   string
		status   int
		contains string
	}{
		{"width too small", true, "/api/render?width=4", http.StatusBadRequest, "width must be between"},
		{"bad step", true, "/api/render?stepSize=abc", http.StatusBadRequest, "invalid stepSize"},
		{"unknown scene", true, "/api/render?scene=cornell-box", http.StatusBadRequest, "unknown scene"},
		{"missing grid", true, "/api/render?grid=temperature", http.StatusNotFound, "grid not found"},
		{"vector grid", true, "/api/render?grid=vel", http.StatusBadRequest, "expected float"},
		{"no volume", false, "/api/render?scene=volume", http.StatusConflict, "no volume file loaded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, createTestServer(tt.volume), tt.target)
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("Expected %q in %q", tt.contains, rec.Body.String())
			}
		})
	}
}

func TestServer_FieldIsCached(t *testing.T) {
	s := createTestServer(true)
	a, err := s.field("density")
	if err != nil {
		t.Fatalf("field failed: %v", err)
	}
	b, err := s.field("density")
	if err != nil {
		t.Fatalf("field failed: %v", err)
	}
	if a != b {
		t.Error("Expected the same field for repeated lookups")
	}
}

func TestHandleSceneConfig(t *testing.T) {
	rec := get(t, createTestServer(false), "/api/scene-config?scene=ground")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Scene    string `json:"scene"`
		Defaults struct {
			Image struct {
				Output string `json:"output"`
			} `json:"image"`
		} `json:"defaults"`
	}
	decodeJSON(t, rec, &body)
	if body.Scene != "ground" || body.Defaults.Image.Output != "lighted_scene.ppm" {
		t.Errorf("Unexpected scene config %+v", body)
	}

	if rec := get(t, createTestServer(false), "/api/scene-config?scene=nope"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown scene, got %d", rec.Code)
	}
}

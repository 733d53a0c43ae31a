package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/df07/go-volume-raymarcher/pkg/core"
	"github.com/df07/go-volume-raymarcher/pkg/integrator"
	"github.com/df07/go-volume-raymarcher/pkg/scene"
	"github.com/df07/go-volume-raymarcher/pkg/volume"
)

// InspectResponse represents the JSON response for pixel inspection
type InspectResponse struct {
	Scene     string          `json:"scene"`
	Pixel     [2]int          `json:"pixel"`
	Origin    core.Vec3       `json:"origin"`
	Direction core.Vec3       `json:"direction"`
	Hit       bool            `json:"hit"`
	Color     core.Vec3       `json:"color"`
	Volume    *VolumeInspect  `json:"volume,omitempty"`
	Surface   *SurfaceInspect `json:"surface,omitempty"`
}

// VolumeInspect is the march of one primary ray through the volume
type VolumeInspect struct {
	EntryT        float64 `json:"entryT"`
	ExitT         float64 `json:"exitT"`
	Steps         int     `json:"steps"`
	ShadowSteps   int     `json:"shadowSteps"`
	Transmittance float64 `json:"transmittance"`
	EarlyExit     bool    `json:"earlyExit"`
}

// SurfaceInspect is where a ray meets the ground plane
type SurfaceInspect struct {
	Point     core.Vec3 `json:"point"`
	Normal    core.Vec3 `json:"normal"`
	Distance  float64   `json:"distance"`
	BaseColor core.Vec3 `json:"baseColor"`
}

// inspectVolume marches the ray and reports where it crossed the bounds
func inspectVolume(vi *integrator.VolumeIntegrator, ray core.Ray) (*VolumeInspect, core.Vec3, bool) {
	tMin, tMax, hit := vi.Bounds().Intersect(ray)
	if !hit {
		return nil, core.Vec3{}, false
	}
	result := vi.Trace(ray)
	return &VolumeInspect{
		EntryT:        max(tMin, 0),
		ExitT:         tMax,
		Steps:         result.Steps,
		ShadowSteps:   result.ShadowSteps,
		Transmittance: result.Transmittance,
		EarlyExit:     result.EarlyExit,
	}, result.Color, true
}

// inspectSurface shades the ground plane hit along the ray
func inspectSurface(pi *integrator.PhongIntegrator, ray core.Ray) (*SurfaceInspect, core.Vec3, bool) {
	hit, ok := pi.Inspect(ray)
	if !ok {
		return nil, core.Vec3{}, false
	}
	return &SurfaceInspect{
		Point:     hit.Point,
		Normal:    hit.Normal,
		Distance:  hit.T,
		BaseColor: hit.BaseColor,
	}, hit.Color, true
}

// handleInspect casts the ray through one pixel center and reports what it
// met
func (s *Server) handleInspect(c echo.Context) error {
	req, err := s.parseRenderRequest(c.QueryParams())
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
	}

	x, err := strconv.Atoi(c.QueryParam("x"))
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid x coordinate")
	}
	y, err := strconv.Atoi(c.QueryParam("y"))
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid y coordinate")
	}
	if x < 0 || x >= req.Width || y < 0 || y >= req.Height {
		return jsonError(c, http.StatusBadRequest, "Pixel coordinates out of bounds")
	}

	camera, integ, err := s.createPipeline(req)
	if err != nil {
		return jsonError(c, statusFor(err), err.Error())
	}
	ray := camera.GetPixelRay(x, y, req.Width, req.Height)

	response := InspectResponse{
		Scene:     req.Scene,
		Pixel:     [2]int{x, y},
		Origin:    ray.Origin,
		Direction: ray.Direction,
	}
	switch in := integ.(type) {
	case *integrator.VolumeIntegrator:
		response.Volume, response.Color, response.Hit = inspectVolume(in, ray)
	case *integrator.PhongIntegrator:
		response.Surface, response.Color, response.Hit = inspectSurface(in, ray)
	default:
		return jsonError(c, http.StatusInternalServerError, fmt.Sprintf("cannot inspect %T", integ))
	}
	return c.JSON(http.StatusOK, response)
}

// GridInfo summarizes one grid of the loaded volume file
type GridInfo struct {
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	Class        string        `json:"class"`
	VoxelSize    core.Vec3     `json:"voxelSize"`
	ActiveVoxels int           `json:"activeVoxels"`
	Leaves       int           `json:"leaves"`
	MemUsage     int           `json:"memUsage"`
	IndexMin     *[3]int32     `json:"indexMin,omitempty"`
	IndexMax     *[3]int32     `json:"indexMax,omitempty"`
	Stats        *volume.Stats `json:"stats,omitempty"`
}

// handleGrids lists the grids of the loaded volume file
func (s *Server) handleGrids(c echo.Context) error {
	if s.volume == nil {
		return jsonError(c, http.StatusConflict, errNoVolume.Error())
	}

	grids := make([]GridInfo, 0, len(s.volume.Grids))
	for _, g := range s.volume.Grids {
		info := GridInfo{
			Name:         g.Name(),
			Type:         g.ValueType().String(),
			Class:        g.Class().String(),
			VoxelSize:    g.Transform().VoxelSize,
			ActiveVoxels: g.ActiveVoxelCount(),
			Leaves:       g.LeafCount(),
			MemUsage:     g.MemUsage(),
		}
		if bbox, ok := g.ActiveBoundingBox(); ok {
			info.IndexMin = &[3]int32{bbox.Min.X, bbox.Min.Y, bbox.Min.Z}
			info.IndexMax = &[3]int32{bbox.Max.X, bbox.Max.Y, bbox.Max.Z}
		}
		if fg, ok := g.(*volume.FloatGrid); ok {
			if stats, err := volume.FloatStats(fg); err == nil {
				info.Stats = &stats
			}
		}
		grids = append(grids, info)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"path":  s.volume.Path,
		"grids": grids,
		"defaults": map[string]string{
			"grid": scene.DefaultVolumeScene().Grid,
		},
	})
}

package server

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/df07/go-volume-raymarcher/pkg/core"
	"github.com/df07/go-volume-raymarcher/pkg/loaders"
	"github.com/df07/go-volume-raymarcher/pkg/raster"
	"github.com/df07/go-volume-raymarcher/pkg/renderer"
	"github.com/df07/go-volume-raymarcher/pkg/scene"
	"github.com/df07/go-volume-raymarcher/pkg/volume"
)

// errNoVolume is returned for volume requests on a server started without a
// volume file
var errNoVolume = errors.New("no volume file loaded")

// Server handles web requests for the volume preview
type Server struct {
	port   int
	volume *loaders.VolumeFile
	echo   *echo.Echo

	mu     sync.Mutex
	fields map[string]*volume.Field
}

// NewServer creates a new web server. vf may be nil, in which case only the
// ground-plane scene is available.
func NewServer(port int, vf *loaders.VolumeFile) *Server {
	s := &Server{
		port:   port,
		volume: vf,
		fields: make(map[string]*volume.Field),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/api/health", s.handleHealth)
	e.GET("/api/render", s.handleRender)
	e.GET("/api/inspect", s.handleInspect)
	e.GET("/api/grids", s.handleGrids)
	e.GET("/api/scene-config", s.handleSceneConfig)

	s.echo = e
	return s
}

// Handler exposes the routes for embedding or testing
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene    string  `json:"scene"`    // "volume" or "ground"
	Width    int     `json:"width"`    // Image width
	Height   int     `json:"height"`   // Image height
	Grid     string  `json:"grid"`     // Float grid to march (volume scene)
	StepSize float64 `json:"stepSize"` // March step (volume scene)
	Workers  int     `json:"workers"`  // 0 = CPU count
}

// RenderResponse carries the finished image and what happened while
// producing it
type RenderResponse struct {
	ImageData string           `json:"imageData"` // Base64 encoded PNG
	Stats     Stats            `json:"stats"`
	Console   []ConsoleMessage `json:"console"`
	ElapsedMs int64            `json:"elapsedMs"`
}

// Stats represents render statistics
type Stats struct {
	TotalPixels     int     `json:"totalPixels"`
	TilesRendered   int     `json:"tilesRendered"`
	TilesCulled     int     `json:"tilesCulled"`
	NonBlackPixels  int     `json:"nonBlackPixels"`
	SamplesPerPixel float64 `json:"samplesPerPixel"`
	ShadowSamples   int     `json:"shadowSamples"`
	EarlyExits      int     `json:"earlyExits"`
}

// handleHealth reports liveness and the host the renders run on
func (s *Server) handleHealth(c echo.Context) error {
	info, _ := renderer.GetSystemInfo()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"cpu":          info.CPUModel,
		"logicalCores": info.LogicalCores,
		"volumeLoaded": s.volume != nil,
	})
}

// handleRender renders the requested scene and returns it as a PNG
func (s *Server) handleRender(c echo.Context) error {
	req, err := s.parseRenderRequest(c.QueryParams())
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
	}

	consoleChan := make(chan ConsoleMessage, 64)
	logger := NewWebLogger(fmt.Sprintf("render-%d", time.Now().UnixNano()), consoleChan)

	camera, integ, err := s.createPipeline(req)
	if err != nil {
		return jsonError(c, statusFor(err), err.Error())
	}

	config := renderer.DefaultConfig()
	config.NumWorkers = req.Workers

	startTime := time.Now()
	img, stats, err := renderer.NewRenderer(camera, integ, req.Width, req.Height, config, logger).Render()
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "Render error: "+err.Error())
	}

	imageData, err := imageToBase64PNG(img)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to encode image: "+err.Error())
	}

	return c.JSON(http.StatusOK, RenderResponse{
		ImageData: imageData,
		Stats: Stats{
			TotalPixels:     stats.TotalPixels,
			TilesRendered:   stats.TilesRendered,
			TilesCulled:     stats.TilesCulled,
			NonBlackPixels:  stats.NonBlackPixels,
			SamplesPerPixel: stats.SamplesPerPixel(),
			ShadowSamples:   stats.ShadowSamples,
			EarlyExits:      stats.EarlyExits,
		},
		Console:   drainConsole(consoleChan),
		ElapsedMs: time.Since(startTime).Milliseconds(),
	})
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(values url.Values) (*RenderRequest, error) {
	req := &RenderRequest{Scene: "volume", Grid: "density"}
	if sceneName := values.Get("scene"); sceneName != "" {
		req.Scene = sceneName
	}
	if grid := values.Get("grid"); grid != "" {
		req.Grid = grid
	}

	var err error
	if req.Width, err = parseIntParam(values, "width", 400, 16, 2000); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(values, "height", 300, 16, 2000); err != nil {
		return nil, err
	}
	if req.Workers, err = parseIntParam(values, "workers", 0, 0, 256); err != nil {
		return nil, err
	}
	defaultStep := scene.DefaultVolumeScene().March.StepSize
	if req.StepSize, err = parseFloatParam(values, "stepSize", defaultStep, 0.001, 10); err != nil {
		return nil, err
	}
	return req, nil
}

// createPipeline builds the camera and integrator for a request
func (s *Server) createPipeline(req *RenderRequest) (*renderer.Camera, core.Integrator, error) {
	switch req.Scene {
	case "volume":
		vs := scene.DefaultVolumeScene()
		vs.Image.Width, vs.Image.Height = req.Width, req.Height
		vs.Grid = req.Grid
		vs.March.StepSize = req.StepSize
		field, err := s.field(vs.Grid)
		if err != nil {
			return nil, nil, err
		}
		return vs.NewCamera(), vs.NewIntegrator(field), nil
	case "ground":
		gs := scene.DefaultGroundScene()
		gs.Image.Width, gs.Image.Height = req.Width, req.Height
		return gs.NewCamera(), gs.NewIntegrator(), nil
	default:
		return nil, nil, fmt.Errorf("unknown scene: %s", req.Scene)
	}
}

// field returns the sampling field for a grid, building it on first use
func (s *Server) field(name string) (*volume.Field, error) {
	if s.volume == nil {
		return nil, errNoVolume
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.fields[name]; ok {
		return f, nil
	}

	grid, err := s.volume.FloatGrid(name)
	if err != nil {
		return nil, err
	}
	f, err := volume.NewField(grid)
	if err != nil {
		return nil, err
	}
	s.fields[name] = f
	return f, nil
}

// statusFor maps pipeline errors to HTTP status codes
func statusFor(err error) int {
	if errors.Is(err, loaders.ErrGridNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, errNoVolume) {
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if !(parsed >= min && parsed <= max) {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img *raster.Image) (string, error) {
	var buf bytes.Buffer
	if err := (raster.PNGEncoder{}).Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func jsonError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(c echo.Context) error {
	sceneName := c.QueryParam("scene")
	if sceneName == "" {
		sceneName = "volume"
	}

	var defaults interface{}
	switch sceneName {
	case "volume":
		defaults = scene.DefaultVolumeScene()
	case "ground":
		defaults = scene.DefaultGroundScene()
	default:
		return jsonError(c, http.StatusBadRequest, "Unknown scene: "+sceneName)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"scene":    sceneName,
		"defaults": defaults,
		"limits": map[string]interface{}{
			"width":    map[string]int{"min": 16, "max": 2000},
			"height":   map[string]int{"min": 16, "max": 2000},
			"workers":  map[string]int{"min": 0, "max": 256},
			"stepSize": map[string]float64{"min": 0.001, "max": 10},
		},
	})
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/df07/go-volume-raymarcher/pkg/loaders"
	"github.com/df07/go-volume-raymarcher/pkg/raster"
	"github.com/df07/go-volume-raymarcher/pkg/renderer"
	"github.com/df07/go-volume-raymarcher/pkg/scene"
	"github.com/df07/go-volume-raymarcher/pkg/volume"
)

// errUsage marks a command line that could not be parsed; usage has already
// been printed
var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the parsed command line
type options struct {
	volumePath string
	configPath string
	output     string
	grid       string
	workers    int
	tileSize   int
	noCull     bool
	set        map[string]bool // Flags given explicitly
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("volrender", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "JSON scene file (defaults are used for absent fields)")
	fs.StringVar(&opts.output, "o", "volume_render.ppm", "Output image: .ppm, .png or .exr")
	fs.StringVar(&opts.grid, "grid", "density", "Name of the float grid to render")
	fs.IntVar(&opts.workers, "workers", 0, "Number of parallel workers (0 = CPU count)")
	fs.IntVar(&opts.tileSize, "tile", renderer.DefaultConfig().TileSize, "Tile size in pixels")
	fs.BoolVar(&opts.noCull, "nocull", false, "Trace every tile, even those that cannot see the volume")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Volume Raymarcher")
		fmt.Fprintln(stderr, "Usage: volrender [options] <volume-file.svol>")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errUsage
	}

	opts.volumePath = fs.Arg(0)
	opts.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return 1
	}

	logger := &renderer.WriterLogger{W: stdout}
	output, err := render(opts, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Rendered image saved to %s\n", output)
	return 0
}

// loadScene merges the scene file with explicit flags; flags win
func loadScene(opts *options) (*scene.VolumeScene, error) {
	vs := scene.DefaultVolumeScene()
	if opts.configPath != "" {
		loaded, err := scene.LoadVolumeScene(opts.configPath)
		if err != nil {
			return nil, err
		}
		vs = *loaded
	}

	if opts.set["o"] || opts.configPath == "" {
		vs.Image.Output = opts.output
		vs.Image.Format = ""
	}
	if opts.set["grid"] || opts.configPath == "" {
		vs.Grid = opts.grid
	}
	return &vs, vs.Validate()
}

func render(opts *options, logger *renderer.WriterLogger) (string, error) {
	vs, err := loadScene(opts)
	if err != nil {
		return "", err
	}

	var enc raster.Encoder
	if vs.Image.Format != "" {
		enc, err = raster.EncoderForFormat(vs.Image.Format)
	} else {
		enc, err = raster.EncoderForPath(vs.Image.Output)
	}
	if err != nil {
		return "", err
	}

	renderer.LogSystemInfo(logger)

	vf, err := loaders.LoadVolumeFile(opts.volumePath)
	if err != nil {
		return "", err
	}
	grid, err := vf.FloatGrid(vs.Grid)
	if err != nil {
		return "", err
	}
	field, err := volume.NewField(grid)
	if err != nil {
		return "", fmt.Errorf("grid %q: %w", vs.Grid, err)
	}

	logger.Printf("Loaded grid %q: %d active voxels in %d leaves\n", grid.Name(), grid.ActiveVoxelCount(), grid.LeafCount())

	config := renderer.DefaultConfig()
	config.NumWorkers = opts.workers
	config.TileSize = opts.tileSize
	config.CullTiles = !opts.noCull

	r := renderer.NewRenderer(vs.NewCamera(), vs.NewIntegrator(field), vs.Image.Width, vs.Image.Height, config, logger)
	img, _, err := r.Render()
	if err != nil {
		return "", err
	}

	if err := raster.WriteFile(vs.Image.Output, img, enc); err != nil {
		return "", err
	}
	return vs.Image.Output, nil
}

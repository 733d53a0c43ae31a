// Command volinspect prints a summary of every grid in a sparse volume file
// and writes a heat-map slice through each float grid.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/df07/go-volume-raymarcher/pkg/core"
	"github.com/df07/go-volume-raymarcher/pkg/loaders"
	"github.com/df07/go-volume-raymarcher/pkg/raster"
	"github.com/df07/go-volume-raymarcher/pkg/volume"
)

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	volumePath string
	sliceDir   string
	noSlices   bool
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("volinspect", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.sliceDir, "dir", ".", "Directory for <grid>_slice.ppm images")
	fs.BoolVar(&opts.noSlices, "noslice", false, "Skip writing slice images")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: volinspect [options] <volume-file.svol>")
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
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return 1
	}

	vf, err := loaders.LoadVolumeFile(opts.volumePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "%s: %d grid(s)\n", vf.Path, len(vf.Grids))
	for _, g := range vf.Grids {
		if err := inspect(stdout, g, opts); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	return 0
}

// inspect prints one grid's summary and, for float grids, writes its slice
func inspect(w io.Writer, g volume.GridBase, opts *options) error {
	xf := g.Transform()
	fmt.Fprintf(w, "\nGrid %q\n", g.Name())
	fmt.Fprintf(w, "  Type:          %s\n", g.ValueType())
	fmt.Fprintf(w, "  Class:         %s\n", g.Class())
	fmt.Fprintf(w, "  Voxel size:    %v\n", xf.VoxelSize)
	fmt.Fprintf(w, "  Active voxels: %d in %d leaves\n", g.ActiveVoxelCount(), g.LeafCount())
	fmt.Fprintf(w, "  Memory usage:  %.2f MB\n", float64(g.MemUsage())/(1024*1024))

	bbox, ok := g.ActiveBoundingBox()
	if !ok {
		fmt.Fprintln(w, "  Bounds:        empty")
		return nil
	}
	lo := xf.IndexToWorld(core.NewVec3(float64(bbox.Min.X)-0.5, float64(bbox.Min.Y)-0.5, float64(bbox.Min.Z)-0.5))
	hi := xf.IndexToWorld(core.NewVec3(float64(bbox.Max.X)+0.5, float64(bbox.Max.Y)+0.5, float64(bbox.Max.Z)+0.5))
	fmt.Fprintf(w, "  Index bounds:  %v to %v (%v)\n", bbox.Min, bbox.Max, bbox.Dim())
	fmt.Fprintf(w, "  World bounds:  %v to %v\n", lo, hi)

	origin := xf.WorldToIndexCellCentered(core.Vec3{})
	switch grid := g.(type) {
	case *volume.FloatGrid:
		fmt.Fprintf(w, "  Value at origin: %g\n", grid.Value(origin))
		s, err := volume.FloatStats(grid)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  Min: %g  Max: %g  Mean: %.6f  StdDev: %.6f\n", s.Min, s.Max, s.Mean, s.StdDev)
		if opts.noSlices {
			return nil
		}
		return writeSlice(w, grid, opts.sliceDir)
	case *volume.Vec3Grid:
		fmt.Fprintf(w, "  Value at origin: %v\n", grid.Value(origin))
		s, err := volume.Vec3Stats(grid)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  Min: %v  Max: %v\n", s.Min, s.Max)
	}
	return nil
}

func writeSlice(w io.Writer, g *volume.FloatGrid, dir string) error {
	img, err := volume.MidSliceImage(g)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, filepath.Base(g.Name())+"_slice.ppm")
	if err := raster.WriteFile(path, img, raster.PPMEncoder{Binary: true}); err != nil {
		return err
	}
	fmt.Fprintf(w, "  Slice:         %s (%dx%d)\n", path, img.Width, img.Height)
	return nil
}

package raster

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mrjoshuak/go-openexr/exr"
)

// Encoding errors
var (
	ErrUnknownFormat = errors.New("raster: unknown output format")
	ErrNotSeekable   = errors.New("raster: encoder requires a seekable writer")
)

// Encoder serializes an image to a writer
type Encoder interface {
	Encode(w io.Writer, img *Image) error
}

// PPMEncoder writes Netpbm pixmaps. Binary selects P6, otherwise the ASCII
// P3 variant with one image row per text line is written.
type PPMEncoder struct {
	Binary bool
}

// Encode writes the header followed by the samples, top row first
func (e PPMEncoder) Encode(w io.Writer, img *Image) error {
	bw := bufio.NewWriter(w)

	magic := "P3"
	if e.Binary {
		magic = "P6"
	}
	if _, err := fmt.Fprintf(bw, "%s\n%d %d\n255\n", magic, img.Width, img.Height); err != nil {
		return err
	}

	if e.Binary {
		row := make([]byte, img.Width*3)
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				row[x*3+0], row[x*3+1], row[x*3+2] = img.Bytes(x, y)
			}
			if _, err := bw.Write(row); err != nil {
				return err
			}
		}
		return bw.Flush()
	}

	var num []byte
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b := img.Bytes(x, y)
			for _, v := range [3]uint8{r, g, b} {
				num = strconv.AppendInt(num[:0], int64(v), 10)
				num = append(num, ' ')
				if _, err := bw.Write(num); err != nil {
					return err
				}
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// PNGEncoder writes 8-bit PNG files
type PNGEncoder struct{}

// Encode writes the image as PNG
func (PNGEncoder) Encode(w io.Writer, img *Image) error {
	return png.Encode(w, img.RGBA())
}

// EXREncoder writes half-float OpenEXR files. The writer must also
// implement io.WriteSeeker, which *os.File does.
type EXREncoder struct{}

// Encode writes the image as a ZIP-compressed RGBA OpenEXR file
func (EXREncoder) Encode(w io.Writer, img *Image) error {
	ws, ok := w.(io.WriteSeeker)
	if !ok {
		return ErrNotSeekable
	}

	out := exr.NewRGBAImage(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := img.At(x, y)
			out.SetRGBA(x, y, float32(c.X), float32(c.Y), float32(c.Z), 1)
		}
	}
	return exr.Encode(ws, out)
}

// EncoderForFormat returns the encoder registered under a format name:
// "ppm" (P6), "ppm-ascii" (P3), "png" or "exr"
func EncoderForFormat(format string) (Encoder, error) {
	switch strings.ToLower(format) {
	case "ppm", "p6":
		return PPMEncoder{Binary: true}, nil
	case "ppm-ascii", "p3":
		return PPMEncoder{Binary: false}, nil
	case "png":
		return PNGEncoder{}, nil
	case "exr":
		return EXREncoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// EncoderForPath picks an encoder from the file extension. ".ppm" maps to
// the binary variant.
func EncoderForPath(path string) (Encoder, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, path)
	}
	return EncoderForFormat(ext)
}

// WriteFile creates path and encodes the image into it
func WriteFile(path string, img *Image, enc Encoder) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := enc.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

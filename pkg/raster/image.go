// Package raster holds the floating point RGB frame buffer the renderers
// write into and the encoders that serialize it.
package raster

import (
	"image"
	"image/color"

	"github.com/df07/go-volume-raymarcher/pkg/core"
)

// Image is a width x height buffer of RGB values in [0,1], stored row-major
// with the top row first. Concurrent writers must touch disjoint pixels.
type Image struct {
	Width  int
	Height int
	Pix    []float64 // 3 values per pixel
}

// NewImage allocates a black image
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height*3),
	}
}

// Bounds returns the pixel rectangle covered by the image
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

func (img *Image) offset(x, y int) int {
	return (y*img.Width + x) * 3
}

// Set stores the color at (x, y), clamping each channel to [0,1].
// Out-of-range coordinates are ignored.
func (img *Image) Set(x, y int, c core.Vec3) {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return
	}
	c = c.Clamp(0, 1)
	i := img.offset(x, y)
	img.Pix[i+0] = c.X
	img.Pix[i+1] = c.Y
	img.Pix[i+2] = c.Z
}

// At returns the color at (x, y), or black outside the image
func (img *Image) At(x, y int) core.Vec3 {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return core.Vec3{}
	}
	i := img.offset(x, y)
	return core.NewVec3(img.Pix[i+0], img.Pix[i+1], img.Pix[i+2])
}

// Fill sets every pixel to the given color
func (img *Image) Fill(c core.Vec3) {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.Set(x, y, c)
		}
	}
}

// Equal reports whether both images have the same size and identical samples
func (img *Image) Equal(other *Image) bool {
	if img.Width != other.Width || img.Height != other.Height {
		return false
	}
	for i := range img.Pix {
		if img.Pix[i] != other.Pix[i] {
			return false
		}
	}
	return true
}

// RGBA converts the buffer to an 8-bit image using the same truncation as
// the PPM writers
func (img *Image) RGBA() *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b := img.Bytes(x, y)
			out.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return out
}

// Bytes returns the 8-bit channel values for (x, y)
func (img *Image) Bytes(x, y int) (r, g, b uint8) {
	c := img.At(x, y)
	return toByte(c.X), toByte(c.Y), toByte(c.Z)
}

func toByte(v float64) uint8 {
	return uint8(min(v*255.0, 255.0))
}

// ColorFromBytes returns the color that encodes back to exactly r, g, b.
// Values sit in the middle of their byte bucket so truncation is stable.
func ColorFromBytes(r, g, b uint8) core.Vec3 {
	return core.NewVec3(
		(float64(r)+0.5)/255.0,
		(float64(g)+0.5)/255.0,
		(float64(b)+0.5)/255.0,
	)
}

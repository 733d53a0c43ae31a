package raster

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/df07/go-volume-raymarcher/pkg/core"
)

// Decoding errors
var (
	ErrNotPPM      = errors.New("raster: not a P3 or P6 pixmap")
	ErrBadMaxValue = errors.New("raster: unsupported maximum sample value")
)

// PPMHeader is the parsed header block of a pixmap
type PPMHeader struct {
	Magic  string // "P3" or "P6"
	Width  int
	Height int
	MaxVal int
}

// ReadPPMHeader parses the magic number, dimensions and maximum value.
// For P6 the single whitespace byte that ends the header is consumed.
func ReadPPMHeader(r *bufio.Reader) (PPMHeader, error) {
	var h PPMHeader

	magic, err := readToken(r)
	if err != nil {
		return h, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != "P3" && magic != "P6" {
		return h, fmt.Errorf("%w: magic %q", ErrNotPPM, magic)
	}
	h.Magic = magic

	fields := []*int{&h.Width, &h.Height, &h.MaxVal}
	names := []string{"width", "height", "maxval"}
	for i, field := range fields {
		tok, err := readToken(r)
		if err != nil {
			return h, fmt.Errorf("failed to read %s: %w", names[i], err)
		}
		v, err := strconv.Atoi(tok)
		if err != nil || v < 0 {
			return h, fmt.Errorf("invalid %s %q", names[i], tok)
		}
		*field = v
	}
	if h.MaxVal <= 0 || h.MaxVal > 255 {
		return h, fmt.Errorf("%w: %d", ErrBadMaxValue, h.MaxVal)
	}

	if h.Magic == "P6" {
		// readToken stops on the delimiter without consuming it
		if _, err := r.ReadByte(); err != nil {
			return h, fmt.Errorf("failed to read header terminator: %w", err)
		}
	}
	return h, nil
}

// DecodePPM reads a P3 or P6 pixmap into an Image
func DecodePPM(rd io.Reader) (*Image, PPMHeader, error) {
	r := bufio.NewReader(rd)
	h, err := ReadPPMHeader(r)
	if err != nil {
		return nil, h, err
	}

	img := NewImage(h.Width, h.Height)
	sample := make([]uint8, 3)
	for y := 0; y < h.Height; y++ {
		for x := 0; x < h.Width; x++ {
			if h.Magic == "P6" {
				if _, err := io.ReadFull(r, sample); err != nil {
					return nil, h, fmt.Errorf("pixel (%d,%d): %w", x, y, err)
				}
			} else {
				for c := 0; c < 3; c++ {
					tok, err := readToken(r)
					if err != nil {
						return nil, h, fmt.Errorf("pixel (%d,%d): %w", x, y, err)
					}
					v, err := strconv.Atoi(tok)
					if err != nil || v < 0 || v > h.MaxVal {
						return nil, h, fmt.Errorf("pixel (%d,%d): invalid sample %q", x, y, tok)
					}
					sample[c] = uint8(v)
				}
			}
			img.Set(x, y, scaleSample(sample, h.MaxVal))
		}
	}
	return img, h, nil
}

func scaleSample(s []uint8, maxVal int) core.Vec3 {
	if maxVal == 255 {
		return ColorFromBytes(s[0], s[1], s[2])
	}
	scale := 1.0 / float64(maxVal)
	return core.NewVec3(float64(s[0])*scale, float64(s[1])*scale, float64(s[2])*scale)
}

// readToken skips whitespace and '#' comments and returns the next
// whitespace-delimited token. The delimiter is left unread.
func readToken(r *bufio.Reader) (string, error) {
	var tok []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && len(tok) > 0 {
				return string(tok), nil
			}
			if err == io.EOF {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}

		switch {
		case b == '#' && len(tok) == 0:
			if _, err := r.ReadString('\n'); err != nil && err != io.EOF {
				return "", err
			}
		case isSpace(b):
			if len(tok) > 0 {
				return string(tok), r.UnreadByte()
			}
		default:
			tok = append(tok, b)
		}
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

package photo

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// ParseHexColor parses "#rrggbb" (leading '#' optional) into an opaque color.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: want rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 255,
	}, nil
}

// Flatten composites img onto a solid background of the same size,
// discarding transparency.
func Flatten(img image.Image, bg color.NRGBA) *image.NRGBA {
	base := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), bg)
	return imaging.Overlay(base, img, image.Pt(0, 0), 1.0)
}

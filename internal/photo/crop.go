package photo

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// CropSettings describes the pan/zoom state of the positioning canvas.
// Offsets are in canvas pixels and may be negative; Scale maps image
// pixels to canvas pixels.
type CropSettings struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	CanvasW float64 `json:"canvasW"`
	CanvasH float64 `json:"canvasH"`
}

// ApplyCrop cuts the region of img visible in the positioning canvas and
// resizes it to target. The visible region is clamped to the image bounds
// and never collapses below one pixel.
func ApplyCrop(img image.Image, crop CropSettings, target image.Point) image.Image {
	scale := crop.Scale
	if scale <= 0 {
		scale = 1
	}
	cw, ch := crop.CanvasW, crop.CanvasH
	if cw <= 0 {
		cw = defaultCustomSide
	}
	if ch <= 0 {
		ch = defaultCustomSide
	}

	x := math.Max(0, -crop.OffsetX/scale)
	y := math.Max(0, -crop.OffsetY/scale)
	w := cw / scale
	h := ch / scale

	iw := float64(img.Bounds().Dx())
	ih := float64(img.Bounds().Dy())
	if x+w > iw {
		w = iw - x
	}
	if y+h > ih {
		h = ih - y
	}

	rect := image.Rect(int(x), int(y), int(x+math.Max(1, w)), int(y+math.Max(1, h)))
	cropped := imaging.Crop(img, rect)
	return imaging.Resize(cropped, target.X, target.Y, imaging.Lanczos)
}

// CoverResize scales img so it covers target and crops the overflow
// around the center.
func CoverResize(img image.Image, target image.Point) image.Image {
	return imaging.Fill(img, target.X, target.Y, imaging.Center, imaging.Lanczos)
}

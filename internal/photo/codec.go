package photo

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"

	// Decoders for the accepted upload formats beyond jpeg/png.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 95

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
}

// AllowedExtension reports whether ext (including the dot, any case) is an
// accepted upload format.
func AllowedExtension(ext string) bool {
	return allowedExtensions[strings.ToLower(ext)]
}

// Decode decodes encoded image bytes with any registered format.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// Dimensions reads the pixel dimensions from encoded image bytes without
// decoding the full pixel data.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// Encode serialises the processed result: PNG when transparency must
// survive, JPEG otherwise. Returns the bytes and their content type.
func Encode(img image.Image, transparent bool) ([]byte, string, error) {
	var buf bytes.Buffer
	if transparent {
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	}
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/jpeg", nil
}

// EncodePNG serialises img as PNG regardless of transparency. Used for the
// matting sidecar, which always expects PNG input.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package photo

import "image"

// SizeChoice is the output size selected in step 2 of the workflow.
// Type is one of the preset names, "custom", or "original".
type SizeChoice struct {
	Type         string `json:"type"`
	CustomWidth  int    `json:"custom_width"`
	CustomHeight int    `json:"custom_height"`
}

const (
	defaultCustomSide = 400
	minCustomSide     = 50
	maxCustomSide     = 5000
)

var presets = map[string]image.Point{
	"passport_us": {X: 600, Y: 600},
	"passport_eu": {X: 413, Y: 531},
	"linkedin":    {X: 400, Y: 400},
	"square_1000": {X: 1000, Y: 1000},
}

// ResolveSize maps a size choice to target pixel dimensions. The second
// return value is false when the image should keep its original size
// (nil choice, "original", or an unknown preset name).
func ResolveSize(choice *SizeChoice) (image.Point, bool) {
	if choice == nil {
		return image.Point{}, false
	}
	if choice.Type == "custom" {
		return image.Point{
			X: clampSide(choice.CustomWidth),
			Y: clampSide(choice.CustomHeight),
		}, true
	}
	target, ok := presets[choice.Type]
	return target, ok
}

func clampSide(v int) int {
	if v == 0 {
		return defaultCustomSide
	}
	if v < minCustomSide {
		return minCustomSide
	}
	if v > maxCustomSide {
		return maxCustomSide
	}
	return v
}

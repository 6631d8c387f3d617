package render

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/swdee/go-lpkit/dataset"
)

var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 50, A: 255}
	Pink   = color.RGBA{R: 255, G: 0, B: 255, A: 255}

	// PlateColor is used for license plate polygons
	PlateColor = hsv(120, 1, 0.9)
	// FrontColor and RearColor are used for front/rear polygons and labels
	FrontColor = hsv(25, 0.9, 1)
	RearColor  = hsv(205, 0.9, 1)
	// UnknownColor is used for front/rear polygons without a class
	UnknownColor = color.RGBA{R: 192, G: 192, B: 192, A: 255}
)

func hsv(h, s, v float64) color.RGBA {
	r, g, b := colorful.Hsv(h, s, v).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// ClassColor returns the color a front/rear class is drawn in
func ClassColor(class string) color.RGBA {
	switch class {
	case dataset.ClassFront:
		return FrontColor
	case dataset.ClassRear:
		return RearColor
	default:
		return UnknownColor
	}
}

// Palette returns n colors of evenly spaced hue
func Palette(n int) []color.RGBA {

	out := make([]color.RGBA, n)

	for i := range out {
		out[i] = hsv(360*float64(i)/float64(n), 0.8, 1)
	}

	return out
}

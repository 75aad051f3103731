// Package colorutil provides shared color utilities for the scale reader overlays.
package colorutil

import (
	"image/color"
)

// Common overlay colors used throughout the application.
var (
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	DarkRed = color.RGBA{R: 127, G: 0, B: 0, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Blue    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Lilac   = color.RGBA{R: 128, G: 128, B: 255, A: 255}
)

// Gray converts an RGB triple (0-255) to luma using the ITU-R BT.601 weights,
// the same weighting OpenCV uses for BGR->GRAY.
func Gray(r, g, b uint8) uint8 {
	y := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	if y > 255 {
		y = 255
	}
	return uint8(y + 0.5)
}

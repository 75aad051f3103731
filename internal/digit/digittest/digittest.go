// Package digittest renders synthetic seven-segment readings for tests.
//
// A digit at scale s is 48s wide and 90s tall. Bars are 10s thick,
// horizontal bars are 24s long and vertical bars 36s long, leaving a 2s gap
// at every joint so each bar is its own connected component.
package digittest

import (
	"fmt"

	"smarter-scale/pkg/geometry"

	"gocv.io/x/gocv"
)

// Slots in decoder order: top, middle, bottom, upper-left, upper-right,
// lower-left, lower-right.
var slotRects = [7]geometry.RectInt{
	{X: 12, Y: 0, Width: 24, Height: 10},
	{X: 12, Y: 40, Width: 24, Height: 10},
	{X: 12, Y: 80, Width: 24, Height: 10},
	{X: 0, Y: 6, Width: 10, Height: 36},
	{X: 38, Y: 6, Width: 10, Height: 36},
	{X: 0, Y: 48, Width: 10, Height: 36},
	{X: 38, Y: 48, Width: 10, Height: 36},
}

// Patterns lists the lit slots of each digit.
var Patterns = map[rune]string{
	'0': "1011111",
	'1': "0001010",
	'2': "1110110",
	'3': "1110101",
	'4': "0101101",
	'5': "1111001",
	'6': "1111011",
	'7': "1000101",
	'8': "1111111",
	'9': "1111101",
}

const (
	DigitWidth  = 48
	DigitHeight = 90
	Pitch       = 70 // Horizontal distance between digit origins
)

// SlotRect returns the bar for slot at origin and scale s.
func SlotRect(slot int, origin geometry.PointInt, s int) geometry.RectInt {
	r := slotRects[slot]
	return geometry.NewRectInt(origin.X+r.X*s, origin.Y+r.Y*s, r.Width*s, r.Height*s)
}

// Digit returns the bars that display d, in slot order.
func Digit(d rune, origin geometry.PointInt, s int) []geometry.RectInt {
	pattern, ok := Patterns[d]
	if !ok {
		panic(fmt.Sprintf("digittest: no pattern for %q", d))
	}
	var out []geometry.RectInt
	for slot := range slotRects {
		if pattern[slot] == '1' {
			out = append(out, SlotRect(slot, origin, s))
		}
	}
	return out
}

// Reading lays out the digits of text left to right starting at origin.
func Reading(text string, origin geometry.PointInt, s int) []geometry.RectInt {
	var out []geometry.RectInt
	for i, d := range []rune(text) {
		at := geometry.PointInt{X: origin.X + i*Pitch*s, Y: origin.Y}
		out = append(out, Digit(d, at, s)...)
	}
	return out
}

// Size returns the frame size that holds text at scale s, using the origin
// offset as the margin on every side.
func Size(text string, origin geometry.PointInt, s int) (rows, cols int) {
	n := len([]rune(text))
	cols = origin.X*2 + ((n-1)*Pitch+DigitWidth)*s
	rows = origin.Y*2 + DigitHeight*s
	return rows, cols
}

// Paint fills rects with value in a row-major buffer of width cols.
func Paint(pix []uint8, cols int, rects []geometry.RectInt, value uint8) {
	for _, r := range rects {
		for y := r.Y; y < r.Bottom(); y++ {
			for x := r.X; x < r.Right(); x++ {
				pix[y*cols+x] = value
			}
		}
	}
}

// Mask renders rects as a 0/255 mask.
func Mask(rows, cols int, rects []geometry.RectInt) []uint8 {
	pix := make([]uint8, rows*cols)
	Paint(pix, cols, rects, 255)
	return pix
}

// Striped renders rects at 200 on alternating 40/44 columns. A flat
// background passes a mean adaptive threshold; the stripes give it texture
// that a morphological opening removes.
func Striped(rows, cols int, rects []geometry.RectInt) []uint8 {
	pix := make([]uint8, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			pix[y*cols+x] = 40
			if x%2 == 1 {
				pix[y*cols+x] = 44
			}
		}
	}
	Paint(pix, cols, rects, 200)
	return pix
}

// Mat copies a row-major buffer into a new single-channel Mat owned by the
// caller.
func Mat(rows, cols int, pix []uint8) (gocv.Mat, error) {
	m, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC1, pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("wrap pixels: %w", err)
	}
	defer m.Close()
	return m.Clone(), nil
}

// StripedMat renders text at scale s on a striped background.
func StripedMat(text string, origin geometry.PointInt, s int) (gocv.Mat, error) {
	rows, cols := Size(text, origin, s)
	return Mat(rows, cols, Striped(rows, cols, Reading(text, origin, s)))
}

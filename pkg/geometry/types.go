// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"fmt"
	"image"
	"math"
)

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RectInt represents a rectangle with integer coordinates in image pixels.
// X and Y are the top-left corner; Right and Bottom are exclusive.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRectInt creates a new RectInt.
func NewRectInt(x, y, width, height int) RectInt {
	return RectInt{X: x, Y: y, Width: width, Height: height}
}

// FromImageRect converts an image.Rectangle (as returned by gocv.BoundingRect).
func FromImageRect(r image.Rectangle) RectInt {
	return RectInt{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// ImageRect converts to an image.Rectangle.
func (r RectInt) ImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.Right(), r.Bottom())
}

// Area returns width*height.
func (r RectInt) Area() int {
	return r.Width * r.Height
}

// Right returns the exclusive right edge.
func (r RectInt) Right() int {
	return r.X + r.Width
}

// Bottom returns the exclusive bottom edge.
func (r RectInt) Bottom() int {
	return r.Y + r.Height
}

// Empty reports whether the rectangle has no area.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Wide reports whether the rectangle is wider than it is tall.
func (r RectInt) Wide() bool {
	return r.Width > r.Height
}

// AspectRatio returns the long side divided by the short side.
// A degenerate rectangle returns +Inf.
func (r RectInt) AspectRatio() float64 {
	long, short := r.Width, r.Height
	if short > long {
		long, short = short, long
	}
	if short <= 0 {
		return math.Inf(1)
	}
	return float64(long) / float64(short)
}

// Overlaps returns true if the interiors of the two rectangles intersect.
// Rectangles that only share an edge do not overlap.
func (r RectInt) Overlaps(other RectInt) bool {
	return max(r.X, other.X) < min(r.Right(), other.Right()) &&
		max(r.Y, other.Y) < min(r.Bottom(), other.Bottom())
}

// Union returns the smallest rectangle containing both rectangles.
func (r RectInt) Union(other RectInt) RectInt {
	x := min(r.X, other.X)
	y := min(r.Y, other.Y)
	x2 := max(r.Right(), other.Right())
	y2 := max(r.Bottom(), other.Bottom())
	return RectInt{X: x, Y: y, Width: x2 - x, Height: y2 - y}
}

// Translate returns the rectangle shifted by the given offset.
func (r RectInt) Translate(offset PointInt) RectInt {
	r.X += offset.X
	r.Y += offset.Y
	return r
}

// ExpandLong returns a copy of the rectangle grown along its long axis by
// ratio times its short side, split evenly between both ends.
// The short axis is left untouched.
func (r RectInt) ExpandLong(ratio float64) RectInt {
	if r.Wide() {
		grow := float64(r.Height) * ratio
		r.X = int(float64(r.X) - grow/2)
		r.Width = int(float64(r.Width) + grow)
	} else {
		grow := float64(r.Width) * ratio
		r.Y = int(float64(r.Y) - grow/2)
		r.Height = int(float64(r.Height) + grow)
	}
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	return r
}

func (r RectInt) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// BoundingRect returns the smallest rectangle covering all given rectangles.
func BoundingRect(rects []RectInt) RectInt {
	if len(rects) == 0 {
		return RectInt{}
	}
	u := rects[0]
	for _, r := range rects[1:] {
		u = u.Union(r)
	}
	return u
}

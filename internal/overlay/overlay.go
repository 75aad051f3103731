// Package overlay draws decoder debug overlays onto frames, either through
// OpenCV on a gocv.Mat or in pure Go on an *image.RGBA.
package overlay

import (
	"image"
	"image/color"

	"smarter-scale/internal/digit"
	"smarter-scale/pkg/colorutil"
	"smarter-scale/pkg/geometry"

	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Pen is the color and line thickness for one rectangle tag.
type Pen struct {
	Color     color.RGBA
	Thickness int
}

// Style maps overlay elements to pens.
type Style struct {
	Contour   Pen
	Ignored   Pen
	Segment   Pen
	Cluster   Pen
	Guide     Pen
	Text      Pen
	TextScale float64 // Hershey font scale for Mat output
	Confirmed Pen
}

// DefaultStyle returns the standard overlay palette. Guide thickness is
// half a percent of the frame width.
func DefaultStyle(frameWidth int) Style {
	return Style{
		Contour:   Pen{Color: colorutil.Green, Thickness: 1},
		Ignored:   Pen{Color: colorutil.DarkRed, Thickness: 1},
		Segment:   Pen{Color: colorutil.Blue, Thickness: 3},
		Cluster:   Pen{Color: colorutil.Magenta, Thickness: 5},
		Guide:     Pen{Color: colorutil.Red, Thickness: max(1, int(0.005*float64(frameWidth)))},
		Text:      Pen{Color: colorutil.Lilac, Thickness: 5},
		TextScale: 5,
		Confirmed: Pen{Color: colorutil.Red, Thickness: 5},
	}
}

// Pen returns the pen for a rectangle tag.
func (s Style) Pen(tag digit.Tag) Pen {
	switch tag {
	case digit.TagSegment:
		return s.Segment
	case digit.TagCluster:
		return s.Cluster
	case digit.TagGuide:
		return s.Guide
	case digit.TagContour:
		return s.Contour
	default:
		return s.Ignored
	}
}

// Render converts a grayscale frame to BGR and draws the overlay on it.
// The caller owns the returned Mat.
func Render(gray gocv.Mat, o *digit.Overlay, style Style) gocv.Mat {
	out := gocv.NewMat()
	switch gray.Channels() {
	case 1:
		gocv.CvtColor(gray, &out, gocv.ColorGrayToBGR)
	case 4:
		gocv.CvtColor(gray, &out, gocv.ColorBGRAToBGR)
	default:
		gray.CopyTo(&out)
	}
	Draw(&out, o, style)
	return out
}

// Draw draws the overlay rectangles and reading text onto dst in place.
func Draw(dst *gocv.Mat, o *digit.Overlay, style Style) {
	if o == nil || dst.Empty() {
		return
	}
	for _, r := range o.Rects {
		pen := style.Pen(r.Tag)
		gocv.Rectangle(dst, r.Rect.ImageRect(), pen.Color, pen.Thickness)
	}
	if o.Text != "" {
		gocv.PutText(dst, o.Text, image.Pt(o.TextOrigin.X, o.TextOrigin.Y),
			gocv.FontHersheySimplex, style.TextScale, style.Text.Color, style.Text.Thickness)
	}
}

// DrawConfirmed marks a confirmed reading above the bottom-left corner.
func DrawConfirmed(dst *gocv.Mat, reading string, style Style) {
	if reading == "" || dst.Empty() {
		return
	}
	gocv.PutText(dst, ">"+reading, image.Pt(0, dst.Rows()-50),
		gocv.FontHersheySimplex, style.TextScale*2, style.Confirmed.Color, style.Confirmed.Thickness*6)
}

// DrawRGBA draws the overlay onto an RGBA image without OpenCV. Text uses
// the fixed 7x13 bitmap face.
func DrawRGBA(dst *image.RGBA, o *digit.Overlay, style Style) {
	if o == nil || dst == nil {
		return
	}
	for _, r := range o.Rects {
		pen := style.Pen(r.Tag)
		strokeRect(dst, r.Rect, pen)
	}
	if o.Text != "" {
		d := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(style.Text.Color),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(o.TextOrigin.X, o.TextOrigin.Y-basicfont.Face7x13.Descent),
		}
		d.DrawString(o.Text)
	}
}

// strokeRect draws an outline thickness pixels wide, inside and outside the
// edge the way OpenCV centers thick lines.
func strokeRect(dst *image.RGBA, r geometry.RectInt, pen Pen) {
	t := max(1, pen.Thickness)
	inner := t / 2
	outer := t - inner - 1
	x0, y0 := r.X-outer, r.Y-outer
	x1, y1 := r.Right()-1+outer, r.Bottom()-1+outer
	b := dst.Bounds()
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			onEdge := x < r.X+inner+1 || x > r.Right()-2-inner || y < r.Y+inner+1 || y > r.Bottom()-2-inner
			if onEdge && image.Pt(x, y).In(b) {
				dst.SetRGBA(x, y, pen.Color)
			}
		}
	}
}

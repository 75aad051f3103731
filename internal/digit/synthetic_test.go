package digit

import (
	"smarter-scale/internal/digit/digittest"
	"smarter-scale/pkg/geometry"
)

// zeroOne is the reading "01" at scale 1 with a 10px margin.
func zeroOne() (rects []geometry.RectInt, rows, cols int) {
	origin := geometry.PointInt{X: 10, Y: 10}
	rows, cols = digittest.Size("01", origin, 1)
	return digittest.Reading("01", origin, 1), rows, cols
}

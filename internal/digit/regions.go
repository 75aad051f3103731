package digit

import (
	"smarter-scale/pkg/geometry"

	"gocv.io/x/gocv"
)

// SummedArea is a summed-area table over a single-channel 8-bit mask.
// Cell (y, x) holds the sum of all mask pixels with row < y and col < x,
// so the table is (rows+1)x(cols+1) and row 0 / column 0 are zero.
type SummedArea struct {
	rows, cols int
	table      []int64
}

// NewSummedArea builds a summed-area table from a row-major byte mask.
func NewSummedArea(rows, cols int, pix []uint8) *SummedArea {
	s := &SummedArea{rows: rows, cols: cols, table: make([]int64, (rows+1)*(cols+1))}
	stride := cols + 1
	for y := 0; y < rows; y++ {
		var rowSum int64
		for x := 0; x < cols; x++ {
			rowSum += int64(pix[y*cols+x])
			s.table[(y+1)*stride+x+1] = s.table[y*stride+x+1] + rowSum
		}
	}
	return s
}

// summedAreaFromMat builds the table with cv::integral (CV_32S accumulation).
func summedAreaFromMat(mask gocv.Mat) *SummedArea {
	rows, cols := mask.Rows(), mask.Cols()
	s := &SummedArea{rows: rows, cols: cols, table: make([]int64, (rows+1)*(cols+1))}

	sum := gocv.NewMat()
	defer sum.Close()
	sqsum := gocv.NewMat()
	defer sqsum.Close()
	tilted := gocv.NewMat()
	defer tilted.Close()
	gocv.Integral(mask, &sum, &sqsum, &tilted)

	stride := cols + 1
	for y := 0; y <= rows; y++ {
		for x := 0; x <= cols; x++ {
			s.table[y*stride+x] = int64(sum.GetIntAt(y, x))
		}
	}
	return s
}

// Rows returns the number of mask rows covered by the table.
func (s *SummedArea) Rows() int { return s.rows }

// Cols returns the number of mask columns covered by the table.
func (s *SummedArea) Cols() int { return s.cols }

// at returns table cell (y, x); indices outside the table read as zero.
func (s *SummedArea) at(y, x int) int64 {
	if y < 0 || x < 0 || y > s.rows || x > s.cols {
		return 0
	}
	return s.table[y*(s.cols+1)+x]
}

// Sum returns the sum of mask pixel values inside r in O(1).
func (s *SummedArea) Sum(r geometry.RectInt) int64 {
	if s == nil {
		return 0
	}
	return s.at(r.Bottom(), r.Right()) - s.at(r.Bottom(), r.X) - s.at(r.Y, r.Right()) + s.at(r.Y, r.X)
}

// ExtractRegions finds the outer contour of every connected foreground
// component in mask and returns their bounding rectangles, along with the
// summed-area table of the mask. With nested set, components enclosed by
// other components are reported too. An empty mask yields no regions.
func ExtractRegions(mask gocv.Mat, nested bool) ([]geometry.RectInt, *SummedArea) {
	if mask.Empty() || mask.Rows() == 0 || mask.Cols() == 0 {
		return nil, NewSummedArea(0, 0, nil)
	}

	sat := summedAreaFromMat(mask)

	mode := gocv.RetrievalExternal
	if nested {
		mode = gocv.RetrievalList
	}
	contours := gocv.FindContours(mask, mode, gocv.ChainApproxSimple)
	defer contours.Close()

	rects := make([]geometry.RectInt, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		rects = append(rects, geometry.FromImageRect(gocv.BoundingRect(contours.At(i))))
	}
	return rects, sat
}
